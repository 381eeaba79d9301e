//
// Corvid - a UCI-compatible chess engine written in Go
//
// MIT License
//
// Copyright (c) 2020-2026 Corvid Engine Contributors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
//

package transpositiontable

import (
	"github.com/corvid-engine/corvid/internal/position"
	. "github.com/corvid-engine/corvid/internal/types"
)

// TtEntry is a decoded snapshot of one slot of the transposition table at
// the moment it was read. It is an ordinary value - safe to read freely -
// even while other search workers keep writing to the live table, since
// Probe/GetEntry only ever hand out a copy decoded from a single, already
// validated atomic load (see ttSlot.load in tt.go).
type TtEntry struct {
	Key   position.Key // zobrist key this entry was stored under
	Move  Move         // best/refutation move; carries the search value in its high bits, see Move.ValueOf
	Depth int8         // depth this entry was searched to
	Age   int8         // generations since last touched by a Probe hit; 0 is freshest
	Type  ValueType    // EXACT, ALPHA (upper bound) or BETA (lower bound)

	// MateThreat flags a position where the side to move threatens mate
	// even without the right to move (used by null-move threat detection).
	// Carried over from the table layout but not yet produced by any Put
	// call site.
	MateThreat bool
}

// pack encodes everything but Key into the 64-bit payload stored in a
// slot's data word. Key itself is never stored directly - only XOR'd with
// this payload into the slot's hash word, so a slot's true key can be
// recovered as hash^data and verified the same way on every read.
func (e TtEntry) pack() uint64 {
	mateThreat := uint64(0)
	if e.MateThreat {
		mateThreat = 1
	}
	return uint64(uint32(e.Move)) |
		uint64(uint8(e.Depth))<<32 |
		uint64(uint8(e.Age))<<40 |
		uint64(uint8(e.Type))<<48 |
		mateThreat<<56
}

// unpackEntry decodes a payload word previously produced by pack back into
// a TtEntry, attaching the key it was validated against.
func unpackEntry(key position.Key, data uint64) TtEntry {
	return TtEntry{
		Key:        key,
		Move:       Move(uint32(data)),
		Depth:      int8(uint8(data >> 32)),
		Age:        int8(uint8(data >> 40)),
		Type:       ValueType(int8(uint8(data >> 48))),
		MateThreat: (data>>56)&1 != 0,
	}
}
