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

package types

// MoveType is a 2 bit set of constants identifying the special handling a
// move needs on top of the plain from/to/promotion encoding.
//  Normal    = 0b00
//  Promotion = 0b01
//  EnPassant = 0b10
//  Castling  = 0b11
type MoveType uint8

// MoveType constants
const (
	Normal    MoveType = 0b00
	Promotion MoveType = 0b01
	EnPassant MoveType = 0b10
	Castling  MoveType = 0b11
)

// IsValid checks if mt is a valid move type
func (mt MoveType) IsValid() bool {
	return mt <= Castling
}

var moveTypeToString = [4]string{"Normal", "Promotion", "EnPassant", "Castling"}

// String returns a string representation of a move type
func (mt MoveType) String() string {
	return moveTypeToString[mt]
}
