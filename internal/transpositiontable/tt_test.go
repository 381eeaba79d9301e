/*
 * Corvid - a UCI-compatible chess engine written in Go
 *
 * MIT License
 *
 * Copyright (c) 2020-2026 Corvid Engine Contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package transpositiontable

import (
	"math/rand"
	"os"
	"path"
	"runtime"
	"testing"
	"time"
	"unsafe"

	logging2 "github.com/op/go-logging"
	"github.com/stretchr/testify/assert"

	"github.com/corvid-engine/corvid/internal/config"
	"github.com/corvid-engine/corvid/internal/logging"
	"github.com/corvid-engine/corvid/internal/position"
	. "github.com/corvid-engine/corvid/internal/types"
)

var logTest *logging2.Logger

// make tests run in the projects root directory
func init() {
	_, filename, _, _ := runtime.Caller(0)
	dir := path.Join(path.Dir(filename), "../..")
	err := os.Chdir(dir)
	if err != nil {
		panic(err)
	}
}

// Setup the tests
func TestMain(m *testing.M) {
	config.Setup()
	logTest = logging.GetTestLog()
	code := m.Run()
	os.Exit(code)
}

func TestEntrySize(t *testing.T) {
	e := TtEntry{
		Key:        0,
		Move:       0,
		Depth:      0,
		Age:        0,
		Type:       0,
		MateThreat: false,
	}
	assert.EqualValues(t, 16, unsafe.Sizeof(e))
	logTest.Debugf("Size of Entry %d bytes", unsafe.Sizeof(e))
}

func TestNew(t *testing.T) {

	tt := NewTtTable(2)
	assert.Equal(t, uint64(65_536), tt.maxNumberOfEntries)
	assert.Equal(t, 65_536, cap(tt.data))
	logTest.Debug(tt.String())

	tt = NewTtTable(64)
	assert.Equal(t, uint64(2_097_152), tt.maxNumberOfEntries)
	assert.Equal(t, 2_097_152, cap(tt.data))

	tt = NewTtTable(100)
	assert.Equal(t, uint64(2_097_152), tt.maxNumberOfEntries)
	assert.Equal(t, 2_097_152, cap(tt.data))

	tt = NewTtTable(4_096)
	assert.Equal(t, uint64(134_217_728), tt.maxNumberOfEntries)
	assert.Equal(t, 134_217_728, cap(tt.data))
}

func TestGetAndProbe(t *testing.T) {
	// setup
	tt := NewTtTable(64)
	assert.Equal(t, uint64(2_097_152), tt.maxNumberOfEntries)
	assert.Equal(t, 2_097_152, cap(tt.data))

	pos := position.NewPosition()
	move := CreateMove(SqE2, SqE4, Normal, PtNone)
	tt.Put(pos.ZobristKey(), move, 5, ValueNA, Vnone, false)

	// test to get unaltered entry
	e, ok := tt.GetEntry(pos.ZobristKey())
	assert.True(t, ok)
	assert.Equal(t, pos.ZobristKey(), e.Key)
	assert.Equal(t, move, e.Move.MoveOf())
	assert.EqualValues(t, 5, e.Depth)
	assert.EqualValues(t, 0, e.Age)
	assert.Equal(t, Vnone, e.Type)

	// a Put entry starts at age 0; Probe's age-down is floored at 0
	e, ok = tt.Probe(pos.ZobristKey())
	assert.True(t, ok)
	assert.Equal(t, pos.ZobristKey(), e.Key)
	assert.EqualValues(t, 0, e.Age)

	// age does not go below 0
	e, ok = tt.Probe(pos.ZobristKey())
	assert.True(t, ok)
	assert.EqualValues(t, 0, e.Age)

	// not in tt
	pos.DoMove(move)
	e, ok = tt.Probe(pos.ZobristKey())
	assert.False(t, ok)
	assert.Equal(t, TtEntry{}, e)
}

func TestClear(t *testing.T) {
	// setup
	tt := NewTtTable(1)

	pos := position.NewPosition()
	move := CreateMove(SqE2, SqE4, Normal, PtNone)
	tt.Put(pos.ZobristKey(), move, 5, ValueNA, Vnone, false)

	e, ok := tt.Probe(pos.ZobristKey())
	assert.True(t, ok)
	assert.Equal(t, pos.ZobristKey(), e.Key)
	assert.Equal(t, move, e.Move.MoveOf())
	assert.EqualValues(t, 5, e.Depth)
	assert.Equal(t, Vnone, e.Type)
	assert.EqualValues(t, 1, tt.numberOfPuts)

	tt.Clear()

	// entry is gone
	e, ok = tt.Probe(pos.ZobristKey())
	assert.False(t, ok)
	assert.Equal(t, TtEntry{}, e)
	assert.EqualValues(t, 0, tt.numberOfPuts)
}

func TestAge(t *testing.T) {
	// setup
	tt := NewTtTable(50)

	logTest.Debug("Filling tt")
	startTime := time.Now()
	for i := uint64(0); i < tt.maxNumberOfEntries; i++ {
		tt.Put(position.Key(i), MoveNone, 1, ValueNA, Vnone, false)
	}
	elapsed := time.Since(startTime)
	logTest.Debug(out.Sprintf("TT of %d buckets filled in %d ms\n", len(tt.data), elapsed.Milliseconds()))
	logTest.Debug(tt.String())

	// a freshly put entry starts at age 0
	e, ok := tt.GetEntry(0)
	assert.True(t, ok)
	assert.EqualValues(t, 0, e.Age)
	e, ok = tt.GetEntry(1)
	assert.True(t, ok)
	assert.EqualValues(t, 0, e.Age)
	e, ok = tt.GetEntry(position.Key(tt.maxNumberOfEntries - 1))
	assert.True(t, ok)
	assert.EqualValues(t, 0, e.Age)

	logTest.Debug("Aging entries")
	tt.AgeEntries()

	e, ok = tt.GetEntry(0)
	assert.True(t, ok)
	assert.EqualValues(t, 1, e.Age)
	e, ok = tt.GetEntry(1)
	assert.True(t, ok)
	assert.EqualValues(t, 1, e.Age)
	e, ok = tt.GetEntry(position.Key(tt.maxNumberOfEntries - 1))
	assert.True(t, ok)
	assert.EqualValues(t, 1, e.Age)
}

func TestPut(t *testing.T) {
	// setup
	tt := NewTtTable(4)
	move := CreateMove(SqE2, SqE4, Normal, PtNone)

	// test of put and probe
	tt.Put(111, move, 4, Value(111), ALPHA, false)
	assert.EqualValues(t, 1, tt.numberOfPuts)
	e, ok := tt.Probe(111)
	assert.True(t, ok)
	assert.EqualValues(t, 111, e.Key)
	assert.EqualValues(t, move, e.Move.MoveOf())
	assert.EqualValues(t, 111, e.Move.ValueOf())
	assert.EqualValues(t, 4, e.Depth)
	assert.EqualValues(t, ALPHA, e.Type)
	assert.EqualValues(t, 0, e.Age)
	assert.EqualValues(t, false, e.MateThreat)

	// test of put update and probe - same key, deeper search overwrites
	// the deepest slot in place
	tt.Put(111, move, 5, Value(112), BETA, true)
	assert.EqualValues(t, 2, tt.numberOfPuts)
	e, ok = tt.Probe(111)
	assert.True(t, ok)
	assert.EqualValues(t, 111, e.Key)
	assert.EqualValues(t, move, e.Move.MoveOf())
	assert.EqualValues(t, 112, e.Move.ValueOf())
	assert.EqualValues(t, 5, e.Depth)
	assert.EqualValues(t, BETA, e.Type)
	assert.EqualValues(t, 0, e.Age)
	assert.EqualValues(t, true, e.MateThreat)

	// test of collision - same bucket, shallower depth takes the recent
	// slot instead of displacing the deepest entry
	collisionKey := position.Key(111 + tt.maxNumberOfEntries)
	tt.Put(collisionKey, move, 3, Value(113), EXACT, false)
	assert.EqualValues(t, 3, tt.numberOfPuts)

	e, ok = tt.Probe(collisionKey)
	assert.True(t, ok)
	assert.EqualValues(t, collisionKey, e.Key)
	assert.EqualValues(t, move, e.Move.MoveOf())
	assert.EqualValues(t, 113, e.Move.ValueOf())
	assert.EqualValues(t, 3, e.Depth)
	assert.EqualValues(t, EXACT, e.Type)

	// the deeper entry is still the deepest slot and still reachable
	e, ok = tt.Probe(111)
	assert.True(t, ok)
	assert.EqualValues(t, 111, e.Key)
	assert.EqualValues(t, 5, e.Depth)

	// a second shallow collision in the same bucket overwrites the
	// recent slot in turn, evicting the first collision but leaving the
	// deepest entry untouched
	collisionKey2 := position.Key(111 + (tt.maxNumberOfEntries << 1))
	tt.Put(collisionKey2, move, 2, Value(114), BETA, true)
	assert.EqualValues(t, 4, tt.numberOfPuts)

	e, ok = tt.Probe(collisionKey)
	assert.False(t, ok)
	assert.Equal(t, TtEntry{}, e)

	e, ok = tt.Probe(collisionKey2)
	assert.True(t, ok)
	assert.EqualValues(t, collisionKey2, e.Key)
	assert.EqualValues(t, 2, e.Depth)

	e, ok = tt.Probe(111)
	assert.True(t, ok)
	assert.EqualValues(t, 111, e.Key)
	assert.EqualValues(t, 5, e.Depth)
}

func TestHashfullAndStats(t *testing.T) {
	tt := NewTtTable(4)
	move := CreateMove(SqE2, SqE4, Normal, PtNone)

	assert.EqualValues(t, 0, tt.Hashfull())

	for i := uint64(0); i < 10; i++ {
		tt.Put(position.Key(i), move, 1, ValueNA, Vnone, false)
	}
	assert.EqualValues(t, 10, tt.numberOfPuts)

	for i := uint64(0); i < 10; i++ {
		_, ok := tt.Probe(position.Key(i))
		assert.True(t, ok)
	}
	assert.EqualValues(t, 10, tt.numberOfProbes)
	assert.EqualValues(t, 10, tt.numberOfHits)

	_, ok := tt.Probe(position.Key(999_999))
	assert.False(t, ok)
	assert.EqualValues(t, 1, tt.numberOfMisses)

	logTest.Debug(tt.String())
}

func TestTimingTTe(t *testing.T) {

	if testing.Short() {
		t.Skip("skipping test in short mode.")
	}

	// setup
	tt := NewTtTable(1_024)
	move := CreateMove(SqE2, SqE4, Normal, PtNone)

	const rounds = 5
	const iterations uint64 = 50_000_000

	for r := 1; r <= rounds; r++ {
		out.Printf("Round %d\n", r)
		key := position.Key(rand.Uint64())
		depth := int8(rand.Int31n(128))
		value := Value(rand.Int31n(int32(ValueMax)))
		valueType := ValueType(rand.Int31n(4))
		start := time.Now()
		for i := uint64(0); i < iterations; i++ {
			tt.Put(key+position.Key(i), move, depth, value, valueType, false)
		}
		for i := uint64(0); i < iterations; i++ {
			key := position.Key(key + position.Key(2*i))
			_, _ = tt.Probe(key)
		}
		elapsed := time.Since(start)
		out.Println(tt.String())
		out.Printf("TimingTT took %d ns for %d iterations (1 put 1 probe)\n", elapsed.Nanoseconds(), iterations)
		out.Printf("1 put/probes in %d ns: %d tts\n",
			elapsed.Nanoseconds()/int64(iterations),
			(iterations*uint64(time.Second.Nanoseconds()))/uint64(elapsed.Nanoseconds()))

	}
}
