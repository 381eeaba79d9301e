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

// Package transpositiontable implements a lockless, shared transposition
// table (cache) for a chess engine search.
//
// Each bucket holds two slots, "deepest" and "recent", following the
// classic two-tier replacement scheme: a new entry first tries to take
// over the deepest slot (if that slot is empty or shallower than the new
// entry), falling back to always overwriting the recent slot otherwise.
//
// Every slot is a pair of atomically accessed words: hash and data. data
// is the packed entry payload; hash is the zobrist key XOR'd with data,
// never the raw key. A reader recovers the key as hash^data and accepts
// the slot only if that recovered key equals the key it probed for.
// Because hash and data are written as two independent atomic stores (no
// lock, no single combined CAS), a concurrent writer can make a reader
// observe one old word and one new word - but that torn combination will
// not XOR back to any real key with overwhelming probability, so the
// reader just treats it as a miss. This is what lets TtTable be shared,
// without external synchronization, across every worker of a search
// Coordinator: a torn or stale read degrades to "not found", it never
// hands back a payload that belongs to a different position.
package transpositiontable

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/op/go-logging"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	myLogging "github.com/corvid-engine/corvid/internal/logging"
	"github.com/corvid-engine/corvid/internal/position"
	. "github.com/corvid-engine/corvid/internal/types"
	"github.com/corvid-engine/corvid/internal/util"
)

var out = message.NewPrinter(language.German)

const (
	// MaxSizeInMB maximal memory usage of tt
	MaxSizeInMB = 65_536

	// emptyHash marks an unoccupied slot. Not zero, since a zobrist key of
	// 0 is a legal (if astronomically unlikely) hash to store.
	emptyHash = uint64(0xDEAD_BEEF_DEAD_BEEF)

	// bucketSizeInBytes is the size of one ttBucket: two slots, each a
	// pair of uint64 words.
	bucketSizeInBytes = 32
)

// ttSlot is one lockless-access slot: an atomically-stored hash word and
// an atomically-stored data word. See the package doc for the validation
// scheme.
type ttSlot struct {
	hash uint64
	data uint64
}

func (s *ttSlot) clear() {
	atomic.StoreUint64(&s.hash, emptyHash)
	atomic.StoreUint64(&s.data, 0)
}

// load returns the decoded entry stored under key, and true, if this slot
// currently holds it. Safe for concurrent use with store/clear on the
// same slot from other goroutines.
func (s *ttSlot) load(key position.Key) (TtEntry, bool) {
	data := atomic.LoadUint64(&s.data)
	hash := atomic.LoadUint64(&s.hash)
	if data^uint64(key) != hash {
		return TtEntry{}, false
	}
	return unpackEntry(key, data), true
}

// occupied reports whether this slot currently holds any entry.
func (s *ttSlot) occupied() bool {
	return atomic.LoadUint64(&s.hash) != emptyHash
}

// depth returns the depth of whatever is currently in this slot, or -1
// if the slot is empty. Used only to pick a replacement target; a torn
// read here just means we occasionally pick the wrong slot to overwrite,
// never that we corrupt one.
func (s *ttSlot) depth() int8 {
	data := atomic.LoadUint64(&s.data)
	if atomic.LoadUint64(&s.hash) == emptyHash {
		return -1
	}
	return int8(uint8(data >> 32))
}

// store writes entry (keyed by key) into this slot with two independent
// atomic stores, hash first then data. A concurrent reader can observe the
// fresh hash with the stale data in between; such a torn pair fails the
// hash^data check in load and reads as a miss.
func (s *ttSlot) store(key position.Key, entry TtEntry) {
	data := entry.pack()
	atomic.StoreUint64(&s.hash, uint64(key)^data)
	atomic.StoreUint64(&s.data, data)
}

// rewriteAge atomically replaces just the Age byte of whatever is
// currently stored in this slot, leaving everything else untouched. The
// read and the write are not one atomic step and there is no check for a
// change in between: a concurrent store/clear can be overwritten by the
// re-aged older entry. Every pair written still validates only under its
// own key, so no reader gets a payload for a different position.
func (s *ttSlot) rewriteAge(newAge int8) {
	data := atomic.LoadUint64(&s.data)
	hash := atomic.LoadUint64(&s.hash)
	if hash == emptyHash {
		return
	}
	key := position.Key(hash ^ data)
	e := unpackEntry(key, data)
	e.Age = newAge
	newData := e.pack()
	atomic.StoreUint64(&s.hash, uint64(key)^newData)
	atomic.StoreUint64(&s.data, newData)
}

// ttBucket is the unit of addressing: every zobrist key maps to exactly
// one bucket, which holds up to two live entries.
type ttBucket struct {
	deepest ttSlot
	recent  ttSlot
}

// TtTable is the shared transposition table. All of its read/write
// methods (Probe, GetEntry, Put, AgeEntries) are safe to call
// concurrently from multiple search workers without external locking;
// see the package doc. Resize and Clear are not part of that contract -
// they replace the backing storage outright and must not be called
// while a search is using the table.
type TtTable struct {
	log             *logging.Logger
	data            []ttBucket
	sizeInByte      uint64
	hashKeyMask     uint64
	maxNumberOfEntries uint64 // number of buckets, each holding 2 slots

	numberOfPuts   uint64
	numberOfProbes uint64
	numberOfHits   uint64
	numberOfMisses uint64
}

// NewTtTable creates a new TtTable with the given number of bytes
// as a maximum of memory usage. actual size will be determined
// by the number of elements fitting into this size which need
// to be a power of 2 for efficient hashing/addressing via bit
// masks.
func NewTtTable(sizeInMByte int) *TtTable {
	tt := TtTable{
		log: myLogging.GetLog(),
	}
	tt.Resize(sizeInMByte)
	return &tt
}

// Resize resizes the tt table. All entries will be cleared.
// Must not be called concurrently with Probe/GetEntry/Put from a running
// search - unlike those methods, Resize replaces the backing slice itself.
func (tt *TtTable) Resize(sizeInMByte int) {
	if sizeInMByte > MaxSizeInMB {
		tt.log.Error(out.Sprintf("Requested size for TT of %d MB reduced to max of %d MB", sizeInMByte, MaxSizeInMB))
		sizeInMByte = MaxSizeInMB
	}

	// calculate the maximum power of 2 of buckets fitting into the given size in MB
	tt.sizeInByte = uint64(sizeInMByte) * MB
	tt.maxNumberOfEntries = 1 << uint64(math.Floor(math.Log2(float64(tt.sizeInByte/bucketSizeInBytes))))
	tt.hashKeyMask = tt.maxNumberOfEntries - 1 // --> 0x0001111....111

	// if TT is resized to 0 we cant have any entries.
	if tt.sizeInByte == 0 {
		tt.maxNumberOfEntries = 0
	}

	// calculate the real memory usage
	tt.sizeInByte = tt.maxNumberOfEntries * bucketSizeInBytes

	tt.data = make([]ttBucket, tt.maxNumberOfEntries)
	tt.clearSlots()

	tt.log.Info(out.Sprintf("TT Size %d MByte, Capacity %d buckets (size=%dByte) (Requested were %d MBytes)",
		tt.sizeInByte/MB, tt.maxNumberOfEntries, unsafe.Sizeof(ttBucket{}), sizeInMByte))
	tt.log.Debug(util.MemStat())
}

func (tt *TtTable) clearSlots() {
	for i := range tt.data {
		tt.data[i].deepest.clear()
		tt.data[i].recent.clear()
	}
}

// GetEntry returns the entry stored under key, and true, if found.
// Does not change statistics or age.
func (tt *TtTable) GetEntry(key position.Key) (TtEntry, bool) {
	if tt.maxNumberOfEntries == 0 {
		return TtEntry{}, false
	}
	bucket := &tt.data[tt.hash(key)]
	if e, ok := bucket.deepest.load(key); ok {
		return e, true
	}
	if e, ok := bucket.recent.load(key); ok {
		return e, true
	}
	return TtEntry{}, false
}

// Probe returns the entry stored under key, and true, if found. On a hit
// it opportunistically decreases the entry's age by one (floored at 0),
// marking it as freshly used.
func (tt *TtTable) Probe(key position.Key) (TtEntry, bool) {
	atomic.AddUint64(&tt.numberOfProbes, 1)
	if tt.maxNumberOfEntries == 0 {
		atomic.AddUint64(&tt.numberOfMisses, 1)
		return TtEntry{}, false
	}
	bucket := &tt.data[tt.hash(key)]
	for _, slot := range []*ttSlot{&bucket.deepest, &bucket.recent} {
		if e, ok := slot.load(key); ok {
			atomic.AddUint64(&tt.numberOfHits, 1)
			if e.Age > 0 {
				slot.rewriteAge(e.Age - 1)
			}
			return e, true
		}
	}
	atomic.AddUint64(&tt.numberOfMisses, 1)
	return TtEntry{}, false
}

// Put stores an entry for key. move's search value (if any) is encoded
// into the stored Move the same way Move.SetValue does; pass ValueNA as
// value to store a move without a value attached.
//
// Replacement policy: takes over the deepest slot if it is empty or no
// deeper than depth, otherwise always overwrites the recent slot - the
// standard two-tier scheme that keeps one long-lived, depth-preferred
// entry per bucket while still tracking whatever was probed most
// recently.
func (tt *TtTable) Put(key position.Key, move Move, depth int8, value Value, valueType ValueType, mateThreat bool) {
	if tt.maxNumberOfEntries == 0 {
		return
	}
	atomic.AddUint64(&tt.numberOfPuts, 1)

	encodedMove := move
	encodedMove.SetValue(value)

	entry := TtEntry{
		Key:        key,
		Move:       encodedMove,
		Depth:      depth,
		Age:        0,
		Type:       valueType,
		MateThreat: mateThreat,
	}

	bucket := &tt.data[tt.hash(key)]
	if !bucket.deepest.occupied() || bucket.deepest.depth() <= depth {
		bucket.deepest.store(key, entry)
		return
	}
	bucket.recent.store(key, entry)
}

// Clear clears all entries of the tt.
// Must not be called concurrently with Probe/GetEntry/Put from a running
// search.
func (tt *TtTable) Clear() {
	tt.clearSlots()
	atomic.StoreUint64(&tt.numberOfPuts, 0)
	atomic.StoreUint64(&tt.numberOfProbes, 0)
	atomic.StoreUint64(&tt.numberOfHits, 0)
	atomic.StoreUint64(&tt.numberOfMisses, 0)
}

// Hashfull returns how full the transposition table is in permill as per UCI.
func (tt *TtTable) Hashfull() int {
	if tt.maxNumberOfEntries == 0 {
		return 0
	}
	occupied := uint64(0)
	// sampling the first 1000 buckets (2000 slots) is the standard UCI
	// approximation for hashfull and avoids a full table walk every report.
	sample := tt.maxNumberOfEntries
	if sample > 1000 {
		sample = 1000
	}
	for i := uint64(0); i < sample; i++ {
		if tt.data[i].deepest.occupied() {
			occupied++
		}
		if tt.data[i].recent.occupied() {
			occupied++
		}
	}
	return int((1000 * occupied) / (2 * sample))
}

// String returns a string representation of this TtTable instance
func (tt *TtTable) String() string {
	puts := atomic.LoadUint64(&tt.numberOfPuts)
	probes := atomic.LoadUint64(&tt.numberOfProbes)
	hits := atomic.LoadUint64(&tt.numberOfHits)
	misses := atomic.LoadUint64(&tt.numberOfMisses)
	return out.Sprintf("TT: size %d MB buckets %d of size %d Bytes (%d%% full) puts %d probes %d hits %d (%d%%) misses %d (%d%%)",
		tt.sizeInByte/MB, tt.maxNumberOfEntries, unsafe.Sizeof(ttBucket{}), tt.Hashfull()/10,
		puts, probes, hits, (hits*100)/(1+probes), misses, (misses*100)/(1+probes))
}

// AgeEntries ages up every occupied slot in the tt (increasing its age by
// one, capped at 127), spreading the sweep across goroutines.
func (tt *TtTable) AgeEntries() {
	startTime := time.Now()
	if tt.maxNumberOfEntries == 0 {
		return
	}
	numberOfGoroutines := uint64(32) // arbitrary - uses up to 32 threads
	var wg sync.WaitGroup
	wg.Add(int(numberOfGoroutines))
	slice := tt.maxNumberOfEntries / numberOfGoroutines
	if slice == 0 {
		slice = tt.maxNumberOfEntries
		numberOfGoroutines = 1
		wg = sync.WaitGroup{}
		wg.Add(1)
	}
	for i := uint64(0); i < numberOfGoroutines; i++ {
		go func(i uint64) {
			defer wg.Done()
			start := i * slice
			end := start + slice
			if i == numberOfGoroutines-1 {
				end = tt.maxNumberOfEntries
			}
			for n := start; n < end; n++ {
				for _, slot := range []*ttSlot{&tt.data[n].deepest, &tt.data[n].recent} {
					if !slot.occupied() {
						continue
					}
					data := atomic.LoadUint64(&slot.data)
					age := int8(uint8(data>>40)) + 1
					if age < 0 { // saturate instead of wrapping past int8 max
						age = 127
					}
					slot.rewriteAge(age)
				}
			}
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(startTime)
	tt.log.Debug(out.Sprintf("Aged tt of %d buckets in %d ms\n", len(tt.data), elapsed.Milliseconds()))
}

// ///////////////////////////////////////////////////////////
// Private
// ///////////////////////////////////////////////////////////

// hash generates the internal bucket index for the data array.
func (tt *TtTable) hash(key position.Key) uint64 {
	return uint64(key) & tt.hashKeyMask
}
