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

package search

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/op/go-logging"

	"github.com/corvid-engine/corvid/internal/config"
	myLogging "github.com/corvid-engine/corvid/internal/logging"
	"github.com/corvid-engine/corvid/internal/position"
	"github.com/corvid-engine/corvid/internal/transpositiontable"
)

// Coordinator runs a lazy-SMP search: one main worker and N-1 helper
// workers, all running the same iterative deepening search against
// copies of the same position but sharing one transposition table.
// The helpers exist purely to diversify move ordering through the
// shared table - they do not split the search tree.
type Coordinator struct {
	log *logging.Logger

	tt      *transpositiontable.TtTable
	workers []*Search
	admit   *semaphore.Weighted
}

// NewCoordinator creates a Coordinator with NumberOfThreads workers (at
// least 1) sharing a single transposition table sized per configuration.
func NewCoordinator() *Coordinator {
	n := config.Settings.Search.NumberOfThreads
	if n < 1 {
		n = 1
	}

	sizeInMByte := config.Settings.Search.TTSize
	if sizeInMByte == 0 {
		sizeInMByte = 64
	}

	c := &Coordinator{
		log:     myLogging.GetLog(),
		tt:      transpositiontable.NewTtTable(sizeInMByte),
		workers: make([]*Search, n),
		admit:   semaphore.NewWeighted(int64(n)),
	}
	for i := range c.workers {
		w := NewSearch()
		w.SetSharedTT(c.tt)
		c.workers[i] = w
	}
	return c
}

// MainWorker returns the coordinator's first (main) worker. This is the
// worker a UCI handler should be registered against for info/bestmove
// output, since helper workers' results are discarded.
func (c *Coordinator) MainWorker() *Search {
	return c.workers[0]
}

// NumberOfWorkers returns the number of search workers (1 + helpers).
func (c *Coordinator) NumberOfWorkers() int {
	return len(c.workers)
}

// HelperWorkers returns every worker other than the main one. Helper
// results are discarded by BestResult unless they complete the deepest
// iteration; they carry no UCI handler and so never emit output
// directly (see MainWorker).
func (c *Coordinator) HelperWorkers() []*Search {
	return c.workers[1:]
}

// Go starts every worker on its own copy of p with the given limits and
// blocks until all of them have stopped searching. Each worker deepens
// independently against the shared table; the caller should read the
// reported result off whichever worker completed the greatest depth via
// BestResult.
func (c *Coordinator) Go(p position.Position, sl Limits) {
	var wg sync.WaitGroup
	for _, w := range c.workers {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.admit.Acquire(context.TODO(), 1)
			defer c.admit.Release(1)
			w.StartSearch(p, sl)
			w.WaitWhileSearching()
		}()
	}
	wg.Wait()
}

// Stop signals every worker to stop as soon as possible and waits for
// all of them to actually stop.
func (c *Coordinator) Stop() {
	var wg sync.WaitGroup
	for _, w := range c.workers {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.StopSearch()
		}()
	}
	wg.Wait()
}

// NewGame resets every worker (and, since they share one table, clears
// the table exactly once).
func (c *Coordinator) NewGame() {
	c.tt.Clear()
	for _, w := range c.workers {
		w.NewGame()
	}
}

// BestResult selects, among all workers, the result belonging to the
// worker that completed the greatest search depth - ties are broken by
// worker index (the main worker, index 0, wins ties, matching its role
// as the one registered with the UCI handler).
func (c *Coordinator) BestResult() Result {
	best := c.workers[0].LastSearchResult()
	for _, w := range c.workers[1:] {
		r := w.LastSearchResult()
		if r.SearchDepth > best.SearchDepth {
			best = r
		}
	}
	return best
}
