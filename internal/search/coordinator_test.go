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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/corvid-engine/corvid/internal/config"
	"github.com/corvid-engine/corvid/internal/position"
	. "github.com/corvid-engine/corvid/internal/types"
)

func TestNewCoordinator(t *testing.T) {
	config.Settings.Search.NumberOfThreads = 4
	defer func() { config.Settings.Search.NumberOfThreads = 1 }()

	c := NewCoordinator()
	assert.EqualValues(t, 4, c.NumberOfWorkers())
	assert.Len(t, c.HelperWorkers(), 3)
	assert.Same(t, c.MainWorker(), c.workers[0])

	// every worker shares the same table instance.
	for _, w := range c.workers {
		assert.Same(t, c.tt, w.tt)
	}
}

func TestCoordinatorBestResultPicksDeepest(t *testing.T) {
	c := NewCoordinator()
	c.workers[0].lastSearchResult = &Result{SearchDepth: 3}
	if len(c.workers) > 1 {
		c.workers[1].lastSearchResult = &Result{SearchDepth: 3}
	}

	best := c.BestResult()
	assert.EqualValues(t, 3, best.SearchDepth)
}

func TestCoordinatorNewGameClearsSharedTable(t *testing.T) {
	c := NewCoordinator()
	p := position.NewPosition()
	c.tt.Put(p.ZobristKey(), MoveNone, 5, 10, EXACT, false)

	_, found := c.tt.GetEntry(p.ZobristKey())
	assert.True(t, found)

	c.NewGame()

	_, found = c.tt.GetEntry(p.ZobristKey())
	assert.False(t, found)
}

func TestCoordinatorGoAndStop(t *testing.T) {
	config.Settings.Search.NumberOfThreads = 2
	defer func() { config.Settings.Search.NumberOfThreads = 1 }()

	c := NewCoordinator()
	p := position.NewPosition()
	sl := NewSearchLimits()
	sl.Infinite = true

	done := make(chan struct{})
	go func() {
		c.Go(*p, *sl)
		close(done)
	}()
	time.Sleep(500 * time.Millisecond)
	c.Stop()
	<-done

	for _, w := range c.workers {
		assert.False(t, w.IsSearching())
	}
}
