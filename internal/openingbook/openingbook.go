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

// Package openingbook provides a minimal opening book implementation used
// by the search as an optional collaborator: on a time controlled game the
// search may ask the book for a pre-computed reply instead of searching.
// This is intentionally reduced in scope - only the Simple line format
// (plain UCI move sequences, one game per line) is supported. San and Pgn
// formats are recognized but report an error - building a full SAN/PGN
// parser is out of scope for this engine.
package openingbook

import (
	"bufio"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/corvid-engine/corvid/internal/logging"
	"github.com/corvid-engine/corvid/internal/position"
	. "github.com/corvid-engine/corvid/internal/types"
)

var out = message.NewPrinter(language.German)
var log = logging.GetLog()

// BookFormat identifies the source format of an opening book file.
type BookFormat int

const (
	// Simple is a book format with one game per line as plain UCI moves
	// separated by spaces, e.g. "e2e4 e7e5 g1f3 b8c6".
	Simple BookFormat = iota
	// San books contain moves in standard algebraic notation - not supported.
	San
	// Pgn books are full PGN game collections - not supported.
	Pgn
)

// FormatFromString maps the config/command line string representation of a
// book format onto a BookFormat value.
var FormatFromString = map[string]BookFormat{
	"Simple": Simple,
	"San":    San,
	"Pgn":    Pgn,
}

// BookMove is a single move transitioning from one book position to the next.
type BookMove struct {
	Move      uint16
	NextEntry position.Key
	Count     int
}

// BookEntry represents all known book moves for one unique position
// (identified by its Zobrist key) together with how often the position
// was reached while building the book.
type BookEntry struct {
	ZobristKey position.Key
	Counter    int
	Moves      []BookMove
}

// Book is an in-memory opening book indexed by Zobrist key.
type Book struct {
	entries   map[position.Key]*BookEntry
	rootEntry position.Key
}

// NewBook creates an empty, uninitialized Book.
func NewBook() *Book {
	return &Book{entries: make(map[position.Key]*BookEntry)}
}

// NumberOfEntries returns the number of unique positions currently stored
// in the book.
func (b *Book) NumberOfEntries() int {
	return len(b.entries)
}

// Reset removes all entries from the book.
func (b *Book) Reset() {
	b.entries = make(map[position.Key]*BookEntry)
	b.rootEntry = 0
}

// GetEntry looks up the book entry for the given Zobrist key.
func (b *Book) GetEntry(key position.Key) (*BookEntry, bool) {
	e, found := b.entries[key]
	if !found {
		return &BookEntry{}, false
	}
	return e, true
}

// Initialize reads the book file at folder/file (file may be empty if
// folder already contains the full path) in the given format and populates
// the book. validate, when true, stops replaying a line at the first move
// that cannot be parsed (malformed, or no piece on its from square) and goes
// on with the next line instead of aborting the whole load; the moves of that
// line before the failing one stay in the book. Moves are not checked for
// legality.
func (b *Book) Initialize(folder string, file string, format BookFormat, useCache bool, validate bool) error {
	_ = useCache // caching of a parsed book to disk is not implemented

	path := folder
	if file != "" {
		path = filepath.Join(folder, file)
	}

	if format != Simple {
		return errors.New("opening book format not supported (only Simple is implemented): " + path)
	}

	lines, err := b.readFile(path)
	if err != nil {
		return err
	}

	root := position.NewPosition()
	b.rootEntry = root.ZobristKey()
	b.getOrCreateEntry(root.ZobristKey())

	for _, line := range *lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := b.addLine(line, validate); err != nil && !validate {
			return err
		}
	}

	return nil
}

// readFile reads a book file line by line and returns the lines found.
func (b *Book) readFile(path string) (*[]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return &lines, nil
}

// addLine replays one line of UCI moves from the start position, creating
// or updating book entries and move transitions along the way.
func (b *Book) addLine(line string, validate bool) error {
	p := position.NewPosition()
	tokens := strings.Fields(line)

	for _, tok := range tokens {
		fromEntry := b.getOrCreateEntry(p.ZobristKey())
		fromEntry.Counter++

		move, err := parseUciMove(p, tok)
		if err != nil {
			if validate {
				return nil
			}
			return err
		}

		p.DoMove(move)
		toKey := p.ZobristKey()
		b.getOrCreateEntry(toKey)

		found := false
		for i := range fromEntry.Moves {
			if fromEntry.Moves[i].NextEntry == toKey {
				fromEntry.Moves[i].Count++
				found = true
				break
			}
		}
		if !found {
			fromEntry.Moves = append(fromEntry.Moves, BookMove{
				Move:      uint16(move),
				NextEntry: toKey,
				Count:     1,
			})
		}
	}
	return nil
}

func (b *Book) getOrCreateEntry(key position.Key) *BookEntry {
	e, found := b.entries[key]
	if !found {
		e = &BookEntry{ZobristKey: key}
		b.entries[key] = e
	}
	return e
}

// parseUciMove builds the move on p described by the given UCI move string
// (e.g. "e2e4" or "e7e8q") from its squares and the piece on the from square.
// The move is not checked for legality.
func parseUciMove(p *position.Position, uciMove string) (Move, error) {
	if len(uciMove) < 4 {
		return MoveNone, errors.New("invalid uci move: " + uciMove)
	}
	from, okFrom := squareFromString(uciMove[0:2])
	to, okTo := squareFromString(uciMove[2:4])
	if !okFrom || !okTo {
		return MoveNone, errors.New("invalid uci move: " + uciMove)
	}
	promotion := PtNone
	if len(uciMove) == 5 {
		switch uciMove[4] {
		case 'q':
			promotion = Queen
		case 'r':
			promotion = Rook
		case 'b':
			promotion = Bishop
		case 'n':
			promotion = Knight
		}
	}

	movedPiece := p.GetPiece(from)
	if movedPiece == PieceNone {
		return MoveNone, errors.New("no piece on from square for move: " + uciMove)
	}

	moveType := Normal
	switch {
	case movedPiece.TypeOf() == King && from.FileOf() == FileE && (to.FileOf() == FileG || to.FileOf() == FileC) && from.RankOf() == to.RankOf():
		moveType = Castling
	case movedPiece.TypeOf() == Pawn && to == p.GetEnPassantSquare() && p.GetEnPassantSquare() != SqNone:
		moveType = EnPassant
	case promotion != PtNone:
		moveType = Promotion
	}

	return CreateMove(from, to, moveType, promotion), nil
}

func squareFromString(s string) (Square, bool) {
	if len(s) != 2 {
		return SqNone, false
	}
	file := s[0] - 'a'
	rank := s[1] - '1'
	if file > 7 || rank > 7 {
		return SqNone, false
	}
	return SquareOf(File(file), Rank(rank)), true
}

// pick returns a random book move from the entry, weighted by how often
// it was played while building the book.
func (e *BookEntry) pick() Move {
	if len(e.Moves) == 0 {
		return MoveNone
	}
	total := 0
	for _, m := range e.Moves {
		total += m.Count
	}
	r := rand.Intn(total)
	for _, m := range e.Moves {
		r -= m.Count
		if r < 0 {
			return Move(m.Move)
		}
	}
	return Move(e.Moves[len(e.Moves)-1].Move)
}
