package bots

import "github.com/notnil/chess"

// HistoryEntry is one move tentatively played during a search.
type HistoryEntry struct {
	PositionKey string
	Piece       chess.Piece
	From        chess.Square
	To          chess.Square
	Ply         int
	// InCheck is whether the mover was in check before the move.
	InCheck bool
}

type squarePair struct {
	from, to chess.Square
}

const (
	trailingWindow = 8

	visitPenalty        = 3.0
	kingWalkPenalty     = 5.0
	backAndForthPenalty = 10.0
	threefoldPenalty    = 15.0
)

// RepetitionTracker records the moves on the current search path. Every
// Record must be matched by an Unrecord before the caller returns.
type RepetitionTracker struct {
	pieceLog   map[chess.Piece][]squarePair
	pairCounts map[chess.Piece]map[squarePair]int
	visits     map[string]int
	stack      []HistoryEntry
}

func NewRepetitionTracker() *RepetitionTracker {
	return &RepetitionTracker{
		pieceLog:   make(map[chess.Piece][]squarePair),
		pairCounts: make(map[chess.Piece]map[squarePair]int),
		visits:     make(map[string]int),
	}
}

// SeedTracker replays the moves already played in game so repetitions that
// span several turns are visible to a new search.
func SeedTracker(game *chess.Game, rules Rules) *RepetitionTracker {
	t := NewRepetitionTracker()
	positions := game.Positions()
	moves := game.Moves()
	if len(positions) == 0 {
		return t
	}
	start := rules.PlyCount(game) - len(moves)
	t.visits[positionKeyOf(positions[0])]++
	for i, m := range moves {
		if i+1 >= len(positions) {
			break
		}
		t.Record(HistoryEntry{
			PositionKey: positionKeyOf(positions[i+1]),
			Piece:       positions[i].Board().Piece(m.S1()),
			From:        m.S1(),
			To:          m.S2(),
			Ply:         start + i + 1,
			InCheck:     i > 0 && moves[i-1].HasTag(chess.Check),
		})
	}
	return t
}

func positionKeyOf(pos *chess.Position) string {
	return keyFromFEN(pos.String())
}

// IsRepetitive flags a move that undoes the piece's previous move, or that
// would play the same from/to pair for the third time.
func (t *RepetitionTracker) IsRepetitive(piece chess.Piece, from, to chess.Square) bool {
	log := t.pieceLog[piece]
	if n := len(log); n > 0 {
		last := log[n-1]
		if last.from == to && last.to == from {
			return true
		}
	}
	return t.pairCounts[piece][squarePair{from, to}] >= 2
}

func (t *RepetitionTracker) Record(entry HistoryEntry) {
	pair := squarePair{entry.From, entry.To}
	t.pieceLog[entry.Piece] = append(t.pieceLog[entry.Piece], pair)
	counts := t.pairCounts[entry.Piece]
	if counts == nil {
		counts = make(map[squarePair]int)
		t.pairCounts[entry.Piece] = counts
	}
	counts[pair]++
	t.visits[entry.PositionKey]++
	t.stack = append(t.stack, entry)
}

// Unrecord pops the most recent entry. It is a no-op on an empty tracker.
func (t *RepetitionTracker) Unrecord() {
	n := len(t.stack)
	if n == 0 {
		return
	}
	entry := t.stack[n-1]
	t.stack = t.stack[:n-1]
	pair := squarePair{entry.From, entry.To}

	if log := t.pieceLog[entry.Piece]; len(log) <= 1 {
		delete(t.pieceLog, entry.Piece)
	} else {
		t.pieceLog[entry.Piece] = log[:len(log)-1]
	}

	if counts := t.pairCounts[entry.Piece]; counts != nil {
		if counts[pair] <= 1 {
			delete(counts, pair)
		} else {
			counts[pair]--
		}
		if len(counts) == 0 {
			delete(t.pairCounts, entry.Piece)
		}
	}

	if t.visits[entry.PositionKey] <= 1 {
		delete(t.visits, entry.PositionKey)
	} else {
		t.visits[entry.PositionKey]--
	}
}

func (t *RepetitionTracker) Depth() int {
	return len(t.stack)
}

func (t *RepetitionTracker) Visits(key string) int {
	return t.visits[key]
}

// Recent returns a copy of the trailing window of entries, oldest first.
func (t *RepetitionTracker) Recent() []HistoryEntry {
	start := max(0, len(t.stack)-trailingWindow)
	return append([]HistoryEntry(nil), t.stack[start:]...)
}

// recentBy filters the trailing window down to side's moves.
func (t *RepetitionTracker) recentBy(side chess.Color) []HistoryEntry {
	var moves []HistoryEntry
	for _, e := range t.stack[max(0, len(t.stack)-trailingWindow):] {
		if e.Piece.Color() == side {
			moves = append(moves, e)
		}
	}
	return moves
}

// Penalty is subtracted from leaf scores. key is the leaf position; side is
// the searching side, whose own shuffling is discouraged.
func (t *RepetitionTracker) Penalty(key string, side chess.Color) float64 {
	var penalty float64
	if v := t.visits[key]; v > 1 {
		penalty += visitPenalty * float64(v)
	}

	own := t.recentBy(side)
	n := len(own)
	if n == 0 {
		return penalty
	}
	if last := own[n-1]; last.Piece.Type() == chess.King && !last.InCheck {
		penalty += kingWalkPenalty
	}
	if n >= 2 && isBackAndForth(own[n-2], own[n-1]) {
		penalty += backAndForthPenalty
	}
	if n >= 4 && isShuffle(own[n-4:]) {
		penalty += threefoldPenalty
	}
	return penalty
}

func isBackAndForth(a, b HistoryEntry) bool {
	return a.Piece == b.Piece && a.From == b.To && a.To == b.From
}

// isShuffle reports four moves of one piece alternating between two squares.
func isShuffle(entries []HistoryEntry) bool {
	first := entries[0]
	for i, e := range entries {
		if e.Piece != first.Piece {
			return false
		}
		if i%2 == 0 && (e.From != first.From || e.To != first.To) {
			return false
		}
		if i%2 == 1 && (e.From != first.To || e.To != first.From) {
			return false
		}
	}
	return true
}
