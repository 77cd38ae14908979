package bots

import (
	"testing"
	"time"

	"github.com/notnil/chess"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func gameFromFEN(t *testing.T, fen string) *chess.Game {
	t.Helper()
	opt, err := chess.FEN(fen)
	if err != nil {
		t.Fatalf("bad fen %q: %v", fen, err)
	}
	return chess.NewGame(opt, chess.UseNotation(chess.UCINotation{}))
}

func newUCIGame() *chess.Game {
	return chess.NewGame(chess.UseNotation(chess.UCINotation{}))
}

func play(t *testing.T, game *chess.Game, moves ...string) {
	t.Helper()
	for _, m := range moves {
		if err := game.MoveStr(m); err != nil {
			t.Fatalf("move %s: %v", m, err)
		}
	}
}

func findMove(t *testing.T, game *chess.Game, uci string) *chess.Move {
	t.Helper()
	for _, m := range game.ValidMoves() {
		if m.String() == uci {
			return m
		}
	}
	t.Fatalf("move %s not legal in %s", uci, game.Position())
	return nil
}

func frozenClock() func() time.Time {
	at := time.Unix(1700000000, 0)
	return func() time.Time { return at }
}

// steppingClock advances by step on every reading.
func steppingClock(step time.Duration) func() time.Time {
	at := time.Unix(1700000000, 0)
	return func() time.Time {
		at = at.Add(step)
		return at
	}
}

func isLegal(game *chess.Game, move *chess.Move) bool {
	if move == nil {
		return false
	}
	for _, m := range game.ValidMoves() {
		if m.S1() == move.S1() && m.S2() == move.S2() && m.Promo() == move.Promo() {
			return true
		}
	}
	return false
}
