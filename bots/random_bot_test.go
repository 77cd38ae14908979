package bots

import (
	"errors"
	"testing"
)

func TestRandomBotSeeded(t *testing.T) {
	game := gameFromFEN(t, startFEN)
	a, b := NewRandomBot(42), NewRandomBot(42)
	for i := 0; i < 10; i++ {
		ma, mb := a.BestMove(game), b.BestMove(game)
		if ma.String() != mb.String() {
			t.Fatalf("draw %d: %s vs %s from the same seed", i, ma, mb)
		}
		if !isLegal(game, ma) {
			t.Fatalf("illegal %s", ma)
		}
	}
}

func TestRandomBotFinishedGame(t *testing.T) {
	mated := gameFromFEN(t, "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3")
	if _, err := NewRandomBot(1).FindMove(mated); !errors.Is(err, ErrNoLegalMoves) {
		t.Fatalf("err = %v", err)
	}
}
