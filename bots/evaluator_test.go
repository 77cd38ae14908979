package bots

import (
	"math"
	"testing"

	"github.com/notnil/chess"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestDevelopmentRewardsRookStayingHome(t *testing.T) {
	e := LosingEvaluator{}
	game := gameFromFEN(t, "4k3/8/8/8/8/8/8/R3K3 w - - 0 1")
	before := e.developmentScore(game, chess.White, Opening)
	if !almostEqual(before, 0.5) {
		t.Fatalf("home rook development = %v, want 0.5", before)
	}

	rules := StandardRules{}
	a1 := chess.A1
	for _, m := range rules.LegalMoves(game, &a1) {
		next, err := rules.Apply(game, m)
		if err != nil {
			t.Fatalf("apply %s: %v", m, err)
		}
		after := e.developmentScore(next, chess.White, Opening)
		if after >= before {
			t.Errorf("rook %s: development %v did not drop below %v", m, after, before)
		}
	}
}

func TestDevelopmentReturnedPieceGetsHalf(t *testing.T) {
	e := LosingEvaluator{}
	game := gameFromFEN(t, "4k3/p7/8/8/8/8/P7/1N2K3 w - - 0 1")
	play(t, game, "b1c3", "e8d8", "c3b1")
	got := e.developmentScore(game, chess.White, Opening)
	if !almostEqual(got, 0.75) {
		t.Fatalf("returned knight development = %v, want 0.75", got)
	}
	if mid := e.developmentScore(game, chess.White, Midgame); !almostEqual(mid, 0.45) {
		t.Fatalf("midgame weight not applied: %v", mid)
	}
}

func TestMaterialRewardsLosingPieces(t *testing.T) {
	e := LosingEvaluator{}
	start := gameFromFEN(t, startFEN).Position().Board()
	if got := e.materialScore(start, chess.White); got != 0 {
		t.Fatalf("balanced material = %v, want 0", got)
	}
	noQueen := gameFromFEN(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNB1KBNR w KQkq - 0 1").Position().Board()
	if got := e.materialScore(noQueen, chess.White); got != 9 {
		t.Fatalf("white without queen = %v, want 9", got)
	}
	if got := e.materialScore(noQueen, chess.Black); got != -9 {
		t.Fatalf("black facing missing queen = %v, want -9", got)
	}
}

func TestPawnTerms(t *testing.T) {
	e := LosingEvaluator{}
	board := gameFromFEN(t, "4k3/8/8/4P3/3P4/2P1P3/4P3/4K3 w - - 0 1").Position().Board()

	// e2 0.4, e3 0.2, c3 0.2, d4 0.1, e5 0
	if got := e.pawnAdvanceScore(board, chess.White); !almostEqual(got, 0.9) {
		t.Fatalf("pawn advance = %v, want 0.9", got)
	}
	// e2 on its start square 0.2, e-file tripled 0.5*2
	if got := e.pawnStructure(board, chess.White); !almostEqual(got, 1.2) {
		t.Fatalf("pawn structure = %v, want 1.2", got)
	}
}

func TestLoneKingTerms(t *testing.T) {
	e := LosingEvaluator{}
	board := gameFromFEN(t, "7k/8/8/8/8/8/8/K7 w - - 0 1").Position().Board()

	if got := e.isolationScore(board, chess.White); !almostEqual(got, IsolationBonus) {
		t.Fatalf("isolation = %v", got)
	}
	if got := e.edgeScore(board, chess.White); !almostEqual(got, 0.7) {
		t.Fatalf("edge = %v, want 0.7", got)
	}
	if got := e.kingCenterScore(board, chess.White); !almostEqual(got, 0) {
		t.Fatalf("corner king centre score = %v, want 0", got)
	}

	central := gameFromFEN(t, "7k/8/8/8/3K4/8/8/8 w - - 0 1").Position().Board()
	if got := e.kingCenterScore(central, chess.White); !almostEqual(got, 1.8) {
		t.Fatalf("central king score = %v, want 1.8", got)
	}
}

func TestEvaluateSymmetricAtStart(t *testing.T) {
	e := LosingEvaluator{}
	game := gameFromFEN(t, startFEN)
	white := e.Evaluate(game, chess.White)
	black := e.Evaluate(game, chess.Black)
	if !almostEqual(white, black) {
		t.Fatalf("start position should score the same for both sides: %v vs %v", white, black)
	}
	if again := e.Evaluate(game, chess.White); again != white {
		t.Fatalf("evaluation not deterministic: %v then %v", white, again)
	}
}
