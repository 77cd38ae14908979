package bots

import (
	"sort"

	"github.com/notnil/chess"
)

// piecePriority is indexed by phase then piece type; higher is searched first.
var piecePriority = [3][7]int{
	Opening: {chess.Pawn: 2, chess.Rook: 3, chess.Knight: 4, chess.Bishop: 4, chess.Queen: 0, chess.King: 0},
	Midgame: {chess.Pawn: 3, chess.Rook: 2, chess.Knight: 1, chess.Bishop: 1, chess.Queen: 0, chess.King: 0},
	Endgame: {chess.Pawn: 2, chess.Rook: 3, chess.Knight: 1, chess.Bishop: 1, chess.Queen: 4, chess.King: 0},
}

// backRankBoost is stronger in the opening, where leaving pieces home hurts most.
var backRankBoost = [3]int{Opening: 2, Midgame: 1, Endgame: 1}

type moveKey struct {
	move       *chess.Move
	kingMove   bool
	repetitive bool
	backRank   int
	priority   int
	capture    bool
	check      bool
}

// OrderMoves returns the legal moves of game sorted so the most promising
// losing moves come first.
func OrderMoves(game *chess.Game, phase GamePhase, tracker *RepetitionTracker, rules Rules) []*chess.Move {
	moves := rules.LegalMoves(game, nil)
	inCheck := rules.InCheck(game)
	side := game.Position().Turn()
	home := homeRank(side)

	keys := make([]moveKey, len(moves))
	for i, m := range moves {
		piece := rules.PieceAt(game, m.S1())
		k := moveKey{
			move:     m,
			kingMove: piece.Type() == chess.King && !inCheck,
			priority: piecePriority[phase][piece.Type()],
			capture:  m.HasTag(chess.Capture) || m.HasTag(chess.EnPassant),
			check:    m.HasTag(chess.Check),
		}
		if tracker != nil {
			k.repetitive = tracker.IsRepetitive(piece, m.S1(), m.S2())
		}
		if m.S1().Rank() == home {
			k.backRank = backRankBoost[phase]
		}
		keys[i] = k
	}

	sort.SliceStable(keys, func(i, j int) bool {
		return keyLess(keys[i], keys[j])
	})

	ordered := make([]*chess.Move, len(keys))
	for i, k := range keys {
		ordered[i] = k.move
	}
	return ordered
}

// keyLess is a lexicographic comparison: the first differing field decides.
func keyLess(a, b moveKey) bool {
	if a.kingMove != b.kingMove {
		return !a.kingMove
	}
	if a.repetitive != b.repetitive {
		return !a.repetitive
	}
	if a.backRank != b.backRank {
		return a.backRank > b.backRank
	}
	if a.priority != b.priority {
		return a.priority > b.priority
	}
	if a.capture != b.capture {
		return a.capture
	}
	if a.check != b.check {
		return a.check
	}
	return false
}
