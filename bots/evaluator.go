package bots

import (
	"math"

	"github.com/notnil/chess"
)

// LosingEvaluator scores positions for a side that is trying to lose.
// Every term grows as the side's position gets worse.
type LosingEvaluator struct{}

const (
	IsolationBonus     = 0.3
	EdgeWeight         = 0.1
	KingCenterWeight   = 0.3
	DoubledPawnBonus   = 0.5
	StartPawnBonus     = 0.2
	PawnAdvanceReward  = 0.4
	ReturnedPieceScale = 0.5
)

var (
	developmentPhaseWeight = [...]float64{Opening: 1.0, Midgame: 0.6, Endgame: 0.3}
	pawnAdvanceScale       = [...]float64{1.0, 0.5, 0.25}
)

func (e LosingEvaluator) Evaluate(game *chess.Game, side chess.Color) float64 {
	phase := PhaseOf(StandardRules{}.PlyCount(game))
	board := game.Position().Board()

	return e.materialScore(board, side) +
		e.developmentScore(game, side, phase) +
		e.pawnAdvanceScore(board, side) +
		e.edgeScore(board, side) +
		e.isolationScore(board, side) +
		e.pawnStructure(board, side) +
		e.kingCenterScore(board, side)
}

func (e LosingEvaluator) pieceValue(piece chess.PieceType) float64 {
	switch piece {
	case chess.Pawn:
		return 1
	case chess.Knight:
		return 3
	case chess.Bishop:
		return 3
	case chess.Rook:
		return 5
	case chess.Queen:
		return 9
	default:
		return 0
	}
}

// materialScore rewards giving away our pieces and keeping the opponent's.
func (e LosingEvaluator) materialScore(board *chess.Board, side chess.Color) float64 {
	var score float64
	for sq := chess.A1; sq <= chess.H8; sq++ {
		piece := board.Piece(sq)
		if piece == chess.NoPiece {
			continue
		}
		if piece.Color() == side {
			score -= e.pieceValue(piece.Type())
		} else {
			score += e.pieceValue(piece.Type())
		}
	}
	return score
}

func developmentPieceWeight(pt chess.PieceType) float64 {
	switch pt {
	case chess.Knight, chess.Bishop:
		return 1.5
	case chess.Rook:
		return 0.5
	case chess.Queen:
		return 1.0
	default:
		return 0
	}
}

func homeRank(side chess.Color) chess.Rank {
	if side == chess.Black {
		return chess.Rank8
	}
	return chess.Rank1
}

func pawnStartRank(side chess.Color) chess.Rank {
	if side == chess.Black {
		return chess.Rank7
	}
	return chess.Rank2
}

// landedSquares collects every square a move of side has ended on.
func landedSquares(game *chess.Game, side chess.Color) map[chess.Square]bool {
	moves := game.Moves()
	positions := game.Positions()
	landed := make(map[chess.Square]bool)
	for i, m := range moves {
		if i < len(positions) && positions[i].Turn() != side {
			continue
		}
		landed[m.S2()] = true
	}
	return landed
}

// developmentScore rewards pieces that stay on (or come back to) the back rank.
func (e LosingEvaluator) developmentScore(game *chess.Game, side chess.Color, phase GamePhase) float64 {
	var score float64
	board := game.Position().Board()
	landed := landedSquares(game, side)
	home := homeRank(side)

	for file := chess.FileA; file <= chess.FileH; file++ {
		sq := chess.NewSquare(file, home)
		piece := board.Piece(sq)
		if piece == chess.NoPiece || piece.Color() != side {
			continue
		}
		reward := developmentPhaseWeight[phase] * developmentPieceWeight(piece.Type())
		if landed[sq] {
			reward *= ReturnedPieceScale
		}
		score += reward
	}
	return score
}

func (e LosingEvaluator) pawnAdvanceScore(board *chess.Board, side chess.Color) float64 {
	var score float64
	start := int(pawnStartRank(side))
	for sq := chess.A1; sq <= chess.H8; sq++ {
		piece := board.Piece(sq)
		if piece.Type() != chess.Pawn || piece.Color() != side {
			continue
		}
		advanced := int(sq.Rank()) - start
		if advanced < 0 {
			advanced = -advanced
		}
		if advanced < len(pawnAdvanceScale) {
			score += PawnAdvanceReward * pawnAdvanceScale[advanced]
		}
	}
	return score
}

func distanceFromCenter(sq chess.Square) float64 {
	return math.Abs(3.5-float64(sq.Rank())) + math.Abs(3.5-float64(sq.File()))
}

func (e LosingEvaluator) edgeScore(board *chess.Board, side chess.Color) float64 {
	var score float64
	for sq := chess.A1; sq <= chess.H8; sq++ {
		if piece := board.Piece(sq); piece != chess.NoPiece && piece.Color() == side {
			score += distanceFromCenter(sq) * EdgeWeight
		}
	}
	return score
}

func (e LosingEvaluator) isolationScore(board *chess.Board, side chess.Color) float64 {
	var score float64
	for sq := chess.A1; sq <= chess.H8; sq++ {
		piece := board.Piece(sq)
		if piece == chess.NoPiece || piece.Color() != side {
			continue
		}
		if !hasNeighbor(board, sq, side) {
			score += IsolationBonus
		}
	}
	return score
}

func hasNeighbor(board *chess.Board, sq chess.Square, side chess.Color) bool {
	file, rank := int(sq.File()), int(sq.Rank())
	for _, s := range kingSteps {
		if !onBoard(file+s[0], rank+s[1]) {
			continue
		}
		if p := pieceOn(board, file+s[0], rank+s[1]); p != chess.NoPiece && p.Color() == side {
			return true
		}
	}
	return false
}

// pawnStructure rewards unmoved and doubled pawns.
func (e LosingEvaluator) pawnStructure(board *chess.Board, side chess.Color) float64 {
	var score float64
	start := pawnStartRank(side)
	for file := chess.FileA; file <= chess.FileH; file++ {
		count := 0
		for rank := chess.Rank1; rank <= chess.Rank8; rank++ {
			piece := board.Piece(chess.NewSquare(file, rank))
			if piece.Type() != chess.Pawn || piece.Color() != side {
				continue
			}
			count++
			if rank == start {
				score += StartPawnBonus
			}
		}
		if count > 1 {
			score += DoubledPawnBonus * float64(count-1)
		}
	}
	return score
}

func (e LosingEvaluator) kingCenterScore(board *chess.Board, side chess.Color) float64 {
	for sq := chess.A1; sq <= chess.H8; sq++ {
		if piece := board.Piece(sq); piece.Type() == chess.King && piece.Color() == side {
			return (7 - distanceFromCenter(sq)) * KingCenterWeight
		}
	}
	return 0
}
