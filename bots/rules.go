package bots

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/notnil/chess"
)

// Rules is the subset of chess rules the search consumes. StandardRules backs
// it with notnil/chess; tests swap in faulty implementations.
type Rules interface {
	LegalMoves(game *chess.Game, from *chess.Square) []*chess.Move
	Apply(game *chess.Game, move *chess.Move) (*chess.Game, error)
	IsGameOver(game *chess.Game) bool
	IsCheckmate(game *chess.Game) bool
	IsStalemate(game *chess.Game) bool
	IsDraw(game *chess.Game) bool
	InCheck(game *chess.Game) bool
	PieceAt(game *chess.Game, sq chess.Square) chess.Piece
	PositionKey(game *chess.Game) string
	PlyCount(game *chess.Game) int
}

type StandardRules struct{}

// LegalMoves lists the legal moves, optionally only those leaving from.
func (StandardRules) LegalMoves(game *chess.Game, from *chess.Square) []*chess.Move {
	moves := game.ValidMoves()
	if from == nil {
		return moves
	}
	var filtered []*chess.Move
	for _, m := range moves {
		if m.S1() == *from {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

// Apply plays move on a clone of game. The input game is left untouched.
func (StandardRules) Apply(game *chess.Game, move *chess.Move) (*chess.Game, error) {
	if game == nil || move == nil {
		return nil, fmt.Errorf("bots: apply %v: nil game or move", move)
	}
	next := game.Clone()
	if err := next.Move(move); err != nil {
		return nil, fmt.Errorf("bots: apply %s: %w", move, err)
	}
	return next, nil
}

func (StandardRules) IsGameOver(game *chess.Game) bool {
	return game.Outcome() != chess.NoOutcome || len(game.ValidMoves()) == 0
}

func (r StandardRules) IsCheckmate(game *chess.Game) bool {
	if game.Method() == chess.Checkmate {
		return true
	}
	return len(game.ValidMoves()) == 0 && r.InCheck(game)
}

func (r StandardRules) IsStalemate(game *chess.Game) bool {
	if game.Method() == chess.Stalemate {
		return true
	}
	return len(game.ValidMoves()) == 0 && !r.InCheck(game)
}

// IsDraw covers stalemate and every automatic draw notnil/chess detects.
func (r StandardRules) IsDraw(game *chess.Game) bool {
	return game.Outcome() == chess.Draw || r.IsStalemate(game)
}

// InCheck reports whether the side to move is in check.
func (StandardRules) InCheck(game *chess.Game) bool {
	if moves := game.Moves(); len(moves) > 0 {
		return moves[len(moves)-1].HasTag(chess.Check)
	}
	pos := game.Position()
	board := pos.Board()
	king := chess.NoSquare
	for sq, p := range board.SquareMap() {
		if p.Type() == chess.King && p.Color() == pos.Turn() {
			king = sq
			break
		}
	}
	if king == chess.NoSquare {
		return false
	}
	return squareAttacked(board, king, pos.Turn().Other())
}

func (StandardRules) PieceAt(game *chess.Game, sq chess.Square) chess.Piece {
	return game.Position().Board().Piece(sq)
}

// PositionKey is the FEN without the move counters, so transpositions reached
// at different move numbers share a key.
func (StandardRules) PositionKey(game *chess.Game) string {
	return keyFromFEN(game.Position().String())
}

func keyFromFEN(fen string) string {
	fields := strings.Fields(fen)
	if len(fields) > 4 {
		fields = fields[:4]
	}
	return strings.Join(fields, " ")
}

// PlyCount is derived from the FEN move number, so games started from a FEN
// keep their real phase.
func (StandardRules) PlyCount(game *chess.Game) int {
	fields := strings.Fields(game.Position().String())
	if len(fields) < 6 {
		return len(game.Moves())
	}
	full, err := strconv.Atoi(fields[5])
	if err != nil || full < 1 {
		return len(game.Moves())
	}
	ply := (full - 1) * 2
	if fields[1] == "b" {
		ply++
	}
	return ply
}

var (
	knightJumps = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps   = [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	rookRays    = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	bishopRays  = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

func onBoard(file, rank int) bool {
	return file >= 0 && file < 8 && rank >= 0 && rank < 8
}

func pieceOn(board *chess.Board, file, rank int) chess.Piece {
	return board.Piece(chess.NewSquare(chess.File(file), chess.Rank(rank)))
}

// squareAttacked is only used for positions without move history, where the
// check tag of the last move is not available.
func squareAttacked(board *chess.Board, sq chess.Square, by chess.Color) bool {
	file, rank := int(sq.File()), int(sq.Rank())

	pawnRank := rank - 1
	if by == chess.Black {
		pawnRank = rank + 1
	}
	for _, df := range []int{-1, 1} {
		if onBoard(file+df, pawnRank) {
			if p := pieceOn(board, file+df, pawnRank); p.Type() == chess.Pawn && p.Color() == by {
				return true
			}
		}
	}
	for _, j := range knightJumps {
		if onBoard(file+j[0], rank+j[1]) {
			if p := pieceOn(board, file+j[0], rank+j[1]); p.Type() == chess.Knight && p.Color() == by {
				return true
			}
		}
	}
	for _, s := range kingSteps {
		if onBoard(file+s[0], rank+s[1]) {
			if p := pieceOn(board, file+s[0], rank+s[1]); p.Type() == chess.King && p.Color() == by {
				return true
			}
		}
	}
	slides := func(rays [4][2]int, slider chess.PieceType) bool {
		for _, ray := range rays {
			f, r := file+ray[0], rank+ray[1]
			for onBoard(f, r) {
				p := pieceOn(board, f, r)
				if p != chess.NoPiece {
					if p.Color() == by && (p.Type() == slider || p.Type() == chess.Queen) {
						return true
					}
					break
				}
				f, r = f+ray[0], r+ray[1]
			}
		}
		return false
	}
	return slides(rookRays, chess.Rook) || slides(bishopRays, chess.Bishop)
}
