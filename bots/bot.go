package bots

import (
	"errors"

	"github.com/notnil/chess"
)

var (
	// ErrNoLegalMoves is returned when a bot is asked to move in a finished game.
	ErrNoLegalMoves = errors.New("bots: no legal moves in position")
	// ErrNoValidMove is returned when every candidate failed to apply.
	ErrNoValidMove = errors.New("bots: no candidate move could be applied")
)

// ChessBot is implemented by every move source a match can be played against.
type ChessBot interface {
	BestMove(game *chess.Game) *chess.Move
	Name() string
}

// MoveFinder is a bot that reports why it could not produce a move.
type MoveFinder interface {
	ChessBot
	FindMove(game *chess.Game) (*chess.Move, error)
}

// PositionEvaluator scores a position for side. Larger means worse for side.
type PositionEvaluator interface {
	Evaluate(game *chess.Game, side chess.Color) float64
}
