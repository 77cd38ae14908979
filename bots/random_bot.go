package bots

import (
	"math/rand"
	"sync"

	"github.com/notnil/chess"
)

// RandomBot plays a uniformly random legal move. It is the default sparring
// partner for self-play.
type RandomBot struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomBot(seed int64) *RandomBot {
	return &RandomBot{rng: rand.New(rand.NewSource(seed))}
}

func (b *RandomBot) BestMove(game *chess.Game) *chess.Move {
	move, _ := b.FindMove(game)
	return move
}

func (b *RandomBot) FindMove(game *chess.Game) (*chess.Move, error) {
	if game == nil {
		return nil, ErrNoLegalMoves
	}
	moves := game.ValidMoves()
	if len(moves) == 0 {
		return nil, ErrNoLegalMoves
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return moves[b.rng.Intn(len(moves))], nil
}

func (b *RandomBot) Name() string {
	return "Random Bot"
}
