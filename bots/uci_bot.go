package bots

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/notnil/chess"
	"github.com/notnil/chess/uci"
	"github.com/rs/zerolog/log"
)

// UCIBot delegates to an external UCI engine such as Stockfish. It plays to
// win, which makes it the harshest opponent for the worst-move bot.
type UCIBot struct {
	mu       sync.Mutex
	eng      *uci.Engine
	name     string
	moveTime time.Duration
}

// NewUCIBot starts the engine binary at path and performs the UCI handshake.
func NewUCIBot(path string, moveTime time.Duration) (*UCIBot, error) {
	eng, err := uci.New(path)
	if err != nil {
		return nil, fmt.Errorf("bots: start uci engine %s: %w", path, err)
	}
	if err := eng.Run(uci.CmdUCI, uci.CmdIsReady, uci.CmdUCINewGame); err != nil {
		eng.Close()
		return nil, fmt.Errorf("bots: uci handshake: %w", err)
	}
	return &UCIBot{eng: eng, name: filepath.Base(path), moveTime: moveTime}, nil
}

func (b *UCIBot) BestMove(game *chess.Game) *chess.Move {
	move, err := b.FindMove(game)
	if err != nil {
		log.Warn().Err(err).Str("engine", b.name).Msg("uci-move-failed")
		return nil
	}
	return move
}

func (b *UCIBot) FindMove(game *chess.Game) (*chess.Move, error) {
	if game == nil || len(game.ValidMoves()) == 0 {
		return nil, ErrNoLegalMoves
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	cmdPos := uci.CmdPosition{Position: game.Position()}
	cmdGo := uci.CmdGo{MoveTime: b.moveTime}
	if err := b.eng.Run(cmdPos, cmdGo); err != nil {
		return nil, fmt.Errorf("bots: uci search: %w", err)
	}
	move := b.eng.SearchResults().BestMove
	if move == nil {
		return nil, ErrNoValidMove
	}
	return move, nil
}

func (b *UCIBot) Name() string {
	return b.name
}

func (b *UCIBot) Close() error {
	if b.eng == nil {
		return nil
	}
	return b.eng.Close()
}
