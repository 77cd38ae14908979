// Package match owns a single human-versus-bot game and serialises access to
// it between the UI or network goroutines and the bot search.
package match

import (
	"errors"
	"fmt"
	"sync"

	"losingChess/bots"

	"github.com/notnil/chess"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotYourTurn = errors.New("match: not the human's turn")
	ErrSearching   = errors.New("match: bot is searching")
	ErrGameOver    = errors.New("match: game is over")
	ErrIllegalMove = errors.New("match: illegal move")
)

// Match is safe for concurrent use. At most one bot search runs at a time.
type Match struct {
	mu        sync.Mutex
	game      *chess.Game
	human     chess.Color
	bot       bots.ChessBot
	searching bool
	rules     bots.Rules
}

// Status is a snapshot of the match suitable for rendering or JSON.
type Status struct {
	FEN       string   `json:"fen"`
	Turn      string   `json:"turn"`
	Human     string   `json:"human"`
	Bot       string   `json:"bot"`
	Phase     string   `json:"phase"`
	Outcome   string   `json:"outcome"`
	Method    string   `json:"method"`
	Searching bool     `json:"searching"`
	InCheck   bool     `json:"in_check"`
	History   []string `json:"history"`
}

func New(bot bots.ChessBot, human chess.Color) *Match {
	return &Match{
		game:  newGame(),
		human: human,
		bot:   bot,
		rules: bots.StandardRules{},
	}
}

// FromFEN starts a match from an arbitrary position.
func FromFEN(bot bots.ChessBot, human chess.Color, fen string) (*Match, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("match: %w", err)
	}
	m := New(bot, human)
	m.game = chess.NewGame(opt, chess.UseNotation(chess.UCINotation{}))
	return m, nil
}

func newGame() *chess.Game {
	return chess.NewGame(chess.UseNotation(chess.UCINotation{}))
}

func (m *Match) Human() chess.Color {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.human
}

func (m *Match) Bot() bots.ChessBot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bot
}

// SetBot swaps the opponent. It fails while a search is in flight.
func (m *Match) SetBot(bot bots.ChessBot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.searching {
		return ErrSearching
	}
	m.bot = bot
	log.Info().Str("bot", bot.Name()).Msg("bot-selected")
	return nil
}

// Position returns the current position. Positions are never mutated by the
// game, so the result can be read without holding the lock.
func (m *Match) Position() *chess.Position {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.game.Position()
}

func (m *Match) Searching() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.searching
}

// BotToMove reports whether the bot should move now.
func (m *Match) BotToMove() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.searching && m.game.Outcome() == chess.NoOutcome && m.game.Position().Turn() != m.human
}

// PlayHuman plays the human move between two squares. Promotions default to
// a queen.
func (m *Match) PlayHuman(from, to chess.Square) (*chess.Move, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.humanCanMove(); err != nil {
		return nil, err
	}
	var pick *chess.Move
	for _, mv := range m.game.ValidMoves() {
		if mv.S1() != from || mv.S2() != to {
			continue
		}
		if mv.Promo() == chess.NoPieceType || mv.Promo() == chess.Queen {
			pick = mv
			break
		}
	}
	if pick == nil {
		return nil, fmt.Errorf("%w: %s%s", ErrIllegalMove, from, to)
	}
	return pick, m.apply(pick, "human")
}

// PlayUCI plays a human move given in UCI notation such as "e2e4" or "e7e8n".
func (m *Match) PlayUCI(text string) (*chess.Move, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.humanCanMove(); err != nil {
		return nil, err
	}
	for _, mv := range m.game.ValidMoves() {
		if mv.String() == text {
			return mv, m.apply(mv, "human")
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrIllegalMove, text)
}

func (m *Match) humanCanMove() error {
	switch {
	case m.searching:
		return ErrSearching
	case m.game.Outcome() != chess.NoOutcome:
		return ErrGameOver
	case m.game.Position().Turn() != m.human:
		return ErrNotYourTurn
	}
	return nil
}

func (m *Match) apply(mv *chess.Move, who string) error {
	if err := m.game.Move(mv); err != nil {
		return fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	ev := log.Info().Str("by", who).Str("move", mv.String()).Str("fen", m.game.Position().String())
	if m.game.Outcome() != chess.NoOutcome {
		ev = ev.Str("outcome", string(m.game.Outcome())).Str("method", MethodName(m.game.Method()))
	}
	ev.Msg("move")
	return nil
}

// PlayBot runs the bot on a copy of the game and applies its answer. The
// lock is released during the search so that Status stays responsive.
func (m *Match) PlayBot() (*chess.Move, error) {
	m.mu.Lock()
	switch {
	case m.searching:
		m.mu.Unlock()
		return nil, ErrSearching
	case m.game.Outcome() != chess.NoOutcome:
		m.mu.Unlock()
		return nil, ErrGameOver
	case m.game.Position().Turn() == m.human:
		m.mu.Unlock()
		return nil, ErrNotYourTurn
	}
	m.searching = true
	bot := m.bot
	snapshot := m.game.Clone()
	m.mu.Unlock()

	mv, err := think(bot, snapshot)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.searching = false
	if err != nil {
		log.Error().Err(err).Str("bot", bot.Name()).Msg("bot-move-failed")
		return nil, err
	}
	return mv, m.apply(mv, bot.Name())
}

func think(bot bots.ChessBot, game *chess.Game) (*chess.Move, error) {
	if finder, ok := bot.(bots.MoveFinder); ok {
		return finder.FindMove(game)
	}
	mv := bot.BestMove(game)
	if mv == nil {
		return nil, bots.ErrNoValidMove
	}
	return mv, nil
}

// Reset starts a fresh game with the human on the given side.
func (m *Match) Reset(human chess.Color) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.searching {
		return ErrSearching
	}
	m.game = newGame()
	m.human = human
	log.Info().Str("human", ColorName(human)).Msg("match-reset")
	return nil
}

func (m *Match) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	pos := m.game.Position()
	history := make([]string, 0, len(m.game.Moves()))
	for _, mv := range m.game.Moves() {
		history = append(history, mv.String())
	}
	botName := ""
	if m.bot != nil {
		botName = m.bot.Name()
	}
	return Status{
		FEN:       pos.String(),
		Turn:      ColorName(pos.Turn()),
		Human:     ColorName(m.human),
		Bot:       botName,
		Phase:     bots.PhaseOf(m.rules.PlyCount(m.game)).String(),
		Outcome:   string(m.game.Outcome()),
		Method:    MethodName(m.game.Method()),
		Searching: m.searching,
		InCheck:   m.rules.InCheck(m.game),
		History:   history,
	}
}

func ColorName(c chess.Color) string {
	switch c {
	case chess.White:
		return "white"
	case chess.Black:
		return "black"
	}
	return "none"
}

// ParseColor accepts "white", "black", "w" or "b".
func ParseColor(s string) (chess.Color, error) {
	switch s {
	case "white", "w":
		return chess.White, nil
	case "black", "b":
		return chess.Black, nil
	}
	return chess.NoColor, fmt.Errorf("match: unknown colour %q", s)
}

func MethodName(method chess.Method) string {
	switch method {
	case chess.Checkmate:
		return "checkmate"
	case chess.Resignation:
		return "resignation"
	case chess.DrawOffer:
		return "draw offer"
	case chess.Stalemate:
		return "stalemate"
	case chess.ThreefoldRepetition:
		return "threefold repetition"
	case chess.FivefoldRepetition:
		return "fivefold repetition"
	case chess.FiftyMoveRule:
		return "fifty-move rule"
	case chess.SeventyFiveMoveRule:
		return "seventy-five-move rule"
	case chess.InsufficientMaterial:
		return "insufficient material"
	}
	return ""
}
