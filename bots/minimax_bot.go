package bots

import (
	"fmt"
	"math"
	"time"

	"github.com/notnil/chess"
	"github.com/rs/zerolog/log"
)

const (
	DefaultMinDepth   = 2
	DefaultMaxDepth   = 5
	DefaultTimeBudget = 1000 * time.Millisecond
)

// WorstMoveBot searches for the move that is worst for the side to move,
// assuming the opponent answers as well as it can.
type WorstMoveBot struct {
	MinDepth  int
	MaxDepth  int
	TimeLimit time.Duration
	Evaluator PositionEvaluator
	Rules     Rules
	// Now is the clock polled between root moves; nil means time.Now.
	Now func() time.Time
}

func NewWorstMoveBot(cfg Config) *WorstMoveBot {
	return &WorstMoveBot{
		MinDepth:  cfg.MinDepth,
		MaxDepth:  cfg.MaxDepth,
		TimeLimit: cfg.TimeBudget(),
		Evaluator: LosingEvaluator{},
		Rules:     StandardRules{},
	}
}

func (b *WorstMoveBot) Name() string {
	return fmt.Sprintf("Worst Move Bot (depth %d-%d)", b.minDepth(), b.maxDepth())
}

// BestMove returns nil when no move can be produced; callers that need the
// reason use FindWorstMove.
func (b *WorstMoveBot) BestMove(game *chess.Game) *chess.Move {
	move, err := b.FindWorstMove(game)
	if err != nil {
		log.Warn().Err(err).Msg("worst-move-search-failed")
		return nil
	}
	return move
}

func (b *WorstMoveBot) FindMove(game *chess.Game) (*chess.Move, error) {
	return b.FindWorstMove(game)
}

func (b *WorstMoveBot) minDepth() int {
	if b.MinDepth < 1 {
		return DefaultMinDepth
	}
	return b.MinDepth
}

func (b *WorstMoveBot) maxDepth() int {
	if b.MaxDepth < b.minDepth() {
		return max(b.minDepth(), DefaultMaxDepth)
	}
	return b.MaxDepth
}

func (b *WorstMoveBot) timeLimit() time.Duration {
	if b.TimeLimit <= 0 {
		return DefaultTimeBudget
	}
	return b.TimeLimit
}

func (b *WorstMoveBot) rules() Rules {
	if b.Rules == nil {
		return StandardRules{}
	}
	return b.Rules
}

func (b *WorstMoveBot) evaluator() PositionEvaluator {
	if b.Evaluator == nil {
		return LosingEvaluator{}
	}
	return b.Evaluator
}

func (b *WorstMoveBot) now() time.Time {
	if b.Now == nil {
		return time.Now()
	}
	return b.Now()
}

// search is the state of one FindWorstMove call.
type search struct {
	bot       *WorstMoveBot
	rules     Rules
	evaluator PositionEvaluator
	side      chess.Color
	tracker   *RepetitionTracker
	startTime time.Time
	nodes     int
}

// FindWorstMove runs iterative deepening from MinDepth to MaxDepth and
// returns the choice of the deepest iteration that finished within TimeLimit.
func (b *WorstMoveBot) FindWorstMove(game *chess.Game) (*chess.Move, error) {
	if game == nil {
		return nil, ErrNoLegalMoves
	}
	rules := b.rules()
	if len(rules.LegalMoves(game, nil)) == 0 {
		return nil, ErrNoLegalMoves
	}

	s := &search{
		bot:       b,
		rules:     rules,
		evaluator: b.evaluator(),
		side:      game.Position().Turn(),
		tracker:   SeedTracker(game, rules),
		startTime: b.now(),
	}

	var best *chess.Move
	bestScore := math.Inf(-1)
	completed := 0
	for depth := b.minDepth(); depth <= b.maxDepth(); depth++ {
		move, score, finished, err := s.searchRoot(game, depth)
		if err != nil {
			if best == nil {
				return nil, err
			}
			break
		}
		if !finished {
			// Nothing completed yet: the partial iteration is all we have.
			if best == nil {
				best, bestScore = move, score
			}
			log.Debug().Int("depth", depth).Dur("elapsed", s.elapsed()).Msg("depth-aborted")
			break
		}
		best, bestScore, completed = move, score, depth
		log.Debug().
			Int("depth", depth).
			Str("move", move.String()).
			Float64("score", score).
			Int("nodes", s.nodes).
			Dur("elapsed", s.elapsed()).
			Msg("depth-complete")
		if math.IsInf(score, 1) || s.expired() {
			break
		}
	}

	if best == nil {
		return nil, ErrNoValidMove
	}
	log.Debug().
		Str("side", s.side.String()).
		Str("move", best.String()).
		Float64("score", bestScore).
		Int("depth", completed).
		Int("nodes", s.nodes).
		Msg("worst-move")
	return best, nil
}

func (s *search) elapsed() time.Duration {
	return s.bot.now().Sub(s.startTime)
}

func (s *search) expired() bool {
	return s.elapsed() > s.bot.timeLimit()
}

// searchRoot runs one depth iteration. finished is false when the clock ran
// out before every root move was examined; at least one move is always scored.
func (s *search) searchRoot(game *chess.Game, depth int) (best *chess.Move, bestScore float64, finished bool, err error) {
	phase := PhaseOf(s.rules.PlyCount(game))
	ordered := OrderMoves(game, phase, s.tracker, s.rules)

	candidates := make([]*chess.Move, 0, len(ordered))
	for _, m := range ordered {
		if !s.tracker.IsRepetitive(s.rules.PieceAt(game, m.S1()), m.S1(), m.S2()) {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		candidates = ordered
	}

	inCheck := s.rules.InCheck(game)
	ply := s.rules.PlyCount(game)
	alpha, beta := math.Inf(-1), math.Inf(1)
	bestScore = math.Inf(-1)
	applied := 0

	for _, m := range candidates {
		if applied > 0 && s.expired() {
			return best, bestScore, false, nil
		}
		score, ok := s.explore(game, m, depth, alpha, beta, false, inCheck, ply)
		if !ok {
			continue
		}
		applied++
		if best == nil || score > bestScore {
			best, bestScore = m, score
		}
		alpha = math.Max(alpha, bestScore)
	}

	if applied == 0 {
		return nil, 0, true, ErrNoValidMove
	}
	return best, bestScore, true, nil
}

// explore applies m to a copy of parent, records it for the duration of the
// recursive call and scores the child. ok is false if m could not be applied.
func (s *search) explore(parent *chess.Game, m *chess.Move, depth int, alpha, beta float64, maximizing, inCheck bool, ply int) (score float64, ok bool) {
	piece := s.rules.PieceAt(parent, m.S1())
	child, err := s.rules.Apply(parent, m)
	if err != nil {
		log.Debug().Err(err).Str("move", m.String()).Msg("candidate-dropped")
		return 0, false
	}

	s.tracker.Record(HistoryEntry{
		PositionKey: s.rules.PositionKey(child),
		Piece:       piece,
		From:        m.S1(),
		To:          m.S2(),
		Ply:         ply + 1,
		InCheck:     inCheck,
	})
	defer s.tracker.Unrecord()

	return s.minimax(child, depth-1, alpha, beta, maximizing), true
}

func (s *search) minimax(game *chess.Game, depth int, alpha, beta float64, maximizing bool) float64 {
	s.nodes++

	if s.rules.IsCheckmate(game) {
		// Being mated is the goal; mating the opponent is the worst failure.
		if game.Position().Turn() == s.side {
			return math.Inf(1)
		}
		return math.Inf(-1)
	}
	if s.rules.IsDraw(game) {
		return 0
	}
	if depth <= 0 {
		return s.leaf(game)
	}

	phase := PhaseOf(s.rules.PlyCount(game))
	moves := OrderMoves(game, phase, s.tracker, s.rules)
	inCheck := s.rules.InCheck(game)
	ply := s.rules.PlyCount(game)

	applied := false
	var best float64
	if maximizing {
		best = math.Inf(-1)
	} else {
		best = math.Inf(1)
	}

	for _, m := range moves {
		score, ok := s.explore(game, m, depth, alpha, beta, !maximizing, inCheck, ply)
		if !ok {
			continue
		}
		applied = true
		if maximizing {
			best = math.Max(best, score)
			alpha = math.Max(alpha, best)
		} else {
			best = math.Min(best, score)
			beta = math.Min(beta, best)
		}
		if beta <= alpha {
			break
		}
	}

	if !applied {
		return s.leaf(game)
	}
	return best
}

// leaf scores a position without looking further ahead.
func (s *search) leaf(game *chess.Game) float64 {
	score := s.evaluator.Evaluate(game, s.side)
	return score - s.tracker.Penalty(s.rules.PositionKey(game), s.side)
}
