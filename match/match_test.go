package match

import (
	"errors"
	"sync"
	"testing"
	"time"

	"losingChess/bots"

	"github.com/notnil/chess"
)

// scriptedBot plays the first legal move, optionally blocking until released.
type scriptedBot struct {
	started chan struct{}
	release chan struct{}
}

func (b *scriptedBot) BestMove(game *chess.Game) *chess.Move {
	if b.started != nil {
		b.started <- struct{}{}
		<-b.release
	}
	moves := game.ValidMoves()
	if len(moves) == 0 {
		return nil
	}
	return moves[0]
}

func (b *scriptedBot) Name() string { return "scripted" }

func TestHumanThenBot(t *testing.T) {
	m := New(bots.NewRandomBot(3), chess.White)
	if _, err := m.PlayHuman(chess.E2, chess.E4); err != nil {
		t.Fatalf("PlayHuman: %v", err)
	}
	if _, err := m.PlayHuman(chess.D2, chess.D4); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("second human move err = %v", err)
	}
	if !m.BotToMove() {
		t.Fatalf("bot should be to move")
	}
	mv, err := m.PlayBot()
	if err != nil {
		t.Fatalf("PlayBot: %v", err)
	}
	st := m.Status()
	if len(st.History) != 2 || st.History[0] != "e2e4" || st.History[1] != mv.String() {
		t.Fatalf("history = %v", st.History)
	}
	if st.Turn != "white" || st.Human != "white" || st.Bot != "Random Bot" || st.Phase != "opening" {
		t.Fatalf("status = %+v", st)
	}
}

func TestPlayHumanRejectsIllegal(t *testing.T) {
	m := New(bots.NewRandomBot(1), chess.White)
	if _, err := m.PlayHuman(chess.E2, chess.E5); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("err = %v, want ErrIllegalMove", err)
	}
	if _, err := m.PlayUCI("e7e5"); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("err = %v, want ErrIllegalMove", err)
	}
	if _, err := m.PlayBot(); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("bot on human turn err = %v", err)
	}
}

func TestPromotionDefaultsToQueen(t *testing.T) {
	m, err := FromFEN(bots.NewRandomBot(1), chess.White, "8/P6k/8/8/8/8/8/K7 w - - 0 1")
	if err != nil {
		t.Fatalf("FromFEN: %v", err)
	}
	mv, err := m.PlayHuman(chess.A7, chess.A8)
	if err != nil {
		t.Fatalf("PlayHuman: %v", err)
	}
	if mv.Promo() != chess.Queen {
		t.Fatalf("promoted to %v", mv.Promo())
	}
}

func TestUnderpromotionByUCI(t *testing.T) {
	m, err := FromFEN(bots.NewRandomBot(1), chess.White, "8/P6k/8/8/8/8/8/K7 w - - 0 1")
	if err != nil {
		t.Fatalf("FromFEN: %v", err)
	}
	mv, err := m.PlayUCI("a7a8n")
	if err != nil {
		t.Fatalf("PlayUCI: %v", err)
	}
	if mv.Promo() != chess.Knight {
		t.Fatalf("promoted to %v", mv.Promo())
	}
}

func TestGameOver(t *testing.T) {
	m := New(&scriptedBot{}, chess.White)
	for _, mv := range []string{"f2f3", "e7e5", "g2g4", "d8h4"} {
		m.mu.Lock()
		if err := m.game.MoveStr(mv); err != nil {
			m.mu.Unlock()
			t.Fatalf("setup %s: %v", mv, err)
		}
		m.mu.Unlock()
	}
	if _, err := m.PlayUCI("e2e4"); !errors.Is(err, ErrGameOver) {
		t.Fatalf("err = %v, want ErrGameOver", err)
	}
	st := m.Status()
	if st.Outcome != "0-1" || st.Method != "checkmate" || !st.InCheck {
		t.Fatalf("status = %+v", st)
	}
	if m.BotToMove() {
		t.Fatalf("bot should not move in a finished game")
	}
}

func TestSearchingGate(t *testing.T) {
	bot := &scriptedBot{started: make(chan struct{}), release: make(chan struct{})}
	m := New(bot, chess.Black)

	var wg sync.WaitGroup
	wg.Add(1)
	var botErr error
	go func() {
		defer wg.Done()
		_, botErr = m.PlayBot()
	}()

	select {
	case <-bot.started:
	case <-time.After(5 * time.Second):
		t.Fatalf("bot never started")
	}
	if !m.Searching() || !m.Status().Searching {
		t.Fatalf("match should report searching")
	}
	if _, err := m.PlayBot(); !errors.Is(err, ErrSearching) {
		t.Errorf("concurrent PlayBot err = %v", err)
	}
	if _, err := m.PlayHuman(chess.E7, chess.E5); !errors.Is(err, ErrSearching) {
		t.Errorf("human move during search err = %v", err)
	}
	if err := m.Reset(chess.White); !errors.Is(err, ErrSearching) {
		t.Errorf("reset during search err = %v", err)
	}
	if err := m.SetBot(bots.NewRandomBot(1)); !errors.Is(err, ErrSearching) {
		t.Errorf("SetBot during search err = %v", err)
	}
	close(bot.release)
	wg.Wait()

	if botErr != nil {
		t.Fatalf("PlayBot: %v", botErr)
	}
	if m.Searching() {
		t.Fatalf("searching flag not cleared")
	}
	if got := len(m.Status().History); got != 1 {
		t.Fatalf("history length = %d", got)
	}
}

func TestResetAndColours(t *testing.T) {
	m := New(bots.NewRandomBot(1), chess.White)
	if _, err := m.PlayUCI("e2e4"); err != nil {
		t.Fatalf("PlayUCI: %v", err)
	}
	if err := m.Reset(chess.Black); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	st := m.Status()
	if len(st.History) != 0 || st.Human != "black" || !m.BotToMove() {
		t.Fatalf("after reset: %+v", st)
	}

	for in, want := range map[string]chess.Color{"white": chess.White, "b": chess.Black} {
		if got, err := ParseColor(in); err != nil || got != want {
			t.Errorf("ParseColor(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseColor("green"); err == nil {
		t.Errorf("ParseColor accepted green")
	}
}

func TestWorstMoveBotInMatch(t *testing.T) {
	cfg := bots.DefaultConfig()
	cfg.MaxDepth = 2
	cfg.TimeBudgetMs = 300
	m := New(bots.NewWorstMoveBot(cfg), chess.Black)
	mv, err := m.PlayBot()
	if err != nil {
		t.Fatalf("PlayBot: %v", err)
	}
	if m.Status().History[0] != mv.String() {
		t.Fatalf("bot move not recorded")
	}
}
