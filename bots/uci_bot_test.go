package bots

import (
	"os/exec"
	"testing"
	"time"
)

func TestUCIBotPlaysLegalMove(t *testing.T) {
	path, err := exec.LookPath("stockfish")
	if err != nil {
		t.Skip("stockfish not installed")
	}
	bot, err := NewUCIBot(path, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("NewUCIBot: %v", err)
	}
	defer bot.Close()

	game := newUCIGame()
	play(t, game, "e2e4", "e7e5")
	move, err := bot.FindMove(game)
	if err != nil {
		t.Fatalf("FindMove: %v", err)
	}
	if !isLegal(game, move) {
		t.Fatalf("engine returned illegal %s", move)
	}
	if bot.Name() != "stockfish" {
		t.Fatalf("name = %q", bot.Name())
	}
}

func TestNewUCIBotMissingBinary(t *testing.T) {
	if _, err := NewUCIBot("/nonexistent/engine", time.Millisecond); err == nil {
		t.Fatalf("expected an error starting a missing engine")
	}
}
