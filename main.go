package main

import (
	"flag"
	"os"
	"time"

	"losingChess/bots"
	"losingChess/game"

	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Error().Err(err).Msg("exit")
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to a JSON config file")
	uciPath := flag.String("uci", "", "optional UCI engine binary offered as an extra opponent")
	maxDepth := flag.Int("depth", 0, "override max_depth")
	flag.Parse()

	cfg, err := bots.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *maxDepth > 0 {
		cfg.MaxDepth = *maxDepth
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if err := cfg.SetupLogging(); err != nil {
		return err
	}

	opponents := []bots.ChessBot{
		bots.NewWorstMoveBot(cfg),
		bots.NewRandomBot(time.Now().UnixNano()),
	}
	if *uciPath != "" {
		engine, err := bots.NewUCIBot(*uciPath, cfg.TimeBudget())
		if err != nil {
			return err
		}
		defer engine.Close()
		opponents = append(opponents, engine)
	}

	return game.Run(cfg, opponents)
}
