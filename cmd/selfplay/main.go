// Command selfplay pits the worst-move bot against a random or UCI opponent
// and reports how the games ended.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"losingChess/bots"
	"losingChess/match"

	"github.com/notnil/chess"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type result struct {
	game     int
	botColor chess.Color
	outcome  chess.Outcome
	method   chess.Method
	plies    int
	botLost  bool
}

func main() {
	configPath := flag.String("config", "", "path to a JSON config file")
	games := flag.Int("games", 4, "number of games")
	parallel := flag.Int("parallel", 2, "games played at once")
	maxPlies := flag.Int("max-plies", 300, "adjudicate a draw after this many plies")
	uciPath := flag.String("uci", "", "UCI engine binary used as the opponent; random mover when empty")
	seed := flag.Int64("seed", 1, "seed for the random opponent")
	flag.Parse()

	cfg, err := bots.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	if err := cfg.SetupLogging(); err != nil {
		log.Fatal().Err(err).Msg("logging")
	}

	worst := bots.NewWorstMoveBot(cfg)
	newOpponent := func(i int) (bots.MoveFinder, func(), error) {
		if *uciPath == "" {
			return bots.NewRandomBot(*seed + int64(i)), func() {}, nil
		}
		engine, err := bots.NewUCIBot(*uciPath, 100*time.Millisecond)
		if err != nil {
			return nil, nil, err
		}
		return engine, func() { engine.Close() }, nil
	}

	var (
		mu      sync.Mutex
		results []result
	)
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(*parallel)
	for i := 0; i < *games; i++ {
		i := i
		g.Go(func() error {
			opponent, closeFn, err := newOpponent(i)
			if err != nil {
				return err
			}
			defer closeFn()
			botColor := chess.White
			if i%2 == 1 {
				botColor = chess.Black
			}
			res, err := playGame(ctx, worst, opponent, botColor, *maxPlies)
			if err != nil {
				return fmt.Errorf("game %d: %w", i, err)
			}
			res.game = i
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			log.Info().
				Int("game", i).
				Str("bot", match.ColorName(botColor)).
				Str("outcome", string(res.outcome)).
				Str("method", match.MethodName(res.method)).
				Int("plies", res.plies).
				Msg("game-finished")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("selfplay")
	}

	sort.Slice(results, func(a, b int) bool { return results[a].game < results[b].game })
	lost := 0
	for _, r := range results {
		if r.botLost {
			lost++
		}
		fmt.Fprintf(os.Stdout, "game %d  bot=%s  %s  %s  %d plies\n",
			r.game, match.ColorName(r.botColor), r.outcome, match.MethodName(r.method), r.plies)
	}
	fmt.Fprintf(os.Stdout, "worst-move bot lost %d of %d games\n", lost, len(results))
}

func playGame(ctx context.Context, worst *bots.WorstMoveBot, opponent bots.MoveFinder, botColor chess.Color, maxPlies int) (result, error) {
	game := chess.NewGame(chess.UseNotation(chess.UCINotation{}))
	res := result{botColor: botColor}
	for game.Outcome() == chess.NoOutcome && len(game.Moves()) < maxPlies {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		var (
			move *chess.Move
			err  error
		)
		if game.Position().Turn() == botColor {
			move, err = worst.FindWorstMove(game)
		} else {
			move, err = opponent.FindMove(game)
		}
		if err != nil {
			return res, err
		}
		if err := game.Move(move); err != nil {
			return res, err
		}
	}
	res.outcome = game.Outcome()
	res.method = game.Method()
	res.plies = len(game.Moves())
	res.botLost = (botColor == chess.White && res.outcome == chess.BlackWon) ||
		(botColor == chess.Black && res.outcome == chess.WhiteWon)
	return res, nil
}
