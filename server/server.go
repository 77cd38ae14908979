// Package server exposes the worst-move bot over HTTP and websockets.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"losingChess/bots"
	"losingChess/match"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/notnil/chess"
	"github.com/rs/zerolog/log"
)

type Server struct {
	cfg bots.Config
	bot *bots.WorstMoveBot

	mu     sync.Mutex
	games  map[string]*match.Match
	nextID int
}

type moveRequest struct {
	FEN string `json:"fen"`
}

type moveResponse struct {
	Move  string `json:"move"`
	FEN   string `json:"fen"`
	Phase string `json:"phase"`
}

type newGameRequest struct {
	Human string `json:"human"`
	FEN   string `json:"fen"`
}

type humanMoveRequest struct {
	Move string `json:"move"`
}

type gameResponse struct {
	ID string `json:"id"`
	match.Status
}

func New(cfg bots.Config) *Server {
	return &Server{
		cfg:   cfg,
		bot:   bots.NewWorstMoveBot(cfg),
		games: make(map[string]*match.Match),
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	r.Get("/api/config", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.cfg)
	})
	r.Post("/api/move", s.handleWorstMove)

	r.Route("/api/games", func(r chi.Router) {
		r.Post("/", s.handleNewGame)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetGame)
			r.Delete("/", s.handleDeleteGame)
			r.Post("/move", s.handleHumanMove)
			r.Post("/bot", s.handleBotMove)
		})
	})

	r.Get("/ws/game", s.serveGameWS)
	return r
}

// handleWorstMove answers a single position without keeping any state.
func (s *Server) handleWorstMove(w http.ResponseWriter, r *http.Request) {
	var payload moveRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	opt, err := chess.FEN(payload.FEN)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid fen")
		return
	}
	game := chess.NewGame(opt, chess.UseNotation(chess.UCINotation{}))
	move, err := s.bot.FindWorstMove(game)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if err := game.Move(move); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, moveResponse{
		Move:  move.String(),
		FEN:   game.Position().String(),
		Phase: bots.PhaseOf(bots.StandardRules{}.PlyCount(game)).String(),
	})
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	payload := newGameRequest{Human: "white"}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid payload")
			return
		}
	}
	m, err := s.newMatch(payload.Human, payload.FEN)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	s.nextID++
	id := strconv.Itoa(s.nextID)
	s.games[id] = m
	s.mu.Unlock()

	log.Info().Str("game", id).Str("human", match.ColorName(m.Human())).Msg("game-created")
	writeJSON(w, http.StatusCreated, gameResponse{ID: id, Status: m.Status()})
}

func (s *Server) newMatch(human, fen string) (*match.Match, error) {
	if human == "" {
		human = "white"
	}
	color, err := match.ParseColor(human)
	if err != nil {
		return nil, err
	}
	if fen == "" {
		return match.New(s.bot, color), nil
	}
	return match.FromFEN(s.bot, color, fen)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (string, *match.Match, bool) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	m, ok := s.games[id]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "unknown game")
	}
	return id, m, ok
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	id, m, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, gameResponse{ID: id, Status: m.Status()})
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	id, _, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	delete(s.games, id)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// handleHumanMove plays the human move and, unless the game ended, the
// bot's reply before responding.
func (s *Server) handleHumanMove(w http.ResponseWriter, r *http.Request) {
	id, m, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var payload humanMoveRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if _, err := m.PlayUCI(payload.Move); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if m.BotToMove() {
		if _, err := m.PlayBot(); err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, gameResponse{ID: id, Status: m.Status()})
}

func (s *Server) handleBotMove(w http.ResponseWriter, r *http.Request) {
	id, m, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if _, err := m.PlayBot(); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, gameResponse{ID: id, Status: m.Status()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, match.ErrIllegalMove):
		return http.StatusBadRequest
	case errors.Is(err, match.ErrNotYourTurn), errors.Is(err, match.ErrSearching), errors.Is(err, match.ErrGameOver):
		return http.StatusConflict
	case errors.Is(err, bots.ErrNoLegalMoves):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http")
	})
}

func mustMarshal(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
