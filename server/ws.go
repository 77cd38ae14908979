package server

import (
	"encoding/json"
	"net/http"
	"time"

	"losingChess/match"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const wsIdlePingInterval = 30 * time.Second

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type wsCommand struct {
	Type  string `json:"type"`
	Move  string `json:"move,omitempty"`
	Human string `json:"human,omitempty"`
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// serveGameWS runs one match per connection. Clients send
// {"type":"move","move":"e2e4"} or {"type":"reset","human":"black"} and
// receive "status" and "error" messages.
func (s *Server) serveGameWS(w http.ResponseWriter, r *http.Request) {
	m, err := s.newMatch(r.URL.Query().Get("human"), r.URL.Query().Get("fen"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	send := make(chan []byte, 16)
	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		if err := writeWSWithHeartbeat(conn, send); err != nil {
			log.Debug().Err(err).Msg("ws-write-stopped")
		}
	}()
	defer func() {
		close(send)
		<-writeDone
	}()

	push := func(msg wsMessage) {
		data, err := json.Marshal(msg)
		if err != nil {
			return
		}
		select {
		case send <- data:
		default:
			log.Warn().Str("type", msg.Type).Msg("ws-send-dropped")
		}
	}
	pushStatus := func() { push(wsMessage{Type: "status", Payload: mustMarshal(m.Status())}) }
	pushError := func(err error) {
		push(wsMessage{Type: "error", Payload: mustMarshal(map[string]string{"error": err.Error()})})
	}
	botReply := func() {
		if !m.BotToMove() {
			return
		}
		if _, err := m.PlayBot(); err != nil {
			pushError(err)
		}
		pushStatus()
	}

	log.Info().Str("remote", r.RemoteAddr).Str("human", match.ColorName(m.Human())).Msg("ws-game-open")
	pushStatus()
	botReply()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Info().Str("remote", r.RemoteAddr).Msg("ws-game-closed")
			return
		}
		var cmd wsCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			push(wsMessage{Type: "error", Payload: mustMarshal(map[string]string{"error": "invalid message"})})
			continue
		}
		switch cmd.Type {
		case "move":
			if _, err := m.PlayUCI(cmd.Move); err != nil {
				pushError(err)
				continue
			}
			pushStatus()
			botReply()
		case "reset":
			human := m.Human()
			if cmd.Human != "" {
				if human, err = match.ParseColor(cmd.Human); err != nil {
					pushError(err)
					continue
				}
			}
			if err := m.Reset(human); err != nil {
				pushError(err)
				continue
			}
			pushStatus()
			botReply()
		case "status":
			pushStatus()
		case "pong":
		default:
			push(wsMessage{Type: "error", Payload: mustMarshal(map[string]string{"error": "unknown message type"})})
		}
	}
}

func writeWSWithHeartbeat(conn *websocket.Conn, send <-chan []byte) error {
	ticker := time.NewTicker(wsIdlePingInterval)
	defer ticker.Stop()
	lastWrite := time.Now()
	pingPayload := mustMarshal(wsMessage{Type: "ping"})

	for {
		select {
		case msg, ok := <-send:
			if !ok {
				return nil
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return err
			}
			lastWrite = time.Now()
		case <-ticker.C:
			if time.Since(lastWrite) < wsIdlePingInterval {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, pingPayload); err != nil {
				return err
			}
			lastWrite = time.Now()
		}
	}
}
