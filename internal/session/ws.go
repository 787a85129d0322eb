package session

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"example.com/bc-solver/internal/httpapi"
	"github.com/gorilla/websocket"
)

const (
	authWait     = 10 * time.Second
	pingInterval = 25 * time.Second
	maxIDLen     = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type ClientConn struct {
	ws   *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

func newClientConn(ws *websocket.Conn) *ClientConn {
	return &ClientConn{ws: ws, send: make(chan []byte, 64)}
}

// trySend queues b without blocking; a slow reader loses messages, the next
// state message carries everything it needs.
func (c *ClientConn) trySend(b []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

func (c *ClientConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()

	if c.ws != nil {
		_ = c.ws.Close()
	}
}

func (c *ClientConn) writeLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sessionIDFromWSPath extracts {id} from /ws/{id}. IDs are lowercase uuids
// or similar: [0-9a-z-], at most 64 chars.
func sessionIDFromWSPath(path string) (string, bool) {
	id, ok := strings.CutPrefix(path, "/ws/")
	if !ok || id == "" || len(id) > maxIDLen {
		return "", false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '-' {
			return "", false
		}
	}
	return id, true
}

// handleWS drives one session over a WebSocket at /ws/{id}.
// The token comes either in the Authorization header or in a first
// {"type":"auth","payload":{"token":"..."}} message.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDFromWSPath(r.URL.Path)
	if !ok {
		http.Error(w, "bad session id", http.StatusBadRequest)
		return
	}

	authed := false
	if tok, ok := httpapi.BearerToken(r); ok {
		if !s.tokenFor(tok, id) {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		authed = true
	}

	sess, found, err := s.sessions.GetOrLoad(r.Context(), id)
	if err != nil {
		s.log.Error("load session", "session", id, "err", err)
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	if !found {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	if !authed && !s.awaitAuth(ws, id) {
		_ = ws.Close()
		return
	}

	cc := newClientConn(ws)
	go cc.writeLoop()
	sess.Attach(cc)

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			break
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			sess.SendError(cc, "bad_json", "invalid json")
			continue
		}

		switch env.Type {
		case "request_probe":
			if _, err := sess.RequestProbe(); err != nil {
				_, code := errorStatus(err)
				sess.SendError(cc, code, err.Error())
			}

		case "submit_feedback":
			var p FeedbackPayload
			if err := json.Unmarshal(env.Payload, &p); err != nil || p.Bulls == nil || p.Cows == nil {
				sess.SendError(cc, "bad_input", "payload needs bulls and cows")
				continue
			}
			if _, err := sess.SubmitFeedback(*p.Bulls, *p.Cows); err != nil {
				_, code := errorStatus(err)
				sess.SendError(cc, code, err.Error())
			}

		case "state":
			cc.trySend(mustMarshal(Envelope{Type: "state", Payload: mustJSON(sess.State())}))

		case "auth":
			// already authenticated

		default:
			sess.SendError(cc, "unknown_type", "unknown message type")
		}
	}

	sess.Detach(cc)
	cc.Close()
}

// awaitAuth reads the first message, which must be a valid auth envelope.
// Runs before the write loop starts, so writing directly is safe.
func (s *Server) awaitAuth(ws *websocket.Conn, sessionID string) bool {
	_ = ws.SetReadDeadline(time.Now().Add(authWait))
	defer func() { _ = ws.SetReadDeadline(time.Time{}) }()

	fail := func(code, msg string) bool {
		_ = ws.WriteJSON(Envelope{
			Type:    "error",
			Payload: mustJSON(ErrorPayload{Code: code, Message: msg}),
		})
		return false
	}

	_, data, err := ws.ReadMessage()
	if err != nil {
		return false
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Type != "auth" {
		return fail("unauthorized", "first message must be auth")
	}
	var p AuthPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil || !s.tokenFor(p.Token, sessionID) {
		return fail("unauthorized", "invalid token")
	}
	return true
}

func (s *Server) tokenFor(token, sessionID string) bool {
	claims, err := s.tokens.Verify(token)
	return err == nil && claims.SessionID == sessionID
}
