package session

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"example.com/bc-solver/internal/solver"
	"example.com/bc-solver/internal/store"
)

// Session is one remotely driven solving game. All access to the game goes
// through mu; the solver itself is single-owner.
type Session struct {
	id string
	mu sync.Mutex

	game      *solver.Game
	createdAt time.Time
	recorded  bool // result handed to onFinish

	conn *ClientConn

	onPersist func(Snapshot)
	onFinish  func(store.Result)
}

func newSession(id string, g *solver.Game, createdAt time.Time) *Session {
	return &Session{id: id, game: g, createdAt: createdAt}
}

func (s *Session) ID() string { return s.id }

// Attach makes cc the driver connection. A previous connection is closed:
// one game has exactly one driver.
func (s *Session) Attach(cc *ClientConn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.conn
	s.conn = cc
	if old != nil && old != cc {
		old.Close()
	}
	s.sendStateLocked()
}

func (s *Session) Detach(cc *ClientConn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == cc {
		s.conn = nil
	}
}

// RequestProbe asks the solver for the next question.
func (s *Session) RequestProbe() (ProbePayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	probe, err := s.game.RequestProbe()
	if err != nil {
		return ProbePayload{}, err
	}

	p := ProbePayload{Round: s.game.Round(), Probe: probe}
	s.sendLocked(Envelope{Type: "probe", Payload: mustJSON(p)})
	s.persistLocked()
	return p, nil
}

// SubmitFeedback records the driver's answer. On error nothing changes.
// The result of a finished game is handed to onFinish after mu is released.
func (s *Session) SubmitFeedback(bulls, cows int) (StatePayload, error) {
	s.mu.Lock()
	if err := s.game.SubmitFeedback(bulls, cows); err != nil {
		s.mu.Unlock()
		return StatePayload{}, err
	}

	var result *store.Result
	if s.game.IsFinished() {
		result = s.finishLocked()
	}
	s.sendStateLocked()
	s.persistLocked()
	st := s.stateLocked()
	onFinish := s.onFinish
	s.mu.Unlock()

	if result != nil && onFinish != nil {
		onFinish(*result)
	}
	return st, nil
}

func (s *Session) State() StatePayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) SendError(cc *ClientConn, code, message string) {
	cc.trySend(mustMarshal(Envelope{
		Type:    "error",
		Payload: mustJSON(ErrorPayload{Code: code, Message: message}),
	}))
}

// finishLocked announces the end of the game once and returns its result;
// nil when it was already reported.
func (s *Session) finishLocked() *store.Result {
	if s.recorded {
		return nil
	}
	s.recorded = true

	s.sendLocked(Envelope{Type: "finished", Payload: mustJSON(s.stateLocked())})
	r := s.resultLocked()
	return &r
}

func (s *Session) resultLocked() store.Result {
	h := s.game.History()
	probes := make([]string, 0, len(h))
	for _, t := range h {
		probes = append(probes, t.Probe.String())
	}

	r := store.Result{
		SessionID:  s.id,
		Correct:    s.game.IsCorrect(),
		Steps:      s.game.StepCount(),
		Probes:     probes,
		Seed:       s.game.Seed(),
		FinishedAt: time.Now(),
	}
	if n, ok := s.game.SolvedValue(); ok {
		r.Solved = n.String()
	}
	return r
}

func (s *Session) stateLocked() StatePayload {
	st := StatePayload{
		SessionID: s.id,
		Status:    StatusInProgress,
		Round:     s.game.Round(),
		Steps:     s.game.StepCount(),
		Possible:  s.game.Possible(),
		History:   s.game.History(),
	}
	if st.History == nil {
		st.History = solver.History{}
	}
	if p, ok := s.game.Pending(); ok {
		st.Pending = &p
	}
	if s.game.IsFinished() {
		st.Status = StatusFinished
		correct := s.game.IsCorrect()
		st.Correct = &correct
		if n, ok := s.game.SolvedValue(); ok {
			st.Solved = &n
		}
	}
	return st
}

func (s *Session) sendStateLocked() {
	s.sendLocked(Envelope{Type: "state", Payload: mustJSON(s.stateLocked())})
}

func (s *Session) sendLocked(env Envelope) {
	if s.conn == nil {
		return
	}
	s.conn.trySend(mustMarshal(env))
}

func (s *Session) persistLocked() {
	if s.onPersist == nil {
		return
	}
	s.onPersist(s.snapshotLocked())
}

// errorStatus maps solver errors onto HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, solver.ErrInvalidFeedback):
		return http.StatusBadRequest, "invalid_feedback"
	case errors.Is(err, solver.ErrGameFinished):
		return http.StatusConflict, "game_finished"
	case errors.Is(err, solver.ErrNoPendingProbe):
		return http.StatusConflict, "no_pending_probe"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func mustJSON(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

func mustMarshal(env Envelope) []byte {
	b, _ := json.Marshal(env)
	return b
}
