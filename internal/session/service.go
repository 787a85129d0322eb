package session

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"example.com/bc-solver/internal/solver"
	"example.com/bc-solver/internal/store"
	"github.com/google/uuid"
)

const hookTimeout = 5 * time.Second

type Config struct {
	Universe *solver.Universe
	Seed     uint64 // 0 => random seed per session
}

// Recorder receives the result of every finished session.
type Recorder interface {
	Record(ctx context.Context, r store.Result) error
}

// Service is responsible for:
//   - the in-memory cache of live sessions
//   - restoring sessions from persistent storage (Redis)
//   - handing results of finished sessions to the Recorder
type Service struct {
	mu sync.Mutex
	in map[string]*Session

	cfg     Config
	persist Persistence
	results Recorder
	log     *slog.Logger
}

// NewService wires a session service. results may be nil.
func NewService(cfg Config, persist Persistence, results Recorder, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		in:      make(map[string]*Session),
		cfg:     cfg,
		persist: persist,
		results: results,
		log:     log,
	}
}

func (s *Service) Create(ctx context.Context) (*Session, error) {
	seed := s.cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	id := uuid.NewString()
	sess := newSession(id, solver.NewGame(s.cfg.Universe, solver.WithSeed(seed)), time.Now())
	s.hook(sess)

	sess.mu.Lock()
	snap := sess.snapshotLocked()
	sess.mu.Unlock()
	if err := s.persist.Save(ctx, id, snap); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.in[id] = sess
	s.mu.Unlock()

	s.log.Info("session created", "session", id, "seed", seed)
	return sess, nil
}

func (s *Service) GetOrLoad(ctx context.Context, sessionID string) (*Session, bool, error) {
	s.mu.Lock()
	sess, ok := s.in[sessionID]
	s.mu.Unlock()
	if ok {
		return sess, true, nil
	}

	snap, found, err := s.persist.Load(ctx, sessionID)
	if err != nil || !found {
		return nil, false, err
	}

	sess, err = restore(s.cfg.Universe, snap)
	if err != nil {
		return nil, false, err
	}
	s.hook(sess)

	s.mu.Lock()
	// another request may have restored it meanwhile
	if cur, ok := s.in[sessionID]; ok {
		sess = cur
	} else {
		s.in[sessionID] = sess
	}
	s.mu.Unlock()

	s.log.Debug("session restored", "session", sessionID, "turns", len(snap.History))
	return sess, true, nil
}

func (s *Service) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	sess, ok := s.in[sessionID]
	delete(s.in, sessionID)
	s.mu.Unlock()

	if ok {
		sess.mu.Lock()
		if sess.conn != nil {
			sess.conn.Close()
			sess.conn = nil
		}
		sess.onPersist = nil
		sess.mu.Unlock()
	}
	return s.persist.Delete(ctx, sessionID)
}

// hook: every change of the session is saved as a snapshot.
func (s *Service) hook(sess *Session) {
	id := sess.id
	sess.onPersist = func(snap Snapshot) {
		ctx, cancel := context.WithTimeout(context.Background(), hookTimeout)
		defer cancel()
		if err := s.persist.Save(ctx, id, snap); err != nil {
			s.log.Error("save session snapshot", "session", id, "err", err)
		}
	}
	sess.onFinish = func(r store.Result) {
		s.log.Info("session finished", "session", id, "correct", r.Correct, "steps", r.Steps, "solved", r.Solved)
		if s.results == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), hookTimeout)
		defer cancel()
		err := s.results.Record(ctx, r)
		if err != nil && !errors.Is(err, store.ErrResultExists) {
			s.log.Error("record session result", "session", id, "err", err)
		}
	}
}
