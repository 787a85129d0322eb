package session

import (
	"fmt"
	"time"

	"example.com/bc-solver/internal/solver"
)

// Snapshot is the serialisable state of a session. The pool and the random
// source are not stored: they are rebuilt by replaying History with Seed.
type Snapshot struct {
	SessionID string `json:"sessionId"`
	Seed      uint64 `json:"seed"`

	History solver.History `json:"history"`
	Pending bool           `json:"pending"` // a probe was issued and awaits feedback

	Recorded    bool  `json:"recorded"`
	CreatedAtMs int64 `json:"createdAtMs"`
}

func (s *Session) snapshotLocked() Snapshot {
	_, pending := s.game.Pending()
	return Snapshot{
		SessionID:   s.id,
		Seed:        s.game.Seed(),
		History:     s.game.History(),
		Pending:     pending,
		Recorded:    s.recorded,
		CreatedAtMs: s.createdAt.UnixMilli(),
	}
}

func restore(u *solver.Universe, snap Snapshot) (*Session, error) {
	g, err := solver.Replay(u, snap.Seed, snap.History, snap.Pending)
	if err != nil {
		return nil, fmt.Errorf("restore session %s: %w", snap.SessionID, err)
	}
	s := newSession(snap.SessionID, g, time.UnixMilli(snap.CreatedAtMs))
	s.recorded = snap.Recorded
	return s, nil
}
