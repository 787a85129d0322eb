package solver

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// DefaultSeed keeps games reproducible unless the caller chooses a seed.
const DefaultSeed uint64 = 42

var (
	ErrGameFinished    = errors.New("game already finished")
	ErrNoPendingProbe  = errors.New("no probe is waiting for feedback")
	ErrInvalidFeedback = errors.New("feedback must be two non-negative numbers summing to at most 4")
	ErrReplayMismatch  = errors.New("replayed probe differs from recorded one")
)

type GameOption func(*Game)

// WithSeed seeds the game's private random source.
func WithSeed(seed uint64) GameOption {
	return func(g *Game) {
		g.seed = seed
		g.rng = nil
	}
}

// WithRand makes the game draw samples from r. The caller owns r and must not
// share it with a concurrently running game. Seed is left untouched, so such
// a game cannot be rebuilt with Replay.
func WithRand(r *rand.Rand) GameOption {
	return func(g *Game) { g.rng = r }
}

// Game is one solving session. It is not safe for concurrent use.
type Game struct {
	universe *Universe
	seed     uint64
	rng      *rand.Rand

	history History
	pool    []Number
	round   int

	last    Number
	pending bool

	// possible caches CountPossible(history, universe) for len(history) == possibleAt.
	possible   int
	possibleAt int
}

func NewGame(u *Universe, opts ...GameOption) *Game {
	g := &Game{
		universe:   u,
		seed:       DefaultSeed,
		pool:       u.Numbers(),
		possibleAt: -1,
	}
	for _, o := range opts {
		o(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewPCG(g.seed, g.seed))
	}
	return g
}

func (g *Game) countPossible() int {
	if g.possibleAt != len(g.history) {
		g.possible = CountPossible(g.history, g.universe.numbers)
		g.possibleAt = len(g.history)
	}
	return g.possible
}

// IsFinished reports whether at most one number still fits the history.
func (g *Game) IsFinished() bool {
	return g.countPossible() <= 1
}

// RequestProbe returns the next question. While a probe awaits feedback the
// same probe is returned again.
func (g *Game) RequestProbe() (Number, error) {
	if g.IsFinished() {
		return Number{}, ErrGameFinished
	}
	if g.pending {
		return g.last, nil
	}
	g.round++
	g.last = selectProbe(g.rng, g.round, g.history, &g.pool)
	g.pending = true
	return g.last, nil
}

// SubmitFeedback records the answer to the pending probe.
func (g *Game) SubmitFeedback(bulls, cows int) error {
	fb := Feedback{Bulls: bulls, Cows: cows}
	if !fb.Valid() {
		return fmt.Errorf("%w: got %d %d", ErrInvalidFeedback, bulls, cows)
	}
	if !g.pending {
		return ErrNoPendingProbe
	}
	g.history = append(g.history, Turn{Probe: g.last, Feedback: fb})
	g.pending = false
	return nil
}

// StepCount is the number of questions asked. A game that ended by
// elimination rather than on a solving answer counts one more question,
// the one that would confirm the remaining number.
func (g *Game) StepCount() int {
	if !g.IsFinished() || len(g.history) == 0 {
		return g.round
	}
	if g.history[len(g.history)-1].Feedback.Solved() {
		return g.round
	}
	return g.round + 1
}

// IsCorrect is false when no number fits the history, typically because an
// answer was misreported.
func (g *Game) IsCorrect() bool {
	return g.countPossible() == 1
}

// SolvedValue returns the secret once the game is finished and correct.
func (g *Game) SolvedValue() (Number, bool) {
	if !g.IsFinished() || !g.IsCorrect() {
		return Number{}, false
	}
	return FindUniquePossible(g.history, g.universe)
}

func (g *Game) History() History { return append(History(nil), g.history...) }

func (g *Game) Round() int { return g.round }

// Seed is the seed of the game's random source. It identifies the probe
// sequence only for games built with the default seed or WithSeed; Replay
// of a WithRand game from Seed fails with ErrReplayMismatch.
func (g *Game) Seed() uint64 { return g.seed }

// PoolSize is the size of the working pool. It lags one turn behind the
// history until the next probe is requested.
func (g *Game) PoolSize() int { return len(g.pool) }

// Possible is the number of candidates that fit the whole history.
func (g *Game) Possible() int { return g.countPossible() }

func (g *Game) Pending() (Number, bool) { return g.last, g.pending }

func (g *Game) Universe() *Universe { return g.universe }

// Replay rebuilds a game from its seed and recorded turns. Probes are
// recomputed, so the result is only valid for the same universe and seed.
func Replay(u *Universe, seed uint64, turns History, pending bool) (*Game, error) {
	g := NewGame(u, WithSeed(seed))
	for i, t := range turns {
		probe, err := g.RequestProbe()
		if err != nil {
			return nil, fmt.Errorf("replay turn %d: %w", i+1, err)
		}
		if probe != t.Probe {
			return nil, fmt.Errorf("%w: turn %d recorded %s, got %s", ErrReplayMismatch, i+1, t.Probe, probe)
		}
		if err := g.SubmitFeedback(t.Feedback.Bulls, t.Feedback.Cows); err != nil {
			return nil, fmt.Errorf("replay turn %d: %w", i+1, err)
		}
	}
	if pending {
		if _, err := g.RequestProbe(); err != nil {
			return nil, fmt.Errorf("replay pending probe: %w", err)
		}
	}
	return g, nil
}
