package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrResultExists = errors.New("result already recorded")

// Result is the outcome of one finished solving session.
type Result struct {
	SessionID  string
	Solved     string // empty when the history was contradictory
	Correct    bool
	Steps      int
	Probes     []string
	Seed       uint64
	FinishedAt time.Time
}

// Summary aggregates all recorded results.
type Summary struct {
	Games      int     `json:"games"`
	Correct    int     `json:"correct"`
	AvgSteps   float64 `json:"avgSteps"`
	WorstSteps int     `json:"worstSteps"`
	// Steps maps a step count to how many correct games needed it.
	Steps map[int]int `json:"steps"`
}

type ResultStore struct {
	db *pgxpool.Pool
}

func NewResultStore(db *pgxpool.Pool) *ResultStore {
	return &ResultStore{db: db}
}

func (s *ResultStore) Record(ctx context.Context, r Result) error {
	var solved *string
	if r.Solved != "" {
		solved = &r.Solved
	}
	if r.FinishedAt.IsZero() {
		r.FinishedAt = time.Now()
	}
	if r.Probes == nil {
		r.Probes = []string{}
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO solver_results (session_id, solved, correct, steps, probes, seed, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, r.SessionID, solved, r.Correct, r.Steps, r.Probes, int64(r.Seed), r.FinishedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrResultExists
	}
	return err
}

func (s *ResultStore) Get(ctx context.Context, sessionID string) (Result, bool, error) {
	var (
		r      Result
		solved *string
		seed   int64
	)
	err := s.db.QueryRow(ctx, `
		SELECT session_id, solved, correct, steps, probes, seed, finished_at
		FROM solver_results
		WHERE session_id=$1
	`, sessionID).Scan(&r.SessionID, &solved, &r.Correct, &r.Steps, &r.Probes, &seed, &r.FinishedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return Result{}, false, nil
	}
	if err != nil {
		return Result{}, false, err
	}
	if solved != nil {
		r.Solved = *solved
	}
	r.Seed = uint64(seed)
	return r, true, nil
}

func (s *ResultStore) Summary(ctx context.Context) (Summary, error) {
	sum := Summary{Steps: map[int]int{}}

	err := s.db.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE correct),
		       coalesce(avg(steps) FILTER (WHERE correct), 0),
		       coalesce(max(steps) FILTER (WHERE correct), 0)
		FROM solver_results
	`).Scan(&sum.Games, &sum.Correct, &sum.AvgSteps, &sum.WorstSteps)
	if err != nil {
		return Summary{}, fmt.Errorf("summary totals: %w", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT steps, count(*)
		FROM solver_results
		WHERE correct
		GROUP BY steps
	`)
	if err != nil {
		return Summary{}, fmt.Errorf("summary steps: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var steps, n int
		if err := rows.Scan(&steps, &n); err != nil {
			return Summary{}, err
		}
		sum.Steps[steps] = n
	}
	return sum, rows.Err()
}
