package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"

	"example.com/bc-solver/internal/solver"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/sync/errgroup"
)

type selfTestOptions struct {
	Seed    uint64
	Workers int
	Limit   int
	Verbose bool
	Out     io.Writer
	Log     *slog.Logger
}

type report struct {
	Games int
	Worst int
	// WorstSecret is the first secret (in universe order) needing Worst steps.
	WorstSecret solver.Number
	TotalSteps  int
	Steps       map[int]int
}

func (r report) Mean() float64 {
	if r.Games == 0 {
		return 0
	}
	return float64(r.TotalSteps) / float64(r.Games)
}

// selfTest solves every number of u with scorer-driven answers. Each game
// gets its own generator seeded with o.Seed, so results do not depend on
// scheduling.
func selfTest(ctx context.Context, u *solver.Universe, o selfTestOptions) (report, error) {
	secrets := u.Numbers()
	if o.Limit > 0 && o.Limit < len(secrets) {
		secrets = secrets[:o.Limit]
	}
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.Out == nil {
		o.Out = os.Stdout
	}
	if o.Log == nil {
		o.Log = slog.Default()
	}
	o.Log.Info("self-test started", "games", len(secrets), "workers", o.Workers, "seed", o.Seed)

	steps := make([]int, len(secrets))
	var outMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.Workers)
	for i, secret := range secrets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			game, err := solver.Play(u, secret, solver.WithSeed(o.Seed))
			if err != nil {
				return err
			}
			got, ok := game.SolvedValue()
			if !ok {
				return fmt.Errorf("secret %s: solver ended without an answer", secret)
			}
			if got != secret {
				return fmt.Errorf("secret %s: solver answered %s", secret, got)
			}
			steps[i] = game.StepCount()
			o.Log.Debug("game solved", "secret", secret.String(), "steps", steps[i])

			if o.Verbose {
				outMu.Lock()
				fmt.Fprintf(o.Out, "%s: %s\n", secret, describe(game.History()))
				outMu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report{}, err
	}

	rep := report{Games: len(secrets), Steps: map[int]int{}}
	for i, n := range steps {
		rep.TotalSteps += n
		rep.Steps[n]++
		if n > rep.Worst {
			rep.Worst = n
			rep.WorstSecret = secrets[i]
		}
	}
	o.Log.Info("self-test finished", "games", rep.Games, "worst", rep.Worst, "mean", rep.Mean())
	return rep, nil
}

func describe(h solver.History) string {
	parts := make([]string, len(h))
	for i, t := range h {
		parts[i] = fmt.Sprintf("%s=%s", t.Probe, t.Feedback)
	}
	return strings.Join(parts, " ")
}

func (r report) Print(out io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetTitle("Steps to solve")
	t.AppendHeader(table.Row{"Steps", "Games", "Share"})

	keys := make([]int, 0, len(r.Steps))
	for k := range r.Steps {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		n := r.Steps[k]
		t.AppendRow(table.Row{k, n, fmt.Sprintf("%.2f%%", 100*float64(n)/float64(r.Games))})
	}
	t.AppendFooter(table.Row{"total", r.Games, ""})

	t.SetStyle(table.StyleRounded)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	t.Render()

	fmt.Fprintf(out, "worst: %d steps (%s)\n", r.Worst, r.WorstSecret)
	fmt.Fprintf(out, "mean:  %.3f steps\n", r.Mean())
}
