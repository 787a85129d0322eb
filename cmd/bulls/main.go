package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"

	"example.com/bc-solver/internal/solver"
)

const usage = `usage: bulls <command> [flags]

commands:
  play      you think of a number, the solver guesses it
  selftest  solve every number of the universe and report step counts
  score     print the bulls and cows of <secret> against <probe>
`

var errUsage = errors.New("bad usage")

// logLevel is raised to debug by selftest -v.
var logLevel = new(slog.LevelVar)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		log.Error("bulls failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, args := args[0], args[1:]

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(out)
	seed := fs.Uint64("seed", solver.DefaultSeed, "random seed of the probe sampler")
	alphabet := fs.String("alphabet", "0123456789", "symbols a number is made of")
	leadingZero := fs.Bool("leading-zero", true, "allow numbers to start with 0")

	var (
		workers *int
		limit   *int
		verbose *bool
	)
	if cmd == "selftest" {
		workers = fs.Int("workers", runtime.GOMAXPROCS(0), "games solved in parallel")
		limit = fs.Int("limit", 0, "solve only the first N numbers (0 = all)")
		verbose = fs.Bool("v", false, "print every game")
	}

	switch cmd {
	case "play", "selftest", "score":
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if verbose != nil && *verbose {
		logLevel.Set(slog.LevelDebug)
	}

	u, err := solver.NewUniverse(solver.WithAlphabet(*alphabet), solver.WithLeadingZero(*leadingZero))
	if err != nil {
		return err
	}

	switch cmd {
	case "play":
		return play(in, out, u, *seed)
	case "selftest":
		rep, err := selfTest(ctx, u, selfTestOptions{
			Seed:    *seed,
			Workers: *workers,
			Limit:   *limit,
			Verbose: *verbose,
			Out:     out,
			Log:     slog.Default(),
		})
		if err != nil {
			return err
		}
		rep.Print(out)
		return nil
	default:
		return score(out, u, fs.Args())
	}
}

func score(out io.Writer, u *solver.Universe, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: score needs <secret> <probe>", errUsage)
	}
	secret, err := u.Parse(args[0])
	if err != nil {
		return fmt.Errorf("secret: %w", err)
	}
	probe, err := u.Parse(args[1])
	if err != nil {
		return fmt.Errorf("probe: %w", err)
	}
	fb := solver.Score(secret, probe)
	fmt.Fprintf(out, "%d %d\n", fb.Bulls, fb.Cows)
	return nil
}
