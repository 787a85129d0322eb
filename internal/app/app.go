package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"example.com/bc-solver/internal/auth"
	"example.com/bc-solver/internal/config"
	"example.com/bc-solver/internal/httpapi"
	"example.com/bc-solver/internal/session"
	"example.com/bc-solver/internal/solver"
	"example.com/bc-solver/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg config.Config
	log *slog.Logger

	db  *pgxpool.Pool
	rdb *redis.Client

	srv *http.Server
}

type Options struct {
	Static http.Handler // optional; if nil, no frontend is served
}

func New(ctx context.Context, cfg config.Config, log *slog.Logger, opts Options) (*App, error) {
	if log == nil {
		log = slog.Default()
	}

	universe, err := solver.NewUniverse(
		solver.WithAlphabet(cfg.Solver.Alphabet),
		solver.WithLeadingZero(cfg.Solver.LeadingZero),
	)
	if err != nil {
		return nil, fmt.Errorf("solver universe: %w", err)
	}

	// --- Postgres ---
	dbpool, err := pgxpool.New(ctx, cfg.Postgres.URL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := dbpool.Ping(pingCtx); err != nil {
		dbpool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	// --- Session persistence ---
	var (
		rdb     *redis.Client
		persist session.Persistence
	)
	switch cfg.Sessions.Store {
	case "redis":
		rdb = redis.NewClient(&redis.Options{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
		})
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			dbpool.Close()
			_ = rdb.Close()
			return nil, fmt.Errorf("redis ping (%s db=%d): %w", cfg.Redis.Addr, cfg.Redis.DB, err)
		}
		persist = session.NewRedisStore(rdb, cfg.Redis.SessionTTL)
	default:
		log.Warn("sessions are kept in memory and will not survive a restart")
		persist = session.NewMemoryStore()
	}

	authSvc := auth.NewService([]byte(cfg.Auth.Secret))
	results := store.NewResultStore(dbpool)

	sessions := session.NewService(session.Config{
		Universe: universe,
		Seed:     cfg.Solver.Seed,
	}, persist, results, log)
	sessionSrv := session.NewServer(sessions, authSvc, cfg.Auth.TokenTTL, log)

	statsH := &httpapi.StatsHandler{Results: results, Log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	sessionSrv.RegisterRoutes(mux)
	mux.HandleFunc("/api/stats", statsH.Get)

	if opts.Static != nil {
		mux.Handle("/", opts.Static)
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	log.Info("solver ready",
		"universe", universe.Len(),
		"alphabet", universe.Alphabet(),
		"session_store", cfg.Sessions.Store,
	)

	return &App{cfg: cfg, log: log, db: dbpool, rdb: rdb, srv: srv}, nil
}

func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	a.log.Info("http server starting", "addr", a.cfg.HTTP.Addr)

	g.Go(func() error {
		err := a.srv.ListenAndServe()
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		a.log.Info("http server shutting down")
		_ = a.srv.Shutdown(shutdownCtx)
		return nil
	})

	err := g.Wait()
	_ = a.Close(context.Background())
	return err
}

func (a *App) Close(ctx context.Context) error {
	if a.db != nil {
		a.db.Close()
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	return nil
}
