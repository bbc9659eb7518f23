package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/matchday/scorekeeper/internal/config"
	"github.com/matchday/scorekeeper/internal/infrastructure/account/authsvc"
	"github.com/matchday/scorekeeper/internal/infrastructure/repository"
	"github.com/matchday/scorekeeper/internal/infrastructure/store"
	"github.com/matchday/scorekeeper/internal/infrastructure/store/local"
	"github.com/matchday/scorekeeper/internal/infrastructure/store/realtime"
	"github.com/matchday/scorekeeper/internal/interfaces/httpapi"
	"github.com/matchday/scorekeeper/internal/platform/id"
	"github.com/matchday/scorekeeper/internal/platform/logging"
	"github.com/matchday/scorekeeper/internal/platform/resilience"
	"github.com/matchday/scorekeeper/internal/syncer"
	"github.com/matchday/scorekeeper/internal/usecase"
)

// App owns the wired service graph and the background pieces that need an
// orderly shutdown: the HTTP server, the sync sweeper, the realtime
// connection and the local database handle.
type App struct {
	Server *http.Server

	logger      *logging.Logger
	db          *sqlx.DB
	realtime    *realtime.Backend
	sweeper     *syncer.Sweeper
	sweepCancel context.CancelFunc
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	db, err := local.Open(ctx, cfg.LocalDBURL)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	if err := local.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure local schema: %w", err)
	}
	localBackend := local.NewBackend(db)

	var (
		remoteBackend store.Backend
		rt            *realtime.Backend
	)
	if cfg.RealtimeEnabled {
		rt, err = realtime.Open(ctx, cfg.RealtimeRedisURL, logger)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("open realtime store: %w", err)
		}
		remoteBackend = rt
	} else {
		logger.Info("realtime store disabled", "reason", "REALTIME_ENABLED=false")
	}

	localRepos := repository.New(localBackend, logger)

	var (
		remoteRepos *repository.Collections
		sync        *syncer.Syncer
		sweeper     *syncer.Sweeper
	)
	if remoteBackend != nil {
		remoteRepos = repository.New(remoteBackend, logger)
		sync = syncer.New(localBackend, remoteBackend, logger)
		sweeper, err = syncer.NewSweeper(sync, syncer.SweeperConfig{
			Interval:   cfg.SweepInterval,
			StaleAfter: cfg.SweepStaleAfter,
			MaxRetries: cfg.SweepMaxRetries,
			Workers:    cfg.SweepWorkers,
		}, logger)
		if err != nil {
			_ = rt.Close()
			_ = db.Close()
			return nil, fmt.Errorf("create sync sweeper: %w", err)
		}
	}

	writer := usecase.NewDocWriter(localBackend, sync)
	ids := id.NewPushKeyGenerator()

	hosting := usecase.NewHostingService(localRepos, remoteRepos, writer, ids, logger)
	sessions := usecase.NewScoringSessionService(localRepos, writer, hosting, ids, logger)
	tournaments := usecase.NewTournamentService(localRepos, writer, hosting, ids, logger)
	statistics := usecase.NewStatisticsService(localRepos, writer, logger)
	sessions.AddResultObserver(tournaments, statistics)

	verifier := authsvc.NewClient(
		&http.Client{Timeout: cfg.AuthTimeout},
		cfg.AuthBaseURL,
		cfg.AuthIntrospectPath,
		cfg.AuthAdminKey,
		resilience.CircuitBreakerConfig{
			Enabled:          cfg.AuthCircuitEnabled,
			FailureThreshold: cfg.AuthCircuitFailureCount,
			OpenTimeout:      cfg.AuthCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.AuthCircuitHalfOpenMaxReq,
		},
		logger,
	)

	handler := httpapi.NewHandler(hosting, sessions, tournaments, statistics, logger)
	router := httpapi.NewRouter(handler, verifier, logger, cfg.SwaggerEnabled, cfg.CORSAllowedOrigins)

	if cfg.HTTPAddr == "" {
		if rt != nil {
			_ = rt.Close()
		}
		_ = db.Close()
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &App{
		Server:   server,
		logger:   logger,
		db:       db,
		realtime: rt,
		sweeper:  sweeper,
	}, nil
}

// Start launches background workers. The HTTP server itself is started by
// the caller so it can own ListenAndServe error handling.
func (a *App) Start(ctx context.Context) {
	if a.sweeper == nil {
		return
	}
	sweepCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.sweepCancel = cancel
	go a.sweeper.Run(sweepCtx)
}

// Close stops background workers and releases store connections. It does
// not shut down the HTTP server; callers drain that first.
func (a *App) Close() error {
	if a.sweepCancel != nil {
		a.sweepCancel()
	}

	var firstErr error
	if a.realtime != nil {
		if err := a.realtime.Close(); err != nil {
			firstErr = err
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
