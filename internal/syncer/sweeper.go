package syncer

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"

	"github.com/matchday/scorekeeper/internal/domain/synclog"
	"github.com/matchday/scorekeeper/internal/infrastructure/store"
	"github.com/matchday/scorekeeper/internal/platform/logging"
)

// SweeperConfig tunes the background retry loop.
type SweeperConfig struct {
	Interval   time.Duration
	StaleAfter time.Duration
	MaxRetries int
	Workers    int
}

func DefaultSweeperConfig() SweeperConfig {
	return SweeperConfig{
		Interval:   30 * time.Second,
		StaleAfter: time.Minute,
		MaxRetries: 8,
		Workers:    4,
	}
}

// Sweeper periodically re-dispatches stale PENDING and FAILED ledger rows
// on a worker pool. PENDING rows qualify too: a crash between dispatch and
// settlement leaves them behind.
type Sweeper struct {
	syncer *Syncer
	cfg    SweeperConfig
	pool   *ants.Pool
	logger *logging.Logger
	now    func() time.Time
}

func NewSweeper(s *Syncer, cfg SweeperConfig, logger *logging.Logger) (*Sweeper, error) {
	defaults := DefaultSweeperConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = defaults.Interval
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = defaults.StaleAfter
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaults.MaxRetries
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaults.Workers
	}
	if logger == nil {
		logger = logging.Default()
	}

	pool, err := ants.NewPool(cfg.Workers)
	if err != nil {
		return nil, errors.Wrap(err, "create sweeper pool")
	}

	return &Sweeper{syncer: s, cfg: cfg, pool: pool, logger: logger, now: time.Now}, nil
}

// Run sweeps until ctx ends. Ticks are jittered so several hosts pointed at
// one realtime store do not retry in lockstep.
func (w *Sweeper) Run(ctx context.Context) {
	defer w.pool.Release()

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.jitteredInterval()):
		}

		retried, err := w.SweepOnce(ctx)
		if err != nil {
			w.logger.WarnContext(ctx, "sync sweep failed", "error", err)
			continue
		}
		if retried > 0 {
			w.logger.InfoContext(ctx, "sync sweep retried entries", "count", retried)
		}
	}
}

func (w *Sweeper) jitteredInterval() time.Duration {
	jitter := time.Duration(rand.Int63n(int64(w.cfg.Interval) / 4))
	return w.cfg.Interval + jitter
}

// SweepOnce retries every qualifying ledger row once and reports how many
// were dispatched.
func (w *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	stale, err := w.staleRows(ctx)
	if err != nil {
		return 0, err
	}

	var wg sync.WaitGroup
	for _, row := range stale {
		row := row
		wg.Add(1)
		if err := w.pool.Submit(func() {
			defer wg.Done()
			if err := w.syncer.Retry(ctx, row, w.cfg.MaxRetries); err != nil {
				level := w.logger.WarnContext
				if errors.Is(err, ErrRetryBudgetSpent) {
					level = w.logger.ErrorContext
				}
				level(ctx, "sync retry failed",
					"syncId", row.ID, "entityType", row.EntityType, "entityId", row.EntityID,
					"retryCount", row.RetryCount, "error", err)
			}
		}); err != nil {
			wg.Done()
			wg.Wait()
			return 0, errors.Wrap(err, "submit retry to pool")
		}
	}
	wg.Wait()

	return len(stale), nil
}

func (w *Sweeper) staleRows(ctx context.Context) ([]synclog.Log, error) {
	cutoff := w.now().Add(-w.cfg.StaleAfter)

	var out []synclog.Log
	for _, status := range []synclog.Status{synclog.StatusFailed, synclog.StatusPending} {
		rows, err := w.syncer.Logs().List(ctx,
			store.NewQuery().Eq("syncStatus", status).OrderBy("dispatchedAt"))
		if err != nil {
			return nil, errors.Wrapf(err, "list %s sync logs", status)
		}
		for _, row := range rows {
			if row.RetryCount >= w.cfg.MaxRetries {
				continue
			}
			if row.DispatchedAt.After(cutoff) {
				continue
			}
			out = append(out, row)
		}
	}
	return out, nil
}
