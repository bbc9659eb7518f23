// Package syncer keeps the offline and online stores converging. Host
// mutations fan out to both backends in parallel; the cross-store leg is
// audited in the sync ledger and retried by the sweeper, so a flaky network
// never blocks local scoring.
package syncer

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sourcegraph/conc"

	"github.com/matchday/scorekeeper/internal/domain/synclog"
	"github.com/matchday/scorekeeper/internal/infrastructure/repository"
	"github.com/matchday/scorekeeper/internal/infrastructure/store"
	"github.com/matchday/scorekeeper/internal/platform/logging"
	"github.com/matchday/scorekeeper/internal/platform/resilience"
)

var ErrRetryBudgetSpent = errors.New("sync retry budget spent")

// Syncer dispatches document writes to the local store and, through a
// circuit breaker, to the realtime store. The ledger lives on the local
// store: it must survive offline restarts, and it is what the sweeper scans.
type Syncer struct {
	local   store.Backend
	remote  store.Backend
	logs    *store.Collection[synclog.Log]
	breaker *resilience.CircuitBreaker
	logger  *logging.Logger
	now     func() time.Time
}

func New(local, remote store.Backend, logger *logging.Logger) *Syncer {
	if logger == nil {
		logger = logging.Default()
	}
	cfg := resilience.DefaultCircuitBreakerConfig()
	return &Syncer{
		local:   local,
		remote:  remote,
		logs:    repository.SyncLogs(local, logger),
		breaker: resilience.NewCircuitBreaker(cfg.FailureThreshold, cfg.OpenTimeout, cfg.HalfOpenMaxReq),
		logger:  logger,
		now:     time.Now,
	}
}

// Logs exposes the ledger collection, e.g. for the sweeper and for tests.
func (s *Syncer) Logs() *store.Collection[synclog.Log] {
	return s.logs
}

// Put writes one document to both stores. The local write is the
// authoritative one: its failure is returned. The remote write is recorded
// in the ledger as SYNCED or FAILED and never fails the call.
func (s *Syncer) Put(ctx context.Context, collection, id string, data []byte) error {
	log, err := s.openLog(ctx, collection, id)
	if err != nil {
		return err
	}

	var localErr, remoteErr error
	var wg conc.WaitGroup
	wg.Go(func() {
		localErr = s.local.Put(ctx, collection, id, data)
	})
	wg.Go(func() {
		remoteErr = s.putRemote(ctx, collection, id, data)
	})
	wg.Wait()

	s.settleLog(ctx, log, remoteErr)

	if localErr != nil {
		return errors.Wrapf(localErr, "local write %s/%s", collection, id)
	}
	return nil
}

// Delete removes a document from both stores with the same bookkeeping as
// Put.
func (s *Syncer) Delete(ctx context.Context, collection, id string) error {
	log, err := s.openLog(ctx, collection, id)
	if err != nil {
		return err
	}

	var localErr, remoteErr error
	var wg conc.WaitGroup
	wg.Go(func() {
		localErr = s.local.Delete(ctx, collection, id)
	})
	wg.Go(func() {
		if remoteErr = s.breaker.Allow(); remoteErr != nil {
			return
		}
		remoteErr = s.remote.Delete(ctx, collection, id)
		s.record(remoteErr)
	})
	wg.Wait()

	s.settleLog(ctx, log, remoteErr)

	if localErr != nil {
		return errors.Wrapf(localErr, "local delete %s/%s", collection, id)
	}
	return nil
}

// Retry re-dispatches one ledger row: bump the retry counter atomically,
// re-read the document from the local store, and push it to the remote
// store again.
func (s *Syncer) Retry(ctx context.Context, log synclog.Log, maxRetries int) error {
	retries, err := s.logs.Increment(ctx, log.ID, "retryCount", 1)
	if err != nil {
		return errors.Wrapf(err, "bump retry count for %s", log.ID)
	}
	if maxRetries > 0 && retries > int64(maxRetries) {
		return errors.Wrapf(ErrRetryBudgetSpent, "sync %s after %d retries", log.ID, retries-1)
	}

	data, ok, err := s.local.Get(ctx, log.EntityType, log.EntityID)
	if err != nil {
		return errors.Wrapf(err, "re-read %s/%s", log.EntityType, log.EntityID)
	}

	var remoteErr error
	if ok {
		remoteErr = s.putRemote(ctx, log.EntityType, log.EntityID, data)
	} else {
		// the entity was deleted locally after the failed sync
		if remoteErr = s.breaker.Allow(); remoteErr == nil {
			remoteErr = s.remote.Delete(ctx, log.EntityType, log.EntityID)
			s.record(remoteErr)
		}
	}

	s.settleLog(ctx, log, remoteErr)
	if remoteErr != nil {
		return errors.Wrapf(remoteErr, "retry sync %s", log.ID)
	}
	return nil
}

func (s *Syncer) putRemote(ctx context.Context, collection, id string, data []byte) error {
	if err := s.breaker.Allow(); err != nil {
		return err
	}
	err := s.remote.Put(ctx, collection, id, data)
	s.record(err)
	return err
}

func (s *Syncer) record(err error) {
	if err != nil {
		s.breaker.RecordFailure()
		return
	}
	s.breaker.RecordSuccess()
}

// openLog appends the PENDING ledger row before the fan-out so a crash
// between dispatch and settlement still leaves a row for the sweeper.
func (s *Syncer) openLog(ctx context.Context, collection, id string) (synclog.Log, error) {
	log, err := s.logs.Add(ctx, synclog.Log{
		EntityID:     id,
		EntityType:   collection,
		Direction:    synclog.DirectionUp,
		Status:       synclog.StatusPending,
		DispatchedAt: s.now().UTC(),
	})
	if err != nil {
		return synclog.Log{}, errors.Wrapf(err, "open sync log for %s/%s", collection, id)
	}
	return log, nil
}

// settleLog moves the row to its per-attempt terminal status. Ledger update
// failures are logged, not surfaced: the ledger is bookkeeping.
func (s *Syncer) settleLog(ctx context.Context, log synclog.Log, remoteErr error) {
	current, ok, err := s.logs.Get(ctx, log.ID)
	if err != nil || !ok {
		current = log
	}

	if remoteErr == nil {
		current.Status = synclog.StatusSynced
		current.ErrorReason = ""
		current.SyncedAt = s.now().UTC()
	} else {
		current.Status = synclog.StatusFailed
		current.ErrorReason = remoteErr.Error()
		current.FailedAt = s.now().UTC()
	}

	if err := s.logs.Update(ctx, current); err != nil {
		s.logger.WarnContext(ctx, "sync ledger update failed",
			"syncId", log.ID, "entityType", log.EntityType, "entityId", log.EntityID, "error", err)
	}
}
