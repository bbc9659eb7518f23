package syncer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/matchday/scorekeeper/internal/domain/synclog"
	"github.com/matchday/scorekeeper/internal/infrastructure/store"
	"github.com/matchday/scorekeeper/internal/infrastructure/store/memory"
	"github.com/matchday/scorekeeper/internal/platform/logging"
)

// flakyBackend fails a configured number of Puts before behaving.
type flakyBackend struct {
	store.Backend
	mu       sync.Mutex
	failPuts int
	puts     int
}

func (f *flakyBackend) Put(ctx context.Context, collection, id string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.failPuts > 0 {
		f.failPuts--
		return errors.Mark(errors.New("connection reset"), store.ErrTransientStore)
	}
	return f.Backend.Put(ctx, collection, id, data)
}

func newTestSyncer(remoteFailures int) (*Syncer, *memory.Backend, *flakyBackend) {
	local := memory.NewBackend()
	remote := &flakyBackend{Backend: memory.NewBackend(), failPuts: remoteFailures}
	s := New(local, remote, logging.NewNop())
	return s, local, remote
}

func soleLog(t *testing.T, s *Syncer) synclog.Log {
	t.Helper()
	rows, err := s.Logs().List(context.Background(), store.NewQuery())
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one ledger row, got %d", len(rows))
	}
	return rows[0]
}

func TestPut_WritesBothStoresAndMarksSynced(t *testing.T) {
	t.Parallel()

	s, local, remote := newTestSyncer(0)
	ctx := context.Background()

	if err := s.Put(ctx, "matches", "m1", []byte(`{"entityId":"m1"}`)); err != nil {
		t.Fatalf("put: %v", err)
	}

	for name, backend := range map[string]store.Backend{"local": local, "remote": remote} {
		_, ok, err := backend.Get(ctx, "matches", "m1")
		if err != nil || !ok {
			t.Fatalf("%s store missing document: ok=%v err=%v", name, ok, err)
		}
	}

	row := soleLog(t, s)
	if row.Status != synclog.StatusSynced {
		t.Fatalf("ledger status: got %s want SYNCED", row.Status)
	}
	if row.EntityID != "m1" || row.EntityType != "matches" || row.Direction != synclog.DirectionUp {
		t.Fatalf("ledger row: %+v", row)
	}
	if row.SyncedAt.IsZero() {
		t.Fatal("syncedAt not stamped")
	}
}

func TestPut_RemoteFailureIsBookkeepingOnly(t *testing.T) {
	t.Parallel()

	s, local, remote := newTestSyncer(1)
	ctx := context.Background()

	if err := s.Put(ctx, "balls", "b1", []byte(`{"ballId":"b1"}`)); err != nil {
		t.Fatalf("remote failure must not fail the put: %v", err)
	}

	if _, ok, _ := local.Get(ctx, "balls", "b1"); !ok {
		t.Fatal("local write missing")
	}
	if _, ok, _ := remote.Backend.Get(ctx, "balls", "b1"); ok {
		t.Fatal("remote write unexpectedly present")
	}

	row := soleLog(t, s)
	if row.Status != synclog.StatusFailed {
		t.Fatalf("ledger status: got %s want FAILED", row.Status)
	}
	if row.ErrorReason == "" {
		t.Fatal("failure reason not recorded")
	}
	if row.FailedAt.IsZero() {
		t.Fatal("failedAt not stamped")
	}
}

func TestPut_LocalFailureIsReturned(t *testing.T) {
	t.Parallel()

	flakyLocal := &flakyBackend{Backend: memory.NewBackend(), failPuts: 10}
	s := New(flakyLocal, memory.NewBackend(), logging.NewNop())

	// the ledger also lives on the failing local store, so opening the
	// PENDING row itself fails and the write is rejected up front
	err := s.Put(context.Background(), "matches", "m1", []byte(`{}`))
	if err == nil {
		t.Fatal("expected local failure to surface")
	}
}

func TestRetry_ResyncsFromLocalTruth(t *testing.T) {
	t.Parallel()

	s, _, remote := newTestSyncer(1)
	ctx := context.Background()

	if err := s.Put(ctx, "matches", "m1", []byte(`{"entityId":"m1"}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	failed := soleLog(t, s)
	if failed.Status != synclog.StatusFailed {
		t.Fatalf("precondition: ledger should be FAILED, is %s", failed.Status)
	}

	if err := s.Retry(ctx, failed, 5); err != nil {
		t.Fatalf("retry: %v", err)
	}

	if _, ok, _ := remote.Backend.Get(ctx, "matches", "m1"); !ok {
		t.Fatal("retry did not reach the remote store")
	}
	row := soleLog(t, s)
	if row.Status != synclog.StatusSynced {
		t.Fatalf("ledger after retry: got %s want SYNCED", row.Status)
	}
	if row.RetryCount != 1 {
		t.Fatalf("retry count: got %d want 1", row.RetryCount)
	}
}

func TestRetry_BudgetSpent(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestSyncer(0)
	ctx := context.Background()

	row, err := s.Logs().Add(ctx, synclog.Log{
		EntityID: "m1", EntityType: "matches",
		Direction: synclog.DirectionUp, Status: synclog.StatusFailed,
		RetryCount: 3,
	})
	if err != nil {
		t.Fatalf("seed ledger: %v", err)
	}

	if err := s.Retry(ctx, row, 3); !errors.Is(err, ErrRetryBudgetSpent) {
		t.Fatalf("expected ErrRetryBudgetSpent, got %v", err)
	}
}

func TestRetry_ConcurrentIncrementsAllCount(t *testing.T) {
	t.Parallel()

	s, _, remote := newTestSyncer(0)
	remote.failPuts = 1 << 20 // remote never recovers
	ctx := context.Background()

	if err := s.Put(ctx, "matches", "m1", []byte(`{}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	row := soleLog(t, s)

	const workers = 24
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// every attempt fails at the remote but must still count
			_ = s.Retry(ctx, row, 0)
		}()
	}
	wg.Wait()

	final := soleLog(t, s)
	if final.RetryCount != workers {
		t.Fatalf("retry count after %d concurrent retries: got %d", workers, final.RetryCount)
	}
}

func TestSweepOnce_RetriesOnlyStaleEligibleRows(t *testing.T) {
	t.Parallel()

	s, _, remote := newTestSyncer(1)
	ctx := context.Background()

	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	if err := s.Put(ctx, "matches", "m1", []byte(`{"entityId":"m1"}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if got := soleLog(t, s); got.Status != synclog.StatusFailed {
		t.Fatalf("precondition: %s", got.Status)
	}

	// a row past its retry budget must be left alone
	exhausted, err := s.Logs().Add(ctx, synclog.Log{
		EntityID: "m2", EntityType: "matches",
		Direction: synclog.DirectionUp, Status: synclog.StatusFailed,
		RetryCount: 99, DispatchedAt: base,
	})
	if err != nil {
		t.Fatalf("seed exhausted row: %v", err)
	}

	sweeper, err := NewSweeper(s, SweeperConfig{StaleAfter: time.Minute, MaxRetries: 5, Workers: 2}, logging.NewNop())
	if err != nil {
		t.Fatalf("new sweeper: %v", err)
	}
	sweeper.now = func() time.Time { return base.Add(2 * time.Minute) }
	s.now = func() time.Time { return base.Add(2 * time.Minute) }

	retried, err := sweeper.SweepOnce(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if retried != 1 {
		t.Fatalf("expected exactly one retry, got %d", retried)
	}

	if _, ok, _ := remote.Backend.Get(ctx, "matches", "m1"); !ok {
		t.Fatal("sweep retry did not reach the remote store")
	}
	rows, err := s.Logs().List(ctx, store.NewQuery())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, row := range rows {
		switch row.ID {
		case exhausted.ID:
			if row.RetryCount != 99 {
				t.Fatalf("exhausted row was retried: %+v", row)
			}
		default:
			if row.Status != synclog.StatusSynced {
				t.Fatalf("stale row not synced: %+v", row)
			}
		}
	}
}
