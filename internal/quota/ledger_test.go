package quota

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/lakical/speechbot/domain/entities"
)

type fakeUsageRepo struct {
	records   map[int64]entities.UsageRecord
	failWrite bool
}

func newFakeUsageRepo() *fakeUsageRepo {
	return &fakeUsageRepo{records: make(map[int64]entities.UsageRecord)}
}

func (f *fakeUsageRepo) FindOne(ctx context.Context, userID int64) (*entities.UsageRecord, error) {
	rec, ok := f.records[userID]
	if !ok {
		return nil, nil
	}
	copied := rec
	return &copied, nil
}

func (f *fakeUsageRepo) Upsert(ctx context.Context, record *entities.UsageRecord) error {
	if f.failWrite {
		return errors.New("store unreachable")
	}
	f.records[record.UserID] = *record
	return nil
}

func (f *fakeUsageRepo) Delete(ctx context.Context, userID int64) error {
	delete(f.records, userID)
	return nil
}

func (f *fakeUsageRepo) FindAll(ctx context.Context) ([]*entities.UsageRecord, error) {
	var out []*entities.UsageRecord
	for _, rec := range f.records {
		copied := rec
		out = append(out, &copied)
	}
	return out, nil
}

type fakeActionRepo struct {
	records map[string]int
}

func (f *fakeActionRepo) FindOne(ctx context.Context, key string) (*entities.ActionUsageRecord, error) {
	n, ok := f.records[key]
	if !ok {
		return nil, nil
	}
	return &entities.ActionUsageRecord{Key: key, Count: n}, nil
}

func (f *fakeActionRepo) Upsert(ctx context.Context, record *entities.ActionUsageRecord) error {
	f.records[record.Key] = record.Count
	return nil
}

func newLedger(t *testing.T, limit int, repo *fakeUsageRepo, now int64) *Ledger {
	t.Helper()
	l := NewLedger(limit, 24*time.Hour, repo, nil, zap.NewNop())
	l.SetClock(func() int64 { return now })
	return l
}

func TestFreshUserAllowed(t *testing.T) {
	repo := newFakeUsageRepo()
	now := int64(1700000000)
	l := newLedger(t, 19, repo, now)

	if err := l.CheckAndReserve(context.Background(), 1); err != nil {
		t.Fatalf("First check for a fresh user must succeed, got %v", err)
	}

	stored, ok := repo.records[1]
	if !ok {
		t.Fatal("Fresh record should be persisted")
	}
	if stored.Count != 0 {
		t.Errorf("Expected count 0, got %d", stored.Count)
	}
	if stored.WindowStart != now {
		t.Errorf("Expected window start %d, got %d", now, stored.WindowStart)
	}
}

func TestLimitBoundary(t *testing.T) {
	repo := newFakeUsageRepo()
	now := int64(1700000000)
	l := newLedger(t, 3, repo, now)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := l.CheckAndReserve(ctx, 1); err != nil {
			t.Fatalf("Check %d should pass: %v", i, err)
		}
		if err := l.Commit(ctx, 1); err != nil {
			t.Fatalf("Commit %d should pass: %v", i, err)
		}
	}

	// count = limit-1: one more commit brings count to exactly limit
	if err := l.CheckAndReserve(ctx, 1); err != nil {
		t.Fatalf("Check at limit-1 should pass: %v", err)
	}
	if err := l.Commit(ctx, 1); err != nil {
		t.Fatalf("Commit at limit-1 should pass: %v", err)
	}
	if repo.records[1].Count != 3 {
		t.Errorf("Expected count 3, got %d", repo.records[1].Count)
	}

	err := l.CheckAndReserve(ctx, 1)
	var exceeded *QuotaExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("Expected QuotaExceededError, got %v", err)
	}
	if exceeded.Remaining <= 0 {
		t.Errorf("Expected positive remaining time, got %v", exceeded.Remaining)
	}
}

func TestNineteenCallsInTenSeconds(t *testing.T) {
	repo := newFakeUsageRepo()
	clock := int64(1700000000)
	l := NewLedger(19, 86400*time.Second, repo, nil, zap.NewNop())
	l.SetClock(func() int64 { return clock })
	ctx := context.Background()

	for i := 0; i < 19; i++ {
		if err := l.CheckAndReserve(ctx, 7); err != nil {
			t.Fatalf("Call %d should pass: %v", i+1, err)
		}
		if err := l.Commit(ctx, 7); err != nil {
			t.Fatalf("Commit %d should pass: %v", i+1, err)
		}
	}

	clock += 10
	err := l.CheckAndReserve(ctx, 7)
	var exceeded *QuotaExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("20th call must fail with QuotaExceededError, got %v", err)
	}
	if exceeded.Remaining != 86390*time.Second {
		t.Errorf("Expected remaining 86390s, got %v", exceeded.Remaining)
	}
}

func TestWindowExpiryResets(t *testing.T) {
	repo := newFakeUsageRepo()
	clock := int64(1700000000)
	l := NewLedger(1, 24*time.Hour, repo, nil, zap.NewNop())
	l.SetClock(func() int64 { return clock })
	ctx := context.Background()

	if err := l.CheckAndReserve(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if err := l.Commit(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if err := l.CheckAndReserve(ctx, 1); err == nil {
		t.Fatal("Expected quota exceeded at limit")
	}

	clock += 86400
	if err := l.CheckAndReserve(ctx, 1); err != nil {
		t.Fatalf("Expected reset after window expiry, got %v", err)
	}
	if repo.records[1].Count != 0 {
		t.Errorf("Expected reset count persisted, got %d", repo.records[1].Count)
	}
	if repo.records[1].WindowStart != clock {
		t.Errorf("Expected new window start %d, got %d", clock, repo.records[1].WindowStart)
	}
}

func TestRestartRoundTrip(t *testing.T) {
	repo := newFakeUsageRepo()
	now := int64(1700000000)
	first := newLedger(t, 19, repo, now)
	ctx := context.Background()

	if err := first.CheckAndReserve(ctx, 5); err != nil {
		t.Fatal(err)
	}
	if err := first.Commit(ctx, 5); err != nil {
		t.Fatal(err)
	}
	if err := first.Commit(ctx, 5); err != nil {
		t.Fatal(err)
	}

	// Simulate a process restart over the same durable store
	second := newLedger(t, 19, repo, now+100)
	second.WarmUp(ctx)

	count, remaining := second.Usage(ctx, 5)
	if count != 2 {
		t.Errorf("Expected count 2 after reload, got %d", count)
	}
	want := 86400*time.Second - 100*time.Second
	if remaining != want {
		t.Errorf("Expected remaining %v, got %v", want, remaining)
	}
}

func TestDegradedModeWithoutStore(t *testing.T) {
	l := NewLedger(2, 24*time.Hour, nil, nil, zap.NewNop())
	now := int64(1700000000)
	l.SetClock(func() int64 { return now })
	ctx := context.Background()

	if err := l.CheckAndReserve(ctx, 1); err != nil {
		t.Fatalf("Memory-only ledger should still enforce quota: %v", err)
	}
	if err := l.Commit(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if err := l.Commit(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if err := l.CheckAndReserve(ctx, 1); err == nil {
		t.Error("Expected quota exceeded in degraded mode")
	}
}

func TestFailedWriteKeepsInMemoryValue(t *testing.T) {
	repo := newFakeUsageRepo()
	repo.failWrite = true
	now := int64(1700000000)
	l := newLedger(t, 19, repo, now)
	ctx := context.Background()

	if err := l.CheckAndReserve(ctx, 1); err != nil {
		t.Fatalf("Check must succeed despite write failure: %v", err)
	}
	if err := l.Commit(ctx, 1); err != nil {
		t.Fatalf("Commit must succeed despite write failure: %v", err)
	}

	count, _ := l.Usage(ctx, 1)
	if count != 1 {
		t.Errorf("Expected in-memory count 1, got %d", count)
	}
}

func TestActionAtMostOnce(t *testing.T) {
	actions := &fakeActionRepo{records: make(map[string]int)}
	l := NewLedger(19, 24*time.Hour, nil, actions, zap.NewNop())
	ctx := context.Background()

	key := entities.ActionKey(100, 7, "Summarize")
	if n := l.ActionCount(ctx, key); n != 0 {
		t.Errorf("Expected zero count for new key, got %d", n)
	}

	l.IncrementAction(ctx, key)
	if n := l.ActionCount(ctx, key); n != 1 {
		t.Errorf("Expected count 1, got %d", n)
	}
	if actions.records[key] != 1 {
		t.Errorf("Expected persisted count 1, got %d", actions.records[key])
	}
}

func TestForget(t *testing.T) {
	repo := newFakeUsageRepo()
	now := int64(1700000000)
	l := newLedger(t, 19, repo, now)
	ctx := context.Background()

	if err := l.CheckAndReserve(ctx, 9); err != nil {
		t.Fatal(err)
	}
	if err := l.Forget(ctx, 9); err != nil {
		t.Fatal(err)
	}
	if _, ok := repo.records[9]; ok {
		t.Error("Expected record removed from store")
	}
	count, _ := l.Usage(ctx, 9)
	if count != 0 {
		t.Errorf("Expected zero count after forget, got %d", count)
	}
}
