// Package quota enforces the per-user rolling usage window and keeps
// the usage ledger consistent with durable storage.
package quota

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lakical/speechbot/domain/entities"
	"github.com/lakical/speechbot/domain/repositories"
)

// QuotaExceededError reports that a user hit the call limit for the
// open window. Remaining is how long until the window resets; callers
// surface it as a user-facing wait time instead of retrying.
type QuotaExceededError struct {
	Remaining time.Duration
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("daily quota exceeded, resets in %s", entities.FormatHMS(e.Remaining))
}

// Ledger is the per-user usage ledger with a write-through in-memory
// cache over durable storage. All read-modify-write sequences are
// serialized by one lock scoped to the ledger; contention is low
// relative to remote-call latency. Either repository may be nil, in
// which case the ledger runs memory-only (degraded mode).
//
// The time base is wall-clock Unix seconds. Windows are measured in
// hours so small skew is harmless, but clock rollback is not defended
// against.
type Ledger struct {
	limit   int
	window  time.Duration
	users   repositories.UsageRepository
	actions repositories.ActionUsageRepository
	logger  *zap.Logger

	mu          sync.Mutex
	cache       map[int64]*entities.UsageRecord
	actionCache map[string]int
	now         func() int64
}

// NewLedger creates a ledger enforcing limit calls per rolling window.
func NewLedger(
	limit int,
	window time.Duration,
	users repositories.UsageRepository,
	actions repositories.ActionUsageRepository,
	logger *zap.Logger,
) *Ledger {
	return &Ledger{
		limit:       limit,
		window:      window,
		users:       users,
		actions:     actions,
		logger:      logger,
		cache:       make(map[int64]*entities.UsageRecord),
		actionCache: make(map[string]int),
		now:         func() int64 { return time.Now().Unix() },
	}
}

// SetClock overrides the time source. Tests only.
func (l *Ledger) SetClock(now func() int64) {
	l.now = now
}

// WarmUp populates the cache from durable storage. Store
// unavailability is logged and the ledger continues memory-only.
func (l *Ledger) WarmUp(ctx context.Context) {
	if l.users == nil {
		return
	}
	records, err := l.users.FindAll(ctx)
	if err != nil {
		l.logger.Warn("Usage ledger warm-up failed, continuing in-memory only", zap.Error(err))
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, rec := range records {
		l.cache[rec.UserID] = rec
	}
	l.logger.Info("Usage ledger warmed up", zap.Int("records", len(records)))
}

// loadLocked returns the cached record for uid, falling back to the
// durable store on miss. Returns nil when the user has no record.
func (l *Ledger) loadLocked(ctx context.Context, uid int64) *entities.UsageRecord {
	if rec, ok := l.cache[uid]; ok {
		return rec
	}
	if l.users == nil {
		return nil
	}
	rec, err := l.users.FindOne(ctx, uid)
	if err != nil {
		l.logger.Warn("Usage record load failed", zap.Int64("user_id", uid), zap.Error(err))
		return nil
	}
	if rec != nil {
		l.cache[uid] = rec
	}
	return rec
}

// persistLocked writes the record through to durable storage. A failed
// write is logged, not retried; the in-memory value stands.
func (l *Ledger) persistLocked(ctx context.Context, rec *entities.UsageRecord) {
	if l.users == nil {
		return
	}
	if err := l.users.Upsert(ctx, rec); err != nil {
		l.logger.Warn("Usage record persist failed",
			zap.Int64("user_id", rec.UserID),
			zap.Error(err))
	}
}

// CheckAndReserve decides whether uid may make one more remote call.
// A fresh user gets a new open window; an expired window is reset; a
// user at the limit gets a QuotaExceededError carrying the remaining
// wait. Callers must Commit after the remote call succeeds.
func (l *Ledger) CheckAndReserve(ctx context.Context, uid int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	rec := l.loadLocked(ctx, uid)
	if rec == nil {
		rec = entities.NewUsageRecord(uid, now)
		l.cache[uid] = rec
		l.persistLocked(ctx, rec)
		return nil
	}

	if rec.WindowExpired(now, l.window) {
		rec.Reset(now)
		l.persistLocked(ctx, rec)
		return nil
	}

	if rec.Exhausted(l.limit) {
		return &QuotaExceededError{Remaining: rec.Remaining(now, l.window)}
	}
	return nil
}

// Commit charges uid one call and persists the record synchronously
// before returning.
func (l *Ledger) Commit(ctx context.Context, uid int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	rec := l.loadLocked(ctx, uid)
	if rec == nil {
		rec = entities.NewUsageRecord(uid, now)
		l.cache[uid] = rec
	}
	rec.Charge(now)
	l.persistLocked(ctx, rec)
	return nil
}

// Usage reports the current count and remaining window time for uid.
func (l *Ledger) Usage(ctx context.Context, uid int64) (count int, remaining time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec := l.loadLocked(ctx, uid)
	if rec == nil {
		return 0, 0
	}
	now := l.now()
	if rec.WindowExpired(now, l.window) {
		return 0, 0
	}
	return rec.Count, rec.Remaining(now, l.window)
}

// Limit returns the configured per-window call limit.
func (l *Ledger) Limit() int {
	return l.limit
}

// Forget removes uid's record from cache and durable storage.
func (l *Ledger) Forget(ctx context.Context, uid int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.cache, uid)
	if l.users == nil {
		return nil
	}
	return l.users.Delete(ctx, uid)
}

// ActionCount returns how many times the keyed action has been used.
func (l *Ledger) ActionCount(ctx context.Context, key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n, ok := l.actionCache[key]; ok {
		return n
	}
	if l.actions == nil {
		return 0
	}
	rec, err := l.actions.FindOne(ctx, key)
	if err != nil {
		l.logger.Warn("Action usage load failed", zap.String("key", key), zap.Error(err))
		return 0
	}
	if rec == nil {
		return 0
	}
	l.actionCache[key] = rec.Count
	return rec.Count
}

// IncrementAction charges one use of the keyed action and persists the
// counter. Action counters are never reset.
func (l *Ledger) IncrementAction(ctx context.Context, key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.actionCache[key]++
	if l.actions == nil {
		return
	}
	rec := &entities.ActionUsageRecord{Key: key, Count: l.actionCache[key]}
	if err := l.actions.Upsert(ctx, rec); err != nil {
		l.logger.Warn("Action usage persist failed", zap.String("key", key), zap.Error(err))
	}
}
