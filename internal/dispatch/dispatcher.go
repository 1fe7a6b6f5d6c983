// Package dispatch performs one logical remote call by trying
// credentials from the pool in rotation order until one succeeds.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lakical/speechbot/internal/keypool"
)

// ErrNoCredentials is returned when the credential pool is empty. This
// is a configuration error: the call fails immediately instead of
// waiting for credentials to appear.
var ErrNoCredentials = errors.New("no API credentials configured")

// ExhaustedError reports that every credential in the pool failed for
// this call. Last carries the final underlying failure for diagnostics.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all %d credentials exhausted: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// Call performs the remote request with one credential and returns the
// generated text. Callers supply it per dispatch since different calls
// need different payload shapes but share the retry policy.
type Call func(ctx context.Context, c keypool.Credential) (string, error)

// Dispatcher tries credentials in pool rotation order with a bounded
// per-attempt timeout. On success the pool cursor advances past the
// used credential; on failure past the failing one and the next
// credential is tried.
type Dispatcher struct {
	pool    *keypool.Pool
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a dispatcher over the given pool. timeout bounds each
// individual attempt, not the whole rotation.
func New(pool *keypool.Pool, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		pool:    pool,
		timeout: timeout,
		logger:  logger,
	}
}

// Do runs call with each credential in rotation order until one
// succeeds. A timed-out attempt counts as a failure and moves on to
// the next credential; no partial result is salvaged.
func (d *Dispatcher) Do(ctx context.Context, call Call) (string, error) {
	order := d.pool.NextOrder()
	if len(order) == 0 {
		return "", ErrNoCredentials
	}

	var last error
	for i, cred := range order {
		attemptCtx := ctx
		cancel := func() {}
		if d.timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, d.timeout)
		}
		result, err := call(attemptCtx, cred)
		cancel()

		if err == nil {
			d.pool.MarkSuccess(cred)
			return result, nil
		}

		d.pool.MarkFailure(cred)
		last = err
		d.logger.Warn("Credential attempt failed, rotating to next",
			zap.Int("attempt", i+1),
			zap.Int("pool_size", len(order)),
			zap.Error(err))

		if ctx.Err() != nil {
			break
		}
	}

	return "", &ExhaustedError{Attempts: len(order), Last: last}
}
