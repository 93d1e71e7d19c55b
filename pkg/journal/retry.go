// retry.go retries journal writes that hit transient SQLite errors.
//
// WAL-mode SQLite can report SQLITE_BUSY, SQLITE_LOCKED and
// IOERR_SHORT_READ (522) when another process, such as `tb log`, reads the
// journal while a run writes it. busy_timeout covers most SQLITE_BUSY
// cases; the rest are retried here with exponential backoff and jitter.
package journal

import (
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// retryConfig controls retry behavior for transient SQLite errors.
type retryConfig struct {
	maxRetries uint64
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// defaultRetryConfig is used for all journal writes.
var defaultRetryConfig = retryConfig{
	maxRetries: 3,
	baseDelay:  50 * time.Millisecond,
	maxDelay:   500 * time.Millisecond,
}

// isTransientSQLiteErr returns true if the error is a transient SQLite error
// that can be resolved by retrying. This includes:
//   - SQLITE_BUSY (5): another connection holds a lock
//   - SQLITE_LOCKED (6): table-level lock conflict
//   - SQLITE_IOERR_SHORT_READ (522): WAL contention read failure
//   - database is locked: text-level detection for the busy_timeout fallthrough
func isTransientSQLiteErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, pattern := range []string{
		"SQLITE_BUSY",
		"SQLITE_LOCKED",
		"IOERR_SHORT_READ",
		"database is locked",
		"database table is locked",
		"(5)",
		"(6)",
		"(522)",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

func newBackoff(cfg retryConfig) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.baseDelay
	b.MaxInterval = cfg.maxDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0.5
	b.MaxElapsedTime = 0
	return backoff.WithMaxRetries(b, cfg.maxRetries)
}

// retryOp runs fn, retrying transient errors with backoff. Non-transient
// errors are returned immediately.
func retryOp(cfg retryConfig, fn func() error) error {
	return backoff.Retry(func() error {
		err := fn()
		if err != nil && !isTransientSQLiteErr(err) {
			return backoff.Permanent(err)
		}
		return err
	}, newBackoff(cfg))
}

// retryOnContention wraps retryOp with the default config.
func retryOnContention(fn func() error) error {
	return retryOp(defaultRetryConfig, fn)
}
