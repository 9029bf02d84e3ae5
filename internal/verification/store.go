// Package verification holds pending email verification codes and the
// generator that issues them.
//
// A Store maps an email to at most one live code. Put replaces whatever was
// there; Get never returns a code past its expiry, whether or not the backend
// has evicted it yet. Stores are not durable: a restart is equivalent to every
// code expiring at once.
package verification

import (
	"context"
	"errors"
	"time"

	"moneta/internal/logger"
)

// DefaultTTL is how long an issued code stays valid.
const DefaultTTL = 300 * time.Second

// MaxAttempts is how many wrong guesses a code survives. Callers drop the
// entry once Fail reports this many.
const MaxAttempts = 5

// ErrNotFound is returned by Get when no live code exists for an email.
var ErrNotFound = errors.New("verification code not found or expired")

// Store is a key-value store of pending codes with per-entry expiry.
//
// Fail records a wrong guess against the live code for email and returns the
// number of wrong guesses so far, or ErrNotFound. Put resets the count.
type Store interface {
	Put(ctx context.Context, email, code string, ttl time.Duration) error
	Get(ctx context.Context, email string) (string, error)
	Fail(ctx context.Context, email string) (int, error)
	Delete(ctx context.Context, email string) error
}

// Option configures a store.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// sweeper is implemented by stores that can drop expired entries eagerly.
type sweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// runJanitor calls Sweep every interval until ctx is done.
func runJanitor(ctx context.Context, s sweeper, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Sweep(ctx)
			if err != nil {
				logger.Named("verification").Warnw("verification code sweep failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Named("verification").Debugw("swept expired verification codes", "count", n)
			}
		}
	}
}
