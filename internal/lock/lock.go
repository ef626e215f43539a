// Package lock provides short-lived mutual exclusion between generator
// workers, possibly running in different processes.
package lock

import (
	"context"
	"errors"
	"time"
)

// ErrNotAcquired is returned by Acquire when another holder owns the key.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker hands out leases on string keys. A lease expires after its TTL
// even if never released, so a crashed holder cannot block a key forever.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}

// Lease is a held lock.
type Lease interface {
	Release(ctx context.Context) error
}

// Noop grants every request. It is used when no Redis is configured, which
// leaves the unique index on unified_payments as the only duplicate guard.
type Noop struct{}

func (Noop) Acquire(context.Context, string, time.Duration) (Lease, error) {
	return noopLease{}, nil
}

type noopLease struct{}

func (noopLease) Release(context.Context) error { return nil }
