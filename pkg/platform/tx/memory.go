package tx

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	dErrors "vcissuer/pkg/domain-errors"
	platformsync "vcissuer/pkg/platform/sync"
)

var (
	shardLockWaitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vcissuer_tx_shard_lock_wait_seconds",
		Help:    "Time spent waiting to acquire an in-memory transaction shard lock",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})
	shardLockAcquisitions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vcissuer_tx_shard_lock_acquisitions_total",
		Help: "Total number of in-memory transaction shard lock acquisitions",
	})
)

// DefaultTimeout bounds a transaction when the caller's context has no deadline.
const DefaultTimeout = 5 * time.Second

// InMemoryRunner serializes mutations against in-memory stores per shard key.
// It provides isolation but no rollback; in-memory stores reject conflicting
// writes through their own version checks.
type InMemoryRunner struct {
	mu      *platformsync.ShardedMutex
	timeout time.Duration
}

// NewInMemoryRunner creates a runner with its own shard locks.
func NewInMemoryRunner() *InMemoryRunner {
	return &InMemoryRunner{mu: platformsync.NewShardedMutex()}
}

func (r *InMemoryRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	if _, nested := ctx.Value(inMemoryTx{}).(bool); nested {
		return fn(ctx)
	}

	timeout := r.timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	key := shardKeyFrom(ctx)
	lockStart := time.Now()
	r.mu.Lock(key)
	shardLockWaitDuration.Observe(time.Since(lockStart).Seconds())
	shardLockAcquisitions.Inc()
	defer r.mu.Unlock(key)

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	return fn(context.WithValue(ctx, inMemoryTx{}, true))
}
