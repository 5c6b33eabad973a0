package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vcissuer/internal/platform/kafka/producer"
	"vcissuer/pkg/platform/outbox"
	"vcissuer/pkg/platform/outbox/metrics"
)

type recordingProducer struct {
	mu       sync.Mutex
	messages []*producer.Message
	failFor  string
}

func (p *recordingProducer) Produce(_ context.Context, msg *producer.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if msg.Headers["event_type"] == p.failFor {
		return errors.New("broker unavailable")
	}
	p.messages = append(p.messages, msg)
	return nil
}

func newWorker(store outbox.Store, prod Producer) *Worker {
	return New(store, prod,
		WithTopic("test.events"),
		WithBatchSize(10),
		WithMetrics(metrics.NewWithRegisterer(prometheus.NewRegistry())),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func TestRunOnce_RelaysAndMarks(t *testing.T) {
	ctx := context.Background()
	store := outbox.NewInMemoryStore()
	now := time.Now()
	require.NoError(t, store.Append(ctx, outbox.NewEntry("credential", "vc-1", "credential.revoked", []byte(`{}`), now)))
	require.NoError(t, store.Append(ctx, outbox.NewEntry("issuance_process", "p-1", "issuance.delivered", []byte(`{}`), now.Add(time.Millisecond))))

	prod := &recordingProducer{}
	w := newWorker(store, prod)

	assert.Equal(t, 2, w.RunOnce(ctx))
	require.Len(t, prod.messages, 2)
	assert.Equal(t, "test.events", prod.messages[0].Topic)
	assert.Equal(t, "credential.revoked", prod.messages[0].Headers["event_type"])
	assert.Equal(t, "vc-1", prod.messages[0].Headers["aggregate_id"])

	pending, err := store.CountPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
	assert.Zero(t, w.RunOnce(ctx))
}

func TestRunOnce_FailedEntryStaysPending(t *testing.T) {
	ctx := context.Background()
	store := outbox.NewInMemoryStore()
	require.NoError(t, store.Append(ctx, outbox.NewEntry("credential", "vc-1", "credential.revoked", []byte(`{}`), time.Now())))

	w := newWorker(store, &recordingProducer{failFor: "credential.revoked"})
	assert.Zero(t, w.RunOnce(ctx))

	pending, err := store.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)
	require.NoError(t, w.UpdateMetrics(ctx))
}

func TestStartStop_DrainsPending(t *testing.T) {
	ctx := context.Background()
	store := outbox.NewInMemoryStore()
	prod := &recordingProducer{}
	w := newWorker(store, prod)
	w.pollInterval = time.Hour

	w.Start()
	require.NoError(t, store.Append(ctx, outbox.NewEntry("status_list", "sl-1", "statuslist.rotated", []byte(`{}`), time.Now())))

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, w.Stop(stopCtx))

	prod.mu.Lock()
	defer prod.mu.Unlock()
	assert.Len(t, prod.messages, 1)
}
