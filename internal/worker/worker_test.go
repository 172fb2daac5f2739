package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musicdeclares/amplify/internal/models"
	"github.com/musicdeclares/amplify/pkg/queue"
)

type memWriter struct {
	mu    sync.Mutex
	rows  []models.RouterAnalytics
	fails int
}

func (m *memWriter) Write(_ context.Context, p models.RouterAnalytics) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fails > 0 {
		m.fails--
		return errors.New("db unavailable")
	}
	m.rows = append(m.rows, p)
	return nil
}

func (m *memWriter) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func setup(t *testing.T) (*queue.Queue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return queue.NewQueue(client, nil), mr
}

func payload() models.RouterAnalytics {
	return models.RouterAnalytics{
		ID:             uuid.New(),
		ArtistHandle:   "radiohead",
		CountryCode:    "US",
		ReasonCode:     "success",
		DestinationURL: "https://example.com",
		Timestamp:      time.Date(2026, 6, 15, 18, 30, 0, 0, time.UTC),
	}
}

func runUntil(t *testing.T, p *AnalyticsProcessor, cond func() bool) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	assert.Eventually(t, cond, 3*time.Second, 10*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(7 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestAnalyticsProcessor_DrainsQueue(t *testing.T) {
	q, _ := setup(t)
	ctx := context.Background()
	want := payload()
	require.NoError(t, q.EnqueueAnalytics(ctx, want))
	require.NoError(t, q.EnqueueAnalytics(ctx, payload()))

	w := &memWriter{}
	p := NewAnalyticsProcessor(q, w, nil)
	p.backoff = 0
	runUntil(t, p, func() bool { return w.count() == 2 })

	assert.Equal(t, want.ID, w.rows[0].ID)
	assert.True(t, want.Timestamp.Equal(w.rows[0].Timestamp))
	n, err := q.Len(ctx, queue.QueueAnalytics)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAnalyticsProcessor_RetriesThenSucceeds(t *testing.T) {
	q, _ := setup(t)
	want := payload()
	require.NoError(t, q.EnqueueAnalytics(context.Background(), want))

	w := &memWriter{fails: 1}
	p := NewAnalyticsProcessor(q, w, nil)
	p.backoff = 0
	runUntil(t, p, func() bool { return w.count() == 1 })

	// The re-queued job keeps the row id, so the idempotent insert cannot duplicate it.
	assert.Equal(t, want.ID, w.rows[0].ID)
	n, err := q.Len(context.Background(), queue.QueueDLQ)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAnalyticsProcessor_DeadLettersAfterMaxRetries(t *testing.T) {
	q, _ := setup(t)
	ctx := context.Background()
	require.NoError(t, q.EnqueueAnalytics(ctx, payload()))

	w := &memWriter{fails: queue.MaxRetries + 10}
	p := NewAnalyticsProcessor(q, w, nil)
	p.backoff = 0
	runUntil(t, p, func() bool {
		n, _ := q.Len(ctx, queue.QueueDLQ)
		return n == 1
	})
	assert.Zero(t, w.count())
}

func TestAnalyticsProcessor_RejectsUnknownJobType(t *testing.T) {
	p := NewAnalyticsProcessor(nil, &memWriter{}, nil)
	err := p.Process(context.Background(), &queue.Job{ID: "1", Type: "recording_upload"})
	assert.Error(t, err)
}
