package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musicdeclares/amplify/internal/models"
)

func setupTestQueue(t *testing.T) (*Queue, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewQueue(client, nil), mr
}

func samplePayload() models.RouterAnalytics {
	org := uuid.New()
	return models.RouterAnalytics{
		ID:             uuid.New(),
		ArtistHandle:   "radiohead",
		CountryCode:    "US",
		OrgID:          &org,
		ReasonCode:     "success",
		DestinationURL: "https://example.com",
		Timestamp:      time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestQueue_EnqueueDequeueAnalytics(t *testing.T) {
	q, _ := setupTestQueue(t)
	ctx := context.Background()
	payload := samplePayload()

	require.NoError(t, q.EnqueueAnalytics(ctx, payload))
	n, err := q.Len(ctx, QueueAnalytics)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	job, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, JobTypeAnalytics, job.Type)
	assert.Equal(t, 0, job.Attempt)

	got, err := DecodeAnalytics(job)
	require.NoError(t, err)
	assert.Equal(t, payload.ID, got.ID)
	assert.Equal(t, payload.ArtistHandle, got.ArtistHandle)
	assert.Equal(t, *payload.OrgID, *got.OrgID)
	assert.True(t, payload.Timestamp.Equal(got.Timestamp))
}

func TestQueue_DequeueInvalidEntry(t *testing.T) {
	q, mr := setupTestQueue(t)
	_, err := mr.Lpush(QueueAnalytics, "{not json")
	require.NoError(t, err)

	job, err := q.Dequeue(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, job)
}

func TestQueue_RetryThenDLQ(t *testing.T) {
	q, _ := setupTestQueue(t)
	ctx := context.Background()
	require.NoError(t, q.EnqueueAnalytics(ctx, samplePayload()))

	job, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)

	for i := 1; i < MaxRetries; i++ {
		require.NoError(t, q.Retry(ctx, job))
		assert.Equal(t, i, job.Attempt)
		requeued, err := q.Dequeue(ctx)
		require.NoError(t, err)
		require.NotNil(t, requeued)
		assert.Equal(t, job.ID, requeued.ID)
		job = requeued
	}

	require.NoError(t, q.Retry(ctx, job))
	dlq, err := q.Len(ctx, QueueDLQ)
	require.NoError(t, err)
	assert.Equal(t, int64(1), dlq)
	pending, err := q.Len(ctx, QueueAnalytics)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending)
}

func TestDecodeAnalytics_WrongType(t *testing.T) {
	_, err := DecodeAnalytics(&Job{Type: "email"})
	assert.Error(t, err)
}
