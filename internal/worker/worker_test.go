package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eudesrpj/salva-plantao-app-sub001/internal/queue"
)

func newTestPool(t *testing.T) (*WorkerPool, *redis.Client) {
	mockRedis := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mockRedis.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return &WorkerPool{Redis: rdb}, rdb
}

func TestRetryOrBury_RequeuesWithBackoff(t *testing.T) {
	wp, rdb := newTestPool(t)
	ctx := context.Background()

	now := time.Now().Unix()
	job := queue.Job{
		ID:        "job-1",
		Type:      queue.TypeBroadcastChatMessage,
		Retry:     0,
		MaxRetry:  3,
		CreatedAt: now,
		ExpireAt:  now + 600,
	}

	wp.retryOrBury(ctx, job, errors.New("hub unavailable"))

	entries, err := rdb.ZRangeWithScores(ctx, queue.QueueKey, 0, -1).Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	var requeued queue.Job
	require.NoError(t, json.Unmarshal([]byte(entries[0].Member.(string)), &requeued))
	assert.Equal(t, 1, requeued.Retry)
	assert.Equal(t, "hub unavailable", requeued.ErrorMsg)

	// First retry backs off 10s: the score must sit in the future so the
	// poller will not pick it up immediately.
	assert.InDelta(t, float64(now+10), entries[0].Score, 2)

	dlqLen, err := rdb.LLen(ctx, queue.DLQKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), dlqLen)
}

func TestRetryOrBury_BuriesAfterMaxRetries(t *testing.T) {
	wp, rdb := newTestPool(t)
	ctx := context.Background()

	now := time.Now().Unix()
	job := queue.Job{
		ID:        "job-2",
		Type:      queue.TypeBroadcastChatMessage,
		Retry:     2,
		MaxRetry:  3,
		CreatedAt: now,
		ExpireAt:  now + 600,
	}

	wp.retryOrBury(ctx, job, errors.New("still failing"))

	pending, err := rdb.ZCard(ctx, queue.QueueKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending)

	raw, err := rdb.LRange(ctx, queue.DLQKey, 0, -1).Result()
	require.NoError(t, err)
	require.Len(t, raw, 1)

	var buried queue.Job
	require.NoError(t, json.Unmarshal([]byte(raw[0]), &buried))
	assert.Equal(t, "job-2", buried.ID)
	assert.Equal(t, 3, buried.Retry)
	assert.Equal(t, "still failing", buried.ErrorMsg)
}

func TestRetryOrBury_BuriesExpiredJobs(t *testing.T) {
	wp, rdb := newTestPool(t)
	ctx := context.Background()

	now := time.Now().Unix()
	job := queue.Job{
		ID:        "job-3",
		Type:      queue.TypeSweepExpiredMessages,
		Retry:     0,
		MaxRetry:  5,
		CreatedAt: now - 700,
		ExpireAt:  now - 100,
	}

	wp.retryOrBury(ctx, job, errors.New("too late"))

	pending, err := rdb.ZCard(ctx, queue.QueueKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending, "an expired job never re-enters the queue")

	dlqLen, err := rdb.LLen(ctx, queue.DLQKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), dlqLen)
}
