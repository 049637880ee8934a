package queue

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// QueueKey is the ZSET holding pending jobs; DLQKey collects jobs that
// exhausted their retries.
const (
	QueueKey = "chat_job_queue"
	DLQKey   = "chat_job_queue_dlq"
)

type Producer interface {
	Enqueue(ctx context.Context, job Job) error
}

type RedisProducer struct {
	Redis *redis.Client
}

func NewProducer(redis *redis.Client) Producer {
	return &RedisProducer{Redis: redis}
}

func (p *RedisProducer) Enqueue(ctx context.Context, job Job) error {
	jobBytes, err := json.Marshal(job)
	if err != nil {
		return err
	}

	// Score is the unix time the job becomes ready. Fresh jobs are ready
	// immediately; retries re-add themselves with a backoff score.
	score := float64(job.CreatedAt)
	return p.Redis.ZAdd(ctx, QueueKey, redis.Z{
		Score:  score,
		Member: jobBytes,
	}).Err()
}
