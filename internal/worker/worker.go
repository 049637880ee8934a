package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/eudesrpj/salva-plantao-app-sub001/internal/entity"
	"github.com/eudesrpj/salva-plantao-app-sub001/internal/queue"
	chat_repo "github.com/eudesrpj/salva-plantao-app-sub001/internal/repo/chat"
	chat_service "github.com/eudesrpj/salva-plantao-app-sub001/internal/use-case/chat-case"
	"github.com/eudesrpj/salva-plantao-app-sub001/internal/websocket"
)

type WorkerPool struct {
	Redis      *redis.Client
	WorkerNum  int
	JobChannel chan string
	wg         sync.WaitGroup
	ws         *websocket.Hub
	chat       chat_service.ChatServiceContract
	repo       chat_repo.ChatRepoContract
}

func NewWorkerPool(redis *redis.Client, workerNum int, ws *websocket.Hub, chat chat_service.ChatServiceContract, repo chat_repo.ChatRepoContract) *WorkerPool {
	return &WorkerPool{
		Redis:      redis,
		WorkerNum:  workerNum,
		JobChannel: make(chan string, 100),
		ws:         ws,
		chat:       chat,
		repo:       repo,
	}
}

func (wp *WorkerPool) Start(ctx context.Context) {
	log.Info().Msgf("Starting worker pool with %d workers", wp.WorkerNum)

	for i := 0; i < wp.WorkerNum; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}

	go func() {
		defer close(wp.JobChannel)
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("Stopping worker pool poller")
				return
			default:
				now := float64(time.Now().Unix())
				result, err := wp.Redis.ZRangeByScore(ctx, queue.QueueKey, &redis.ZRangeBy{
					Min:    "-inf",
					Max:    fmt.Sprintf("%f", now),
					Offset: 0,
					Count:  1,
				}).Result()

				if err != nil {
					if err != redis.Nil {
						log.Error().Err(err).Msg("worker: failed to pop job")
					}
					time.Sleep(1 * time.Second)
					continue
				}

				if len(result) == 0 {
					time.Sleep(1 * time.Second)
					continue
				}

				payload := result[0]
				// ZRem returning 0 means another poller claimed it first.
				removed, err := wp.Redis.ZRem(ctx, queue.QueueKey, payload).Result()
				if err != nil || removed == 0 {
					continue
				}
				wp.JobChannel <- payload
			}
		}
	}()
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()
	log.Info().Msgf("Worker %d started", id)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("Worker %d stopping", id)
			return
		case payload, ok := <-wp.JobChannel:
			if !ok {
				return
			}

			var job queue.Job
			if err := json.Unmarshal([]byte(payload), &job); err != nil {
				log.Warn().Err(err).Msgf("Worker %d: failed to unmarshal job payload", id)
				continue
			}

			if err := wp.handleJob(ctx, job); err != nil {
				wp.retryOrBury(ctx, job, err)
			}
		}
	}
}

func (wp *WorkerPool) retryOrBury(ctx context.Context, job queue.Job, cause error) {
	job.Retry++
	job.ErrorMsg = cause.Error()

	now := time.Now().Unix()
	if job.Retry >= job.MaxRetry || now > job.ExpireAt {
		log.Error().Str("job_id", job.ID).Str("type", job.Type).Msg("Job moved to DLQ")
		dlqBytes, _ := json.Marshal(job)
		wp.Redis.RPush(ctx, queue.DLQKey, dlqBytes)
		return
	}

	// exponential backoff
	delay := time.Duration(5*(1<<job.Retry)) * time.Second
	retryAt := time.Now().Add(delay).Unix()

	jobBytes, _ := json.Marshal(job)
	wp.Redis.ZAdd(ctx, queue.QueueKey, redis.Z{
		Score:  float64(retryAt),
		Member: jobBytes,
	})
	log.Warn().Str("job_id", job.ID).Msgf("Retrying in %v (%d/%d)", delay, job.Retry, job.MaxRetry)
}

// StartDLQWorker drains dead jobs out of Redis into the dead_letter_jobs
// table so they survive restarts and can be inspected later.
func (wp *WorkerPool) StartDLQWorker(ctx context.Context) {
	wp.wg.Add(1)
	go func() {
		defer wp.wg.Done()

		log.Info().Msg("DLQ worker started")
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("DLQ worker stopping")
				return
			default:
				result, err := wp.Redis.BLPop(ctx, 10*time.Second, queue.DLQKey).Result()
				if err == redis.Nil {
					continue
				} else if err != nil {
					if ctx.Err() != nil {
						return
					}
					log.Error().Err(err).Msg("DLQ worker pop failed")
					continue
				}

				payload := result[1]
				var job queue.Job
				if err := json.Unmarshal([]byte(payload), &job); err != nil {
					log.Warn().Err(err).Msg("DLQ worker: invalid job payload")
					continue
				}

				row := &entity.DeadLetterJob{
					JobID:      job.ID,
					Type:       job.Type,
					Payload:    job.Payload,
					ErrorMsg:   job.ErrorMsg,
					RetryCount: job.Retry,
				}

				if err := wp.repo.SaveDeadLetter(ctx, row); err != nil {
					log.Error().Err(err).Str("job_id", job.ID).Msg("Failed to persist DLQ job")
					// put it back so nothing is silently lost
					wp.Redis.RPush(ctx, queue.DLQKey, payload)
					time.Sleep(time.Second)
				} else {
					log.Info().Str("job_id", job.ID).Str("type", job.Type).Msg("DLQ job persisted")
				}
			}
		}
	}()
}

func (wp *WorkerPool) Stop() {
	wp.wg.Wait()
	log.Info().Msg("All workers have stopped")
}
