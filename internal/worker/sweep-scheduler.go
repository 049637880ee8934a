package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/eudesrpj/salva-plantao-app-sub001/internal/queue"
	"github.com/eudesrpj/salva-plantao-app-sub001/internal/utils/types"
)

// StartSweepScheduler enqueues an expiry-sweep job on a fixed interval.
// The sweep has no ordering dependency on sends or reads, so any cadence
// is safe; the interval only bounds how long expired rows linger on disk
// (reads already filter them out).
func (wp *WorkerPool) StartSweepScheduler(ctx context.Context, interval time.Duration) {
	wp.wg.Add(1)
	go func() {
		defer wp.wg.Done()

		log.Info().Dur("interval", interval).Msg("Sweep scheduler started")
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		// first sweep right away so a restart doesn't wait a full period
		wp.enqueueSweep(ctx)

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("Sweep scheduler stopping")
				return
			case <-ticker.C:
				wp.enqueueSweep(ctx)
			}
		}
	}()
}

func (wp *WorkerPool) enqueueSweep(ctx context.Context) {
	payload := types.SweepPayload{
		TriggeredBy: "scheduler",
		RequestedAt: time.Now().UTC(),
	}

	job := queue.Job{
		ID:        uuid.New().String(),
		Type:      queue.TypeSweepExpiredMessages,
		Payload:   queue.MustMarshal(payload),
		Priority:  1,
		Retry:     0,
		MaxRetry:  3,
		CreatedAt: time.Now().Unix(),
		ExpireAt:  time.Now().Add(10 * time.Minute).Unix(),
	}

	producer := queue.NewProducer(wp.Redis)
	if err := producer.Enqueue(ctx, job); err != nil {
		log.Error().Err(err).Msg("failed to enqueue sweep job")
	}
}
