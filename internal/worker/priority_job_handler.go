package worker

import (
	"context"
	"fmt"

	"github.com/eudesrpj/salva-plantao-app-sub001/internal/queue"
	worker_handler "github.com/eudesrpj/salva-plantao-app-sub001/internal/worker/worker-handler"
)

func (wp *WorkerPool) handleJob(ctx context.Context, job queue.Job) error {
	workerHandler := worker_handler.NewWorkerHandler(ctx, wp.Redis, wp.ws, wp.chat)
	switch job.Type {
	case queue.TypeBroadcastChatMessage:
		return workerHandler.HandleBroadcastChatMessage(job.Payload)
	case queue.TypeSweepExpiredMessages:
		return workerHandler.HandleSweepExpired(ctx, job.Payload)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}
