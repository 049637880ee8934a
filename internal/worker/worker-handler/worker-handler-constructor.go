package worker_handler

import (
	"context"

	"github.com/redis/go-redis/v9"

	chat_service "github.com/eudesrpj/salva-plantao-app-sub001/internal/use-case/chat-case"
	"github.com/eudesrpj/salva-plantao-app-sub001/internal/websocket"
)

type WorkerHandler struct {
	Ctx   context.Context
	Redis *redis.Client
	Ws    *websocket.Hub
	Chat  chat_service.ChatServiceContract
}

func NewWorkerHandler(ctx context.Context, redis *redis.Client, ws *websocket.Hub, chat chat_service.ChatServiceContract) *WorkerHandler {
	return &WorkerHandler{
		Ctx:   ctx,
		Redis: redis,
		Ws:    ws,
		Chat:  chat,
	}
}
