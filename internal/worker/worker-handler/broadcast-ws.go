package worker_handler

import (
	"encoding/json"
	"fmt"

	"github.com/eudesrpj/salva-plantao-app-sub001/internal/utils/types"
	"github.com/eudesrpj/salva-plantao-app-sub001/internal/websocket"
)

func (wh *WorkerHandler) HandleBroadcastChatMessage(raw json.RawMessage) error {
	var payload types.BroadcastMessagePayload

	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("invalid broadcast payload: %w", err)
	}

	env := websocket.NewChatMessageEnvelope(websocket.MessagePayload{
		ID:        payload.MessageID,
		RoomID:    payload.RoomID,
		SenderID:  payload.SenderID,
		Body:      payload.Body,
		CreatedAt: payload.CreatedAt,
		ExpiresAt: payload.ExpiresAt,
	})

	wh.Ws.BroadcastToRoom(payload.RoomID, env)

	return nil
}
