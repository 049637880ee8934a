package chat_service

import (
	"context"
	"time"

	"github.com/eudesrpj/salva-plantao-app-sub001/internal/dtos/chat_dto"
	app_error "github.com/eudesrpj/salva-plantao-app-sub001/internal/errors"
)

type ChatServiceContract interface {
	SendMessage(ctx context.Context, roomID, senderID string, req chat_dto.SendMessageRequest) (*chat_dto.MessageResponse, *app_error.AppError)
	ListMessages(ctx context.Context, roomID, userID string, asOf time.Time) (*chat_dto.ListMessagesResponse, *app_error.AppError)
	JoinStateRoom(ctx context.Context, userID, stateCode string) (*chat_dto.RoomResponse, *app_error.AppError)
	StartDirectConversation(ctx context.Context, userID, otherUserID string) (*chat_dto.RoomResponse, *app_error.AppError)
	ListContacts(ctx context.Context, userID string) (*chat_dto.ListContactsResponse, *app_error.AppError)
	SweepExpired(ctx context.Context) (int64, *app_error.AppError)
	IsMember(ctx context.Context, roomID, userID string) (bool, error)
}
