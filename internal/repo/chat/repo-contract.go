package chat_repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/eudesrpj/salva-plantao-app-sub001/internal/entity"
	app_error "github.com/eudesrpj/salva-plantao-app-sub001/internal/errors"
)

type ChatRepoContract interface {
	FindOrCreateDirectRoom(ctx context.Context, senderID, receiverID string) (*entity.ChatRoom, *app_error.AppError)
	FindOrCreateStateRoom(ctx context.Context, userID, stateCode string) (*entity.ChatRoom, *app_error.AppError)
	FindRoomByID(ctx context.Context, roomID uuid.UUID) (*entity.ChatRoom, *app_error.AppError)
	AddMember(ctx context.Context, roomID uuid.UUID, userID string) *app_error.AppError
	IsMember(ctx context.Context, roomID uuid.UUID, userID string) (bool, *app_error.AppError)

	InsertMessage(ctx context.Context, msg *entity.ChatMessage) *app_error.AppError
	ListMessages(ctx context.Context, roomID uuid.UUID, asOf time.Time) ([]*entity.ChatMessage, *app_error.AppError)
	DeleteExpired(ctx context.Context, asOf time.Time) (int64, *app_error.AppError)

	LogBlockedSend(ctx context.Context, userID string, roomID *uuid.UUID, reason string) *app_error.AppError
	UpsertContact(ctx context.Context, userID, contactID string, at time.Time) *app_error.AppError
	ListContacts(ctx context.Context, userID string) ([]*entity.ChatContact, *app_error.AppError)
	FindUsersByIDs(ctx context.Context, ids []string) (map[string]*entity.User, *app_error.AppError)

	SaveDeadLetter(ctx context.Context, job *entity.DeadLetterJob) error
}
