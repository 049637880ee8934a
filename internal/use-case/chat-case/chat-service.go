package chat_service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/eudesrpj/salva-plantao-app-sub001/internal/dtos/chat_dto"
	"github.com/eudesrpj/salva-plantao-app-sub001/internal/entity"
	app_error "github.com/eudesrpj/salva-plantao-app-sub001/internal/errors"
	"github.com/eudesrpj/salva-plantao-app-sub001/internal/guard"
	"github.com/eudesrpj/salva-plantao-app-sub001/internal/queue"
	chat_repo "github.com/eudesrpj/salva-plantao-app-sub001/internal/repo/chat"
	"github.com/eudesrpj/salva-plantao-app-sub001/internal/utils/types"
	"github.com/eudesrpj/salva-plantao-app-sub001/state"
)

type ChatService struct {
	AppState *state.AppState
	ChatRepo chat_repo.ChatRepoContract
	Producer queue.Producer
}

func NewChatService(appState *state.AppState) ChatServiceContract {
	return &ChatService{
		AppState: appState,
		ChatRepo: chat_repo.NewChatRepo(appState),
		Producer: queue.NewProducer(appState.Redis),
	}
}

// SendMessage turns an outbound body into a persisted, time-boxed,
// broadcast message. The client runs the guard for fast feedback, but the
// verdict is recomputed here: a blocked body is rejected no matter what
// the client claims, and a warning body needs the request's Confirmed
// flag. Fan-out happens after the write and never fails the send.
func (c *ChatService) SendMessage(ctx context.Context, roomID, senderID string, req chat_dto.SendMessageRequest) (*chat_dto.MessageResponse, *app_error.AppError) {
	rid, err := uuid.Parse(roomID)
	if err != nil {
		return nil, app_error.InvalidArgument("invalid room id", "room_id")
	}

	verdict := guard.Check(req.Body)
	switch verdict.Level {
	case guard.LevelBlocked:
		if logErr := c.ChatRepo.LogBlockedSend(ctx, senderID, &rid, verdict.Message); logErr != nil {
			log.Error().Err(logErr).Str("userID", senderID).Msg("failed to record blocked send")
		}
		return nil, app_error.ContentBlocked(verdict.Message)
	case guard.LevelWarning:
		if !req.Confirmed {
			return nil, app_error.ContentWarning(verdict.Message)
		}
	}

	member, appErr := c.ChatRepo.IsMember(ctx, rid, senderID)
	if appErr != nil {
		return nil, appErr
	}
	if !member {
		return nil, app_error.NotAMember("sender is not a member of this room")
	}

	now := time.Now().UTC()
	msg := &entity.ChatMessage{
		ID:        uuid.New(),
		RoomID:    rid,
		SenderID:  &senderID,
		Body:      req.Body,
		CreatedAt: now,
		ExpiresAt: now.Add(entity.MessageTTL),
	}

	if appErr := c.ChatRepo.InsertMessage(ctx, msg); appErr != nil {
		return nil, appErr
	}

	c.enqueueBroadcast(msg)

	return &chat_dto.MessageResponse{
		MessageID: msg.ID.String(),
		RoomID:    msg.RoomID.String(),
		SenderID:  msg.SenderID,
		Body:      msg.Body,
		CreatedAt: msg.CreatedAt,
		ExpiresAt: msg.ExpiresAt,
	}, nil
}

// enqueueBroadcast hands the message to the worker pool for delivery to
// live subscribers. Best effort: a failed enqueue is logged and swallowed,
// clients recover the message by re-fetching the room.
func (c *ChatService) enqueueBroadcast(msg *entity.ChatMessage) {
	payload := &types.BroadcastMessagePayload{
		MessageID: msg.ID.String(),
		RoomID:    msg.RoomID.String(),
		SenderID:  msg.SenderID,
		Body:      msg.Body,
		CreatedAt: msg.CreatedAt,
		ExpiresAt: msg.ExpiresAt,
	}

	job := queue.Job{
		ID:        uuid.New().String(),
		Type:      queue.TypeBroadcastChatMessage,
		Payload:   queue.MustMarshal(payload),
		Priority:  2,
		Retry:     0,
		MaxRetry:  3,
		CreatedAt: time.Now().Unix(),
		ExpireAt:  time.Now().Add(1 * time.Minute).Unix(),
	}

	if err := c.Producer.Enqueue(c.AppState.Ctx, job); err != nil {
		log.Error().Err(err).Str("message_id", payload.MessageID).Msg("failed to enqueue broadcast job")
		return
	}

	log.Debug().Str("job_id", job.ID).Str("message_id", payload.MessageID).Msg("broadcast job enqueued")
}

func (c *ChatService) ListMessages(ctx context.Context, roomID, userID string, asOf time.Time) (*chat_dto.ListMessagesResponse, *app_error.AppError) {
	rid, err := uuid.Parse(roomID)
	if err != nil {
		return nil, app_error.InvalidArgument("invalid room id", "room_id")
	}

	member, appErr := c.ChatRepo.IsMember(ctx, rid, userID)
	if appErr != nil {
		return nil, appErr
	}
	if !member {
		return nil, app_error.NotAMember("not a member of this room")
	}

	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	messages, appErr := c.ChatRepo.ListMessages(ctx, rid, asOf)
	if appErr != nil {
		return nil, appErr
	}

	resp := make([]chat_dto.MessageResponse, 0, len(messages))
	for _, msg := range messages {
		resp = append(resp, chat_dto.MessageResponse{
			MessageID: msg.ID.String(),
			RoomID:    msg.RoomID.String(),
			SenderID:  msg.SenderID,
			Body:      msg.Body,
			CreatedAt: msg.CreatedAt,
			ExpiresAt: msg.ExpiresAt,
		})
	}

	return &chat_dto.ListMessagesResponse{Messages: resp}, nil
}

// JoinStateRoom puts the user into their state's group room, creating the
// room on first join. Idempotent.
func (c *ChatService) JoinStateRoom(ctx context.Context, userID, stateCode string) (*chat_dto.RoomResponse, *app_error.AppError) {
	room, appErr := c.ChatRepo.FindOrCreateStateRoom(ctx, userID, stateCode)
	if appErr != nil {
		return nil, appErr
	}

	if appErr := c.ChatRepo.AddMember(ctx, room.ID, userID); appErr != nil {
		return nil, appErr
	}

	return roomToDTO(room), nil
}

func (c *ChatService) StartDirectConversation(ctx context.Context, userID, otherUserID string) (*chat_dto.RoomResponse, *app_error.AppError) {
	if userID == otherUserID {
		return nil, app_error.InvalidArgument("cannot start a conversation with yourself", "user_id")
	}

	room, appErr := c.ChatRepo.FindOrCreateDirectRoom(ctx, userID, otherUserID)
	if appErr != nil {
		return nil, appErr
	}

	now := time.Now().UTC()
	if appErr := c.ChatRepo.UpsertContact(ctx, userID, otherUserID, now); appErr != nil {
		log.Error().Err(appErr).Str("userID", userID).Msg("failed to update contact recency")
	}
	if appErr := c.ChatRepo.UpsertContact(ctx, otherUserID, userID, now); appErr != nil {
		log.Error().Err(appErr).Str("userID", otherUserID).Msg("failed to update contact recency")
	}

	return roomToDTO(room), nil
}

func (c *ChatService) ListContacts(ctx context.Context, userID string) (*chat_dto.ListContactsResponse, *app_error.AppError) {
	contacts, appErr := c.ChatRepo.ListContacts(ctx, userID)
	if appErr != nil {
		return nil, appErr
	}

	ids := make([]string, 0, len(contacts))
	for _, contact := range contacts {
		ids = append(ids, contact.ContactID)
	}

	// Name/CRM come from the shared user directory. Enrichment is best
	// effort; the contact list stays usable without it.
	users, appErr := c.ChatRepo.FindUsersByIDs(ctx, ids)
	if appErr != nil {
		log.Warn().Err(appErr).Str("userID", userID).Msg("failed to resolve contact names")
		users = map[string]*entity.User{}
	}

	resp := make([]chat_dto.ContactResponse, 0, len(contacts))
	for _, contact := range contacts {
		item := chat_dto.ContactResponse{
			ContactID:     contact.ContactID,
			LastContactAt: contact.LastContactAt,
		}
		if user, ok := users[contact.ContactID]; ok {
			item.Name = user.Name
			item.CRM = user.CRM
		}
		resp = append(resp, item)
	}

	return &chat_dto.ListContactsResponse{Contacts: resp}, nil
}

// SweepExpired deletes every message past its expiry. Idempotent and safe
// to run concurrently with itself and with sends; visibility does not
// depend on it because ListMessages filters at query time.
func (c *ChatService) SweepExpired(ctx context.Context) (int64, *app_error.AppError) {
	deleted, appErr := c.ChatRepo.DeleteExpired(ctx, time.Now().UTC())
	if appErr != nil {
		return 0, appErr
	}

	if deleted > 0 {
		log.Info().Int64("deleted", deleted).Msg("expired messages swept")
	}
	return deleted, nil
}

func (c *ChatService) IsMember(ctx context.Context, roomID, userID string) (bool, error) {
	rid, err := uuid.Parse(roomID)
	if err != nil {
		return false, err
	}
	member, appErr := c.ChatRepo.IsMember(ctx, rid, userID)
	if appErr != nil {
		return false, appErr
	}
	return member, nil
}

func roomToDTO(room *entity.ChatRoom) *chat_dto.RoomResponse {
	return &chat_dto.RoomResponse{
		RoomID:    room.ID.String(),
		Kind:      room.Kind,
		StateCode: room.StateCode,
		Name:      room.Name,
		CreatedAt: room.CreatedAt,
	}
}
