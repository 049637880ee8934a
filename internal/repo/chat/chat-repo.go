package chat_repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/eudesrpj/salva-plantao-app-sub001/internal/entity"
	app_error "github.com/eudesrpj/salva-plantao-app-sub001/internal/errors"
	"github.com/eudesrpj/salva-plantao-app-sub001/state"
)

type ChatRepo struct {
	AppState *state.AppState
}

func NewChatRepo(appState *state.AppState) ChatRepoContract {
	return &ChatRepo{
		AppState: appState,
	}
}

// classifyStorageErr maps a gorm error onto the failure taxonomy. Foreign
// key violations on insert mean the room vanished between the membership
// check and the write; everything else storage-side is treated as
// transient and retryable by the caller.
func classifyStorageErr(err error, notFoundMsg string) *app_error.AppError {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return app_error.NotFound(notFoundMsg)
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "foreign key") {
		return app_error.RoomGone("room no longer exists")
	}
	return app_error.TransientStorage("storage unavailable, try again")
}

func (r *ChatRepo) FindOrCreateDirectRoom(ctx context.Context, senderID, receiverID string) (*entity.ChatRoom, *app_error.AppError) {
	room, err := r.findDirectRoom(ctx, senderID, receiverID)
	if err == nil {
		return room, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, app_error.TransientStorage("failed to query direct room")
	}

	newRoom, appErr := r.createDirectRoom(ctx, senderID, receiverID)
	if appErr != nil {
		// Creation race: both sides opened the conversation at once.
		// Unlike state rooms, no schema constraint covers the member
		// pair, so this fallback only catches races that surface as a
		// unique/duplicate error; a clean tie can still create two
		// rooms and the find query settles on one of them.
		if strings.Contains(strings.ToLower(appErr.Message), "duplicate") || strings.Contains(strings.ToLower(appErr.Message), "unique") {
			room, err := r.findDirectRoom(ctx, senderID, receiverID)
			if err == nil {
				return room, nil
			}
		}
		return nil, appErr
	}

	return newRoom, nil
}

func (r *ChatRepo) findDirectRoom(ctx context.Context, senderID, receiverID string) (*entity.ChatRoom, error) {
	var room entity.ChatRoom

	query := `
		SELECT r.* FROM chat_rooms r
		WHERE r.kind = 'direct'
		AND r.id IN (
			SELECT m1.room_id
			FROM chat_room_members m1
			WHERE m1.user_id = ?
			AND EXISTS (
				SELECT 1 FROM chat_room_members m2
				WHERE m2.room_id = m1.room_id
				AND m2.user_id = ?
			)
			AND (
				SELECT COUNT(*) FROM chat_room_members m3
				WHERE m3.room_id = m1.room_id
			) = 2
		)
	`
	err := r.AppState.DB.WithContext(ctx).Raw(query, senderID, receiverID).First(&room).Error
	return &room, err
}

func (r *ChatRepo) createDirectRoom(ctx context.Context, senderID, receiverID string) (*entity.ChatRoom, *app_error.AppError) {
	tx := r.AppState.DB.WithContext(ctx).Begin()
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
		}
	}()

	newRoom := &entity.ChatRoom{
		ID:        uuid.New(),
		Kind:      entity.RoomKindDirect,
		CreatedBy: senderID,
	}

	if err := tx.Create(newRoom).Error; err != nil {
		tx.Rollback()
		return nil, app_error.Internal("failed to create direct room: "+err.Error(), "db-error")
	}

	members := []entity.ChatRoomMember{
		{RoomID: newRoom.ID, UserID: senderID},
		{RoomID: newRoom.ID, UserID: receiverID},
	}

	if err := tx.Create(&members).Error; err != nil {
		tx.Rollback()
		return nil, app_error.Internal("failed to add members to direct room: "+err.Error(), "db-error")
	}

	if err := tx.Commit().Error; err != nil {
		return nil, app_error.TransientStorage("failed to commit room creation")
	}

	return newRoom, nil
}

func (r *ChatRepo) FindOrCreateStateRoom(ctx context.Context, userID, stateCode string) (*entity.ChatRoom, *app_error.AppError) {
	var room entity.ChatRoom
	err := r.AppState.DB.WithContext(ctx).
		Where("kind = ? AND state_code = ?", entity.RoomKindGroup, stateCode).
		First(&room).Error
	if err == nil {
		return &room, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, app_error.TransientStorage("failed to query state room")
	}

	name := "Plantão " + stateCode
	newRoom := entity.ChatRoom{
		ID:        uuid.New(),
		Kind:      entity.RoomKindGroup,
		StateCode: &stateCode,
		Name:      &name,
		CreatedBy: userID,
	}
	if err := r.AppState.DB.WithContext(ctx).Create(&newRoom).Error; err != nil {
		// Concurrent first-join of the same state: re-find wins.
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique") {
			if ferr := r.AppState.DB.WithContext(ctx).
				Where("kind = ? AND state_code = ?", entity.RoomKindGroup, stateCode).
				First(&room).Error; ferr == nil {
				return &room, nil
			}
		}
		log.Error().Err(err).Str("stateCode", stateCode).Msg("failed to create state room")
		return nil, app_error.TransientStorage("failed to create state room")
	}

	return &newRoom, nil
}

func (r *ChatRepo) FindRoomByID(ctx context.Context, roomID uuid.UUID) (*entity.ChatRoom, *app_error.AppError) {
	var room entity.ChatRoom
	if err := r.AppState.DB.WithContext(ctx).Where("id = ?", roomID).First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NotFound("room not found")
		}
		log.Error().Err(err).Str("roomID", roomID.String()).Msg("failed to fetch room")
		return nil, app_error.TransientStorage("failed to fetch room")
	}
	return &room, nil
}

func (r *ChatRepo) AddMember(ctx context.Context, roomID uuid.UUID, userID string) *app_error.AppError {
	member := entity.ChatRoomMember{RoomID: roomID, UserID: userID}
	err := r.AppState.DB.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		FirstOrCreate(&member).Error
	if err != nil {
		return classifyStorageErr(err, "room not found")
	}
	return nil
}

func (r *ChatRepo) IsMember(ctx context.Context, roomID uuid.UUID, userID string) (bool, *app_error.AppError) {
	var count int64
	err := r.AppState.DB.WithContext(ctx).
		Model(&entity.ChatRoomMember{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count).Error
	if err != nil {
		return false, app_error.TransientStorage("failed to check room membership")
	}
	return count > 0, nil
}

func (r *ChatRepo) InsertMessage(ctx context.Context, msg *entity.ChatMessage) *app_error.AppError {
	if err := r.AppState.DB.WithContext(ctx).Create(msg).Error; err != nil {
		log.Error().Err(err).Str("roomID", msg.RoomID.String()).Msg("failed to insert message")
		return classifyStorageErr(err, "room not found")
	}
	return nil
}

// ListMessages filters expired rows at query time. Visibility never
// depends on the sweep having run.
func (r *ChatRepo) ListMessages(ctx context.Context, roomID uuid.UUID, asOf time.Time) ([]*entity.ChatMessage, *app_error.AppError) {
	var messages []*entity.ChatMessage
	err := r.AppState.DB.WithContext(ctx).
		Where("room_id = ? AND expires_at > ?", roomID, asOf).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, app_error.TransientStorage("failed to fetch messages")
	}
	return messages, nil
}

// DeleteExpired is idempotent: deleting rows that are already gone is a
// no-op, so concurrent sweeps are safe.
func (r *ChatRepo) DeleteExpired(ctx context.Context, asOf time.Time) (int64, *app_error.AppError) {
	result := r.AppState.DB.WithContext(ctx).
		Where("expires_at <= ?", asOf).
		Delete(&entity.ChatMessage{})
	if result.Error != nil {
		return 0, app_error.TransientStorage("failed to delete expired messages")
	}
	return result.RowsAffected, nil
}

func (r *ChatRepo) LogBlockedSend(ctx context.Context, userID string, roomID *uuid.UUID, reason string) *app_error.AppError {
	row := entity.BlockedMessageLog{
		ID:     uuid.New(),
		UserID: userID,
		RoomID: roomID,
		Reason: reason,
	}
	if err := r.AppState.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return app_error.TransientStorage("failed to record blocked send")
	}
	return nil
}

func (r *ChatRepo) UpsertContact(ctx context.Context, userID, contactID string, at time.Time) *app_error.AppError {
	row := entity.ChatContact{
		UserID:        userID,
		ContactID:     contactID,
		LastContactAt: at,
	}
	err := r.AppState.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "contact_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_contact_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return app_error.TransientStorage("failed to update contact")
	}
	return nil
}

func (r *ChatRepo) ListContacts(ctx context.Context, userID string) ([]*entity.ChatContact, *app_error.AppError) {
	var contacts []*entity.ChatContact
	err := r.AppState.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_contact_at DESC").
		Find(&contacts).Error
	if err != nil {
		return nil, app_error.TransientStorage("failed to fetch contacts")
	}
	return contacts, nil
}

// FindUsersByIDs resolves user ids against the shared users table. The
// table is owned by the main application; this service only reads it.
func (r *ChatRepo) FindUsersByIDs(ctx context.Context, ids []string) (map[string]*entity.User, *app_error.AppError) {
	out := make(map[string]*entity.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var users []*entity.User
	err := r.AppState.DB.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&users).Error
	if err != nil {
		return nil, app_error.TransientStorage("failed to fetch users")
	}

	for _, user := range users {
		out[user.ID] = user
	}
	return out, nil
}

func (r *ChatRepo) SaveDeadLetter(ctx context.Context, job *entity.DeadLetterJob) error {
	return r.AppState.DB.WithContext(ctx).Create(job).Error
}
