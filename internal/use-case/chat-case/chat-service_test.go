package chat_service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/eudesrpj/salva-plantao-app-sub001/internal/dtos/chat_dto"
	"github.com/eudesrpj/salva-plantao-app-sub001/internal/entity"
	app_error "github.com/eudesrpj/salva-plantao-app-sub001/internal/errors"
	"github.com/eudesrpj/salva-plantao-app-sub001/internal/queue"
	chat_repo "github.com/eudesrpj/salva-plantao-app-sub001/internal/repo/chat"
	"github.com/eudesrpj/salva-plantao-app-sub001/state"
)

func newTestService(t *testing.T) (*ChatService, *redis.Client) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to open test database")

	err = db.AutoMigrate(
		&entity.ChatRoom{},
		&entity.ChatRoomMember{},
		&entity.ChatMessage{},
		&entity.ChatContact{},
		&entity.BlockedMessageLog{},
		&entity.DeadLetterJob{},
		&entity.User{},
	)
	require.NoError(t, err, "failed to migrate test schema")

	mockRedis := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mockRedis.Addr()})
	t.Cleanup(func() { rdb.Close() })

	appState := &state.AppState{
		Ctx:   context.Background(),
		DB:    db,
		Redis: rdb,
	}

	service := &ChatService{
		AppState: appState,
		ChatRepo: chat_repo.NewChatRepo(appState),
		Producer: queue.NewProducer(rdb),
	}
	return service, rdb
}

func joinedRoom(t *testing.T, svc *ChatService, userID, stateCode string) string {
	room, appErr := svc.JoinStateRoom(context.Background(), userID, stateCode)
	require.Nil(t, appErr)
	return room.RoomID
}

func TestSendMessage_PersistsWithDayLifetime(t *testing.T) {
	svc, rdb := newTestService(t)
	ctx := context.Background()
	roomID := joinedRoom(t, svc, "doctor-1", "SP")

	msg, appErr := svc.SendMessage(ctx, roomID, "doctor-1", chat_dto.SendMessageRequest{
		Body: "alguém cobre meu plantão sábado?",
	})
	require.Nil(t, appErr)
	require.NotNil(t, msg)
	assert.Equal(t, roomID, msg.RoomID)
	assert.Equal(t, msg.CreatedAt.Add(entity.MessageTTL), msg.ExpiresAt, "expiry is fixed at creation")

	list, appErr := svc.ListMessages(ctx, roomID, "doctor-1", time.Time{})
	require.Nil(t, appErr)
	require.Len(t, list.Messages, 1)
	assert.Equal(t, msg.MessageID, list.Messages[0].MessageID)

	// Fan-out job lands on the queue after the write.
	pending, err := rdb.ZCard(ctx, queue.QueueKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)
}

func TestSendMessage_RejectsNonMember(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	roomID := joinedRoom(t, svc, "doctor-1", "SP")

	msg, appErr := svc.SendMessage(ctx, roomID, "doctor-2", chat_dto.SendMessageRequest{
		Body: "oi pessoal",
	})
	assert.Nil(t, msg)
	require.NotNil(t, appErr)
	assert.Equal(t, app_error.KindNotAMember, appErr.Kind)

	var count int64
	require.NoError(t, svc.AppState.DB.Model(&entity.ChatMessage{}).Count(&count).Error)
	assert.Equal(t, int64(0), count, "rejected send must not persist anything")
}

func TestSendMessage_BlocksIdentifierBodies(t *testing.T) {
	svc, rdb := newTestService(t)
	ctx := context.Background()
	roomID := joinedRoom(t, svc, "doctor-1", "SP")

	msg, appErr := svc.SendMessage(ctx, roomID, "doctor-1", chat_dto.SendMessageRequest{
		Body:      "paciente CPF 123.456.789-09 internado",
		Confirmed: true, // confirmation never overrides a block
	})
	assert.Nil(t, msg)
	require.NotNil(t, appErr)
	assert.Equal(t, app_error.KindContentBlocked, appErr.Kind)

	var msgCount int64
	require.NoError(t, svc.AppState.DB.Model(&entity.ChatMessage{}).Count(&msgCount).Error)
	assert.Equal(t, int64(0), msgCount)

	var logs []entity.BlockedMessageLog
	require.NoError(t, svc.AppState.DB.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "doctor-1", logs[0].UserID)

	pending, err := rdb.ZCard(ctx, queue.QueueKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending, "blocked send must not enqueue fan-out")
}

func TestSendMessage_WarningRequiresConfirmation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	roomID := joinedRoom(t, svc, "doctor-1", "SP")

	body := "me chama em fulano@hospital.com.br"

	msg, appErr := svc.SendMessage(ctx, roomID, "doctor-1", chat_dto.SendMessageRequest{Body: body})
	assert.Nil(t, msg)
	require.NotNil(t, appErr)
	assert.Equal(t, app_error.KindContentWarning, appErr.Kind)

	msg, appErr = svc.SendMessage(ctx, roomID, "doctor-1", chat_dto.SendMessageRequest{Body: body, Confirmed: true})
	require.Nil(t, appErr)
	require.NotNil(t, msg)
	assert.Equal(t, body, msg.Body)
}

func TestListMessages_HidesExpiredWithoutSweep(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	roomID := joinedRoom(t, svc, "doctor-1", "SP")

	rid, err := uuid.Parse(roomID)
	require.NoError(t, err)

	sender := "doctor-1"
	stale := time.Now().UTC().Add(-25 * time.Hour)
	require.Nil(t, svc.ChatRepo.InsertMessage(ctx, &entity.ChatMessage{
		ID:        uuid.New(),
		RoomID:    rid,
		SenderID:  &sender,
		Body:      "mensagem de ontem",
		CreatedAt: stale,
		ExpiresAt: stale.Add(entity.MessageTTL),
	}))

	list, appErr := svc.ListMessages(ctx, roomID, "doctor-1", time.Time{})
	require.Nil(t, appErr)
	assert.Empty(t, list.Messages, "expired messages are invisible even before the sweep runs")
}

func TestListMessages_RejectsNonMember(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	roomID := joinedRoom(t, svc, "doctor-1", "SP")

	list, appErr := svc.ListMessages(ctx, roomID, "doctor-2", time.Time{})
	assert.Nil(t, list)
	require.NotNil(t, appErr)
	assert.Equal(t, app_error.KindNotAMember, appErr.Kind)
}

func TestSweepExpired_IdempotentDelete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	roomID := joinedRoom(t, svc, "doctor-1", "SP")

	rid, err := uuid.Parse(roomID)
	require.NoError(t, err)

	sender := "doctor-1"
	for i, age := range []time.Duration{30 * time.Hour, 25 * time.Hour} {
		created := time.Now().UTC().Add(-age)
		require.Nil(t, svc.ChatRepo.InsertMessage(ctx, &entity.ChatMessage{
			ID:        uuid.New(),
			RoomID:    rid,
			SenderID:  &sender,
			Body:      fmt.Sprintf("vencida %d", i),
			CreatedAt: created,
			ExpiresAt: created.Add(entity.MessageTTL),
		}))
	}

	fresh, appErr := svc.SendMessage(ctx, roomID, "doctor-1", chat_dto.SendMessageRequest{Body: "ainda válida"})
	require.Nil(t, appErr)

	deleted, appErr := svc.SweepExpired(ctx)
	require.Nil(t, appErr)
	assert.Equal(t, int64(2), deleted)

	deleted, appErr = svc.SweepExpired(ctx)
	require.Nil(t, appErr)
	assert.Equal(t, int64(0), deleted, "second sweep over the same rows is a no-op")

	list, appErr := svc.ListMessages(ctx, roomID, "doctor-1", time.Time{})
	require.Nil(t, appErr)
	require.Len(t, list.Messages, 1)
	assert.Equal(t, fresh.MessageID, list.Messages[0].MessageID)
}

func TestJoinStateRoom_Idempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, appErr := svc.JoinStateRoom(ctx, "doctor-1", "BA")
	require.Nil(t, appErr)
	assert.Equal(t, entity.RoomKindGroup, first.Kind)
	require.NotNil(t, first.Name)
	assert.Equal(t, "Plantão BA", *first.Name)

	second, appErr := svc.JoinStateRoom(ctx, "doctor-1", "BA")
	require.Nil(t, appErr)
	assert.Equal(t, first.RoomID, second.RoomID)

	joined, appErr := svc.JoinStateRoom(ctx, "doctor-2", "BA")
	require.Nil(t, appErr)
	assert.Equal(t, first.RoomID, joined.RoomID, "every doctor of a state shares one room")
}

func TestStartDirectConversation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	room, appErr := svc.StartDirectConversation(ctx, "doctor-1", "doctor-1")
	assert.Nil(t, room)
	require.NotNil(t, appErr)
	assert.Equal(t, app_error.KindInvalidArgument, appErr.Kind)

	require.NoError(t, svc.AppState.DB.Create(&entity.User{
		ID: "doctor-2", Name: "Maria Souza", CRM: "CRM/SP 123456", StateCode: "SP", Email: "maria@example.com",
	}).Error)

	room, appErr = svc.StartDirectConversation(ctx, "doctor-1", "doctor-2")
	require.Nil(t, appErr)
	assert.Equal(t, entity.RoomKindDirect, room.Kind)

	// Both sides can message right away and see each other as contacts.
	msg, appErr := svc.SendMessage(ctx, room.RoomID, "doctor-2", chat_dto.SendMessageRequest{Body: "oi!"})
	require.Nil(t, appErr)
	require.NotNil(t, msg)

	contacts, appErr := svc.ListContacts(ctx, "doctor-1")
	require.Nil(t, appErr)
	require.Len(t, contacts.Contacts, 1)
	assert.Equal(t, "doctor-2", contacts.Contacts[0].ContactID)
	assert.Equal(t, "Maria Souza", contacts.Contacts[0].Name, "contact entries carry the directory name")
	assert.Equal(t, "CRM/SP 123456", contacts.Contacts[0].CRM)

	contacts, appErr = svc.ListContacts(ctx, "doctor-2")
	require.Nil(t, appErr)
	require.Len(t, contacts.Contacts, 1)
	assert.Equal(t, "doctor-1", contacts.Contacts[0].ContactID)
	assert.Empty(t, contacts.Contacts[0].Name, "unknown directory entries degrade gracefully")
}

func TestIsMember(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	roomID := joinedRoom(t, svc, "doctor-1", "SP")

	member, err := svc.IsMember(ctx, roomID, "doctor-1")
	require.NoError(t, err)
	assert.True(t, member)

	member, err = svc.IsMember(ctx, roomID, "doctor-2")
	require.NoError(t, err)
	assert.False(t, member)

	_, err = svc.IsMember(ctx, "not-a-uuid", "doctor-1")
	assert.Error(t, err)
}
