package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage rows live for exactly 24 hours. ExpiresAt is set once at
// creation and never mutated; visibility is enforced at query time and
// expired rows are removed by the sweep.
type ChatMessage struct {
	ID        uuid.UUID `gorm:"primaryKey"`
	RoomID    uuid.UUID `gorm:"not null;index:idx_messages_room_created"`
	SenderID  *string   // nil once the sender account is deleted
	Body      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null;index:idx_messages_room_created"`
	ExpiresAt time.Time `gorm:"not null;index"`

	Room ChatRoom `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE"`
}

// MessageTTL is how long a message stays visible after creation.
const MessageTTL = 24 * time.Hour
