package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoomKindGroup  = "group"
	RoomKindDirect = "direct"
)

// ChatRoom is immutable after creation except for its membership.
// Rooms are never deleted in normal operation. StateCode is unique so
// concurrent first joins of a state cannot split it into two rooms;
// direct rooms store NULL there and are unconstrained.
type ChatRoom struct {
	ID        uuid.UUID `gorm:"primaryKey"`
	Kind      string    `gorm:"not null"`
	StateCode *string   `gorm:"size:2;uniqueIndex"`
	Name      *string
	CreatedBy string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

type ChatRoomMember struct {
	ID       int64     `gorm:"primaryKey"`
	RoomID   uuid.UUID `gorm:"not null;uniqueIndex:idx_room_user"`
	UserID   string    `gorm:"not null;uniqueIndex:idx_room_user"`
	JoinedAt time.Time `gorm:"autoCreateTime"`

	Room ChatRoom `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE"`
}
