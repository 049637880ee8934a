package entity

import (
	"time"

	"github.com/google/uuid"
)

// BlockedMessageLog records rejected-send attempts for abuse monitoring.
// Never exposed to other users.
type BlockedMessageLog struct {
	ID        uuid.UUID `gorm:"primaryKey"`
	UserID    string    `gorm:"not null;index"`
	RoomID    *uuid.UUID
	Reason    string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
