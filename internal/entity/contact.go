package entity

import "time"

// ChatContact is an informational recency list, not a permission relation.
type ChatContact struct {
	ID            int64     `gorm:"primaryKey"`
	UserID        string    `gorm:"not null;uniqueIndex:idx_user_contact"`
	ContactID     string    `gorm:"not null;uniqueIndex:idx_user_contact"`
	LastContactAt time.Time `gorm:"not null"`
}
