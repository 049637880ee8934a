package entity

import (
	"encoding/json"
	"time"
)

// DeadLetterJob is a queue job that exhausted its retries, kept for audit.
type DeadLetterJob struct {
	ID         int64           `gorm:"primaryKey"`
	JobID      string          `gorm:"not null;index"`
	Type       string          `gorm:"not null"`
	Payload    json.RawMessage `gorm:"type:jsonb"`
	ErrorMsg   string
	RetryCount int
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}
