package entity

import "time"

// User is read-only in this service; accounts are managed elsewhere.
type User struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	CRM       string `gorm:"column:crm"`
	StateCode string `gorm:"size:2"`
	Email     string `gorm:"uniqueIndex"`
	CreatedAt time.Time
}
