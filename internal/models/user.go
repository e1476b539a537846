package models

import "time"

// User is an account accepted by the backend login endpoint.
type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"size:64;not null;uniqueIndex"`
	PasswordHash string `gorm:"size:72;not null"` // bcrypt
	Mobile       string `gorm:"size:16;index"`
	CreatedAt    time.Time
}
