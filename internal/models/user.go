package models

import "time"

// User represents application user.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id" db:"id"`
	Username     string    `gorm:"size:64;uniqueIndex;not null" json:"username" db:"username"`
	Email        string    `gorm:"size:128;uniqueIndex;not null" json:"email" db:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
