package models

import (
	"time"
)

// User mirrors the identity service's user table; the engine only checks
// that an id exists.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Username  string    `json:"username" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`
}
