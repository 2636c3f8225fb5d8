package models

import "time"

// PasswordReset records an outstanding reset link. The token itself is a
// signed JWT handed to the user; only its jti is stored here so a consumed
// or superseded link can be refused even before its signature expires.
type PasswordReset struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"index;not null"`
	TokenID   string    `gorm:"size:64;uniqueIndex;not null"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time
}
