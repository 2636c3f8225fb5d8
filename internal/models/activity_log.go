package models

import "time"

type ActivityAction string

const (
	ActivityLogin         ActivityAction = "login"
	ActivityLogout        ActivityAction = "logout"
	ActivityPasswordReset ActivityAction = "password_reset"
	ActivityCreate        ActivityAction = "create"
	ActivityUpdate        ActivityAction = "update"
	ActivityDelete        ActivityAction = "delete"
)

// ActivityLog is append-only; rows are never updated or deleted by the
// application. Pruning is an operational concern.
type ActivityLog struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      *uint          `gorm:"index" json:"user_id"`
	Action      ActivityAction `gorm:"size:30;index;not null" json:"action"`
	Description string         `gorm:"size:255" json:"description"`
	IPAddress   string         `gorm:"size:45" json:"ip_address"`
	UserAgent   string         `gorm:"size:255" json:"user_agent"`
	CreatedAt   time.Time      `json:"created_at"`
}
