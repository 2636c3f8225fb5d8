package models

import "time"

type NotificationKind string

const (
	NotifySaleRecorded NotificationKind = "sale_recorded"
	NotifyLowStock     NotificationKind = "low_stock"
	NotifySystem       NotificationKind = "system"
)

type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"index;not null" json:"user_id"`
	Kind      NotificationKind `gorm:"size:30;not null" json:"kind"`
	Title     string           `gorm:"size:150;not null" json:"title"`
	Body      string           `gorm:"size:500" json:"body"`
	ReadAt    *time.Time       `json:"read_at"`
	CreatedAt time.Time        `json:"created_at"`
}
