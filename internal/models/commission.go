package models

import "time"

type CommissionStatus string

const (
	CommissionPending CommissionStatus = "pending"
	CommissionPaid    CommissionStatus = "paid"
)

type Commission struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	SaleID    uint             `gorm:"index;not null" json:"sale_id"`
	UserID    uint             `gorm:"index;not null" json:"user_id"`
	Amount    float64          `gorm:"not null" json:"amount"`
	Status    CommissionStatus `gorm:"size:20;index;not null;default:pending" json:"status"`
	PaidAt    *time.Time       `json:"paid_at"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
