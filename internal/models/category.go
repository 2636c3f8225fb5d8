package models

import (
	"time"

	"gorm.io/gorm"
)

type Category struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	Name        string   `gorm:"size:100;not null" json:"name"`
	Description string   `gorm:"size:255" json:"description"`
	// Per-category commission percentage; nil falls through to the global rate.
	CommissionRate *float64       `json:"commission_rate"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Category) Fillable() []string {
	return []string{"name", "description", "commission_rate"}
}
