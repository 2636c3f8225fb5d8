package models

import (
	"time"

	"gorm.io/gorm"
)

type Product struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CategoryID uint      `gorm:"index;not null" json:"category_id"`
	Category   *Category `json:"category,omitempty"`
	Name       string    `gorm:"size:150;not null" json:"name"`
	SKU        string    `gorm:"size:50;index" json:"sku"`
	// BPOM registration number for drug/food products, when applicable.
	BPOMNumber string  `gorm:"size:50" json:"bpom_number"`
	Price      float64 `gorm:"not null" json:"price"`
	Cost       float64 `json:"cost"`
	Stock      int     `gorm:"not null;default:0" json:"stock"`
	MinStock   int     `gorm:"not null;default:0" json:"min_stock"`
	// Per-product commission percentage; nil falls through to category, then global.
	CommissionRate *float64       `json:"commission_rate"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Product) Fillable() []string {
	return []string{
		"category_id", "name", "sku", "bpom_number",
		"price", "cost", "stock", "min_stock", "commission_rate",
	}
}
