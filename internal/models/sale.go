package models

import "time"

type Sale struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	InvoiceNumber string     `gorm:"size:30;uniqueIndex;not null" json:"invoice_number"`
	UserID        uint       `gorm:"index;not null" json:"user_id"` // cashier
	User          *User      `json:"user,omitempty"`
	CustomerID    *uint      `gorm:"index" json:"customer_id"`
	Customer      *Customer  `json:"customer,omitempty"`
	Subtotal      float64    `gorm:"not null" json:"subtotal"`
	Discount      float64    `json:"discount"`
	Total         float64    `gorm:"not null" json:"total"`
	Paid          float64    `gorm:"not null" json:"paid"`
	Change        float64    `json:"change"`
	Items         []SaleItem `json:"items,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type SaleItem struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	SaleID    uint     `gorm:"index;not null" json:"sale_id"`
	ProductID uint     `gorm:"index;not null" json:"product_id"`
	Product   *Product `json:"product,omitempty"`
	Quantity  int      `gorm:"not null" json:"quantity"`
	UnitPrice float64  `gorm:"not null" json:"unit_price"`
	LineTotal float64  `gorm:"not null" json:"line_total"`
}
