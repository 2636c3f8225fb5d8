package models

import "time"

// BPOMProduct caches lookups against the national drug/food registry so
// repeated checks of the same registration number stay off the network.
type BPOMProduct struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	RegistrationNumber string    `gorm:"size:50;uniqueIndex;not null" json:"registration_number"`
	ProductName        string    `gorm:"size:200" json:"product_name"`
	Manufacturer       string    `gorm:"size:200" json:"manufacturer"`
	IssuedAt           string    `gorm:"size:30" json:"issued_at"`
	FetchedAt          time.Time `json:"fetched_at"`
	CreatedAt          time.Time `json:"created_at"`
}
