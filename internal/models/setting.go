package models

import "time"

// Global key-value settings. The default commission percentage lives under
// SettingCommissionRate and is the last fallback of the rate resolution.
const SettingCommissionRate = "commission_rate"

type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"size:50;uniqueIndex;not null" json:"key"`
	Value     string    `gorm:"size:255;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) Fillable() []string {
	return []string{"key", "value"}
}
