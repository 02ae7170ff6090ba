package status

import (
	"encoding/json"
	"time"
)

// Discomfort is one reported symptom for the day.
type Discomfort struct {
	Description string `json:"description"`
	Severity    int    `json:"severity"` // 1 (mild) .. 5 (severe)
}

// DailyStatus is the user's self-report for one date. At most one record
// per (user, date), enforced by a unique index.
type DailyStatus struct {
	ID     uint64    `gorm:"primaryKey"`
	UserID uint64    `gorm:"index;not null"`
	Date   time.Time `gorm:"type:date;not null"`

	Discomforts    json.RawMessage `gorm:"type:jsonb;not null"` // []Discomfort
	AdditionalInfo string          `gorm:"not null;default:''"`

	CreatedAt time.Time `gorm:"not null"`
}
