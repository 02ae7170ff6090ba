package prescription

import "time"

// Prescription is the validity window every schedule hangs off.
// Dates are calendar dates at midnight UTC, both ends inclusive.
type Prescription struct {
	ID       uint64 `gorm:"primaryKey"`
	UserID   uint64 `gorm:"index;not null"`
	Name     string `gorm:"not null"`
	Hospital string `gorm:"not null"`

	StartDate time.Time `gorm:"type:date;not null"`
	EndDate   time.Time `gorm:"type:date;not null"`

	Active    bool      `gorm:"index;not null;default:true"`
	CreatedAt time.Time `gorm:"not null"`
}
