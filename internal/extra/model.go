package extra

import "time"

// Med is an ad-hoc dose taken outside any schedule (a painkiller, a
// supplement). It carries a full timestamp, not just a date.
type Med struct {
	ID     uint64 `gorm:"primaryKey"`
	UserID uint64 `gorm:"index;not null"`

	Name string `gorm:"not null"`
	Dose string `gorm:"not null"`
	Unit string `gorm:"not null"`

	TakenAt time.Time `gorm:"index;not null"`
	Active  bool      `gorm:"not null;default:true"`

	CreatedAt time.Time `gorm:"not null"`
}

func (Med) TableName() string { return "extra_meds" }
