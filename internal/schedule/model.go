package schedule

import (
	"time"

	"github.com/lib/pq"
)

type FrequencyType string

const (
	FrequencyInterval FrequencyType = "interval" // every N days
	FrequencyWeekdays FrequencyType = "weekdays" // fixed set of weekdays
	FrequencyCustom   FrequencyType = "custom"   // free-form, no generated events
)

// ConflictPolicy decides what happens to existing dose events when a
// schedule is reconciled. The numeric values are part of the API.
type ConflictPolicy int

const (
	DeleteAll     ConflictPolicy = 0 // drop every event, regenerate from scratch
	DeleteUntaken ConflictPolicy = 1 // drop only untaken events, keep taken history
	KeepExisting  ConflictPolicy = 2 // keep everything, fill the gaps
)

func (p ConflictPolicy) Valid() bool {
	return p >= DeleteAll && p <= KeepExisting
}

// Schedule describes how one medicine inside a prescription is taken.
// Exactly one of the Frequency* fields is populated, matching FrequencyType.
type Schedule struct {
	ID             uint64  `gorm:"primaryKey"`
	UserID         uint64  `gorm:"index;not null"`
	PrescriptionID uint64  `gorm:"index;not null"`
	MedicineID     *uint64 `gorm:"index"` // optional catalog link

	MedicineName string `gorm:"not null"`
	Dose         string `gorm:"not null;default:''"`
	Unit         string `gorm:"not null;default:''"`

	FrequencyType     FrequencyType `gorm:"type:text;not null"`
	FrequencyInterval int           `gorm:"not null;default:0"`
	FrequencyWeekdays pq.Int64Array `gorm:"type:integer[]"` // 0 = Sunday .. 6 = Saturday
	FrequencyCustom   string        `gorm:"not null;default:''"`

	Times     pq.StringArray `gorm:"type:text[]"` // ordered slot labels, e.g. morning/noon/evening
	StartDate time.Time      `gorm:"type:date;not null"`
	Active    bool           `gorm:"index;not null;default:true"`
	CreatedAt time.Time      `gorm:"not null"`
}

// DoseEvent is one concrete dated dose. Medicine fields are denormalized so
// history stays readable after the schedule is edited or deactivated.
// (schedule_id, take_date, time_slot) is unique among active events,
// enforced by a partial unique index.
type DoseEvent struct {
	ID             uint64  `gorm:"primaryKey"`
	UserID         uint64  `gorm:"index;not null"`
	PrescriptionID uint64  `gorm:"index;not null"`
	ScheduleID     uint64  `gorm:"index;not null"`
	MedicineID     *uint64 `gorm:"index"`

	MedicineName string `gorm:"not null"`
	Dose         string `gorm:"not null;default:''"`
	Unit         string `gorm:"not null;default:''"`

	TakeDate time.Time `gorm:"type:date;not null"`
	TimeSlot string    `gorm:"not null"`
	Taken    bool      `gorm:"not null;default:false"`
	Active   bool      `gorm:"index;not null;default:true"`

	CreatedAt time.Time `gorm:"not null"`
}
