package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dosetrack/internal/prescription"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

var ErrValidation = errors.New("invalid input")
var ErrNotFound = errors.New("not found")
var ErrConflict = errors.New("conflict")

type Service struct {
	DB *gorm.DB
}

type CreateInput struct {
	PrescriptionID uint64
	MedicineID     *uint64
	MedicineName   string
	Dose           string
	Unit           string
	Frequency      Frequency
	Times          []string
	StartDate      time.Time
}

// Create persists a schedule and materializes its dose events over the
// owning prescription's window. Both happen in one transaction: callers see
// either the full ledger or an error.
func (s *Service) Create(ctx context.Context, userID uint64, in CreateInput) (Schedule, error) {
	in.MedicineName = strings.TrimSpace(in.MedicineName)
	if in.MedicineName == "" {
		return Schedule{}, fmt.Errorf("%w: medicine name is required", ErrValidation)
	}
	if err := in.Frequency.Validate(); err != nil {
		return Schedule{}, err
	}
	if in.StartDate.IsZero() {
		return Schedule{}, fmt.Errorf("%w: start date is required", ErrValidation)
	}
	if in.Frequency.Trackable() {
		if err := validateTimes(in.Times); err != nil {
			return Schedule{}, err
		}
	}

	p, err := s.findPrescription(ctx, s.DB, userID, in.PrescriptionID)
	if err != nil {
		return Schedule{}, err
	}
	if in.StartDate.After(p.EndDate) {
		return Schedule{}, fmt.Errorf("%w: start date is after the prescription window", ErrValidation)
	}

	sch := Schedule{
		UserID:            userID,
		PrescriptionID:    in.PrescriptionID,
		MedicineID:        in.MedicineID,
		MedicineName:      in.MedicineName,
		Dose:              in.Dose,
		Unit:              in.Unit,
		FrequencyType:     in.Frequency.Type,
		FrequencyInterval: in.Frequency.Interval,
		FrequencyWeekdays: toInt64Array(in.Frequency.Weekdays),
		FrequencyCustom:   in.Frequency.Custom,
		Times:             pq.StringArray(in.Times),
		StartDate:         in.StartDate,
		Active:            true,
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&sch).Error; err != nil {
			return err
		}
		events := expand(sch, p.EndDate, nil)
		if len(events) == 0 {
			return nil
		}
		return tx.Create(&events).Error
	})
	if err != nil {
		return Schedule{}, translateErr(err)
	}
	return sch, nil
}

// MarkTaken flips the taken flag on one active dose event owned by the user.
func (s *Service) MarkTaken(ctx context.Context, userID, eventID uint64, taken bool) error {
	res := s.DB.WithContext(ctx).Model(&DoseEvent{}).
		Where("id = ? AND user_id = ? AND active", eventID, userID).
		Update("taken", taken)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// expand runs the day/slot qualification loop and returns the events to
// insert. skip holds (day, slot) pairs that must not be emitted again.
func expand(sch Schedule, windowEnd time.Time, skip map[slotKey]bool) []DoseEvent {
	freq := sch.frequency()
	if !freq.Trackable() {
		return nil
	}

	var events []DoseEvent
	it := newDayIterator(freq, sch.StartDate, windowEnd)
	for {
		day, ok := it.next()
		if !ok {
			break
		}
		for _, slot := range sch.Times {
			if skip[slotKey{day.Format(time.DateOnly), slot}] {
				continue
			}
			events = append(events, DoseEvent{
				UserID:         sch.UserID,
				PrescriptionID: sch.PrescriptionID,
				ScheduleID:     sch.ID,
				MedicineID:     sch.MedicineID,
				MedicineName:   sch.MedicineName,
				Dose:           sch.Dose,
				Unit:           sch.Unit,
				TakeDate:       day,
				TimeSlot:       slot,
				Taken:          false,
				Active:         true,
			})
		}
	}
	return events
}

type slotKey struct {
	day  string // YYYY-MM-DD
	slot string
}

func (s *Service) findPrescription(ctx context.Context, tx *gorm.DB, userID, id uint64) (prescription.Prescription, error) {
	var p prescription.Prescription
	err := tx.WithContext(ctx).
		Where("id = ? AND user_id = ? AND active", id, userID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return prescription.Prescription{}, fmt.Errorf("%w: prescription %d", ErrNotFound, id)
	}
	if err != nil {
		return prescription.Prescription{}, err
	}
	return p, nil
}

func validateTimes(times []string) error {
	if len(times) == 0 {
		return fmt.Errorf("%w: at least one time slot is required", ErrValidation)
	}
	seen := map[string]bool{}
	for _, t := range times {
		if strings.TrimSpace(t) == "" {
			return fmt.Errorf("%w: empty time slot", ErrValidation)
		}
		if seen[t] {
			return fmt.Errorf("%w: time slot %q listed twice", ErrValidation, t)
		}
		seen[t] = true
	}
	return nil
}

func toInt64Array(days []int) pq.Int64Array {
	if len(days) == 0 {
		return nil
	}
	out := make(pq.Int64Array, 0, len(days))
	for _, d := range days {
		out = append(out, int64(d))
	}
	return out
}

// translateErr maps storage-level uniqueness violations onto ErrConflict.
// The partial unique index on (schedule_id, take_date, time_slot) makes
// racing materializations fail loudly instead of duplicating silently.
func translateErr(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: duplicate dose event", ErrConflict)
	}
	return err
}
