package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// UpdateInput carries the fields a reconciliation may change. Nil fields are
// left alone.
type UpdateInput struct {
	MedicineName *string
	Dose         *string
	Unit         *string
	Frequency    *Frequency
	Times        *[]string
	StartDate    *time.Time
}

// Reconcile applies updates to a schedule and regenerates its dose events
// over the current prescription window under the given conflict policy.
// Deletion, the schedule update and the regeneration run inside one
// transaction, deletion strictly first, so no transient duplicate
// (day, slot) pair is ever visible.
func (s *Service) Reconcile(ctx context.Context, userID, scheduleID uint64, in UpdateInput, policy ConflictPolicy) (Schedule, error) {
	if !policy.Valid() {
		return Schedule{}, fmt.Errorf("%w: unknown conflict policy %d", ErrValidation, int(policy))
	}

	var sch Schedule
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ? AND user_id = ? AND active", scheduleID, userID).First(&sch).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: schedule %d", ErrNotFound, scheduleID)
		}
		if err != nil {
			return err
		}

		if err := applyUpdate(&sch, in); err != nil {
			return err
		}

		p, err := s.findPrescription(ctx, tx, userID, sch.PrescriptionID)
		if err != nil {
			return err
		}
		freq := sch.frequency()
		if freq.Trackable() && sch.StartDate.After(p.EndDate) {
			return fmt.Errorf("%w: start date is after the prescription window", ErrValidation)
		}

		// 1. policy deletion, before anything regenerates
		switch policy {
		case DeleteAll:
			if err := tx.Where("schedule_id = ?", sch.ID).Delete(&DoseEvent{}).Error; err != nil {
				return err
			}
		case DeleteUntaken:
			if err := tx.Where("schedule_id = ? AND taken = ?", sch.ID, false).Delete(&DoseEvent{}).Error; err != nil {
				return err
			}
		case KeepExisting:
			// nothing to delete
		}

		// 2. persist the updated schedule
		if err := tx.Save(&sch).Error; err != nil {
			return err
		}

		// 3. custom regimens generate nothing
		if !freq.Trackable() {
			return nil
		}

		// 4. one batched query for the (day, slot) pairs regeneration must
		// not touch: whatever active events survived the policy deletion.
		skip, err := occupiedSlots(tx, sch.ID, policy)
		if err != nil {
			return err
		}

		events := expand(sch, p.EndDate, skip)
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

// ReconcilePrescription re-runs reconciliation for every active schedule of
// a prescription, typically after its window moved.
func (s *Service) ReconcilePrescription(ctx context.Context, userID, prescriptionID uint64, policy ConflictPolicy) error {
	if !policy.Valid() {
		return fmt.Errorf("%w: unknown conflict policy %d", ErrValidation, int(policy))
	}
	if _, err := s.findPrescription(ctx, s.DB, userID, prescriptionID); err != nil {
		return err
	}

	var ids []uint64
	err := s.DB.WithContext(ctx).Model(&Schedule{}).
		Where("prescription_id = ? AND user_id = ? AND active", prescriptionID, userID).
		Pluck("id", &ids).Error
	if err != nil {
		return err
	}

	for _, id := range ids {
		if _, err := s.Reconcile(ctx, userID, id, UpdateInput{}, policy); err != nil {
			return err
		}
	}
	return nil
}

func applyUpdate(sch *Schedule, in UpdateInput) error {
	if in.MedicineName != nil {
		name := strings.TrimSpace(*in.MedicineName)
		if name == "" {
			return fmt.Errorf("%w: medicine name is required", ErrValidation)
		}
		sch.MedicineName = name
	}
	if in.Dose != nil {
		sch.Dose = *in.Dose
	}
	if in.Unit != nil {
		sch.Unit = *in.Unit
	}
	if in.Frequency != nil {
		if err := in.Frequency.Validate(); err != nil {
			return err
		}
		sch.FrequencyType = in.Frequency.Type
		sch.FrequencyInterval = in.Frequency.Interval
		sch.FrequencyWeekdays = toInt64Array(in.Frequency.Weekdays)
		sch.FrequencyCustom = in.Frequency.Custom
	}
	if in.Times != nil {
		sch.Times = pq.StringArray(*in.Times)
	}
	if in.StartDate != nil {
		if in.StartDate.IsZero() {
			return fmt.Errorf("%w: start date is required", ErrValidation)
		}
		sch.StartDate = *in.StartDate
	}

	if sch.frequency().Trackable() {
		if err := validateTimes(sch.Times); err != nil {
			return err
		}
	}
	return nil
}

func occupiedSlots(tx *gorm.DB, scheduleID uint64, policy ConflictPolicy) (map[slotKey]bool, error) {
	if policy == DeleteAll {
		return nil, nil
	}
	// only active events occupy a slot; inactive history must never block
	// regeneration
	var rows []DoseEvent
	err := tx.Model(&DoseEvent{}).
		Where("schedule_id = ? AND active", scheduleID).
		Select("take_date", "time_slot").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	skip := make(map[slotKey]bool, len(rows))
	for _, r := range rows {
		skip[slotKey{r.TakeDate.Format(time.DateOnly), r.TimeSlot}] = true
	}
	return skip, nil
}
