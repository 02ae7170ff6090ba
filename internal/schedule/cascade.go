package schedule

import (
	"context"
	"fmt"

	"dosetrack/internal/prescription"
)

// DeactivatePrescription soft-deletes a prescription and everything under
// it: its schedules, then their dose events. Three bulk updates, each
// idempotent; nothing is physically removed, so adherence history stays
// queryable for audit.
func (s *Service) DeactivatePrescription(ctx context.Context, userID, prescriptionID uint64) error {
	db := s.DB.WithContext(ctx)

	res := db.Model(&prescription.Prescription{}).
		Where("id = ? AND user_id = ?", prescriptionID, userID).
		Update("active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: prescription %d", ErrNotFound, prescriptionID)
	}

	if err := db.Model(&Schedule{}).
		Where("prescription_id = ? AND user_id = ?", prescriptionID, userID).
		Update("active", false).Error; err != nil {
		return err
	}

	return db.Model(&DoseEvent{}).
		Where("prescription_id = ? AND user_id = ?", prescriptionID, userID).
		Update("active", false).Error
}

// DeactivateSchedule soft-deletes one schedule and its dose events.
func (s *Service) DeactivateSchedule(ctx context.Context, userID, scheduleID uint64) error {
	db := s.DB.WithContext(ctx)

	res := db.Model(&Schedule{}).
		Where("id = ? AND user_id = ?", scheduleID, userID).
		Update("active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: schedule %d", ErrNotFound, scheduleID)
	}

	return db.Model(&DoseEvent{}).
		Where("schedule_id = ? AND user_id = ?", scheduleID, userID).
		Update("active", false).Error
}
