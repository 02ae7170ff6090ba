package db

import (
	"fmt"

	"dosetrack/internal/auth"
	"dosetrack/internal/extra"
	"dosetrack/internal/medicine"
	"dosetrack/internal/prescription"
	"dosetrack/internal/schedule"
	"dosetrack/internal/status"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(dsn string) (*gorm.DB, error) {
	// TranslateError so unique-index violations surface as
	// gorm.ErrDuplicatedKey and the services can map them to conflicts.
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	// Tables
	if err := gdb.AutoMigrate(
		&auth.User{},
		&prescription.Prescription{},
		&schedule.Schedule{},
		&schedule.DoseEvent{},
		&medicine.Medicine{},
		&status.DailyStatus{},
		&extra.Med{},
	); err != nil {
		return err
	}

	// The ledger's uniqueness invariant: no two active events may share
	// (schedule, day, slot). Partial so deactivated history never blocks
	// regeneration, and so concurrent reconciliations fail loudly instead
	// of inserting duplicates.
	if err := gdb.Exec(`
create unique index if not exists uq_dose_events_active_slot
on dose_events(schedule_id, take_date, time_slot)
where active;
`).Error; err != nil {
		return err
	}

	// One daily status per user and day.
	if err := gdb.Exec(`create unique index if not exists uq_daily_statuses_user_date on daily_statuses(user_id, date);`).Error; err != nil {
		return err
	}

	// Helpful indexes
	stmts := []string{
		`create index if not exists idx_dose_events_user_date on dose_events(user_id, take_date);`,
		`create index if not exists idx_dose_events_schedule on dose_events(schedule_id, take_date);`,
		`create index if not exists idx_schedules_prescription on schedules(prescription_id);`,
		`create index if not exists idx_prescriptions_user_window on prescriptions(user_id, start_date, end_date);`,
		`create index if not exists idx_extra_meds_user_taken on extra_meds(user_id, taken_at);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}
