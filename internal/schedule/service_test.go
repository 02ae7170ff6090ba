package schedule_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"dosetrack/internal/db"
	"dosetrack/internal/prescription"
	"dosetrack/internal/schedule"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// a single connection keeps every query on the same :memory: database
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func seedPrescription(t *testing.T, gdb *gorm.DB, userID uint64, start, end time.Time) prescription.Prescription {
	t.Helper()
	p := prescription.Prescription{
		UserID:    userID,
		Name:      "cold",
		Hospital:  "city clinic",
		StartDate: start,
		EndDate:   end,
		Active:    true,
	}
	if err := gdb.Create(&p).Error; err != nil {
		t.Fatalf("seed prescription: %v", err)
	}
	return p
}

func activeEvents(t *testing.T, gdb *gorm.DB, scheduleID uint64) []schedule.DoseEvent {
	t.Helper()
	var out []schedule.DoseEvent
	if err := gdb.Where("schedule_id = ? AND active", scheduleID).Order("id").Find(&out).Error; err != nil {
		t.Fatalf("load events: %v", err)
	}
	return out
}

const userID = uint64(1)

func TestCreateMaterializesInterval(t *testing.T) {
	gdb := newTestDB(t)
	svc := &schedule.Service{DB: gdb}
	ctx := context.Background()

	p := seedPrescription(t, gdb, userID, schedule.Date(2025, 2, 1), schedule.Date(2025, 2, 5))

	sch, err := svc.Create(ctx, userID, schedule.CreateInput{
		PrescriptionID: p.ID,
		MedicineName:   "amoxicillin",
		Dose:           "500",
		Unit:           "mg",
		Frequency:      schedule.Frequency{Type: schedule.FrequencyInterval, Interval: 2},
		Times:          []string{"morning", "evening"},
		StartDate:      schedule.Date(2025, 2, 1),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	events := activeEvents(t, gdb, sch.ID)
	if len(events) != 6 {
		t.Fatalf("got %d events, want 6", len(events))
	}

	wantDays := map[string]int{"2025-02-01": 0, "2025-02-03": 0, "2025-02-05": 0}
	for _, e := range events {
		day := e.TakeDate.Format(time.DateOnly)
		if _, ok := wantDays[day]; !ok {
			t.Errorf("unexpected take date %s", day)
			continue
		}
		wantDays[day]++
		if e.Taken {
			t.Errorf("event %d created taken", e.ID)
		}
		if e.MedicineName != "amoxicillin" || e.Dose != "500" || e.Unit != "mg" {
			t.Errorf("event %d missing denormalized fields: %+v", e.ID, e)
		}
		if e.PrescriptionID != p.ID || e.UserID != userID {
			t.Errorf("event %d has wrong ownership: %+v", e.ID, e)
		}
	}
	for day, n := range wantDays {
		if n != 2 {
			t.Errorf("day %s has %d events, want 2 (one per slot)", day, n)
		}
	}
}

func TestCreateMaterializesWeekdays(t *testing.T) {
	gdb := newTestDB(t)
	svc := &schedule.Service{DB: gdb}
	ctx := context.Background()

	// window 2025-02-01 (Sat) .. 2025-02-14 (Fri), doses on Mon and Fri
	p := seedPrescription(t, gdb, userID, schedule.Date(2025, 2, 1), schedule.Date(2025, 2, 14))

	sch, err := svc.Create(ctx, userID, schedule.CreateInput{
		PrescriptionID: p.ID,
		MedicineName:   "methotrexate",
		Frequency:      schedule.Frequency{Type: schedule.FrequencyWeekdays, Weekdays: []int{1, 5}},
		Times:          []string{"morning"},
		StartDate:      schedule.Date(2025, 2, 1),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	events := activeEvents(t, gdb, sch.ID)
	// Mondays 3rd, 10th; Fridays 7th, 14th
	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}
	for _, e := range events {
		wd := e.TakeDate.Weekday()
		if wd != time.Monday && wd != time.Friday {
			t.Errorf("event on %s (%v), want Monday or Friday", e.TakeDate.Format(time.DateOnly), wd)
		}
	}
}

func TestCreateCustomProducesNoEvents(t *testing.T) {
	gdb := newTestDB(t)
	svc := &schedule.Service{DB: gdb}

	p := seedPrescription(t, gdb, userID, schedule.Date(2025, 2, 1), schedule.Date(2025, 2, 28))

	sch, err := svc.Create(context.Background(), userID, schedule.CreateInput{
		PrescriptionID: p.ID,
		MedicineName:   "antacid",
		Frequency:      schedule.Frequency{Type: schedule.FrequencyCustom, Custom: "when heartburn flares"},
		StartDate:      schedule.Date(2025, 2, 1),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got := activeEvents(t, gdb, sch.ID); len(got) != 0 {
		t.Errorf("custom schedule produced %d events, want 0", len(got))
	}
}

func TestCreateValidation(t *testing.T) {
	gdb := newTestDB(t)
	svc := &schedule.Service{DB: gdb}
	ctx := context.Background()

	p := seedPrescription(t, gdb, userID, schedule.Date(2025, 2, 1), schedule.Date(2025, 2, 10))

	base := schedule.CreateInput{
		PrescriptionID: p.ID,
		MedicineName:   "ibuprofen",
		Frequency:      schedule.Frequency{Type: schedule.FrequencyInterval, Interval: 1},
		Times:          []string{"morning"},
		StartDate:      schedule.Date(2025, 2, 1),
	}

	tests := []struct {
		name   string
		mutate func(*schedule.CreateInput)
		want   error
	}{
		{"start after window end", func(in *schedule.CreateInput) { in.StartDate = schedule.Date(2025, 2, 11) }, schedule.ErrValidation},
		{"no medicine name", func(in *schedule.CreateInput) { in.MedicineName = " " }, schedule.ErrValidation},
		{"no times", func(in *schedule.CreateInput) { in.Times = nil }, schedule.ErrValidation},
		{"duplicate slot", func(in *schedule.CreateInput) { in.Times = []string{"morning", "morning"} }, schedule.ErrValidation},
		{"bad frequency", func(in *schedule.CreateInput) { in.Frequency.Interval = 0 }, schedule.ErrValidation},
		{"missing prescription", func(in *schedule.CreateInput) { in.PrescriptionID = 999 }, schedule.ErrNotFound},
	}

	for _, tt := range tests {
		in := base
		tt.mutate(&in)
		if _, err := svc.Create(ctx, userID, in); !errors.Is(err, tt.want) {
			t.Errorf("%s: Create() = %v, want %v", tt.name, err, tt.want)
		}
	}

	var n int64
	gdb.Model(&schedule.DoseEvent{}).Count(&n)
	if n != 0 {
		t.Errorf("failed creations left %d events behind", n)
	}
}

func TestMarkTaken(t *testing.T) {
	gdb := newTestDB(t)
	svc := &schedule.Service{DB: gdb}
	ctx := context.Background()

	p := seedPrescription(t, gdb, userID, schedule.Date(2025, 2, 1), schedule.Date(2025, 2, 1))
	sch, err := svc.Create(ctx, userID, schedule.CreateInput{
		PrescriptionID: p.ID,
		MedicineName:   "ibuprofen",
		Frequency:      schedule.Frequency{Type: schedule.FrequencyInterval, Interval: 1},
		Times:          []string{"morning"},
		StartDate:      schedule.Date(2025, 2, 1),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	ev := activeEvents(t, gdb, sch.ID)[0]

	if err := svc.MarkTaken(ctx, userID, ev.ID, true); err != nil {
		t.Fatalf("MarkTaken: %v", err)
	}
	if got := activeEvents(t, gdb, sch.ID)[0]; !got.Taken {
		t.Error("event not marked taken")
	}

	if err := svc.MarkTaken(ctx, userID, ev.ID, false); err != nil {
		t.Fatalf("MarkTaken untake: %v", err)
	}
	if got := activeEvents(t, gdb, sch.ID)[0]; got.Taken {
		t.Error("event still marked taken")
	}

	if err := svc.MarkTaken(ctx, userID, 9999, true); !errors.Is(err, schedule.ErrNotFound) {
		t.Errorf("missing event: MarkTaken = %v, want ErrNotFound", err)
	}
	if err := svc.MarkTaken(ctx, userID+1, ev.ID, true); !errors.Is(err, schedule.ErrNotFound) {
		t.Errorf("foreign user: MarkTaken = %v, want ErrNotFound", err)
	}

	// deactivated events are no longer markable
	if err := svc.DeactivateSchedule(ctx, userID, sch.ID); err != nil {
		t.Fatalf("DeactivateSchedule: %v", err)
	}
	if err := svc.MarkTaken(ctx, userID, ev.ID, true); !errors.Is(err, schedule.ErrNotFound) {
		t.Errorf("inactive event: MarkTaken = %v, want ErrNotFound", err)
	}
}

func TestDailySheetGroups(t *testing.T) {
	gdb := newTestDB(t)
	svc := &schedule.Service{DB: gdb}
	ctx := context.Background()

	p := seedPrescription(t, gdb, userID, schedule.Date(2025, 2, 1), schedule.Date(2025, 2, 2))
	for _, name := range []string{"amoxicillin", "mucolytic"} {
		if _, err := svc.Create(ctx, userID, schedule.CreateInput{
			PrescriptionID: p.ID,
			MedicineName:   name,
			Frequency:      schedule.Frequency{Type: schedule.FrequencyInterval, Interval: 1},
			Times:          []string{"morning", "evening"},
			StartDate:      schedule.Date(2025, 2, 1),
		}); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
	}

	sheet, err := svc.DailySheet(ctx, userID, schedule.Date(2025, 2, 1))
	if err != nil {
		t.Fatalf("DailySheet: %v", err)
	}
	if len(sheet) != 1 {
		t.Fatalf("got %d prescriptions, want 1", len(sheet))
	}
	if sheet[0].Name != "cold" {
		t.Errorf("prescription name = %q, want cold", sheet[0].Name)
	}
	if len(sheet[0].Medicines) != 2 {
		t.Fatalf("got %d medicines, want 2", len(sheet[0].Medicines))
	}
	for _, m := range sheet[0].Medicines {
		if len(m.Slots) != 2 {
			t.Errorf("medicine %s has %d slots, want 2", m.MedicineName, len(m.Slots))
		}
	}

	empty, err := svc.DailySheet(ctx, userID, schedule.Date(2025, 3, 1))
	if err != nil {
		t.Fatalf("DailySheet empty: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("out-of-window sheet has %d prescriptions, want 0", len(empty))
	}
}
