package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"dosetrack/internal/auth"
	"dosetrack/internal/db"
	"dosetrack/internal/http/handler"
	"dosetrack/internal/prescription"
	"dosetrack/internal/schedule"

	"github.com/glebarez/sqlite"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

const userID = uint64(1)

type testEnv struct {
	gdb    *gorm.DB
	router http.Handler
	token  string
	sched  *schedule.Service
	presc  *prescription.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	jwtSvc := auth.NewJWT("test-secret")
	token, err := jwtSvc.Sign(userID)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	prescSvc := &prescription.Service{DB: gdb}
	schedSvc := &schedule.Service{DB: gdb}

	sh := &handler.ScheduleHandler{Svc: schedSvc}
	ph := &handler.PrescriptionHandler{Svc: prescSvc, Sched: schedSvc, MaxScheduleDays: 366}

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))
		r.Put("/medications/{id}", sh.Update)
		r.Patch("/prescriptions/{id}/window", ph.UpdateWindow)
	})

	return &testEnv{gdb: gdb, router: r, token: token, sched: schedSvc, presc: prescSvc}
}

func (e *testEnv) do(t *testing.T, method, path string, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Authorization", "Bearer "+e.token)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) seedLedger(t *testing.T) (prescription.Prescription, schedule.Schedule, schedule.DoseEvent) {
	t.Helper()
	ctx := context.Background()

	p, err := e.presc.Create(ctx, userID, prescription.CreateInput{
		Name:      "cold",
		Hospital:  "city clinic",
		StartDate: schedule.Date(2025, 2, 1),
		EndDate:   schedule.Date(2025, 2, 3),
	})
	if err != nil {
		t.Fatalf("seed prescription: %v", err)
	}
	sch, err := e.sched.Create(ctx, userID, schedule.CreateInput{
		PrescriptionID: p.ID,
		MedicineName:   "amoxicillin",
		Frequency:      schedule.Frequency{Type: schedule.FrequencyInterval, Interval: 1},
		Times:          []string{"morning"},
		StartDate:      schedule.Date(2025, 2, 1),
	})
	if err != nil {
		t.Fatalf("seed schedule: %v", err)
	}

	var ev schedule.DoseEvent
	if err := e.gdb.Where("schedule_id = ?", sch.ID).Order("id").First(&ev).Error; err != nil {
		t.Fatalf("load event: %v", err)
	}
	if err := e.sched.MarkTaken(ctx, userID, ev.ID, true); err != nil {
		t.Fatalf("mark taken: %v", err)
	}
	return p, sch, ev
}

func TestUpdateScheduleRequiresPolicy(t *testing.T) {
	env := newTestEnv(t)
	_, sch, taken := env.seedLedger(t)

	// no "policy" key: must be rejected, not read as DeleteAll
	w := env.do(t, http.MethodPut, fmt.Sprintf("/medications/%d", sch.ID), map[string]any{
		"times": []string{"morning", "evening"},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	var got schedule.DoseEvent
	if err := env.gdb.First(&got, taken.ID).Error; err != nil {
		t.Fatalf("taken event gone after rejected update: %v", err)
	}
	if !got.Taken || !got.Active {
		t.Errorf("taken event disturbed by rejected update: %+v", got)
	}
	var n int64
	env.gdb.Model(&schedule.DoseEvent{}).Where("schedule_id = ?", sch.ID).Count(&n)
	if n != 3 {
		t.Errorf("ledger has %d rows after rejected update, want 3", n)
	}
}

func TestUpdateScheduleWithExplicitPolicy(t *testing.T) {
	env := newTestEnv(t)
	_, sch, taken := env.seedLedger(t)

	w := env.do(t, http.MethodPut, fmt.Sprintf("/medications/%d", sch.ID), map[string]any{
		"times":  []string{"morning", "evening"},
		"policy": int(schedule.KeepExisting),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %q)", w.Code, w.Body.String())
	}

	var got schedule.DoseEvent
	if err := env.gdb.First(&got, taken.ID).Error; err != nil {
		t.Fatalf("load taken event: %v", err)
	}
	if !got.Taken {
		t.Error("taken flag lost under KeepExisting")
	}
	var n int64
	env.gdb.Model(&schedule.DoseEvent{}).Where("schedule_id = ? AND active", sch.ID).Count(&n)
	if n != 6 {
		t.Errorf("%d active events, want 6 (3 kept + 3 evening)", n)
	}
}

func TestUpdateScheduleRejectsBadPolicy(t *testing.T) {
	env := newTestEnv(t)
	_, sch, _ := env.seedLedger(t)

	w := env.do(t, http.MethodPut, fmt.Sprintf("/medications/%d", sch.ID), map[string]any{
		"policy": 3,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestUpdateWindowRequiresPolicy(t *testing.T) {
	env := newTestEnv(t)
	p, sch, taken := env.seedLedger(t)

	w := env.do(t, http.MethodPatch, fmt.Sprintf("/prescriptions/%d/window", p.ID), map[string]any{
		"startDate": "2025-02-01",
		"endDate":   "2025-02-05",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	var got schedule.DoseEvent
	if err := env.gdb.First(&got, taken.ID).Error; err != nil {
		t.Fatalf("taken event gone after rejected window update: %v", err)
	}
	if !got.Taken {
		t.Error("taken event disturbed by rejected window update")
	}

	// explicit policy: window moves and the ledger is extended
	w = env.do(t, http.MethodPatch, fmt.Sprintf("/prescriptions/%d/window", p.ID), map[string]any{
		"startDate": "2025-02-01",
		"endDate":   "2025-02-05",
		"policy":    int(schedule.KeepExisting),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %q)", w.Code, w.Body.String())
	}
	var n int64
	env.gdb.Model(&schedule.DoseEvent{}).Where("schedule_id = ? AND active", sch.ID).Count(&n)
	if n != 5 {
		t.Errorf("%d active events after window grew, want 5", n)
	}
}
