package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"dosetrack/internal/auth"
	"dosetrack/internal/prescription"
	"dosetrack/internal/schedule"

	"github.com/go-chi/chi/v5"
)

type PrescriptionHandler struct {
	Svc *prescription.Service
	// Sched reconciles dependent ledgers after a window change.
	Sched *schedule.Service

	// MaxScheduleDays bounds the window length here at the boundary; the
	// core accepts any window it is given.
	MaxScheduleDays int
}

type prescriptionDTO struct {
	ID        uint64 `json:"id"`
	Name      string `json:"name"`
	Hospital  string `json:"hospital"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

func toPrescriptionDTO(p prescription.Prescription) prescriptionDTO {
	return prescriptionDTO{
		ID:        p.ID,
		Name:      p.Name,
		Hospital:  p.Hospital,
		StartDate: p.StartDate.Format(time.DateOnly),
		EndDate:   p.EndDate.Format(time.DateOnly),
	}
}

type createPrescriptionReq struct {
	Name      string `json:"name"`
	Hospital  string `json:"hospital"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

func (h *PrescriptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req createPrescriptionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	start, end, ok := h.parseWindow(w, req.StartDate, req.EndDate)
	if !ok {
		return
	}

	p, err := h.Svc.Create(r.Context(), uid, prescription.CreateInput{
		Name:      req.Name,
		Hospital:  req.Hospital,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		prescriptionErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"prescription": toPrescriptionDTO(p)})
}

func (h *PrescriptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	p, err := h.Svc.FindByID(r.Context(), uid, id)
	if err != nil {
		prescriptionErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"prescription": toPrescriptionDTO(p)})
}

type updateWindowReq struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	// Policy must be sent explicitly: a missing field would otherwise decode
	// to 0, which is DeleteAll.
	Policy *schedule.ConflictPolicy `json:"policy"`
}

// UpdateWindow moves the validity window and reconciles every dependent
// schedule under the requested conflict policy.
func (h *PrescriptionHandler) UpdateWindow(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var req updateWindowReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Policy == nil {
		http.Error(w, "policy required", http.StatusBadRequest)
		return
	}
	if !req.Policy.Valid() {
		http.Error(w, "invalid policy", http.StatusBadRequest)
		return
	}

	start, end, ok := h.parseWindow(w, req.StartDate, req.EndDate)
	if !ok {
		return
	}

	p, err := h.Svc.UpdateWindow(r.Context(), uid, id, start, end)
	if err != nil {
		prescriptionErr(w, err)
		return
	}
	if err := h.Sched.ReconcilePrescription(r.Context(), uid, id, *req.Policy); err != nil {
		scheduleErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"prescription": toPrescriptionDTO(p)})
}

func (h *PrescriptionHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	if err := h.Sched.DeactivatePrescription(r.Context(), uid, id); err != nil {
		scheduleErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PrescriptionHandler) parseWindow(w http.ResponseWriter, startStr, endStr string) (time.Time, time.Time, bool) {
	start, err := schedule.ParseDate(startStr)
	if err != nil {
		http.Error(w, "invalid startDate (YYYY-MM-DD)", http.StatusBadRequest)
		return time.Time{}, time.Time{}, false
	}
	end, err := schedule.ParseDate(endStr)
	if err != nil {
		http.Error(w, "invalid endDate (YYYY-MM-DD)", http.StatusBadRequest)
		return time.Time{}, time.Time{}, false
	}
	if h.MaxScheduleDays > 0 && end.Sub(start) > time.Duration(h.MaxScheduleDays)*24*time.Hour {
		http.Error(w, "window too long", http.StatusBadRequest)
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func prescriptionErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, prescription.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, prescription.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	default:
		http.Error(w, "server error", http.StatusInternalServerError)
	}
}

func idParam(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
