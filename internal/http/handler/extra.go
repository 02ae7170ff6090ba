package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"dosetrack/internal/auth"
	"dosetrack/internal/extra"
)

type ExtraHandler struct {
	Svc *extra.Service
}

type createExtraReq struct {
	Name    string `json:"name"`
	Dose    string `json:"dose"`
	Unit    string `json:"unit"`
	TakenAt string `json:"takenAt"` // RFC3339
}

func (h *ExtraHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req createExtraReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	takenAt, err := time.Parse(time.RFC3339, req.TakenAt)
	if err != nil {
		http.Error(w, "invalid takenAt (RFC3339)", http.StatusBadRequest)
		return
	}

	m, err := h.Svc.Create(r.Context(), uid, extra.CreateInput{
		Name:    req.Name,
		Dose:    req.Dose,
		Unit:    req.Unit,
		TakenAt: takenAt,
	})
	if err != nil {
		if errors.Is(err, extra.ErrValidation) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"data": map[string]any{"id": m.ID}})
}

func (h *ExtraHandler) ListByDate(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	date, err := dateQuery(r, "date")
	if err != nil {
		http.Error(w, "invalid date (YYYY-MM-DD)", http.StatusBadRequest)
		return
	}

	meds, err := h.Svc.ListByDate(r.Context(), uid, date)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": meds})
}
