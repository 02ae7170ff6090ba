package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"dosetrack/internal/auth"
	"dosetrack/internal/schedule"
)

// DoseLogHandler serves the ledger: marking doses taken, the daily sheet
// and the adherence reports.
type DoseLogHandler struct {
	Svc *schedule.Service
}

type markTakenReq struct {
	LogID uint64 `json:"logId"`
	Taken bool   `json:"taken"`
}

func (h *DoseLogHandler) MarkTaken(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req markTakenReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.LogID == 0 {
		http.Error(w, "logId required", http.StatusBadRequest)
		return
	}

	if err := h.Svc.MarkTaken(r.Context(), uid, req.LogID, req.Taken); err != nil {
		scheduleErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *DoseLogHandler) DailySheet(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	date, err := dateQuery(r, "date")
	if err != nil {
		http.Error(w, "invalid date (YYYY-MM-DD)", http.StatusBadRequest)
		return
	}

	sheet, err := h.Svc.DailySheet(r.Context(), uid, date)
	if err != nil {
		scheduleErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": sheet})
}

func (h *DoseLogHandler) DailyStats(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	date, err := dateQuery(r, "date")
	if err != nil {
		http.Error(w, "invalid date (YYYY-MM-DD)", http.StatusBadRequest)
		return
	}

	stats, err := h.Svc.DailyStats(r.Context(), uid, date)
	if err != nil {
		scheduleErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": stats})
}

func (h *DoseLogHandler) MonthlyStats(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	month, err1 := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("month")))
	year, err2 := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("year")))
	if err1 != nil || err2 != nil {
		http.Error(w, "month and year required", http.StatusBadRequest)
		return
	}

	report, err := h.Svc.MonthlyStats(r.Context(), uid, month, year)
	if err != nil {
		scheduleErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": report})
}
