package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"dosetrack/internal/auth"
	"dosetrack/internal/schedule"
	"dosetrack/internal/status"
)

type StatusHandler struct {
	Svc *status.Service
}

type dailyStatusDTO struct {
	ID             uint64              `json:"id"`
	Date           string              `json:"date"`
	Discomforts    []status.Discomfort `json:"discomforts"`
	AdditionalInfo string              `json:"additionalInfo"`
}

func toDailyStatusDTO(st status.DailyStatus) dailyStatusDTO {
	var list []status.Discomfort
	_ = json.Unmarshal(st.Discomforts, &list)
	if list == nil {
		list = []status.Discomfort{}
	}
	return dailyStatusDTO{
		ID:             st.ID,
		Date:           st.Date.Format(time.DateOnly),
		Discomforts:    list,
		AdditionalInfo: st.AdditionalInfo,
	}
}

type createStatusReq struct {
	Date           string              `json:"date"`
	Discomforts    []status.Discomfort `json:"discomforts"`
	AdditionalInfo string              `json:"additionalInfo"`
}

func (h *StatusHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req createStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	date, err := schedule.ParseDate(req.Date)
	if err != nil {
		http.Error(w, "invalid date (YYYY-MM-DD)", http.StatusBadRequest)
		return
	}

	st, err := h.Svc.Create(r.Context(), uid, date, req.Discomforts, req.AdditionalInfo)
	if err != nil {
		statusErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"data": toDailyStatusDTO(st)})
}

// Get serves one day (?date=) or a range (?from=&to=).
func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	if r.URL.Query().Get("from") != "" {
		from, err := dateQuery(r, "from")
		if err != nil {
			http.Error(w, "invalid from (YYYY-MM-DD)", http.StatusBadRequest)
			return
		}
		to, err := dateQuery(r, "to")
		if err != nil {
			http.Error(w, "invalid to (YYYY-MM-DD)", http.StatusBadRequest)
			return
		}
		list, err := h.Svc.GetRange(r.Context(), uid, from, to)
		if err != nil {
			statusErr(w, err)
			return
		}
		out := make([]dailyStatusDTO, 0, len(list))
		for _, st := range list {
			out = append(out, toDailyStatusDTO(st))
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": out})
		return
	}

	date, err := dateQuery(r, "date")
	if err != nil {
		http.Error(w, "invalid date (YYYY-MM-DD)", http.StatusBadRequest)
		return
	}
	st, err := h.Svc.GetByDate(r.Context(), uid, date)
	if err != nil {
		statusErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": toDailyStatusDTO(st)})
}

type addDiscomfortsReq struct {
	Date        string              `json:"date"`
	Discomforts []status.Discomfort `json:"discomforts"`
}

func (h *StatusHandler) AddDiscomforts(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req addDiscomfortsReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	date, err := schedule.ParseDate(req.Date)
	if err != nil {
		http.Error(w, "invalid date (YYYY-MM-DD)", http.StatusBadRequest)
		return
	}

	st, err := h.Svc.AddDiscomforts(r.Context(), uid, date, req.Discomforts)
	if err != nil {
		statusErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": toDailyStatusDTO(st)})
}

type setInfoReq struct {
	Date           string `json:"date"`
	AdditionalInfo string `json:"additionalInfo"`
}

func (h *StatusHandler) SetAdditionalInfo(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req setInfoReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	date, err := schedule.ParseDate(req.Date)
	if err != nil {
		http.Error(w, "invalid date (YYYY-MM-DD)", http.StatusBadRequest)
		return
	}

	st, err := h.Svc.SetAdditionalInfo(r.Context(), uid, date, req.AdditionalInfo)
	if err != nil {
		statusErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": toDailyStatusDTO(st)})
}

func (h *StatusHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	date, err := dateQuery(r, "date")
	if err != nil {
		http.Error(w, "invalid date (YYYY-MM-DD)", http.StatusBadRequest)
		return
	}
	if err := h.Svc.Delete(r.Context(), uid, date); err != nil {
		statusErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func statusErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, status.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, status.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, status.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "server error", http.StatusInternalServerError)
	}
}
