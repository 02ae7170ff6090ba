package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"dosetrack/internal/schedule"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// dateQuery reads a required YYYY-MM-DD query parameter.
func dateQuery(r *http.Request, name string) (time.Time, error) {
	return schedule.ParseDate(r.URL.Query().Get(name))
}

// scheduleErr maps the core error taxonomy onto status codes:
// validation 400, not found 404, conflict 409, storage 500.
func scheduleErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schedule.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, schedule.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, schedule.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "server error", http.StatusInternalServerError)
	}
}
