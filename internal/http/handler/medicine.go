package handler

import (
	"net/http"

	"dosetrack/internal/medicine"
)

type MedicineHandler struct {
	Svc *medicine.Service
}

// Search filters the drug catalog by any combination of query parameters.
func (h *MedicineHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := medicine.SearchFilter{
		Seq:   q.Get("medicineId"),
		Name:  q.Get("name"),
		Print: q.Get("text"),
		Shape: q.Get("shape"),
		Color: q.Get("color"),
		Type:  q.Get("type"),
		Line:  q.Get("line"),
	}

	meds, err := h.Svc.Search(r.Context(), f)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"medicine": meds})
}
