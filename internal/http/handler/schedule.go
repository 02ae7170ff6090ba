package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"dosetrack/internal/auth"
	"dosetrack/internal/schedule"
)

type ScheduleHandler struct {
	Svc *schedule.Service
}

type frequencyDTO struct {
	Type     string `json:"type"` // interval | weekdays | custom
	Interval int    `json:"interval,omitempty"`
	Weekdays []int  `json:"weekdays,omitempty"` // 0 = Sunday .. 6 = Saturday
	Custom   string `json:"custom,omitempty"`
}

func (f frequencyDTO) toFrequency() schedule.Frequency {
	return schedule.Frequency{
		Type:     schedule.FrequencyType(f.Type),
		Interval: f.Interval,
		Weekdays: f.Weekdays,
		Custom:   f.Custom,
	}
}

type scheduleDTO struct {
	ID             uint64       `json:"id"`
	PrescriptionID uint64       `json:"prescriptionId"`
	MedicineID     *uint64      `json:"medicineId"`
	MedicineName   string       `json:"medicineName"`
	Dose           string       `json:"dose"`
	Unit           string       `json:"unit"`
	Frequency      frequencyDTO `json:"frequency"`
	Times          []string     `json:"times"`
	StartDate      string       `json:"startDate"`
}

func toScheduleDTO(s schedule.Schedule) scheduleDTO {
	weekdays := make([]int, 0, len(s.FrequencyWeekdays))
	for _, d := range s.FrequencyWeekdays {
		weekdays = append(weekdays, int(d))
	}
	return scheduleDTO{
		ID:             s.ID,
		PrescriptionID: s.PrescriptionID,
		MedicineID:     s.MedicineID,
		MedicineName:   s.MedicineName,
		Dose:           s.Dose,
		Unit:           s.Unit,
		Frequency: frequencyDTO{
			Type:     string(s.FrequencyType),
			Interval: s.FrequencyInterval,
			Weekdays: weekdays,
			Custom:   s.FrequencyCustom,
		},
		Times:     []string(s.Times),
		StartDate: s.StartDate.Format(time.DateOnly),
	}
}

type createScheduleReq struct {
	PrescriptionID uint64       `json:"prescriptionId"`
	MedicineID     *uint64      `json:"medicineId"`
	MedicineName   string       `json:"medicineName"`
	Dose           string       `json:"dose"`
	Unit           string       `json:"unit"`
	Frequency      frequencyDTO `json:"frequency"`
	Times          []string     `json:"times"`
	StartDate      string       `json:"startDate"`
}

// Create registers a medicine schedule and materializes its dose ledger.
func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req createScheduleReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	start, err := schedule.ParseDate(req.StartDate)
	if err != nil {
		http.Error(w, "invalid startDate (YYYY-MM-DD)", http.StatusBadRequest)
		return
	}

	sch, err := h.Svc.Create(r.Context(), uid, schedule.CreateInput{
		PrescriptionID: req.PrescriptionID,
		MedicineID:     req.MedicineID,
		MedicineName:   req.MedicineName,
		Dose:           req.Dose,
		Unit:           req.Unit,
		Frequency:      req.Frequency.toFrequency(),
		Times:          req.Times,
		StartDate:      start,
	})
	if err != nil {
		scheduleErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"schedule": toScheduleDTO(sch)})
}

type updateScheduleReq struct {
	MedicineName *string       `json:"medicineName"`
	Dose         *string       `json:"dose"`
	Unit         *string       `json:"unit"`
	Frequency    *frequencyDTO `json:"frequency"`
	Times        *[]string     `json:"times"`
	StartDate    *string       `json:"startDate"`
	// Policy must be sent explicitly: a missing field would otherwise decode
	// to 0, which is DeleteAll.
	Policy *schedule.ConflictPolicy `json:"policy"`
}

// Update reconciles a schedule: applies the changed fields and regenerates
// the ledger under the requested conflict policy.
func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var req updateScheduleReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Policy == nil {
		http.Error(w, "policy required", http.StatusBadRequest)
		return
	}

	in := schedule.UpdateInput{
		MedicineName: req.MedicineName,
		Dose:         req.Dose,
		Unit:         req.Unit,
		Times:        req.Times,
	}
	if req.Frequency != nil {
		f := req.Frequency.toFrequency()
		in.Frequency = &f
	}
	if req.StartDate != nil {
		start, err := schedule.ParseDate(*req.StartDate)
		if err != nil {
			http.Error(w, "invalid startDate (YYYY-MM-DD)", http.StatusBadRequest)
			return
		}
		in.StartDate = &start
	}

	sch, err := h.Svc.Reconcile(r.Context(), uid, id, in, *req.Policy)
	if err != nil {
		scheduleErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"schedule": toScheduleDTO(sch)})
}

func (h *ScheduleHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	if err := h.Svc.DeactivateSchedule(r.Context(), uid, id); err != nil {
		scheduleErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
