package schedule

import (
	"context"
	"time"

	"dosetrack/internal/prescription"
)

// SheetSlot is one checkable dose on the daily sheet.
type SheetSlot struct {
	EventID uint64 `json:"id"`
	Slot    string `json:"time"`
	Taken   bool   `json:"taken"`
}

type SheetMedicine struct {
	ScheduleID   uint64      `json:"scheduleId"`
	MedicineName string      `json:"medicineName"`
	Dose         string      `json:"dose"`
	Unit         string      `json:"unit"`
	Slots        []SheetSlot `json:"logs"`
}

type SheetPrescription struct {
	PrescriptionID uint64          `json:"prescriptionId"`
	Name           string          `json:"name"`
	StartDate      string          `json:"startDate"`
	Medicines      []SheetMedicine `json:"medicines"`
}

// DailySheet is the day's intake checklist: the user's active dose events
// for one date grouped by prescription, then by medicine, each slot with its
// event id so the client can mark it taken.
func (s *Service) DailySheet(ctx context.Context, userID uint64, date time.Time) ([]SheetPrescription, error) {
	var events []DoseEvent
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND take_date = ? AND active", userID, date).
		Order("id").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return []SheetPrescription{}, nil
	}

	ids := make([]uint64, 0, len(events))
	seen := map[uint64]bool{}
	for _, e := range events {
		if !seen[e.PrescriptionID] {
			seen[e.PrescriptionID] = true
			ids = append(ids, e.PrescriptionID)
		}
	}

	var prescriptions []prescription.Prescription
	if err := s.DB.WithContext(ctx).Where("id IN ?", ids).Find(&prescriptions).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint64]prescription.Prescription, len(prescriptions))
	for _, p := range prescriptions {
		byID[p.ID] = p
	}

	// group preserving first-seen order at both levels
	out := []SheetPrescription{}
	prescIdx := map[uint64]int{}
	medIdx := map[uint64]map[uint64]int{}

	for _, e := range events {
		pi, ok := prescIdx[e.PrescriptionID]
		if !ok {
			p := byID[e.PrescriptionID]
			out = append(out, SheetPrescription{
				PrescriptionID: e.PrescriptionID,
				Name:           p.Name,
				StartDate:      p.StartDate.Format(time.DateOnly),
				Medicines:      []SheetMedicine{},
			})
			pi = len(out) - 1
			prescIdx[e.PrescriptionID] = pi
			medIdx[e.PrescriptionID] = map[uint64]int{}
		}

		mi, ok := medIdx[e.PrescriptionID][e.ScheduleID]
		if !ok {
			out[pi].Medicines = append(out[pi].Medicines, SheetMedicine{
				ScheduleID:   e.ScheduleID,
				MedicineName: e.MedicineName,
				Dose:         e.Dose,
				Unit:         e.Unit,
			})
			mi = len(out[pi].Medicines) - 1
			medIdx[e.PrescriptionID][e.ScheduleID] = mi
		}

		out[pi].Medicines[mi].Slots = append(out[pi].Medicines[mi].Slots, SheetSlot{
			EventID: e.ID,
			Slot:    e.TimeSlot,
			Taken:   e.Taken,
		})
	}
	return out, nil
}
