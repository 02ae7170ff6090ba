package schedule

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"dosetrack/internal/prescription"
)

// DailyStat is the per-prescription adherence for one date.
type DailyStat struct {
	PrescriptionID uint64  `json:"prescriptionId"`
	Name           string  `json:"name"`
	TakenCount     int     `json:"takenCount"`
	TotalCount     int     `json:"totalCount"`
	TakenRatio     float64 `json:"takenRatio"` // percent, 2 decimals
}

// DailyStats reports adherence for every active prescription whose window
// contains date. A prescription with no events that day reports a 0 ratio.
func (s *Service) DailyStats(ctx context.Context, userID uint64, date time.Time) ([]DailyStat, error) {
	var prescriptions []prescription.Prescription
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND active AND start_date <= ? AND end_date >= ?", userID, date, date).
		Order("id").
		Find(&prescriptions).Error
	if err != nil {
		return nil, err
	}

	var events []DoseEvent
	err = s.DB.WithContext(ctx).
		Where("user_id = ? AND take_date = ? AND active", userID, date).
		Find(&events).Error
	if err != nil {
		return nil, err
	}

	type counts struct{ taken, total int }
	byPrescription := map[uint64]*counts{}
	for _, e := range events {
		c := byPrescription[e.PrescriptionID]
		if c == nil {
			c = &counts{}
			byPrescription[e.PrescriptionID] = c
		}
		c.total++
		if e.Taken {
			c.taken++
		}
	}

	stats := make([]DailyStat, 0, len(prescriptions))
	for _, p := range prescriptions {
		st := DailyStat{PrescriptionID: p.ID, Name: p.Name}
		if c := byPrescription[p.ID]; c != nil {
			st.TakenCount = c.taken
			st.TotalCount = c.total
			st.TakenRatio = ratio(c.taken, c.total)
		}
		stats = append(stats, st)
	}
	return stats, nil
}

// MonthlyMedicine is one medicine's adherence on one date.
type MonthlyMedicine struct {
	MedicineID uint64  `json:"medicineId"` // the schedule the doses belong to
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"`
}

type MonthlyDay struct {
	Date      string            `json:"date"` // YYYY-MM-DD
	Achieved  bool              `json:"achieved"`
	Medicines []MonthlyMedicine `json:"medicines"`
}

type MonthlyReport struct {
	AchievementRate float64      `json:"achievementRate"`
	Details         []MonthlyDay `json:"details"`
}

// MonthlyStats groups the month's dose events by date, then by medicine.
// A date is achieved only when every medicine on it reached 100%. The
// overall rate is taken/total across the whole month, not an average of
// daily percentages.
func (s *Service) MonthlyStats(ctx context.Context, userID uint64, month, year int) (MonthlyReport, error) {
	if month < 1 || month > 12 {
		return MonthlyReport{}, fmt.Errorf("%w: month %d out of range 1-12", ErrValidation, month)
	}
	first := Date(year, time.Month(month), 1)
	last := first.AddDate(0, 1, -1)

	var events []DoseEvent
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND active AND take_date >= ? AND take_date <= ?", userID, first, last).
		Order("id").
		Find(&events).Error
	if err != nil {
		return MonthlyReport{}, err
	}

	type agg struct {
		name         string
		taken, total int
	}
	byDate := map[string]map[uint64]*agg{}
	medicineOrder := map[string][]uint64{}
	takenTotal := 0

	for _, e := range events {
		day := e.TakeDate.Format(time.DateOnly)
		meds := byDate[day]
		if meds == nil {
			meds = map[uint64]*agg{}
			byDate[day] = meds
		}
		a := meds[e.ScheduleID]
		if a == nil {
			a = &agg{name: e.MedicineName}
			meds[e.ScheduleID] = a
			medicineOrder[day] = append(medicineOrder[day], e.ScheduleID)
		}
		a.total++
		if e.Taken {
			a.taken++
			takenTotal++
		}
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	details := make([]MonthlyDay, 0, len(dates))
	for _, d := range dates {
		day := MonthlyDay{Date: d, Achieved: true, Medicines: []MonthlyMedicine{}}
		for _, id := range medicineOrder[d] {
			a := byDate[d][id]
			pct := ratio(a.taken, a.total)
			if pct < 100 {
				day.Achieved = false
			}
			day.Medicines = append(day.Medicines, MonthlyMedicine{
				MedicineID: id,
				Name:       a.name,
				Percentage: pct,
			})
		}
		details = append(details, day)
	}

	return MonthlyReport{
		AchievementRate: ratio(takenTotal, len(events)),
		Details:         details,
	}, nil
}

// ratio is taken/total as a percentage rounded to 2 decimals, 0 when empty.
func ratio(taken, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(taken)/float64(total)*100*100) / 100
}
