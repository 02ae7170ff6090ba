package extra

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

var ErrValidation = errors.New("invalid input")

type Service struct {
	DB *gorm.DB
}

type CreateInput struct {
	Name    string
	Dose    string
	Unit    string
	TakenAt time.Time
}

func (s *Service) Create(ctx context.Context, userID uint64, in CreateInput) (Med, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Dose = strings.TrimSpace(in.Dose)
	in.Unit = strings.TrimSpace(in.Unit)
	if in.Name == "" || in.Dose == "" || in.Unit == "" {
		return Med{}, fmt.Errorf("%w: name, dose and unit are required", ErrValidation)
	}
	if in.TakenAt.IsZero() {
		return Med{}, fmt.Errorf("%w: taken time is required", ErrValidation)
	}

	m := Med{
		UserID:  userID,
		Name:    in.Name,
		Dose:    in.Dose,
		Unit:    in.Unit,
		TakenAt: in.TakenAt.UTC(),
		Active:  true,
	}
	if err := s.DB.WithContext(ctx).Create(&m).Error; err != nil {
		return Med{}, err
	}
	return m, nil
}

// View is the list representation: time of day only, the list is already
// scoped to one date.
type View struct {
	ID      uint64 `json:"id"`
	Name    string `json:"name"`
	Dose    string `json:"dose"`
	Unit    string `json:"unit"`
	TakenAt string `json:"takenTime"` // HH:MM
}

// ListByDate returns the extra doses taken on one calendar date (UTC).
func (s *Service) ListByDate(ctx context.Context, userID uint64, date time.Time) ([]View, error) {
	next := date.AddDate(0, 0, 1)

	var meds []Med
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND active AND taken_at >= ? AND taken_at < ?", userID, date, next).
		Order("taken_at").
		Find(&meds).Error
	if err != nil {
		return nil, err
	}

	out := make([]View, 0, len(meds))
	for _, m := range meds {
		out = append(out, View{
			ID:      m.ID,
			Name:    m.Name,
			Dose:    m.Dose,
			Unit:    m.Unit,
			TakenAt: m.TakenAt.UTC().Format("15:04"),
		})
	}
	return out, nil
}
