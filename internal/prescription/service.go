package prescription

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("not found")
var ErrValidation = errors.New("invalid input")

type Service struct {
	DB *gorm.DB
}

type CreateInput struct {
	Name      string
	Hospital  string
	StartDate time.Time
	EndDate   time.Time
}

func (s *Service) Create(ctx context.Context, userID uint64, in CreateInput) (Prescription, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Hospital = strings.TrimSpace(in.Hospital)
	if in.Name == "" || in.Hospital == "" {
		return Prescription{}, fmt.Errorf("%w: name and hospital are required", ErrValidation)
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return Prescription{}, fmt.Errorf("%w: start and end date are required", ErrValidation)
	}
	if in.EndDate.Before(in.StartDate) {
		return Prescription{}, fmt.Errorf("%w: end date before start date", ErrValidation)
	}

	p := Prescription{
		UserID:    userID,
		Name:      in.Name,
		Hospital:  in.Hospital,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		Active:    true,
	}
	if err := s.DB.WithContext(ctx).Create(&p).Error; err != nil {
		return Prescription{}, err
	}
	return p, nil
}

func (s *Service) FindByID(ctx context.Context, userID, id uint64) (Prescription, error) {
	var p Prescription
	err := s.DB.WithContext(ctx).
		Where("id = ? AND user_id = ? AND active", id, userID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Prescription{}, ErrNotFound
	}
	if err != nil {
		return Prescription{}, err
	}
	return p, nil
}

// UpdateWindow moves the validity window. The caller is responsible for
// reconciling dependent schedules afterwards.
func (s *Service) UpdateWindow(ctx context.Context, userID, id uint64, start, end time.Time) (Prescription, error) {
	if start.IsZero() || end.IsZero() {
		return Prescription{}, fmt.Errorf("%w: start and end date are required", ErrValidation)
	}
	if end.Before(start) {
		return Prescription{}, fmt.Errorf("%w: end date before start date", ErrValidation)
	}

	res := s.DB.WithContext(ctx).Model(&Prescription{}).
		Where("id = ? AND user_id = ? AND active", id, userID).
		Updates(map[string]any{"start_date": start, "end_date": end})
	if res.Error != nil {
		return Prescription{}, res.Error
	}
	if res.RowsAffected == 0 {
		return Prescription{}, ErrNotFound
	}
	return s.FindByID(ctx, userID, id)
}
