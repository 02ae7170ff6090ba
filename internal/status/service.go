package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("not found")
var ErrValidation = errors.New("invalid input")
var ErrConflict = errors.New("conflict")

type Service struct {
	DB *gorm.DB
}

func validateDiscomforts(list []Discomfort) error {
	for i, d := range list {
		if strings.TrimSpace(d.Description) == "" {
			return fmt.Errorf("%w: discomfort %d needs a description", ErrValidation, i)
		}
		if d.Severity < 1 || d.Severity > 5 {
			return fmt.Errorf("%w: discomfort %d severity must be 1-5", ErrValidation, i)
		}
	}
	return nil
}

func marshalDiscomforts(list []Discomfort) json.RawMessage {
	if list == nil {
		list = []Discomfort{}
	}
	b, _ := json.Marshal(list)
	return b
}

func (s *Service) Create(ctx context.Context, userID uint64, date time.Time, discomforts []Discomfort, additionalInfo string) (DailyStatus, error) {
	if date.IsZero() {
		return DailyStatus{}, fmt.Errorf("%w: date is required", ErrValidation)
	}
	if err := validateDiscomforts(discomforts); err != nil {
		return DailyStatus{}, err
	}

	st := DailyStatus{
		UserID:         userID,
		Date:           date,
		Discomforts:    marshalDiscomforts(discomforts),
		AdditionalInfo: additionalInfo,
	}
	if err := s.DB.WithContext(ctx).Create(&st).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return DailyStatus{}, fmt.Errorf("%w: daily status already exists for %s", ErrConflict, date.Format(time.DateOnly))
		}
		return DailyStatus{}, err
	}
	return st, nil
}

func (s *Service) GetByDate(ctx context.Context, userID uint64, date time.Time) (DailyStatus, error) {
	var st DailyStatus
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return DailyStatus{}, ErrNotFound
	}
	if err != nil {
		return DailyStatus{}, err
	}
	return st, nil
}

func (s *Service) GetRange(ctx context.Context, userID uint64, from, to time.Time) ([]DailyStatus, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: range end before start", ErrValidation)
	}
	var out []DailyStatus
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, from, to).
		Order("date").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AddDiscomforts appends symptoms to the day's record, creating the record
// first if the day has none yet.
func (s *Service) AddDiscomforts(ctx context.Context, userID uint64, date time.Time, discomforts []Discomfort) (DailyStatus, error) {
	if len(discomforts) == 0 {
		return DailyStatus{}, fmt.Errorf("%w: no discomforts given", ErrValidation)
	}
	if err := validateDiscomforts(discomforts); err != nil {
		return DailyStatus{}, err
	}

	var st DailyStatus
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND date = ?", userID, date).First(&st).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			st = DailyStatus{
				UserID:      userID,
				Date:        date,
				Discomforts: marshalDiscomforts(discomforts),
			}
			return tx.Create(&st).Error
		}
		if err != nil {
			return err
		}

		var existing []Discomfort
		if len(st.Discomforts) > 0 {
			if err := json.Unmarshal(st.Discomforts, &existing); err != nil {
				return err
			}
		}
		st.Discomforts = marshalDiscomforts(append(existing, discomforts...))
		return tx.Save(&st).Error
	})
	if err != nil {
		return DailyStatus{}, err
	}
	return st, nil
}

// SetAdditionalInfo replaces the day's free-text note, creating the record
// if needed.
func (s *Service) SetAdditionalInfo(ctx context.Context, userID uint64, date time.Time, info string) (DailyStatus, error) {
	var st DailyStatus
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND date = ?", userID, date).First(&st).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			st = DailyStatus{
				UserID:         userID,
				Date:           date,
				Discomforts:    marshalDiscomforts(nil),
				AdditionalInfo: info,
			}
			return tx.Create(&st).Error
		}
		if err != nil {
			return err
		}
		st.AdditionalInfo = info
		return tx.Save(&st).Error
	})
	if err != nil {
		return DailyStatus{}, err
	}
	return st, nil
}

func (s *Service) Delete(ctx context.Context, userID uint64, date time.Time) error {
	res := s.DB.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		Delete(&DailyStatus{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
