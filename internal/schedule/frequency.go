package schedule

import (
	"fmt"
	"strings"
	"time"
)

// Frequency is the tagged union behind FrequencyType. Only the field
// matching Type may be set; Validate rejects everything else.
type Frequency struct {
	Type     FrequencyType
	Interval int   // interval: days between doses, 1 = daily
	Weekdays []int // weekdays: 0 = Sunday .. 6 = Saturday
	Custom   string
}

func (f Frequency) Validate() error {
	switch f.Type {
	case FrequencyInterval:
		if f.Interval < 1 {
			return fmt.Errorf("%w: interval must be at least 1 day", ErrValidation)
		}
		if len(f.Weekdays) > 0 || f.Custom != "" {
			return fmt.Errorf("%w: interval frequency takes no weekdays or custom text", ErrValidation)
		}
	case FrequencyWeekdays:
		if len(f.Weekdays) == 0 {
			return fmt.Errorf("%w: weekdays frequency needs at least one weekday", ErrValidation)
		}
		seen := map[int]bool{}
		for _, d := range f.Weekdays {
			if d < 0 || d > 6 {
				return fmt.Errorf("%w: weekday %d out of range 0-6", ErrValidation, d)
			}
			if seen[d] {
				return fmt.Errorf("%w: weekday %d listed twice", ErrValidation, d)
			}
			seen[d] = true
		}
		if f.Interval != 0 || f.Custom != "" {
			return fmt.Errorf("%w: weekdays frequency takes no interval or custom text", ErrValidation)
		}
	case FrequencyCustom:
		if strings.TrimSpace(f.Custom) == "" {
			return fmt.Errorf("%w: custom frequency needs a description", ErrValidation)
		}
		if f.Interval != 0 || len(f.Weekdays) > 0 {
			return fmt.Errorf("%w: custom frequency takes no interval or weekdays", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown frequency type %q", ErrValidation, f.Type)
	}
	return nil
}

// Trackable reports whether the frequency generates dose events at all.
// Custom regimens are tracked qualitatively only.
func (f Frequency) Trackable() bool {
	return f.Type != FrequencyCustom
}

func (s *Schedule) frequency() Frequency {
	days := make([]int, 0, len(s.FrequencyWeekdays))
	for _, d := range s.FrequencyWeekdays {
		days = append(days, int(d))
	}
	return Frequency{
		Type:     s.FrequencyType,
		Interval: s.FrequencyInterval,
		Weekdays: days,
		Custom:   s.FrequencyCustom,
	}
}

// dayIterator walks the qualifying calendar days of a frequency inside
// [start, end], both inclusive. Each call to newDayIterator starts a fresh
// finite walk; the iterator never mutates its inputs.
type dayIterator struct {
	freq Frequency
	cur  time.Time
	end  time.Time
	days map[int]bool
}

func newDayIterator(f Frequency, start, end time.Time) *dayIterator {
	it := &dayIterator{freq: f, cur: start, end: end}
	if f.Type == FrequencyWeekdays {
		it.days = make(map[int]bool, len(f.Weekdays))
		for _, d := range f.Weekdays {
			it.days[d] = true
		}
	}
	return it
}

func (it *dayIterator) next() (time.Time, bool) {
	for !it.cur.After(it.end) {
		d := it.cur
		switch it.freq.Type {
		case FrequencyInterval:
			// every step qualifies; the step size is the interval
			it.cur = d.AddDate(0, 0, it.freq.Interval)
			return d, true
		case FrequencyWeekdays:
			// step one day at a time; the weekday set selects
			it.cur = d.AddDate(0, 0, 1)
			if it.days[int(d.Weekday())] {
				return d, true
			}
		default:
			return time.Time{}, false
		}
	}
	return time.Time{}, false
}

// Date builds a calendar date at midnight UTC, the one representation every
// take_date and window bound uses.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Normalize truncates t to its calendar date in UTC.
func Normalize(t time.Time) time.Time {
	t = t.UTC()
	return Date(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD string into a calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q (want YYYY-MM-DD)", ErrValidation, s)
	}
	return Date(t.Year(), t.Month(), t.Day()), nil
}
