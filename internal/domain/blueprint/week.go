package blueprint

import (
	"fmt"
	"time"
)

const weekKeyLayout = "2006-01-02"

// WeekStart truncates t to the Monday of its ISO week at midnight UTC
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, time.UTC)
}

// WeekKey formats the Monday of t's week as an ISO date
func WeekKey(t time.Time) string {
	return WeekStart(t).Format(weekKeyLayout)
}

// ParseWeekStart parses an ISO date that must fall on a Monday
func ParseWeekStart(s string) (time.Time, error) {
	t, err := time.Parse(weekKeyLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s", ErrInvalidWeekStart, err.Error())
	}
	if t.Weekday() != time.Monday {
		return time.Time{}, fmt.Errorf("%w: %s is a %s", ErrInvalidWeekStart, s, t.Weekday())
	}
	return t, nil
}
