package dateutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time expressed in minutes after midnight.
type TimeOfDay int

const minutesPerDay = 24 * 60

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS" (seconds must be zero). "24:00" is
// accepted as the end of the day.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil || len(parts[0]) != 2 {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 2 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	if len(parts) == 3 {
		sec, err := strconv.Atoi(parts[2])
		if err != nil || sec != 0 {
			return 0, fmt.Errorf("invalid time %q: seconds are not supported", s)
		}
	}

	total := h*60 + m
	if h < 0 || total > minutesPerDay {
		return 0, fmt.Errorf("invalid time %q: out of range", s)
	}
	return TimeOfDay(total), nil
}

// String renders "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// SQL renders "HH:MM:SS" for time columns.
func (t TimeOfDay) SQL() string {
	if int(t) >= minutesPerDay {
		return "24:00:00"
	}
	return t.String() + ":00"
}

// Aligned reports whether t falls on a multiple of granularity minutes.
func (t TimeOfDay) Aligned(granularity int) bool {
	if granularity <= 1 {
		return true
	}
	return int(t)%granularity == 0
}

// Overlaps reports whether the half-open ranges [aStart, aEnd) and [bStart, bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd TimeOfDay) bool {
	return aStart < bEnd && aEnd > bStart
}

// FormatRange renders "HH:MM-HH:MM".
func FormatRange(start, end TimeOfDay) string {
	return start.String() + "-" + end.String()
}

// Combine places a wall-clock time on a calendar date in loc, producing an instant.
func Combine(date time.Time, t TimeOfDay, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, int(t)/60, int(t)%60, 0, 0, loc)
}

// WallClock renders the "HH:MM:SS" wall-clock time of t in loc.
func WallClock(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("15:04:05")
}
