// Package dateutil holds the calendar arithmetic used by bookings.
//
// Calendar dates are represented as time.Time values anchored at UTC midnight so that
// adding days never drifts across a DST transition. Wall-clock times inside a day are
// TimeOfDay values (minutes after midnight).
package dateutil

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Clock abstracts the current instant.
type Clock interface {
	Now() time.Time
}

// SystemClock returns the real time.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ParseDate parses "YYYY-MM-DD", ignoring any trailing time component
// ("2025-11-18T00:00:00Z", "2025-11-18 09:00").
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(dateLayout) {
		sep := s[len(dateLayout)]
		if sep != 'T' && sep != ' ' {
			return time.Time{}, fmt.Errorf("invalid date %q", s)
		}
		s = s[:len(dateLayout)]
	}

	d, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return d, nil
}

// FormatDate renders a date as zero-padded "YYYY-MM-DD".
func FormatDate(d time.Time) string {
	return DateOf(d).Format(dateLayout)
}

// DateOf strips the time component, keeping the calendar date of t in its own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the calendar date of now as seen in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(now.In(loc))
}

func AddDays(d time.Time, n int) time.Time {
	return DateOf(d).AddDate(0, 0, n)
}

func IsWeekend(d time.Time) bool {
	switch DateOf(d).Weekday() {
	case time.Saturday, time.Sunday:
		return true
	default:
		return false
	}
}

// Frequency is the step of a recurring series.
type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(strings.ToLower(strings.TrimSpace(s))) {
	case FrequencyDaily:
		return FrequencyDaily, nil
	case FrequencyWeekly:
		return FrequencyWeekly, nil
	default:
		return "", fmt.Errorf("invalid frequency %q", s)
	}
}

// StepDays returns the number of days between two candidate occurrences.
func (f Frequency) StepDays() int {
	switch f {
	case FrequencyDaily:
		return 1
	case FrequencyWeekly:
		return 7
	default:
		return 0
	}
}

// Horizon is the latest date a series may reach when generated on today.
func Horizon(today time.Time, maxYears int) time.Time {
	return DateOf(today).AddDate(maxYears, 0, 0)
}

// EffectiveUntil caps until at the horizon computed from today.
func EffectiveUntil(until, today time.Time, maxYears int) time.Time {
	limit := Horizon(today, maxYears)
	until = DateOf(until)
	if until.After(limit) {
		return limit
	}
	return until
}

// GenerateOccurrences lists every date from start to min(until, today+maxYears) inclusive,
// stepping by the frequency and skipping Saturdays and Sundays. The result is ascending and
// empty when start is after the effective cap or the frequency is unknown.
func GenerateOccurrences(start, until time.Time, freq Frequency, maxYears int, today time.Time) []time.Time {
	step := freq.StepDays()
	if step == 0 {
		return nil
	}

	start = DateOf(start)
	last := EffectiveUntil(until, today, maxYears)
	if start.After(last) {
		return nil
	}

	var dates []time.Time
	for d := start; !d.After(last); d = d.AddDate(0, 0, step) {
		if IsWeekend(d) {
			continue
		}
		dates = append(dates, d)
	}
	return dates
}
