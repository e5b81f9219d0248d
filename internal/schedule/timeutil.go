package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeRange is a clock interval within one day, minute precision,
// half-open [Start, End).
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Overlaps reports whether two half-open ranges intersect. The test is
// symmetric and covers containment in either direction as well as
// partial overlap on either edge. Adjacent ranges (a.End == b.Start) do
// not overlap.
func (r TimeRange) Overlaps(o TimeRange) bool {
	return ToMinutes(r.Start) < ToMinutes(o.End) && ToMinutes(o.Start) < ToMinutes(r.End)
}

// Contains reports whether the range covers the given "HH:MM" instant.
func (r TimeRange) Contains(t string) bool {
	m := ToMinutes(t)
	return m >= ToMinutes(r.Start) && m < ToMinutes(r.End)
}

// Valid reports whether the range is well ordered.
func (r TimeRange) Valid() bool {
	return ToMinutes(r.Start) < ToMinutes(r.End)
}

// NormalizeTime converts "HH:MM[:SS]" (or "H:M") to zero-padded "HH:MM",
// dropping seconds. "9:5:00" -> "09:05".
func NormalizeTime(s string) (string, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 {
		return "", fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return "", fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}

// ToMinutes returns the minute offset from midnight for a normalized
// "HH:MM" string. Unparseable input yields 0.
func ToMinutes(t string) int {
	parts := strings.SplitN(t, ":", 3)
	if len(parts) < 2 {
		return 0
	}
	hour, _ := strconv.Atoi(parts[0])
	minute, _ := strconv.Atoi(parts[1])
	return hour*60 + minute
}

// DurationMinutes is end minus start in minutes. No clamping: a
// misordered pair yields a negative value, ordering is the caller's
// check.
func DurationMinutes(start, end string) int {
	return ToMinutes(end) - ToMinutes(start)
}

// FormatLocalDate renders t as "YYYY-MM-DD" using the local calendar
// fields. It never round-trips through UTC, so a date near midnight
// stays on its local day in every timezone.
func FormatLocalDate(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
}

// ParseLocalDate is the inverse of FormatLocalDate, midnight local time.
func ParseLocalDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// MondayOfWeek returns the time-zeroed Monday of the week containing t.
// Sunday belongs to the week that started six days earlier, never to
// the week ahead.
func MondayOfWeek(t time.Time) time.Time {
	back := (int(t.Weekday()) + 6) % 7 // Mon=0 ... Sun=6
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()).AddDate(0, 0, -back)
}

// GridLabels expands [start, end] into ascending "HH:MM" labels every
// step minutes, end inclusive. "08:00".."20:00" at 30 gives 25 labels.
func GridLabels(start, end string, step int) []string {
	if step <= 0 {
		step = defaultSlotMinutes
	}
	first, last := ToMinutes(start), ToMinutes(end)
	var out []string
	for m := first; m <= last; m += step {
		out = append(out, fmt.Sprintf("%02d:%02d", m/60, m%60))
	}
	return out
}

// EachDate walks the inclusive local-date range [start, end], building a
// fresh time.Time per step so no Date value is ever shared across
// iterations.
func EachDate(start, end time.Time, fn func(d time.Time)) {
	d := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	last := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, end.Location())
	for !d.After(last) {
		fn(d)
		d = d.AddDate(0, 0, 1)
	}
}
