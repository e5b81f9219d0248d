package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTime(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"09:00", "09:00"},
		{"9:5", "09:05"},
		{"09:00:00", "09:00"},
		{"9:05:30.000", "09:05"},
		{"23:59", "23:59"},
	}
	for _, tc := range cases {
		got, err := NormalizeTime(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestNormalizeTimeRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "9", "abc", "9:xx", "25:00", "10:60"} {
		_, err := NormalizeTime(in)
		assert.ErrorIs(t, err, ErrInvalidTimeFormat, in)
	}
}

func TestToMinutesAndDuration(t *testing.T) {
	assert.Equal(t, 0, ToMinutes("00:00"))
	assert.Equal(t, 570, ToMinutes("09:30"))
	assert.Equal(t, 90, DurationMinutes("09:00", "10:30"))
	// No clamping on misordered pairs; ordering is the caller's check.
	assert.Equal(t, -60, DurationMinutes("10:00", "09:00"))
}

func TestFormatLocalDateNearMidnight(t *testing.T) {
	// 23:30 local in a UTC-negative zone is already the next day in UTC;
	// the formatted date must stay on the local day.
	loc := time.FixedZone("UTC-5", -5*3600)
	d := time.Date(2025, 3, 14, 23, 30, 0, 0, loc)
	assert.Equal(t, "2025-03-14", FormatLocalDate(d))
	assert.Equal(t, "2025-03-15", d.UTC().Format("2006-01-02"), "sanity: UTC would drift")

	loc = time.FixedZone("UTC+10", 10*3600)
	d = time.Date(2025, 3, 14, 0, 30, 0, 0, loc)
	assert.Equal(t, "2025-03-14", FormatLocalDate(d))
}

func TestMondayOfWeek(t *testing.T) {
	// Wednesday 2025-01-08 -> Monday 2025-01-06
	wed := time.Date(2025, 1, 8, 15, 0, 0, 0, time.Local)
	assert.Equal(t, "2025-01-06", FormatLocalDate(MondayOfWeek(wed)))

	// Sunday belongs to the week that began six days earlier, never the
	// week ahead.
	sun := time.Date(2025, 1, 5, 9, 0, 0, 0, time.Local)
	monday := MondayOfWeek(sun)
	assert.Equal(t, "2024-12-30", FormatLocalDate(monday))
	assert.Equal(t, 0, monday.Hour())

	// Monday maps to itself, time-zeroed.
	mon := time.Date(2025, 1, 6, 18, 45, 0, 0, time.Local)
	assert.Equal(t, "2025-01-06", FormatLocalDate(MondayOfWeek(mon)))
}

func TestOverlapsSymmetricAndHalfOpen(t *testing.T) {
	a := TimeRange{Start: "10:00", End: "11:00"}
	b := TimeRange{Start: "10:30", End: "11:30"}
	c := TimeRange{Start: "11:00", End: "12:00"}
	inner := TimeRange{Start: "10:15", End: "10:45"}

	assert.True(t, a.Overlaps(b))
	assert.Equal(t, a.Overlaps(b), b.Overlaps(a))
	assert.True(t, a.Overlaps(inner), "containment")
	assert.True(t, inner.Overlaps(a), "contained")
	// Adjacent half-open ranges do not overlap.
	assert.False(t, a.Overlaps(c))
	assert.False(t, c.Overlaps(a))
}

func TestGridLabels(t *testing.T) {
	labels := GridLabels("08:00", "20:00", 30)
	require.Len(t, labels, 25)
	assert.Equal(t, "08:00", labels[0])
	assert.Equal(t, "08:30", labels[1])
	assert.Equal(t, "20:00", labels[24])
}

func TestEachDateInclusiveAndNonAliasing(t *testing.T) {
	start := time.Date(2025, 1, 6, 12, 0, 0, 0, time.Local)
	end := time.Date(2025, 1, 8, 3, 0, 0, 0, time.Local)

	var seen []string
	var instances []time.Time
	EachDate(start, end, func(d time.Time) {
		seen = append(seen, FormatLocalDate(d))
		instances = append(instances, d)
	})
	assert.Equal(t, []string{"2025-01-06", "2025-01-07", "2025-01-08"}, seen)
	// Each step is its own value; earlier ones did not advance.
	assert.Equal(t, "2025-01-06", FormatLocalDate(instances[0]))
}
