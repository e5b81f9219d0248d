package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppointmentStorePutReplacesByID(t *testing.T) {
	s := NewAppointmentStore()
	s.Put(Appointment{ID: "a1", Date: "2025-01-06", StartTime: "10:00", DurationMinutes: 30})
	s.Put(Appointment{ID: "a1", Date: "2025-01-06", StartTime: "11:00", DurationMinutes: 30})

	got := s.ListForDate("2025-01-06")
	require.Len(t, got, 1)
	assert.Equal(t, "11:00", got[0].StartTime)
}

func TestAppointmentListForRange(t *testing.T) {
	s := NewAppointmentStore(
		Appointment{ID: "a1", Date: "2025-01-05", StartTime: "10:00", DurationMinutes: 30},
		Appointment{ID: "a2", Date: "2025-01-06", StartTime: "10:00", DurationMinutes: 30},
		Appointment{ID: "a3", Date: "2025-01-09", StartTime: "10:00", DurationMinutes: 30},
	)

	got := s.ListForRange("2025-01-05", "2025-01-06")
	require.Len(t, got, 2)
}

func TestDetectConflicts(t *testing.T) {
	// The no-overlap invariant is owned upstream; the store still
	// reports violations when they slip through.
	s := NewAppointmentStore(
		Appointment{ID: "a1", Date: "2025-01-06", StartTime: "10:00", DurationMinutes: 60},
		Appointment{ID: "a2", Date: "2025-01-06", StartTime: "10:30", DurationMinutes: 60},
		Appointment{ID: "a3", Date: "2025-01-06", StartTime: "11:30", DurationMinutes: 30},
	)

	conflicts := s.DetectConflicts("2025-01-06")
	require.Len(t, conflicts, 1)
	assert.Equal(t, "a1", conflicts[0][0].ID)
	assert.Equal(t, "a2", conflicts[0][1].ID)

	assert.Empty(t, s.DetectConflicts("2025-01-07"))
}

func TestDetectConflictsIgnoresDegenerateDurations(t *testing.T) {
	s := NewAppointmentStore(
		Appointment{ID: "a1", Date: "2025-01-06", StartTime: "10:00", DurationMinutes: 0},
		Appointment{ID: "a2", Date: "2025-01-06", StartTime: "10:00", DurationMinutes: 60},
	)
	assert.Empty(t, s.DetectConflicts("2025-01-06"))
}
