package schedule

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"clinic-booking-service/internal/cache"
)

type fakeSources struct {
	template     map[int][]WeeklyBlock
	exceptions   []ManualException
	appointments []Appointment

	templateErr     error
	exceptionsErr   error
	appointmentsErr error
}

func (f *fakeSources) FetchWeeklyTemplate(context.Context) (map[int][]WeeklyBlock, error) {
	return f.template, f.templateErr
}

func (f *fakeSources) FetchExceptions(_ context.Context, _, _ string) ([]ManualException, error) {
	return f.exceptions, f.exceptionsErr
}

func (f *fakeSources) FetchAppointments(_ context.Context, _, _ string) ([]Appointment, error) {
	return f.appointments, f.appointmentsErr
}

func newLoader(f *fakeSources) *Loader {
	return &Loader{Templates: f, Exceptions: f, Appointments: f}
}

func TestLoadJoinsAllThreeSources(t *testing.T) {
	f := &fakeSources{
		template: map[int][]WeeklyBlock{
			1: {{Weekday: 1, Range: TimeRange{Start: "09:00", End: "17:00"}}},
		},
		exceptions: []ManualException{
			{ID: "e1", Date: monday, Range: TimeRange{Start: "10:00", End: "11:00"}, Kind: ExceptionBlocked},
		},
		appointments: []Appointment{
			{ID: "a1", Date: monday, StartTime: "14:00", DurationMinutes: 30, Status: "confirmed"},
		},
	}

	snap, err := newLoader(f).Load(context.Background(), monday, monday)
	require.NoError(t, err)
	assert.Equal(t, monday, snap.DateStart)
	assert.Len(t, snap.Template[1], 1)
	assert.Len(t, snap.Exceptions, 1)
	assert.Len(t, snap.Appointments, 1)
}

func TestLoadFailsWholeOnAnySourceError(t *testing.T) {
	boom := errors.New("connection reset")
	for name, f := range map[string]*fakeSources{
		"template":     {templateErr: boom},
		"exceptions":   {exceptionsErr: boom},
		"appointments": {appointmentsErr: boom},
	} {
		t.Run(name, func(t *testing.T) {
			snap, err := newLoader(f).Load(context.Background(), monday, monday)
			// Never build on two-of-three sources.
			assert.Nil(t, snap)
			assert.ErrorIs(t, err, ErrPartialFetch)
		})
	}
}

func TestViewDiscardsStaleSnapshot(t *testing.T) {
	ctx := context.Background()
	v := NewView(nil, zap.NewNop())

	// The user navigated on: the view now wants the next week.
	v.Request("2025-01-13", "2025-01-19")

	late := &Snapshot{
		DateStart: "2025-01-06",
		DateEnd:   "2025-01-12",
		Exceptions: []ManualException{
			{ID: "e1", Date: monday, Range: TimeRange{Start: "10:00", End: "11:00"}, Kind: ExceptionBlocked},
		},
	}
	assert.False(t, v.Apply(ctx, late), "late response for the previous week must be dropped")

	current := &Snapshot{DateStart: "2025-01-13", DateEnd: "2025-01-19"}
	assert.True(t, v.Apply(ctx, current))
}

func TestViewApplyThenBuild(t *testing.T) {
	ctx := context.Background()
	v := NewView(nil, zap.NewNop())
	v.Request(monday, monday)

	snap := &Snapshot{
		DateStart: monday,
		DateEnd:   monday,
		Template: map[int][]WeeklyBlock{
			1: {{Weekday: 1, Range: TimeRange{Start: "09:00", End: "17:00"}}},
		},
		Exceptions: []ManualException{
			{ID: "e1", Date: monday, Range: TimeRange{Start: "10:00", End: "11:00"}, Kind: ExceptionBlocked},
		},
	}
	require.True(t, v.Apply(ctx, snap))

	cells, err := v.BuildMatrix(ctx, grid)
	require.NoError(t, err)
	assert.Equal(t, CellBlocked, cells[CellKey(monday, "10:00")].State)
	assert.Equal(t, CellAvailable, cells[CellKey(monday, "09:00")].State)
}

func TestViewRefusesBuildWithoutRange(t *testing.T) {
	v := NewView(nil, zap.NewNop())
	_, err := v.BuildMatrix(context.Background(), grid)
	assert.ErrorIs(t, err, ErrPartialFetch)
}

func TestOptimisticExceptionThenServerReconcile(t *testing.T) {
	ctx := context.Background()
	v := NewView(nil, zap.NewNop())
	v.Request(monday, monday)
	require.True(t, v.Apply(ctx, &Snapshot{
		DateStart: monday,
		DateEnd:   monday,
		Template: map[int][]WeeklyBlock{
			1: {{Weekday: 1, Range: TimeRange{Start: "09:00", End: "17:00"}}},
		},
	}))

	// Optimistic create shows up immediately.
	id, err := v.OptimisticAddException(ctx, ManualException{
		Date:  monday,
		Range: TimeRange{Start: "10:00", End: "11:00"},
		Kind:  ExceptionBlocked,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	cells, err := v.BuildMatrix(ctx, grid)
	require.NoError(t, err)
	assert.Equal(t, CellBlocked, cells[CellKey(monday, "10:00")].State)

	// The server disagrees (it rejected the create): its snapshot wins.
	require.True(t, v.Apply(ctx, &Snapshot{
		DateStart: monday,
		DateEnd:   monday,
		Template: map[int][]WeeklyBlock{
			1: {{Weekday: 1, Range: TimeRange{Start: "09:00", End: "17:00"}}},
		},
	}))
	cells, err = v.BuildMatrix(ctx, grid)
	require.NoError(t, err)
	assert.Equal(t, CellAvailable, cells[CellKey(monday, "10:00")].State)
}

func TestRepeatedApplyBuildHitsCellCache(t *testing.T) {
	// Two request/load/apply/build rounds over unchanged data, each
	// with a fresh view as two HTTP requests would be. The second round
	// must serve the cached day instead of recomputing it.
	ctx := context.Background()
	store := &countingStore{Store: cache.NewMemory()}
	f := &fakeSources{
		template: map[int][]WeeklyBlock{
			1: {{Weekday: 1, Range: TimeRange{Start: "09:00", End: "17:00"}}},
		},
	}

	for i := 0; i < 2; i++ {
		v := NewView(store, zap.NewNop())
		v.Request(monday, monday)
		snap, err := newLoader(f).Load(ctx, monday, monday)
		require.NoError(t, err)
		require.True(t, v.Apply(ctx, snap))

		cells, err := v.BuildMatrix(ctx, grid)
		require.NoError(t, err)
		assert.Equal(t, CellAvailable, cells[CellKey(monday, "09:00")].State)
	}
	assert.Equal(t, 1, store.sets)
}

func TestOptimisticRemoveMissingException(t *testing.T) {
	v := NewView(nil, zap.NewNop())
	v.Request(monday, monday)
	err := v.OptimisticRemoveException(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}
