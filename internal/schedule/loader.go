package schedule

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"clinic-booking-service/internal/cache"
)

// The three read sources the matrix depends on. Implemented by the
// Postgres repositories in internal/storage; tests supply fakes.
type TemplateFetcher interface {
	FetchWeeklyTemplate(ctx context.Context) (map[int][]WeeklyBlock, error)
}

type ExceptionFetcher interface {
	FetchExceptions(ctx context.Context, dateStart, dateEnd string) ([]ManualException, error)
}

type AppointmentFetcher interface {
	FetchAppointments(ctx context.Context, dateStart, dateEnd string) ([]Appointment, error)
}

// Snapshot is one complete, range-tagged read of all three sources.
type Snapshot struct {
	DateStart    string
	DateEnd      string
	Template     map[int][]WeeklyBlock
	Exceptions   []ManualException
	Appointments []Appointment
}

// Loader joins the three fetches for a date range. All three must
// succeed; a matrix built on two of three sources would misreport
// blocked cells as available, so any failure fails the whole load.
type Loader struct {
	Templates    TemplateFetcher
	Exceptions   ExceptionFetcher
	Appointments AppointmentFetcher
}

// Load fetches the three sources concurrently and returns a snapshot
// tagged with the requested range. Any single failure wraps
// ErrPartialFetch with its cause; retry policy belongs to the caller.
func (l *Loader) Load(ctx context.Context, dateStart, dateEnd string) (*Snapshot, error) {
	snap := &Snapshot{DateStart: dateStart, DateEnd: dateEnd}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := l.Templates.FetchWeeklyTemplate(gctx)
		if err != nil {
			return fmt.Errorf("weekly template: %w", err)
		}
		snap.Template = t
		return nil
	})
	g.Go(func() error {
		e, err := l.Exceptions.FetchExceptions(gctx, dateStart, dateEnd)
		if err != nil {
			return fmt.Errorf("exceptions: %w", err)
		}
		snap.Exceptions = e
		return nil
	})
	g.Go(func() error {
		a, err := l.Appointments.FetchAppointments(gctx, dateStart, dateEnd)
		if err != nil {
			return fmt.Errorf("appointments: %w", err)
		}
		snap.Appointments = a
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPartialFetch, err)
	}
	return snap, nil
}

// View holds the currently displayed date range and the live stores the
// matrix builder reads. A snapshot only applies if it matches the range
// the view currently wants, so a late response for a previous week can
// never clobber the current one.
type View struct {
	mu sync.Mutex

	dateStart string
	dateEnd   string

	template     *WeeklyTemplate
	exceptions   *ExceptionStore
	appointments *AppointmentStore
	builder      *MatrixBuilder
	logger       *zap.Logger
}

// NewView creates an empty view. store may be nil to skip the cell
// cache.
func NewView(store cache.Store, logger *zap.Logger) *View {
	if logger == nil {
		logger = zap.NewNop()
	}
	v := &View{
		template:     NewWeeklyTemplate(),
		exceptions:   NewExceptionStore(),
		appointments: NewAppointmentStore(),
		logger:       logger,
	}
	v.builder = NewMatrixBuilder(v.template, v.exceptions, v.appointments, store, logger)
	return v
}

// Request records the range the view now wants. Any snapshot tagged
// with a different range is stale from this point on.
func (v *View) Request(dateStart, dateEnd string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.dateStart = dateStart
	v.dateEnd = dateEnd
}

// Apply installs a snapshot if it matches the requested range, and
// reports whether it was applied. Server state replaces local state
// unconditionally, which also reconciles any optimistic edits that the
// server rejected.
func (v *View) Apply(ctx context.Context, snap *Snapshot) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if snap.DateStart != v.dateStart || snap.DateEnd != v.dateEnd {
		v.logger.Debug("discarding stale snapshot",
			zap.String("got", snap.DateStart+".."+snap.DateEnd),
			zap.String("want", v.dateStart+".."+v.dateEnd))
		return false
	}
	for d := 0; d < 7; d++ {
		v.template.SetBlocksForWeekday(d, snap.Template[d])
	}
	v.exceptions.Replace(snap.Exceptions)
	v.appointments.Replace(snap.Appointments)
	return true
}

// BuildMatrix renders the currently applied data over the given labels.
func (v *View) BuildMatrix(ctx context.Context, slotLabels []string) (map[string]CalendarCell, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.dateStart == "" || v.dateEnd == "" {
		return nil, fmt.Errorf("%w: no range requested", ErrPartialFetch)
	}
	return v.builder.BuildMatrix(ctx, v.dateStart, v.dateEnd, slotLabels)
}

// OptimisticAddException applies an exception create locally before the
// server confirms. The next applied snapshot reconciles; on
// disagreement the server wins.
func (v *View) OptimisticAddException(ctx context.Context, e ManualException) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	id, err := v.exceptions.Add(e)
	if err != nil {
		return "", err
	}
	v.builder.InvalidateDate(ctx, e.Date)
	return id, nil
}

// OptimisticRemoveException applies an exception delete locally.
func (v *View) OptimisticRemoveException(ctx context.Context, id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	existing, ok := v.exceptions.Get(id)
	if !ok {
		return fmt.Errorf("%w: exception %s", ErrNotFound, id)
	}
	if err := v.exceptions.Remove(id); err != nil {
		return err
	}
	v.builder.InvalidateDate(ctx, existing.Date)
	return nil
}
