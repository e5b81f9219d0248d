package schedule

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"strconv"
	"time"

	"go.uber.org/zap"

	"clinic-booking-service/internal/cache"
	"clinic-booking-service/internal/metrics"
)

// CellState is the resolved availability of one grid cell.
type CellState string

const (
	CellAvailable     CellState = "available"
	CellOccupied      CellState = "occupied"
	CellBlocked       CellState = "blocked"
	CellOutOfSchedule CellState = "outOfSchedule"
)

// CalendarCell is one (date, time) cell of the availability grid. For a
// multi-slot appointment only the anchor cell carries the occupant and
// span; continuation cells report occupied with no payload so UI layers
// never process the same appointment twice.
type CalendarCell struct {
	Date         string       `json:"date"`
	Time         string       `json:"time"`
	State        CellState    `json:"state"`
	Occupant     *Appointment `json:"occupant,omitempty"`
	SpanCount    int          `json:"span_count,omitempty"`
	Continuation bool         `json:"continuation,omitempty"`
}

// CellKey is the map key for a cell, "date_time".
func CellKey(date, t string) string {
	return date + "_" + t
}

const defaultSlotMinutes = 30

// MatrixBuilder computes per-cell occupancy from the weekly template,
// the manual exceptions and the booked appointments. Precedence per
// cell, first match wins:
//
//	occupied > blocked > available (exception or template) > outOfSchedule
//
// A blocked exception beats a weekly "available" block on purpose:
// manual overrides are more specific than the recurring default.
type MatrixBuilder struct {
	Template     *WeeklyTemplate
	Exceptions   *ExceptionStore
	Appointments *AppointmentStore

	store  cache.Store
	logger *zap.Logger
}

// NewMatrixBuilder wires a builder. store may be nil to disable the
// per-day cell cache.
func NewMatrixBuilder(t *WeeklyTemplate, e *ExceptionStore, a *AppointmentStore, store cache.Store, logger *zap.Logger) *MatrixBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MatrixBuilder{Template: t, Exceptions: e, Appointments: a, store: store, logger: logger}
}

// cachedDay is the cached form of one date's cells. The label list and
// an input fingerprint are stored alongside: a grid change or a data
// change reads as a miss instead of serving stale cells.
type cachedDay struct {
	Labels      []string       `json:"labels"`
	Fingerprint string         `json:"fingerprint"`
	Cells       []CalendarCell `json:"cells"`
}

// BuildMatrix computes the cell map for the inclusive local-date range
// [dateStart, dateEnd] over the given ascending time labels. Keys are
// "date_time". The computation is a pure function of the three input
// collections; the only state between calls is the per-day cache.
func (b *MatrixBuilder) BuildMatrix(ctx context.Context, dateStart, dateEnd string, slotLabels []string) (map[string]CalendarCell, error) {
	if len(slotLabels) == 0 {
		return map[string]CalendarCell{}, nil
	}
	start, err := ParseLocalDate(dateStart)
	if err != nil {
		return nil, err
	}
	end, err := ParseLocalDate(dateEnd)
	if err != nil {
		return nil, err
	}

	metrics.MatrixBuildsTotal.Inc()
	out := make(map[string]CalendarCell)
	EachDate(start, end, func(d time.Time) {
		for _, cell := range b.dayCells(ctx, d, slotLabels) {
			out[CellKey(cell.Date, cell.Time)] = cell
		}
	})
	return out, nil
}

// InvalidateDate drops the cached cells for one date. Must be called
// whenever an exception or appointment changes for that date.
func (b *MatrixBuilder) InvalidateDate(ctx context.Context, date string) {
	if b.store == nil {
		return
	}
	if err := b.store.Delete(ctx, DayCacheKey(date)); err != nil {
		b.logger.Warn("cell cache invalidation failed", zap.String("date", date), zap.Error(err))
	}
}

// DayCacheKey is the cache key for one date's cells.
func DayCacheKey(date string) string {
	return "cells:" + date
}

func (b *MatrixBuilder) dayCells(ctx context.Context, d time.Time, labels []string) []CalendarCell {
	date := FormatLocalDate(d)
	fp := b.dayFingerprint(date, int(d.Weekday()))

	if b.store != nil {
		if raw, ok, err := b.store.Get(ctx, DayCacheKey(date)); err == nil && ok {
			var day cachedDay
			if json.Unmarshal(raw, &day) == nil && day.Fingerprint == fp && sameLabels(day.Labels, labels) {
				return day.Cells
			}
		}
	}

	cells := b.computeDay(d, labels)

	if b.store != nil {
		if raw, err := json.Marshal(cachedDay{Labels: labels, Fingerprint: fp, Cells: cells}); err == nil {
			if err := b.store.Set(ctx, DayCacheKey(date), raw); err != nil {
				b.logger.Warn("cell cache write failed", zap.String("date", date), zap.Error(err))
			}
		}
	}
	return cells
}

// dayFingerprint hashes everything a date's cells are derived from. A
// cached entry computed from different inputs then reads as a miss, so
// correctness does not depend on every writer remembering to
// invalidate.
func (b *MatrixBuilder) dayFingerprint(date string, weekday int) string {
	h := fnv.New64a()
	write := func(parts ...string) {
		for _, p := range parts {
			h.Write([]byte(p))
			h.Write([]byte{0})
		}
	}
	for _, blk := range b.Template.BlocksForWeekday(weekday) {
		write("t", blk.Range.Start, blk.Range.End, string(blk.Modality))
	}
	for _, e := range b.Exceptions.ListForDate(date) {
		write("e", e.Range.Start, e.Range.End, string(e.Kind))
	}
	for _, a := range b.Appointments.ListForDate(date) {
		write("a", a.ID, a.StartTime, strconv.Itoa(a.DurationMinutes), a.Status)
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

func sameLabels(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// occupancy is a validated appointment placed on the grid.
type occupancy struct {
	appt        Appointment
	startMin    int
	endMin      int
	anchorLabel string
	spanCount   int
}

func (b *MatrixBuilder) computeDay(d time.Time, labels []string) []CalendarCell {
	date := FormatLocalDate(d)
	weekday := int(d.Weekday())
	slotSize := slotSizeFromLabels(labels)

	occupancies := b.placeAppointments(date, labels, slotSize)
	exceptions := b.Exceptions.ListForDate(date)

	cells := make([]CalendarCell, 0, len(labels))
	for _, label := range labels {
		cell := CalendarCell{Date: date, Time: label, State: CellOutOfSchedule}
		minute := ToMinutes(label)

		if occ := coveringOccupancy(occupancies, minute); occ != nil {
			cell.State = CellOccupied
			if occ.anchorLabel == label {
				appt := occ.appt
				cell.Occupant = &appt
				cell.SpanCount = occ.spanCount
			} else {
				cell.Continuation = true
			}
			cells = append(cells, cell)
			continue
		}

		if hasException(exceptions, ExceptionBlocked, label) {
			cell.State = CellBlocked
			cells = append(cells, cell)
			continue
		}

		if hasException(exceptions, ExceptionAvailable, label) {
			cell.State = CellAvailable
			cells = append(cells, cell)
			continue
		}

		if _, ok := b.Template.BlockCovering(weekday, label); ok {
			cell.State = CellAvailable
		}
		cells = append(cells, cell)
	}
	return cells
}

// placeAppointments validates and positions the date's appointments on
// the grid. A zero/negative duration or an unparseable start time skips
// that appointment with a warning; partial data must not abort the view.
func (b *MatrixBuilder) placeAppointments(date string, labels []string, slotSize int) []occupancy {
	var out []occupancy
	for _, a := range b.Appointments.ListForDate(date) {
		if a.Status == "cancelled" {
			continue
		}
		if a.DurationMinutes <= 0 {
			b.logger.Warn("skipping appointment with non-positive duration",
				zap.String("id", a.ID), zap.String("date", a.Date), zap.Int("duration", a.DurationMinutes))
			metrics.SkippedAppointmentsTotal.Inc()
			continue
		}
		start, err := NormalizeTime(a.StartTime)
		if err != nil {
			b.logger.Warn("skipping appointment with bad start time",
				zap.String("id", a.ID), zap.String("date", a.Date), zap.String("start", a.StartTime))
			metrics.SkippedAppointmentsTotal.Inc()
			continue
		}
		occ := occupancy{
			appt:      a,
			startMin:  ToMinutes(start),
			spanCount: (a.DurationMinutes + slotSize - 1) / slotSize,
		}
		occ.endMin = occ.startMin + a.DurationMinutes
		for _, label := range labels {
			m := ToMinutes(label)
			if m >= occ.startMin && m < occ.endMin {
				occ.anchorLabel = label
				break
			}
		}
		out = append(out, occ)
	}
	return out
}

func coveringOccupancy(occs []occupancy, minute int) *occupancy {
	for i := range occs {
		if minute >= occs[i].startMin && minute < occs[i].endMin {
			return &occs[i]
		}
	}
	return nil
}

func hasException(exceptions []ManualException, kind ExceptionKind, label string) bool {
	for _, e := range exceptions {
		if e.Kind == kind && e.Range.Contains(label) {
			return true
		}
	}
	return false
}

func slotSizeFromLabels(labels []string) int {
	if len(labels) >= 2 {
		if step := ToMinutes(labels[1]) - ToMinutes(labels[0]); step > 0 {
			return step
		}
	}
	return defaultSlotMinutes
}
