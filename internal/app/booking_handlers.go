package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"clinic-booking-service/internal/schedule"
)

type createAppointmentReq struct {
	Date            string `json:"date" binding:"required"`
	StartTime       string `json:"start_time" binding:"required"`
	DurationMinutes int    `json:"duration_minutes" binding:"required"`
	PatientRef      string `json:"patient_ref" binding:"required"`
}

// GET /api/appointments?from=YYYY-MM-DD&to=YYYY-MM-DD
func (a *App) ListAppointmentsHandler(c *gin.Context) {
	from, to, ok := a.dateRange(c)
	if !ok {
		return
	}
	items, err := a.Repo.FetchAppointments(c.Request.Context(), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, items)
}

// POST /api/appointments
func (a *App) CreateAppointmentHandler(c *gin.Context) {
	var req createAppointmentReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := schedule.ParseLocalDate(req.Date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	start, err := schedule.NormalizeTime(req.StartTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.DurationMinutes <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "duration_minutes must be positive"})
		return
	}

	ctx := c.Request.Context()
	available, err := a.rangeAvailable(ctx, req.Date, start, req.DurationMinutes)
	if err != nil {
		if errors.Is(err, schedule.ErrPartialFetch) {
			c.Header("Retry-After", "2")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "schedule sources incomplete, retry"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !available {
		c.JSON(http.StatusConflict, gin.H{"error": "requested time is not available"})
		return
	}

	created, err := a.Repo.CreateAppointment(ctx, schedule.Appointment{
		Date:            req.Date,
		StartTime:       start,
		DurationMinutes: req.DurationMinutes,
		PatientRef:      req.PatientRef,
	})
	if err != nil {
		switch {
		case errors.Is(err, schedule.ErrOverlapConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "slot already booked"})
		case errors.Is(err, schedule.ErrInvalidTimeFormat):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	a.invalidateDay(c, created.Date)
	c.JSON(http.StatusCreated, created)
}

// DELETE /api/appointments/:id
func (a *App) CancelAppointmentHandler(c *gin.Context) {
	id := c.Param("id")
	err := a.Repo.CancelAppointment(c.Request.Context(), id)
	if err != nil {
		c.JSON(cancelStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func cancelStatus(err error) int {
	switch {
	case errors.Is(err, schedule.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, schedule.ErrAlreadyCancelled):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// rangeAvailable builds the day's cells and checks every cell the
// requested span touches is free. Catches bookings landing on blocked
// or out-of-schedule time before the row-level conflict check runs.
func (a *App) rangeAvailable(ctx context.Context, date, start string, duration int) (bool, error) {
	snap, err := a.loader().Load(ctx, date, date)
	if err != nil {
		return false, err
	}
	view := schedule.NewView(a.Cache, a.Logger)
	view.Request(date, date)
	view.Apply(ctx, snap)
	cells, err := view.BuildMatrix(ctx, a.Grid)
	if err != nil {
		return false, err
	}

	slot := 30
	if len(a.Grid) > 1 {
		slot = schedule.ToMinutes(a.Grid[1]) - schedule.ToMinutes(a.Grid[0])
	}
	startMin := schedule.ToMinutes(start)
	endMin := startMin + duration

	covered := false
	for _, label := range a.Grid {
		m := schedule.ToMinutes(label)
		if m+slot <= startMin || m >= endMin {
			continue
		}
		covered = true
		cell, ok := cells[schedule.CellKey(date, label)]
		if !ok || cell.State != schedule.CellAvailable {
			return false, nil
		}
	}
	return covered, nil
}

type validateSelectionReq struct {
	RequiredSessions int                         `json:"required_sessions" binding:"required"`
	Existing         []schedule.SessionSelection `json:"existing"`
	Candidate        schedule.SessionSelection   `json:"candidate" binding:"required"`
}

// POST /api/packages/selection/validate
// Checks one candidate session pick against the selections already
// made for a multi-session package. Overlap detail stays internal; the
// end user only needs to pick a different time.
func (a *App) ValidateSelectionHandler(c *gin.Context) {
	var req validateSelectionReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cand := req.Candidate
	var err error
	if cand.Range.Start, err = schedule.NormalizeTime(cand.Range.Start); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if cand.Range.End, err = schedule.NormalizeTime(cand.Range.End); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !cand.Range.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must be before end"})
		return
	}
	if cand.SessionNumber < 1 || cand.SessionNumber > req.RequiredSessions {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_number out of range"})
		return
	}

	if err := schedule.ValidateSelection(req.Existing, cand); err != nil {
		if errors.Is(err, schedule.ErrSelectionOverlap) {
			c.JSON(http.StatusConflict, gin.H{"error": "Overlap", "message": "choose a different time"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plan := schedule.NewSelectionPlan(req.RequiredSessions)
	for _, sel := range req.Existing {
		// Existing picks were validated when made; replay without re-checking order.
		if err := plan.Assign(sel.SessionNumber, sel.Date, sel.Range); err != nil {
			if errors.Is(err, schedule.ErrSelectionOverlap) {
				c.JSON(http.StatusConflict, gin.H{"error": "Overlap", "message": "choose a different time"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if err := plan.Assign(cand.SessionNumber, cand.Date, cand.Range); err != nil {
		if errors.Is(err, schedule.ErrSelectionOverlap) {
			c.JSON(http.StatusConflict, gin.H{"error": "Overlap", "message": "choose a different time"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{"ok": true, "complete": plan.IsComplete()}
	if next, more := plan.NextUnassignedSession(); more {
		resp["next_session"] = next
	}
	c.JSON(http.StatusOK, resp)
}
