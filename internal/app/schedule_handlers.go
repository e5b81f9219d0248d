package app

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clinic-booking-service/internal/schedule"
)

// GET /api/schedule/matrix?from=YYYY-MM-DD&to=YYYY-MM-DD
// Builds the per-cell occupancy map for the requested range; with no
// range given it defaults to the current Monday-anchored week. All
// three sources must load; a partial fetch returns 503 so the client
// retries instead of rendering a misleading grid.
func (a *App) GetMatrixHandler(c *gin.Context) {
	from, to := c.Query("from"), c.Query("to")
	if from == "" && to == "" {
		from, to = defaultWeekRange(time.Now())
	}
	if !a.validDateRange(c, from, to) {
		return
	}
	ctx := c.Request.Context()

	view := schedule.NewView(a.Cache, a.Logger)
	view.Request(from, to)

	snap, err := a.loader().Load(ctx, from, to)
	if err != nil {
		if errors.Is(err, schedule.ErrPartialFetch) {
			c.Header("Retry-After", "2")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "schedule sources incomplete, retry"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	view.Apply(ctx, snap)

	cells, err := view.BuildMatrix(ctx, a.Grid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"from": from, "to": to, "cells": cells})
}

// GET /api/schedule/template
func (a *App) GetTemplateHandler(c *gin.Context) {
	tmpl, err := a.Repo.FetchWeeklyTemplate(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, tmpl)
}

type weekdayBlocksReq struct {
	Blocks []schedule.WeeklyBlock `json:"blocks"`
}

// PUT /api/schedule/template/:weekday
// Replaces the weekday's blocks wholesale, matching the admin UI's
// whole-day edit.
func (a *App) SetWeekdayHandler(c *gin.Context) {
	weekday, err := strconv.Atoi(c.Param("weekday"))
	if err != nil || weekday < 0 || weekday > 6 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "weekday must be 0..6"})
		return
	}
	var req weekdayBlocksReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	blocks, ok := a.normalizeBlocks(c, weekday, req.Blocks)
	if !ok {
		return
	}
	if err := a.Repo.ReplaceWeekday(c.Request.Context(), weekday, blocks); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"weekday": weekday, "blocks": blocks})
}

type copyWeekdayReq struct {
	Source  int   `json:"source"`
	Targets []int `json:"targets" binding:"required"`
}

// POST /api/schedule/template/copy
// The "apply to all days / apply to weekdays" bulk action: copies the
// source weekday's blocks onto each target.
func (a *App) CopyWeekdayHandler(c *gin.Context) {
	var req copyWeekdayReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Source < 0 || req.Source > 6 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source must be 0..6"})
		return
	}
	ctx := c.Request.Context()
	tmpl, err := a.Repo.FetchWeeklyTemplate(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	src := tmpl[req.Source]
	for _, target := range req.Targets {
		if target < 0 || target > 6 || target == req.Source {
			continue
		}
		day := make([]schedule.WeeklyBlock, len(src))
		copy(day, src)
		for i := range day {
			day[i].Weekday = target
		}
		if err := a.Repo.ReplaceWeekday(ctx, target, day); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"source": req.Source, "targets": req.Targets})
}

// GET /api/schedule/exceptions?from=YYYY-MM-DD&to=YYYY-MM-DD
func (a *App) ListExceptionsHandler(c *gin.Context) {
	from, to, ok := a.dateRange(c)
	if !ok {
		return
	}
	items, err := a.Repo.FetchExceptions(c.Request.Context(), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, items)
}

// POST /api/schedule/exceptions
// Returns the full created record so the admin client can reconcile its
// optimistic state without a re-fetch. Duplicate and overlap conflicts
// are surfaced verbatim with the conflicting record's identity.
func (a *App) CreateExceptionHandler(c *gin.Context) {
	var e schedule.ManualException
	if err := c.BindJSON(&e); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := schedule.ParseLocalDate(e.Date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	if e.Kind != schedule.ExceptionBlocked && e.Kind != schedule.ExceptionAvailable {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be blocked or available"})
		return
	}
	var err error
	if e.Range.Start, err = schedule.NormalizeTime(e.Range.Start); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if e.Range.End, err = schedule.NormalizeTime(e.Range.End); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !e.Range.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must be before end"})
		return
	}

	ctx := c.Request.Context()
	created, err := a.Repo.InsertException(ctx, e)
	if err != nil {
		if errors.Is(err, schedule.ErrDuplicateException) || errors.Is(err, schedule.ErrOverlapConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	a.invalidateDay(c, created.Date)
	c.JSON(http.StatusCreated, created)
}

// DELETE /api/schedule/exceptions/:id
// Repeated deletes fail with 404 on purpose: the admin UI uses the
// failure to detect stale local state.
func (a *App) DeleteExceptionHandler(c *gin.Context) {
	id := c.Param("id")
	date := c.Query("date")
	if err := a.Repo.DeleteException(c.Request.Context(), id); err != nil {
		if errors.Is(err, schedule.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if date != "" {
		a.invalidateDay(c, date)
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (a *App) dateRange(c *gin.Context) (string, string, bool) {
	from := c.Query("from")
	to := c.Query("to")
	if from == "" || to == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to required (YYYY-MM-DD)"})
		return "", "", false
	}
	if !a.validDateRange(c, from, to) {
		return "", "", false
	}
	return from, to, true
}

func (a *App) validDateRange(c *gin.Context, from, to string) bool {
	if _, err := schedule.ParseLocalDate(from); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from"})
		return false
	}
	if _, err := schedule.ParseLocalDate(to); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to"})
		return false
	}
	if from > to {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must not be after to"})
		return false
	}
	return true
}

// defaultWeekRange is the Monday-anchored week containing now, the
// booking calendar's default view.
func defaultWeekRange(now time.Time) (string, string) {
	monday := schedule.MondayOfWeek(now)
	return schedule.FormatLocalDate(monday), schedule.FormatLocalDate(monday.AddDate(0, 0, 6))
}

func (a *App) normalizeBlocks(c *gin.Context, weekday int, in []schedule.WeeklyBlock) ([]schedule.WeeklyBlock, bool) {
	out := make([]schedule.WeeklyBlock, 0, len(in))
	for _, b := range in {
		var err error
		if b.Range.Start, err = schedule.NormalizeTime(b.Range.Start); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return nil, false
		}
		if b.Range.End, err = schedule.NormalizeTime(b.Range.End); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return nil, false
		}
		if !b.Range.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start must be before end"})
			return nil, false
		}
		if b.Modality == "" {
			b.Modality = schedule.ModalityBoth
		}
		b.Weekday = weekday
		out = append(out, b)
	}
	return out, true
}

func (a *App) invalidateDay(c *gin.Context, date string) {
	if a.Cache == nil {
		return
	}
	if err := a.Cache.Delete(c.Request.Context(), schedule.DayCacheKey(date)); err != nil {
		a.Logger.Warn("cell cache invalidation failed", zap.String("date", date), zap.Error(err))
	}
}
