package app

import (
	"go.uber.org/zap"

	"clinic-booking-service/internal/cache"
	"clinic-booking-service/internal/schedule"
	"clinic-booking-service/internal/storage"
)

// App carries the handlers' dependencies.
type App struct {
	Repo   *storage.Repo
	Cache  cache.Store
	Logger *zap.Logger

	// Grid is the fixed time grid the matrix is built over,
	// e.g. every 30 minutes from 08:00 to 20:00.
	Grid []string
}

func New(repo *storage.Repo, store cache.Store, logger *zap.Logger, grid []string) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{Repo: repo, Cache: store, Logger: logger, Grid: grid}
}

func (a *App) loader() *schedule.Loader {
	return &schedule.Loader{
		Templates:    a.Repo,
		Exceptions:   a.Repo,
		Appointments: a.Repo,
	}
}
