package storage

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo bundles the Postgres-backed repositories behind the schedule
// package's fetcher interfaces plus the admin mutation surface.
type Repo struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Repo {
	return &Repo{DB: db}
}
