// Package stats records per-round evaluation statistics of a training run.
package stats

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotInitialized is returned by store operations before Init.
var ErrNotInitialized = errors.New("store is not initialized")

// RoundRecord summarizes one evaluated round.
type RoundRecord struct {
	RunID       string
	Round       int
	Generation  int
	Members     int
	Score       int
	Ticks       int
	HighScore   int
	BestFitness float64
	MeanFitness float64
	Duration    time.Duration
	Cancelled   bool
}

// Store persists round records grouped by run.
type Store interface {
	Init(ctx context.Context) error
	SaveRound(ctx context.Context, record RoundRecord) error
	// Rounds returns the records of runID ordered by round number.
	Rounds(ctx context.Context, runID string) ([]RoundRecord, error)
	Close() error
}

// NewRunID returns a fresh identifier for a training run.
func NewRunID() string {
	return uuid.NewString()
}

// Open returns an initialized store: SQLite at path, or an in-memory store for an empty path.
func Open(ctx context.Context, path string) (Store, error) {
	var store Store = NewMemoryStore()
	if path != "" {
		store = NewSQLiteStore(path)
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	return store, nil
}
