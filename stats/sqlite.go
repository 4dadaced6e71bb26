package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("open %s: %w", s.path, err)
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return fmt.Errorf("create tables: %w", err)
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveRound(ctx context.Context, record RoundRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO rounds (run_id, round, generation, members, score, ticks, high_score,
			best_fitness, mean_fitness, duration_ns, cancelled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, round) DO UPDATE SET
			generation = excluded.generation,
			members = excluded.members,
			score = excluded.score,
			ticks = excluded.ticks,
			high_score = excluded.high_score,
			best_fitness = excluded.best_fitness,
			mean_fitness = excluded.mean_fitness,
			duration_ns = excluded.duration_ns,
			cancelled = excluded.cancelled
	`, record.RunID, record.Round, record.Generation, record.Members, record.Score, record.Ticks,
		record.HighScore, record.BestFitness, record.MeanFitness, int64(record.Duration), record.Cancelled)
	if err != nil {
		return fmt.Errorf("save round %d of run %s: %w", record.Round, record.RunID, err)
	}
	return nil
}

func (s *SQLiteStore) Rounds(ctx context.Context, runID string) ([]RoundRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT run_id, round, generation, members, score, ticks, high_score,
			best_fitness, mean_fitness, duration_ns, cancelled
		FROM rounds WHERE run_id = ? ORDER BY round
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []RoundRecord
	for rows.Next() {
		var r RoundRecord
		var duration int64
		if err := rows.Scan(&r.RunID, &r.Round, &r.Generation, &r.Members, &r.Score, &r.Ticks,
			&r.HighScore, &r.BestFitness, &r.MeanFitness, &duration, &r.Cancelled); err != nil {
			return nil, fmt.Errorf("scan round of run %s: %w", runID, err)
		}
		r.Duration = time.Duration(duration)
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrNotInitialized
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS rounds (
			run_id TEXT NOT NULL,
			round INTEGER NOT NULL,
			generation INTEGER NOT NULL,
			members INTEGER NOT NULL,
			score INTEGER NOT NULL,
			ticks INTEGER NOT NULL,
			high_score INTEGER NOT NULL,
			best_fitness REAL NOT NULL,
			mean_fitness REAL NOT NULL,
			duration_ns INTEGER NOT NULL,
			cancelled INTEGER NOT NULL,
			PRIMARY KEY (run_id, round)
		);
	`)
	return err
}
