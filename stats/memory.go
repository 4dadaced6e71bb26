package stats

import (
	"context"
	"sort"
	"sync"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	rounds      map[string][]RoundRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.rounds = make(map[string][]RoundRecord)
	return nil
}

// SaveRound stores record, replacing an earlier record for the same run and round.
func (s *MemoryStore) SaveRound(_ context.Context, record RoundRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	rounds := s.rounds[record.RunID]
	for i := range rounds {
		if rounds[i].Round == record.Round {
			rounds[i] = record
			return nil
		}
	}
	rounds = append(rounds, record)
	sort.Slice(rounds, func(i, j int) bool { return rounds[i].Round < rounds[j].Round })
	s.rounds[record.RunID] = rounds
	return nil
}

func (s *MemoryStore) Rounds(_ context.Context, runID string) ([]RoundRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}
	return append([]RoundRecord(nil), s.rounds[runID]...), nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = false
	s.rounds = nil
	return nil
}
