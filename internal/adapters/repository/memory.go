package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/okian/matchsim/internal/domain/model"
	"github.com/okian/matchsim/pkg/metrics"
)

// MemoryResultStore keeps results in a map, optionally bounded.
type MemoryResultStore struct {
	mu         sync.RWMutex
	byMatch    map[string]model.MatchResult
	order      []string
	maxResults int
}

// NewMemoryResultStore constructs an empty result store.
func NewMemoryResultStore(opts ...ResultOption) *MemoryResultStore {
	s := &MemoryResultStore{byMatch: make(map[string]model.MatchResult)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save stores res under its match id.
func (s *MemoryResultStore) Save(_ context.Context, res model.MatchResult) error { //nolint:gocritic // hugeParam
	if res.MatchID == "" {
		metrics.RecordErrorByComponent("repository", "invalid_result")
		return fmt.Errorf("empty match id: %w", ErrInvalidResult)
	}

	s.mu.Lock()
	if _, ok := s.byMatch[res.MatchID]; !ok {
		s.order = append(s.order, res.MatchID)
	}
	s.byMatch[res.MatchID] = res
	if s.maxResults > 0 && len(s.order) > s.maxResults {
		evict := s.order[0]
		s.order = s.order[1:]
		delete(s.byMatch, evict)
	}
	n := len(s.byMatch)
	s.mu.Unlock()

	metrics.UpdateResultsStored(n)
	return nil
}

// Get returns the result for matchID.
func (s *MemoryResultStore) Get(_ context.Context, matchID string) (model.MatchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, ok := s.byMatch[matchID]
	if !ok {
		return model.MatchResult{}, fmt.Errorf("match %q: %w", matchID, ErrNotFound)
	}
	return res, nil
}

// Count returns the number of stored results.
func (s *MemoryResultStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byMatch)
}

// MemoryInjuryStore keeps injury history in a map.
type MemoryInjuryStore struct {
	mu       sync.RWMutex
	byPlayer model.InjuryHistory
	// players that hold records of each match
	byMatch map[string][]model.PlayerID
}

// NewMemoryInjuryStore constructs an empty injury history store.
func NewMemoryInjuryStore() *MemoryInjuryStore {
	return &MemoryInjuryStore{
		byPlayer: make(model.InjuryHistory),
		byMatch:  make(map[string][]model.PlayerID),
	}
}

// Load returns copies of the history of each requested player.
func (s *MemoryInjuryStore) Load(_ context.Context, playerIDs []model.PlayerID) (model.InjuryHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(model.InjuryHistory)
	for _, id := range playerIDs {
		if recs := s.byPlayer[id]; len(recs) > 0 {
			out[id] = slices.Clone(recs)
		}
	}
	return out, nil
}

// Record adds records to the history, replacing earlier records of the
// same matches.
func (s *MemoryInjuryStore) Record(_ context.Context, records []model.InjuryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	replaced := make(map[string]struct{})
	for _, r := range records {
		if _, ok := replaced[r.MatchID]; ok {
			continue
		}
		replaced[r.MatchID] = struct{}{}
		s.forget(r.MatchID)
	}
	for _, r := range records {
		if !slices.Contains(s.byMatch[r.MatchID], r.PlayerID) {
			s.byMatch[r.MatchID] = append(s.byMatch[r.MatchID], r.PlayerID)
		}
	}
	s.byPlayer.Add(records...)
	return nil
}

// forget drops every record of matchID. Callers hold the write lock.
func (s *MemoryInjuryStore) forget(matchID string) {
	for _, id := range s.byMatch[matchID] {
		kept := slices.DeleteFunc(s.byPlayer[id], func(r model.InjuryRecord) bool {
			return r.MatchID == matchID
		})
		if len(kept) == 0 {
			delete(s.byPlayer, id)
			continue
		}
		s.byPlayer[id] = kept
	}
	delete(s.byMatch, matchID)
}
