package memory

import (
	"context"
	"sort"
	"sync"

	"cs2-telemetry/internal/domain"
	"cs2-telemetry/internal/storage"
)

// HistoricalStore is an in-memory implementation of storage.HistoricalStore.
type HistoricalStore struct {
	mu      sync.RWMutex
	kills   []*storage.HistoricalKillEvent
	players []*storage.HistoricalPlayerEvent
}

// NewHistoricalStore creates a new in-memory historical store.
func NewHistoricalStore() *HistoricalStore {
	return &HistoricalStore{}
}

// Compile-time interface check.
var _ storage.HistoricalStore = (*HistoricalStore)(nil)

// InsertKills appends kill rows. Fails the entire batch on an invalid row.
func (s *HistoricalStore) InsertKills(_ context.Context, rows []*storage.HistoricalKillEvent) error {
	for _, r := range rows {
		if r == nil || r.MatchId == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		cp := *r
		s.kills = append(s.kills, &cp)
	}
	return nil
}

// InsertPlayers appends player rows. Fails the entire batch on an invalid row.
func (s *HistoricalStore) InsertPlayers(_ context.Context, rows []*storage.HistoricalPlayerEvent) error {
	for _, r := range rows {
		if r == nil || r.MatchId == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		cp := *r
		s.players = append(s.players, &cp)
	}
	return nil
}

// Kills returns kill rows matching f, ordered by timestamp ASC.
func (s *HistoricalStore) Kills(_ context.Context, f domain.Filter) ([]*storage.HistoricalKillEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*storage.HistoricalKillEvent, 0)
	for _, r := range s.kills {
		if storage.MatchHistoricalKill(f, r) {
			cp := *r
			result = append(result, &cp)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].MatchId != result[j].MatchId {
			return result[i].MatchId < result[j].MatchId
		}
		return result[i].Timestamp < result[j].Timestamp
	})
	return result, nil
}

// Players returns player rows matching f, ordered by event timestamp ASC.
func (s *HistoricalStore) Players(_ context.Context, f domain.Filter) ([]*storage.HistoricalPlayerEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*storage.HistoricalPlayerEvent, 0)
	for _, r := range s.players {
		if storage.MatchHistoricalPlayer(f, r) {
			cp := *r
			result = append(result, &cp)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].MatchId != result[j].MatchId {
			return result[i].MatchId < result[j].MatchId
		}
		return result[i].EventTS < result[j].EventTS
	})
	return result, nil
}
