package memory

import (
	"context"
	"sort"
	"sync"

	"cs2-telemetry/internal/domain"
	"cs2-telemetry/internal/storage"
)

// LiveStore is an in-memory implementation of storage.LiveStore.
type LiveStore struct {
	mu      sync.RWMutex
	players map[string]*storage.LivePlayerEvent
	kills   map[string][]*storage.LiveKillEvent
}

// NewLiveStore creates a new in-memory live store.
func NewLiveStore() *LiveStore {
	return &LiveStore{
		players: make(map[string]*storage.LivePlayerEvent),
		kills:   make(map[string][]*storage.LiveKillEvent),
	}
}

// Compile-time interface check.
var _ storage.LiveStore = (*LiveStore)(nil)

// PutPlayer stores the latest snapshot for its key.
func (s *LiveStore) PutPlayer(_ context.Context, e *storage.LivePlayerEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}
	key := storage.LiveKey(e.MatchID, e.Round, e.SteamID, storage.LiveKindEvents)

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *e
	s.players[key] = &cp
	return nil
}

// AppendKill adds a kill under its key.
func (s *LiveStore) AppendKill(_ context.Context, e *storage.LiveKillEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}
	key := storage.LiveKey(e.MatchID, e.Round, e.SteamID, storage.LiveKindKills)

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *e
	s.kills[key] = append(s.kills[key], &cp)
	return nil
}

// Kills returns every kill matching f, ordered by key then arrival.
func (s *LiveStore) Kills(_ context.Context, f domain.Filter) ([]*storage.LiveKillEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*storage.LiveKillEvent, 0)
	for _, key := range sortedKeys(s.kills) {
		for _, e := range s.kills[key] {
			if storage.MatchLiveKill(f, e) {
				cp := *e
				result = append(result, &cp)
			}
		}
	}
	return result, nil
}

// Players returns every snapshot matching the match and round of f.
func (s *LiveStore) Players(_ context.Context, f domain.Filter) ([]*storage.LivePlayerEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*storage.LivePlayerEvent, 0)
	for _, key := range sortedKeys(s.players) {
		if e := s.players[key]; storage.MatchLivePlayer(f, e) {
			cp := *e
			result = append(result, &cp)
		}
	}
	return result, nil
}

// Size returns the number of stored keys.
func (s *LiveStore) Size(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.players) + len(s.kills)), nil
}

// Clear removes every key.
func (s *LiveStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players = make(map[string]*storage.LivePlayerEvent)
	s.kills = make(map[string][]*storage.LiveKillEvent)
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
