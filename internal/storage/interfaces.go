package storage

import (
	"context"

	"cs2-telemetry/internal/domain"
)

// LiveStore is the low-latency key-value feed. Player snapshots are keyed by
// (match, round, player) and overwrite each other; kills for the same key
// accumulate.
type LiveStore interface {
	// PutPlayer stores the latest snapshot for its key.
	PutPlayer(ctx context.Context, e *LivePlayerEvent) error

	// AppendKill adds a kill under its key.
	AppendKill(ctx context.Context, e *LiveKillEvent) error

	// Kills returns every kill matching f, ordered by key then arrival.
	Kills(ctx context.Context, f domain.Filter) ([]*LiveKillEvent, error)

	// Players returns every snapshot matching the match and round of f.
	Players(ctx context.Context, f domain.Filter) ([]*LivePlayerEvent, error)

	// Size returns the number of stored keys.
	Size(ctx context.Context) (int64, error)

	// Clear removes every key. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// HistoricalStore is the columnar archive.
type HistoricalStore interface {
	// InsertKills appends kill rows.
	InsertKills(ctx context.Context, rows []*HistoricalKillEvent) error

	// InsertPlayers appends player rows.
	InsertPlayers(ctx context.Context, rows []*HistoricalPlayerEvent) error

	// Kills returns kill rows matching f, ordered by match id then timestamp.
	Kills(ctx context.Context, f domain.Filter) ([]*HistoricalKillEvent, error)

	// Players returns player rows matching the match and round of f,
	// ordered by match id then event timestamp.
	Players(ctx context.Context, f domain.Filter) ([]*HistoricalPlayerEvent, error)
}
