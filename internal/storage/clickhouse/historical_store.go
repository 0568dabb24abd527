package clickhouse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cs2-telemetry/internal/domain"
	"cs2-telemetry/internal/observability"
	"cs2-telemetry/internal/storage"
)

// Table names.
const (
	KillEventsTable   = "cs2_kill_events"
	PlayerEventsTable = "cs2_player_events"
)

const killColumns = `match_id, round, map, team, steamid, name, mode,
	weapon_name, weapon_type, weapon_ammo, weapon_reserve, weapon_skin, weapon_headshot,
	timestamp`

const playerColumns = `match_id, round, map, team, steamid, name, mode,
	health, armor, helmet, money, equip_value, round_kills, round_killhs,
	kills, assists, deaths, mvps, score, event_timestamp, win_team`

// HistoricalStore implements storage.HistoricalStore using ClickHouse.
type HistoricalStore struct {
	conn *Conn
}

// NewHistoricalStore creates a new HistoricalStore.
func NewHistoricalStore(conn *Conn) *HistoricalStore {
	return &HistoricalStore{conn: conn}
}

// Compile-time interface check.
var _ storage.HistoricalStore = (*HistoricalStore)(nil)

// InsertKills appends kill rows in one batch.
func (s *HistoricalStore) InsertKills(ctx context.Context, rows []*storage.HistoricalKillEvent) error {
	if len(rows) == 0 {
		return nil
	}
	for _, r := range rows {
		if r == nil || r.MatchId == "" {
			return storage.ErrInvalidInput
		}
	}

	start := time.Now()
	err := s.insert(ctx, KillEventsTable, killColumns, len(rows), func(i int) any { return rows[i] })
	observability.RecordDBQuery("clickhouse", "insert_kills", time.Since(start).Seconds(), err)
	return err
}

// InsertPlayers appends player rows in one batch.
func (s *HistoricalStore) InsertPlayers(ctx context.Context, rows []*storage.HistoricalPlayerEvent) error {
	if len(rows) == 0 {
		return nil
	}
	for _, r := range rows {
		if r == nil || r.MatchId == "" {
			return storage.ErrInvalidInput
		}
	}

	start := time.Now()
	err := s.insert(ctx, PlayerEventsTable, playerColumns, len(rows), func(i int) any { return rows[i] })
	observability.RecordDBQuery("clickhouse", "insert_players", time.Since(start).Seconds(), err)
	return err
}

func (s *HistoricalStore) insert(ctx context.Context, table, columns string, n int, row func(int) any) error {
	batch, err := s.conn.PrepareBatch(ctx, fmt.Sprintf("INSERT INTO %s (%s)", table, columns))
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for i := 0; i < n; i++ {
		if err := batch.AppendStruct(row(i)); err != nil {
			_ = batch.Abort()
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// Kills returns kill rows matching f, ordered by match id then timestamp.
func (s *HistoricalStore) Kills(ctx context.Context, f domain.Filter) ([]*storage.HistoricalKillEvent, error) {
	where, args := whereClause(storage.KillCriteria(f))
	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY match_id, timestamp", killColumns, KillEventsTable, where)

	start := time.Now()
	var rows []storage.HistoricalKillEvent
	err := s.conn.Select(ctx, &rows, query, args...)
	observability.RecordDBQuery("clickhouse", "select_kills", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("query kill events: %w", err)
	}

	result := make([]*storage.HistoricalKillEvent, len(rows))
	for i := range rows {
		result[i] = &rows[i]
	}
	return result, nil
}

// Players returns player rows matching f, ordered by match id then event timestamp.
func (s *HistoricalStore) Players(ctx context.Context, f domain.Filter) ([]*storage.HistoricalPlayerEvent, error) {
	where, args := whereClause(storage.PlayerCriteria(f))
	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY match_id, event_timestamp", playerColumns, PlayerEventsTable, where)

	start := time.Now()
	var rows []storage.HistoricalPlayerEvent
	err := s.conn.Select(ctx, &rows, query, args...)
	observability.RecordDBQuery("clickhouse", "select_players", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("query player events: %w", err)
	}

	result := make([]*storage.HistoricalPlayerEvent, len(rows))
	for i := range rows {
		result[i] = &rows[i]
	}
	return result, nil
}

// whereClause renders criteria as " WHERE a = ? AND b = ?" with bound args.
// Column names come from storage.Criterion, never from user input.
func whereClause(criteria []storage.Criterion) (string, []any) {
	if len(criteria) == 0 {
		return "", nil
	}
	conds := make([]string, len(criteria))
	args := make([]any, len(criteria))
	for i, c := range criteria {
		conds[i] = c.Column + " = ?"
		args[i] = c.Value
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
