package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"cs2-telemetry/internal/domain"
	"cs2-telemetry/internal/observability"
	"cs2-telemetry/internal/storage"
)

var killColumns = []string{
	"match_id", "round", "map", "team", "steamid", "name", "mode",
	"weapon_name", "weapon_type", "weapon_ammo", "weapon_reserve", "weapon_skin", "weapon_headshot",
	"timestamp",
}

var playerColumns = []string{
	"match_id", "round", "map", "team", "steamid", "name", "mode",
	"health", "armor", "helmet", "money", "equip_value", "round_kills", "round_killhs",
	"kills", "assists", "deaths", "mvps", "score", "event_timestamp", "win_team",
}

// HistoricalStore implements storage.HistoricalStore using PostgreSQL.
type HistoricalStore struct {
	pool *Pool
}

// NewHistoricalStore creates a new HistoricalStore.
func NewHistoricalStore(pool *Pool) *HistoricalStore {
	return &HistoricalStore{pool: pool}
}

// Compile-time interface check.
var _ storage.HistoricalStore = (*HistoricalStore)(nil)

// InsertKills appends kill rows with COPY.
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
	_, err := s.pool.CopyFrom(ctx, pgx.Identifier{"cs2_kill_events"}, killColumns,
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			return []any{
				r.MatchId, int64(r.Round), r.Map, r.Team, r.SteamID, r.Name, r.Mode,
				r.WeaponName, r.WeaponType, int64(r.WeaponAmmo), int64(r.WeaponReserve), r.WeaponSkin, r.WeaponHeadshot,
				r.Timestamp,
			}, nil
		}))
	observability.RecordDBQuery("postgres", "insert_kills", time.Since(start).Seconds(), err)
	if err != nil {
		return fmt.Errorf("copy kill events: %w", err)
	}
	return nil
}

// InsertPlayers appends player rows with COPY.
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
	_, err := s.pool.CopyFrom(ctx, pgx.Identifier{"cs2_player_events"}, playerColumns,
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			return []any{
				r.MatchId, int64(r.Round), r.Map, r.Team, r.SteamID, r.Name, r.Mode,
				int64(r.Health), int64(r.Armor), r.Helmet, int64(r.Money), int64(r.EquipValue),
				int64(r.RoundKills), int64(r.RoundKillHS),
				int64(r.Kills), int64(r.Assists), int64(r.Deaths), int64(r.MVPs), int64(r.Score),
				r.EventTS, r.WinTeam,
			}, nil
		}))
	observability.RecordDBQuery("postgres", "insert_players", time.Since(start).Seconds(), err)
	if err != nil {
		return fmt.Errorf("copy player events: %w", err)
	}
	return nil
}

// Kills returns kill rows matching f, ordered by match id then timestamp.
func (s *HistoricalStore) Kills(ctx context.Context, f domain.Filter) ([]*storage.HistoricalKillEvent, error) {
	where, args := whereClause(storage.KillCriteria(f))
	query := fmt.Sprintf("SELECT %s FROM cs2_kill_events%s ORDER BY match_id, timestamp, id",
		strings.Join(killColumns, ", "), where)

	start := time.Now()
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		observability.RecordDBQuery("postgres", "select_kills", time.Since(start).Seconds(), err)
		return nil, fmt.Errorf("query kill events: %w", err)
	}
	result, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[storage.HistoricalKillEvent])
	observability.RecordDBQuery("postgres", "select_kills", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("scan kill events: %w", err)
	}
	if result == nil {
		result = []*storage.HistoricalKillEvent{}
	}
	return result, nil
}

// Players returns player rows matching f, ordered by match id then event timestamp.
func (s *HistoricalStore) Players(ctx context.Context, f domain.Filter) ([]*storage.HistoricalPlayerEvent, error) {
	where, args := whereClause(storage.PlayerCriteria(f))
	query := fmt.Sprintf("SELECT %s FROM cs2_player_events%s ORDER BY match_id, event_timestamp, id",
		strings.Join(playerColumns, ", "), where)

	start := time.Now()
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		observability.RecordDBQuery("postgres", "select_players", time.Since(start).Seconds(), err)
		return nil, fmt.Errorf("query player events: %w", err)
	}
	result, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[storage.HistoricalPlayerEvent])
	observability.RecordDBQuery("postgres", "select_players", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("scan player events: %w", err)
	}
	if result == nil {
		result = []*storage.HistoricalPlayerEvent{}
	}
	return result, nil
}

// whereClause renders criteria with $n placeholders. Round values are
// widened to match the BIGINT column.
func whereClause(criteria []storage.Criterion) (string, []any) {
	if len(criteria) == 0 {
		return "", nil
	}
	conds := make([]string, len(criteria))
	args := make([]any, len(criteria))
	for i, c := range criteria {
		conds[i] = fmt.Sprintf("%s = $%d", c.Column, i+1)
		if v, ok := c.Value.(uint32); ok {
			args[i] = int64(v)
		} else {
			args[i] = c.Value
		}
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
