package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cs2-telemetry/internal/domain"
	"cs2-telemetry/internal/storage"
)

func TestHistoricalStore_Kills(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewHistoricalStore(pool)
	ctx := context.Background()

	require.NoError(t, store.InsertKills(ctx, nil))
	require.NoError(t, store.InsertKills(ctx, []*storage.HistoricalKillEvent{
		{MatchId: "m1", Round: 1, SteamID: "7656", WeaponName: "weapon_ak47", WeaponAmmo: 30, WeaponReserve: 90, WeaponHeadshot: true, Timestamp: 1700000002000},
		{MatchId: "m1", Round: 1, SteamID: "7656", WeaponName: "weapon_glock", Timestamp: 1700000001000},
		{MatchId: "m1", Round: 2, SteamID: "7656", WeaponName: "weapon_ak47", Timestamp: 1700000003000},
	}))

	all, err := store.Kills(ctx, domain.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "weapon_glock", all[0].WeaponName)
	assert.Equal(t, uint32(90), all[1].WeaponReserve)

	round := 1
	got, err := store.Kills(ctx, domain.Filter{MatchID: "m1", Round: &round, WeaponName: "weapon_ak47"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].WeaponHeadshot)

	got, err = store.Kills(ctx, domain.Filter{MatchID: "missing"})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestHistoricalStore_Players(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewHistoricalStore(pool)
	ctx := context.Background()

	require.NoError(t, store.InsertPlayers(ctx, []*storage.HistoricalPlayerEvent{
		{MatchId: "m1", Round: 3, Health: 100, Armor: 100, Helmet: true, Money: 4750, EquipValue: 5200, Kills: 4, Deaths: 2, Score: 11, EventTS: 1700000010000, WinTeam: "T"},
		{MatchId: "m1", Round: 2, Health: 12, Money: 300, EventTS: 1700000005000},
	}))

	got, err := store.Players(ctx, domain.Filter{MatchID: "m1"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint32(12), got[0].Health)
	assert.Equal(t, uint32(5200), got[1].EquipValue)
	assert.Equal(t, "T", got[1].WinTeam)
}

func TestHistoricalStore_InvalidInput(t *testing.T) {
	store := NewHistoricalStore(nil)
	err := store.InsertPlayers(context.Background(), []*storage.HistoricalPlayerEvent{nil})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestWhereClause(t *testing.T) {
	round := 4
	where, args := whereClause(storage.KillCriteria(domain.Filter{MatchID: "m1", Round: &round, WeaponName: "awp"}))
	assert.Equal(t, " WHERE match_id = $1 AND round = $2 AND weapon_name = $3", where)
	assert.Equal(t, []any{"m1", int64(4), "awp"}, args)
}
