package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cs2-telemetry/internal/domain"
	"cs2-telemetry/internal/storage"
)

func liveKill(match string, round int, weapon string, hs bool, ts int64) *storage.LiveKillEvent {
	return &storage.LiveKillEvent{
		MatchID: match, Round: round, SteamID: "7656", Team: "CT",
		ActiveGun: storage.LiveWeapon{Name: weapon, Headshot: hs},
		Timestamp: ts,
	}
}

func TestLiveStore_KillsAccumulatePerKey(t *testing.T) {
	store := NewLiveStore()
	ctx := context.Background()

	require.NoError(t, store.AppendKill(ctx, liveKill("m1", 1, "ak47", true, 1)))
	require.NoError(t, store.AppendKill(ctx, liveKill("m1", 1, "ak47", false, 2)))
	require.NoError(t, store.AppendKill(ctx, liveKill("m1", 2, "awp", true, 3)))

	all, err := store.Kills(ctx, domain.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	n, err := store.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestLiveStore_KillFilter(t *testing.T) {
	store := NewLiveStore()
	ctx := context.Background()

	require.NoError(t, store.AppendKill(ctx, liveKill("m1", 0, "ak47", true, 1)))
	require.NoError(t, store.AppendKill(ctx, liveKill("m1", 1, "ak47", false, 2)))
	require.NoError(t, store.AppendKill(ctx, liveKill("m2", 1, "awp", true, 3)))

	round := 0
	got, err := store.Kills(ctx, domain.Filter{Round: &round})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].Timestamp)

	got, err = store.Kills(ctx, domain.Filter{Headshot: true})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = store.Kills(ctx, domain.Filter{MatchID: "m2", WeaponName: "awp"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "m2", got[0].MatchID)
}

func TestLiveStore_PlayerSnapshotOverwrites(t *testing.T) {
	store := NewLiveStore()
	ctx := context.Background()

	first := &storage.LivePlayerEvent{MatchID: "m1", Round: 3, SteamID: "7656", Money: 800, EventTS: 1}
	second := &storage.LivePlayerEvent{MatchID: "m1", Round: 3, SteamID: "7656", Money: 4200, EventTS: 2}
	require.NoError(t, store.PutPlayer(ctx, first))
	require.NoError(t, store.PutPlayer(ctx, second))

	got, err := store.Players(ctx, domain.Filter{MatchID: "m1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 4200, got[0].Money)

	// Weapon criteria do not apply to snapshots.
	got, err = store.Players(ctx, domain.Filter{WeaponName: "awp", Headshot: true})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestLiveStore_InvalidInput(t *testing.T) {
	store := NewLiveStore()
	ctx := context.Background()

	assert.ErrorIs(t, store.AppendKill(ctx, &storage.LiveKillEvent{Round: 1}), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.PutPlayer(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.PutPlayer(ctx, &storage.LivePlayerEvent{MatchID: "m", SteamID: "s", Round: -1}), storage.ErrInvalidInput)
}

func TestLiveStore_Clear(t *testing.T) {
	store := NewLiveStore()
	ctx := context.Background()

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.AppendKill(ctx, liveKill("m1", 1, "ak47", true, 1)))
	require.NoError(t, store.Clear(ctx))

	n, err := store.Size(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	kills, err := store.Kills(ctx, domain.Filter{})
	require.NoError(t, err)
	assert.NotNil(t, kills)
	assert.Empty(t, kills)
}
