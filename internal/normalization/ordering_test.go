package normalization

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cs2-telemetry/internal/domain"
)

func TestSortKills(t *testing.T) {
	kills := []*domain.KillEvent{
		{MatchID: "m", Round: 2, SteamID: "s", Timestamp: 2000},
		{MatchID: "m", Round: 1, SteamID: "s", Timestamp: 2000, Weapon: domain.WeaponState{Headshot: true}},
		{MatchID: "m", Round: 1, SteamID: "s", Timestamp: 2000},
		{MatchID: "m", Round: 9, SteamID: "s", Timestamp: 1000},
	}
	SortKills(kills)

	assert.Equal(t, 9, kills[0].Round)
	assert.Equal(t, 1, kills[1].Round)
	assert.False(t, kills[1].Weapon.Headshot)
	assert.True(t, kills[2].Weapon.Headshot)
	assert.Equal(t, 2, kills[3].Round)
}

func TestComparePlayers_LaterStateWins(t *testing.T) {
	a := &domain.PlayerEvent{MatchID: "m", Round: 1, SteamID: "s", Timestamp: 5, Kills: 1}
	b := &domain.PlayerEvent{MatchID: "m", Round: 1, SteamID: "s", Timestamp: 5, Kills: 2}

	assert.Negative(t, ComparePlayers(a, b))
	assert.Positive(t, ComparePlayers(b, a))
	assert.Zero(t, ComparePlayers(a, a))

	c := *a
	c.Money = 100
	assert.NotZero(t, ComparePlayers(a, &c))
}
