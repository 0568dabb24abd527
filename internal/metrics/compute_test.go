package metrics

import (
	"encoding/json"
	"math/rand"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cs2-telemetry/internal/domain"
)

// base is 2024-01-01 14:00:00 UTC in milliseconds.
var base = time.Date(2024, 1, 1, 14, 0, 0, 0, time.UTC).UnixMilli()

func kill(round int, ts int64, weapon string, headshot bool) *domain.KillEvent {
	return &domain.KillEvent{
		MatchID:   "m1",
		Round:     round,
		Map:       "de_mirage",
		SteamID:   "s1",
		Weapon:    domain.WeaponState{Name: weapon, Headshot: headshot},
		Timestamp: ts,
	}
}

func snapshot(round int, ts int64, money, health, kills, deaths int) *domain.PlayerEvent {
	return &domain.PlayerEvent{
		MatchID:    "m1",
		Round:      round,
		Map:        "de_mirage",
		Team:       "CT",
		SteamID:    "s1",
		Health:     health,
		Armor:      50,
		Money:      money,
		EquipValue: money / 2,
		Kills:      kills,
		Deaths:     deaths,
		Timestamp:  ts,
	}
}

func minute(m int) int64 { return base + int64(m)*60_000 }

func newTestEngine() *Engine {
	return NewEngine(WithLocation(time.UTC))
}

func TestSummary_Empty(t *testing.T) {
	v := newTestEngine().ComputeAt(nil, nil, time.UnixMilli(base))

	assert.Equal(t, Summary{
		TotalKills:    0,
		HeadshotPct:   "0",
		RoundCount:    1,
		KillsPerRound: "0.0",
		Money:         0,
		Health:        100,
		KDRatio:       "0.00",
	}, v.Summary)
	assert.Empty(t, v.KillTimeline)
	assert.Empty(t, v.Economy)
	assert.Empty(t, v.RecentKills)
	assert.Empty(t, v.WeaponUsage)
	assert.Empty(t, v.MatchHistory)
}

func TestSummary_KDWithoutDeaths(t *testing.T) {
	v := newTestEngine().ComputeAt(nil, []*domain.PlayerEvent{snapshot(1, base, 800, 100, 5, 0)}, time.UnixMilli(base))
	assert.Equal(t, "5.00", v.Summary.KDRatio)
}

func TestSummary_UsesLatestSnapshot(t *testing.T) {
	players := []*domain.PlayerEvent{
		snapshot(2, base+2000, 4200, 35, 9, 4),
		snapshot(1, base+1000, 800, 100, 3, 1),
	}
	v := newTestEngine().ComputeAt(nil, players, time.UnixMilli(base))

	assert.Equal(t, 4200, v.Summary.Money)
	assert.Equal(t, 35, v.Summary.Health)
	assert.Equal(t, "2.25", v.Summary.KDRatio)
}

func TestSummary_Headshots(t *testing.T) {
	kills := []*domain.KillEvent{
		kill(1, base, "ak47", true),
		kill(1, base+1, "ak47", false),
		kill(2, base+2, "awp", true),
	}
	v := newTestEngine().ComputeAt(kills, nil, time.UnixMilli(base))

	assert.Equal(t, "66.7", v.Summary.HeadshotPct)
	assert.Equal(t, 2, v.Summary.RoundCount)
	assert.Equal(t, "1.5", v.Summary.KillsPerRound)
}

func TestKillTimeline_Scenario(t *testing.T) {
	var kills []*domain.KillEvent
	round := 1
	add := func(min, n int) {
		for i := 0; i < n; i++ {
			kills = append(kills, kill(round, minute(min)+int64(i*1000), "ak47", false))
			round++
		}
	}
	add(1, 2) // 14:01
	add(2, 5) // 14:02
	add(3, 4) // 14:03

	v := newTestEngine().ComputeAt(kills, nil, time.UnixMilli(minute(5)))

	assert.Equal(t, []TimelineBucket{
		{Time: "14:01", Kills: 2},
		{Time: "14:02", Kills: 5},
		{Time: "14:03", Kills: 4},
	}, v.KillTimeline)
	assert.Equal(t, 11, v.Summary.RoundCount)
	assert.Equal(t, "1.0", v.Summary.KillsPerRound)
}

func TestKillTimeline_KeepsLastTenBuckets(t *testing.T) {
	var kills []*domain.KillEvent
	for m := 0; m < 12; m++ {
		kills = append(kills, kill(1, minute(m), "ak47", false))
	}
	v := newTestEngine().ComputeAt(kills, nil, time.UnixMilli(base))

	require.Len(t, v.KillTimeline, 10)
	assert.Equal(t, "14:02", v.KillTimeline[0].Time)
	assert.Equal(t, "14:11", v.KillTimeline[9].Time)
	for i := 1; i < len(v.KillTimeline); i++ {
		assert.Less(t, v.KillTimeline[i-1].Time, v.KillTimeline[i].Time)
	}
}

func TestRoundViews(t *testing.T) {
	var players []*domain.PlayerEvent
	for r := 1; r <= 12; r++ {
		ts := base + int64(r)*100_000
		players = append(players,
			snapshot(r, ts, 1000*r, 100, r, r-1),
			snapshot(r, ts+10, 1000*r+500, 60, r+1, r-1),
		)
	}
	kills := []*domain.KillEvent{kill(12, base, "ak47", false), kill(12, base+1, "ak47", false)}

	v := newTestEngine().ComputeAt(kills, players, time.UnixMilli(base))

	require.Len(t, v.Economy, 10)
	require.Len(t, v.Vitals, 10)
	require.Len(t, v.Performance, 10)
	assert.Equal(t, 3, v.Economy[0].Round)
	assert.Equal(t, 12, v.Economy[9].Round)

	// round 3: money 3000 and 3500 -> 3250
	assert.Equal(t, EconomyRound{Round: 3, AvgMoney: 3250, AvgEquipValue: 1625, Kills: 0, EcoRound: false}, v.Economy[0])
	assert.Equal(t, 2, v.Economy[9].Kills)

	assert.Equal(t, VitalsRound{Round: 3, AvgHealth: 80, AvgArmor: 50}, v.Vitals[0])
	assert.Equal(t, PerformanceRound{Round: 12, Kills: 13, Deaths: 11}, v.Performance[9])
}

func TestEconomy_EcoFlag(t *testing.T) {
	players := []*domain.PlayerEvent{
		snapshot(1, base, 2000, 100, 0, 0),
		snapshot(1, base+1, 3999, 100, 0, 0), // mean 2999.5 rounds to 3000
		snapshot(2, base+2, 1000, 100, 0, 0),
	}
	v := newTestEngine().ComputeAt(nil, players, time.UnixMilli(base))

	require.Len(t, v.Economy, 2)
	assert.Equal(t, 3000, v.Economy[0].AvgMoney)
	assert.False(t, v.Economy[0].EcoRound)
	assert.True(t, v.Economy[1].EcoRound)
}

func TestRecentKills(t *testing.T) {
	now := base + 10*3_600_000
	kills := []*domain.KillEvent{
		kill(1, now-30_000, "a", false),
		kill(1, now-5*60_000, "b", false),
		kill(1, now-2*3_600_000, "c", false),
		kill(1, now-59_999, "d", false),
		kill(1, now-3_600_000+1, "e", false),
		kill(1, now-9*3_600_000, "f", false),
	}
	v := newTestEngine().ComputeAt(kills, nil, time.UnixMilli(now))

	require.Len(t, v.RecentKills, 5)
	got := make([]string, 0, 5)
	for _, k := range v.RecentKills {
		got = append(got, k.Weapon.Name+" "+k.Age)
	}
	assert.Equal(t, []string{"a 30s ago", "d 59s ago", "b 5m ago", "e 59m ago", "c 2h ago"}, got)
}

func TestAgeLabel(t *testing.T) {
	assert.Equal(t, "0s ago", AgeLabel(-5000))
	assert.Equal(t, "59s ago", AgeLabel(59_999))
	assert.Equal(t, "1m ago", AgeLabel(60_000))
	assert.Equal(t, "59m ago", AgeLabel(3_599_999))
	assert.Equal(t, "1h ago", AgeLabel(3_600_000))
}

func TestWeaponUsage(t *testing.T) {
	var kills []*domain.KillEvent
	for i, w := range []string{"ak47", "ak47", "ak47", "awp", "awp", "m4a1", "deagle", "glock", "usp", ""} {
		kills = append(kills, kill(1, base+int64(i), w, false))
	}
	v := newTestEngine().ComputeAt(kills, nil, time.UnixMilli(base))

	require.Len(t, v.WeaponUsage, 5)
	assert.Equal(t, WeaponUsage{Weapon: "ak47", Kills: 3, Percentage: 30}, v.WeaponUsage[0])
	assert.Equal(t, WeaponUsage{Weapon: "awp", Kills: 2, Percentage: 20}, v.WeaponUsage[1])
	// ties ordered by name
	assert.Equal(t, "deagle", v.WeaponUsage[2].Weapon)
	assert.Equal(t, "glock", v.WeaponUsage[3].Weapon)
	assert.Equal(t, "m4a1", v.WeaponUsage[4].Weapon)
}

func TestMatchHistory(t *testing.T) {
	kills := []*domain.KillEvent{
		kill(1, base+1000, "ak47", false),
		{MatchID: "m2", Round: 1, Map: "de_nuke", SteamID: "s1", Timestamp: base + 5000},
	}
	won := snapshot(3, base+2000, 0, 100, 6, 3)
	won.WinTeam = "CT"
	players := []*domain.PlayerEvent{snapshot(2, base+500, 0, 100, 1, 0), won}

	v := newTestEngine().ComputeAt(kills, players, time.UnixMilli(base))

	require.Len(t, v.MatchHistory, 2)
	assert.Equal(t, MatchRecord{MatchID: "m2", Map: "de_nuke", Rounds: 1, Kills: 1, KDRatio: "0.00", LastSeen: base + 5000}, v.MatchHistory[0])
	assert.Equal(t, MatchRecord{MatchID: "m1", Map: "de_mirage", Rounds: 3, Kills: 1, KDRatio: "2.00", Result: "Win", LastSeen: base + 2000}, v.MatchHistory[1])
}

func TestCompute_DeterministicAcrossInputOrder(t *testing.T) {
	var kills []*domain.KillEvent
	var players []*domain.PlayerEvent
	for i := 0; i < 200; i++ {
		kills = append(kills, &domain.KillEvent{
			MatchID:   "m" + strconv.Itoa(i%3),
			Round:     i % 17,
			SteamID:   "s" + strconv.Itoa(i%4),
			Weapon:    domain.WeaponState{Name: "w" + strconv.Itoa(i%7), Headshot: i%3 == 0},
			Timestamp: base + int64(i%50)*7_000,
		})
		players = append(players, snapshot(i%13, base+int64(i%40)*9_000, 100*i, i%101, i%9, i%5))
	}

	engine := newTestEngine()
	now := time.UnixMilli(base + 3_600_000)
	want, err := json.Marshal(engine.ComputeAt(kills, players, now))
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	for run := 0; run < 5; run++ {
		rng.Shuffle(len(kills), func(i, j int) { kills[i], kills[j] = kills[j], kills[i] })
		rng.Shuffle(len(players), func(i, j int) { players[i], players[j] = players[j], players[i] })

		got, err := json.Marshal(engine.ComputeAt(kills, players, now))
		require.NoError(t, err)
		assert.Equal(t, string(want), string(got), "run %d", run)
	}
}

func TestCompute_DoesNotMutateInput(t *testing.T) {
	kills := []*domain.KillEvent{kill(1, base, "a", false), kill(1, base+1, "b", false)}
	newTestEngine().ComputeAt(kills, nil, time.UnixMilli(base))
	assert.Equal(t, "a", kills[0].Weapon.Name)
}

func TestCompute_UsesClock(t *testing.T) {
	now := time.UnixMilli(base + 90_000)
	engine := NewEngine(WithLocation(time.UTC), WithClock(func() time.Time { return now }))

	v := engine.Compute([]*domain.KillEvent{kill(1, base, "weapon_ak47", false)}, nil)
	require.Len(t, v.RecentKills, 1)
	assert.Equal(t, "1m ago", v.RecentKills[0].Age)
}
