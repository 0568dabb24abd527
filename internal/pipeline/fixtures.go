package pipeline

import (
	"context"
	"fmt"

	"cs2-telemetry/internal/storage"
)

// fixtureBase is 2024-01-01 00:00:00 UTC in milliseconds.
const fixtureBase int64 = 1704067200000

type fixturePlayer struct {
	steamID string
	name    string
	team    string
}

type fixtureMatch struct {
	id      string
	mapName string
	player  fixturePlayer
	winners []string // winning team per round, index = round
	kills   [][]fixtureKill
	offset  int64
}

type fixtureKill struct {
	weapon   string
	kind     string
	headshot bool
	at       int64 // ms after round start
}

var fixtureMatches = []fixtureMatch{
	{
		id:      "match_001",
		mapName: "de_mirage",
		player:  fixturePlayer{steamID: "76561198000000001", name: "s1mple", team: "CT"},
		winners: []string{"CT", "T", "CT"},
		kills: [][]fixtureKill{
			{{"weapon_usp_silencer", "Pistol", true, 21000}, {"weapon_usp_silencer", "Pistol", false, 48000}},
			{{"weapon_m4a1_silencer", "Rifle", true, 35000}},
			{{"weapon_awp", "SniperRifle", false, 12000}, {"weapon_awp", "SniperRifle", false, 67000}, {"weapon_deagle", "Pistol", true, 90000}},
		},
	},
	{
		id:      "match_002",
		mapName: "de_inferno",
		player:  fixturePlayer{steamID: "76561198000000001", name: "s1mple", team: "T"},
		winners: []string{"CT", ""},
		kills: [][]fixtureKill{
			{{"weapon_glock", "Pistol", false, 30000}},
			{{"weapon_ak47", "Rifle", true, 15000}, {"weapon_ak47", "Rifle", true, 44000}},
		},
		offset: 3600000,
	},
}

// LoadFixtures populates both stores with two short demonstration matches.
// Either store may be nil.
func LoadFixtures(ctx context.Context, live storage.LiveStore, historical storage.HistoricalStore) error {
	for _, m := range fixtureMatches {
		kills, players := buildMatch(m)

		if live != nil {
			if err := loadLive(ctx, live, kills, players); err != nil {
				return fmt.Errorf("load live fixtures %s: %w", m.id, err)
			}
		}

		if historical != nil {
			if err := loadHistorical(ctx, historical, kills, players); err != nil {
				return fmt.Errorf("load historical fixtures %s: %w", m.id, err)
			}
		}
	}
	return nil
}

func buildMatch(m fixtureMatch) ([]*storage.LiveKillEvent, []*storage.LivePlayerEvent) {
	var (
		kills   []*storage.LiveKillEvent
		players []*storage.LivePlayerEvent
		total   int
		deaths  int
		money   = 800
	)

	for round, roundKills := range m.kills {
		start := fixtureBase + m.offset + int64(round)*120000
		hs := 0

		for _, k := range roundKills {
			kills = append(kills, &storage.LiveKillEvent{
				MatchID: m.id,
				Round:   round,
				Map:     m.mapName,
				Team:    m.player.team,
				SteamID: m.player.steamID,
				Name:    m.player.name,
				Mode:    "competitive",
				ActiveGun: storage.LiveWeapon{
					Name:     k.weapon,
					Type:     k.kind,
					Ammo:     20,
					Reserve:  60,
					Skin:     "default",
					Headshot: k.headshot,
				},
				Timestamp: start + k.at,
			})
			if k.headshot {
				hs++
			}
		}
		total += len(roundKills)

		won := m.winners[round] == m.player.team
		if m.winners[round] != "" && !won {
			deaths++
		}

		players = append(players, &storage.LivePlayerEvent{
			MatchID:     m.id,
			Round:       round,
			Map:         m.mapName,
			Team:        m.player.team,
			SteamID:     m.player.steamID,
			Name:        m.player.name,
			Mode:        "competitive",
			Health:      100 - 20*len(roundKills),
			Armor:       100,
			Helmet:      round > 0,
			Money:       money,
			EquipValue:  min(money, 5000),
			RoundKills:  len(roundKills),
			RoundKillHS: hs,
			Kills:       total,
			Deaths:      deaths,
			MVPs:        boolInt(won),
			Score:       2 * total,
			EventTS:     start + 100000,
			WinTeam:     m.winners[round],
		})

		if won {
			money += 3250
		} else {
			money += 1900
		}
	}

	return kills, players
}

func loadLive(ctx context.Context, store storage.LiveStore, kills []*storage.LiveKillEvent, players []*storage.LivePlayerEvent) error {
	for _, k := range kills {
		if err := store.AppendKill(ctx, k); err != nil {
			return err
		}
	}
	for _, p := range players {
		if err := store.PutPlayer(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func loadHistorical(ctx context.Context, store storage.HistoricalStore, kills []*storage.LiveKillEvent, players []*storage.LivePlayerEvent) error {
	rows := make([]*storage.HistoricalKillEvent, len(kills))
	for i, k := range kills {
		rows[i] = storage.HistoricalKill(k)
	}
	if err := store.InsertKills(ctx, rows); err != nil {
		return err
	}

	prows := make([]*storage.HistoricalPlayerEvent, len(players))
	for i, p := range players {
		prows[i] = storage.HistoricalPlayer(p)
	}
	return store.InsertPlayers(ctx, prows)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
