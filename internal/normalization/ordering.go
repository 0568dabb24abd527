package normalization

import (
	"sort"
	"strings"

	"cs2-telemetry/internal/domain"
)

// SortKills orders kills by (timestamp ASC, match_id ASC, round ASC, steamid ASC, ...).
// Sources return rows in no guaranteed order; this gives every batch one canonical order.
func SortKills(kills []*domain.KillEvent) {
	sort.SliceStable(kills, func(i, j int) bool {
		return CompareKills(kills[i], kills[j]) < 0
	})
}

// SortPlayers orders player events by (timestamp ASC, match_id ASC, round ASC, steamid ASC, ...).
func SortPlayers(events []*domain.PlayerEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return ComparePlayers(events[i], events[j]) < 0
	})
}

// CompareKills returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
//
// Every field takes part so that distinct events never compare equal.
func CompareKills(a, b *domain.KillEvent) int {
	if c := compareInt64(a.Timestamp, b.Timestamp); c != 0 {
		return c
	}
	if c := compareIdentity(a.MatchID, a.Round, a.SteamID, b.MatchID, b.Round, b.SteamID); c != 0 {
		return c
	}
	if c := compareStrings(
		[]string{a.Weapon.Name, a.Weapon.Type, a.Weapon.Skin, a.Map, a.Team, a.Name, a.Mode},
		[]string{b.Weapon.Name, b.Weapon.Type, b.Weapon.Skin, b.Map, b.Team, b.Name, b.Mode},
	); c != 0 {
		return c
	}
	if c := compareInt64(int64(a.Weapon.Ammo), int64(b.Weapon.Ammo)); c != 0 {
		return c
	}
	if c := compareInt64(int64(a.Weapon.Reserve), int64(b.Weapon.Reserve)); c != 0 {
		return c
	}
	return compareBool(a.Weapon.Headshot, b.Weapon.Headshot)
}

// ComparePlayers returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
//
// Snapshots sharing a timestamp fall back to their cumulative counters so
// the later state of the same player sorts last, then to every other field.
func ComparePlayers(a, b *domain.PlayerEvent) int {
	if c := compareInt64(a.Timestamp, b.Timestamp); c != 0 {
		return c
	}
	if c := compareIdentity(a.MatchID, a.Round, a.SteamID, b.MatchID, b.Round, b.SteamID); c != 0 {
		return c
	}
	ai := []int{a.Kills + a.Deaths + a.Assists, a.Score, a.RoundKills, a.RoundKillHS, a.MVPs,
		a.Kills, a.Deaths, a.Assists, a.Money, a.EquipValue, a.Health, a.Armor}
	bi := []int{b.Kills + b.Deaths + b.Assists, b.Score, b.RoundKills, b.RoundKillHS, b.MVPs,
		b.Kills, b.Deaths, b.Assists, b.Money, b.EquipValue, b.Health, b.Armor}
	for i := range ai {
		if c := compareInt64(int64(ai[i]), int64(bi[i])); c != 0 {
			return c
		}
	}
	if c := compareStrings(
		[]string{a.WinTeam, a.Map, a.Team, a.Name, a.Mode},
		[]string{b.WinTeam, b.Map, b.Team, b.Name, b.Mode},
	); c != 0 {
		return c
	}
	return compareBool(a.Helmet, b.Helmet)
}

func compareIdentity(aMatch string, aRound int, aSteam string, bMatch string, bRound int, bSteam string) int {
	if c := strings.Compare(aMatch, bMatch); c != 0 {
		return c
	}
	if c := compareInt64(int64(aRound), int64(bRound)); c != 0 {
		return c
	}
	return strings.Compare(aSteam, bSteam)
}

func compareStrings(a, b []string) int {
	for i := range a {
		if c := strings.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
