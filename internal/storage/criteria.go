package storage

import "cs2-telemetry/internal/domain"

// Criterion is one equality condition on a historical table column.
type Criterion struct {
	Column string
	Value  any
}

// PlayerCriteria returns the conditions that apply to cs2_player_events.
// An empty match id and a nil round are treated as unset; round 0 is a real
// round and selects only its rows, as it does on the live store.
func PlayerCriteria(f domain.Filter) []Criterion {
	var out []Criterion
	if f.MatchID != "" {
		out = append(out, Criterion{Column: "match_id", Value: f.MatchID})
	}
	if f.Round != nil && *f.Round >= 0 {
		out = append(out, Criterion{Column: "round", Value: uint32(*f.Round)})
	}
	return out
}

// KillCriteria returns the conditions that apply to cs2_kill_events. On top
// of PlayerCriteria, an empty weapon name and a false headshot flag are
// treated as unset.
func KillCriteria(f domain.Filter) []Criterion {
	out := PlayerCriteria(f)
	if f.WeaponName != "" {
		out = append(out, Criterion{Column: "weapon_name", Value: f.WeaponName})
	}
	if f.Headshot {
		out = append(out, Criterion{Column: "weapon_headshot", Value: true})
	}
	return out
}

// MatchHistoricalKill evaluates KillCriteria against a row in memory.
func MatchHistoricalKill(f domain.Filter, r *HistoricalKillEvent) bool {
	for _, c := range KillCriteria(f) {
		switch c.Column {
		case "match_id":
			if r.MatchId != c.Value {
				return false
			}
		case "round":
			if r.Round != c.Value {
				return false
			}
		case "weapon_name":
			if r.WeaponName != c.Value {
				return false
			}
		case "weapon_headshot":
			if !r.WeaponHeadshot {
				return false
			}
		}
	}
	return true
}

// MatchHistoricalPlayer evaluates PlayerCriteria against a row in memory.
func MatchHistoricalPlayer(f domain.Filter, r *HistoricalPlayerEvent) bool {
	for _, c := range PlayerCriteria(f) {
		switch c.Column {
		case "match_id":
			if r.MatchId != c.Value {
				return false
			}
		case "round":
			if r.Round != c.Value {
				return false
			}
		}
	}
	return true
}

// MatchLiveKill applies f to a live kill.
func MatchLiveKill(f domain.Filter, e *LiveKillEvent) bool {
	if !matchLiveIdentity(f, e.MatchID, e.Round) {
		return false
	}
	if f.WeaponName != "" && e.ActiveGun.Name != f.WeaponName {
		return false
	}
	if f.Headshot && !e.ActiveGun.Headshot {
		return false
	}
	return true
}

// MatchLivePlayer applies the match and round of f to a live snapshot.
func MatchLivePlayer(f domain.Filter, e *LivePlayerEvent) bool {
	return matchLiveIdentity(f, e.MatchID, e.Round)
}

func matchLiveIdentity(f domain.Filter, matchID string, round int) bool {
	if f.MatchID != "" && matchID != f.MatchID {
		return false
	}
	if f.Round != nil && round != *f.Round {
		return false
	}
	return true
}
