package domain

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ErrInvalidFilter is returned when a filter query string cannot be parsed.
var ErrInvalidFilter = errors.New("invalid filter")

// Query string keys understood by every source.
const (
	FilterKeyMatchID    = "match_id"
	FilterKeyRound      = "round"
	FilterKeyWeaponName = "weapon_name"
	FilterKeyHeadshot   = "headshot"
)

// Filter narrows kill and player event retrieval. All fields are optional
// and combine with logical AND. Empty strings, a nil Round and a false
// Headshot are treated as unset.
type Filter struct {
	MatchID    string `json:"match_id,omitempty"`
	Round      *int   `json:"round,omitempty"`
	WeaponName string `json:"weapon_name,omitempty"`
	Headshot   bool   `json:"headshot,omitempty"`
}

// IsEmpty reports whether no criterion is set.
func (f Filter) IsEmpty() bool {
	return f.MatchID == "" && f.Round == nil && f.WeaponName == "" && !f.Headshot
}

// Equal reports whether two filters select the same records.
func (f Filter) Equal(o Filter) bool {
	if f.MatchID != o.MatchID || f.WeaponName != o.WeaponName || f.Headshot != o.Headshot {
		return false
	}
	if f.Round == nil || o.Round == nil {
		return f.Round == nil && o.Round == nil
	}
	return *f.Round == *o.Round
}

// Values encodes the filter as a query string, omitting unset criteria.
func (f Filter) Values() url.Values {
	v := url.Values{}
	if f.MatchID != "" {
		v.Set(FilterKeyMatchID, f.MatchID)
	}
	if f.Round != nil {
		v.Set(FilterKeyRound, strconv.Itoa(*f.Round))
	}
	if f.WeaponName != "" {
		v.Set(FilterKeyWeaponName, f.WeaponName)
	}
	if f.Headshot {
		v.Set(FilterKeyHeadshot, "true")
	}
	return v
}

// ParseFilter decodes a filter from query string values.
func ParseFilter(v url.Values) (Filter, error) {
	f := Filter{
		MatchID:    strings.TrimSpace(v.Get(FilterKeyMatchID)),
		WeaponName: strings.TrimSpace(v.Get(FilterKeyWeaponName)),
	}

	if raw := strings.TrimSpace(v.Get(FilterKeyRound)); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return Filter{}, fmt.Errorf("%w: round %q", ErrInvalidFilter, raw)
		}
		f.Round = &n
	}

	if raw := strings.TrimSpace(v.Get(FilterKeyHeadshot)); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return Filter{}, fmt.Errorf("%w: headshot %q", ErrInvalidFilter, raw)
		}
		f.Headshot = b
	}

	return f, nil
}

// MatchKill reports whether a kill event satisfies every set criterion.
func (f Filter) MatchKill(e *KillEvent) bool {
	if !f.matchIdentity(e.MatchID, e.Round) {
		return false
	}
	if f.WeaponName != "" && e.Weapon.Name != f.WeaponName {
		return false
	}
	if f.Headshot && !e.Weapon.Headshot {
		return false
	}
	return true
}

// MatchPlayer reports whether a player event satisfies the match and round
// criteria. Weapon criteria do not apply to player snapshots.
func (f Filter) MatchPlayer(e *PlayerEvent) bool {
	return f.matchIdentity(e.MatchID, e.Round)
}

func (f Filter) matchIdentity(matchID string, round int) bool {
	if f.MatchID != "" && matchID != f.MatchID {
		return false
	}
	if f.Round != nil && round != *f.Round {
		return false
	}
	return true
}
