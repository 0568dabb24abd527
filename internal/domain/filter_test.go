package domain

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestFilter_ValuesOmitsUnset(t *testing.T) {
	assert.Empty(t, Filter{}.Values().Encode())

	f := Filter{MatchID: "m1", Round: intPtr(0), WeaponName: "ak47", Headshot: true}
	v := f.Values()
	assert.Equal(t, "m1", v.Get("match_id"))
	assert.Equal(t, "0", v.Get("round"))
	assert.Equal(t, "ak47", v.Get("weapon_name"))
	assert.Equal(t, "true", v.Get("headshot"))

	// false headshot is never sent
	assert.NotContains(t, Filter{MatchID: "m1"}.Values(), "headshot")
}

func TestParseFilter_RoundTrip(t *testing.T) {
	f := Filter{MatchID: "m1", Round: intPtr(7), WeaponName: "awp", Headshot: true}
	got, err := ParseFilter(f.Values())
	require.NoError(t, err)
	assert.True(t, f.Equal(got))
}

func TestParseFilter_Invalid(t *testing.T) {
	_, err := ParseFilter(url.Values{"round": {"abc"}})
	assert.True(t, errors.Is(err, ErrInvalidFilter))

	_, err = ParseFilter(url.Values{"round": {"-1"}})
	assert.True(t, errors.Is(err, ErrInvalidFilter))

	_, err = ParseFilter(url.Values{"headshot": {"maybe"}})
	assert.True(t, errors.Is(err, ErrInvalidFilter))
}

func TestFilter_Equal(t *testing.T) {
	assert.True(t, Filter{}.Equal(Filter{}))
	assert.False(t, Filter{Round: intPtr(1)}.Equal(Filter{}))
	assert.True(t, Filter{Round: intPtr(1)}.Equal(Filter{Round: intPtr(1)}))
	assert.False(t, Filter{Round: intPtr(1)}.Equal(Filter{Round: intPtr(2)}))
	assert.False(t, Filter{Headshot: true}.Equal(Filter{}))
}

func TestFilter_MatchKill(t *testing.T) {
	e := &KillEvent{MatchID: "m1", Round: 3, Weapon: WeaponState{Name: "ak47", Headshot: false}}

	assert.True(t, Filter{}.MatchKill(e))
	assert.True(t, Filter{MatchID: "m1", Round: intPtr(3)}.MatchKill(e))
	assert.False(t, Filter{Round: intPtr(4)}.MatchKill(e))
	assert.False(t, Filter{WeaponName: "awp"}.MatchKill(e))
	assert.False(t, Filter{Headshot: true}.MatchKill(e))
}

func TestFilter_MatchPlayerIgnoresWeapon(t *testing.T) {
	e := &PlayerEvent{MatchID: "m1", Round: 2}
	assert.True(t, Filter{MatchID: "m1", WeaponName: "awp", Headshot: true}.MatchPlayer(e))
	assert.False(t, Filter{MatchID: "m2"}.MatchPlayer(e))
}
