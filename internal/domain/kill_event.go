package domain

// WeaponState is the weapon held by the actor at the moment of a kill.
type WeaponState struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Ammo     int    `json:"ammo"`    // >= 0
	Reserve  int    `json:"reserve"` // >= 0
	Skin     string `json:"skin"`
	Headshot bool   `json:"headshot"`
}

// KillEvent is one kill by the tracked player.
// JSON field names follow the live feed so a canonical record can be
// normalized again without change.
type KillEvent struct {
	MatchID   string      `json:"match_id"`
	Round     int         `json:"round"`
	Map       string      `json:"map"`
	Team      string      `json:"team"`
	SteamID   string      `json:"steamid"`
	Name      string      `json:"name"`
	Mode      string      `json:"mode"`
	Weapon    WeaponState `json:"active_gun"`
	Timestamp int64       `json:"timestamp"` // Unix timestamp in milliseconds
}
