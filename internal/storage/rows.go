package storage

import "fmt"

// LiveWeapon is the weapon sub-document of a live kill record.
type LiveWeapon struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Ammo     int    `json:"ammo"`
	Reserve  int    `json:"reserve"`
	Skin     string `json:"skin"`
	Headshot bool   `json:"headshot"`
}

// LiveKillEvent is a kill as stored in the low-latency feed.
type LiveKillEvent struct {
	MatchID   string     `json:"match_id"`
	Round     int        `json:"round"`
	Map       string     `json:"map"`
	Team      string     `json:"team"`
	SteamID   string     `json:"steamid"`
	Name      string     `json:"name"`
	Mode      string     `json:"mode"`
	ActiveGun LiveWeapon `json:"active_gun"`
	Timestamp int64      `json:"timestamp"`
}

// LivePlayerEvent is a player snapshot as stored in the low-latency feed.
type LivePlayerEvent struct {
	MatchID string `json:"match_id"`
	Round   int    `json:"round"`
	Map     string `json:"map"`
	Team    string `json:"team"`
	SteamID string `json:"steamid"`
	Name    string `json:"name"`
	Mode    string `json:"mode"`

	Health     int  `json:"health"`
	Armor      int  `json:"armor"`
	Helmet     bool `json:"helmet"`
	Money      int  `json:"money"`
	EquipValue int  `json:"equip_value"`

	RoundKills  int `json:"round_kills"`
	RoundKillHS int `json:"round_killhs"`

	Kills   int `json:"kills"`
	Assists int `json:"assists"`
	Deaths  int `json:"deaths"`
	MVPs    int `json:"mvps"`
	Score   int `json:"score"`

	EventTS int64  `json:"timestamp"`
	WinTeam string `json:"win_team"`
}

// LiveKey is the key of a live record kind for one match, round and player.
func LiveKey(matchID string, round int, steamID, kind string) string {
	return fmt.Sprintf("matches:%s:round:%d:player:%s:%s", matchID, round, steamID, kind)
}

// Live record kinds used as the last key segment.
const (
	LiveKindEvents = "events"
	LiveKindKills  = "kills"
)

// Validate checks the identity fields required to key the record.
func (e *LiveKillEvent) Validate() error {
	if e == nil || e.MatchID == "" || e.SteamID == "" || e.Round < 0 {
		return ErrInvalidInput
	}
	return nil
}

// Validate checks the identity fields required to key the record.
func (e *LivePlayerEvent) Validate() error {
	if e == nil || e.MatchID == "" || e.SteamID == "" || e.Round < 0 {
		return ErrInvalidInput
	}
	return nil
}

// HistoricalKillEvent is one row of cs2_kill_events. JSON keys are the
// Go field names, which is the historical feed's wire convention.
type HistoricalKillEvent struct {
	MatchId string `ch:"match_id" db:"match_id"`
	Round   uint32 `ch:"round" db:"round"`
	Map     string `ch:"map" db:"map"`
	Team    string `ch:"team" db:"team"`
	SteamID string `ch:"steamid" db:"steamid"`
	Name    string `ch:"name" db:"name"`
	Mode    string `ch:"mode" db:"mode"`

	WeaponName     string `ch:"weapon_name" db:"weapon_name"`
	WeaponType     string `ch:"weapon_type" db:"weapon_type"`
	WeaponAmmo     uint32 `ch:"weapon_ammo" db:"weapon_ammo"`
	WeaponReserve  uint32 `ch:"weapon_reserve" db:"weapon_reserve"`
	WeaponSkin     string `ch:"weapon_skin" db:"weapon_skin"`
	WeaponHeadshot bool   `ch:"weapon_headshot" db:"weapon_headshot"`

	Timestamp int64 `ch:"timestamp" db:"timestamp"`
}

// HistoricalPlayerEvent is one row of cs2_player_events.
type HistoricalPlayerEvent struct {
	MatchId string `ch:"match_id" db:"match_id"`
	Round   uint32 `ch:"round" db:"round"`
	Map     string `ch:"map" db:"map"`
	Team    string `ch:"team" db:"team"`
	SteamID string `ch:"steamid" db:"steamid"`
	Name    string `ch:"name" db:"name"`
	Mode    string `ch:"mode" db:"mode"`

	Health      uint32 `ch:"health" db:"health"`
	Armor       uint32 `ch:"armor" db:"armor"`
	Helmet      bool   `ch:"helmet" db:"helmet"`
	Money       uint32 `ch:"money" db:"money"`
	EquipValue  uint32 `ch:"equip_value" db:"equip_value"`
	RoundKills  uint32 `ch:"round_kills" db:"round_kills"`
	RoundKillHS uint32 `ch:"round_killhs" db:"round_killhs"`
	Kills       uint32 `ch:"kills" db:"kills"`
	Assists     uint32 `ch:"assists" db:"assists"`
	Deaths      uint32 `ch:"deaths" db:"deaths"`
	MVPs        uint32 `ch:"mvps" db:"mvps"`
	Score       uint32 `ch:"score" db:"score"`

	EventTS int64  `ch:"event_timestamp" db:"event_timestamp"`
	WinTeam string `ch:"win_team" db:"win_team"`
}

// HistoricalKill converts a live kill into its archived row.
func HistoricalKill(e *LiveKillEvent) *HistoricalKillEvent {
	return &HistoricalKillEvent{
		MatchId:        e.MatchID,
		Round:          uint32(max(e.Round, 0)),
		Map:            e.Map,
		Team:           e.Team,
		SteamID:        e.SteamID,
		Name:           e.Name,
		Mode:           e.Mode,
		WeaponName:     e.ActiveGun.Name,
		WeaponType:     e.ActiveGun.Type,
		WeaponAmmo:     uint32(max(e.ActiveGun.Ammo, 0)),
		WeaponReserve:  uint32(max(e.ActiveGun.Reserve, 0)),
		WeaponSkin:     e.ActiveGun.Skin,
		WeaponHeadshot: e.ActiveGun.Headshot,
		Timestamp:      e.Timestamp,
	}
}

// HistoricalPlayer converts a live snapshot into its archived row.
func HistoricalPlayer(e *LivePlayerEvent) *HistoricalPlayerEvent {
	u := func(v int) uint32 { return uint32(max(v, 0)) }
	return &HistoricalPlayerEvent{
		MatchId:     e.MatchID,
		Round:       u(e.Round),
		Map:         e.Map,
		Team:        e.Team,
		SteamID:     e.SteamID,
		Name:        e.Name,
		Mode:        e.Mode,
		Health:      u(e.Health),
		Armor:       u(e.Armor),
		Helmet:      e.Helmet,
		Money:       u(e.Money),
		EquipValue:  u(e.EquipValue),
		RoundKills:  u(e.RoundKills),
		RoundKillHS: u(e.RoundKillHS),
		Kills:       u(e.Kills),
		Assists:     u(e.Assists),
		Deaths:      u(e.Deaths),
		MVPs:        u(e.MVPs),
		Score:       u(e.Score),
		EventTS:     e.EventTS,
		WinTeam:     e.WinTeam,
	}
}
