package domain

// PlayerEvent is a point-in-time snapshot of the tracked player's state.
type PlayerEvent struct {
	MatchID string `json:"match_id"`
	Round   int    `json:"round"`
	Map     string `json:"map"`
	Team    string `json:"team"`
	SteamID string `json:"steamid"`
	Name    string `json:"name"`
	Mode    string `json:"mode"`

	Health     int  `json:"health"` // 0..100
	Armor      int  `json:"armor"`  // 0..100
	Helmet     bool `json:"helmet"`
	Money      int  `json:"money"`
	EquipValue int  `json:"equip_value"`

	// Round-scoped counters.
	RoundKills  int `json:"round_kills"`
	RoundKillHS int `json:"round_killhs"`

	// Match-scoped counters.
	Kills   int `json:"kills"`
	Assists int `json:"assists"`
	Deaths  int `json:"deaths"`
	MVPs    int `json:"mvps"`
	Score   int `json:"score"`

	Timestamp int64  `json:"timestamp"` // Unix timestamp in milliseconds
	WinTeam   string `json:"win_team"`  // empty while the round is ongoing
}
