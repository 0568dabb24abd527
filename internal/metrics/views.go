package metrics

import "cs2-telemetry/internal/domain"

// Summary holds the headline statistics. Ratios are preformatted so that
// repeated computation renders byte-identical output.
type Summary struct {
	TotalKills    int    `json:"total_kills"`
	HeadshotPct   string `json:"headshot_pct"`    // one decimal, "0" without kills
	RoundCount    int    `json:"round_count"`     // at least 1
	KillsPerRound string `json:"kills_per_round"` // one decimal
	Money         int    `json:"money"`
	Health        int    `json:"health"`
	KDRatio       string `json:"kd_ratio"` // two decimals
}

// TimelineBucket counts kills in one wall-clock minute.
type TimelineBucket struct {
	Time  string `json:"time"` // HH:MM
	Kills int    `json:"kills"`
}

// EconomyRound is the average buy state of one round.
type EconomyRound struct {
	Round         int  `json:"round"`
	AvgMoney      int  `json:"avg_money"`
	AvgEquipValue int  `json:"avg_equip_value"`
	Kills         int  `json:"kills"`
	EcoRound      bool `json:"eco_round"`
}

// VitalsRound is the average health and armor of one round.
type VitalsRound struct {
	Round     int `json:"round"`
	AvgHealth int `json:"avg_health"`
	AvgArmor  int `json:"avg_armor"`
}

// PerformanceRound is the scoreboard state at the end of one round.
type PerformanceRound struct {
	Round   int `json:"round"`
	Kills   int `json:"kills"`
	Deaths  int `json:"deaths"`
	Assists int `json:"assists"`
	Score   int `json:"score"`
}

// RecentKill is a kill annotated with its age at aggregation time.
type RecentKill struct {
	domain.KillEvent
	Age string `json:"age"`
}

// WeaponUsage is the kill share of one weapon.
type WeaponUsage struct {
	Weapon     string `json:"weapon"`
	Kills      int    `json:"kills"`
	Percentage int    `json:"percentage"`
}

// MatchRecord summarizes one match.
type MatchRecord struct {
	MatchID  string `json:"match_id"`
	Map      string `json:"map"`
	Rounds   int    `json:"rounds"`
	Kills    int    `json:"kills"`
	KDRatio  string `json:"kd_ratio"`
	Result   string `json:"result"` // "Win", "Loss" or "" while ongoing
	LastSeen int64  `json:"last_seen"`
}

// Views is every derived view computed from one pair of event sets.
type Views struct {
	Summary      Summary            `json:"summary"`
	KillTimeline []TimelineBucket   `json:"kill_timeline"`
	Economy      []EconomyRound     `json:"economy"`
	Vitals       []VitalsRound      `json:"vitals"`
	Performance  []PerformanceRound `json:"performance"`
	RecentKills  []RecentKill       `json:"recent_kills"`
	WeaponUsage  []WeaponUsage      `json:"weapon_usage"`
	MatchHistory []MatchRecord      `json:"match_history"`
	ComputedAt   int64              `json:"computed_at"` // Unix ms
}
