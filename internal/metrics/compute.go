package metrics

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"cs2-telemetry/internal/domain"
	"cs2-telemetry/internal/normalization"
)

// View sizes.
const (
	TimelineWindow     = 10
	RoundWindow        = 10
	RecentKillsLimit   = 5
	WeaponUsageLimit   = 5
	MatchHistoryLimit  = 5
	EcoMoneyThreshold  = 3000
	DefaultHealth      = 100
	timelineBucketTime = "15:04"
)

// computeSummary derives the headline statistics.
// Snapshot fields come from the player event with the greatest timestamp.
func computeSummary(kills []*domain.KillEvent, players []*domain.PlayerEvent) Summary {
	total := len(kills)

	headshots := 0
	rounds := make(map[int]struct{})
	for _, k := range kills {
		if k.Weapon.Headshot {
			headshots++
		}
		rounds[k.Round] = struct{}{}
	}

	roundCount := len(rounds)
	if roundCount < 1 {
		roundCount = 1
	}

	s := Summary{
		TotalKills:    total,
		HeadshotPct:   "0",
		RoundCount:    roundCount,
		KillsPerRound: formatFixed(float64(total)/float64(roundCount), 1),
		Health:        DefaultHealth,
		KDRatio:       kdRatio(nil),
	}
	if total > 0 {
		s.HeadshotPct = formatFixed(float64(headshots)/float64(total)*100, 1)
	}

	if latest := latestPlayer(players); latest != nil {
		s.Money = latest.Money
		s.Health = latest.Health
		s.KDRatio = kdRatio(latest)
	}
	return s
}

// computeKillTimeline counts kills per HH:MM bucket in loc and keeps the
// last TimelineWindow buckets in ascending label order.
func computeKillTimeline(kills []*domain.KillEvent, loc *time.Location) []TimelineBucket {
	counts := make(map[string]int)
	for _, k := range kills {
		label := time.UnixMilli(k.Timestamp).In(loc).Format(timelineBucketTime)
		counts[label]++
	}

	labels := make([]string, 0, len(counts))
	for l := range counts {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	labels = lastStrings(labels, TimelineWindow)

	out := make([]TimelineBucket, len(labels))
	for i, l := range labels {
		out[i] = TimelineBucket{Time: l, Kills: counts[l]}
	}
	return out
}

// roundWindow returns the last RoundWindow distinct rounds seen in player
// events, ascending, with the events and kill counts of each.
func roundWindow(kills []*domain.KillEvent, players []*domain.PlayerEvent) ([]int, map[int][]*domain.PlayerEvent, map[int]int) {
	byRound := make(map[int][]*domain.PlayerEvent)
	for _, p := range players {
		byRound[p.Round] = append(byRound[p.Round], p)
	}

	rounds := make([]int, 0, len(byRound))
	for r := range byRound {
		rounds = append(rounds, r)
	}
	sort.Ints(rounds)
	if len(rounds) > RoundWindow {
		rounds = rounds[len(rounds)-RoundWindow:]
	}

	killsByRound := make(map[int]int)
	for _, k := range kills {
		killsByRound[k.Round]++
	}
	return rounds, byRound, killsByRound
}

// computeEconomy averages money and equipment value per round.
func computeEconomy(rounds []int, byRound map[int][]*domain.PlayerEvent, killsByRound map[int]int) []EconomyRound {
	out := make([]EconomyRound, len(rounds))
	for i, r := range rounds {
		events := byRound[r]
		var money, equip float64
		for _, e := range events {
			money += float64(e.Money)
			equip += float64(e.EquipValue)
		}
		avgMoney := mean(money, len(events), 0)
		out[i] = EconomyRound{
			Round:         r,
			AvgMoney:      avgMoney,
			AvgEquipValue: mean(equip, len(events), 0),
			Kills:         killsByRound[r],
			EcoRound:      avgMoney < EcoMoneyThreshold,
		}
	}
	return out
}

// computeVitals averages health and armor per round.
func computeVitals(rounds []int, byRound map[int][]*domain.PlayerEvent) []VitalsRound {
	out := make([]VitalsRound, len(rounds))
	for i, r := range rounds {
		events := byRound[r]
		var health, armor float64
		for _, e := range events {
			health += float64(e.Health)
			armor += float64(e.Armor)
		}
		out[i] = VitalsRound{
			Round:     r,
			AvgHealth: mean(health, len(events), DefaultHealth),
			AvgArmor:  mean(armor, len(events), 0),
		}
	}
	return out
}

// computePerformance takes the counters of the latest snapshot in each round.
func computePerformance(rounds []int, byRound map[int][]*domain.PlayerEvent) []PerformanceRound {
	out := make([]PerformanceRound, len(rounds))
	for i, r := range rounds {
		out[i] = PerformanceRound{Round: r}
		if latest := latestPlayer(byRound[r]); latest != nil {
			out[i].Kills = latest.Kills
			out[i].Deaths = latest.Deaths
			out[i].Assists = latest.Assists
			out[i].Score = latest.Score
		}
	}
	return out
}

// computeRecentKills returns the newest RecentKillsLimit kills with an age
// label relative to now.
func computeRecentKills(kills []*domain.KillEvent, now time.Time) []RecentKill {
	sorted := make([]*domain.KillEvent, len(kills))
	copy(sorted, kills)
	sort.SliceStable(sorted, func(i, j int) bool {
		return normalization.CompareKills(sorted[i], sorted[j]) > 0
	})
	if len(sorted) > RecentKillsLimit {
		sorted = sorted[:RecentKillsLimit]
	}

	out := make([]RecentKill, len(sorted))
	for i, k := range sorted {
		out[i] = RecentKill{KillEvent: *k, Age: AgeLabel(now.UnixMilli()-k.Timestamp)}
	}
	return out
}

// computeWeaponUsage ranks weapons by kills (desc), then name (asc).
func computeWeaponUsage(kills []*domain.KillEvent) []WeaponUsage {
	if len(kills) == 0 {
		return []WeaponUsage{}
	}

	counts := make(map[string]int)
	for _, k := range kills {
		name := k.Weapon.Name
		if name == "" {
			name = "unknown"
		}
		counts[name]++
	}

	out := make([]WeaponUsage, 0, len(counts))
	for name, n := range counts {
		out = append(out, WeaponUsage{
			Weapon:     name,
			Kills:      n,
			Percentage: int(math.Round(float64(n) * 100 / float64(len(kills)))),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kills != out[j].Kills {
			return out[i].Kills > out[j].Kills
		}
		return out[i].Weapon < out[j].Weapon
	})
	if len(out) > WeaponUsageLimit {
		out = out[:WeaponUsageLimit]
	}
	return out
}

// computeMatchHistory summarizes each match, newest first.
func computeMatchHistory(kills []*domain.KillEvent, players []*domain.PlayerEvent) []MatchRecord {
	type acc struct {
		rounds   map[int]struct{}
		kills    int
		killMap  string
		lastKill int64
		players  []*domain.PlayerEvent
	}
	matches := make(map[string]*acc)
	get := func(id string) *acc {
		a, ok := matches[id]
		if !ok {
			a = &acc{rounds: make(map[int]struct{}), lastKill: math.MinInt64}
			matches[id] = a
		}
		return a
	}

	for _, k := range kills {
		a := get(k.MatchID)
		a.kills++
		a.rounds[k.Round] = struct{}{}
		if k.Timestamp > a.lastKill || (k.Timestamp == a.lastKill && k.Map > a.killMap) {
			a.lastKill = k.Timestamp
			a.killMap = k.Map
		}
	}
	for _, p := range players {
		a := get(p.MatchID)
		a.rounds[p.Round] = struct{}{}
		a.players = append(a.players, p)
	}

	out := make([]MatchRecord, 0, len(matches))
	for id, a := range matches {
		rec := MatchRecord{
			MatchID:  id,
			Map:      a.killMap,
			Rounds:   len(a.rounds),
			Kills:    a.kills,
			KDRatio:  kdRatio(nil),
			LastSeen: a.lastKill,
		}
		if latest := latestPlayer(a.players); latest != nil {
			if latest.Map != "" {
				rec.Map = latest.Map
			}
			rec.KDRatio = kdRatio(latest)
			rec.Result = matchResult(latest)
			if latest.Timestamp > rec.LastSeen {
				rec.LastSeen = latest.Timestamp
			}
		}
		out = append(out, rec)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].LastSeen != out[j].LastSeen {
			return out[i].LastSeen > out[j].LastSeen
		}
		return out[i].MatchID < out[j].MatchID
	})
	if len(out) > MatchHistoryLimit {
		out = out[:MatchHistoryLimit]
	}
	return out
}

// latestPlayer returns the snapshot with the greatest timestamp, or nil.
// Ties resolve through normalization.ComparePlayers.
func latestPlayer(players []*domain.PlayerEvent) *domain.PlayerEvent {
	var latest *domain.PlayerEvent
	for _, p := range players {
		if latest == nil || normalization.ComparePlayers(p, latest) > 0 {
			latest = p
		}
	}
	return latest
}

// kdRatio divides kills by max(deaths, 1). A nil snapshot yields "0.00".
func kdRatio(p *domain.PlayerEvent) string {
	if p == nil {
		return formatFixed(0, 2)
	}
	deaths := p.Deaths
	if deaths < 1 {
		deaths = 1
	}
	return formatFixed(float64(p.Kills)/float64(deaths), 2)
}

func matchResult(p *domain.PlayerEvent) string {
	switch {
	case p.WinTeam == "":
		return ""
	case p.WinTeam == p.Team:
		return "Win"
	default:
		return "Loss"
	}
}

// AgeLabel renders an elapsed duration in milliseconds as "{s}s ago",
// "{m}m ago" or "{h}h ago". Negative durations count as zero.
func AgeLabel(elapsedMs int64) string {
	secs := elapsedMs / 1000
	if secs < 0 {
		secs = 0
	}
	switch {
	case secs < 60:
		return fmt.Sprintf("%ds ago", secs)
	case secs < 3600:
		return fmt.Sprintf("%dm ago", secs/60)
	default:
		return fmt.Sprintf("%dh ago", secs/3600)
	}
}

// mean returns round(sum/n), or def when n is 0.
func mean(sum float64, n int, def int) int {
	if n == 0 {
		return def
	}
	return int(math.Round(sum / float64(n)))
}

func formatFixed(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

func lastStrings(s []string, n int) []string {
	if len(s) > n {
		return s[len(s)-n:]
	}
	return s
}
