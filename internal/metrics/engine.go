// Package metrics derives display views from canonical kill and player events.
package metrics

import (
	"time"

	"cs2-telemetry/internal/domain"
)

// Engine computes Views. It holds no state besides its clock and time zone,
// so Compute is a pure function of its inputs and the current time.
type Engine struct {
	loc *time.Location
	now func() time.Time
}

// EngineOption configures Engine.
type EngineOption func(*Engine)

// WithLocation sets the time zone used for kill timeline buckets.
func WithLocation(loc *time.Location) EngineOption {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithClock sets the time source used for recent kill age labels.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an Engine. Defaults: local time zone, wall clock.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		loc: time.Local,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compute derives every view from the two event sets at the current time.
// The inputs are never modified.
func (e *Engine) Compute(kills []*domain.KillEvent, players []*domain.PlayerEvent) *Views {
	return e.ComputeAt(kills, players, e.now())
}

// ComputeAt derives every view relative to now. Output is identical for
// identical inputs regardless of their order.
func (e *Engine) ComputeAt(kills []*domain.KillEvent, players []*domain.PlayerEvent, now time.Time) *Views {
	rounds, byRound, killsByRound := roundWindow(kills, players)

	return &Views{
		Summary:      computeSummary(kills, players),
		KillTimeline: computeKillTimeline(kills, e.loc),
		Economy:      computeEconomy(rounds, byRound, killsByRound),
		Vitals:       computeVitals(rounds, byRound),
		Performance:  computePerformance(rounds, byRound),
		RecentKills:  computeRecentKills(kills, now),
		WeaponUsage:  computeWeaponUsage(kills),
		MatchHistory: computeMatchHistory(kills, players),
		ComputedAt:   now.UnixMilli(),
	}
}
