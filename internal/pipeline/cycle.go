// Package pipeline runs one polling cycle: query, normalize, aggregate.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"cs2-telemetry/internal/domain"
	"cs2-telemetry/internal/metrics"
	"cs2-telemetry/internal/normalization"
	"cs2-telemetry/internal/query"
)

// Result is the complete state produced by one cycle. It replaces the
// previous Result in whole; nothing in it is patched afterwards.
type Result struct {
	Source    domain.Source         `json:"source"`
	Filter    domain.Filter         `json:"filter"`
	Kills     []*domain.KillEvent   `json:"kills"`
	Players   []*domain.PlayerEvent `json:"players"`
	Views     *metrics.Views        `json:"views"`
	FetchedAt time.Time             `json:"fetched_at"`
}

// Cycle wires the query adapter, normalizer and aggregation engine.
type Cycle struct {
	fetcher    query.Fetcher
	normalizer *normalization.Normalizer
	engine     *metrics.Engine
	clock      func() time.Time
}

// NewCycle creates a cycle runner.
func NewCycle(fetcher query.Fetcher, normalizer *normalization.Normalizer, engine *metrics.Engine) *Cycle {
	return &Cycle{
		fetcher:    fetcher,
		normalizer: normalizer,
		engine:     engine,
		clock:      time.Now,
	}
}

// WithClock sets a custom clock function for deterministic output.
func (c *Cycle) WithClock(clock func() time.Time) *Cycle {
	c.clock = clock
	return c
}

// Run fetches both record kinds for source and filter and derives the views.
// Only the fetch can fail; malformed records are dropped by the normalizer.
func (c *Cycle) Run(ctx context.Context, source domain.Source, filter domain.Filter) (*Result, error) {
	batch, err := c.fetcher.Fetch(ctx, source, filter)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", source, err)
	}

	kills := c.normalizer.Kills(source, batch.Kills)
	players := c.normalizer.Players(source, batch.Players)

	now := c.clock()
	return &Result{
		Source:    source,
		Filter:    filter,
		Kills:     kills,
		Players:   players,
		Views:     c.engine.ComputeAt(kills, players, now),
		FetchedAt: now,
	}, nil
}
