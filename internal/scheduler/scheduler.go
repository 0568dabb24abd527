// Package scheduler drives periodic polling cycles and owns the last
// applied result.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"cs2-telemetry/internal/domain"
	"cs2-telemetry/internal/observability"
	"cs2-telemetry/internal/pipeline"
)

// Defaults.
const (
	DefaultInterval    = 2000 * time.Millisecond
	DefaultRefreshHold = 300 * time.Millisecond
)

var (
	// ErrAlreadyRunning is returned by Run when the loop is already active.
	ErrAlreadyRunning = errors.New("scheduler already running")
	// ErrInvalidSource is returned by Reconfigure for an unknown source.
	ErrInvalidSource = errors.New("invalid source")
)

// Runner executes one polling cycle.
type Runner interface {
	Run(ctx context.Context, source domain.Source, filter domain.Filter) (*pipeline.Result, error)
}

// Scheduler polls Runner on a fixed interval.
//
// Every change of source or filter starts a new generation. Cycles started
// under an older generation are cancelled and their results discarded even
// if they complete. Within a generation the last cycle to complete wins.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	hold     time.Duration
	clock    func() time.Time
	logger   *log.Logger

	mu         sync.RWMutex
	source     domain.Source
	filter     domain.Filter
	generation uint64
	baseCtx    context.Context
	genCtx     context.Context
	genCancel  context.CancelFunc
	inflight   int
	state      State
	loading    bool
	lastErr    string
	lastUpdate time.Time
	result     *pipeline.Result

	refreshSeq uint64
	refreshing bool

	reset   chan struct{}
	running atomic.Bool
	cycles  sync.WaitGroup
}

// Options configures a Scheduler.
type Options struct {
	Runner      Runner
	Interval    time.Duration // Default: 2s
	RefreshHold time.Duration // Default: 300ms
	Source      domain.Source // Default: live
	Filter      domain.Filter
	Clock       func() time.Time
	Logger      *log.Logger
}

// New creates an idle Scheduler. Call Run to start polling.
func New(opts Options) *Scheduler {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	hold := opts.RefreshHold
	if hold <= 0 {
		hold = DefaultRefreshHold
	}
	source := opts.Source
	if !source.IsValid() {
		source = domain.SourceLive
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	genCtx, genCancel := context.WithCancel(context.Background())
	return &Scheduler{
		runner:    opts.Runner,
		interval:  interval,
		hold:      hold,
		clock:     clock,
		logger:    logger,
		source:    source,
		filter:    opts.Filter,
		genCtx:    genCtx,
		genCancel: genCancel,
		loading:   true,
		reset:     make(chan struct{}, 1),
	}
}

// Run starts a cycle immediately and then one per interval.
// It blocks until ctx is cancelled and in-flight cycles have returned.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer s.running.Store(false)

	s.mu.Lock()
	s.baseCtx = ctx
	s.genCancel()
	s.genCtx, s.genCancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.logger.Printf("Scheduler started, interval: %v, source: %s", s.interval, s.Source())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.startCycle(false)

	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.genCancel()
			s.baseCtx = nil
			s.genCtx, s.genCancel = context.WithCancel(context.Background())
			s.mu.Unlock()
			s.cycles.Wait()
			s.logger.Println("Scheduler stopping...")
			return ctx.Err()

		case <-s.reset:
			ticker.Reset(s.interval)
			s.startCycle(false)

		case <-ticker.C:
			s.startCycle(false)
		}
	}
}

// Refresh starts a cycle now without moving the interval baseline. The
// refreshing indicator stays set until the hold has elapsed after the
// cycle settles.
func (s *Scheduler) Refresh() {
	s.startCycle(true)
}

// Reconfigure switches source and filter. A change cancels in-flight cycles,
// restarts the interval and polls immediately. An unchanged configuration is
// a no-op.
func (s *Scheduler) Reconfigure(source domain.Source, filter domain.Filter) error {
	if !source.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidSource, source)
	}

	s.mu.Lock()
	if source == s.source && filter.Equal(s.filter) {
		s.mu.Unlock()
		return nil
	}
	parent := s.baseCtx
	if parent == nil {
		parent = context.Background()
	}
	s.genCancel()
	s.genCtx, s.genCancel = context.WithCancel(parent)
	s.generation++
	s.source = source
	s.filter = filter
	s.loading = true
	s.state = StateIdle
	gen := s.generation
	s.mu.Unlock()

	s.logger.Printf("Reconfigured to source=%s filter=%v (generation %d)", source, filter.Values().Encode(), gen)

	select {
	case s.reset <- struct{}{}:
	default:
	}
	return nil
}

// startCycle launches one cycle for the active configuration.
func (s *Scheduler) startCycle(manual bool) {
	s.mu.Lock()
	gen := s.generation
	ctx := s.genCtx
	source, filter := s.source, s.filter
	s.inflight++
	var token uint64
	if manual {
		s.refreshSeq++
		token = s.refreshSeq
		s.refreshing = true
	}
	s.mu.Unlock()

	s.cycles.Add(1)
	go s.runCycle(ctx, gen, token, source, filter)
}

func (s *Scheduler) runCycle(ctx context.Context, gen, token uint64, source domain.Source, filter domain.Filter) {
	defer s.cycles.Done()

	start := s.clock()
	res, err := s.runner.Run(ctx, source, filter)
	elapsed := s.clock().Sub(start)

	// A cycle cut off by the scheduler's own context says nothing about the
	// source, so it leaves the displayed state alone.
	cancelled := err != nil && ctx.Err() != nil && errors.Is(err, context.Canceled)

	s.mu.Lock()
	s.inflight--
	superseded := gen != s.generation
	if !superseded && !cancelled {
		s.apply(res, err)
	}
	s.mu.Unlock()

	switch {
	case superseded:
		observability.RecordSuperseded()
		observability.RecordPollCycle(source.String(), "superseded", elapsed)
	case cancelled:
		observability.RecordPollCycle(source.String(), "cancelled", elapsed)
	case err != nil:
		s.logger.Printf("poll cycle failed (source=%s): %v", source, err)
		observability.RecordPollCycle(source.String(), "error", elapsed)
	default:
		observability.RecordPollCycle(source.String(), "success", elapsed)
	}

	if token != 0 {
		time.AfterFunc(s.hold, func() { s.releaseRefresh(token) })
	}
}

// apply records the outcome of a current-generation cycle. Caller holds mu.
func (s *Scheduler) apply(res *pipeline.Result, err error) {
	s.loading = false
	if err != nil {
		s.state = StateFailed
		s.lastErr = err.Error()
		return
	}
	s.state = StateSettled
	s.lastErr = ""
	s.result = res
	s.lastUpdate = s.clock()
}

// releaseRefresh clears the indicator unless a newer manual refresh owns it.
func (s *Scheduler) releaseRefresh(token uint64) {
	s.mu.Lock()
	if s.refreshSeq == token {
		s.refreshing = false
	}
	s.mu.Unlock()
}

// Result returns the last applied result, or nil before the first success.
// Failed cycles never replace it.
func (s *Scheduler) Result() *pipeline.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// Source returns the active source.
func (s *Scheduler) Source() domain.Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// Status returns a snapshot of the scheduler health.
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		State:      s.state,
		Loading:    s.loading,
		Refreshing: s.refreshing,
		Source:     s.source,
		Filter:     s.filter,
		Generation: s.generation,
	}
	if s.inflight > 0 {
		st.State = StateFetching
	}
	if s.lastErr != "" {
		msg := s.lastErr
		st.Error = &msg
	}
	if !s.lastUpdate.IsZero() {
		t := s.lastUpdate
		st.LastUpdate = &t
	}
	return st
}
