package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"cs2-telemetry/internal/domain"
	"cs2-telemetry/internal/livelog"
	"cs2-telemetry/internal/metrics"
	"cs2-telemetry/internal/observability"
	"cs2-telemetry/internal/pipeline"
	"cs2-telemetry/internal/query"
	"cs2-telemetry/internal/scheduler"
)

// Poller is the part of the scheduler the dashboard drives.
type Poller interface {
	Refresh()
	Reconfigure(source domain.Source, filter domain.Filter) error
	Result() *pipeline.Result
	Status() scheduler.Status
}

// CacheAdmin reads and clears the live store cache.
type CacheAdmin interface {
	CacheSize(ctx context.Context) (int64, error)
	ClearCache(ctx context.Context) (int64, error)
}

// LiveFeed toggles the push channel feeding the live event log.
type LiveFeed interface {
	Connect(ctx context.Context) error
	Disconnect() error
	Connected() bool
	Log() *livelog.Log
}

// DashboardOptions configures the dashboard service.
type DashboardOptions struct {
	Poller  Poller
	Cache   CacheAdmin
	Feed    LiveFeed
	Origins []string
	Timeout time.Duration
	Logger  *log.Logger
}

// Dashboard exposes the derived views, scheduler health and live event log.
type Dashboard struct {
	poller  Poller
	cache   CacheAdmin
	feed    LiveFeed
	origins []string
	timeout time.Duration
	logger  *log.Logger
}

// NewDashboard creates a dashboard server.
func NewDashboard(opts DashboardOptions) *Dashboard {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Dashboard{
		poller:  opts.Poller,
		cache:   opts.Cache,
		feed:    opts.Feed,
		origins: opts.Origins,
		timeout: timeout,
		logger:  logger,
	}
}

// ViewsResponse is the body of GET /api/views. Views is null until the
// first cycle for any configuration has settled.
type ViewsResponse struct {
	Status scheduler.Status `json:"status"`
	Views  *metrics.Views   `json:"views"`
}

// EventsResponse is the body of GET /api/events.
type EventsResponse struct {
	Source    domain.Source         `json:"source"`
	Filter    domain.Filter         `json:"filter"`
	Kills     []*domain.KillEvent   `json:"kills"`
	Players   []*domain.PlayerEvent `json:"players"`
	FetchedAt *time.Time            `json:"fetched_at"`
}

// ConfigRequest is the body of PUT /api/config.
type ConfigRequest struct {
	Source domain.Source `json:"source"`
	Filter domain.Filter `json:"filter"`
}

// LogResponse is the live event log state.
type LogResponse struct {
	Connected bool              `json:"connected"`
	Paused    bool              `json:"paused"`
	Entries   []domain.LogEntry `json:"entries"`
}

// Routes builds the router.
func (d *Dashboard) Routes() http.Handler {
	r := newRouter(d.origins)
	r.Use(middleware.Timeout(d.timeout))

	r.Get("/healthz", healthz)
	r.Handle("/metrics", observability.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/views", d.views)
		r.Get("/events", d.events)
		r.Get("/status", d.status)
		r.Post("/refresh", d.refresh)
		r.Put("/config", d.configure)

		r.Route("/log", func(r chi.Router) {
			r.Get("/", d.logState)
			r.Post("/connect", d.logConnect)
			r.Post("/disconnect", d.logDisconnect)
			r.Post("/pause", d.logPause)
			r.Post("/resume", d.logResume)
			r.Post("/clear", d.logClear)
		})

		r.Get("/cache", d.cacheSize)
		r.Delete("/cache", d.clearCache)
	})

	return r
}

func (d *Dashboard) views(w http.ResponseWriter, _ *http.Request) {
	resp := ViewsResponse{Status: d.poller.Status()}
	if res := d.poller.Result(); res != nil {
		resp.Views = res.Views
	}
	respondJSON(w, d.logger, http.StatusOK, resp)
}

func (d *Dashboard) events(w http.ResponseWriter, _ *http.Request) {
	st := d.poller.Status()
	resp := EventsResponse{
		Source:  st.Source,
		Filter:  st.Filter,
		Kills:   []*domain.KillEvent{},
		Players: []*domain.PlayerEvent{},
	}
	if res := d.poller.Result(); res != nil {
		resp.Source = res.Source
		resp.Filter = res.Filter
		resp.Kills = nonNil(res.Kills)
		resp.Players = nonNil(res.Players)
		fetched := res.FetchedAt
		resp.FetchedAt = &fetched
	}
	respondJSON(w, d.logger, http.StatusOK, resp)
}

func (d *Dashboard) status(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, d.logger, http.StatusOK, d.poller.Status())
}

func (d *Dashboard) refresh(w http.ResponseWriter, _ *http.Request) {
	d.poller.Refresh()
	respondJSON(w, d.logger, http.StatusAccepted, d.poller.Status())
}

func (d *Dashboard) configure(w http.ResponseWriter, r *http.Request) {
	var req ConfigRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil {
		respondError(w, d.logger, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if req.Filter.Round != nil && *req.Filter.Round < 0 {
		respondError(w, d.logger, http.StatusBadRequest, "round must not be negative", nil)
		return
	}

	if err := d.poller.Reconfigure(req.Source, req.Filter); err != nil {
		if errors.Is(err, scheduler.ErrInvalidSource) {
			respondError(w, d.logger, http.StatusBadRequest, err.Error(), nil)
			return
		}
		respondError(w, d.logger, http.StatusInternalServerError, "failed to reconfigure", err)
		return
	}
	respondJSON(w, d.logger, http.StatusOK, d.poller.Status())
}

func (d *Dashboard) logSnapshot() LogResponse {
	l := d.feed.Log()
	return LogResponse{
		Connected: d.feed.Connected(),
		Paused:    l.Paused(),
		Entries:   nonNil(l.Entries()),
	}
}

func (d *Dashboard) logState(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, d.logger, http.StatusOK, d.logSnapshot())
}

func (d *Dashboard) logConnect(w http.ResponseWriter, r *http.Request) {
	if err := d.feed.Connect(r.Context()); err != nil {
		respondError(w, d.logger, http.StatusBadGateway, "failed to connect push channel", err)
		return
	}
	respondJSON(w, d.logger, http.StatusOK, d.logSnapshot())
}

func (d *Dashboard) logDisconnect(w http.ResponseWriter, _ *http.Request) {
	if err := d.feed.Disconnect(); err != nil {
		respondError(w, d.logger, http.StatusInternalServerError, "failed to disconnect push channel", err)
		return
	}
	respondJSON(w, d.logger, http.StatusOK, d.logSnapshot())
}

func (d *Dashboard) logPause(w http.ResponseWriter, _ *http.Request) {
	d.feed.Log().Pause()
	respondJSON(w, d.logger, http.StatusOK, d.logSnapshot())
}

func (d *Dashboard) logResume(w http.ResponseWriter, _ *http.Request) {
	d.feed.Log().Resume()
	respondJSON(w, d.logger, http.StatusOK, d.logSnapshot())
}

func (d *Dashboard) logClear(w http.ResponseWriter, _ *http.Request) {
	d.feed.Log().Clear()
	respondJSON(w, d.logger, http.StatusOK, d.logSnapshot())
}

func (d *Dashboard) cacheSize(w http.ResponseWriter, r *http.Request) {
	n, err := d.cache.CacheSize(r.Context())
	if err != nil {
		d.upstreamError(w, "failed to read cache size", err)
		return
	}
	respondJSON(w, d.logger, http.StatusOK, CacheSize{Size: n})
}

func (d *Dashboard) clearCache(w http.ResponseWriter, r *http.Request) {
	n, err := d.cache.ClearCache(r.Context())
	if err != nil {
		d.upstreamError(w, "failed to clear cache", err)
		return
	}
	respondJSON(w, d.logger, http.StatusOK, CacheSize{Size: n})
}

func (d *Dashboard) upstreamError(w http.ResponseWriter, message string, err error) {
	status := http.StatusBadGateway
	if errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusGatewayTimeout
	}
	var se *query.StatusError
	if errors.As(err, &se) {
		message = se.Error()
	}
	respondError(w, d.logger, status, message, err)
}
