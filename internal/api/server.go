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
	"cs2-telemetry/internal/observability"
	"cs2-telemetry/internal/storage"
)

// maxBodySize caps request bodies accepted by POST handlers.
const maxBodySize = 1 << 20

// ServerOptions configures the backend query service.
type ServerOptions struct {
	Live       storage.LiveStore
	Historical storage.HistoricalStore
	Hub        *Hub
	Origins    []string
	Timeout    time.Duration
	Logger     *log.Logger
}

// Server serves both stores in their native conventions, plus the cache
// administration and push endpoints.
type Server struct {
	live       storage.LiveStore
	historical storage.HistoricalStore
	hub        *Hub
	origins    []string
	timeout    time.Duration
	logger     *log.Logger
}

// NewServer creates a backend server.
func NewServer(opts ServerOptions) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	hub := opts.Hub
	if hub == nil {
		hub = NewHub(DefaultBroadcastBuffer, logger)
	}
	return &Server{
		live:       opts.Live,
		historical: opts.Historical,
		hub:        hub,
		origins:    opts.Origins,
		timeout:    timeout,
		logger:     logger,
	}
}

// Hub returns the push hub. Its Run loop must be started by the caller.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Routes builds the router. ctx bounds the lifetime of websocket subscribers.
func (s *Server) Routes(ctx context.Context) http.Handler {
	r := newRouter(s.origins)

	r.Get("/healthz", healthz)
	r.Handle("/metrics", observability.Handler())
	r.Get("/ws", s.hub.ServeWS(ctx))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.timeout))

		r.Route("/redis", func(r chi.Router) {
			r.Get("/kill-events", s.liveKills)
			r.Get("/player-events", s.livePlayers)
			r.Get("/cache-size", s.cacheSize)
			r.Delete("/clear", s.clearCache)
		})

		r.Route("/db", func(r chi.Router) {
			r.Get("/kill-events", s.historicalKills)
			r.Get("/player-events", s.historicalPlayers)
		})

		r.Route("/ingest", func(r chi.Router) {
			r.Post("/kill-events", s.ingestKill)
			r.Post("/player-events", s.ingestPlayer)
		})

		r.Post("/log", s.publishLog)
	})

	return r
}

func (s *Server) filter(w http.ResponseWriter, r *http.Request) (domain.Filter, bool) {
	f, err := domain.ParseFilter(r.URL.Query())
	if err != nil {
		respondError(w, s.logger, http.StatusBadRequest, err.Error(), nil)
		return domain.Filter{}, false
	}
	return f, true
}

func (s *Server) liveKills(w http.ResponseWriter, r *http.Request) {
	f, ok := s.filter(w, r)
	if !ok {
		return
	}
	rows, err := s.live.Kills(r.Context(), f)
	if err != nil {
		respondError(w, s.logger, http.StatusInternalServerError, "failed to read live kills", err)
		return
	}
	respondJSON(w, s.logger, http.StatusOK, nonNil(rows))
}

func (s *Server) livePlayers(w http.ResponseWriter, r *http.Request) {
	f, ok := s.filter(w, r)
	if !ok {
		return
	}
	rows, err := s.live.Players(r.Context(), f)
	if err != nil {
		respondError(w, s.logger, http.StatusInternalServerError, "failed to read live players", err)
		return
	}
	respondJSON(w, s.logger, http.StatusOK, nonNil(rows))
}

func (s *Server) historicalKills(w http.ResponseWriter, r *http.Request) {
	f, ok := s.filter(w, r)
	if !ok {
		return
	}
	rows, err := s.historical.Kills(r.Context(), f)
	if err != nil {
		respondError(w, s.logger, http.StatusInternalServerError, "failed to read historical kills", err)
		return
	}
	respondJSON(w, s.logger, http.StatusOK, nonNil(rows))
}

func (s *Server) historicalPlayers(w http.ResponseWriter, r *http.Request) {
	f, ok := s.filter(w, r)
	if !ok {
		return
	}
	rows, err := s.historical.Players(r.Context(), f)
	if err != nil {
		respondError(w, s.logger, http.StatusInternalServerError, "failed to read historical players", err)
		return
	}
	respondJSON(w, s.logger, http.StatusOK, nonNil(rows))
}

// CacheSize is the body of GET /redis/cache-size.
type CacheSize struct {
	Size int64 `json:"size"`
}

func (s *Server) cacheSize(w http.ResponseWriter, r *http.Request) {
	n, err := s.live.Size(r.Context())
	if err != nil {
		respondError(w, s.logger, http.StatusInternalServerError, "failed to read cache size", err)
		return
	}
	respondJSON(w, s.logger, http.StatusOK, CacheSize{Size: n})
}

func (s *Server) clearCache(w http.ResponseWriter, r *http.Request) {
	if err := s.live.Clear(r.Context()); err != nil {
		respondError(w, s.logger, http.StatusInternalServerError, "failed to clear cache", err)
		return
	}
	s.logger.Printf("live cache cleared")
	w.WriteHeader(http.StatusNoContent)
}

// ingestKill archives a kill and then appends it to the live store. The two
// writes are not transactional: a failed archive leaves both stores
// untouched, but a failed live append after a successful archive leaves the
// kill archived only, and a retry archives it again.
func (s *Server) ingestKill(w http.ResponseWriter, r *http.Request) {
	var e storage.LiveKillEvent
	if !s.decode(w, r, &e) {
		return
	}
	if err := e.Validate(); err != nil {
		s.storeError(w, "invalid kill", err)
		return
	}
	if err := s.historical.InsertKills(r.Context(), []*storage.HistoricalKillEvent{storage.HistoricalKill(&e)}); err != nil {
		s.storeError(w, "failed to archive kill", err)
		return
	}
	if err := s.live.AppendKill(r.Context(), &e); err != nil {
		s.storeError(w, "failed to store kill", err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// ingestPlayer archives a snapshot and then stores it as the live snapshot.
// The live write overwrites, so only the archive can gain a duplicate on
// retry.
func (s *Server) ingestPlayer(w http.ResponseWriter, r *http.Request) {
	var e storage.LivePlayerEvent
	if !s.decode(w, r, &e) {
		return
	}
	if err := e.Validate(); err != nil {
		s.storeError(w, "invalid player event", err)
		return
	}
	if err := s.historical.InsertPlayers(r.Context(), []*storage.HistoricalPlayerEvent{storage.HistoricalPlayer(&e)}); err != nil {
		s.storeError(w, "failed to archive player event", err)
		return
	}
	if err := s.live.PutPlayer(r.Context(), &e); err != nil {
		s.storeError(w, "failed to store player event", err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// publishLog validates a push message and broadcasts it verbatim.
func (s *Server) publishLog(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		respondError(w, s.logger, http.StatusBadRequest, "failed to read body", err)
		return
	}

	var msg domain.PushMessage
	if err := json.Unmarshal(body, &msg); err != nil || msg.EventType == "" {
		respondError(w, s.logger, http.StatusBadRequest, "body must be {event_type, time}", nil)
		return
	}

	if !s.hub.Broadcast(body) {
		respondError(w, s.logger, http.StatusServiceUnavailable, "broadcast queue full", nil)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(v); err != nil {
		respondError(w, s.logger, http.StatusBadRequest, "invalid request body", nil)
		return false
	}
	return true
}

func (s *Server) storeError(w http.ResponseWriter, message string, err error) {
	if errors.Is(err, storage.ErrInvalidInput) {
		respondError(w, s.logger, http.StatusBadRequest, message, err)
		return
	}
	respondError(w, s.logger, http.StatusInternalServerError, message, err)
}

// nonNil keeps empty collections encoding as [] rather than null.
func nonNil[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}
