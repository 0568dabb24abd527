// Package query translates a source selector and filter into requests
// against the backend query service and returns the raw decoded bodies.
package query

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"cs2-telemetry/internal/domain"
	"cs2-telemetry/internal/observability"
)

// Default configuration values.
const (
	DefaultTimeout     = 10 * time.Second
	DefaultMaxRetries  = 2
	DefaultRetryDelay  = 200 * time.Millisecond
	DefaultMaxDelay    = 2 * time.Second
	DefaultBackoffMult = 2.0

	maxErrorBody = 512
)

// Record collection kinds.
const (
	KindKills   = "kill-events"
	KindPlayers = "player-events"
)

// sourcePrefix maps a source to its route prefix on the backend.
var sourcePrefix = map[domain.Source]string{
	domain.SourceLive:       "/redis",
	domain.SourceHistorical: "/db",
}

// RawBatch is the undecoded result of one Fetch. Each element is one record
// in the source's native field convention.
type RawBatch struct {
	Source  domain.Source
	Kills   []json.RawMessage
	Players []json.RawMessage
}

// Fetcher retrieves raw records for a source and filter.
type Fetcher interface {
	Fetch(ctx context.Context, source domain.Source, filter domain.Filter) (*RawBatch, error)
}

// Adapter implements Fetcher over the backend HTTP query service.
type Adapter struct {
	baseURL     string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

var _ Fetcher = (*Adapter)(nil)

// Option configures Adapter.
type Option func(*Adapter)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		a.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts for transport failures.
func WithMaxRetries(n int) Option {
	return func(a *Adapter) {
		a.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) Option {
	return func(a *Adapter) {
		a.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) Option {
	return func(a *Adapter) {
		a.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(a *Adapter) {
		a.client = client
	}
}

// NewAdapter creates an adapter for the backend at baseURL.
func NewAdapter(baseURL string, opts ...Option) *Adapter {
	a := &Adapter{
		baseURL:     strings.TrimRight(baseURL, "/"),
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Fetch issues the kill-events and player-events requests for source
// concurrently. Either failing fails the whole fetch.
func (a *Adapter) Fetch(ctx context.Context, source domain.Source, filter domain.Filter) (*RawBatch, error) {
	prefix, ok := sourcePrefix[source]
	if !ok {
		return nil, fmt.Errorf("unknown source %q", source)
	}
	query := filter.Values().Encode()

	batch := &RawBatch{Source: source}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		records, err := a.fetchKind(gctx, source, prefix, KindKills, query)
		batch.Kills = records
		return err
	})
	g.Go(func() error {
		records, err := a.fetchKind(gctx, source, prefix, KindPlayers, query)
		batch.Players = records
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return batch, nil
}

func (a *Adapter) fetchKind(ctx context.Context, source domain.Source, prefix, kind, query string) ([]json.RawMessage, error) {
	path := prefix + "/" + kind
	if query != "" {
		path += "?" + query
	}

	start := time.Now()
	body, err := a.do(ctx, http.MethodGet, path)
	var records []json.RawMessage
	if err == nil {
		records, err = decodeCollection(path, body)
	}
	observability.RecordQuery(source.String(), kind, time.Since(start), len(records), errorClass(err))
	return records, err
}

// decodeCollection parses a JSON array of records. An empty or null body is
// an empty collection.
func decodeCollection(path string, body []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []json.RawMessage{}, nil
	}
	var records []json.RawMessage
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: malformed body: %v", ErrSourceUnreachable, path, err)
	}
	if records == nil {
		records = []json.RawMessage{}
	}
	return records, nil
}

// do performs one request with retries and exponential backoff. Transport
// failures, 429 and 503 are retried; any other non-2xx status is returned
// immediately as a *StatusError.
func (a *Adapter) do(ctx context.Context, method, path string) ([]byte, error) {
	delay := a.retryDelay
	var lastErr error

	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnreachable, path, ctx.Err())
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * a.backoffMult)
			if delay > a.maxDelay {
				delay = a.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := a.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: %s: %v", ErrSourceUnreachable, path, err)
			if ctx.Err() != nil {
				return nil, lastErr
			}
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("%w: %s: read body: %v", ErrSourceUnreachable, path, err)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return body, nil
		}

		statusErr := &StatusError{Path: path, StatusCode: resp.StatusCode, Body: truncate(body)}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
			lastErr = statusErr
			continue
		}
		return nil, statusErr
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func truncate(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody]
	}
	return s
}
