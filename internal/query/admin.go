package query

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Admin routes of the low-latency store.
const (
	pathCacheSize  = "/redis/cache-size"
	pathCacheClear = "/redis/clear"
)

// CacheSize is the body of the cache-size endpoint.
type CacheSize struct {
	Size int64 `json:"size"`
}

// CacheSize reads the number of records held by the low-latency store.
func (a *Adapter) CacheSize(ctx context.Context) (int64, error) {
	body, err := a.do(ctx, http.MethodGet, pathCacheSize)
	if err != nil {
		return 0, err
	}
	var cs CacheSize
	if err := json.Unmarshal(body, &cs); err != nil {
		return 0, fmt.Errorf("%w: %s: malformed body: %v", ErrSourceUnreachable, pathCacheSize, err)
	}
	return cs.Size, nil
}

// ClearCache empties the low-latency store and returns the size read
// afterwards.
func (a *Adapter) ClearCache(ctx context.Context) (int64, error) {
	if _, err := a.do(ctx, http.MethodDelete, pathCacheClear); err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}
	return a.CacheSize(ctx)
}
