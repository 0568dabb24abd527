package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"cs2-telemetry/internal/domain"
	"cs2-telemetry/internal/observability"
	"cs2-telemetry/internal/storage"
)

const scanCount = 500

// LiveStore implements storage.LiveStore with RedisJSON documents. A
// snapshot key holds one object; a kills key holds an array of kills.
type LiveStore struct {
	client *Client
}

// NewLiveStore creates a new LiveStore.
func NewLiveStore(client *Client) *LiveStore {
	return &LiveStore{client: client}
}

// Compile-time interface check.
var _ storage.LiveStore = (*LiveStore)(nil)

// PutPlayer replaces the snapshot document for its key.
func (s *LiveStore) PutPlayer(ctx context.Context, e *storage.LivePlayerEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}
	key := storage.LiveKey(e.MatchID, e.Round, e.SteamID, storage.LiveKindEvents)

	start := time.Now()
	err := s.client.JSONSet(ctx, key, "$", e).Err()
	observability.RecordDBQuery("redis", "put_player", time.Since(start).Seconds(), err)
	if err != nil {
		return fmt.Errorf("set player event %s: %w", key, err)
	}
	return nil
}

// AppendKill appends to the kills array of its key, creating it if needed.
func (s *LiveStore) AppendKill(ctx context.Context, e *storage.LiveKillEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}
	key := storage.LiveKey(e.MatchID, e.Round, e.SteamID, storage.LiveKindKills)

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal kill event: %w", err)
	}

	start := time.Now()
	pipe := s.client.TxPipeline()
	// NX replies nil when the array already exists.
	pipe.JSONSetMode(ctx, key, "$", "[]", "NX")
	appended := pipe.JSONArrAppend(ctx, key, "$", string(data))
	_, _ = pipe.Exec(ctx)
	err = appended.Err()
	observability.RecordDBQuery("redis", "append_kill", time.Since(start).Seconds(), err)
	if err != nil {
		return fmt.Errorf("append kill event %s: %w", key, err)
	}
	return nil
}

// Kills returns every kill matching f, ordered by key then arrival.
func (s *LiveStore) Kills(ctx context.Context, f domain.Filter) ([]*storage.LiveKillEvent, error) {
	start := time.Now()
	docs, err := s.load(ctx, pattern(f, storage.LiveKindKills))
	observability.RecordDBQuery("redis", "get_kills", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, err
	}

	result := make([]*storage.LiveKillEvent, 0)
	for _, doc := range docs {
		// "$" wraps the root array in another array.
		var wrapped [][]*storage.LiveKillEvent
		if err := json.Unmarshal([]byte(doc.value), &wrapped); err != nil {
			return nil, fmt.Errorf("decode kills %s: %w", doc.key, err)
		}
		for _, arr := range wrapped {
			for _, e := range arr {
				if e != nil && storage.MatchLiveKill(f, e) {
					result = append(result, e)
				}
			}
		}
	}
	return result, nil
}

// Players returns every snapshot matching the match and round of f.
func (s *LiveStore) Players(ctx context.Context, f domain.Filter) ([]*storage.LivePlayerEvent, error) {
	start := time.Now()
	docs, err := s.load(ctx, pattern(f, storage.LiveKindEvents))
	observability.RecordDBQuery("redis", "get_players", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, err
	}

	result := make([]*storage.LivePlayerEvent, 0, len(docs))
	for _, doc := range docs {
		var wrapped []*storage.LivePlayerEvent
		if err := json.Unmarshal([]byte(doc.value), &wrapped); err != nil {
			return nil, fmt.Errorf("decode player event %s: %w", doc.key, err)
		}
		for _, e := range wrapped {
			if e != nil && storage.MatchLivePlayer(f, e) {
				result = append(result, e)
			}
		}
	}
	return result, nil
}

// Size returns the number of keys in the selected database.
func (s *LiveStore) Size(ctx context.Context) (int64, error) {
	n, err := s.client.DBSize(ctx).Result()
	if err != nil {
		return 0, fmt.Errorf("dbsize: %w", err)
	}
	return n, nil
}

// Clear flushes the selected database.
func (s *LiveStore) Clear(ctx context.Context) error {
	start := time.Now()
	err := s.client.FlushDB(ctx).Err()
	observability.RecordDBQuery("redis", "flush", time.Since(start).Seconds(), err)
	if err != nil {
		return fmt.Errorf("flushdb: %w", err)
	}
	return nil
}

type document struct {
	key   string
	value string
}

// load scans keys matching match and reads each document at "$" in one
// pipeline. Keys that vanish between SCAN and JSON.GET are skipped.
func (s *LiveStore) load(ctx context.Context, match string) ([]document, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, match, scanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", match, err)
	}
	if len(keys) == 0 {
		return nil, nil
	}
	sort.Strings(keys)

	pipe := s.client.Pipeline()
	cmds := make([]*goredis.JSONCmd, len(keys))
	for i, key := range keys {
		cmds[i] = pipe.JSONGet(ctx, key, "$")
	}
	if _, err := pipe.Exec(ctx); err != nil && err != goredis.Nil {
		return nil, fmt.Errorf("get documents: %w", err)
	}

	docs := make([]document, 0, len(keys))
	for i, cmd := range cmds {
		val, err := cmd.Result()
		if err == goredis.Nil || val == "" {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", keys[i], err)
		}
		docs = append(docs, document{key: keys[i], value: val})
	}
	return docs, nil
}

// pattern narrows the SCAN by match and round when f sets them.
func pattern(f domain.Filter, kind string) string {
	match := "*"
	if f.MatchID != "" {
		match = escapeGlob(f.MatchID)
	}
	round := "*"
	if f.Round != nil {
		round = strconv.Itoa(*f.Round)
	}
	return "matches:" + match + ":round:" + round + ":player:*:" + kind
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}
