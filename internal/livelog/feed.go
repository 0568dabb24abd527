package livelog

import (
	"context"
	"log"
	"sync"
)

// Feed toggles a push Channel feeding a Log. Each Connect opens a fresh
// Channel; messages sent while disconnected are never replayed.
type Feed struct {
	endpoint string
	target   *Log
	config   *ChannelConfig
	logger   *log.Logger

	mu sync.Mutex
	ch *Channel
}

// FeedOptions configures a Feed.
type FeedOptions struct {
	Endpoint string // ws:// or wss:// URL of the push interface
	Log      *Log
	Channel  *ChannelConfig
	Logger   *log.Logger
}

// NewFeed creates a disconnected Feed.
func NewFeed(opts FeedOptions) *Feed {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Feed{
		endpoint: opts.Endpoint,
		target:   opts.Log,
		config:   opts.Channel,
		logger:   logger,
	}
}

// Connect opens a channel if none is open.
func (f *Feed) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ch != nil {
		return nil
	}

	ch, err := Dial(ctx, f.endpoint, f.target, f.config, f.logger)
	if err != nil {
		return err
	}
	f.ch = ch
	f.logger.Printf("push channel connected to %s", f.endpoint)
	return nil
}

// Disconnect closes the open channel, if any. No entries are appended
// after it returns.
func (f *Feed) Disconnect() error {
	f.mu.Lock()
	ch := f.ch
	f.ch = nil
	f.mu.Unlock()

	if ch == nil {
		return nil
	}
	f.logger.Printf("push channel disconnected from %s", f.endpoint)
	return ch.Close()
}

// Connected reports whether a channel is open.
func (f *Feed) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ch != nil
}

// Log returns the log the feed appends to.
func (f *Feed) Log() *Log {
	return f.target
}
