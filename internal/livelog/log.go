package livelog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"cs2-telemetry/internal/domain"
	"cs2-telemetry/internal/observability"
)

// ErrChannelDecode is returned for a push message that is not a JSON object
// carrying an event_type.
var ErrChannelDecode = errors.New("channel decode error")

// displayTime is the layout of LogEntry.Time.
const displayTime = "15:04:05"

// Log is a bounded, ordered buffer of LogEntry values fed one push message
// at a time. It is safe for concurrent use.
type Log struct {
	mu     sync.RWMutex
	buf    *ring
	paused bool

	loc    *time.Location
	newID  func() string
	logger *log.Logger
}

// Options configures a Log.
type Options struct {
	Capacity int            // Default: DefaultCapacity
	Location *time.Location // Default: time.Local
	Logger   *log.Logger
}

// New creates an empty, unpaused Log.
func New(opts Options) *Log {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Log{
		buf:    newRing(opts.Capacity),
		loc:    loc,
		newID:  uuid.NewString,
		logger: logger,
	}
}

// HandleMessage decodes one raw push message and appends it. Undecodable
// payloads are logged and reported as ErrChannelDecode; the caller keeps
// consuming.
func (l *Log) HandleMessage(data []byte) error {
	msg, err := DecodeMessage(data)
	if err != nil {
		l.logger.Printf("drop push message: %v", err)
		observability.RecordLogDecodeError()
		return err
	}
	l.Append(msg)
	return nil
}

// Append renders msg and appends it, evicting the oldest entry when full.
// While paused the message is dropped and ok is false.
func (l *Log) Append(msg domain.PushMessage) (entry domain.LogEntry, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.paused {
		observability.RecordLogDropped("paused")
		return domain.LogEntry{}, false
	}

	d := Describe(msg.EventType)
	entry = domain.LogEntry{
		ID:        l.newID(),
		Time:      l.formatTime(msg.Time),
		EventType: msg.EventType,
		Message:   d.Message,
		Color:     d.Color,
		Icon:      d.Icon,
	}
	l.buf.push(entry)
	observability.RecordLogAppended()
	return entry, true
}

// Entries returns a copy of the buffer, oldest first.
func (l *Log) Entries() []domain.LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.buf.snapshot()
}

// Len returns the number of buffered entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.buf.size
}

// Pause stops appending. Messages received while paused are not kept.
func (l *Log) Pause() {
	l.mu.Lock()
	l.paused = true
	l.mu.Unlock()
}

// Resume re-enables appending.
func (l *Log) Resume() {
	l.mu.Lock()
	l.paused = false
	l.mu.Unlock()
}

// Paused reports whether the log is paused.
func (l *Log) Paused() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.paused
}

// Clear empties the buffer.
func (l *Log) Clear() {
	l.mu.Lock()
	l.buf.reset()
	l.mu.Unlock()
}

// formatTime renders the producer's time string as HH:MM:SS in the log's
// time zone, or returns it unchanged when it cannot be parsed.
func (l *Log) formatTime(raw string) string {
	s := strings.TrimSpace(raw)
	if t, err := time.ParseInLocation(domain.PushTimeLayout, s, l.loc); err == nil {
		return t.Format(displayTime)
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(l.loc).Format(displayTime)
	}
	return raw
}

// DecodeMessage parses one push payload shaped {"event_type": ..., "time": ...}.
func DecodeMessage(data []byte) (domain.PushMessage, error) {
	var msg domain.PushMessage
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&msg); err != nil {
		return domain.PushMessage{}, fmt.Errorf("%w: %v", ErrChannelDecode, err)
	}
	if msg.EventType == "" {
		return domain.PushMessage{}, fmt.Errorf("%w: missing event_type", ErrChannelDecode)
	}
	return msg, nil
}
