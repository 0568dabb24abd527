package livelog

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cs2-telemetry/internal/domain"
)

func newTestLog(capacity int) (*Log, *bytes.Buffer) {
	var buf bytes.Buffer
	l := New(Options{Capacity: capacity, Location: time.UTC, Logger: log.New(&buf, "", 0)})
	return l, &buf
}

func TestDescribe_Taxonomy(t *testing.T) {
	assert.Len(t, taxonomy, 17)

	d := Describe(EventBombPlanted)
	assert.Equal(t, "Bomb planted", d.Message)
	assert.Equal(t, "text-orange-500", d.Color)

	assert.Equal(t, "Player fired weapon", Describe(EventWeaponUse).Message)
	assert.Equal(t, "Heartbeat", Describe(EventHeartBeat).Message)

	unknown := Describe("EventSomethingNew")
	assert.Equal(t, "EventSomethingNew", unknown.Message)
	assert.Equal(t, "text-foreground", unknown.Color)
}

func TestLog_FIFOEviction(t *testing.T) {
	l, _ := newTestLog(DefaultCapacity)

	for i := 0; i < 51; i++ {
		_, ok := l.Append(domain.PushMessage{EventType: fmt.Sprintf("e%d", i), Time: "2024-01-01 10:00:00.000"})
		require.True(t, ok)
	}

	entries := l.Entries()
	require.Len(t, entries, 50)
	assert.Equal(t, "e1", entries[0].EventType)
	assert.Equal(t, "e50", entries[49].EventType)
	for _, e := range entries {
		assert.NotEqual(t, "e0", e.EventType)
	}
}

func TestLog_EntriesAreCopies(t *testing.T) {
	l, _ := newTestLog(3)
	l.Append(domain.PushMessage{EventType: EventHeartBeat})

	snap := l.Entries()
	snap[0].Message = "changed"
	assert.Equal(t, "Heartbeat", l.Entries()[0].Message)
}

func TestLog_PauseDropsMessages(t *testing.T) {
	l, _ := newTestLog(10)
	l.Append(domain.PushMessage{EventType: EventBombPlanted})

	l.Pause()
	assert.True(t, l.Paused())
	_, ok := l.Append(domain.PushMessage{EventType: EventBombDefused})
	assert.False(t, ok)
	require.NoError(t, l.HandleMessage([]byte(`{"event_type":"EventBombExploded","time":""}`)))

	l.Resume()
	l.Append(domain.PushMessage{EventType: EventHeartBeat})

	entries := l.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, EventBombPlanted, entries[0].EventType)
	assert.Equal(t, EventHeartBeat, entries[1].EventType)
}

func TestLog_Clear(t *testing.T) {
	l, _ := newTestLog(2)
	l.Append(domain.PushMessage{EventType: "a"})
	l.Append(domain.PushMessage{EventType: "b"})
	l.Append(domain.PushMessage{EventType: "c"})
	l.Clear()
	assert.Zero(t, l.Len())

	l.Append(domain.PushMessage{EventType: "d"})
	assert.Equal(t, "d", l.Entries()[0].EventType)
}

func TestLog_HandleMessageDecodeError(t *testing.T) {
	l, logs := newTestLog(10)

	for _, payload := range []string{`not json`, `[1,2]`, `{"time":"x"}`, `{"event_type":5}`} {
		err := l.HandleMessage([]byte(payload))
		assert.True(t, errors.Is(err, ErrChannelDecode), payload)
	}
	assert.Zero(t, l.Len())
	assert.Contains(t, logs.String(), "drop push message")

	require.NoError(t, l.HandleMessage([]byte(`{"event_type":"PlayerWeaponReloadStarted","time":"2024-05-01 13:45:10.250"}`)))
	e := l.Entries()[0]
	assert.Equal(t, "13:45:10", e.Time)
	assert.Equal(t, "Reload started", e.Message)
	assert.NotEmpty(t, e.ID)
}

func TestLog_UniqueIDs(t *testing.T) {
	l, _ := newTestLog(10)
	a, _ := l.Append(domain.PushMessage{EventType: "x"})
	b, _ := l.Append(domain.PushMessage{EventType: "x"})
	assert.NotEqual(t, a.ID, b.ID)
}

func TestFormatTime_Fallback(t *testing.T) {
	l, _ := newTestLog(1)
	assert.Equal(t, "not a time", l.formatTime("not a time"))
	assert.Equal(t, "08:30:00", l.formatTime("2024-05-01T08:30:00Z"))
}
