package livelog

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// pushServer upgrades each connection and writes every string sent on msgs.
func pushServer(t *testing.T, msgs <-chan string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for m := range msgs {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
				return
			}
		}
	}))
}

func wsURL(s *httptest.Server) string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestChannel_DeliversInOrderAndSurvivesBadMessages(t *testing.T) {
	msgs := make(chan string, 4)
	server := pushServer(t, msgs)
	defer server.Close()
	defer close(msgs)

	l, _ := newTestLog(10)
	ch, err := Dial(context.Background(), wsURL(server), l, nil, quietLogger())
	require.NoError(t, err)
	defer ch.Close()

	msgs <- `{"event_type":"EventBombPlanted","time":"2024-01-01 10:00:00.000"}`
	msgs <- `{{{ garbage`
	msgs <- `{"event_type":"EventBombDefused","time":"2024-01-01 10:00:01.000"}`

	require.Eventually(t, func() bool { return l.Len() == 2 }, 2*time.Second, 10*time.Millisecond)

	entries := l.Entries()
	assert.Equal(t, EventBombPlanted, entries[0].EventType)
	assert.Equal(t, EventBombDefused, entries[1].EventType)
}

func TestChannel_DialFailure(t *testing.T) {
	l, _ := newTestLog(10)
	_, err := Dial(context.Background(), "ws://127.0.0.1:1/ws", l, nil, quietLogger())
	assert.Error(t, err)
}

func TestFeed_DisconnectStopsAppends(t *testing.T) {
	msgs := make(chan string, 4)
	server := pushServer(t, msgs)
	defer server.Close()
	defer close(msgs)

	l, _ := newTestLog(10)
	feed := NewFeed(FeedOptions{Endpoint: wsURL(server), Log: l, Logger: quietLogger()})

	require.NoError(t, feed.Connect(context.Background()))
	assert.True(t, feed.Connected())
	// second connect is a no-op
	require.NoError(t, feed.Connect(context.Background()))

	msgs <- `{"event_type":"HeartBeat","time":""}`
	require.Eventually(t, func() bool { return l.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, feed.Disconnect())
	assert.False(t, feed.Connected())

	msgs <- `{"event_type":"HeartBeat","time":""}`
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, l.Len())

	require.NoError(t, feed.Disconnect())
}

func TestChannel_IdlePeerAnsweringPingsStaysConnected(t *testing.T) {
	var opened atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		opened.Add(1)

		// never writes; reading answers pings with pongs
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	cfg := DefaultChannelConfig()
	cfg.PingInterval = 50 * time.Millisecond
	cfg.ReadTimeout = 300 * time.Millisecond
	cfg.ReconnectDelay = 10 * time.Millisecond

	l, _ := newTestLog(10)
	ch, err := Dial(context.Background(), wsURL(server), l, &cfg, quietLogger())
	require.NoError(t, err)

	time.Sleep(1500 * time.Millisecond)
	require.NoError(t, ch.Close())

	assert.Equal(t, int32(1), opened.Load())
}
