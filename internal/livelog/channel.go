package livelog

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// MessageHandler consumes raw push payloads. A returned error is treated as
// recoverable: the channel keeps reading.
type MessageHandler interface {
	HandleMessage(data []byte) error
}

// ChannelConfig configures push channel behavior.
type ChannelConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing control frames.
	WriteTimeout time.Duration
}

// DefaultChannelConfig returns default push channel configuration.
func DefaultChannelConfig() ChannelConfig {
	return ChannelConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       90 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// Channel is one websocket connection to the push interface. Every message
// is handed to the handler in arrival order. A Channel is single use: once
// closed it cannot be reopened, and a new Channel starts with no backlog.
type Channel struct {
	endpoint string
	config   ChannelConfig
	handler  MessageHandler
	logger   *log.Logger

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	done chan struct{}
	wg   sync.WaitGroup
}

// Dial connects to endpoint and starts delivering messages to handler.
func Dial(ctx context.Context, endpoint string, handler MessageHandler, config *ChannelConfig, logger *log.Logger) (*Channel, error) {
	cfg := DefaultChannelConfig()
	if config != nil {
		cfg = *config
	}
	if logger == nil {
		logger = log.Default()
	}

	c := &Channel{
		endpoint: endpoint,
		config:   cfg,
		handler:  handler,
		logger:   logger,
		done:     make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(2)
	go c.readLoop()
	go c.pingLoop()

	return c, nil
}

// connect establishes the websocket connection.
func (c *Channel) connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	// Pongs count as traffic so an idle but healthy peer is not dropped.
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	})

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
	return nil
}

// Close releases the connection and waits for the loops to exit.
func (c *Channel) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(c.config.WriteTimeout))
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	c.wg.Wait()
	return nil
}

// readLoop reads messages and reconnects with exponential backoff when the
// connection drops.
func (c *Channel) readLoop() {
	defer c.wg.Done()

	delay := c.config.ReconnectDelay

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			if !c.reconnect(delay) {
				delay = nextDelay(delay, c.config.MaxReconnectDelay)
			}
			continue
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}
			c.logger.Printf("push channel read: %v", err)

			c.connMu.Lock()
			if c.conn == conn {
				c.conn.Close()
				c.conn = nil
			}
			c.connMu.Unlock()
			continue
		}

		delay = c.config.ReconnectDelay

		// Handler errors are per-message; the connection stays open.
		_ = c.handler.HandleMessage(message)
	}
}

// reconnect waits delay then dials again. Returns false if the dial failed.
func (c *Channel) reconnect(delay time.Duration) bool {
	select {
	case <-c.done:
		return true
	case <-time.After(delay):
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.connect(ctx); err != nil {
		c.logger.Printf("push channel reconnect: %v", err)
		return false
	}
	if c.closed.Load() {
		// Close ran while dialing.
		c.connMu.Lock()
		if c.conn != nil {
			c.conn.Close()
			c.conn = nil
		}
		c.connMu.Unlock()
		return true
	}
	c.logger.Printf("push channel reconnected to %s", c.endpoint)
	return true
}

// pingLoop sends periodic ping frames to keep the connection alive.
func (c *Channel) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				// A failed ping surfaces as a read error.
				_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.config.WriteTimeout))
			}
			c.connMu.Unlock()
		}
	}
}

func nextDelay(d, limit time.Duration) time.Duration {
	d *= 2
	if d > limit {
		return limit
	}
	return d
}
