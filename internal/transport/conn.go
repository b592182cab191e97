package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/sentra-labs/realtime/internal/identity"
	"github.com/sentra-labs/realtime/internal/ierr"
	"github.com/sentra-labs/realtime/internal/wire"
	"go.uber.org/zap"
)

type Settings struct {
	URL                  string
	HeartbeatInterval    time.Duration
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int
}

// Conn owns the single physical socket of the client. At most one live
// connection exists per Conn; a Connect call while connecting or connected
// collapses onto the in-flight attempt.
type Conn struct {
	logger   *zap.Logger
	settings Settings
	dial     DialFunc
	identity identity.Provider
	clientId string

	mu         sync.Mutex
	writeMu    sync.Mutex
	state      State
	stream     ObjectStream
	closed     bool
	generation int
	attempts   int
	retryTimer *time.Timer

	onFrame func(raw json.RawMessage)
	onState func(connected bool)
	onReady func()
}

func NewConn(
	logger *zap.Logger,
	settings Settings,
	provider identity.Provider,
	dial DialFunc,
) *Conn {
	if dial == nil {
		dial = Dial
	}
	if settings.HeartbeatInterval <= 0 {
		settings.HeartbeatInterval = 25 * time.Second
	}
	if settings.ReconnectDelay <= 0 {
		settings.ReconnectDelay = 3 * time.Second
	}
	if settings.MaxReconnectAttempts <= 0 {
		settings.MaxReconnectAttempts = 10
	}

	return &Conn{
		logger:   logger,
		settings: settings,
		dial:     dial,
		identity: provider,
		clientId: gonanoid.Must(),
	}
}

// OnFrame registers the inbound frame callback. Must be set before Connect.
func (c *Conn) OnFrame(fn func(raw json.RawMessage)) {
	c.onFrame = fn
}

// OnStateChange registers the connection-changed callback. Must be set
// before Connect.
func (c *Conn) OnStateChange(fn func(connected bool)) {
	c.onState = fn
}

// OnReady runs after every successful (re)connect, before the connection
// is considered ready for outbound traffic. Subscription replay hooks in
// here. Must be set before Connect.
func (c *Conn) OnReady(fn func()) {
	c.onReady = fn
}

func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Connect opens the upgraded HTTP connection. It fails fast with
// AuthMissing when no token is available, without attempting a dial.
func (c *Conn) Connect(ctx context.Context) error {
	if c.identity.Token() == "" {
		return ierr.New(ierr.ErrorCodeAuthMissing, errors.New("auth token is not available"))
	}

	c.mu.Lock()
	if c.state == StateConnecting || c.state == StateConnected {
		c.mu.Unlock()

		return nil
	}

	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}

	c.closed = false
	c.attempts = 0
	c.state = StateConnecting
	c.mu.Unlock()

	return c.establish(ctx)
}

func (c *Conn) establish(ctx context.Context) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.identity.Token())
	header.Set("X-User-Id", c.identity.UserId())
	header.Set("X-Client-Id", c.clientId)

	stream, err := c.dial(ctx, c.settings.URL, header)
	if err != nil {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()

			return ierr.New(ierr.ErrorCodeTransportError, errors.New("disconnected during connect"))
		}

		c.state = StateErrored
		c.scheduleRetryLocked()
		c.mu.Unlock()

		c.logger.Warn("handshake failed", zap.Error(err))
		c.notifyState(false)

		return ierr.New(ierr.ErrorCodeTransportError, err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		stream.Close()

		return ierr.New(ierr.ErrorCodeTransportError, errors.New("disconnected during connect"))
	}

	c.stream = stream
	c.state = StateConnected
	c.attempts = 0
	c.generation++
	generation := c.generation
	c.mu.Unlock()

	go c.readLoop(stream, generation)
	go c.heartbeatLoop(generation)

	c.logger.Info("connection established",
		zap.String("url", c.settings.URL))

	if c.onReady != nil {
		c.onReady()
	}

	c.notifyState(true)

	return nil
}

// Disconnect tears down the socket unconditionally, cancels any pending
// reconnect timer and fires the connection-changed callback. Safe to call
// from any state.
func (c *Conn) Disconnect() {
	c.mu.Lock()
	if c.closed && c.state == StateDisconnected {
		c.mu.Unlock()

		return
	}

	c.closed = true

	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}

	if c.stream != nil {
		c.stream.Close()
		c.stream = nil
	}

	c.state = StateDisconnected
	c.attempts = 0
	c.mu.Unlock()

	c.logger.Info("connection closed")
	c.notifyState(false)
}

// Send hands a message to the transport. It fails fast with
// PublishRejected unless the connection is established.
func (c *Conn) Send(v any) error {
	c.mu.Lock()
	if c.state != StateConnected || c.stream == nil {
		c.mu.Unlock()

		return ierr.New(ierr.ErrorCodePublishRejected, errors.New("not connected"))
	}

	stream := c.stream
	c.mu.Unlock()

	c.writeMu.Lock()
	err := stream.WriteObject(v)
	c.writeMu.Unlock()

	if err != nil {
		return ierr.New(ierr.ErrorCodeTransportError, err)
	}

	return nil
}

func (c *Conn) readLoop(stream ObjectStream, generation int) {
	for {
		var raw json.RawMessage

		err := stream.ReadObject(&raw)
		if err != nil {
			c.handleDrop(generation, err)

			return
		}

		if c.onFrame != nil {
			c.onFrame(raw)
		}
	}
}

// heartbeatLoop exchanges periodic heartbeats with the server so silent
// drops are detected faster than TCP-level timeouts.
func (c *Conn) heartbeatLoop(generation int) {
	ticker := time.NewTicker(c.settings.HeartbeatInterval)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		stale := c.closed || c.generation != generation || c.state != StateConnected
		c.mu.Unlock()

		if stale {
			return
		}

		err := c.Send(wire.NewHeartbeatFrame())
		if err != nil {
			c.handleDrop(generation, err)

			return
		}
	}
}

func (c *Conn) handleDrop(generation int, err error) {
	c.mu.Lock()
	if c.closed || c.generation != generation || c.state != StateConnected {
		c.mu.Unlock()

		return
	}

	c.state = StateErrored

	if c.stream != nil {
		c.stream.Close()
		c.stream = nil
	}

	c.scheduleRetryLocked()
	c.mu.Unlock()

	c.logger.Warn("connection dropped", zap.Error(err))
	c.notifyState(false)
}

// scheduleRetryLocked arms the fixed-delay reconnect timer.
// IMPORTANT: It must be called only when the lock is already held.
func (c *Conn) scheduleRetryLocked() {
	if c.attempts >= c.settings.MaxReconnectAttempts {
		c.logger.Error("giving up on reconnection",
			zap.Int("attempts", c.attempts))

		return
	}

	c.attempts++
	c.retryTimer = time.AfterFunc(c.settings.ReconnectDelay, c.retry)
}

func (c *Conn) retry() {
	c.mu.Lock()
	if c.closed || c.state == StateConnected || c.state == StateConnecting {
		c.mu.Unlock()

		return
	}

	c.state = StateConnecting
	attempt := c.attempts
	c.mu.Unlock()

	c.logger.Info("attempting reconnection",
		zap.Int("attempt", attempt))

	c.establish(context.Background())
}

func (c *Conn) notifyState(connected bool) {
	if c.onState != nil {
		c.onState(connected)
	}
}
