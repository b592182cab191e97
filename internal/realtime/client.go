package realtime

import (
	"context"

	"github.com/sentra-labs/realtime/internal/chatlog"
	"github.com/sentra-labs/realtime/internal/identity"
	"github.com/sentra-labs/realtime/internal/notify"
	"github.com/sentra-labs/realtime/internal/publish"
	"github.com/sentra-labs/realtime/internal/registry"
	"github.com/sentra-labs/realtime/internal/router"
	"github.com/sentra-labs/realtime/internal/transport"
	"go.uber.org/zap"
)

// Callbacks are the UI-facing event hooks. All optional; handlers must be
// non-blocking since they run on the transport's read path.
type Callbacks struct {
	OnConnectionChange func(connected bool)
	OnChatMessage      func(message chatlog.ChatMessage)
	OnNotification     func(notification notify.Notification)
	OnTypingIndicator  func(signal chatlog.TypingSignal)
}

// Client is the delivery layer facade. The hosting application constructs
// exactly one per user session and passes it by reference to anything
// that needs it; lifecycle is Connect/Disconnect, never ambient state.
type Client struct {
	logger    *zap.Logger
	identity  identity.Provider
	conn      *transport.Conn
	registry  *registry.Registry
	router    *router.Router
	publisher *publish.Publisher
	store     *notify.Store
	log       *chatlog.Log
}

func NewClient(
	logger *zap.Logger,
	settings transport.Settings,
	provider identity.Provider,
	store *notify.Store,
	dial transport.DialFunc,
	callbacks Callbacks,
) *Client {
	log := chatlog.NewLog()
	conn := transport.NewConn(logger, settings, provider, dial)
	reg := registry.NewRegistry(logger, conn)
	rt := router.NewRouter(
		logger,
		store,
		log,
		callbacks.OnChatMessage,
		callbacks.OnNotification,
		callbacks.OnTypingIndicator,
	)
	pub := publish.NewPublisher(logger, conn, provider)

	conn.OnFrame(rt.HandleFrame)
	conn.OnStateChange(func(connected bool) {
		if callbacks.OnConnectionChange != nil {
			callbacks.OnConnectionChange(connected)
		}
	})
	// Replay first so a reconnect restores every tracked channel; the
	// user-channel call is a no-op on anything already tracked.
	conn.OnReady(func() {
		reg.Replay()
		reg.SubscribeToUserChannels(provider.UserId())
	})

	return &Client{
		logger:    logger,
		identity:  provider,
		conn:      conn,
		registry:  reg,
		router:    rt,
		publisher: pub,
		store:     store,
		log:       log,
	}
}

// Connect opens the connection and subscribes the per-user channels.
// Returns an AuthMissing error without dialing when no token is
// available. Calling it while connecting or connected is a no-op.
func (c *Client) Connect(ctx context.Context) error {
	return c.conn.Connect(ctx)
}

// Disconnect tears the connection down from any state, cancels pending
// reconnects and clears tracked subscriptions so the next Connect starts
// clean.
func (c *Client) Disconnect() {
	c.conn.Disconnect()
	c.registry.Reset()
}

func (c *Client) Connected() bool {
	return c.conn.State() == transport.StateConnected
}

// SubscribeToSession registers the session's chat, status and typing
// channels. Idempotent per session id.
func (c *Client) SubscribeToSession(sessionId string) {
	c.registry.SubscribeToSession(sessionId)
}

func (c *Client) SendChatMessage(sessionId string, content string) bool {
	return c.publisher.SendChatMessage(sessionId, content)
}

func (c *Client) SendTypingIndicator(sessionId string, isTyping bool) bool {
	return c.publisher.SendTypingIndicator(sessionId, isTyping)
}

// Messages returns the in-memory chat history for a session.
func (c *Client) Messages(sessionId string) []chatlog.ChatMessage {
	return c.log.Messages(sessionId)
}

// Notifications exposes the notification store for read/mutate calls
// from the UI layer.
func (c *Client) Notifications() *notify.Store {
	return c.store
}
