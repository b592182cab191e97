package registry

import (
	"sort"
	"sync"

	"github.com/sentra-labs/realtime/internal/wire"
	"go.uber.org/zap"
)

// Sender hands outbound frames to the transport.
type Sender interface {
	Send(v any) error
}

// Registry tracks which logical channels are currently subscribed,
// deduplicates by channel key and replays every tracked channel after a
// reconnect. Subscriptions live for the process lifetime; Reset on an
// explicit disconnect bounds the leak.
type Registry struct {
	logger    *zap.Logger
	sender    Sender
	validator *wire.ChannelValidator

	mu       sync.Mutex
	channels map[string]struct{}
	sessions map[string]struct{}
}

func NewRegistry(
	logger *zap.Logger,
	sender Sender,
) *Registry {
	return &Registry{
		logger:    logger,
		sender:    sender,
		validator: wire.NewChannelValidator(),
		channels:  make(map[string]struct{}),
		sessions:  make(map[string]struct{}),
	}
}

// SubscribeToUserChannels registers the fixed per-user set: the personal
// notification queue, the personal chat queue and the global broadcast
// topic. Idempotent.
func (r *Registry) SubscribeToUserChannels(userId string) {
	r.subscribe(wire.UserNotificationChannel(userId))
	r.subscribe(wire.UserChatChannel(userId))
	r.subscribe(wire.ChannelBroadcast)
}

// SubscribeToSession registers the session chat, status and typing
// channels. Calling it twice with the same id does not create a second
// underlying subscription.
func (r *Registry) SubscribeToSession(sessionId string) {
	r.mu.Lock()
	if _, ok := r.sessions[sessionId]; ok {
		r.mu.Unlock()

		return
	}

	r.sessions[sessionId] = struct{}{}
	r.mu.Unlock()

	r.subscribe(wire.SessionChatChannel(sessionId))
	r.subscribe(wire.SessionStatusChannel(sessionId))
	r.subscribe(wire.SessionTypingChannel(sessionId))
}

func (r *Registry) subscribe(channel string) {
	err := r.validator.Validate(channel)
	if err != nil {
		r.logger.Error("refusing to subscribe",
			zap.String("channel", channel),
			zap.Error(err))

		return
	}

	r.mu.Lock()
	if _, ok := r.channels[channel]; ok {
		r.mu.Unlock()

		return
	}

	r.channels[channel] = struct{}{}
	r.mu.Unlock()

	r.issue(channel)
}

// issue sends the subscribe frame. A failure keeps the channel tracked:
// it will be replayed on the next reconnect.
func (r *Registry) issue(channel string) {
	err := r.sender.Send(wire.NewSubscribeFrame(channel))
	if err != nil {
		r.logger.Warn("subscribe deferred",
			zap.String("channel", channel),
			zap.Error(err))

		return
	}

	r.logger.Debug("subscribed",
		zap.String("channel", channel))
}

// Replay re-issues every tracked channel exactly once. Wired to the
// transport's ready hook so it runs after each (re)connect before the
// connection accepts outbound traffic.
func (r *Registry) Replay() {
	r.mu.Lock()
	channels := make([]string, 0, len(r.channels))
	for channel := range r.channels {
		channels = append(channels, channel)
	}
	r.mu.Unlock()

	for _, channel := range channels {
		r.issue(channel)
	}
}

// Reset clears all tracked state so a subsequent connect starts clean.
// Called on explicit disconnect only, never on a drop.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.channels = make(map[string]struct{})
	r.sessions = make(map[string]struct{})
}

// TrackedChannels returns the tracked channel keys in sorted order.
func (r *Registry) TrackedChannels() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	channels := make([]string, 0, len(r.channels))
	for channel := range r.channels {
		channels = append(channels, channel)
	}

	sort.Strings(channels)

	return channels
}
