package registry

import (
	"errors"
	"sync"
	"testing"

	"github.com/sentra-labs/realtime/internal/wire"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type recordingSender struct {
	mu     sync.Mutex
	frames []wire.Frame
	err    error
}

func (s *recordingSender) Send(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}

	s.frames = append(s.frames, v.(wire.Frame))

	return nil
}

func (s *recordingSender) channels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	channels := make([]string, 0, len(s.frames))
	for _, frame := range s.frames {
		channels = append(channels, frame.Params.(wire.SubscribeParams).Channel)
	}

	return channels
}

func (s *recordingSender) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frames = nil
}

func newTestRegistry(sender Sender) *Registry {
	logger, _ := zap.NewDevelopment()

	return NewRegistry(logger, sender)
}

func TestRegistry_SubscribeToUserChannels(t *testing.T) {
	sender := &recordingSender{}
	registry := newTestRegistry(sender)

	registry.SubscribeToUserChannels("u1")

	assert.ElementsMatch(t, []string{
		"user:u1:notifications",
		"user:u1:chat",
		"broadcast",
	}, sender.channels())

	t.Run("idempotent", func(t *testing.T) {
		registry.SubscribeToUserChannels("u1")

		assert.Len(t, sender.channels(), 3)
	})
}

func TestRegistry_SubscribeToSession(t *testing.T) {
	sender := &recordingSender{}
	registry := newTestRegistry(sender)

	registry.SubscribeToSession("42")
	registry.SubscribeToSession("42")

	assert.ElementsMatch(t, []string{
		"session:42:chat",
		"session:42:status",
		"session:42:typing",
	}, sender.channels())

	assert.Equal(t, []string{
		"session:42:chat",
		"session:42:status",
		"session:42:typing",
	}, registry.TrackedChannels())
}

func TestRegistry_Replay(t *testing.T) {
	sender := &recordingSender{}
	registry := newTestRegistry(sender)

	registry.SubscribeToUserChannels("u1")
	registry.SubscribeToSession("42")
	registry.SubscribeToSession("43")

	// Simulate a reconnect: every tracked channel must be re-issued
	// exactly once, no duplicates, no omissions.
	sender.reset()
	registry.Replay()

	assert.ElementsMatch(t, registry.TrackedChannels(), sender.channels())
	assert.Len(t, sender.channels(), 9)
}

func TestRegistry_SubscribeWhileDisconnected(t *testing.T) {
	sender := &recordingSender{err: errors.New("not connected")}
	registry := newTestRegistry(sender)

	// The send fails but the channel stays tracked for replay.
	registry.SubscribeToSession("42")
	assert.Len(t, registry.TrackedChannels(), 3)

	sender.mu.Lock()
	sender.err = nil
	sender.mu.Unlock()

	registry.Replay()
	assert.Len(t, sender.channels(), 3)
}

func TestRegistry_Reset(t *testing.T) {
	sender := &recordingSender{}
	registry := newTestRegistry(sender)

	registry.SubscribeToUserChannels("u1")
	registry.SubscribeToSession("42")

	registry.Reset()

	assert.Empty(t, registry.TrackedChannels())

	// A session subscribed before Reset is subscribable again.
	sender.reset()
	registry.SubscribeToSession("42")
	assert.Len(t, sender.channels(), 3)
}
