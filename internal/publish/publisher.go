package publish

import (
	"time"

	"github.com/sentra-labs/realtime/internal/identity"
	"github.com/sentra-labs/realtime/internal/transport"
	"github.com/sentra-labs/realtime/internal/wire"
	"go.uber.org/zap"
)

// Conn is the slice of the transport the publisher needs.
type Conn interface {
	State() transport.State
	Send(v any) error
}

// Publisher formats and sends chat messages and typing events to the
// fixed application destinations, stamping sender identity and role so
// the receiving end can attribute them without a server round trip.
// Delivery is at-most-once and fire-and-forget: no ack, no queueing, no
// retry.
type Publisher struct {
	logger   *zap.Logger
	conn     Conn
	identity identity.Provider
}

func NewPublisher(
	logger *zap.Logger,
	conn Conn,
	provider identity.Provider,
) *Publisher {
	return &Publisher{
		logger:   logger,
		conn:     conn,
		identity: provider,
	}
}

type chatEnvelope struct {
	SessionId  string        `json:"sessionId"`
	Content    string        `json:"content"`
	Sender     identity.Role `json:"sender"`
	SenderName string        `json:"senderName"`
	UserId     string        `json:"userId"`
	Timestamp  time.Time     `json:"timestamp"`
}

type typingEnvelope struct {
	SessionId  string        `json:"sessionId"`
	IsTyping   bool          `json:"isTyping"`
	Sender     identity.Role `json:"sender"`
	SenderName string        `json:"senderName"`
	UserId     string        `json:"userId"`
	Timestamp  time.Time     `json:"timestamp"`
}

// SendChatMessage returns false immediately when the connection is not
// established; messages composed while offline are simply not sent and
// the caller surfaces that to the user.
func (p *Publisher) SendChatMessage(sessionId string, content string) bool {
	if p.conn.State() != transport.StateConnected {
		return false
	}

	frame := wire.NewPublishFrame(wire.DestinationChatSend, chatEnvelope{
		SessionId:  sessionId,
		Content:    content,
		Sender:     p.identity.Role(),
		SenderName: p.identity.DisplayName(),
		UserId:     p.identity.UserId(),
		Timestamp:  time.Now(),
	})

	err := p.conn.Send(frame)
	if err != nil {
		// Lost the check-then-send race; best-effort by design.
		p.logger.Warn("chat message not sent",
			zap.String("sessionId", sessionId),
			zap.Error(err))

		return false
	}

	return true
}

func (p *Publisher) SendTypingIndicator(sessionId string, isTyping bool) bool {
	if p.conn.State() != transport.StateConnected {
		return false
	}

	frame := wire.NewPublishFrame(wire.DestinationChatTyping, typingEnvelope{
		SessionId:  sessionId,
		IsTyping:   isTyping,
		Sender:     p.identity.Role(),
		SenderName: p.identity.DisplayName(),
		UserId:     p.identity.UserId(),
		Timestamp:  time.Now(),
	})

	err := p.conn.Send(frame)
	if err != nil {
		p.logger.Warn("typing indicator not sent",
			zap.String("sessionId", sessionId),
			zap.Error(err))

		return false
	}

	return true
}
