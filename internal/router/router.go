package router

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/sentra-labs/realtime/internal/chatlog"
	"github.com/sentra-labs/realtime/internal/identity"
	"github.com/sentra-labs/realtime/internal/ierr"
	"github.com/sentra-labs/realtime/internal/notify"
	"github.com/sentra-labs/realtime/internal/wire"
	"go.uber.org/zap"
)

// Router classifies each inbound frame and dispatches it to exactly one
// handler family. Unparseable payloads are logged and dropped: a single
// malformed frame must never take down the connection or block the next
// frame.
type Router struct {
	logger *zap.Logger
	store  *notify.Store
	log    *chatlog.Log

	onChatMessage  func(message chatlog.ChatMessage)
	onNotification func(notification notify.Notification)
	onTyping       func(signal chatlog.TypingSignal)
}

func NewRouter(
	logger *zap.Logger,
	store *notify.Store,
	log *chatlog.Log,
	onChatMessage func(message chatlog.ChatMessage),
	onNotification func(notification notify.Notification),
	onTyping func(signal chatlog.TypingSignal),
) *Router {
	return &Router{
		logger:         logger,
		store:          store,
		log:            log,
		onChatMessage:  onChatMessage,
		onNotification: onNotification,
		onTyping:       onTyping,
	}
}

// HandleFrame is the transport's inbound callback. It absorbs every
// error: nothing thrown here may cross the router boundary.
func (r *Router) HandleFrame(raw json.RawMessage) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("panic in frame handler",
				zap.Any("panic", rec))
		}
	}()

	var envelope wire.Envelope

	err := json.Unmarshal(raw, &envelope)
	if err != nil {
		r.logger.Warn("dropping malformed frame",
			zap.Error(ierr.New(ierr.ErrorCodeParseError, err)))

		return
	}

	err = r.route(envelope)
	if err != nil {
		r.logger.Warn("dropping frame",
			zap.String("kind", string(envelope.Kind)),
			zap.String("channel", envelope.Channel),
			zap.Error(err))
	}
}

func (r *Router) route(envelope wire.Envelope) error {
	switch envelope.Kind {
	case wire.KindHeartbeat:
		return nil
	case wire.KindChatMessage:
		return r.handleChatMessage(envelope)
	case wire.KindTyping:
		return r.handleTyping(envelope)
	case wire.KindSessionEvent:
		return r.handleSessionEvent(envelope)
	case wire.KindNotification, wire.KindBroadcast:
		return r.handleNotification(envelope)
	default:
		return ierr.New(ierr.ErrorCodeParseError, errors.New("unknown message kind: "+string(envelope.Kind)))
	}
}

type chatPayload struct {
	Id         string    `json:"id"`
	SessionId  string    `json:"sessionId"`
	Content    string    `json:"content"`
	Sender     string    `json:"sender"`
	SenderName string    `json:"senderName"`
	Timestamp  time.Time `json:"timestamp"`
}

func (r *Router) handleChatMessage(envelope wire.Envelope) error {
	var payload chatPayload

	err := decodePayload(envelope.Payload, &payload)
	if err != nil {
		return err
	}

	sender, senderName := normalizeSender(payload.Sender, payload.SenderName)

	message := chatlog.ChatMessage{
		Id:         payload.Id,
		SessionId:  sessionIdFor(payload.SessionId, envelope.Channel),
		Content:    payload.Content,
		Sender:     sender,
		SenderName: senderName,
		Timestamp:  timestampOrNow(payload.Timestamp),
	}

	r.log.Append(message)

	if r.onChatMessage != nil {
		r.onChatMessage(message)
	}

	return nil
}

type typingPayload struct {
	SessionId  string    `json:"sessionId"`
	Sender     string    `json:"sender"`
	SenderName string    `json:"senderName"`
	IsTyping   bool      `json:"isTyping"`
	Timestamp  time.Time `json:"timestamp"`
}

func (r *Router) handleTyping(envelope wire.Envelope) error {
	var payload typingPayload

	err := decodePayload(envelope.Payload, &payload)
	if err != nil {
		return err
	}

	sender, senderName := normalizeSender(payload.Sender, payload.SenderName)

	signal := chatlog.TypingSignal{
		SessionId:  sessionIdFor(payload.SessionId, envelope.Channel),
		Sender:     sender,
		SenderName: senderName,
		IsTyping:   payload.IsTyping,
		Timestamp:  timestampOrNow(payload.Timestamp),
	}

	if r.onTyping != nil {
		r.onTyping(signal)
	}

	return nil
}

type sessionEventPayload struct {
	SessionId string          `json:"sessionId"`
	Event     string          `json:"event"`
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// handleSessionEvent converts session-scoped status, extension, timer and
// completion events into notifications.
func (r *Router) handleSessionEvent(envelope wire.Envelope) error {
	var payload sessionEventPayload

	err := decodePayload(envelope.Payload, &payload)
	if err != nil {
		return err
	}

	notificationType, priority, title := classifySessionEvent(payload.Event)

	notification := notify.Notification{
		Type:      notificationType,
		Title:     title,
		Message:   payload.Message,
		Timestamp: timestampOrNow(payload.Timestamp),
		Priority:  priority,
		Data:      payload.Data,
	}

	r.dispatchNotification(notification)

	return nil
}

func (r *Router) handleNotification(envelope wire.Envelope) error {
	var notification notify.Notification

	err := decodePayload(envelope.Payload, &notification)
	if err != nil {
		return err
	}

	notification.Timestamp = timestampOrNow(notification.Timestamp)

	r.dispatchNotification(notification)

	return nil
}

func (r *Router) dispatchNotification(notification notify.Notification) {
	stored, added := r.store.Add(notification)
	if !added {
		return
	}

	if r.onNotification != nil {
		r.onNotification(stored)
	}
}

func classifySessionEvent(event string) (notify.Type, notify.Priority, string) {
	switch strings.ToUpper(event) {
	case "STARTED":
		return notify.TypeSystem, notify.PriorityMedium, "Consultation started"
	case "EXTENDED":
		return notify.TypeSuccess, notify.PriorityMedium, "Consultation extended"
	case "TIMER":
		return notify.TypeWarning, notify.PriorityHigh, "Consultation ending soon"
	case "COMPLETED":
		return notify.TypeSuccess, notify.PriorityMedium, "Consultation completed"
	default:
		return notify.TypeSystem, notify.PriorityMedium, "Consultation update"
	}
}

// normalizeSender resolves the backend's inconsistent sender field: it
// arrives either as a role tag or as a free-text display name.
func normalizeSender(sender string, senderName string) (identity.Role, string) {
	role, ok := identity.ParseRole(sender)

	name := senderName
	if name == "" {
		if !ok && sender != "" {
			name = sender
		} else {
			name = string(role)
		}
	}

	return role, name
}

// sessionIdFor prefers the payload's session id, falling back to the
// middle segment of a session:{id}:* channel key.
func sessionIdFor(sessionId string, channel string) string {
	if sessionId != "" {
		return sessionId
	}

	parts := strings.Split(channel, ":")
	if len(parts) == 3 && parts[0] == "session" {
		return parts[1]
	}

	return ""
}

func timestampOrNow(timestamp time.Time) time.Time {
	if timestamp.IsZero() {
		return time.Now()
	}

	return timestamp
}

func decodePayload(payload json.RawMessage, v any) error {
	if payload == nil {
		return ierr.New(ierr.ErrorCodeParseError, errors.New("missing payload"))
	}

	err := json.Unmarshal(payload, v)
	if err != nil {
		return ierr.New(ierr.ErrorCodeParseError, err)
	}

	return nil
}
