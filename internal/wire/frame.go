package wire

import (
	"encoding/json"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Kind tags every inbound envelope with the handler family it belongs to.
type Kind string

const (
	KindChatMessage  Kind = "CHAT_MESSAGE"
	KindSessionEvent Kind = "SESSION_EVENT"
	KindNotification Kind = "NOTIFICATION"
	KindTyping       Kind = "TYPING"
	KindBroadcast    Kind = "BROADCAST"
	KindHeartbeat    Kind = "HEARTBEAT"
)

// Envelope is the outer wrapper of an inbound frame. It is created per
// received frame and consumed immediately by the router, never persisted.
type Envelope struct {
	Kind    Kind            `json:"kind"`
	Channel string          `json:"channel"`
	Payload json.RawMessage `json:"payload"`
}

// Frame is the outer wrapper of an outbound message.
type Frame struct {
	Id     string `json:"id,omitempty"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

const (
	MethodSubscribe = "subscribe"
	MethodPublish   = "publish"
	MethodHeartbeat = "heartbeat"
)

type SubscribeParams struct {
	Channel string `json:"channel"`
}

type PublishParams struct {
	Destination string `json:"destination"`
	Payload     any    `json:"payload"`
}

type HeartbeatParams struct {
	Timestamp time.Time `json:"timestamp"`
}

func NewSubscribeFrame(channel string) Frame {
	return Frame{
		Id:     gonanoid.Must(),
		Method: MethodSubscribe,
		Params: SubscribeParams{Channel: channel},
	}
}

func NewPublishFrame(destination string, payload any) Frame {
	return Frame{
		Id:     gonanoid.Must(),
		Method: MethodPublish,
		Params: PublishParams{
			Destination: destination,
			Payload:     payload,
		},
	}
}

func NewHeartbeatFrame() Frame {
	return Frame{
		Method: MethodHeartbeat,
		Params: HeartbeatParams{Timestamp: time.Now()},
	}
}
