package transport

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
)

// ObjectStream is a bidirectional stream of JSON objects over the
// physical socket.
type ObjectStream interface {
	WriteObject(obj any) error
	ReadObject(v any) error
	Close() error
}

// DialFunc opens an ObjectStream to the endpoint. Tests substitute this
// to observe dial attempts without a network.
type DialFunc func(ctx context.Context, url string, header http.Header) (ObjectStream, error)

type WebSocketObjectStream struct {
	connection *websocket.Conn
}

func NewWebSocketObjectStream(connection *websocket.Conn) *WebSocketObjectStream {
	return &WebSocketObjectStream{
		connection,
	}
}

func (s *WebSocketObjectStream) WriteObject(obj any) error {
	return s.connection.WriteJSON(obj)
}

func (s *WebSocketObjectStream) ReadObject(v any) error {
	return s.connection.ReadJSON(v)
}

func (s *WebSocketObjectStream) Close() error {
	return s.connection.Close()
}

// Dial upgrades an HTTP connection to a websocket using the default dialer.
func Dial(ctx context.Context, url string, header http.Header) (ObjectStream, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, err
	}

	conn.SetReadLimit(1 << 20)

	return NewWebSocketObjectStream(conn), nil
}
