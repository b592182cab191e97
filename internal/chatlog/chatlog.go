package chatlog

import (
	"sync"
	"time"

	"github.com/sentra-labs/realtime/internal/identity"
)

type ChatMessage struct {
	Id         string        `json:"id"`
	SessionId  string        `json:"sessionId"`
	Content    string        `json:"content"`
	Sender     identity.Role `json:"sender"`
	SenderName string        `json:"senderName"`
	Timestamp  time.Time     `json:"timestamp"`
}

// TypingSignal is ephemeral: forwarded to the UI callback, superseded by
// the next signal for the same (session, sender), never stored.
type TypingSignal struct {
	SessionId  string        `json:"sessionId"`
	Sender     identity.Role `json:"sender"`
	SenderName string        `json:"senderName"`
	IsTyping   bool          `json:"isTyping"`
	Timestamp  time.Time     `json:"timestamp"`
}

// Log holds the per-session ephemeral ordered chat history, fed
// exclusively by the router. Append-only, no eviction: sessions are
// short-lived and the log dies with the process.
type Log struct {
	mu       sync.Mutex
	sessions map[string][]ChatMessage
}

func NewLog() *Log {
	return &Log{
		sessions: make(map[string][]ChatMessage),
	}
}

func (l *Log) Append(message ChatMessage) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sessions[message.SessionId] = append(l.sessions[message.SessionId], message)
}

// Messages returns a snapshot of the ordered chat history for a session.
func (l *Log) Messages(sessionId string) []ChatMessage {
	l.mu.Lock()
	defer l.mu.Unlock()

	messages := l.sessions[sessionId]
	snapshot := make([]ChatMessage, len(messages))
	copy(snapshot, messages)

	return snapshot
}
