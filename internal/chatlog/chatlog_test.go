package chatlog

import (
	"testing"

	"github.com/sentra-labs/realtime/internal/identity"
	"github.com/stretchr/testify/assert"
)

func TestLog(t *testing.T) {
	log := NewLog()

	t.Run("append preserves order per session", func(t *testing.T) {
		log.Append(ChatMessage{Id: "1", SessionId: "7", Content: "first", Sender: identity.RoleUser})
		log.Append(ChatMessage{Id: "2", SessionId: "7", Content: "second", Sender: identity.RoleExpert})
		log.Append(ChatMessage{Id: "3", SessionId: "8", Content: "other", Sender: identity.RoleUser})

		messages := log.Messages("7")
		assert.Len(t, messages, 2)
		assert.Equal(t, "first", messages[0].Content)
		assert.Equal(t, "second", messages[1].Content)

		assert.Len(t, log.Messages("8"), 1)
	})

	t.Run("unknown session is empty", func(t *testing.T) {
		assert.Empty(t, log.Messages("missing"))
	})

	t.Run("snapshot is isolated", func(t *testing.T) {
		messages := log.Messages("7")
		messages[0].Content = "mutated"

		assert.Equal(t, "first", log.Messages("7")[0].Content)
	})
}
