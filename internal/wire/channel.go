package wire

import (
	"errors"
	"regexp"

	"github.com/sentra-labs/realtime/internal/ierr"
)

// Channel key patterns multiplexed over the single connection.
const (
	ChannelBroadcast = "broadcast"

	DestinationChatSend   = "chat:send"
	DestinationChatTyping = "chat:typing"
)

func UserNotificationChannel(userId string) string {
	return "user:" + userId + ":notifications"
}

func UserChatChannel(userId string) string {
	return "user:" + userId + ":chat"
}

func SessionChatChannel(sessionId string) string {
	return "session:" + sessionId + ":chat"
}

func SessionStatusChannel(sessionId string) string {
	return "session:" + sessionId + ":status"
}

func SessionTypingChannel(sessionId string) string {
	return "session:" + sessionId + ":typing"
}

type ChannelValidator struct {
	channelRegex *regexp.Regexp
}

func NewChannelValidator() *ChannelValidator {
	return &ChannelValidator{
		channelRegex: regexp.MustCompile(`^([\w-]+:?)*\w$`),
	}
}

func (v *ChannelValidator) Validate(channel string) error {
	valid := v.channelRegex.MatchString(channel)
	if !valid {
		return ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("invalid channel key"))
	}

	return nil
}
