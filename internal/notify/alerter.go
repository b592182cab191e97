package notify

import "go.uber.org/zap"

// LogAlerter is the default Alerter: it writes high-priority
// notifications to the log. Hosts with a real desktop-notification
// surface inject their own implementation.
type LogAlerter struct {
	logger *zap.Logger
}

func NewLogAlerter(logger *zap.Logger) *LogAlerter {
	return &LogAlerter{
		logger,
	}
}

func (a *LogAlerter) Alert(notification Notification) {
	a.logger.Info("high priority notification",
		zap.String("id", notification.Id),
		zap.String("type", string(notification.Type)),
		zap.String("priority", string(notification.Priority)),
		zap.String("title", notification.Title))
}
