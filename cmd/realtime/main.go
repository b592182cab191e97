package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/sentra-labs/realtime/internal/chatlog"
	"github.com/sentra-labs/realtime/internal/identity"
	"github.com/sentra-labs/realtime/internal/notify"
	"github.com/sentra-labs/realtime/internal/realtime"
	"github.com/sentra-labs/realtime/internal/transport"
	"go.uber.org/zap"
)

type App struct {
	logger   *zap.Logger
	settings Settings
	client   *realtime.Client
	store    *notify.Store
}

func NewApp(logger *zap.Logger, settings Settings, provider identity.Provider) *App {
	backend := notify.NewHTTPBackend(settings.BackendURL, provider, nil)
	alerter := notify.NewLogAlerter(logger)
	store := notify.NewStore(logger, backend, alerter)

	callbacks := realtime.Callbacks{
		OnConnectionChange: func(connected bool) {
			logger.Info("connection changed",
				zap.Bool("connected", connected))
		},
		OnChatMessage: func(message chatlog.ChatMessage) {
			logger.Info("chat message",
				zap.String("sessionId", message.SessionId),
				zap.String("sender", string(message.Sender)),
				zap.String("senderName", message.SenderName),
				zap.String("content", message.Content))
		},
		OnNotification: func(notification notify.Notification) {
			logger.Info("notification",
				zap.String("type", string(notification.Type)),
				zap.String("priority", string(notification.Priority)),
				zap.String("title", notification.Title))
		},
		OnTypingIndicator: func(signal chatlog.TypingSignal) {
			logger.Debug("typing",
				zap.String("sessionId", signal.SessionId),
				zap.Bool("isTyping", signal.IsTyping))
		},
	}

	client := realtime.NewClient(
		logger,
		transport.Settings{
			URL:                  settings.EndpointURL,
			HeartbeatInterval:    time.Duration(settings.HeartbeatSeconds) * time.Second,
			ReconnectDelay:       time.Duration(settings.ReconnectSeconds) * time.Second,
			MaxReconnectAttempts: settings.MaxReconnectAttempts,
		},
		provider,
		store,
		nil,
		callbacks,
	)

	return &App{
		logger,
		settings,
		client,
		store,
	}
}

func (a *App) run(ctx context.Context) error {
	notifyCtx, notifyCtxCancel := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer notifyCtxCancel()

	err := a.client.Connect(ctx)
	if err != nil {
		return err
	}

	fetchCtx, fetchCtxCancel := context.WithTimeout(ctx, 10*time.Second)
	defer fetchCtxCancel()

	err = a.store.Fetch(fetchCtx)
	if err != nil {
		a.logger.Warn("failed to fetch notifications", zap.Error(err))
	}

	a.logger.Info("realtime client started",
		zap.Int("unread", a.store.UnreadCount()))

	if a.settings.SessionId != "" {
		a.client.SubscribeToSession(a.settings.SessionId)
	}

	<-notifyCtx.Done()

	a.logger.Info("stopping realtime client")
	a.client.Disconnect()

	return nil
}

func main() {
	ctx := context.Background()

	var settings Settings
	_, err := env.UnmarshalFromEnviron(&settings)
	if err != nil {
		panic(err)
	}

	logger, err := buildZapLogger(settings.LogEncoding)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	provider, err := identity.NewTokenProvider(settings.AuthToken)
	if err != nil {
		logger.Fatal("invalid auth token", zap.Error(err))
	}

	app := NewApp(logger, settings, provider)

	err = app.run(ctx)
	if err != nil {
		logger.Fatal("realtime client failed", zap.Error(err))
	}
}
