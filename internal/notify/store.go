package notify

import (
	"context"
	"strings"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

// Backend mirrors local mutations to the server. Every call is
// best-effort: a failure is logged and never rolled back locally.
type Backend interface {
	List(ctx context.Context) ([]Notification, error)
	MarkRead(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
	Clear(ctx context.Context) error
}

// Alerter raises an out-of-band alert for high-priority notifications,
// the desktop-notification analog. Implementations must not block.
type Alerter interface {
	Alert(notification Notification)
}

// noiseDenylist suppresses connectivity-churn phrases so transport-level
// flapping never surfaces as user-visible notification spam.
var noiseDenylist = []string{
	"connection error",
	"connection established",
	"connection lost",
	"connection closed",
	"reconnecting",
	"websocket",
}

// Store is the canonical, UI-observable list of notifications, sorted
// newest-first. Local state is the source of truth; the backend is an
// eventually-consistent mirror.
type Store struct {
	logger      *zap.Logger
	backend     Backend
	alerter     Alerter
	syncTimeout time.Duration

	mu            sync.Mutex
	notifications []Notification
	unread        int
}

func NewStore(
	logger *zap.Logger,
	backend Backend,
	alerter Alerter,
) *Store {
	return &Store{
		logger:      logger,
		backend:     backend,
		alerter:     alerter,
		syncTimeout: 10 * time.Second,
	}
}

// Add applies the noise filter, prepends the surviving entry and bumps
// the unread count. It returns the canonical stored entity and whether
// the notification survived the filter.
func (s *Store) Add(notification Notification) (Notification, bool) {
	if isNoise(notification) {
		s.logger.Debug("suppressed connectivity notification",
			zap.String("title", notification.Title))

		return Notification{}, false
	}

	if notification.Id == "" {
		notification.Id = gonanoid.Must()
	}
	if notification.Timestamp.IsZero() {
		notification.Timestamp = time.Now()
	}
	if notification.Type == "" {
		notification.Type = TypeSystem
	}
	if notification.Priority == "" {
		notification.Priority = PriorityMedium
	}

	s.mu.Lock()
	s.notifications = append([]Notification{notification}, s.notifications...)
	if !notification.IsRead {
		s.unread++
	}
	s.mu.Unlock()

	if s.alerter != nil &&
		(notification.Priority == PriorityHigh || notification.Priority == PriorityCritical) {
		s.alerter.Alert(notification)
	}

	return notification, true
}

func (s *Store) MarkAsRead(id string) {
	s.mu.Lock()
	found := false
	for i := range s.notifications {
		if s.notifications[i].Id != id {
			continue
		}

		found = true
		if !s.notifications[i].IsRead {
			s.notifications[i].IsRead = true
			s.unread--
		}

		break
	}
	s.mu.Unlock()

	if !found {
		return
	}

	s.sync("markRead", func(ctx context.Context) error {
		return s.backend.MarkRead(ctx, id)
	})
}

func (s *Store) Remove(id string) {
	s.mu.Lock()
	found := false
	for i := range s.notifications {
		if s.notifications[i].Id != id {
			continue
		}

		found = true
		if !s.notifications[i].IsRead {
			s.unread--
		}

		s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)

		break
	}
	s.mu.Unlock()

	if !found {
		return
	}

	s.sync("delete", func(ctx context.Context) error {
		return s.backend.Delete(ctx, id)
	})
}

func (s *Store) MarkAllAsRead() {
	s.mu.Lock()
	for i := range s.notifications {
		s.notifications[i].IsRead = true
	}
	s.unread = 0
	s.mu.Unlock()

	s.sync("markAllRead", func(ctx context.Context) error {
		return s.backend.MarkAllRead(ctx)
	})
}

func (s *Store) ClearAll() {
	s.mu.Lock()
	s.notifications = nil
	s.unread = 0
	s.mu.Unlock()

	s.sync("clear", func(ctx context.Context) error {
		return s.backend.Clear(ctx)
	})
}

// Fetch replaces local state wholesale from the backend, recomputing the
// unread count from scratch. Used at cold start only, never merged with
// live-pushed entries mid-session.
func (s *Store) Fetch(ctx context.Context) error {
	if s.backend == nil {
		return nil
	}

	notifications, err := s.backend.List(ctx)
	if err != nil {
		return err
	}

	unread := 0
	for _, n := range notifications {
		if !n.IsRead {
			unread++
		}
	}

	s.mu.Lock()
	s.notifications = notifications
	s.unread = unread
	s.mu.Unlock()

	return nil
}

// Notifications returns a snapshot of the list, newest first.
func (s *Store) Notifications() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make([]Notification, len(s.notifications))
	copy(snapshot, s.notifications)

	return snapshot
}

func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.unread
}

func (s *Store) sync(op string, fn func(ctx context.Context) error) {
	if s.backend == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.syncTimeout)
		defer cancel()

		err := fn(ctx)
		if err != nil {
			s.logger.Warn("notification sync failed",
				zap.String("op", op),
				zap.Error(err))
		}
	}()
}

func isNoise(notification Notification) bool {
	title := strings.ToLower(notification.Title)
	message := strings.ToLower(notification.Message)

	for _, phrase := range noiseDenylist {
		if strings.Contains(title, phrase) || strings.Contains(message, phrase) {
			return true
		}
	}

	return false
}
