package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type recordingBackend struct {
	mu         sync.Mutex
	calls      []string
	listResult []Notification
	err        error
}

func (b *recordingBackend) record(call string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls = append(b.calls, call)

	return b.err
}

func (b *recordingBackend) List(_ context.Context) ([]Notification, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.listResult, b.err
}

func (b *recordingBackend) MarkRead(_ context.Context, id string) error {
	return b.record("markRead:" + id)
}

func (b *recordingBackend) Delete(_ context.Context, id string) error {
	return b.record("delete:" + id)
}

func (b *recordingBackend) MarkAllRead(_ context.Context) error {
	return b.record("markAllRead")
}

func (b *recordingBackend) Clear(_ context.Context) error {
	return b.record("clear")
}

func (b *recordingBackend) recorded() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]string(nil), b.calls...)
}

type recordingAlerter struct {
	mu     sync.Mutex
	alerts []Notification
}

func (a *recordingAlerter) Alert(notification Notification) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.alerts = append(a.alerts, notification)
}

func (a *recordingAlerter) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.alerts)
}

func newTestStore() (*Store, *recordingBackend, *recordingAlerter) {
	logger, _ := zap.NewDevelopment()
	backend := &recordingBackend{}
	alerter := &recordingAlerter{}

	return NewStore(logger, backend, alerter), backend, alerter
}

func waitForCalls(t *testing.T, backend *recordingBackend, want int) {
	assert.Eventually(t, func() bool {
		return len(backend.recorded()) == want
	}, time.Second, 5*time.Millisecond)
}

func TestStore_Add(t *testing.T) {
	t.Run("prepends newest first and fills defaults", func(t *testing.T) {
		store, _, _ := newTestStore()

		first, added := store.Add(Notification{Title: "First"})
		assert.True(t, added)
		assert.NotEmpty(t, first.Id)
		assert.False(t, first.Timestamp.IsZero())
		assert.Equal(t, TypeSystem, first.Type)
		assert.Equal(t, PriorityMedium, first.Priority)

		_, added = store.Add(Notification{Title: "Second"})
		assert.True(t, added)

		notifications := store.Notifications()
		assert.Len(t, notifications, 2)
		assert.Equal(t, "Second", notifications[0].Title)
		assert.Equal(t, "First", notifications[1].Title)
		assert.Equal(t, 2, store.UnreadCount())
	})

	t.Run("noise filter drops connectivity churn", func(t *testing.T) {
		store, _, _ := newTestStore()

		_, added := store.Add(Notification{Title: "Connection Error", Message: "retrying"})
		assert.False(t, added)

		_, added = store.Add(Notification{Title: "Status", Message: "Connection established"})
		assert.False(t, added)

		assert.Empty(t, store.Notifications())
		assert.Equal(t, 0, store.UnreadCount())
	})

	t.Run("high priority triggers the alerter", func(t *testing.T) {
		store, _, alerter := newTestStore()

		store.Add(Notification{Title: "Breach detected", Type: TypeBreach, Priority: PriorityCritical})
		store.Add(Notification{Title: "Plan renewed", Type: TypeSuccess, Priority: PriorityLow})
		store.Add(Notification{Title: "Exposure found", Type: TypeAlert, Priority: PriorityHigh})

		assert.Equal(t, 2, alerter.count())
	})
}

func TestStore_UnreadInvariant(t *testing.T) {
	store, backend, _ := newTestStore()

	ids := make([]string, 0, 5)
	for _, title := range []string{"a", "b", "c", "d", "e"} {
		stored, _ := store.Add(Notification{Title: title})
		ids = append(ids, stored.Id)
	}

	assert.Equal(t, 5, store.UnreadCount())

	store.MarkAsRead(ids[1])
	store.MarkAsRead(ids[3])
	assert.Equal(t, 3, store.UnreadCount())

	// Marking an already-read entry is a no-op.
	store.MarkAsRead(ids[1])
	assert.Equal(t, 3, store.UnreadCount())

	store.Remove(ids[0])
	assert.Equal(t, 2, store.UnreadCount())
	assert.Len(t, store.Notifications(), 4)

	// Removing a read entry leaves the unread count alone.
	store.Remove(ids[1])
	assert.Equal(t, 2, store.UnreadCount())

	store.MarkAllAsRead()
	assert.Equal(t, 0, store.UnreadCount())

	store.ClearAll()
	assert.Empty(t, store.Notifications())
	assert.Equal(t, 0, store.UnreadCount())

	unread := 0
	for _, n := range store.Notifications() {
		if !n.IsRead {
			unread++
		}
	}
	assert.Equal(t, unread, store.UnreadCount())

	waitForCalls(t, backend, 7)
}

func TestStore_BackendSync(t *testing.T) {
	t.Run("mutations mirror to the backend", func(t *testing.T) {
		store, backend, _ := newTestStore()

		stored, _ := store.Add(Notification{Title: "a"})
		store.MarkAsRead(stored.Id)
		store.Remove(stored.Id)
		store.MarkAllAsRead()
		store.ClearAll()

		waitForCalls(t, backend, 4)
		assert.ElementsMatch(t, []string{
			"markRead:" + stored.Id,
			"delete:" + stored.Id,
			"markAllRead",
			"clear",
		}, backend.recorded())
	})

	t.Run("unknown id is not synced", func(t *testing.T) {
		store, backend, _ := newTestStore()

		store.MarkAsRead("missing")
		store.Remove("missing")

		time.Sleep(50 * time.Millisecond)
		assert.Empty(t, backend.recorded())
	})

	t.Run("sync failure does not roll back local state", func(t *testing.T) {
		store, backend, _ := newTestStore()
		backend.err = errors.New("backend down")

		stored, _ := store.Add(Notification{Title: "a"})
		store.MarkAsRead(stored.Id)

		waitForCalls(t, backend, 1)
		assert.Equal(t, 0, store.UnreadCount())
		assert.True(t, store.Notifications()[0].IsRead)
	})
}

func TestStore_Fetch(t *testing.T) {
	t.Run("replaces local state wholesale", func(t *testing.T) {
		store, backend, _ := newTestStore()

		store.Add(Notification{Title: "live"})

		backend.listResult = []Notification{
			{Id: "n1", Title: "old", IsRead: true},
			{Id: "n2", Title: "older", IsRead: false},
			{Id: "n3", Title: "oldest", IsRead: false},
		}

		err := store.Fetch(context.Background())

		assert.NoError(t, err)
		assert.Len(t, store.Notifications(), 3)
		assert.Equal(t, 2, store.UnreadCount())
	})

	t.Run("propagates backend failure", func(t *testing.T) {
		store, backend, _ := newTestStore()
		backend.err = errors.New("backend down")

		err := store.Fetch(context.Background())

		assert.Error(t, err)
	})
}
