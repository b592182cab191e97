package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/sentra-labs/realtime/internal/identity"
	"github.com/stretchr/testify/assert"
)

func TestHTTPBackend(t *testing.T) {
	router := mux.NewRouter()

	router.HandleFunc("/notifications", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]Notification{
			{Id: "n1", Title: "Breach detected", Type: TypeBreach, Priority: PriorityCritical},
			{Id: "n2", Title: "Scan finished", Type: TypeMonitoring, IsRead: true},
		})
	}).Methods("GET")

	var mutations []string
	record := func(mutation string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			mutations = append(mutations, mutation+":"+mux.Vars(r)["id"])
			w.WriteHeader(http.StatusNoContent)
		}
	}

	router.HandleFunc("/notifications/read-all", record("readAll")).Methods("PUT")
	router.HandleFunc("/notifications/{id}/read", record("read")).Methods("PUT")
	router.HandleFunc("/notifications/{id}", record("delete")).Methods("DELETE")
	router.HandleFunc("/notifications", record("clear")).Methods("DELETE")

	server := httptest.NewServer(router)
	defer server.Close()

	provider := &identity.Static{AuthToken: "token-1", User: "user-1"}
	backend := NewHTTPBackend(server.URL, provider, nil)

	ctx := context.Background()

	t.Run("list", func(t *testing.T) {
		notifications, err := backend.List(ctx)

		assert.NoError(t, err)
		assert.Len(t, notifications, 2)
		assert.Equal(t, "Breach detected", notifications[0].Title)
		assert.True(t, notifications[1].IsRead)
	})

	t.Run("mutations hit the right endpoints", func(t *testing.T) {
		assert.NoError(t, backend.MarkRead(ctx, "n1"))
		assert.NoError(t, backend.Delete(ctx, "n2"))
		assert.NoError(t, backend.MarkAllRead(ctx))
		assert.NoError(t, backend.Clear(ctx))

		assert.Equal(t, []string{"read:n1", "delete:n2", "readAll:", "clear:"}, mutations)
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		missing := NewHTTPBackend(server.URL+"/missing", provider, nil)

		err := missing.MarkAllRead(ctx)

		assert.Error(t, err)
	})
}
