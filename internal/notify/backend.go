package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sentra-labs/realtime/internal/identity"
)

// HTTPBackend is the REST collaborator for the notification store.
// Simple request/response, no retry policy.
type HTTPBackend struct {
	baseURL    string
	identity   identity.Provider
	httpClient *http.Client
}

func NewHTTPBackend(
	baseURL string,
	provider identity.Provider,
	httpClient *http.Client,
) *HTTPBackend {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &HTTPBackend{
		baseURL:    strings.TrimRight(baseURL, "/"),
		identity:   provider,
		httpClient: httpClient,
	}
}

func (b *HTTPBackend) List(ctx context.Context) ([]Notification, error) {
	var notifications []Notification

	err := b.do(ctx, http.MethodGet, "/notifications", &notifications)
	if err != nil {
		return nil, err
	}

	return notifications, nil
}

func (b *HTTPBackend) MarkRead(ctx context.Context, id string) error {
	return b.do(ctx, http.MethodPut, "/notifications/"+id+"/read", nil)
}

func (b *HTTPBackend) Delete(ctx context.Context, id string) error {
	return b.do(ctx, http.MethodDelete, "/notifications/"+id, nil)
}

func (b *HTTPBackend) MarkAllRead(ctx context.Context) error {
	return b.do(ctx, http.MethodPut, "/notifications/read-all", nil)
}

func (b *HTTPBackend) Clear(ctx context.Context) error {
	return b.do(ctx, http.MethodDelete, "/notifications", nil)
}

func (b *HTTPBackend) do(ctx context.Context, method string, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, nil)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "Bearer "+b.identity.Token())
	req.Header.Set("Accept", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.New("unexpected status: " + fmt.Sprint(resp.StatusCode))
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
