package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// MockTMIServer mocks the unofficial TMI chatters endpoint used for batched
// payouts.
type MockTMIServer struct {
	*httptest.Server
	Handlers map[string]http.HandlerFunc
}

// NewMockTMIServer creates a new mock TMI server. Paths without a registered
// handler return 404.
func NewMockTMIServer(t *testing.T) *MockTMIServer {
	t.Helper()
	m := &MockTMIServer{
		Handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path
		if handler, ok := m.Handlers[key]; ok {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.Close)
	return m
}

// MockChattersResponse adds a handler for the chatters listing of a channel.
func (m *MockTMIServer) MockChattersResponse(channel string, viewers, moderators, vips []string) {
	m.Handlers[fmt.Sprintf("/group/user/%s/chatters", channel)] = func(w http.ResponseWriter, r *http.Request) {
		response := map[string]interface{}{
			"chatter_count": len(viewers) + len(moderators) + len(vips),
			"chatters": map[string][]string{
				"viewers":    viewers,
				"moderators": moderators,
				"vips":       vips,
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response) //nolint:errcheck // test mock response
	}
}

// MockChattersError makes the chatters listing for a channel fail with the
// given status code.
func (m *MockTMIServer) MockChattersError(channel string, status int) {
	m.Handlers[fmt.Sprintf("/group/user/%s/chatters", channel)] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}
}
