package twitchapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestChattersClient_Chatters(t *testing.T) {
	tests := []struct {
		response    interface{}
		name        string
		channel     string
		errContains string
		statusCode  int
		wantViewers int
		wantMods    int
		wantVIPs    int
		wantErr     bool
	}{
		{
			name:    "successful fetch",
			channel: "somechannel",
			response: map[string]interface{}{
				"chatter_count": 4,
				"chatters": map[string][]string{
					"viewers":    {"alice", "bob"},
					"moderators": {"modguy"},
					"vips":       {"vipgal"},
				},
			},
			statusCode:  http.StatusOK,
			wantViewers: 2,
			wantMods:    1,
			wantVIPs:    1,
		},
		{
			name:    "empty categories",
			channel: "quietchannel",
			response: map[string]interface{}{
				"chatter_count": 0,
				"chatters": map[string][]string{
					"viewers":    {},
					"moderators": {},
					"vips":       {},
				},
			},
			statusCode: http.StatusOK,
		},
		{
			name:        "empty channel",
			channel:     "",
			wantErr:     true,
			errContains: "channel empty",
		},
		{
			name:        "upstream error status",
			channel:     "somechannel",
			statusCode:  http.StatusServiceUnavailable,
			wantErr:     true,
			errContains: "status 503",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				wantPath := "/group/user/" + tt.channel + "/chatters"
				if r.URL.Path != wantPath {
					t.Errorf("path = %s, want %s", r.URL.Path, wantPath)
				}
				w.WriteHeader(tt.statusCode)
				if tt.response != nil {
					json.NewEncoder(w).Encode(tt.response)
				}
			}))
			defer server.Close()

			client := &ChattersClient{BaseURL: server.URL}
			chatters, err := client.Chatters(context.Background(), tt.channel)

			if tt.wantErr {
				if err == nil {
					t.Errorf("Chatters() error = nil, want error containing %q", tt.errContains)
				} else if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("Chatters() error = %v, want error containing %q", err, tt.errContains)
				}
				return
			}

			if err != nil {
				t.Errorf("Chatters() unexpected error = %v", err)
				return
			}
			if len(chatters.Viewers) != tt.wantViewers {
				t.Errorf("viewers = %d, want %d", len(chatters.Viewers), tt.wantViewers)
			}
			if len(chatters.Moderators) != tt.wantMods {
				t.Errorf("moderators = %d, want %d", len(chatters.Moderators), tt.wantMods)
			}
			if len(chatters.VIPs) != tt.wantVIPs {
				t.Errorf("vips = %d, want %d", len(chatters.VIPs), tt.wantVIPs)
			}
		})
	}
}

func TestChattersClient_MissingBaseURL(t *testing.T) {
	client := &ChattersClient{}
	if _, err := client.Chatters(context.Background(), "somechannel"); err == nil {
		t.Error("expected error for missing base url")
	}
}
