package widget

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialTestHub(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEntry(t *testing.T, conn *websocket.Conn) Entry {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var e Entry
	if err := json.Unmarshal(payload, &e); err != nil {
		t.Fatalf("unmarshal %q: %v", payload, err)
	}
	return e
}

func waitForSubscribers(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.SubscriberCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("subscribers = %d, want %d", h.SubscriberCount(), want)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHubBroadcast(t *testing.T) {
	h := NewHub()
	conn := dialTestHub(t, h)
	waitForSubscribers(t, h, 1)

	h.Feed(Entry{Icon: IconUp, Text: "someone won 10 coins"})

	e := readEntry(t, conn)
	if e.Icon != IconUp {
		t.Errorf("icon = %q, want %q", e.Icon, IconUp)
	}
	if e.Text != "someone won 10 coins" {
		t.Errorf("text = %q", e.Text)
	}
	if e.At.IsZero() {
		t.Error("entry timestamp not stamped")
	}
}

func TestHubBacklogReplay(t *testing.T) {
	h := NewHub()
	h.Feed(Entry{Icon: IconGift, Text: "first"})
	h.Feed(Entry{Icon: IconDown, Text: "second"})

	conn := dialTestHub(t, h)

	if e := readEntry(t, conn); e.Text != "first" {
		t.Errorf("first replayed entry = %q, want first", e.Text)
	}
	if e := readEntry(t, conn); e.Text != "second" {
		t.Errorf("second replayed entry = %q, want second", e.Text)
	}
}

func TestHubBacklogBounded(t *testing.T) {
	h := NewHub()
	for i := 0; i < backlogSize+25; i++ {
		h.Feed(Entry{Icon: IconUp, Text: "entry"})
	}
	h.mu.Lock()
	n := len(h.backlog)
	h.mu.Unlock()
	if n != backlogSize {
		t.Errorf("backlog length = %d, want %d", n, backlogSize)
	}
}

func TestHubUnsubscribeOnClose(t *testing.T) {
	h := NewHub()
	conn := dialTestHub(t, h)
	waitForSubscribers(t, h, 1)

	conn.Close()
	waitForSubscribers(t, h, 0)
}
