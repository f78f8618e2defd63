// Package widget broadcasts overlay feed entries to connected widgets over
// WebSocket. The feed is a positive/notable-event stream: wager outcomes,
// payouts, and market announcements. Failures never produce feed entries.
package widget

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/onnwee/coinbot/telemetry"
)

// Feed entry icons, one per outcome class. The overlay maps these to visuals.
const (
	IconJackpot = "jackpot"
	IconUp      = "up"
	IconDown    = "down"
	IconGift    = "gift"
	IconMarket  = "market"
)

// Entry is one overlay feed item.
type Entry struct {
	Icon string    `json:"icon"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

const (
	// timeout for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time to wait for a Pong from the widget.
	pongWait = 60 * time.Second

	// frequency of server Ping messages.
	pingPeriod = (pongWait * 9) / 10

	// per-subscriber outbound queue; slow widgets are dropped, not waited on.
	sendQueueSize = 64

	// number of recent entries replayed to a late-joining widget.
	backlogSize = 50
)

type subscriber struct {
	send chan []byte
}

// Hub fans out feed entries to all connected widget subscribers.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	subs    map[*subscriber]struct{}
	backlog []Entry
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Overlays load from OBS browser sources and local files.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		subs: make(map[*subscriber]struct{}),
	}
}

// Feed broadcasts one entry to every connected widget and appends it to the
// replay backlog. Entries with a zero timestamp are stamped now.
func (h *Hub) Feed(e Entry) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	payload, err := json.Marshal(e)
	if err != nil {
		slog.Error("feed entry marshal failed", slog.Any("err", err))
		return
	}
	if telemetry.FeedEntries != nil {
		telemetry.FeedEntries.Inc()
	}

	h.mu.Lock()
	h.backlog = append(h.backlog, e)
	if len(h.backlog) > backlogSize {
		h.backlog = h.backlog[len(h.backlog)-backlogSize:]
	}
	for s := range h.subs {
		select {
		case s.send <- payload:
		default:
			// Slow subscriber; drop the entry rather than block the feed.
			slog.Warn("widget subscriber queue full, dropping entry")
		}
	}
	h.mu.Unlock()
}

// SubscriberCount returns the number of connected widgets.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// ServeWS upgrades the request and streams feed entries until the widget
// disconnects. The recent backlog is replayed first.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("widget upgrade failed", slog.Any("err", err))
		return
	}

	sub := &subscriber{send: make(chan []byte, sendQueueSize)}

	h.mu.Lock()
	for _, e := range h.backlog {
		if payload, err := json.Marshal(e); err == nil {
			sub.send <- payload
		}
	}
	h.subs[sub] = struct{}{}
	count := len(h.subs)
	h.mu.Unlock()
	if telemetry.FeedSubscribersGauge != nil {
		telemetry.FeedSubscribersGauge.Set(float64(count))
	}
	slog.Debug("widget subscribed", slog.Int("subscribers", count))

	go h.writePump(conn, sub)
	h.readPump(conn, sub)
}

func (h *Hub) unsubscribe(sub *subscriber) {
	h.mu.Lock()
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.send)
	}
	count := len(h.subs)
	h.mu.Unlock()
	if telemetry.FeedSubscribersGauge != nil {
		telemetry.FeedSubscribersGauge.Set(float64(count))
	}
}

// readPump discards inbound frames; widgets only listen. It exists to
// service pong handling and to detect disconnects.
func (h *Hub) readPump(conn *websocket.Conn, sub *subscriber) {
	defer func() {
		h.unsubscribe(sub)
		_ = conn.Close()
	}()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("widget read error", slog.Any("err", err))
			}
			return
		}
	}
}

func (h *Hub) writePump(conn *websocket.Conn, sub *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()
	for {
		select {
		case payload, ok := <-sub.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
