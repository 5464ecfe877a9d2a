package push

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/avfleet/avfleet/internal/model"
)

// Event is one push message delivered to subscribed dashboards.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// Event types emitted by the intake pipeline.
const (
	EventBatch = "logs.batch"
	EventAlert = "alert.created"
)

// BatchPayload describes one accepted intake batch.
type BatchPayload struct {
	ClientID string `json:"clientId"`
	Hostname string `json:"hostname"`
	Accepted int    `json:"accepted"`
}

// AlertPayload describes one freshly derived alert.
type AlertPayload struct {
	LogEventID  string `json:"logEventId"`
	Severity    string `json:"severity"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // same policy as the HTTP CORS layer
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// subscriber is a single WebSocket connection.
type subscriber struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub fans intake events out to connected WebSocket subscribers. Slow
// subscribers are dropped rather than allowed to stall the broadcast loop.
type Hub struct {
	mu         sync.RWMutex
	subs       map[*subscriber]struct{}
	broadcast  chan []byte
	register   chan *subscriber
	unregister chan *subscriber
	done       chan struct{}
	stopOnce   sync.Once
}

// NewHub creates a hub. Call Run in its own goroutine before serving
// connections.
func NewHub() *Hub {
	return &Hub{
		subs:       make(map[*subscriber]struct{}),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *subscriber),
		unregister: make(chan *subscriber),
		done:       make(chan struct{}),
	}
}

// Run processes register, unregister and broadcast events until Stop.
func (h *Hub) Run() {
	for {
		select {
		case sub := <-h.register:
			h.mu.Lock()
			h.subs[sub] = struct{}{}
			h.mu.Unlock()

		case sub := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.subs[sub]; ok {
				delete(h.subs, sub)
				close(sub.send)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for sub := range h.subs {
				select {
				case sub.send <- message:
				default:
					// Send buffer full; cut the subscriber loose.
					delete(h.subs, sub)
					close(sub.send)
				}
			}
			h.mu.Unlock()

		case <-h.done:
			h.mu.Lock()
			for sub := range h.subs {
				delete(h.subs, sub)
				close(sub.send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop shuts the broadcast loop down and disconnects all subscribers.
// Safe to call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// SubscriberCount returns the number of connected subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// PublishBatch notifies subscribers that a batch was accepted.
func (h *Hub) PublishBatch(client model.Client, accepted int) {
	h.publish(Event{
		Type:      EventBatch,
		Timestamp: time.Now().UTC(),
		Payload: BatchPayload{
			ClientID: client.ClientID,
			Hostname: client.Hostname,
			Accepted: accepted,
		},
	})
}

// PublishAlert notifies subscribers about a newly derived alert.
func (h *Hub) PublishAlert(a *model.Alert) {
	h.publish(Event{
		Type:      EventAlert,
		Timestamp: time.Now().UTC(),
		Payload: AlertPayload{
			LogEventID:  a.LogEventID,
			Severity:    a.Severity,
			Title:       a.Title,
			Description: a.Description,
		},
	})
}

func (h *Hub) publish(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("push: marshal %s event: %v", ev.Type, err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		// Broadcast queue full; drop rather than block intake.
	}
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// readPump drains the connection so control frames are handled. Subscribers
// never send application data; anything received is discarded.
func (s *subscriber) readPump() {
	defer func() {
		select {
		case s.hub.unregister <- s:
		case <-s.hub.done:
		}
		s.conn.Close()
	}()

	s.conn.SetReadLimit(512)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			break
		}
	}
}

// writePump pumps hub messages to the connection and keeps it alive with
// periodic pings.
func (s *subscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case message, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Handle upgrades the HTTP connection and registers it as a subscriber.
func (h *Hub) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("push: websocket upgrade: %v", err)
		return
	}

	sub := &subscriber{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
	}
	select {
	case h.register <- sub:
	case <-h.done:
		conn.Close()
		return
	}

	go sub.writePump()
	go sub.readPump()
}
