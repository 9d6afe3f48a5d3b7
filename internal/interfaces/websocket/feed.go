package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/odontoflow/odontoflow/gateway/internal/infrastructure/eventbus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the reception dashboard runs on the clinic LAN
	},
}

// FeedEvent is one frame on the attendant feed.
type FeedEvent struct {
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// ClientGauge receives the connected-client count.
type ClientGauge interface {
	SetWSClients(n int64)
}

// Client is one connected dashboard.
type Client struct {
	ID     string
	conn   *websocket.Conn
	send   chan []byte
	hub    *Hub
	logger *zap.Logger
}

// Hub fans gateway events out to every connected dashboard. The feed
// is one-way: clients only ever send ping frames.
type Hub struct {
	clients    map[string]*Client
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	gauge      ClientGauge
	logger     *zap.Logger
	mu         sync.RWMutex
}

// NewHub creates the feed hub. The gauge is optional.
func NewHub(gauge ClientGauge, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		gauge:      gauge,
		logger:     logger,
	}
}

// RegisterBus subscribes the hub to the events the dashboard shows.
// Call once before Run.
func (h *Hub) RegisterBus(bus eventbus.Bus) {
	relay := func(ctx context.Context, event eventbus.Event) {
		h.Broadcast(event.Type(), event.Payload())
	}
	bus.Subscribe(eventbus.EventTypeTriageCompleted, relay)
	bus.Subscribe(eventbus.EventTypePatientCreated, relay)
	bus.Subscribe(eventbus.EventTypeAppointmentBooked, relay)
	bus.Subscribe(eventbus.EventTypeAppointmentCancelled, relay)
}

// Run owns the client set. Register, unregister and broadcast all go
// through this loop.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			h.updateGauge()
			h.logger.Info("Feed client connected",
				zap.String("client_id", client.ID),
			)
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.send)
			}
			h.mu.Unlock()
			h.updateGauge()
			h.logger.Info("Feed client disconnected",
				zap.String("client_id", client.ID),
			)
		case message := <-h.broadcast:
			h.mu.Lock()
			for id, client := range h.clients {
				select {
				case client.send <- message:
				default:
					// A dashboard that cannot keep up is dropped.
					close(client.send)
					delete(h.clients, id)
				}
			}
			h.mu.Unlock()
			h.updateGauge()
		}
	}
}

// Broadcast queues one event for every connected client.
func (h *Hub) Broadcast(eventType string, data interface{}) {
	frame, err := json.Marshal(FeedEvent{
		Type:      eventType,
		Timestamp: time.Now().Unix(),
		Data:      data,
	})
	if err != nil {
		h.logger.Error("Failed to marshal feed event",
			zap.String("type", eventType),
			zap.Error(err),
		)
		return
	}

	select {
	case h.broadcast <- frame:
	default:
		h.logger.Warn("Feed broadcast buffer full, dropping event",
			zap.String("type", eventType),
		)
	}
}

// ClientCount returns how many dashboards are connected.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) updateGauge() {
	if h.gauge != nil {
		h.gauge.SetWSClients(int64(h.ClientCount()))
	}
}

// ServeWS upgrades GET /ws and attaches the connection to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade connection", zap.Error(err))
		return
	}

	client := &Client{
		ID:     uuid.New().String(),
		conn:   conn,
		send:   make(chan []byte, 256),
		hub:    h,
		logger: h.logger,
	}

	h.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump drains the connection so close frames and pongs are seen.
// Feed clients have nothing to say; inbound text is ignored.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4 * 1024)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket read error", zap.Error(err))
			}
			break
		}
	}
}

// writePump pushes frames to the client and keeps the connection alive.
func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
