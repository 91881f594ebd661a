package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/abrezinsky/pickem/internal/logger"
	"github.com/abrezinsky/pickem/internal/models"
)

// Message types sent to clients
const (
	TypeRoundStatuses = "round_statuses"
	TypeRoundStatus   = "round_status"
	TypeScoresUpdated = "scores_updated"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

// StatusSource evaluates the status of every round
type StatusSource interface {
	Statuses(ctx context.Context) (map[string]models.RoundStatus, error)
}

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	log        logger.Logger
	clients    map[*Client]bool
	broadcast  chan models.WSMessage
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	rounds     StatusSource

	statusMu sync.Mutex
	last     map[string]models.RoundStatus
}

// Client is a middleman between the websocket connection and the hub
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan models.WSMessage
}

// New creates a new Hub instance with injected dependencies
func New(log logger.Logger, rounds StatusSource) *Hub {
	return &Hub{
		log:        log,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan models.WSMessage, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rounds:     rounds,
		last:       make(map[string]models.RoundStatus),
	}
}

// Start begins the hub's main loop in a goroutine
func (h *Hub) Start() {
	go h.run()
}

// run handles client registration/unregistration and message broadcasting
func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.log.Debug("Client connected", "total_clients", total)

			// Send current round statuses to new client
			go func() {
				statuses, err := h.rounds.Statuses(context.Background())
				if err != nil {
					h.log.Warn("Failed to load round statuses", "error", err)
					return
				}
				h.mutex.RLock()
				defer h.mutex.RUnlock()
				if h.clients[client] {
					select {
					case client.send <- models.WSMessage{Type: TypeRoundStatuses, Payload: statuses}:
					default:
					}
				}
			}()

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mutex.Unlock()
			h.log.Debug("Client disconnected", "total_clients", total)

		case message := <-h.broadcast:
			h.mutex.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client's send channel is full, unregister
					go func(c *Client) {
						h.unregister <- c
					}(client)
				}
			}
			h.mutex.RUnlock()
		}
	}
}

// BroadcastMessage sends a message to all connected clients
func (h *Hub) BroadcastMessage(msgType string, payload interface{}) {
	h.broadcast <- models.WSMessage{
		Type:    msgType,
		Payload: payload,
	}
}

// BroadcastRoundStatus implements services.Broadcaster
func (h *Hub) BroadcastRoundStatus(roundID string, status models.RoundStatus) {
	h.statusMu.Lock()
	h.last[roundID] = status
	h.statusMu.Unlock()

	h.BroadcastMessage(TypeRoundStatus, map[string]interface{}{
		"round_id": roundID,
		"status":   status,
	})
}

// ScoresUpdated implements scoring.Notifier
func (h *Hub) ScoresUpdated(roundID string, written int) {
	h.BroadcastMessage(TypeScoresUpdated, map[string]interface{}{
		"round_id": roundID,
		"written":  written,
	})
}

// readPump pumps messages from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("WebSocket error", "error", err)
			}
			break
		}

		var msg models.WSMessage
		if err := json.Unmarshal(message, &msg); err == nil {
			c.hub.log.Debug("Received message", "type", msg.Type)
		}
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
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

// ServeWs handles websocket requests from clients
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("WebSocket upgrade error", "error", err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan models.WSMessage, 256),
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

// WatchRoundStatus re-evaluates round statuses every interval and
// broadcasts each transition, until ctx is cancelled
func (h *Hub) WatchRoundStatus(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	h.checkRoundStatus(ctx, true)
	for {
		select {
		case <-ctx.Done():
			h.log.Info("Round status watch stopped")
			return
		case <-ticker.C:
			h.checkRoundStatus(ctx, false)
		}
	}
}

// checkRoundStatus compares current statuses with the last ones seen. The
// first check only records them.
func (h *Hub) checkRoundStatus(ctx context.Context, initial bool) {
	statuses, err := h.rounds.Statuses(ctx)
	if err != nil {
		if ctx.Err() == nil {
			h.log.Warn("Failed to evaluate round statuses", "error", err)
		}
		return
	}

	type change struct {
		id     string
		status models.RoundStatus
	}
	var changes []change

	h.statusMu.Lock()
	for id, status := range statuses {
		prev, seen := h.last[id]
		if seen && prev == status {
			continue
		}
		h.last[id] = status
		if seen || !initial {
			changes = append(changes, change{id, status})
		}
	}
	for id := range h.last {
		if _, ok := statuses[id]; !ok {
			delete(h.last, id)
		}
	}
	h.statusMu.Unlock()

	for _, c := range changes {
		h.log.Info("Round status changed", "round_id", c.id, "status", c.status)
		h.BroadcastMessage(TypeRoundStatus, map[string]interface{}{
			"round_id": c.id,
			"status":   c.status,
		})
	}
}
