package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/quickbite/order-hub/internal/core/domain"
	"github.com/quickbite/order-hub/internal/core/ports"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024

	// Outbound buffer per connection; when full, events are dropped for this
	// connection only.
	sendBufferSize = 256
)

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	// ID is the opaque transport-session identifier.
	ID uuid.UUID

	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	// Buffered channel of outbound events.
	Send chan domain.Event

	// locations receives driver position samples from this connection.
	locations ports.LocationIngestor

	// user is the bound identity, empty until an authenticate frame arrives.
	user string

	// rooms tracks this connection's subscriptions.
	rooms map[domain.RoomKey]bool

	// closeOnce ensures the Send channel is only closed once
	closeOnce sync.Once

	// mu protects user and rooms
	mu sync.RWMutex

	logger *slog.Logger
}

// NewClient creates a new, unauthenticated WebSocket client.
func NewClient(hub *Hub, conn *websocket.Conn, locations ports.LocationIngestor, logger *slog.Logger) *Client {
	id := uuid.New()
	return &Client{
		ID:        id,
		Hub:       hub,
		Conn:      conn,
		Send:      make(chan domain.Event, sendBufferSize),
		locations: locations,
		rooms:     make(map[domain.RoomKey]bool),
		logger:    logger.With("connection_id", id.String()),
	}
}

// UserID returns the bound user identity, or empty for anonymous connections.
func (c *Client) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

func (c *Client) setUserID(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = userID
}

// CloseSend safely closes the Send channel exactly once
func (c *Client) CloseSend() {
	c.closeOnce.Do(func() {
		close(c.Send)
	})
}

func (c *Client) addRoom(room domain.RoomKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms[room] = true
}

func (c *Client) removeRoom(room domain.RoomKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rooms, room)
}

// InRoom checks if the client is subscribed to a room.
func (c *Client) InRoom(room domain.RoomKey) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rooms[room]
}

// roomList returns a copy of all subscriptions.
func (c *Client) roomList() []domain.RoomKey {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rooms := make([]domain.RoomKey, 0, len(c.rooms))
	for room := range c.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

// ReadPump pumps messages from the websocket connection to the hub.
// This method runs in its own goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error("failed to set read deadline", "error", err)
		return
	}

	c.Conn.SetPongHandler(func(string) error {
		if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.logger.Error("failed to set read deadline in pong handler", "error", err)
		}
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", "error", err)
			}
			break
		}

		c.handleIncomingMessage(message)
	}
}

// WritePump pumps events from the hub to the websocket connection.
// This method runs in its own goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.Send:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("failed to set write deadline", "error", err)
				return
			}

			if !ok {
				// The hub closed the channel. Send close message.
				if err := c.Conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					c.logger.Debug("failed to send close message", "error", err)
				}
				return
			}

			if err := c.writeJSON(event); err != nil {
				c.logger.Error("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("failed to set write deadline for ping", "error", err)
				return
			}

			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
				return
			}
		}
	}
}

// writeJSON writes a JSON event to the websocket connection
func (c *Client) writeJSON(event domain.Event) error {
	w, err := c.Conn.NextWriter(websocket.TextMessage)
	if err != nil {
		return err
	}

	if err := json.NewEncoder(w).Encode(event); err != nil {
		_ = w.Close()
		return err
	}

	return w.Close()
}

// --- Incoming Message Handling ---

// ClientMessage is the structure for messages sent from the client.
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AuthenticatePayload binds a connection to a user identity.
type AuthenticatePayload struct {
	UserID string `json:"userId"`
}

// OrderRoomPayload addresses a room derived from an order id.
type OrderRoomPayload struct {
	OrderID string `json:"orderId"`
}

// RestaurantRoomPayload addresses a restaurant staff room.
type RestaurantRoomPayload struct {
	RestaurantID string `json:"restaurantId"`
}

// handleIncomingMessage processes messages received from the client. A
// malformed frame is logged and ignored; it never crashes the read loop.
func (c *Client) handleIncomingMessage(message []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Warn("failed to unmarshal client message", "error", err)
		return
	}

	switch msg.Type {
	case "AUTHENTICATE":
		c.handleAuthenticate(msg.Payload)

	case "JOIN_ORDER":
		c.handleRoomChange(msg.Payload, domain.OrderRoom, c.Hub.Join)

	case "LEAVE_ORDER":
		c.handleRoomChange(msg.Payload, domain.OrderRoom, c.Hub.Leave)

	case "JOIN_DELIVERY":
		c.handleRoomChange(msg.Payload, domain.DeliveryRoom, c.Hub.Join)

	case "LEAVE_DELIVERY":
		c.handleRoomChange(msg.Payload, domain.DeliveryRoom, c.Hub.Leave)

	case "JOIN_RESTAURANT":
		c.handleRestaurantRoomChange(msg.Payload, c.Hub.Join)

	case "LEAVE_RESTAURANT":
		c.handleRestaurantRoomChange(msg.Payload, c.Hub.Leave)

	case "UPDATE_LOCATION":
		c.handleLocationUpdate(msg.Payload)

	case "PING":
		// Client-side keep-alive, respond with pong
		c.sendPong()

	default:
		c.logger.Debug("received unknown message type", "type", msg.Type)
	}
}

func (c *Client) handleAuthenticate(payload json.RawMessage) {
	var p AuthenticatePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.logger.Warn("failed to unmarshal authenticate payload", "error", err)
		return
	}

	if p.UserID == "" {
		c.logger.Warn("authenticate frame without user id")
		return
	}

	c.Hub.Authenticate(c, p.UserID)
}

func (c *Client) handleRoomChange(payload json.RawMessage, key func(string) domain.RoomKey, apply func(*Client, domain.RoomKey)) {
	var p OrderRoomPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.logger.Warn("failed to unmarshal room payload", "error", err)
		return
	}

	if p.OrderID == "" {
		c.logger.Warn("room frame without order id")
		return
	}

	apply(c, key(p.OrderID))
}

func (c *Client) handleRestaurantRoomChange(payload json.RawMessage, apply func(*Client, domain.RoomKey)) {
	var p RestaurantRoomPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.logger.Warn("failed to unmarshal restaurant room payload", "error", err)
		return
	}

	if p.RestaurantID == "" {
		c.logger.Warn("restaurant room frame without restaurant id")
		return
	}

	apply(c, domain.RestaurantRoom(p.RestaurantID))
}

func (c *Client) handleLocationUpdate(payload json.RawMessage) {
	if c.locations == nil {
		return
	}

	var sample domain.LocationSample
	if err := json.Unmarshal(payload, &sample); err != nil {
		c.logger.Warn("failed to unmarshal location payload", "error", err)
		return
	}

	// Validation and timestamping happen in the pipeline; ingestion errors
	// are absorbed there and never close the connection.
	if err := c.locations.Ingest(context.Background(), c.UserID(), sample); err != nil {
		c.logger.Warn("location sample rejected", "order_id", sample.OrderID, "error", err)
	}
}

func (c *Client) sendPong() {
	select {
	case c.Send <- domain.Event{Kind: "PONG", Timestamp: time.Now().UTC()}:
	default:
		// Channel full, skip pong response
	}
}
