package websocket

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quickbite/order-hub/internal/core/domain"
	"github.com/quickbite/order-hub/internal/core/ports"
)

// Hub maintains the set of active Clients and routes events to them.
type Hub struct {
	// connections tracks every open connection by id, authenticated or not.
	connections map[uuid.UUID]*Client

	// clients maps user IDs to their authenticated connections.
	// A single user can have multiple connections (multiple tabs/devices).
	clients map[string]map[*Client]bool

	// rooms maps room keys to subscribed clients.
	rooms map[domain.RoomKey]map[*Client]bool

	// Broadcast channel for events
	broadcast chan domain.Event

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	// mu protects the connections, clients and rooms maps
	mu sync.RWMutex

	// logger for the hub
	logger *slog.Logger
}

// Ensure Hub implements the EventBroadcaster interface.
var _ ports.EventBroadcaster = (*Hub)(nil)

// NewHub creates a new WebSocket hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID]*Client),
		clients:     make(map[string]map[*Client]bool),
		rooms:       make(map[domain.RoomKey]map[*Client]bool),
		broadcast:   make(chan domain.Event, 256),
		Register:    make(chan *Client),
		Unregister:  make(chan *Client),
		logger:      logger.With("component", "websocket_hub"),
	}
}

// Broadcast stamps the event with the emission time and hands it to the hub's
// dispatch loop. This method implements the ports.EventBroadcaster interface.
func (h *Hub) Broadcast(event domain.Event) error {
	event.Timestamp = time.Now().UTC()

	select {
	case h.broadcast <- event:
		return nil
	default:
		h.logger.Warn("broadcast channel full, dropping event",
			"event_kind", event.Kind,
		)
		return nil
	}
}

// Run starts the hub's event loop. This MUST be run as a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.dispatchEvent(event)
		}
	}
}

// registerClient adds an open, not yet authenticated connection to the hub.
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[client.ID] = client

	h.logger.Info("connection registered",
		"connection_id", client.ID,
		"total_connections", len(h.connections),
	)
}

// Attach registers a connection and optionally binds it to a user in one
// step. Used for upgrade-time token binding, where going through the
// Register queue would let the bind race the registration.
func (h *Hub) Attach(client *Client, userID string) {
	h.registerClient(client)
	if userID != "" {
		h.Authenticate(client, userID)
	}
}

// Authenticate binds a connection to a user identity. It is idempotent;
// authenticating with a different user id rebinds the connection so a tab can
// switch accounts without reconnecting. Unknown connections are a no-op.
func (h *Hub) Authenticate(client *Client, userID string) {
	if userID == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, known := h.connections[client.ID]; !known {
		return
	}

	previous := client.UserID()
	if previous == userID {
		return
	}

	if previous != "" {
		h.removeFromUserSetLocked(client, previous)
	}

	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*Client]bool)
	}
	h.clients[userID][client] = true
	client.setUserID(userID)

	h.logger.Info("connection authenticated",
		"connection_id", client.ID,
		"user_id", userID,
		"user_connections", len(h.clients[userID]),
	)
}

// unregisterClient removes a connection from the hub, its user's set and all
// rooms. Safe to call for connections that were never authenticated, and a
// no-op for connections already cleaned up (transports may deliver disconnect
// twice).
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, known := h.connections[client.ID]; !known {
		return
	}
	delete(h.connections, client.ID)

	if userID := client.UserID(); userID != "" {
		h.removeFromUserSetLocked(client, userID)
	}

	for _, room := range client.roomList() {
		h.removeFromRoomLocked(client, room)
	}

	client.CloseSend()

	h.logger.Info("connection unregistered",
		"connection_id", client.ID,
	)
}

// removeFromUserSetLocked prunes the user's entry entirely once its last
// connection is gone, so no stale empty sets linger. Callers must hold mu.
func (h *Hub) removeFromUserSetLocked(client *Client, userID string) {
	userClients, ok := h.clients[userID]
	if !ok {
		return
	}
	delete(userClients, client)
	if len(userClients) == 0 {
		delete(h.clients, userID)
	}
}

// removeFromRoomLocked prunes empty rooms; rooms exist only while occupied.
// Callers must hold mu.
func (h *Hub) removeFromRoomLocked(client *Client, room domain.RoomKey) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, client)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// Join adds a connection to a room, creating the room implicitly. Joining
// does not require authentication: anonymous observation of an order's rooms
// is permitted so tracking links work before login.
func (h *Hub) Join(client *Client, room domain.RoomKey) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, known := h.connections[client.ID]; !known {
		return
	}
	if client.InRoom(room) {
		return
	}

	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][client] = true
	client.addRoom(room)

	h.logger.Debug("connection joined room",
		"connection_id", client.ID,
		"room", room,
	)
}

// Leave removes a connection from a room. Idempotent.
func (h *Hub) Leave(client *Client, room domain.RoomKey) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromRoomLocked(client, room)
	client.removeRoom(room)

	h.logger.Debug("connection left room",
		"connection_id", client.ID,
		"room", room,
	)
}

// dispatchEvent routes an event to every connection in its target room, or to
// every connection of the target user for direct notifications. A target with
// no live connections drops the event silently; polling is the backstop.
func (h *Hub) dispatchEvent(event domain.Event) {
	var targets []*Client

	if room, ok := event.Room(); ok {
		targets = h.roomMembers(room)
	} else if userID, ok := event.RecipientUserID(); ok {
		targets = h.userConnections(userID)
	} else {
		h.logger.Warn("event with no routable target", "event_kind", event.Kind)
		return
	}

	if len(targets) == 0 {
		return
	}

	h.logger.Debug("dispatching event",
		"event_kind", event.Kind,
		"target_count", len(targets),
	)

	for _, client := range targets {
		select {
		case client.Send <- event:
			// Successfully queued
		default:
			// The client's send buffer is full. Drop the event for this
			// connection only; the client recovers via its poll cycle.
			h.logger.Warn("client send buffer full, dropping event",
				"connection_id", client.ID,
				"event_kind", event.Kind,
			)
		}
	}
}

// roomMembers copies the member list so no lock is held while sending.
func (h *Hub) roomMembers(room domain.RoomKey) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members, ok := h.rooms[room]
	if !ok {
		return nil
	}
	targets := make([]*Client, 0, len(members))
	for client := range members {
		targets = append(targets, client)
	}
	return targets
}

// userConnections copies the user's connection list under the read lock.
func (h *Hub) userConnections(userID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.clients[userID]
	if !ok {
		return nil
	}
	targets := make([]*Client, 0, len(clients))
	for client := range clients {
		targets = append(targets, client)
	}
	return targets
}

// SocketsFor returns the connection ids currently bound to a user, or an
// empty slice if the user has none.
func (h *Hub) SocketsFor(userID string) []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(h.clients[userID]))
	for client := range h.clients[userID] {
		ids = append(ids, client.ID)
	}
	return ids
}

// MembersOf returns the connection ids currently subscribed to a room.
func (h *Hub) MembersOf(room domain.RoomKey) []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(h.rooms[room]))
	for client := range h.rooms[room] {
		ids = append(ids, client.ID)
	}
	return ids
}

// ConnectionCount returns the total number of open connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// RoomCount returns the number of occupied rooms.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// IsUserConnected checks if a user has any live connections.
func (h *Hub) IsUserConnected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.clients[userID]
	return ok && len(clients) > 0
}
