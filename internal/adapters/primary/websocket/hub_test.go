package websocket

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/quickbite/order-hub/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHub() *Hub {
	return NewHub(testLogger())
}

// newTestClient registers a fresh connection with the hub, bypassing the
// transport layer.
func newTestClient(h *Hub) *Client {
	c := NewClient(h, nil, nil, testLogger())
	h.registerClient(c)
	return c
}

// receive pops one queued event from the client's send buffer.
func receive(t *testing.T, c *Client) domain.Event {
	t.Helper()
	select {
	case event := <-c.Send:
		return event
	default:
		t.Fatal("expected a queued event, got none")
		return domain.Event{}
	}
}

func assertNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case event := <-c.Send:
		t.Fatalf("expected no event, got %s", event.Kind)
	default:
	}
}

func stampedStatusEvent(orderID string, status domain.OrderStatus) domain.Event {
	event := domain.NewEvent(domain.OrderStatusPayload{OrderID: orderID, Status: status})
	event.Timestamp = time.Now().UTC()
	return event
}

func TestHub_RoomBroadcastReachesOnlyMembers(t *testing.T) {
	h := newTestHub()

	inRoom1 := newTestClient(h)
	inRoom2 := newTestClient(h)
	outside := newTestClient(h)

	h.Join(inRoom1, domain.OrderRoom("order-7"))
	h.Join(inRoom2, domain.OrderRoom("order-7"))
	h.Join(outside, domain.OrderRoom("order-8"))

	h.dispatchEvent(stampedStatusEvent("order-7", domain.StatusPreparing))

	for _, c := range []*Client{inRoom1, inRoom2} {
		event := receive(t, c)
		assert.Equal(t, domain.EventOrderStatus, event.Kind)
		assert.False(t, event.Timestamp.IsZero())
	}
	assertNoEvent(t, outside)
}

func TestHub_CustomerOutsideOrderRoomReceivesNothing(t *testing.T) {
	h := newTestHub()

	customer := newTestClient(h)
	h.Authenticate(customer, "u-customer")
	// Never joins order:order-7.

	h.dispatchEvent(stampedStatusEvent("order-7", domain.StatusReady))

	assertNoEvent(t, customer)
}

func TestHub_DirectNotificationReachesAllUserConnections(t *testing.T) {
	h := newTestHub()

	tab1 := newTestClient(h)
	tab2 := newTestClient(h)
	other := newTestClient(h)

	h.Authenticate(tab1, "u1")
	h.Authenticate(tab2, "u1")
	h.Authenticate(other, "u2")

	event := domain.NewEvent(domain.DirectNotificationPayload{UserID: "u1", Payload: []byte(`{"m":"hi"}`)})
	event.Timestamp = time.Now().UTC()
	h.dispatchEvent(event)

	assert.Equal(t, domain.EventDirectNotification, receive(t, tab1).Kind)
	assert.Equal(t, domain.EventDirectNotification, receive(t, tab2).Kind)
	assertNoEvent(t, other)
}

func TestHub_LeaveStopsDelivery(t *testing.T) {
	h := newTestHub()

	c := newTestClient(h)
	room := domain.OrderRoom("order-7")
	h.Join(c, room)
	assert.True(t, c.InRoom(room))

	// Rejoining an already-joined room changes nothing.
	h.Join(c, room)
	assert.Len(t, h.MembersOf(room), 1)

	h.dispatchEvent(stampedStatusEvent("order-7", domain.StatusConfirmed))
	receive(t, c)

	h.Leave(c, room)
	assert.False(t, c.InRoom(room))
	h.dispatchEvent(stampedStatusEvent("order-7", domain.StatusPreparing))
	assertNoEvent(t, c)

	// Leave is idempotent.
	h.Leave(c, room)
}

func TestHub_UnregisterCleansUpEverything(t *testing.T) {
	h := newTestHub()

	c := newTestClient(h)
	h.Authenticate(c, "u1")
	h.Join(c, domain.OrderRoom("order-1"))
	h.Join(c, domain.DeliveryRoom("order-1"))

	h.unregisterClient(c)

	assert.Empty(t, h.SocketsFor("u1"))
	assert.Empty(t, h.MembersOf(domain.OrderRoom("order-1")))
	assert.Empty(t, h.MembersOf(domain.DeliveryRoom("order-1")))
	assert.Zero(t, h.RoomCount())
	assert.Zero(t, h.ConnectionCount())
	assert.False(t, h.IsUserConnected("u1"))

	// A second disconnect for the same connection is a no-op, not an error.
	h.unregisterClient(c)
}

func TestHub_UnregisterNeverAuthenticatedConnection(t *testing.T) {
	h := newTestHub()

	c := newTestClient(h)
	h.unregisterClient(c)

	assert.Zero(t, h.ConnectionCount())
}

func TestHub_UserSetPrunedOnlyWhenLastConnectionCloses(t *testing.T) {
	h := newTestHub()

	tab1 := newTestClient(h)
	tab2 := newTestClient(h)
	h.Authenticate(tab1, "u1")
	h.Authenticate(tab2, "u1")

	h.unregisterClient(tab1)
	assert.True(t, h.IsUserConnected("u1"))
	require.Len(t, h.SocketsFor("u1"), 1)

	h.unregisterClient(tab2)
	assert.False(t, h.IsUserConnected("u1"))
	assert.Empty(t, h.SocketsFor("u1"))
}

func TestHub_AuthenticateIsIdempotent(t *testing.T) {
	h := newTestHub()

	c := newTestClient(h)
	h.Authenticate(c, "u1")
	h.Authenticate(c, "u1")

	assert.Len(t, h.SocketsFor("u1"), 1)
}

func TestHub_ReauthenticateRebindsConnection(t *testing.T) {
	h := newTestHub()

	c := newTestClient(h)
	h.Authenticate(c, "u1")
	h.Authenticate(c, "u2")

	assert.Empty(t, h.SocketsFor("u1"), "old identity keeps no stale entry")
	assert.Len(t, h.SocketsFor("u2"), 1)
	assert.Equal(t, "u2", c.UserID())
}

func TestHub_AuthenticateUnknownConnectionIsNoOp(t *testing.T) {
	h := newTestHub()

	ghost := NewClient(h, nil, nil, testLogger())
	h.Authenticate(ghost, "u1")

	assert.Empty(t, h.SocketsFor("u1"))
}

func TestHub_AttachRegistersAndBinds(t *testing.T) {
	h := newTestHub()

	c := NewClient(h, nil, nil, testLogger())
	h.Attach(c, "u1")

	assert.Equal(t, 1, h.ConnectionCount())
	assert.Equal(t, []uuid.UUID{c.ID}, h.SocketsFor("u1"))

	anon := NewClient(h, nil, nil, testLogger())
	h.Attach(anon, "")

	assert.Equal(t, 2, h.ConnectionCount())
	assert.Empty(t, anon.UserID())
}

func TestHub_AnonymousConnectionCanObserveRooms(t *testing.T) {
	h := newTestHub()

	// A restaurant dashboard that never authenticated still receives room
	// traffic; only direct notifications require a bound identity.
	c := newTestClient(h)
	h.Join(c, domain.RestaurantRoom("r-9"))

	event := domain.NewEvent(domain.RestaurantNotificationPayload{
		RestaurantID: "r-9",
		Payload:      []byte(`{"orderId":"order-1"}`),
	})
	event.Timestamp = time.Now().UTC()
	h.dispatchEvent(event)

	assert.Equal(t, domain.EventRestaurantNotification, receive(t, c).Kind)
}

func TestHub_EmptyTargetDropsSilently(t *testing.T) {
	h := newTestHub()

	// No members anywhere; dispatch must not panic or error.
	h.dispatchEvent(stampedStatusEvent("order-404", domain.StatusReady))

	event := domain.NewEvent(domain.DirectNotificationPayload{UserID: "nobody", Payload: []byte(`{}`)})
	h.dispatchEvent(event)
}

func TestHub_SlowClientDoesNotAffectOthers(t *testing.T) {
	h := newTestHub()

	slow := newTestClient(h)
	healthy := newTestClient(h)
	room := domain.DeliveryRoom("order-42")
	h.Join(slow, room)
	h.Join(healthy, room)

	// Saturate the slow client's buffer.
	for i := 0; i < sendBufferSize; i++ {
		slow.Send <- domain.Event{Kind: domain.EventDeliveryLocation}
	}

	event := domain.NewEvent(domain.DeliveryLocationPayload{
		OrderID:  "order-42",
		Location: domain.Coordinate{Latitude: 13.75, Longitude: 100.50},
	})
	event.Timestamp = time.Now().UTC()
	h.dispatchEvent(event)

	// The healthy member still gets the update.
	got := receive(t, healthy)
	assert.Equal(t, domain.EventDeliveryLocation, got.Kind)

	// The slow member stays registered; it recovers via polling.
	assert.Contains(t, h.MembersOf(room), slow.ID)
}

func TestHub_RunLoopStampsTimestamps(t *testing.T) {
	h := newTestHub()
	go h.Run()

	c := NewClient(h, nil, nil, testLogger())
	h.Register <- c

	require.Eventually(t, func() bool {
		return h.ConnectionCount() == 1
	}, time.Second, 10*time.Millisecond)

	h.Join(c, domain.DeliveryRoom("order-42"))

	before := time.Now().UTC()
	err := h.Broadcast(domain.NewEvent(domain.DeliveryLocationPayload{
		OrderID:  "order-42",
		Location: domain.Coordinate{Latitude: 13.7563, Longitude: 100.5018},
	}))
	require.NoError(t, err)

	select {
	case event := <-c.Send:
		assert.Equal(t, domain.EventDeliveryLocation, event.Kind)
		assert.False(t, event.Timestamp.Before(before))
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for dispatched event")
	}

	h.Unregister <- c
	require.Eventually(t, func() bool {
		return h.ConnectionCount() == 0
	}, time.Second, 10*time.Millisecond)
}
