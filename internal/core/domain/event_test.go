package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/quickbite/order-hub/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_RoomRouting(t *testing.T) {
	tests := []struct {
		name    string
		payload domain.EventPayload
		kind    domain.EventKind
		room    domain.RoomKey
	}{
		{
			"order status routes to order room",
			domain.OrderStatusPayload{OrderID: "order-7", Status: domain.StatusPreparing},
			domain.EventOrderStatus,
			domain.OrderRoom("order-7"),
		},
		{
			"chat routes to order room",
			domain.ChatMessagePayload{OrderID: "order-7", Message: "on my way"},
			domain.EventChatMessage,
			domain.OrderRoom("order-7"),
		},
		{
			"location routes to delivery room",
			domain.DeliveryLocationPayload{OrderID: "order-42", Location: domain.Coordinate{Latitude: 13.75, Longitude: 100.50}},
			domain.EventDeliveryLocation,
			domain.DeliveryRoom("order-42"),
		},
		{
			"restaurant notification routes to restaurant room",
			domain.RestaurantNotificationPayload{RestaurantID: "r-9", Payload: json.RawMessage(`{"orderId":"order-1"}`)},
			domain.EventRestaurantNotification,
			domain.RestaurantRoom("r-9"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := domain.NewEvent(tt.payload)
			assert.Equal(t, tt.kind, event.Kind)

			room, ok := event.Room()
			require.True(t, ok)
			assert.Equal(t, tt.room, room)

			_, direct := event.RecipientUserID()
			assert.False(t, direct)
		})
	}
}

func TestEvent_DirectNotificationRoutesByUser(t *testing.T) {
	event := domain.NewEvent(domain.DirectNotificationPayload{
		UserID:  "u1",
		Payload: json.RawMessage(`{"message":"your order is ready"}`),
	})

	_, roomRouted := event.Room()
	assert.False(t, roomRouted)

	userID, ok := event.RecipientUserID()
	require.True(t, ok)
	assert.Equal(t, "u1", userID)
}

func TestRoomKeys_NamespacedByKind(t *testing.T) {
	// The same entity id must never collide across kinds.
	assert.NotEqual(t, domain.OrderRoom("42"), domain.DeliveryRoom("42"))
	assert.NotEqual(t, domain.DeliveryRoom("42"), domain.RestaurantRoom("42"))

	assert.Equal(t, domain.RoomKey("order:42"), domain.OrderRoom("42"))
	assert.Equal(t, domain.RoomKey("delivery:42"), domain.DeliveryRoom("42"))
	assert.Equal(t, domain.RoomKey("restaurant:42"), domain.RestaurantRoom("42"))
}

func TestEvent_JSONShape(t *testing.T) {
	event := domain.NewEvent(domain.DeliveryLocationPayload{
		OrderID:  "order-42",
		Location: domain.Coordinate{Latitude: 13.75, Longitude: 100.50},
	})

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "DELIVERY_LOCATION_UPDATE", decoded["type"])
	payload, ok := decoded["payload"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "order-42", payload["orderId"])
}
