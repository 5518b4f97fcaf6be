package domain

import (
	"encoding/json"
	"time"
)

// EventKind defines the type of real-time event.
type EventKind string

const (
	EventOrderStatus            EventKind = "ORDER_STATUS_UPDATE"
	EventDeliveryLocation       EventKind = "DELIVERY_LOCATION_UPDATE"
	EventChatMessage            EventKind = "CHAT_MESSAGE"
	EventRestaurantNotification EventKind = "RESTAURANT_NOTIFICATION"
	EventDirectNotification     EventKind = "NOTIFICATION"
)

// RoomKey identifies a multicast topic. Keys are namespaced by kind so the
// same entity id cannot collide across kinds.
type RoomKey string

// OrderRoom is the topic carrying status changes and chat for one order.
func OrderRoom(orderID string) RoomKey {
	return RoomKey("order:" + orderID)
}

// DeliveryRoom is the topic carrying driver location updates for one order.
func DeliveryRoom(orderID string) RoomKey {
	return RoomKey("delivery:" + orderID)
}

// RestaurantRoom is the topic carrying new/updated orders for restaurant staff.
func RestaurantRoom(restaurantID string) RoomKey {
	return RoomKey("restaurant:" + restaurantID)
}

// EventPayload is the closed set of payloads an Event may carry. The
// unexported method keeps the variant set sealed to this package so routing
// switches stay exhaustive.
type EventPayload interface {
	eventKind() EventKind
}

// OrderStatusPayload announces a status change on one order.
type OrderStatusPayload struct {
	OrderID string      `json:"orderId"`
	Status  OrderStatus `json:"status"`
	Data    any         `json:"data,omitempty"`
}

// DeliveryLocationPayload carries the driver's latest position for one order.
type DeliveryLocationPayload struct {
	OrderID    string      `json:"orderId"`
	Location   Coordinate  `json:"location"`
	DriverInfo *DriverInfo `json:"driverInfo,omitempty"`
}

// ChatMessagePayload carries a chat message scoped to one order.
type ChatMessagePayload struct {
	OrderID  string `json:"orderId"`
	SenderID string `json:"senderId,omitempty"`
	Message  string `json:"message"`
}

// RestaurantNotificationPayload announces order activity to restaurant staff.
type RestaurantNotificationPayload struct {
	RestaurantID string          `json:"restaurantId"`
	Payload      json.RawMessage `json:"payload"`
}

// DirectNotificationPayload is routed to every connection of one user,
// bypassing rooms. The user id routes the event and is not part of the body.
type DirectNotificationPayload struct {
	UserID  string          `json:"-"`
	Payload json.RawMessage `json:"payload"`
}

func (OrderStatusPayload) eventKind() EventKind            { return EventOrderStatus }
func (DeliveryLocationPayload) eventKind() EventKind       { return EventDeliveryLocation }
func (ChatMessagePayload) eventKind() EventKind            { return EventChatMessage }
func (RestaurantNotificationPayload) eventKind() EventKind { return EventRestaurantNotification }
func (DirectNotificationPayload) eventKind() EventKind     { return EventDirectNotification }

// Event is the payload sent over WebSocket. The timestamp is assigned by the
// hub at emission time so receivers can discard stale duplicates.
type Event struct {
	Kind      EventKind    `json:"type"`
	Payload   EventPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewEvent builds an event for the given payload. The timestamp is left zero;
// the hub stamps it when the event is actually emitted.
func NewEvent(payload EventPayload) Event {
	return Event{
		Kind:    payload.eventKind(),
		Payload: payload,
	}
}

// Room resolves the target room for room-routed events. The second return is
// false for direct notifications, which route by user instead.
func (e Event) Room() (RoomKey, bool) {
	switch p := e.Payload.(type) {
	case OrderStatusPayload:
		return OrderRoom(p.OrderID), true
	case ChatMessagePayload:
		return OrderRoom(p.OrderID), true
	case DeliveryLocationPayload:
		return DeliveryRoom(p.OrderID), true
	case RestaurantNotificationPayload:
		return RestaurantRoom(p.RestaurantID), true
	case DirectNotificationPayload:
		return "", false
	}
	return "", false
}

// RecipientUserID resolves the target user for direct notifications.
func (e Event) RecipientUserID() (string, bool) {
	if p, ok := e.Payload.(DirectNotificationPayload); ok {
		return p.UserID, true
	}
	return "", false
}

// DriverInfo is a lightweight driver reference attached to location updates.
type DriverInfo struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}
