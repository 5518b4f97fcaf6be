package ports

import (
	"context"

	"github.com/quickbite/order-hub/internal/core/domain"
)

// EventBroadcaster is the port to the real-time hub. Delivery is
// fire-and-forget and at-most-once; an event with no live target is silently
// dropped because polling is the correctness backstop.
type EventBroadcaster interface {
	Broadcast(event domain.Event) error
}

// UpdateOrderStatusParams defines the input for changing an order's status.
type UpdateOrderStatusParams struct {
	OrderID string
	Status  domain.OrderStatus
	ActorID string
}

// PostChatMessageParams defines the input for relaying a chat message to an
// order room.
type PostChatMessageParams struct {
	OrderID  string
	SenderID string
	Message  string
}

// OrderService serves the order snapshot reads behind the polling contract
// and the staff-side mutations that fan out real-time events.
type OrderService interface {
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	GetDeliveryLocation(ctx context.Context, orderID string) (*domain.DriverPosition, error)
	ListRestaurantOrders(ctx context.Context, restaurantID string, activeOnly bool) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, params UpdateOrderStatusParams) (*domain.Order, error)
	PostChatMessage(ctx context.Context, params PostChatMessageParams) error
	Shutdown()
}

// LocationIngestor accepts raw driver position samples from the transport
// layer and feeds validated updates to the hub.
type LocationIngestor interface {
	Ingest(ctx context.Context, driverID string, sample domain.LocationSample) error
}

// DeliveryService lists deliveries currently offered to drivers, ranked by
// proximity to the driver's position.
type DeliveryService interface {
	NearbyDeliveries(ctx context.Context, from domain.Coordinate) ([]domain.DeliveryOffer, error)
}

// NotificationParams defines the input for sending a push notification.
type NotificationParams struct {
	RecipientUserID string
	Message         string
	OrderID         string
}

// Notifier is the port for out-of-band notifications (push/email). Real-time
// delivery to connected clients goes through the EventBroadcaster instead.
type Notifier interface {
	Notify(ctx context.Context, params NotificationParams)
}
