package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/quickbite/order-hub/internal/core/domain"
	apperrors "github.com/quickbite/order-hub/internal/core/errors"
	"github.com/quickbite/order-hub/internal/core/ports"
)

// OrderService implements the snapshot reads behind the client polling
// contract and the staff-side status updates that fan out real-time events.
type OrderService struct {
	orders      ports.OrderRepository
	positions   ports.DriverPositionRepository
	notifier    ports.Notifier
	broadcaster ports.EventBroadcaster
	logger      *slog.Logger
	wg          sync.WaitGroup
}

var _ ports.OrderService = (*OrderService)(nil)

// NewOrderService creates a new order service.
func NewOrderService(
	orders ports.OrderRepository,
	positions ports.DriverPositionRepository,
	notifier ports.Notifier,
	broadcaster ports.EventBroadcaster,
	logger *slog.Logger,
) ports.OrderService {
	return &OrderService{
		orders:      orders,
		positions:   positions,
		notifier:    notifier,
		broadcaster: broadcaster,
		logger:      logger.With("component", "order_service"),
	}
}

// GetOrder returns the authoritative order snapshot. No auth required;
// tracking links have to work before login, like anonymous room joins.
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	if orderID == "" {
		return nil, apperrors.ErrOrderIDRequired
	}
	return s.orders.GetByID(ctx, orderID)
}

// GetDeliveryLocation returns the last persisted driver position.
func (s *OrderService) GetDeliveryLocation(ctx context.Context, orderID string) (*domain.DriverPosition, error) {
	if orderID == "" {
		return nil, apperrors.ErrOrderIDRequired
	}
	return s.positions.GetByOrder(ctx, orderID)
}

// ListRestaurantOrders returns a restaurant's orders for the staff dashboard.
func (s *OrderService) ListRestaurantOrders(ctx context.Context, restaurantID string, activeOnly bool) ([]*domain.Order, error) {
	if restaurantID == "" {
		return nil, apperrors.ErrRestaurantIDRequired
	}
	return s.orders.ListByRestaurant(ctx, restaurantID, activeOnly)
}

// UpdateStatus changes an order's status, persists it, and fans out the
// change: an order-status event to the order room, a notification to the
// restaurant room, and a direct notification to the customer.
func (s *OrderService) UpdateStatus(ctx context.Context, params ports.UpdateOrderStatusParams) (*domain.Order, error) {
	if !domain.ValidOrderStatus(params.Status) {
		return nil, apperrors.ErrInvalidStatus
	}

	order, err := s.orders.GetByID(ctx, params.OrderID)
	if err != nil {
		return nil, err
	}

	// The domain validates the transition.
	if err := order.UpdateStatus(params.Status); err != nil {
		return nil, err
	}

	updated, err := s.orders.Update(ctx, order)
	if err != nil {
		return nil, err
	}

	s.broadcastStatusUpdate(updated)
	if updated.CustomerID != "" && updated.CustomerID != params.ActorID {
		s.notifyCustomer(updated)
	}

	return updated, nil
}

// PostChatMessage relays a chat message to the order's room. The hub keeps no
// chat history; persistence, if any, belongs to the external store.
func (s *OrderService) PostChatMessage(ctx context.Context, params ports.PostChatMessageParams) error {
	if params.OrderID == "" {
		return apperrors.ErrOrderIDRequired
	}
	if params.Message == "" {
		return apperrors.ErrMessageRequired
	}

	return s.broadcaster.Broadcast(domain.NewEvent(domain.ChatMessagePayload{
		OrderID:  params.OrderID,
		SenderID: params.SenderID,
		Message:  params.Message,
	}))
}

// broadcastStatusUpdate emits the real-time fan-out for a status change.
func (s *OrderService) broadcastStatusUpdate(order *domain.Order) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		_ = s.broadcaster.Broadcast(domain.NewEvent(domain.OrderStatusPayload{
			OrderID: order.ID,
			Status:  order.Status,
		}))

		payload, err := marshalEventPayload(map[string]any{
			"orderId": order.ID,
			"status":  order.Status,
		})
		if err != nil {
			s.logger.Error("failed to marshal restaurant notification", "order_id", order.ID, "error", err)
			return
		}

		_ = s.broadcaster.Broadcast(domain.NewEvent(domain.RestaurantNotificationPayload{
			RestaurantID: order.RestaurantID,
			Payload:      payload,
		}))
	}()
}

// notifyCustomer sends the customer a direct notification on every open
// connection, plus an out-of-band push for when none are open.
func (s *OrderService) notifyCustomer(order *domain.Order) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		payload, err := marshalEventPayload(map[string]any{
			"orderId": order.ID,
			"status":  order.Status,
			"message": fmt.Sprintf("Your order is now %s", order.Status),
		})
		if err != nil {
			s.logger.Error("failed to marshal customer notification", "order_id", order.ID, "error", err)
			return
		}

		_ = s.broadcaster.Broadcast(domain.NewEvent(domain.DirectNotificationPayload{
			UserID:  order.CustomerID,
			Payload: payload,
		}))

		// Use a background context since the HTTP request may be done.
		s.notifier.Notify(context.Background(), ports.NotificationParams{
			RecipientUserID: order.CustomerID,
			Message:         fmt.Sprintf("Order %s is now %s", order.ID, order.Status),
			OrderID:         order.ID,
		})
	}()
}

// Shutdown waits for in-flight fan-out goroutines.
func (s *OrderService) Shutdown() {
	s.wg.Wait()
}

func marshalEventPayload(payload any) (json.RawMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal event payload: %w", err)
	}
	return json.RawMessage(data), nil
}
