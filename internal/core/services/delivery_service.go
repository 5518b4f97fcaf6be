package services

import (
	"context"
	"log/slog"

	"github.com/quickbite/order-hub/internal/core/domain"
	apperrors "github.com/quickbite/order-hub/internal/core/errors"
	"github.com/quickbite/order-hub/internal/core/ports"
)

// DeliveryService ranks currently offered deliveries by proximity to the
// driver. A read-only convenience, never a correctness-critical ordering.
type DeliveryService struct {
	orders ports.OrderRepository
	logger *slog.Logger
}

var _ ports.DeliveryService = (*DeliveryService)(nil)

// NewDeliveryService creates a new delivery service.
func NewDeliveryService(orders ports.OrderRepository, logger *slog.Logger) ports.DeliveryService {
	return &DeliveryService{
		orders: orders,
		logger: logger.With("component", "delivery_service"),
	}
}

// NearbyDeliveries lists orders ready for pickup with no driver assigned,
// nearest first. Orders whose restaurant has no coordinates on file rank last
// with an unknown distance.
func (s *DeliveryService) NearbyDeliveries(ctx context.Context, from domain.Coordinate) ([]domain.DeliveryOffer, error) {
	if !from.Valid() {
		return nil, apperrors.ErrInvalidCoordinates
	}

	orders, err := s.orders.ListOffered(ctx)
	if err != nil {
		return nil, err
	}

	offers := make([]domain.DeliveryOffer, 0, len(orders))
	for _, order := range orders {
		offers = append(offers, domain.DeliveryOffer{
			OrderID:      order.ID,
			RestaurantID: order.RestaurantID,
			Pickup:       order.Pickup,
		})
	}

	return domain.RankByProximity(from, offers), nil
}
