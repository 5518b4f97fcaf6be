package ports

import (
	"context"

	"github.com/quickbite/order-hub/internal/core/domain"
)

// OrderRepository is the port to the persistent order store. The hub never
// consults it to decide whether to emit; it serves the snapshot reads that
// back the client polling contract.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, orderID string) (*domain.Order, error)
	Update(ctx context.Context, order *domain.Order) (*domain.Order, error)
	ListByRestaurant(ctx context.Context, restaurantID string, activeOnly bool) ([]*domain.Order, error)

	// ListOffered returns orders that are ready for pickup and have no driver
	// assigned yet. Drivers rank these by proximity.
	ListOffered(ctx context.Context) ([]*domain.Order, error)
}

// DriverPositionRepository persists the authoritative "current driver
// position" field. The hub itself keeps no location history.
type DriverPositionRepository interface {
	Upsert(ctx context.Context, pos *domain.DriverPosition) error
	GetByOrder(ctx context.Context, orderID string) (*domain.DriverPosition, error)
}
