package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quickbite/order-hub/internal/core/domain"
	apperrors "github.com/quickbite/order-hub/internal/core/errors"
	"github.com/quickbite/order-hub/internal/core/ports"
)

// OrderRepository is the secondary adapter for order persistence.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// Ensure OrderRepository implements the ports.OrderRepository interface.
var _ ports.OrderRepository = (*OrderRepository)(nil)

// NewOrderRepository creates a new order repository.
func NewOrderRepository(pool *pgxpool.Pool) ports.OrderRepository {
	return &OrderRepository{pool: pool}
}

const orderColumns = `
	id, restaurant_id, customer_id, driver_id, status,
	pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
	created_at, updated_at
`

// scanOrder maps one row to a domain order. Nullable columns use pgtype so
// "unknown" survives the round trip instead of turning into zero values.
func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		order      domain.Order
		driverID   pgtype.Text
		pickupLat  pgtype.Float8
		pickupLng  pgtype.Float8
		dropoffLat pgtype.Float8
		dropoffLng pgtype.Float8
		createdAt  pgtype.Timestamptz
		updatedAt  pgtype.Timestamptz
	)

	err := row.Scan(
		&order.ID, &order.RestaurantID, &order.CustomerID, &driverID, &order.Status,
		&pickupLat, &pickupLng, &dropoffLat, &dropoffLng,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if driverID.Valid {
		order.DriverID = &driverID.String
	}
	if pickupLat.Valid && pickupLng.Valid {
		order.Pickup = &domain.Coordinate{Latitude: pickupLat.Float64, Longitude: pickupLng.Float64}
	}
	if dropoffLat.Valid && dropoffLng.Valid {
		order.Dropoff = &domain.Coordinate{Latitude: dropoffLat.Float64, Longitude: dropoffLng.Float64}
	}
	order.CreatedAt = createdAt.Time
	if updatedAt.Valid {
		order.UpdatedAt = &updatedAt.Time
	}

	return &order, nil
}

func coordinateParams(c *domain.Coordinate) (pgtype.Float8, pgtype.Float8) {
	if c == nil {
		return pgtype.Float8{}, pgtype.Float8{}
	}
	return pgtype.Float8{Float64: c.Latitude, Valid: true},
		pgtype.Float8{Float64: c.Longitude, Valid: true}
}

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	driverID := pgtype.Text{}
	if order.DriverID != nil {
		driverID = pgtype.Text{String: *order.DriverID, Valid: true}
	}
	pickupLat, pickupLng := coordinateParams(order.Pickup)
	dropoffLat, dropoffLng := coordinateParams(order.Dropoff)

	row := GetDBTX(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO orders (
			id, restaurant_id, customer_id, driver_id, status,
			pickup_lat, pickup_lng, dropoff_lat, dropoff_lng
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+orderColumns,
		order.ID, order.RestaurantID, order.CustomerID, driverID, string(order.Status),
		pickupLat, pickupLng, dropoffLat, dropoffLng,
	)

	return scanOrder(row)
}

// GetByID retrieves a single order by its ID.
func (r *OrderRepository) GetByID(ctx context.Context, orderID string) (*domain.Order, error) {
	row := GetDBTX(ctx, r.pool).QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID)

	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// Update persists the order's mutable fields.
func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	driverID := pgtype.Text{}
	if order.DriverID != nil {
		driverID = pgtype.Text{String: *order.DriverID, Valid: true}
	}
	updatedAt := pgtype.Timestamptz{}
	if order.UpdatedAt != nil {
		updatedAt = pgtype.Timestamptz{Time: *order.UpdatedAt, Valid: true}
	}

	row := GetDBTX(ctx, r.pool).QueryRow(ctx, `
		UPDATE orders
		SET status = $2, driver_id = $3, updated_at = $4
		WHERE id = $1
		RETURNING `+orderColumns,
		order.ID, string(order.Status), driverID, updatedAt,
	)

	updated, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, err
	}
	return updated, nil
}

// ListByRestaurant returns a restaurant's orders, newest first.
func (r *OrderRepository) ListByRestaurant(ctx context.Context, restaurantID string, activeOnly bool) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE restaurant_id = $1`
	if activeOnly {
		query += ` AND status NOT IN ('DELIVERED', 'CANCELLED')`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, query, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectOrders(rows)
}

// ListOffered returns orders ready for pickup with no driver assigned.
func (r *OrderRepository) ListOffered(ctx context.Context) ([]*domain.Order, error) {
	rows, err := GetDBTX(ctx, r.pool).Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE status = 'READY' AND driver_id IS NULL
		ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectOrders(rows)
}

func collectOrders(rows pgx.Rows) ([]*domain.Order, error) {
	orders := make([]*domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}
