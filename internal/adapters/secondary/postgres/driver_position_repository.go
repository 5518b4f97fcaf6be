package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quickbite/order-hub/internal/core/domain"
	apperrors "github.com/quickbite/order-hub/internal/core/errors"
	"github.com/quickbite/order-hub/internal/core/ports"
)

// DriverPositionRepository is the secondary adapter for the "current driver
// position" field. One row per order; overwritten on every accepted sample.
type DriverPositionRepository struct {
	pool *pgxpool.Pool
}

var _ ports.DriverPositionRepository = (*DriverPositionRepository)(nil)

// NewDriverPositionRepository creates a new driver position repository.
func NewDriverPositionRepository(pool *pgxpool.Pool) ports.DriverPositionRepository {
	return &DriverPositionRepository{pool: pool}
}

// Upsert writes the latest position for an order.
func (r *DriverPositionRepository) Upsert(ctx context.Context, pos *domain.DriverPosition) error {
	_, err := GetDBTX(ctx, r.pool).Exec(ctx, `
		INSERT INTO driver_positions (order_id, driver_id, latitude, longitude, captured_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (order_id) DO UPDATE
		SET driver_id = EXCLUDED.driver_id,
		    latitude = EXCLUDED.latitude,
		    longitude = EXCLUDED.longitude,
		    captured_at = EXCLUDED.captured_at`,
		pos.OrderID, pos.DriverID, pos.Location.Latitude, pos.Location.Longitude, pos.CapturedAt,
	)
	return err
}

// GetByOrder returns the last written position for an order.
func (r *DriverPositionRepository) GetByOrder(ctx context.Context, orderID string) (*domain.DriverPosition, error) {
	var pos domain.DriverPosition

	err := GetDBTX(ctx, r.pool).QueryRow(ctx, `
		SELECT order_id, driver_id, latitude, longitude, captured_at
		FROM driver_positions
		WHERE order_id = $1`,
		orderID,
	).Scan(&pos.OrderID, &pos.DriverID, &pos.Location.Latitude, &pos.Location.Longitude, &pos.CapturedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrPositionNotFound
		}
		return nil, err
	}

	return &pos, nil
}
