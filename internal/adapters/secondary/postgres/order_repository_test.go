package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickbite/order-hub/internal/core/domain"
	apperrors "github.com/quickbite/order-hub/internal/core/errors"
)

func cleanTables(t *testing.T, ctx context.Context) {
	t.Helper()
	_, err := testPool.Exec(ctx, "TRUNCATE orders CASCADE")
	require.NoError(t, err)
}

// newTestOrder builds an order with a unique id so tests stay independent.
func newTestOrder(restaurantID string) *domain.Order {
	return &domain.Order{
		ID:           "order-" + uuid.NewString(),
		RestaurantID: restaurantID,
		CustomerID:   "u1",
		Status:       domain.StatusPending,
		Pickup:       &domain.Coordinate{Latitude: 13.7563, Longitude: 100.5018},
	}
}

func TestOrderRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	cleanTables(t, ctx)
	repo := NewOrderRepository(testPool)

	created, err := repo.Create(ctx, newTestOrder("r-1"))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, domain.StatusPending, created.Status)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Nil(t, created.UpdatedAt)
	assert.Nil(t, created.DriverID)
	require.NotNil(t, created.Pickup)
	assert.InDelta(t, 13.7563, created.Pickup.Latitude, 1e-9)

	fetched, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "u1", fetched.CustomerID)
}

func TestOrderRepository_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	cleanTables(t, ctx)
	repo := NewOrderRepository(testPool)

	_, err := repo.GetByID(ctx, "order-missing")
	assert.ErrorIs(t, err, apperrors.ErrOrderNotFound)
}

func TestOrderRepository_Update(t *testing.T) {
	ctx := context.Background()
	cleanTables(t, ctx)
	repo := NewOrderRepository(testPool)

	created, err := repo.Create(ctx, newTestOrder("r-1"))
	require.NoError(t, err)

	require.NoError(t, created.UpdateStatus(domain.StatusConfirmed))
	driverID := "driver-7"
	created.DriverID = &driverID

	updated, err := repo.Update(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, updated.Status)
	require.NotNil(t, updated.DriverID)
	assert.Equal(t, "driver-7", *updated.DriverID)
	require.NotNil(t, updated.UpdatedAt)
	assert.WithinDuration(t, time.Now(), *updated.UpdatedAt, 5*time.Second)
}

func TestOrderRepository_ListByRestaurant(t *testing.T) {
	ctx := context.Background()
	cleanTables(t, ctx)
	repo := NewOrderRepository(testPool)

	active, err := repo.Create(ctx, newTestOrder("r-1"))
	require.NoError(t, err)

	done := newTestOrder("r-1")
	done.Status = domain.StatusDelivered
	_, err = repo.Create(ctx, done)
	require.NoError(t, err)

	_, err = repo.Create(ctx, newTestOrder("r-2"))
	require.NoError(t, err)

	activeOnly, err := repo.ListByRestaurant(ctx, "r-1", true)
	require.NoError(t, err)
	require.Len(t, activeOnly, 1)
	assert.Equal(t, active.ID, activeOnly[0].ID)

	all, err := repo.ListByRestaurant(ctx, "r-1", false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestOrderRepository_ListOffered(t *testing.T) {
	ctx := context.Background()
	cleanTables(t, ctx)
	repo := NewOrderRepository(testPool)

	offered := newTestOrder("r-1")
	offered.Status = domain.StatusReady
	_, err := repo.Create(ctx, offered)
	require.NoError(t, err)

	// READY but already assigned: not offered.
	assigned := newTestOrder("r-1")
	assigned.Status = domain.StatusReady
	driverID := "driver-7"
	assigned.DriverID = &driverID
	_, err = repo.Create(ctx, assigned)
	require.NoError(t, err)

	// Still cooking: not offered.
	_, err = repo.Create(ctx, newTestOrder("r-1"))
	require.NoError(t, err)

	offers, err := repo.ListOffered(ctx)
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, offered.ID, offers[0].ID)
}
