package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/quickbite/order-hub/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrder_UpdateStatus(t *testing.T) {
	t.Run("full delivery lifecycle", func(t *testing.T) {
		order := &domain.Order{ID: "order-1", Status: domain.StatusPending}

		path := []domain.OrderStatus{
			domain.StatusConfirmed,
			domain.StatusPreparing,
			domain.StatusReady,
			domain.StatusPickedUp,
			domain.StatusDelivering,
			domain.StatusDelivered,
		}

		for _, next := range path {
			require.NoError(t, order.UpdateStatus(next))
			assert.Equal(t, next, order.Status)
			require.NotNil(t, order.UpdatedAt)
		}
	})

	t.Run("cancellable before pickup", func(t *testing.T) {
		for _, from := range []domain.OrderStatus{
			domain.StatusPending,
			domain.StatusConfirmed,
			domain.StatusPreparing,
			domain.StatusReady,
		} {
			order := &domain.Order{ID: "order-1", Status: from}
			assert.NoError(t, order.UpdateStatus(domain.StatusCancelled), "from %s", from)
		}
	})

	t.Run("not cancellable after pickup", func(t *testing.T) {
		order := &domain.Order{ID: "order-1", Status: domain.StatusPickedUp}
		assert.ErrorIs(t, order.UpdateStatus(domain.StatusCancelled), domain.ErrInvalidStatusTransition)
	})

	t.Run("no skipping states", func(t *testing.T) {
		order := &domain.Order{ID: "order-1", Status: domain.StatusPending}
		assert.ErrorIs(t, order.UpdateStatus(domain.StatusDelivered), domain.ErrInvalidStatusTransition)
	})

	t.Run("terminal states are final", func(t *testing.T) {
		delivered := &domain.Order{ID: "order-1", Status: domain.StatusDelivered}
		assert.ErrorIs(t, delivered.UpdateStatus(domain.StatusPending), domain.ErrInvalidStatusTransition)

		cancelled := &domain.Order{ID: "order-2", Status: domain.StatusCancelled}
		assert.ErrorIs(t, cancelled.UpdateStatus(domain.StatusConfirmed), domain.ErrInvalidStatusTransition)
	})
}

func TestOrder_Active(t *testing.T) {
	assert.True(t, (&domain.Order{Status: domain.StatusDelivering}).Active())
	assert.False(t, (&domain.Order{Status: domain.StatusDelivered}).Active())
	assert.False(t, (&domain.Order{Status: domain.StatusCancelled}).Active())
}

func floatPtr(v float64) *float64 { return &v }

func TestLocationSample_Validate(t *testing.T) {
	valid := domain.LocationSample{OrderID: "order-42", Latitude: floatPtr(13.75), Longitude: floatPtr(100.50)}
	assert.NoError(t, valid.Validate())

	t.Run("missing order id", func(t *testing.T) {
		s := domain.LocationSample{Latitude: floatPtr(13.75), Longitude: floatPtr(100.50)}
		assert.ErrorIs(t, s.Validate(), domain.ErrOrderIDRequired)
	})

	t.Run("missing coordinates", func(t *testing.T) {
		// An absent field must not be read as an explicit (0,0).
		var s domain.LocationSample
		require.NoError(t, json.Unmarshal([]byte(`{"orderId":"order-42"}`), &s))
		assert.ErrorIs(t, s.Validate(), domain.ErrInvalidCoordinates)
	})

	t.Run("missing longitude only", func(t *testing.T) {
		s := domain.LocationSample{OrderID: "order-42", Latitude: floatPtr(13.75)}
		assert.ErrorIs(t, s.Validate(), domain.ErrInvalidCoordinates)
	})

	t.Run("out of range latitude", func(t *testing.T) {
		s := domain.LocationSample{OrderID: "order-42", Latitude: floatPtr(94.1), Longitude: floatPtr(100.50)}
		assert.ErrorIs(t, s.Validate(), domain.ErrInvalidCoordinates)
	})

	t.Run("out of range longitude", func(t *testing.T) {
		s := domain.LocationSample{OrderID: "order-42", Latitude: floatPtr(13.75), Longitude: floatPtr(-181)}
		assert.ErrorIs(t, s.Validate(), domain.ErrInvalidCoordinates)
	})
}

func TestValidOrderStatus(t *testing.T) {
	assert.True(t, domain.ValidOrderStatus(domain.StatusPreparing))
	assert.False(t, domain.ValidOrderStatus(domain.OrderStatus("SHIPPED")))
}

func TestLocationSample_Coordinate(t *testing.T) {
	s := domain.LocationSample{OrderID: "order-42", Latitude: floatPtr(13.75), Longitude: floatPtr(100.50), CapturedAt: time.Now()}
	assert.Equal(t, domain.Coordinate{Latitude: 13.75, Longitude: 100.50}, s.Coordinate())
}
