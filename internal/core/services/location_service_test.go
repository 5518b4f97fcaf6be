package services_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/quickbite/order-hub/internal/core/domain"
	"github.com/quickbite/order-hub/internal/core/mocks"
	"github.com/quickbite/order-hub/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func floatPtr(v float64) *float64 { return &v }

func TestLocationService_Ingest(t *testing.T) {
	ctx := context.Background()

	t.Run("valid sample is broadcast and persisted", func(t *testing.T) {
		mockPositions := mocks.NewMockDriverPositionRepository()
		mockBroadcaster := mocks.NewMockEventBroadcaster()

		svc := services.NewLocationService(mockPositions, mockBroadcaster, testLogger())

		mockBroadcaster.On("Broadcast", mock.MatchedBy(func(event domain.Event) bool {
			payload, ok := event.Payload.(domain.DeliveryLocationPayload)
			return ok &&
				payload.OrderID == "order-42" &&
				payload.Location == domain.Coordinate{Latitude: 13.75, Longitude: 100.50} &&
				payload.DriverInfo != nil &&
				payload.DriverInfo.ID == "driver-1"
		})).Return(nil)

		mockPositions.On("Upsert", mock.Anything, mock.MatchedBy(func(pos *domain.DriverPosition) bool {
			return pos.OrderID == "order-42" &&
				pos.DriverID == "driver-1" &&
				!pos.CapturedAt.IsZero()
		})).Return(nil)

		err := svc.Ingest(ctx, "driver-1", domain.LocationSample{
			OrderID:   "order-42",
			Latitude:  floatPtr(13.75),
			Longitude: floatPtr(100.50),
		})
		require.NoError(t, err)

		svc.Shutdown()
		mockBroadcaster.AssertExpectations(t)
		mockPositions.AssertExpectations(t)
	})

	t.Run("supplied capture time is preserved", func(t *testing.T) {
		mockPositions := mocks.NewMockDriverPositionRepository()
		mockBroadcaster := mocks.NewMockEventBroadcaster()

		svc := services.NewLocationService(mockPositions, mockBroadcaster, testLogger())

		capturedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

		mockBroadcaster.On("Broadcast", mock.Anything).Return(nil)
		mockPositions.On("Upsert", mock.Anything, mock.MatchedBy(func(pos *domain.DriverPosition) bool {
			return pos.CapturedAt.Equal(capturedAt)
		})).Return(nil)

		err := svc.Ingest(ctx, "driver-1", domain.LocationSample{
			OrderID:    "order-42",
			Latitude:   floatPtr(13.75),
			Longitude:  floatPtr(100.50),
			CapturedAt: capturedAt,
		})
		require.NoError(t, err)

		svc.Shutdown()
		mockPositions.AssertExpectations(t)
	})

	t.Run("out of range sample is dropped, never dispatched", func(t *testing.T) {
		mockPositions := mocks.NewMockDriverPositionRepository()
		mockBroadcaster := mocks.NewMockEventBroadcaster()

		svc := services.NewLocationService(mockPositions, mockBroadcaster, testLogger())

		err := svc.Ingest(ctx, "driver-1", domain.LocationSample{
			OrderID:   "order-42",
			Latitude:  floatPtr(123.4),
			Longitude: floatPtr(100.50),
		})
		assert.ErrorIs(t, err, domain.ErrInvalidCoordinates)

		svc.Shutdown()
		mockBroadcaster.AssertNotCalled(t, "Broadcast")
		mockPositions.AssertNotCalled(t, "Upsert")
	})

	t.Run("sample with absent coordinates is dropped, never dispatched", func(t *testing.T) {
		mockPositions := mocks.NewMockDriverPositionRepository()
		mockBroadcaster := mocks.NewMockEventBroadcaster()

		svc := services.NewLocationService(mockPositions, mockBroadcaster, testLogger())

		// A wire payload carrying only the order id must not be ingested
		// as an explicit (0,0) position.
		var sample domain.LocationSample
		require.NoError(t, json.Unmarshal([]byte(`{"orderId":"order-42"}`), &sample))

		err := svc.Ingest(ctx, "driver-1", sample)
		assert.ErrorIs(t, err, domain.ErrInvalidCoordinates)

		svc.Shutdown()
		mockBroadcaster.AssertNotCalled(t, "Broadcast")
		mockPositions.AssertNotCalled(t, "Upsert")
	})

	t.Run("sample without order id is dropped", func(t *testing.T) {
		mockPositions := mocks.NewMockDriverPositionRepository()
		mockBroadcaster := mocks.NewMockEventBroadcaster()

		svc := services.NewLocationService(mockPositions, mockBroadcaster, testLogger())

		err := svc.Ingest(ctx, "driver-1", domain.LocationSample{Latitude: floatPtr(13.75), Longitude: floatPtr(100.50)})
		assert.ErrorIs(t, err, domain.ErrOrderIDRequired)

		svc.Shutdown()
		mockBroadcaster.AssertNotCalled(t, "Broadcast")
	})

	t.Run("anonymous connection carries no driver info", func(t *testing.T) {
		mockPositions := mocks.NewMockDriverPositionRepository()
		mockBroadcaster := mocks.NewMockEventBroadcaster()

		svc := services.NewLocationService(mockPositions, mockBroadcaster, testLogger())

		mockBroadcaster.On("Broadcast", mock.MatchedBy(func(event domain.Event) bool {
			payload, ok := event.Payload.(domain.DeliveryLocationPayload)
			return ok && payload.DriverInfo == nil
		})).Return(nil)
		mockPositions.On("Upsert", mock.Anything, mock.Anything).Return(nil)

		err := svc.Ingest(ctx, "", domain.LocationSample{
			OrderID:   "order-42",
			Latitude:  floatPtr(13.75),
			Longitude: floatPtr(100.50),
		})
		require.NoError(t, err)

		svc.Shutdown()
		mockBroadcaster.AssertExpectations(t)
	})

	t.Run("store failure is absorbed", func(t *testing.T) {
		mockPositions := mocks.NewMockDriverPositionRepository()
		mockBroadcaster := mocks.NewMockEventBroadcaster()

		svc := services.NewLocationService(mockPositions, mockBroadcaster, testLogger())

		mockBroadcaster.On("Broadcast", mock.Anything).Return(nil)
		mockPositions.On("Upsert", mock.Anything, mock.Anything).Return(assert.AnError)

		err := svc.Ingest(ctx, "driver-1", domain.LocationSample{
			OrderID:   "order-42",
			Latitude:  floatPtr(13.75),
			Longitude: floatPtr(100.50),
		})
		assert.NoError(t, err)

		svc.Shutdown()
	})
}
