package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/quickbite/order-hub/internal/core/domain"
	"github.com/quickbite/order-hub/internal/core/ports"
)

// persistTimeout bounds the background store hand-off so a stalled database
// cannot pile up goroutines forever.
const persistTimeout = 5 * time.Second

// LocationService is the location update pipeline: it validates raw driver
// position samples, stamps them, broadcasts them to the delivery room and
// hands them to the persistent store without ever blocking dispatch.
type LocationService struct {
	positions   ports.DriverPositionRepository
	broadcaster ports.EventBroadcaster
	logger      *slog.Logger
	wg          sync.WaitGroup
}

var _ ports.LocationIngestor = (*LocationService)(nil)

// NewLocationService creates a new location pipeline.
func NewLocationService(
	positions ports.DriverPositionRepository,
	broadcaster ports.EventBroadcaster,
	logger *slog.Logger,
) *LocationService {
	return &LocationService{
		positions:   positions,
		broadcaster: broadcaster,
		logger:      logger.With("component", "location_service"),
	}
}

// Ingest processes one driver position sample. Invalid samples are dropped
// and never dispatched; the returned error is observability for the caller,
// not a failure the client sees.
func (s *LocationService) Ingest(ctx context.Context, driverID string, sample domain.LocationSample) error {
	if err := sample.Validate(); err != nil {
		s.logger.Warn("dropping invalid location sample",
			"driver_id", driverID,
			"order_id", sample.OrderID,
			"error", err,
		)
		return err
	}

	if sample.CapturedAt.IsZero() {
		sample.CapturedAt = time.Now().UTC()
	}

	payload := domain.DeliveryLocationPayload{
		OrderID:  sample.OrderID,
		Location: sample.Coordinate(),
	}
	if driverID != "" {
		payload.DriverInfo = &domain.DriverInfo{ID: driverID}
	}

	_ = s.broadcaster.Broadcast(domain.NewEvent(payload))

	s.persistPosition(driverID, sample)
	return nil
}

// persistPosition forwards the sample to the store in the background. The
// store keeps only the current position; the hub keeps no history at all.
func (s *LocationService) persistPosition(driverID string, sample domain.LocationSample) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		// The websocket read loop has no request context worth inheriting.
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		err := s.positions.Upsert(ctx, &domain.DriverPosition{
			OrderID:    sample.OrderID,
			DriverID:   driverID,
			Location:   sample.Coordinate(),
			CapturedAt: sample.CapturedAt,
		})
		if err != nil {
			s.logger.Error("failed to persist driver position",
				"order_id", sample.OrderID,
				"driver_id", driverID,
				"error", err,
			)
		}
	}()
}

// Shutdown waits for in-flight store hand-offs to finish.
func (s *LocationService) Shutdown() {
	s.wg.Wait()
}
