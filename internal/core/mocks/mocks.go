package mocks

import (
	"context"

	"github.com/quickbite/order-hub/internal/core/domain"
	"github.com/quickbite/order-hub/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

// MockOrderRepository is a mock implementation of ports.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{}
}

func (m *MockOrderRepository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	args := m.Called(ctx, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, orderID string) (*domain.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) Update(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	args := m.Called(ctx, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) ListByRestaurant(ctx context.Context, restaurantID string, activeOnly bool) ([]*domain.Order, error) {
	args := m.Called(ctx, restaurantID, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) ListOffered(ctx context.Context) ([]*domain.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Order), args.Error(1)
}

// MockDriverPositionRepository is a mock implementation of ports.DriverPositionRepository
type MockDriverPositionRepository struct {
	mock.Mock
}

func NewMockDriverPositionRepository() *MockDriverPositionRepository {
	return &MockDriverPositionRepository{}
}

func (m *MockDriverPositionRepository) Upsert(ctx context.Context, pos *domain.DriverPosition) error {
	args := m.Called(ctx, pos)
	return args.Error(0)
}

func (m *MockDriverPositionRepository) GetByOrder(ctx context.Context, orderID string) (*domain.DriverPosition, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DriverPosition), args.Error(1)
}

// MockEventBroadcaster is a mock implementation of ports.EventBroadcaster
type MockEventBroadcaster struct {
	mock.Mock
}

func NewMockEventBroadcaster() *MockEventBroadcaster {
	return &MockEventBroadcaster{}
}

func (m *MockEventBroadcaster) Broadcast(event domain.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockNotifier is a mock implementation of ports.Notifier
type MockNotifier struct {
	mock.Mock
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) Notify(ctx context.Context, params ports.NotificationParams) {
	m.Called(ctx, params)
}

// MockOrderService is a mock implementation of ports.OrderService
type MockOrderService struct {
	mock.Mock
}

func NewMockOrderService() *MockOrderService {
	return &MockOrderService{}
}

func (m *MockOrderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderService) GetDeliveryLocation(ctx context.Context, orderID string) (*domain.DriverPosition, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DriverPosition), args.Error(1)
}

func (m *MockOrderService) ListRestaurantOrders(ctx context.Context, restaurantID string, activeOnly bool) ([]*domain.Order, error) {
	args := m.Called(ctx, restaurantID, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Order), args.Error(1)
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, params ports.UpdateOrderStatusParams) (*domain.Order, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderService) PostChatMessage(ctx context.Context, params ports.PostChatMessageParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *MockOrderService) Shutdown() {
	m.Called()
}

// MockDeliveryService is a mock implementation of ports.DeliveryService
type MockDeliveryService struct {
	mock.Mock
}

func NewMockDeliveryService() *MockDeliveryService {
	return &MockDeliveryService{}
}

func (m *MockDeliveryService) NearbyDeliveries(ctx context.Context, from domain.Coordinate) ([]domain.DeliveryOffer, error) {
	args := m.Called(ctx, from)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DeliveryOffer), args.Error(1)
}

// MockLocationIngestor is a mock implementation of ports.LocationIngestor
type MockLocationIngestor struct {
	mock.Mock
}

func NewMockLocationIngestor() *MockLocationIngestor {
	return &MockLocationIngestor{}
}

func (m *MockLocationIngestor) Ingest(ctx context.Context, driverID string, sample domain.LocationSample) error {
	args := m.Called(ctx, driverID, sample)
	return args.Error(0)
}
