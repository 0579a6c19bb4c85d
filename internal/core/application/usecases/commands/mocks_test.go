package commands_test

import (
	"context"
	"testing"
	"time"

	"lastmile/internal/core/application/usecases/commands"
	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/order"
	"lastmile/internal/core/domain/services"
	"lastmile/internal/core/ports"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetAllPendingBefore(ctx context.Context, cutoff time.Time) ([]*order.Order, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

type MockTimelineRepository struct{ mock.Mock }

func (m *MockTimelineRepository) Append(ctx context.Context, event order.TimelineEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockTimelineRepository) GetByOrder(
	ctx context.Context, orderID kernel.UUID,
) ([]order.TimelineEvent, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.TimelineEvent), args.Error(1)
}

type MockUoW struct{ mock.Mock }

func (m *MockUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

func (m *MockUoW) TimelineRepository() ports.TimelineRepository {
	args := m.Called()
	return args.Get(0).(ports.TimelineRepository)
}

type MockUoWFactory struct{ mock.Mock }

func (m *MockUoWFactory) Create() commands.UoW {
	args := m.Called()
	return args.Get(0).(commands.UoW)
}

type MockOrderEventPublisher struct{ mock.Mock }

func (m *MockOrderEventPublisher) PublishStatusChanged(
	ctx context.Context, o *order.Order, event order.TimelineEvent,
) error {
	args := m.Called(ctx, o, event)
	return args.Error(0)
}

type MockETACache struct{ mock.Mock }

func (m *MockETACache) Get(ctx context.Context, orderID kernel.UUID) (*services.Estimate, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Estimate), args.Error(1)
}

func (m *MockETACache) Set(ctx context.Context, orderID kernel.UUID, estimate services.Estimate) error {
	args := m.Called(ctx, orderID, estimate)
	return args.Error(0)
}

func (m *MockETACache) Invalidate(ctx context.Context, orderID kernel.UUID) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func testGeoPoint(t *testing.T, lat, lon float64) kernel.GeoPoint {
	t.Helper()
	point, err := kernel.NewGeoPoint(lat, lon)
	require.NoError(t, err)
	return point
}

// pendingOrder builds a fresh pending order with its creation timeline.
func pendingOrder(t *testing.T, orderID kernel.UUID) (*order.Order, []order.TimelineEvent) {
	t.Helper()

	o, creation, err := order.NewOrder(
		orderID,
		testGeoPoint(t, 51.5074, -0.1278),
		[]kernel.GeoPoint{testGeoPoint(t, 51.5155, -0.0922)},
		order.SystemActor(),
		time.Now().UTC())
	require.NoError(t, err)

	return o, []order.TimelineEvent{creation}
}
