package commands_test

import (
	"testing"

	"lastmile/internal/core/application/usecases/commands"
	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/order"
	"lastmile/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAssignRiderCommandHandler_Handle_Success(t *testing.T) {
	ctx := t.Context()
	orderID := kernel.NewUUID()
	riderID := kernel.NewUUID()
	testOrder, timeline := pendingOrder(t, orderID)

	dispatcher, err := order.NewActor(order.ActorKindDispatcher, "dsp-1")
	require.NoError(t, err)
	cmd, err := commands.NewAssignRiderCommand(orderID, riderID, dispatcher)
	require.NoError(t, err)

	orderRepo := new(MockOrderRepository)
	timelineRepo := new(MockTimelineRepository)
	uow := new(MockUoW)

	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(orderRepo).Once(),
		uow.On("TimelineRepository").Return(timelineRepo).Once(),
		orderRepo.On("Get", ctx, orderID).Return(testOrder, nil).Once(),
		timelineRepo.On("GetByOrder", ctx, orderID).Return(timeline, nil).Once(),
		timelineRepo.On("Append", ctx, mock.AnythingOfType("order.TimelineEvent")).Return(nil).Once(),
		orderRepo.On("Update", ctx, mock.AnythingOfType("*order.Order")).Return(nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockUoWFactory)
	factory.On("Create").Return(uow).Once()

	handler := commands.NewAssignRiderCommandHandler(factory)
	result, err := handler.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, order.Assigned, result.Order.Status())
	require.NotNil(t, result.Order.Rider())
	assert.True(t, riderID.IsEqual(*result.Order.Rider()))
	assert.True(t, result.Decision.Recommended)
	assert.Equal(t, "rider assigned", result.Event.Reason())

	uow.AssertExpectations(t)
}

func TestAssignRiderCommandHandler_Handle_TerminalOrderRejected(t *testing.T) {
	ctx := t.Context()
	orderID := kernel.NewUUID()
	testOrder, timeline := pendingOrder(t, orderID)

	cancelEvent, _, err := testOrder.ApplyTransition(
		order.Cancelled, order.SystemActor(), "", timeline, timeline[0].OccurredAt())
	require.NoError(t, err)
	timeline = append(timeline, cancelEvent)

	dispatcher, err := order.NewActor(order.ActorKindDispatcher, "dsp-1")
	require.NoError(t, err)
	cmd, err := commands.NewAssignRiderCommand(orderID, kernel.NewUUID(), dispatcher)
	require.NoError(t, err)

	orderRepo := new(MockOrderRepository)
	timelineRepo := new(MockTimelineRepository)
	uow := new(MockUoW)

	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(orderRepo).Once(),
		uow.On("TimelineRepository").Return(timelineRepo).Once(),
		orderRepo.On("Get", ctx, orderID).Return(testOrder, nil).Once(),
		timelineRepo.On("GetByOrder", ctx, orderID).Return(timeline, nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockUoWFactory)
	factory.On("Create").Return(uow).Once()

	handler := commands.NewAssignRiderCommandHandler(factory)
	_, err = handler.Handle(ctx, cmd)

	require.Error(t, err)
	timelineRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	assert.Nil(t, testOrder.Rider())
}

func TestAssignRiderCommandHandler_Handle_ConflictSurfaced(t *testing.T) {
	ctx := t.Context()
	orderID := kernel.NewUUID()
	testOrder, timeline := pendingOrder(t, orderID)

	dispatcher, err := order.NewActor(order.ActorKindDispatcher, "dsp-1")
	require.NoError(t, err)
	cmd, err := commands.NewAssignRiderCommand(orderID, kernel.NewUUID(), dispatcher)
	require.NoError(t, err)

	orderRepo := new(MockOrderRepository)
	timelineRepo := new(MockTimelineRepository)
	uow := new(MockUoW)

	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(orderRepo).Once(),
		uow.On("TimelineRepository").Return(timelineRepo).Once(),
		orderRepo.On("Get", ctx, orderID).Return(testOrder, nil).Once(),
		timelineRepo.On("GetByOrder", ctx, orderID).Return(timeline, nil).Once(),
		timelineRepo.On("Append", ctx, mock.AnythingOfType("order.TimelineEvent")).Return(nil).Once(),
		orderRepo.On("Update", ctx, mock.AnythingOfType("*order.Order")).
			Return(errs.NewVersionIsInvalidError("order version")).
			Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockUoWFactory)
	factory.On("Create").Return(uow).Once()

	handler := commands.NewAssignRiderCommandHandler(factory)
	_, err = handler.Handle(ctx, cmd)

	require.ErrorIs(t, err, commands.ErrConcurrentUpdate)
}

func TestAssignRiderCommandHandler_Handle_ValidationError(t *testing.T) {
	ctx := t.Context()
	cmd := commands.AssignRiderCommand{} // not constructed properly

	factory := new(MockUoWFactory)
	handler := commands.NewAssignRiderCommandHandler(factory)
	_, err := handler.Handle(ctx, cmd)

	require.ErrorIs(t, err, commands.ErrAssignRiderCommandIsNotConstructed)
	factory.AssertNotCalled(t, "Create")
}
