package commands_test

import (
	"errors"
	"log/slog"
	"testing"

	"lastmile/internal/core/application/usecases/commands"
	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/order"
	"lastmile/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestUpdateOrderStatusCommandHandler_Handle_Success(t *testing.T) {
	ctx := t.Context()
	orderID := kernel.NewUUID()
	testOrder, timeline := pendingOrder(t, orderID)

	cmd, err := commands.NewUpdateOrderStatusCommand(
		orderID, order.Assigned, order.SystemActor(), "rider accepted")
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

	handler := commands.NewUpdateOrderStatusCommandHandler(factory, nil, nil, discardLogger())
	result, err := handler.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, order.Assigned, result.Order.Status())
	assert.Equal(t, order.Assigned, result.Event.To())
	assert.Equal(t, int64(2), result.Event.Seq())
	assert.True(t, result.Decision.Allowed)
	assert.True(t, result.Decision.Recommended)
	assert.Equal(t, "rider accepted", result.Event.Reason())

	orderRepo.AssertExpectations(t)
	timelineRepo.AssertExpectations(t)
	uow.AssertExpectations(t)
	factory.AssertExpectations(t)
}

func TestUpdateOrderStatusCommandHandler_Handle_ValidationError(t *testing.T) {
	ctx := t.Context()
	cmd := commands.UpdateOrderStatusCommand{} // not constructed properly

	factory := new(MockUoWFactory)
	handler := commands.NewUpdateOrderStatusCommandHandler(factory, nil, nil, discardLogger())
	_, err := handler.Handle(ctx, cmd)

	require.ErrorIs(t, err, commands.ErrUpdateOrderStatusCommandIsNotConstructed)
	factory.AssertNotCalled(t, "Create")
}

func TestUpdateOrderStatusCommandHandler_Handle_OrderNotFound(t *testing.T) {
	ctx := t.Context()
	orderID := kernel.NewUUID()

	cmd, err := commands.NewUpdateOrderStatusCommand(
		orderID, order.Assigned, order.SystemActor(), "")
	require.NoError(t, err)

	orderRepo := new(MockOrderRepository)
	uow := new(MockUoW)

	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("OrderRepository").Return(orderRepo).Once(),
		uow.On("TimelineRepository").Return(new(MockTimelineRepository)).Once(),
		orderRepo.On("Get", ctx, orderID).
			Return(nil, errs.NewObjectNotFoundError("orderId", orderID)).
			Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockUoWFactory)
	factory.On("Create").Return(uow).Once()

	handler := commands.NewUpdateOrderStatusCommandHandler(factory, nil, nil, discardLogger())
	_, err = handler.Handle(ctx, cmd)

	require.ErrorIs(t, err, errs.ErrObjectNotFound)
}

func TestUpdateOrderStatusCommandHandler_Handle_InvalidTransition(t *testing.T) {
	ctx := t.Context()
	orderID := kernel.NewUUID()
	testOrder, timeline := pendingOrder(t, orderID)

	// picked_up is not reachable from pending without being flagged, but a
	// no-op request is outright disallowed: ask for pending again.
	cmd, err := commands.NewUpdateOrderStatusCommand(
		orderID, order.Pending, order.SystemActor(), "")
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

	handler := commands.NewUpdateOrderStatusCommandHandler(factory, nil, nil, discardLogger())
	_, err = handler.Handle(ctx, cmd)

	require.ErrorIs(t, err, order.ErrInvalidTransition)
	timelineRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	assert.Equal(t, order.Pending, testOrder.Status())
}

func TestUpdateOrderStatusCommandHandler_Handle_ConflictRetriesOnce(t *testing.T) {
	ctx := t.Context()
	orderID := kernel.NewUUID()

	cmd, err := commands.NewUpdateOrderStatusCommand(
		orderID, order.Assigned, order.SystemActor(), "")
	require.NoError(t, err)

	// First attempt loses the optimistic race on Update.
	firstOrder, firstTimeline := pendingOrder(t, orderID)
	firstOrderRepo := new(MockOrderRepository)
	firstTimelineRepo := new(MockTimelineRepository)
	firstUoW := new(MockUoW)

	mock.InOrder(
		firstUoW.On("Begin", ctx).Return(nil).Once(),
		firstUoW.On("OrderRepository").Return(firstOrderRepo).Once(),
		firstUoW.On("TimelineRepository").Return(firstTimelineRepo).Once(),
		firstOrderRepo.On("Get", ctx, orderID).Return(firstOrder, nil).Once(),
		firstTimelineRepo.On("GetByOrder", ctx, orderID).Return(firstTimeline, nil).Once(),
		firstTimelineRepo.On("Append", ctx, mock.AnythingOfType("order.TimelineEvent")).Return(nil).Once(),
		firstOrderRepo.On("Update", ctx, mock.AnythingOfType("*order.Order")).
			Return(errs.NewVersionIsInvalidError("order version")).
			Once(),
		firstUoW.On("Rollback", ctx).Return(nil).Once(),
	)

	// Second attempt reloads fresh state and succeeds.
	secondOrder, secondTimeline := pendingOrder(t, orderID)
	secondOrderRepo := new(MockOrderRepository)
	secondTimelineRepo := new(MockTimelineRepository)
	secondUoW := new(MockUoW)

	mock.InOrder(
		secondUoW.On("Begin", ctx).Return(nil).Once(),
		secondUoW.On("OrderRepository").Return(secondOrderRepo).Once(),
		secondUoW.On("TimelineRepository").Return(secondTimelineRepo).Once(),
		secondOrderRepo.On("Get", ctx, orderID).Return(secondOrder, nil).Once(),
		secondTimelineRepo.On("GetByOrder", ctx, orderID).Return(secondTimeline, nil).Once(),
		secondTimelineRepo.On("Append", ctx, mock.AnythingOfType("order.TimelineEvent")).Return(nil).Once(),
		secondOrderRepo.On("Update", ctx, mock.AnythingOfType("*order.Order")).Return(nil).Once(),
		secondUoW.On("Commit", ctx).Return(nil).Once(),
		secondUoW.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockUoWFactory)
	factory.On("Create").Return(firstUoW).Once()
	factory.On("Create").Return(secondUoW).Once()

	handler := commands.NewUpdateOrderStatusCommandHandler(factory, nil, nil, discardLogger())
	result, err := handler.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, order.Assigned, result.Order.Status())
	factory.AssertExpectations(t)
	firstUoW.AssertExpectations(t)
	secondUoW.AssertExpectations(t)
}

func TestUpdateOrderStatusCommandHandler_Handle_ConflictTwiceFails(t *testing.T) {
	ctx := t.Context()
	orderID := kernel.NewUUID()

	cmd, err := commands.NewUpdateOrderStatusCommand(
		orderID, order.Assigned, order.SystemActor(), "")
	require.NoError(t, err)

	factory := new(MockUoWFactory)
	for range 2 {
		attemptOrder, attemptTimeline := pendingOrder(t, orderID)
		orderRepo := new(MockOrderRepository)
		timelineRepo := new(MockTimelineRepository)
		uow := new(MockUoW)

		mock.InOrder(
			uow.On("Begin", ctx).Return(nil).Once(),
			uow.On("OrderRepository").Return(orderRepo).Once(),
			uow.On("TimelineRepository").Return(timelineRepo).Once(),
			orderRepo.On("Get", ctx, orderID).Return(attemptOrder, nil).Once(),
			timelineRepo.On("GetByOrder", ctx, orderID).Return(attemptTimeline, nil).Once(),
			timelineRepo.On("Append", ctx, mock.AnythingOfType("order.TimelineEvent")).Return(nil).Once(),
			orderRepo.On("Update", ctx, mock.AnythingOfType("*order.Order")).
				Return(errs.NewVersionIsInvalidError("order version")).
				Once(),
			uow.On("Rollback", ctx).Return(nil).Once(),
		)

		factory.On("Create").Return(uow).Once()
	}

	handler := commands.NewUpdateOrderStatusCommandHandler(factory, nil, nil, discardLogger())
	_, err = handler.Handle(ctx, cmd)

	require.ErrorIs(t, err, commands.ErrConcurrentUpdate)
	factory.AssertExpectations(t)
}

func TestUpdateOrderStatusCommandHandler_Handle_PublishFailureDoesNotFailChange(t *testing.T) {
	ctx := t.Context()
	orderID := kernel.NewUUID()
	testOrder, timeline := pendingOrder(t, orderID)

	cmd, err := commands.NewUpdateOrderStatusCommand(
		orderID, order.Cancelled, order.SystemActor(), "customer cancelled")
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

	publisher := new(MockOrderEventPublisher)
	publisher.On("PublishStatusChanged", ctx,
		mock.AnythingOfType("*order.Order"), mock.AnythingOfType("order.TimelineEvent")).
		Return(errors.New("broker down")).
		Once()

	etaCache := new(MockETACache)
	etaCache.On("Invalidate", ctx, orderID).Return(nil).Once()

	handler := commands.NewUpdateOrderStatusCommandHandler(factory, publisher, etaCache, discardLogger())
	result, err := handler.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, order.Cancelled, result.Order.Status())
	publisher.AssertExpectations(t)
	etaCache.AssertExpectations(t)
}

func TestUpdateOrderStatusCommandHandler_Handle_OverrideIsReported(t *testing.T) {
	ctx := t.Context()
	orderID := kernel.NewUUID()
	testOrder, timeline := pendingOrder(t, orderID)

	// pending straight to delivered skips the whole pipeline.
	cmd, err := commands.NewUpdateOrderStatusCommand(
		orderID, order.Delivered, order.SystemActor(), "forced by dispatcher")
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

	handler := commands.NewUpdateOrderStatusCommandHandler(factory, nil, nil, discardLogger())
	result, err := handler.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.True(t, result.Decision.Allowed)
	assert.False(t, result.Decision.Recommended)
	assert.Equal(t, order.ReasonOverride, result.Decision.Reason)
	assert.Equal(t, order.Delivered, result.Order.Status())
}
