package commands

import (
	"context"
	"errors"
	"time"

	"lastmile/internal/core/domain/model/order"
	"lastmile/internal/pkg/errs"
)

// AssignRiderCommandHandler attaches a rider to an order and moves it to
// assigned status in a single transaction. The status change goes through
// the same validator as any other transition, so assigning a rider to an
// order that already left pending fails with the validator's error.
type AssignRiderCommandHandler struct {
	uowFactory UoWFactory
}

// NewAssignRiderCommandHandler creates a handler for rider assignment operations.
func NewAssignRiderCommandHandler(uowFactory UoWFactory) AssignRiderCommandHandler {
	return AssignRiderCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle processes the rider assignment command. A lost optimistic race is
// surfaced as ErrConcurrentUpdate; assignment is dispatcher-initiated and
// rare enough that the caller retries, not the handler.
func (h AssignRiderCommandHandler) Handle(
	ctx context.Context, cmd AssignRiderCommand,
) (UpdateOrderStatusResult, error) {
	if err := cmd.Validate(); err != nil {
		return UpdateOrderStatusResult{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return UpdateOrderStatusResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	timelineRepo := uow.TimelineRepository()

	aggregate, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return UpdateOrderStatusResult{}, err
	}

	timeline, err := timelineRepo.GetByOrder(ctx, cmd.OrderID())
	if err != nil {
		return UpdateOrderStatusResult{}, err
	}

	if err = aggregate.AssignRider(cmd.RiderID()); err != nil {
		return UpdateOrderStatusResult{}, err
	}

	event, decision, err := aggregate.ApplyTransition(
		order.Assigned, cmd.Actor(), "rider assigned", timeline, time.Now().UTC())
	if err != nil {
		return UpdateOrderStatusResult{}, err
	}

	if err = timelineRepo.Append(ctx, event); err != nil {
		return UpdateOrderStatusResult{}, err
	}

	if err = orderRepo.Update(ctx, aggregate); err != nil {
		if errors.Is(err, errs.ErrVersionIsInvalid) {
			return UpdateOrderStatusResult{}, ErrConcurrentUpdate
		}
		return UpdateOrderStatusResult{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return UpdateOrderStatusResult{}, err
	}

	return UpdateOrderStatusResult{Order: aggregate, Event: event, Decision: decision}, nil
}
