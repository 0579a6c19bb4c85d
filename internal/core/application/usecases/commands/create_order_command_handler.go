package commands

import (
	"context"
	"time"

	"lastmile/internal/core/domain/model/order"
)

// CreateOrderCommandHandler handles the business logic for order creation.
// A new order starts in pending status and its timeline is seeded with the
// synthetic creation event in the same transaction.
type CreateOrderCommandHandler struct {
	uowFactory UoWFactory
}

// NewCreateOrderCommandHandler creates a handler for order creation operations.
// Requires a UoWFactory for transactional persistence.
func NewCreateOrderCommandHandler(uowFactory UoWFactory) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle processes the order creation command.
// Persists the order row and the creation timeline event atomically, so the
// order's status matches its newest event from the very first read.
func (h CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	newOrder, creationEvent, err := order.NewOrder(
		cmd.OrderID(), cmd.Pickup(), cmd.Dropoffs(), cmd.Actor(), time.Now().UTC())
	if err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.OrderRepository().Add(ctx, newOrder); err != nil {
		return nil, err
	}

	if err = uow.TimelineRepository().Append(ctx, creationEvent); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return newOrder, nil
}
