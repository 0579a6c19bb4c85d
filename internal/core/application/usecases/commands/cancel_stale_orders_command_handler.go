package commands

import (
	"context"
	"log/slog"
	"time"

	"lastmile/internal/core/domain/model/order"
)

// CancelStaleOrdersCommandHandler cancels orders that nobody picked up.
// Each stale order goes through the regular status update path as the
// system actor, so the cancellation is validated, versioned and recorded
// on the timeline like any other change.
type CancelStaleOrdersCommandHandler struct {
	updateHandler UpdateOrderStatusCommandHandler
	uowFactory    UoWFactory
	logger        *slog.Logger
}

// NewCancelStaleOrdersCommandHandler creates a handler for the stale-order sweep.
func NewCancelStaleOrdersCommandHandler(
	updateHandler UpdateOrderStatusCommandHandler,
	uowFactory UoWFactory,
	logger *slog.Logger,
) CancelStaleOrdersCommandHandler {
	return CancelStaleOrdersCommandHandler{
		updateHandler: updateHandler,
		uowFactory:    uowFactory,
		logger:        logger.With("component", "cancel_stale_orders"),
	}
}

// Handle finds pending orders older than the command's max age and cancels
// each one. A failure on one order is logged and does not stop the sweep;
// the first error is returned after all orders were attempted.
func (h CancelStaleOrdersCommandHandler) Handle(ctx context.Context, cmd CancelStaleOrdersCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	cutoff := time.Now().UTC().Add(-cmd.MaxAge())

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	staleOrders, err := uow.OrderRepository().GetAllPendingBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	var firstErr error
	for _, staleOrder := range staleOrders {
		updateCmd, err := NewUpdateOrderStatusCommand(
			staleOrder.ID(), order.Cancelled, order.SystemActor(), "cancelled: stale pending order")
		if err != nil {
			return err
		}

		if _, err = h.updateHandler.Handle(ctx, updateCmd); err != nil {
			h.logger.ErrorContext(ctx, "failed to cancel stale order",
				"order_id", staleOrder.ID().String(),
				"error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		h.logger.InfoContext(ctx, "cancelled stale order",
			"order_id", staleOrder.ID().String(),
			"created_at", staleOrder.CreatedAt())
	}

	return firstErr
}
