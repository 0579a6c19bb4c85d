package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"lastmile/internal/core/domain/model/order"
	"lastmile/internal/core/ports"
	"lastmile/internal/pkg/errs"
)

// ErrConcurrentUpdate is returned when a status change lost the optimistic
// race twice in a row. The caller may retry with a fresh request.
var ErrConcurrentUpdate = errors.New("order was modified concurrently")

// UpdateOrderStatusResult carries the outcome of a successful status change:
// the updated order, the appended timeline event and the validator's decision.
// A decision with Recommended=false means the change went through as an
// operator override and the caller should surface the decision's reason.
type UpdateOrderStatusResult struct {
	Order    *order.Order
	Event    order.TimelineEvent
	Decision order.TransitionDecision
}

// UpdateOrderStatusCommandHandler is the only mutation entry point of the
// order lifecycle. It loads the order and its timeline, runs the transition
// validator, and appends the event and updates the order row in one
// transaction.
//
// Two concurrent requests against the same order cannot both win: the order
// row carries an optimistic version and the timeline a unique per-order
// sequence, so the loser's commit fails and is retried once against fresh
// state. A retry that still conflicts surfaces ErrConcurrentUpdate; a retry
// whose transition is no longer legal surfaces the validator's error.
type UpdateOrderStatusCommandHandler struct {
	uowFactory UoWFactory
	publisher  ports.OrderEventPublisher
	etaCache   ports.ETACache
	logger     *slog.Logger
}

// NewUpdateOrderStatusCommandHandler creates a handler for status change
// operations. publisher and etaCache are optional; pass nil to disable
// publication or cache invalidation.
func NewUpdateOrderStatusCommandHandler(
	uowFactory UoWFactory,
	publisher ports.OrderEventPublisher,
	etaCache ports.ETACache,
	logger *slog.Logger,
) UpdateOrderStatusCommandHandler {
	return UpdateOrderStatusCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
		etaCache:   etaCache,
		logger:     logger.With("component", "update_order_status"),
	}
}

// Handle processes the status change command.
//
// The transition is validated against the state read inside the transaction,
// never against caller-supplied state. On success downstream consumers are
// notified and the cached delivery estimate is dropped; both are best effort
// and never fail the committed change.
func (h UpdateOrderStatusCommandHandler) Handle(
	ctx context.Context, cmd UpdateOrderStatusCommand,
) (UpdateOrderStatusResult, error) {
	if err := cmd.Validate(); err != nil {
		return UpdateOrderStatusResult{}, err
	}

	result, err := h.apply(ctx, cmd)
	if errors.Is(err, errs.ErrVersionIsInvalid) {
		h.logger.WarnContext(ctx, "optimistic lock conflict, retrying",
			"order_id", cmd.OrderID().String())
		result, err = h.apply(ctx, cmd)
		if errors.Is(err, errs.ErrVersionIsInvalid) {
			return UpdateOrderStatusResult{}, ErrConcurrentUpdate
		}
	}
	if err != nil {
		return UpdateOrderStatusResult{}, err
	}

	h.notify(ctx, result)
	return result, nil
}

// apply runs one read-validate-append-update attempt in its own transaction.
func (h UpdateOrderStatusCommandHandler) apply(
	ctx context.Context, cmd UpdateOrderStatusCommand,
) (UpdateOrderStatusResult, error) {
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

	event, decision, err := aggregate.ApplyTransition(
		cmd.Status(), cmd.Actor(), cmd.Reason(), timeline, time.Now().UTC())
	if err != nil {
		return UpdateOrderStatusResult{}, err
	}

	if err = timelineRepo.Append(ctx, event); err != nil {
		return UpdateOrderStatusResult{}, err
	}

	if err = orderRepo.Update(ctx, aggregate); err != nil {
		return UpdateOrderStatusResult{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return UpdateOrderStatusResult{}, err
	}

	return UpdateOrderStatusResult{Order: aggregate, Event: event, Decision: decision}, nil
}

// notify publishes the committed change and invalidates the cached estimate.
func (h UpdateOrderStatusCommandHandler) notify(ctx context.Context, result UpdateOrderStatusResult) {
	if h.publisher != nil {
		if err := h.publisher.PublishStatusChanged(ctx, result.Order, result.Event); err != nil {
			h.logger.ErrorContext(ctx, "failed to publish status change",
				"order_id", result.Order.ID().String(),
				"status", result.Order.Status().String(),
				"error", err)
		}
	}

	if h.etaCache != nil {
		if err := h.etaCache.Invalidate(ctx, result.Order.ID()); err != nil {
			h.logger.WarnContext(ctx, "failed to invalidate cached estimate",
				"order_id", result.Order.ID().String(),
				"error", err)
		}
	}
}
