// Package queries contains read-only operations of the CQRS architecture.
// Query handlers read the database directly and never mutate state.
package queries

import (
	"errors"
	"time"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/order"
	"lastmile/internal/core/domain/services"
	"lastmile/internal/pkg/guard"
)

var ErrGetOrderTimelineQueryIsNotConstructed = errors.New(
	"GetOrderTimelineQuery must be created via NewGetOrderTimelineQuery constructor",
)

// GetOrderTimelineQuery retrieves an order's full status history together
// with the derived phase and the advisory delivery estimate.
type GetOrderTimelineQuery struct {
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

// NewGetOrderTimelineQuery creates a query for the given order.
func NewGetOrderTimelineQuery(orderID kernel.UUID) (GetOrderTimelineQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetOrderTimelineQuery{}, err
	}

	return GetOrderTimelineQuery{
		orderID: orderID,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the query was created through the constructor.
// Returns ErrGetOrderTimelineQueryIsNotConstructed if validation fails.
func (q GetOrderTimelineQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderTimelineQueryIsNotConstructed)
}

// OrderID returns the identifier of the order to read.
func (q GetOrderTimelineQuery) OrderID() kernel.UUID {
	return q.orderID
}

// GetOrderTimelineQueryResponse is the read model of an order's lifecycle.
// ETA is nil when the order is terminal, has no rider, or the routing
// collaborator is unavailable; the timeline itself is always served.
type GetOrderTimelineQueryResponse struct {
	OrderID kernel.UUID
	Status  order.Status
	Phase   order.Phase
	Events  []TimelineEventResponse
	ETA     *services.Estimate
}

// TimelineEventResponse represents one status change in the read model.
type TimelineEventResponse struct {
	ID         kernel.UUID
	Seq        int64
	From       *order.Status
	To         order.Status
	ActorKind  order.ActorKind
	ActorID    string
	Reason     string
	OccurredAt time.Time
}
