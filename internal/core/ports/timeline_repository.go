package ports

import (
	"context"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/order"
)

// TimelineRepository defines the persistence contract for the append-only
// status-change log. Events are never updated or deleted.
type TimelineRepository interface {
	// Append persists a new timeline event. The (order id, sequence) pair is
	// unique; appending a duplicate sequence returns an error unwrapping to
	// errs.ErrVersionIsInvalid, which signals a lost concurrent race.
	Append(ctx context.Context, event order.TimelineEvent) error

	// GetByOrder retrieves the full timeline of an order ordered by
	// ascending sequence. An order with no events yields an empty slice,
	// not an error.
	GetByOrder(ctx context.Context, orderID kernel.UUID) ([]order.TimelineEvent, error)
}
