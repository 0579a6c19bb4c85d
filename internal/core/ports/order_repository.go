// Package ports defines the persistence and collaborator interfaces of the
// order lifecycle core. These interfaces establish contracts between the
// domain layer and infrastructure, enabling dependency inversion and
// testability.
package ports

import (
	"context"
	"time"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates.
type OrderRepository interface {
	// Add persists a new order aggregate to storage.
	// The order must be valid and not already exist in the repository.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists changes to an existing order aggregate under an
	// optimistic version check: the stored row's version must still equal
	// the version the aggregate was loaded with. On success the stored
	// version is incremented. When the versions no longer match, Update
	// returns an error unwrapping to errs.ErrVersionIsInvalid and writes
	// nothing.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order aggregate by its unique identifier.
	// Returns an error unwrapping to errs.ErrObjectNotFound when no such
	// order exists.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetAllPendingBefore retrieves orders still in Pending status that were
	// created at or before the given cutoff. Used by the stale-order sweep.
	GetAllPendingBefore(ctx context.Context, cutoff time.Time) ([]*order.Order, error)
}
