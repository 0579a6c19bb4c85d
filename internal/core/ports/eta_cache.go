package ports

import (
	"context"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/services"
)

// ETACache is a short-lived cache for delivery estimates. Estimates are
// advisory display values, so cache misses and cache failures both fall
// through to recomputation. Get returns (nil, nil) on a miss.
type ETACache interface {
	Get(ctx context.Context, orderID kernel.UUID) (*services.Estimate, error)
	Set(ctx context.Context, orderID kernel.UUID, estimate services.Estimate) error
	// Invalidate drops a cached estimate after a status change.
	Invalidate(ctx context.Context, orderID kernel.UUID) error
}
