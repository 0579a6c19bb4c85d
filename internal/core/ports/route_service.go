package ports

import (
	"context"

	"lastmile/internal/core/domain/model/kernel"
)

// RouteService is the external routing collaborator. It tracks rider
// positions and reports a rider's current road distance to a point, used as
// the distance-to-next-waypoint input of the delivery estimate. Failures
// unwrap to errs.ErrDependencyUnavailable.
type RouteService interface {
	DistanceToKm(ctx context.Context, riderID kernel.UUID, to kernel.GeoPoint) (float64, error)
}
