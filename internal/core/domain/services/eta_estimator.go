package services

import (
	"math"
	"time"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/order"
	"lastmile/internal/pkg/errs"
)

// Estimate is the advisory delivery projection returned by the ETAEstimator.
type Estimate struct {
	EstimatedMinutes      int64
	EstimatedDeliveryTime time.Time
}

// ETAEstimator is a domain service that projects the remaining delivery time
// of an order from its current phase, the rider's distance to the next
// waypoint and a configured average speed.
//
// The numeric model is deliberately simple and replaceable. The stable part
// of the contract is the insufficient-data policy: a terminal order or an
// order without an assigned rider has no estimate, and Estimate returns a
// nil projection without an error in that case.
type ETAEstimator struct {
	averageSpeedKmh float64
}

// NewETAEstimator creates an estimator with the given average rider speed
// in kilometers per hour. The speed must be positive.
func NewETAEstimator(averageSpeedKmh float64) (ETAEstimator, error) {
	if averageSpeedKmh <= 0 {
		return ETAEstimator{}, errs.NewValueIsOutOfRangeError(
			"averageSpeedKmh", averageSpeedKmh, math.SmallestNonzeroFloat64, math.MaxFloat64)
	}
	return ETAEstimator{averageSpeedKmh: averageSpeedKmh}, nil
}

// Estimate projects the order's remaining delivery time.
//
// distanceToNextWaypointKm is the rider's road distance to the next stop as
// reported by the routing collaborator: the pickup point while the order is
// in the to-pickup phase, the first drop-off afterwards. The remaining legs
// between waypoints are approximated by great-circle distance.
//
// Returns (nil, nil) when the order is terminal or has no assigned rider.
func (e ETAEstimator) Estimate(
	o *order.Order,
	timeline []order.TimelineEvent,
	distanceToNextWaypointKm float64,
	now time.Time,
) (*Estimate, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if distanceToNextWaypointKm < 0 {
		return nil, errs.NewValueIsOutOfRangeError(
			"distanceToNextWaypointKm", distanceToNextWaypointKm, 0.0, math.MaxFloat64)
	}

	if o.Status().IsTerminal() || o.Rider() == nil {
		return nil, nil
	}

	remainingKm := distanceToNextWaypointKm
	dropoffs := o.Dropoffs()

	switch order.ResolvePhase(timeline) {
	case order.PhaseToPickup:
		legsKm, legsErr := chainDistanceKm(o.Pickup(), dropoffs)
		if legsErr != nil {
			return nil, legsErr
		}
		remainingKm += legsKm
	case order.PhaseToDropoff:
		if len(dropoffs) > 1 {
			legsKm, legsErr := chainDistanceKm(dropoffs[0], dropoffs[1:])
			if legsErr != nil {
				return nil, legsErr
			}
			remainingKm += legsKm
		}
	}

	minutes := int64(math.Ceil(remainingKm / e.averageSpeedKmh * 60))
	return &Estimate{
		EstimatedMinutes:      minutes,
		EstimatedDeliveryTime: now.Add(time.Duration(minutes) * time.Minute),
	}, nil
}

// chainDistanceKm sums the great-circle legs from a starting point through
// each waypoint in sequence.
func chainDistanceKm(from kernel.GeoPoint, waypoints []kernel.GeoPoint) (float64, error) {
	total := 0.0
	current := from
	for _, waypoint := range waypoints {
		legKm, err := current.DistanceKmTo(waypoint)
		if err != nil {
			return 0, err
		}
		total += legKm
		current = waypoint
	}
	return total, nil
}
