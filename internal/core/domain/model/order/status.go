package order

import (
	"fmt"

	"lastmile/internal/pkg/errs"
)

// Status represents the lifecycle state of an order.
//
// The delivery pipeline is strictly linear with cancellation as the only
// escape valve:
//
//	pending ──> assigned ──> in_transit ──> picked_up
//	                             ▲              │
//	                             └──────────────┘
//	                         in_transit ──> delivered
//
// Every non-terminal status may also move to cancelled. delivered and
// cancelled are terminal. in_transit occurs twice in the pipeline; which
// outgoing set applies depends on the phase derived from the timeline
// (see ResolvePhase).
type Status int

const (
	// Unknown represents an invalid or undefined status.
	// This value (0) helps catch uninitialized Status values.
	Unknown Status = iota

	// Pending is the initial status of a freshly created order,
	// waiting for a dispatcher to assign a rider.
	Pending

	// Assigned indicates a rider has been assigned but has not started moving.
	Assigned

	// InTransit indicates the rider is traveling, either toward the pickup
	// point or toward a drop-off depending on the order's phase.
	InTransit

	// PickedUp indicates the rider has collected the goods at the pickup point.
	PickedUp

	// Delivered indicates the order reached its drop-off. Terminal.
	Delivered

	// Cancelled indicates the order was aborted. Terminal.
	Cancelled
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:   "unknown",
		Pending:   "pending",
		Assigned:  "assigned",
		InTransit: "in_transit",
		PickedUp:  "picked_up",
		Delivered: "delivered",
		Cancelled: "cancelled",
	}
}

func getValidStatusStrings() map[Status]string {
	//nolint:exhaustive // Unknown is intentionally excluded as it's invalid
	return map[Status]string{
		Pending:   "pending",
		Assigned:  "assigned",
		InTransit: "in_transit",
		PickedUp:  "picked_up",
		Delivered: "delivered",
		Cancelled: "cancelled",
	}
}

// StatusFromString parses a wire-format status name ("pending", "in_transit", ...).
// Returns Unknown with an error for unrecognized names.
func StatusFromString(s string) (Status, error) {
	for status, name := range getValidStatusStrings() {
		if name == s {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status",
		fmt.Errorf("%q is not a recognized status", s))
}

// Validate checks that the Status is one of the defined lifecycle values.
func (s Status) Validate() error {
	if _, ok := getValidStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status",
			fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the lowercase wire-format name of the status.
// Implements fmt.Stringer; safe on any value, invalid ones yield "unknown".
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// IsTerminal reports whether the status permits no further transitions.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Cancelled
}

// NextStatuses returns the set of statuses reachable from s in exactly one
// recommended step. InTransit branches on the order's phase: before pickup
// the rider can only arrive at the pickup point, after it only at a
// drop-off. Terminal and invalid statuses have an empty set.
//
// Statuses are never skipped: pending cannot jump straight to in_transit.
func (s Status) NextStatuses(phase Phase) []Status {
	switch s {
	case Pending:
		return []Status{Assigned, Cancelled}
	case Assigned:
		return []Status{InTransit, Cancelled}
	case InTransit:
		if phase == PhaseToDropoff {
			return []Status{Delivered, Cancelled}
		}
		return []Status{PickedUp, Cancelled}
	case PickedUp:
		return []Status{InTransit, Cancelled}
	case Delivered, Cancelled, Unknown:
		return nil
	}
	return nil
}

// CanTransitionTo reports whether target is a recommended next step from s.
func (s Status) CanTransitionTo(target Status, phase Phase) bool {
	for _, next := range s.NextStatuses(phase) {
		if next == target {
			return true
		}
	}
	return false
}
