package order

import (
	"errors"
	"fmt"
	"time"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created
	// through the NewOrder or RestoreOrder factory functions.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder or RestoreOrder constructor")

	// ErrInvalidTransition is the sentinel wrapped by InvalidTransitionError.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// InvalidTransitionError reports a status change the validator disallowed.
// It carries the decision's reason string for the caller to surface.
type InvalidTransitionError struct {
	From   Status
	To     Status
	Reason string
}

// NewInvalidTransitionError creates an InvalidTransitionError for the given change.
func NewInvalidTransitionError(from, to Status, reason string) *InvalidTransitionError {
	return &InvalidTransitionError{From: from, To: to, Reason: reason}
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s (%s)", ErrInvalidTransition, e.From, e.To, e.Reason)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// Order is the aggregate root for a single delivery moving through pickup
// and one or more drop-offs.
//
// Invariants:
//   - id, pickup and at least one drop-off are valid
//   - status always equals the To of the newest timeline event
//   - version is the optimistic-lock token of the loaded row; the repository
//     rejects updates whose version no longer matches
//   - only created through NewOrder / RestoreOrder
type Order struct {
	id        kernel.UUID
	riderID   *kernel.UUID
	pickup    kernel.GeoPoint
	dropoffs  []kernel.GeoPoint
	status    Status
	version   int64
	createdAt time.Time

	isConstructed bool
}

// NewOrder creates an order in Pending status together with its synthetic
// creation event (sequence 1, nil previous status). The caller must persist
// both atomically so the status/timeline invariant holds from the start.
func NewOrder(
	id kernel.UUID,
	pickup kernel.GeoPoint,
	dropoffs []kernel.GeoPoint,
	actor Actor,
	now time.Time,
) (*Order, TimelineEvent, error) {
	o := &Order{
		status:        Pending,
		version:       1,
		createdAt:     now,
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setPickup(pickup),
		o.setDropoffs(dropoffs),
	); err != nil {
		return nil, TimelineEvent{}, err
	}

	creationEvent, err := NewTimelineEvent(
		kernel.NewUUID(), id, 1, nil, Pending, actor, "order created", now)
	if err != nil {
		return nil, TimelineEvent{}, err
	}

	return o, creationEvent, nil
}

// RestoreOrder reconstructs an order from persistence, revalidating all
// invariants. riderID may be nil for unassigned orders.
func RestoreOrder(
	id kernel.UUID,
	pickup kernel.GeoPoint,
	dropoffs []kernel.GeoPoint,
	riderID *kernel.UUID,
	status Status,
	version int64,
	createdAt time.Time,
) (*Order, error) {
	o := &Order{
		createdAt:     createdAt,
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setPickup(pickup),
		o.setDropoffs(dropoffs),
		o.setStatus(status),
		o.setVersion(version),
	); err != nil {
		return nil, err
	}

	if riderID != nil {
		if err := riderID.Validate(); err != nil {
			return nil, err
		}
		rid := *riderID
		o.riderID = &rid
	}

	return o, nil
}

// Validate ensures the Order was created through a factory function.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

// IsEqual compares two orders by identifier.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

// ID returns the order's unique identifier.
func (o *Order) ID() kernel.UUID {
	return o.id
}

// Status returns the current lifecycle status.
func (o *Order) Status() Status {
	return o.status
}

// Version returns the optimistic-lock version the order was loaded with.
func (o *Order) Version() int64 {
	return o.version
}

// Pickup returns the pickup location.
func (o *Order) Pickup() kernel.GeoPoint {
	return o.pickup
}

// Dropoffs returns a copy of the drop-off locations in delivery sequence.
func (o *Order) Dropoffs() []kernel.GeoPoint {
	dropoffs := make([]kernel.GeoPoint, len(o.dropoffs))
	copy(dropoffs, o.dropoffs)
	return dropoffs
}

// Rider returns the assigned rider's ID, or nil if unassigned.
func (o *Order) Rider() *kernel.UUID {
	return o.riderID
}

// CreatedAt returns when the order was created.
func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

// DecideTransition runs the pure transition validator against this order's
// current status. history must be the order's full timeline.
func (o *Order) DecideTransition(requested Status, history []TimelineEvent) TransitionDecision {
	return DecideTransition(o.status, requested, history)
}

// ApplyTransition validates the requested change, and when allowed mutates
// the status and returns the timeline event recording it. The event's
// sequence continues from the newest event in history. The caller must
// persist the event and the updated order atomically.
//
// On a disallowed decision the order is left untouched and an
// InvalidTransitionError carrying the decision's reason is returned along
// with the decision itself.
func (o *Order) ApplyTransition(
	requested Status,
	actor Actor,
	reason string,
	history []TimelineEvent,
	now time.Time,
) (TimelineEvent, TransitionDecision, error) {
	decision := o.DecideTransition(requested, history)
	if !decision.Allowed {
		return TimelineEvent{}, decision, NewInvalidTransitionError(o.status, requested, decision.Reason)
	}

	var seq int64 = 1
	if len(history) > 0 {
		seq = history[len(history)-1].Seq() + 1
	}

	previous := o.status
	event, err := NewTimelineEvent(kernel.NewUUID(), o.id, seq, &previous, requested, actor, reason, now)
	if err != nil {
		return TimelineEvent{}, decision, err
	}

	o.status = requested
	return event, decision, nil
}

// AssignRider records the rider responsible for the delivery.
// Terminal orders can not change rider.
func (o *Order) AssignRider(riderID kernel.UUID) error {
	if err := riderID.Validate(); err != nil {
		return err
	}
	if o.status.IsTerminal() {
		return errs.NewValueIsInvalidErrorWithCause("status",
			fmt.Errorf("%s is not a valid status to assign a rider", o.status))
	}

	o.riderID = &riderID
	return nil
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setPickup(pickup kernel.GeoPoint) error {
	if err := pickup.Validate(); err != nil {
		return err
	}
	o.pickup = pickup
	return nil
}

func (o *Order) setDropoffs(dropoffs []kernel.GeoPoint) error {
	if len(dropoffs) == 0 {
		return errs.NewValueIsRequiredError("dropoffs")
	}
	for _, dropoff := range dropoffs {
		if err := dropoff.Validate(); err != nil {
			return err
		}
	}
	o.dropoffs = make([]kernel.GeoPoint, len(dropoffs))
	copy(o.dropoffs, dropoffs)
	return nil
}

func (o *Order) setStatus(status Status) error {
	if err := status.Validate(); err != nil {
		return err
	}
	o.status = status
	return nil
}

func (o *Order) setVersion(version int64) error {
	if version < 1 {
		return errs.NewVersionIsInvalidErrorWithCause("order version",
			fmt.Errorf("%d is not a positive version", version))
	}
	o.version = version
	return nil
}
