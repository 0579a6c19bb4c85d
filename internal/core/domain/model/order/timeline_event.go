package order

import (
	"fmt"
	"time"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/pkg/errs"
	"lastmile/internal/pkg/guard"
)

// ErrTimelineEventIsNotConstructed is returned when validating a zero-value TimelineEvent.
var ErrTimelineEventIsNotConstructed = errs.NewValueIsRequiredError(
	"timeline event must be created via NewTimelineEvent constructor")

// TimelineEvent is one immutable entry in an order's append-only audit log.
// Events are ordered by their per-order sequence number, which increases
// monotonically starting at 1 with the synthetic creation event. Events are
// never edited or deleted; corrections are expressed as new events.
type TimelineEvent struct { //nolint:recvcheck //using for validation
	id         kernel.UUID
	orderID    kernel.UUID
	seq        int64
	from       *Status
	to         Status
	actor      Actor
	reason     string
	occurredAt time.Time

	guard guard.ConstructorGuard
}

// NewTimelineEvent creates a validated timeline event. from is nil only for
// the creation event; to must be a valid status and seq must be positive.
// The same constructor serves both new events and reconstruction from
// persistence, so a stored event is revalidated on every load.
func NewTimelineEvent(
	id kernel.UUID,
	orderID kernel.UUID,
	seq int64,
	from *Status,
	to Status,
	actor Actor,
	reason string,
	occurredAt time.Time,
) (TimelineEvent, error) {
	event := TimelineEvent{
		guard: guard.NewConstructorGuard(),
	}

	if err := id.Validate(); err != nil {
		return TimelineEvent{}, err
	}
	if err := orderID.Validate(); err != nil {
		return TimelineEvent{}, err
	}
	if seq < 1 {
		return TimelineEvent{}, errs.NewValueIsInvalidErrorWithCause("seq",
			fmt.Errorf("%d is not a positive sequence number", seq))
	}
	if from != nil {
		if err := from.Validate(); err != nil {
			return TimelineEvent{}, err
		}
	}
	if err := to.Validate(); err != nil {
		return TimelineEvent{}, err
	}
	if err := actor.Validate(); err != nil {
		return TimelineEvent{}, err
	}
	if occurredAt.IsZero() {
		return TimelineEvent{}, errs.NewValueIsRequiredError("occurredAt")
	}

	event.id = id
	event.orderID = orderID
	event.seq = seq
	if from != nil {
		prev := *from
		event.from = &prev
	}
	event.to = to
	event.actor = actor
	event.reason = reason
	event.occurredAt = occurredAt

	return event, nil
}

// Validate returns ErrTimelineEventIsNotConstructed for the zero value.
func (e TimelineEvent) Validate() error {
	return e.guard.Validate(ErrTimelineEventIsNotConstructed)
}

// ID returns the event's unique identifier.
func (e TimelineEvent) ID() kernel.UUID {
	return e.id
}

// OrderID returns the identifier of the order this event belongs to.
func (e TimelineEvent) OrderID() kernel.UUID {
	return e.orderID
}

// Seq returns the per-order sequence number, used to break timestamp ties.
func (e TimelineEvent) Seq() int64 {
	return e.seq
}

// From returns the status the order left, or nil for the creation event.
func (e TimelineEvent) From() *Status {
	if e.from == nil {
		return nil
	}
	prev := *e.from
	return &prev
}

// To returns the status the order entered with this event.
func (e TimelineEvent) To() Status {
	return e.to
}

// Actor returns who performed the change.
func (e TimelineEvent) Actor() Actor {
	return e.actor
}

// Reason returns the optional human-readable explanation for the change.
func (e TimelineEvent) Reason() string {
	return e.reason
}

// OccurredAt returns when the change happened.
func (e TimelineEvent) OccurredAt() time.Time {
	return e.occurredAt
}
