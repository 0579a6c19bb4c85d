package order

// Phase is the sub-state of InTransit distinguishing travel toward the
// pickup point from travel toward a drop-off. It is always derived from
// the timeline, never stored, so it can not drift from history.
type Phase int

const (
	// PhaseToPickup means the goods have not been collected yet.
	// Deliberately the zero value: an empty timeline resolves to it.
	PhaseToPickup Phase = iota

	// PhaseToDropoff means a pickup already happened and the rider is
	// traveling to a drop-off location.
	PhaseToDropoff
)

// String returns the wire-format phase name.
func (p Phase) String() string {
	if p == PhaseToDropoff {
		return "to_dropoff"
	}
	return "to_pickup"
}

// ResolvePhase derives the current phase from an order's full timeline.
// Any event that ever moved the order to PickedUp puts it in the drop-off
// phase, including after an override such as picked_up -> in_transit ->
// picked_up; otherwise the order is still heading to the pickup point.
//
// Recomputed from scratch on every call so the result is always consistent
// with history.
func ResolvePhase(events []TimelineEvent) Phase {
	for _, event := range events {
		if event.To() == PickedUp {
			return PhaseToDropoff
		}
	}
	return PhaseToPickup
}
