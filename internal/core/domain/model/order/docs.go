// Package order implements the order lifecycle domain model: the Order
// aggregate, the Status state machine with its transition table, the
// append-only timeline of status-change events, and the pure transition
// validator producing TransitionDecision values.
//
// The timeline is the source of truth for an order's history. The order's
// current status is a derived cache that must always equal the newest
// timeline event's target status; ApplyTransition preserves that invariant
// by emitting the event and updating the status together.
package order
