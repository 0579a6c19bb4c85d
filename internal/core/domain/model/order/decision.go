package order

// Decision reason strings surfaced to callers verbatim.
const (
	ReasonNoOp          = "no-op"
	ReasonTerminalState = "terminal state"
	ReasonOverride      = "override: bypasses normal flow"
	ReasonUnknownStatus = "unknown status"
)

// TransitionDecision is the ephemeral verdict of the transition validator.
// Allowed means the change may be applied; Recommended means it follows the
// normal pipeline. An allowed-but-not-recommended decision is an operator
// override, which the caller is expected to surface as a warning. Decisions
// are never persisted.
type TransitionDecision struct {
	Allowed     bool
	Recommended bool
	Reason      string
}

// DecideTransition validates a requested status change against the current
// status and the order's timeline. Pure and side-effect-free.
//
// Outcomes, in evaluation order:
//   - requested equals current: disallowed, "no-op"
//   - current is terminal: disallowed, "terminal state"
//   - requested is in the transition table's next set (phase-resolved for
//     in_transit): allowed and recommended
//   - requested is any other recognized status: allowed but flagged as an
//     override. Operators may bypass the pipeline; the system reports it
//     rather than blocking it.
//   - requested is not a recognized status: disallowed, "unknown status"
func DecideTransition(current Status, requested Status, history []TimelineEvent) TransitionDecision {
	if requested == current {
		return TransitionDecision{Allowed: false, Recommended: false, Reason: ReasonNoOp}
	}

	if current.IsTerminal() {
		return TransitionDecision{Allowed: false, Recommended: false, Reason: ReasonTerminalState}
	}

	if current.CanTransitionTo(requested, ResolvePhase(history)) {
		return TransitionDecision{Allowed: true, Recommended: true}
	}

	if requested.Validate() == nil {
		return TransitionDecision{Allowed: true, Recommended: false, Reason: ReasonOverride}
	}

	return TransitionDecision{Allowed: false, Recommended: false, Reason: ReasonUnknownStatus}
}
