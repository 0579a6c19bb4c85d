package order

import (
	"fmt"

	"lastmile/internal/pkg/errs"
	"lastmile/internal/pkg/guard"
)

// ActorKind classifies who performed a status change.
type ActorKind int

const (
	// ActorKindUnknown represents an invalid or undefined actor kind.
	ActorKindUnknown ActorKind = iota

	// ActorKindRider is a rider acting through the mobile client.
	ActorKindRider

	// ActorKindDispatcher is an operator acting through the dashboard.
	ActorKindDispatcher

	// ActorKindSystem is an automated job or internal process.
	ActorKindSystem
)

func getActorKindStrings() map[ActorKind]string {
	//nolint:exhaustive // ActorKindUnknown is intentionally excluded as it's invalid
	return map[ActorKind]string{
		ActorKindRider:      "rider",
		ActorKindDispatcher: "dispatcher",
		ActorKindSystem:     "system",
	}
}

// ActorKindFromString parses a wire-format actor kind name.
func ActorKindFromString(s string) (ActorKind, error) {
	for kind, name := range getActorKindStrings() {
		if name == s {
			return kind, nil
		}
	}
	return ActorKindUnknown, errs.NewValueIsInvalidErrorWithCause("actor kind",
		fmt.Errorf("%q is not a recognized actor kind", s))
}

// Validate checks that the ActorKind is one of the defined values.
func (k ActorKind) Validate() error {
	if _, ok := getActorKindStrings()[k]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("actor kind",
			fmt.Errorf("%d is not a valid actor kind", k))
	}
	return nil
}

// String returns the lowercase wire-format name of the kind.
func (k ActorKind) String() string {
	if str, ok := getActorKindStrings()[k]; ok {
		return str
	}
	return "unknown"
}

// ErrActorIsNotConstructed is returned when validating a zero-value Actor.
var ErrActorIsNotConstructed = errs.NewValueIsRequiredError(
	"actor must be created via NewActor or SystemActor constructors")

// Actor identifies who requested a status change: a rider, a dispatcher,
// or the system itself. Immutable value object.
type Actor struct { //nolint:recvcheck //using for validation
	kind  ActorKind
	id    string
	guard guard.ConstructorGuard
}

// NewActor creates an Actor of the given kind. Riders and dispatchers must
// carry a non-empty id; for system actors prefer SystemActor.
func NewActor(kind ActorKind, id string) (Actor, error) {
	if err := kind.Validate(); err != nil {
		return Actor{}, err
	}
	if kind != ActorKindSystem && id == "" {
		return Actor{}, errs.NewValueIsRequiredError("actor id")
	}

	return Actor{
		kind:  kind,
		id:    id,
		guard: guard.NewConstructorGuard(),
	}, nil
}

// SystemActor returns the actor used by automated jobs and internal processes.
func SystemActor() Actor {
	actor, _ := NewActor(ActorKindSystem, "")
	return actor
}

// Validate returns ErrActorIsNotConstructed for the zero value.
func (a Actor) Validate() error {
	return a.guard.Validate(ErrActorIsNotConstructed)
}

// Kind returns the class of caller that performed the change.
func (a Actor) Kind() ActorKind {
	return a.kind
}

// ID returns the caller's identifier; empty for system actors.
func (a Actor) ID() string {
	return a.id
}

// String renders "kind:id" for audit output, or just the kind when id is empty.
func (a Actor) String() string {
	if a.id == "" {
		return a.kind.String()
	}
	return a.kind.String() + ":" + a.id
}
