package commands

import (
	"errors"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/order"
	"lastmile/internal/pkg/errs"
	"lastmile/internal/pkg/guard"
)

var ErrCreateOrderCommandIsNotConstructed = errors.New(
	"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
)

// CreateOrderCommand represents a request to register a new delivery order
// with its pickup point and drop-off route.
//
// Example:
//
//	orderID := kernel.NewUUID()
//	cmd, err := NewCreateOrderCommand(orderID, pickup, dropoffs, actor)
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//
//	handler := NewCreateOrderCommandHandler(uowFactory)
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    return fmt.Errorf("failed to create order: %w", err)
//	}
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID  kernel.UUID
	pickup   kernel.GeoPoint
	dropoffs []kernel.GeoPoint
	actor    order.Actor

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand creates a command to register a new delivery order.
// Validates that the order ID, locations and actor are all constructed and
// that at least one drop-off is present.
func NewCreateOrderCommand(
	orderID kernel.UUID,
	pickup kernel.GeoPoint,
	dropoffs []kernel.GeoPoint,
	actor order.Actor,
) (CreateOrderCommand, error) {
	orderCommand := CreateOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		orderCommand.setOrderID(orderID),
		orderCommand.setPickup(pickup),
		orderCommand.setDropoffs(dropoffs),
		orderCommand.setActor(actor),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return orderCommand, nil
}

// Validate ensures the command was created through the constructor.
// Returns ErrCreateOrderCommandIsNotConstructed if validation fails.
func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

// OrderID returns the unique identifier for the order.
func (c CreateOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// Pickup returns the pickup location.
func (c CreateOrderCommand) Pickup() kernel.GeoPoint {
	return c.pickup
}

// Dropoffs returns the drop-off locations in delivery sequence.
func (c CreateOrderCommand) Dropoffs() []kernel.GeoPoint {
	return c.dropoffs
}

// Actor returns who requested the order creation.
func (c CreateOrderCommand) Actor() order.Actor {
	return c.actor
}

func (c *CreateOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *CreateOrderCommand) setPickup(pickup kernel.GeoPoint) error {
	if err := pickup.Validate(); err != nil {
		return err
	}

	c.pickup = pickup
	return nil
}

func (c *CreateOrderCommand) setDropoffs(dropoffs []kernel.GeoPoint) error {
	if len(dropoffs) == 0 {
		return errs.NewValueIsRequiredError("dropoffs")
	}
	for _, dropoff := range dropoffs {
		if err := dropoff.Validate(); err != nil {
			return err
		}
	}

	c.dropoffs = make([]kernel.GeoPoint, len(dropoffs))
	copy(c.dropoffs, dropoffs)
	return nil
}

func (c *CreateOrderCommand) setActor(actor order.Actor) error {
	if err := actor.Validate(); err != nil {
		return err
	}

	c.actor = actor
	return nil
}
