package ports

import (
	"context"

	"lastmile/internal/core/domain/model/order"
)

// OrderEventPublisher notifies downstream consumers about committed status
// changes. Publishing happens after the transaction commits; a publish
// failure is logged by the caller and never rolls the change back.
type OrderEventPublisher interface {
	PublishStatusChanged(ctx context.Context, aggregate *order.Order, event order.TimelineEvent) error
}
