// Package timelinerepo persists the append-only status-change log.
// Rows are written once and never updated or deleted; the unique
// (order id, sequence) index doubles as the second guard against
// concurrent writers extending the same timeline.
package timelinerepo

import (
	"time"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// TimelineEventDTO represents the database structure for one status-change event.
type TimelineEventDTO struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_timeline_order_seq"`
	Seq        int64     `gorm:"uniqueIndex:idx_timeline_order_seq"`
	FromStatus *string   `gorm:"type:varchar(16)"`
	ToStatus   string    `gorm:"type:varchar(16)"`
	ActorKind  string    `gorm:"type:varchar(16)"`
	ActorID    string
	Reason     string
	OccurredAt time.Time
}

// TableName specifies the database table name for timeline events.
func (TimelineEventDTO) TableName() string {
	return "timeline_events"
}

// fromDomain converts a timeline event to its database representation.
func fromDomain(event order.TimelineEvent) TimelineEventDTO {
	var fromStatus *string
	if from := event.From(); from != nil {
		name := from.String()
		fromStatus = &name
	}

	return TimelineEventDTO{
		ID:         event.ID().Bytes(),
		OrderID:    event.OrderID().Bytes(),
		Seq:        event.Seq(),
		FromStatus: fromStatus,
		ToStatus:   event.To().String(),
		ActorKind:  event.Actor().Kind().String(),
		ActorID:    event.Actor().ID(),
		Reason:     event.Reason(),
		OccurredAt: event.OccurredAt(),
	}
}

// toDomain converts a database DTO back to a timeline event.
func toDomain(dto TimelineEventDTO) (order.TimelineEvent, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return order.TimelineEvent{}, err
	}

	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return order.TimelineEvent{}, err
	}

	var fromStatus *order.Status
	if dto.FromStatus != nil {
		from, statusErr := order.StatusFromString(*dto.FromStatus)
		if statusErr != nil {
			return order.TimelineEvent{}, statusErr
		}
		fromStatus = &from
	}

	toStatus, err := order.StatusFromString(dto.ToStatus)
	if err != nil {
		return order.TimelineEvent{}, err
	}

	actorKind, err := order.ActorKindFromString(dto.ActorKind)
	if err != nil {
		return order.TimelineEvent{}, err
	}

	var actor order.Actor
	if actorKind == order.ActorKindSystem {
		actor = order.SystemActor()
	} else {
		actor, err = order.NewActor(actorKind, dto.ActorID)
		if err != nil {
			return order.TimelineEvent{}, err
		}
	}

	return order.NewTimelineEvent(
		id, orderID, dto.Seq, fromStatus, toStatus, actor, dto.Reason, dto.OccurredAt)
}
