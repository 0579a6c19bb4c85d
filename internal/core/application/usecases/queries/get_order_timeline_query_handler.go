package queries

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/order"
	"lastmile/internal/core/domain/services"
	"lastmile/internal/core/ports"
	"lastmile/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetOrderTimelineQueryHandler serves the read side of the order lifecycle:
// the ordered status history, the phase derived from it, and the advisory
// delivery estimate.
//
// The estimate is looked up in the cache first and otherwise computed from
// the routing collaborator's distance; either source failing degrades the
// response to a nil estimate instead of failing the read, since the estimate
// is a display value.
type GetOrderTimelineQueryHandler struct {
	db           *gorm.DB
	routeService ports.RouteService
	etaCache     ports.ETACache
	estimator    services.ETAEstimator
	logger       *slog.Logger
}

// NewGetOrderTimelineQueryHandler creates a handler for timeline reads.
// routeService and etaCache are optional; pass nil to serve timelines
// without estimates or without caching.
func NewGetOrderTimelineQueryHandler(
	db *gorm.DB,
	routeService ports.RouteService,
	etaCache ports.ETACache,
	estimator services.ETAEstimator,
	logger *slog.Logger,
) GetOrderTimelineQueryHandler {
	return GetOrderTimelineQueryHandler{
		db:           db,
		routeService: routeService,
		etaCache:     etaCache,
		estimator:    estimator,
		logger:       logger.With("component", "get_order_timeline"),
	}
}

// Handle executes the timeline read for one order.
func (h GetOrderTimelineQueryHandler) Handle(
	ctx context.Context, query GetOrderTimelineQuery,
) (GetOrderTimelineQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetOrderTimelineQueryResponse{}, err
	}

	aggregate, err := h.loadOrder(ctx, query.OrderID())
	if err != nil {
		return GetOrderTimelineQueryResponse{}, err
	}

	events, err := h.loadTimeline(ctx, query.OrderID())
	if err != nil {
		return GetOrderTimelineQueryResponse{}, err
	}

	phase := order.ResolvePhase(events)

	response := GetOrderTimelineQueryResponse{
		OrderID: aggregate.ID(),
		Status:  aggregate.Status(),
		Phase:   phase,
		Events:  make([]TimelineEventResponse, 0, len(events)),
		ETA:     h.estimate(ctx, aggregate, events, phase),
	}

	for _, event := range events {
		response.Events = append(response.Events, TimelineEventResponse{
			ID:         event.ID(),
			Seq:        event.Seq(),
			From:       event.From(),
			To:         event.To(),
			ActorKind:  event.Actor().Kind(),
			ActorID:    event.Actor().ID(),
			Reason:     event.Reason(),
			OccurredAt: event.OccurredAt(),
		})
	}

	return response, nil
}

// loadOrder reads the order row and its drop-off route.
func (h GetOrderTimelineQueryHandler) loadOrder(
	ctx context.Context, orderID kernel.UUID,
) (*order.Order, error) {
	var (
		id        uuid.UUID
		riderID   *uuid.UUID
		pickupLat float64
		pickupLon float64
		status    string
		version   int64
		createdAt time.Time
	)

	row := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			rider_id,
			pickup_lat,
			pickup_lon,
			status,
			version,
			created_at
		FROM orders
		WHERE id = ?
	`, orderID.Bytes()).Row()

	err := row.Scan(&id, &riderID, &pickupLat, &pickupLon, &status, &version, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NewObjectNotFoundError("order", orderID.String())
	}
	if err != nil {
		return nil, err
	}

	restoredID, err := kernel.UUIDFromBytes(id[:])
	if err != nil {
		return nil, err
	}

	var rider *kernel.UUID
	if riderID != nil {
		restored, riderErr := kernel.UUIDFromBytes((*riderID)[:])
		if riderErr != nil {
			return nil, riderErr
		}
		rider = &restored
	}

	pickup, err := kernel.NewGeoPoint(pickupLat, pickupLon)
	if err != nil {
		return nil, err
	}

	dropoffs, err := h.loadDropoffs(ctx, orderID)
	if err != nil {
		return nil, err
	}

	restoredStatus, err := order.StatusFromString(status)
	if err != nil {
		return nil, err
	}

	return order.RestoreOrder(restoredID, pickup, dropoffs, rider, restoredStatus, version, createdAt)
}

func (h GetOrderTimelineQueryHandler) loadDropoffs(
	ctx context.Context, orderID kernel.UUID,
) ([]kernel.GeoPoint, error) {
	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT lat, lon
		FROM order_dropoffs
		WHERE order_id = ?
		ORDER BY position
	`, orderID.Bytes()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dropoffs := make([]kernel.GeoPoint, 0)
	for rows.Next() {
		var lat, lon float64
		if err = rows.Scan(&lat, &lon); err != nil {
			return nil, err
		}

		dropoff, pointErr := kernel.NewGeoPoint(lat, lon)
		if pointErr != nil {
			return nil, pointErr
		}
		dropoffs = append(dropoffs, dropoff)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return dropoffs, nil
}

// loadTimeline reads the order's events in ascending sequence order.
func (h GetOrderTimelineQueryHandler) loadTimeline(
	ctx context.Context, orderID kernel.UUID,
) ([]order.TimelineEvent, error) {
	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			seq,
			from_status,
			to_status,
			actor_kind,
			actor_id,
			reason,
			occurred_at
		FROM timeline_events
		WHERE order_id = ?
		ORDER BY seq
	`, orderID.Bytes()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]order.TimelineEvent, 0)
	for rows.Next() {
		var (
			id         uuid.UUID
			seq        int64
			fromStatus *string
			toStatus   string
			actorKind  string
			actorID    string
			reason     string
			occurredAt time.Time
		)

		err = rows.Scan(&id, &seq, &fromStatus, &toStatus, &actorKind, &actorID, &reason, &occurredAt)
		if err != nil {
			return nil, err
		}

		event, eventErr := restoreEvent(
			id, orderID, seq, fromStatus, toStatus, actorKind, actorID, reason, occurredAt)
		if eventErr != nil {
			return nil, eventErr
		}
		events = append(events, event)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

func restoreEvent(
	id uuid.UUID,
	orderID kernel.UUID,
	seq int64,
	fromStatus *string,
	toStatus string,
	actorKind string,
	actorID string,
	reason string,
	occurredAt time.Time,
) (order.TimelineEvent, error) {
	eventID, err := kernel.UUIDFromBytes(id[:])
	if err != nil {
		return order.TimelineEvent{}, err
	}

	var from *order.Status
	if fromStatus != nil {
		status, statusErr := order.StatusFromString(*fromStatus)
		if statusErr != nil {
			return order.TimelineEvent{}, statusErr
		}
		from = &status
	}

	to, err := order.StatusFromString(toStatus)
	if err != nil {
		return order.TimelineEvent{}, err
	}

	kind, err := order.ActorKindFromString(actorKind)
	if err != nil {
		return order.TimelineEvent{}, err
	}

	var actor order.Actor
	if kind == order.ActorKindSystem {
		actor = order.SystemActor()
	} else {
		actor, err = order.NewActor(kind, actorID)
		if err != nil {
			return order.TimelineEvent{}, err
		}
	}

	return order.NewTimelineEvent(eventID, orderID, seq, from, to, actor, reason, occurredAt)
}

// estimate returns the advisory delivery estimate, or nil when it cannot be
// produced. Routing or cache failures are logged and degrade to nil.
func (h GetOrderTimelineQueryHandler) estimate(
	ctx context.Context,
	aggregate *order.Order,
	events []order.TimelineEvent,
	phase order.Phase,
) *services.Estimate {
	if aggregate.Status().IsTerminal() || aggregate.Rider() == nil || h.routeService == nil {
		return nil
	}

	if h.etaCache != nil {
		cached, err := h.etaCache.Get(ctx, aggregate.ID())
		if err != nil {
			h.logger.WarnContext(ctx, "estimate cache read failed",
				"order_id", aggregate.ID().String(), "error", err)
		} else if cached != nil {
			return cached
		}
	}

	waypoint := aggregate.Pickup()
	if phase == order.PhaseToDropoff {
		waypoint = aggregate.Dropoffs()[0]
	}

	distanceKm, err := h.routeService.DistanceToKm(ctx, *aggregate.Rider(), waypoint)
	if err != nil {
		h.logger.WarnContext(ctx, "routing unavailable, serving timeline without estimate",
			"order_id", aggregate.ID().String(), "error", err)
		return nil
	}

	result, err := h.estimator.Estimate(aggregate, events, distanceKm, time.Now().UTC())
	if err != nil || result == nil {
		return nil
	}

	if h.etaCache != nil {
		if err = h.etaCache.Set(ctx, aggregate.ID(), *result); err != nil {
			h.logger.WarnContext(ctx, "estimate cache write failed",
				"order_id", aggregate.ID().String(), "error", err)
		}
	}

	return result
}
