// Package http exposes the order lifecycle over a REST API.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"lastmile/internal/core/application/usecases/commands"
	"lastmile/internal/core/application/usecases/queries"
	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/order"
	"lastmile/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// Handler interfaces let tests substitute the application layer.
type (
	CreateOrderHandler interface {
		Handle(ctx context.Context, cmd commands.CreateOrderCommand) (*order.Order, error)
	}

	UpdateOrderStatusHandler interface {
		Handle(ctx context.Context, cmd commands.UpdateOrderStatusCommand) (commands.UpdateOrderStatusResult, error)
	}

	AssignRiderHandler interface {
		Handle(ctx context.Context, cmd commands.AssignRiderCommand) (commands.UpdateOrderStatusResult, error)
	}

	GetOrderTimelineHandler interface {
		Handle(ctx context.Context, query queries.GetOrderTimelineQuery) (queries.GetOrderTimelineQueryResponse, error)
	}
)

// Server coordinates between HTTP handlers and application use cases.
type Server struct {
	createOrderHandler      CreateOrderHandler
	updateStatusHandler     UpdateOrderStatusHandler
	assignRiderHandler      AssignRiderHandler
	getOrderTimelineHandler GetOrderTimelineHandler
}

// NewServer creates a new HTTP server with the required command and query handlers.
func NewServer(
	createOrderHandler CreateOrderHandler,
	updateStatusHandler UpdateOrderStatusHandler,
	assignRiderHandler AssignRiderHandler,
	getOrderTimelineHandler GetOrderTimelineHandler,
) *Server {
	return &Server{
		createOrderHandler:      createOrderHandler,
		updateStatusHandler:     updateStatusHandler,
		assignRiderHandler:      assignRiderHandler,
		getOrderTimelineHandler: getOrderTimelineHandler,
	}
}

// RegisterRoutes attaches all API routes to the echo instance.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", s.Health)

	api := e.Group("/api/v1")
	api.POST("/orders", s.CreateOrder)
	api.POST("/orders/:orderID/assign", s.AssignRider)
	api.PATCH("/orders/:orderID/status", s.UpdateOrderStatus)
	api.GET("/orders/:orderID/timeline", s.GetOrderTimeline)
}

// Health handles GET /health.
func (s *Server) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type geoPointDTO struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type actorDTO struct {
	Kind string `json:"kind"`
	ID   string `json:"id,omitempty"`
}

type createOrderRequest struct {
	Pickup   geoPointDTO   `json:"pickup"`
	Dropoffs []geoPointDTO `json:"dropoffs"`
	Actor    actorDTO      `json:"actor"`
}

type orderResponse struct {
	ID        string  `json:"id"`
	Status    string  `json:"status"`
	RiderID   *string `json:"rider_id,omitempty"`
	Version   int64   `json:"version"`
	CreatedAt string  `json:"created_at"`
}

type updateStatusRequest struct {
	Status string   `json:"status"`
	Reason string   `json:"reason,omitempty"`
	Actor  actorDTO `json:"actor"`
}

type assignRiderRequest struct {
	RiderID string   `json:"rider_id"`
	Actor   actorDTO `json:"actor"`
}

type timelineEventDTO struct {
	ID         string  `json:"id"`
	Seq        int64   `json:"seq"`
	From       *string `json:"from,omitempty"`
	To         string  `json:"to"`
	ActorKind  string  `json:"actor_kind"`
	ActorID    string  `json:"actor_id,omitempty"`
	Reason     string  `json:"reason,omitempty"`
	OccurredAt string  `json:"occurred_at"`
}

type statusChangeResponse struct {
	Order orderResponse    `json:"order"`
	Event timelineEventDTO `json:"event"`
	// Warning is set when an operator override bypassed the normal pipeline.
	Warning string `json:"warning,omitempty"`
}

type estimateDTO struct {
	EstimatedMinutes      int64  `json:"estimated_minutes"`
	EstimatedDeliveryTime string `json:"estimated_delivery_time"`
}

type timelineResponse struct {
	OrderID string             `json:"order_id"`
	Status  string             `json:"status"`
	Phase   string             `json:"phase"`
	Events  []timelineEventDTO `json:"events"`
	ETA     *estimateDTO       `json:"eta,omitempty"`
}

// CreateOrder handles POST /api/v1/orders.
func (s *Server) CreateOrder(ctx echo.Context) error {
	var request createOrderRequest
	if err := ctx.Bind(&request); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	pickup, err := kernel.NewGeoPoint(request.Pickup.Lat, request.Pickup.Lon)
	if err != nil {
		return badRequest(ctx, "Invalid pickup: "+err.Error())
	}

	dropoffs := make([]kernel.GeoPoint, 0, len(request.Dropoffs))
	for _, dto := range request.Dropoffs {
		dropoff, pointErr := kernel.NewGeoPoint(dto.Lat, dto.Lon)
		if pointErr != nil {
			return badRequest(ctx, "Invalid dropoff: "+pointErr.Error())
		}
		dropoffs = append(dropoffs, dropoff)
	}

	actor, err := parseActor(request.Actor)
	if err != nil {
		return badRequest(ctx, "Invalid actor: "+err.Error())
	}

	cmd, err := commands.NewCreateOrderCommand(kernel.NewUUID(), pickup, dropoffs, actor)
	if err != nil {
		return badRequest(ctx, "Invalid order data: "+err.Error())
	}

	created, err := s.createOrderHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return mapError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, toOrderResponse(created))
}

// UpdateOrderStatus handles PATCH /api/v1/orders/:orderID/status.
func (s *Server) UpdateOrderStatus(ctx echo.Context) error {
	orderID, err := kernel.UUIDFromString(ctx.Param("orderID"))
	if err != nil {
		return badRequest(ctx, "Invalid order id")
	}

	var request updateStatusRequest
	if err = ctx.Bind(&request); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	status, err := order.StatusFromString(request.Status)
	if err != nil {
		return badRequest(ctx, "Invalid status: "+err.Error())
	}

	actor, err := parseActor(request.Actor)
	if err != nil {
		return badRequest(ctx, "Invalid actor: "+err.Error())
	}

	cmd, err := commands.NewUpdateOrderStatusCommand(orderID, status, actor, request.Reason)
	if err != nil {
		return badRequest(ctx, "Invalid status change: "+err.Error())
	}

	result, err := s.updateStatusHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return mapError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, toStatusChangeResponse(result))
}

// AssignRider handles POST /api/v1/orders/:orderID/assign.
func (s *Server) AssignRider(ctx echo.Context) error {
	orderID, err := kernel.UUIDFromString(ctx.Param("orderID"))
	if err != nil {
		return badRequest(ctx, "Invalid order id")
	}

	var request assignRiderRequest
	if err = ctx.Bind(&request); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	riderID, err := kernel.UUIDFromString(request.RiderID)
	if err != nil {
		return badRequest(ctx, "Invalid rider id")
	}

	actor, err := parseActor(request.Actor)
	if err != nil {
		return badRequest(ctx, "Invalid actor: "+err.Error())
	}

	cmd, err := commands.NewAssignRiderCommand(orderID, riderID, actor)
	if err != nil {
		return badRequest(ctx, "Invalid assignment: "+err.Error())
	}

	result, err := s.assignRiderHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return mapError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, toStatusChangeResponse(result))
}

// GetOrderTimeline handles GET /api/v1/orders/:orderID/timeline.
func (s *Server) GetOrderTimeline(ctx echo.Context) error {
	orderID, err := kernel.UUIDFromString(ctx.Param("orderID"))
	if err != nil {
		return badRequest(ctx, "Invalid order id")
	}

	query, err := queries.NewGetOrderTimelineQuery(orderID)
	if err != nil {
		return badRequest(ctx, "Invalid query: "+err.Error())
	}

	response, err := s.getOrderTimelineHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return mapError(ctx, err)
	}

	result := timelineResponse{
		OrderID: response.OrderID.String(),
		Status:  response.Status.String(),
		Phase:   response.Phase.String(),
		Events:  make([]timelineEventDTO, 0, len(response.Events)),
	}
	for _, event := range response.Events {
		dto := timelineEventDTO{
			ID:         event.ID.String(),
			Seq:        event.Seq,
			To:         event.To.String(),
			ActorKind:  event.ActorKind.String(),
			ActorID:    event.ActorID,
			Reason:     event.Reason,
			OccurredAt: event.OccurredAt.Format(time.RFC3339),
		}
		if event.From != nil {
			from := event.From.String()
			dto.From = &from
		}
		result.Events = append(result.Events, dto)
	}
	if response.ETA != nil {
		result.ETA = &estimateDTO{
			EstimatedMinutes:      response.ETA.EstimatedMinutes,
			EstimatedDeliveryTime: response.ETA.EstimatedDeliveryTime.Format(time.RFC3339),
		}
	}

	return ctx.JSON(http.StatusOK, result)
}

func parseActor(dto actorDTO) (order.Actor, error) {
	kind, err := order.ActorKindFromString(dto.Kind)
	if err != nil {
		return order.Actor{}, err
	}
	if kind == order.ActorKindSystem {
		return order.SystemActor(), nil
	}
	return order.NewActor(kind, dto.ID)
}

func toOrderResponse(aggregate *order.Order) orderResponse {
	response := orderResponse{
		ID:        aggregate.ID().String(),
		Status:    aggregate.Status().String(),
		Version:   aggregate.Version(),
		CreatedAt: aggregate.CreatedAt().Format(time.RFC3339),
	}
	if rider := aggregate.Rider(); rider != nil {
		riderID := rider.String()
		response.RiderID = &riderID
	}
	return response
}

func toStatusChangeResponse(result commands.UpdateOrderStatusResult) statusChangeResponse {
	event := result.Event
	dto := timelineEventDTO{
		ID:         event.ID().String(),
		Seq:        event.Seq(),
		To:         event.To().String(),
		ActorKind:  event.Actor().Kind().String(),
		ActorID:    event.Actor().ID(),
		Reason:     event.Reason(),
		OccurredAt: event.OccurredAt().Format(time.RFC3339),
	}
	if from := event.From(); from != nil {
		fromStatus := from.String()
		dto.From = &fromStatus
	}

	response := statusChangeResponse{
		Order: toOrderResponse(result.Order),
		Event: dto,
	}
	if result.Decision.Allowed && !result.Decision.Recommended {
		response.Warning = result.Decision.Reason
	}
	return response
}

func badRequest(ctx echo.Context, message string) error {
	return ctx.JSON(http.StatusBadRequest, errorResponse{
		Code:    http.StatusBadRequest,
		Message: message,
	})
}

// mapError translates application and domain errors to HTTP status codes.
func mapError(ctx echo.Context, err error) error {
	var transitionErr *order.InvalidTransitionError
	switch {
	case errors.As(err, &transitionErr):
		return ctx.JSON(http.StatusUnprocessableEntity, errorResponse{
			Code:    http.StatusUnprocessableEntity,
			Message: transitionErr.Error(),
		})
	case errors.Is(err, commands.ErrConcurrentUpdate):
		return ctx.JSON(http.StatusConflict, errorResponse{
			Code:    http.StatusConflict,
			Message: "Order was modified concurrently, retry the request",
		})
	case errors.Is(err, errs.ErrObjectNotFound):
		return ctx.JSON(http.StatusNotFound, errorResponse{
			Code:    http.StatusNotFound,
			Message: "Order not found",
		})
	case errors.Is(err, errs.ErrDependencyUnavailable):
		return ctx.JSON(http.StatusServiceUnavailable, errorResponse{
			Code:    http.StatusServiceUnavailable,
			Message: "A required dependency is unavailable",
		})
	case errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsOutOfRange):
		return badRequest(ctx, err.Error())
	default:
		return ctx.JSON(http.StatusInternalServerError, errorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Internal server error",
		})
	}
}
