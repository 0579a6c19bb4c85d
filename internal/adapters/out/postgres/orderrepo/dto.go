// Package orderrepo provides data transfer objects and mapping functions for order persistence.
// This package implements the repository pattern for the order domain aggregate, handling
// the conversion between domain entities and database representations.
package orderrepo

import (
	"sort"
	"time"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// OrderDTO represents the database structure for persisting order aggregates.
// The version column carries the optimistic-lock token checked on every update.
type OrderDTO struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey"`
	RiderID   *uuid.UUID   `gorm:"type:uuid;index"`
	Pickup    GeoPointDTO  `gorm:"embedded;embeddedPrefix:pickup_"`
	Dropoffs  []DropoffDTO `gorm:"foreignKey:OrderID;references:ID;constraint:OnDelete:CASCADE"`
	Status    string       `gorm:"type:varchar(16);index"`
	Version   int64
	CreatedAt time.Time
}

// TableName specifies the database table name for order entities.
// Overrides GORM's default naming convention to use "orders".
func (OrderDTO) TableName() string {
	return "orders"
}

// GeoPointDTO represents embedded WGS84 coordinates.
type GeoPointDTO struct {
	Lat float64
	Lon float64
}

// DropoffDTO represents one stop of an order's drop-off route.
// Position preserves the delivery sequence; the route is immutable after
// order creation.
type DropoffDTO struct {
	OrderID  uuid.UUID   `gorm:"type:uuid;primaryKey"`
	Position int         `gorm:"primaryKey"`
	Point    GeoPointDTO `gorm:"embedded"`
}

// TableName specifies the database table name for drop-off rows.
func (DropoffDTO) TableName() string {
	return "order_dropoffs"
}

// fromDomain converts an order domain aggregate to its database representation.
func fromDomain(aggregate *order.Order) OrderDTO {
	var riderID *uuid.UUID
	if id := aggregate.Rider(); id != nil {
		raw := id.Bytes()
		riderID = &raw
	}

	dropoffs := aggregate.Dropoffs()
	dropoffDTOs := make([]DropoffDTO, 0, len(dropoffs))
	for i, dropoff := range dropoffs {
		dropoffDTOs = append(dropoffDTOs, DropoffDTO{
			OrderID:  aggregate.ID().Bytes(),
			Position: i,
			Point:    GeoPointDTO{Lat: dropoff.Latitude(), Lon: dropoff.Longitude()},
		})
	}

	return OrderDTO{
		ID:      aggregate.ID().Bytes(),
		RiderID: riderID,
		Pickup: GeoPointDTO{
			Lat: aggregate.Pickup().Latitude(),
			Lon: aggregate.Pickup().Longitude(),
		},
		Dropoffs:  dropoffDTOs,
		Status:    aggregate.Status().String(),
		Version:   aggregate.Version(),
		CreatedAt: aggregate.CreatedAt(),
	}
}

// toDomain converts a database DTO to an order domain aggregate.
// Reconstructs the complete aggregate including the drop-off route in
// delivery sequence using RestoreOrder.
func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	var riderID *kernel.UUID
	if dto.RiderID != nil {
		rID, riderErr := kernel.UUIDFromBytes((*dto.RiderID)[:])
		if riderErr != nil {
			return nil, riderErr
		}

		riderID = &rID
	}

	pickup, err := kernel.NewGeoPoint(dto.Pickup.Lat, dto.Pickup.Lon)
	if err != nil {
		return nil, err
	}

	sort.Slice(dto.Dropoffs, func(i, j int) bool {
		return dto.Dropoffs[i].Position < dto.Dropoffs[j].Position
	})
	dropoffs := make([]kernel.GeoPoint, 0, len(dto.Dropoffs))
	for _, dropoffDTO := range dto.Dropoffs {
		dropoff, pointErr := kernel.NewGeoPoint(dropoffDTO.Point.Lat, dropoffDTO.Point.Lon)
		if pointErr != nil {
			return nil, pointErr
		}
		dropoffs = append(dropoffs, dropoff)
	}

	status, err := order.StatusFromString(dto.Status)
	if err != nil {
		return nil, err
	}

	return order.RestoreOrder(id, pickup, dropoffs, riderID, status, dto.Version, dto.CreatedAt)
}
