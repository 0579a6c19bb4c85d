package timelinerepo

import (
	"context"
	"errors"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/order"
	"lastmile/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormTimelineRepository implements TimelineRepository using GORM.
type GormTimelineRepository struct {
	db *gorm.DB
}

// NewGormTimelineRepository creates a new GORM timeline repository.
func NewGormTimelineRepository(db *gorm.DB) *GormTimelineRepository {
	return &GormTimelineRepository{db: db}
}

// Append saves a new timeline event. A duplicate (order id, sequence) pair
// means a concurrent writer already extended this timeline; it is reported
// as a version error so the caller retries against fresh state. Requires
// the gorm connection to be opened with TranslateError enabled.
func (r *GormTimelineRepository) Append(ctx context.Context, event order.TimelineEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}

	dto := fromDomain(event)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errs.NewVersionIsInvalidErrorWithCause("timeline sequence", err)
		}
		return err
	}

	return nil
}

// GetByOrder retrieves an order's full timeline in ascending sequence order.
func (r *GormTimelineRepository) GetByOrder(
	ctx context.Context, orderID kernel.UUID,
) ([]order.TimelineEvent, error) {
	if err := orderID.Validate(); err != nil {
		return nil, err
	}

	var dtos []TimelineEventDTO
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID.Bytes()).
		Order("seq").
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	events := make([]order.TimelineEvent, 0, len(dtos))
	for _, dto := range dtos {
		event, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, nil
}
