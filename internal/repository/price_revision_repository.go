package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tailor_tracker/internal/models"
)

type PriceRevisionRepository interface {
	Create(ctx context.Context, rev *models.PriceRevision) error
	GetByOrderItemID(ctx context.Context, itemID uuid.UUID) ([]models.PriceRevision, error)
}

type priceRevisionRepository struct {
	db *gorm.DB
}

func NewPriceRevisionRepository(db *gorm.DB) PriceRevisionRepository {
	return &priceRevisionRepository{db: db}
}

func (r *priceRevisionRepository) Create(ctx context.Context, rev *models.PriceRevision) error {
	return r.db.WithContext(ctx).Create(rev).Error
}

func (r *priceRevisionRepository) GetByOrderItemID(ctx context.Context, itemID uuid.UUID) ([]models.PriceRevision, error) {
	var list []models.PriceRevision
	err := r.db.WithContext(ctx).
		Where("order_item_id = ?", itemID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}
