package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tailor_tracker/internal/lifecycle"
	"tailor_tracker/internal/models"
)

type OrderItemRepository interface {
	Create(ctx context.Context, item *models.OrderItem) error
	// GetByID returns nil, nil when the item does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*models.OrderItem, error)
	// GetForUpdate is GetByID holding a row lock until the transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.OrderItem, error)
	GetByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]models.OrderItem, error)
	GetByStatus(ctx context.Context, status lifecycle.Status) ([]models.OrderItem, error)
	// FindScheduledOn lists items booked for day whose status is not excluded.
	FindScheduledOn(ctx context.Context, day time.Time, excluded []lifecycle.Status) ([]models.OrderItem, error)
	// UpdateLifecycle writes the mutable lifecycle columns of item.
	UpdateLifecycle(ctx context.Context, item *models.OrderItem) error
}

type orderItemRepository struct {
	db *gorm.DB
}

func NewOrderItemRepository(db *gorm.DB) OrderItemRepository {
	return &orderItemRepository{db: db}
}

func (r *orderItemRepository) Create(ctx context.Context, item *models.OrderItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *orderItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.OrderItem, error) {
	return r.first(r.db.WithContext(ctx), id)
}

func (r *orderItemRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.OrderItem, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *orderItemRepository) first(db *gorm.DB, id uuid.UUID) (*models.OrderItem, error) {
	var item models.OrderItem
	err := db.First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *orderItemRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

func (r *orderItemRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("order_date DESC").
		Find(&items).Error
	return items, err
}

func (r *orderItemRepository) GetByStatus(ctx context.Context, status lifecycle.Status) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.db.WithContext(ctx).
		Where("approval_status IN ?", lifecycle.Spellings(status)).
		Order("order_date ASC").
		Find(&items).Error
	return items, err
}

func (r *orderItemRepository) FindScheduledOn(ctx context.Context, day time.Time, excluded []lifecycle.Status) ([]models.OrderItem, error) {
	q := r.db.WithContext(ctx).Where("scheduled_date = ?", day.Format(lifecycle.DateLayout))
	if len(excluded) > 0 {
		q = q.Where("approval_status NOT IN ?", lifecycle.SpellingsOf(excluded))
	}
	var items []models.OrderItem
	err := q.Order("order_date ASC").Find(&items).Error
	return items, err
}

func (r *orderItemRepository) UpdateLifecycle(ctx context.Context, item *models.OrderItem) error {
	item.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).
		Model(item).
		Select("approval_status", "final_price", "pricing_factors", "status_updated_at", "updated_at").
		Updates(item).Error
}
