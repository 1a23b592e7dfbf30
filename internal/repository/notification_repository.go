package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tailor_tracker/internal/lifecycle"
	"tailor_tracker/internal/models"
)

type NotificationRepository interface {
	// Create inserts n and returns ErrDuplicate when the item already has a
	// notification of that type for the same dedupe day.
	Create(ctx context.Context, n *models.Notification) error
	// CreateIfAbsent inserts n unless a duplicate exists and reports whether
	// a row was written.
	CreateIfAbsent(ctx context.Context, n *models.Notification) (bool, error)
	ExistsForDay(ctx context.Context, itemID uuid.UUID, typ models.NotificationType, day time.Time) (bool, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]models.Notification, error)
	GetByOrderItemID(ctx context.Context, itemID uuid.UUID) ([]models.Notification, error)
	MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkRead(ctx context.Context, id, userID uuid.UUID) (bool, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	err := r.db.WithContext(ctx).Create(n).Error
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: notification %s for item %s", ErrDuplicate, n.Type, n.OrderItemID)
	}
	return err
}

func (r *notificationRepository) CreateIfAbsent(ctx context.Context, n *models.Notification) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(n)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *notificationRepository) ExistsForDay(ctx context.Context, itemID uuid.UUID, typ models.NotificationType, day time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("order_item_id = ? AND type = ? AND dedupe_date = ?", itemID, string(typ), day.Format(lifecycle.DateLayout)).
		Count(&count).Error
	return count > 0, err
}

func (r *notificationRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	var list []models.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *notificationRepository) GetByOrderItemID(ctx context.Context, itemID uuid.UUID) ([]models.Notification, error) {
	var list []models.Notification
	err := r.db.WithContext(ctx).
		Where("order_item_id = ?", itemID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *notificationRepository) MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ?", id).
		Update("delivered_at", at).Error
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	return tx.RowsAffected > 0, tx.Error
}
