package repository

import (
	"context"

	"gorm.io/gorm"
)

// TxFunc runs fn with repositories bound to one transaction. A non-nil error
// from fn rolls the transaction back.
type TxFunc func(ctx context.Context, fn func(tx *Repository) error) error

// Repository bundles the repositories of one storage backend.
type Repository struct {
	Orders         OrderRepository
	OrderItems     OrderItemRepository
	Notifications  NotificationRepository
	PriceRevisions PriceRevisionRepository
	Users          UserRepository

	tx TxFunc
}

func buildRepository(db *gorm.DB) *Repository {
	return &Repository{
		Orders:         NewOrderRepository(db),
		OrderItems:     NewOrderItemRepository(db),
		Notifications:  NewNotificationRepository(db),
		PriceRevisions: NewPriceRevisionRepository(db),
		Users:          NewUserRepository(db),
	}
}

// New returns the gorm-backed repositories.
func New(db *gorm.DB) *Repository {
	r := buildRepository(db)
	r.tx = func(ctx context.Context, fn func(tx *Repository) error) error {
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(buildRepository(tx))
		})
	}
	return r
}

// Compose assembles a Repository from other implementations, for instance
// the in-memory store.
func Compose(parts Repository, tx TxFunc) *Repository {
	parts.tx = tx
	return &parts
}

// WithTx runs fn inside a transaction. Without a transaction function the
// repositories are used directly.
func (r *Repository) WithTx(ctx context.Context, fn func(tx *Repository) error) error {
	if r.tx == nil {
		return fn(r)
	}
	return r.tx(ctx, fn)
}
