package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tailor_tracker/internal/lifecycle"
	"tailor_tracker/internal/models"
	"tailor_tracker/internal/repository"
)

// Actions recorded on status change events.
const (
	ActionAccept       = "accept"
	ActionDecline      = "decline"
	ActionAdvance      = "advance"
	ActionComplete     = "complete"
	ActionPricing      = "pricing"
	ActionConfirmPrice = "confirm_price"
	ActionDeclinePrice = "decline_price"
)

type OrderItemService interface {
	GetItem(ctx context.Context, id uuid.UUID) (*models.OrderItem, error)
	ListUserItems(ctx context.Context, userID uuid.UUID) ([]models.OrderItem, error)
	ListByStatus(ctx context.Context, status string) ([]models.OrderItem, error)
	CurrentStatus(ctx context.Context, id uuid.UUID) (lifecycle.Status, error)
	Timeline(ctx context.Context, id uuid.UUID) ([]lifecycle.Milestone, error)
	PriceHistory(ctx context.Context, id uuid.UUID) ([]models.PriceRevision, error)
	EstimatePrice(serviceType string, data map[string]any) (*PriceEstimate, error)

	Accept(ctx context.Context, id uuid.UUID) (*models.OrderItem, error)
	Decline(ctx context.Context, id uuid.UUID, reason string) (*models.OrderItem, error)
	Advance(ctx context.Context, id uuid.UUID) (*models.OrderItem, error)
	Complete(ctx context.Context, id uuid.UUID) (*models.OrderItem, error)
	UpdatePricing(ctx context.Context, id uuid.UUID, in PricingUpdate) (*PricingResult, error)

	ConfirmPrice(ctx context.Context, id, userID uuid.UUID) (*models.OrderItem, error)
	DeclinePrice(ctx context.Context, id, userID uuid.UUID) (*models.OrderItem, error)
}

// PricingUpdate is a staff edit of an item. Nil fields are left untouched;
// an empty Status keeps the current one.
type PricingUpdate struct {
	FinalPrice    *decimal.Decimal
	Status        string
	AdminNotes    *string
	DepositAmount *decimal.Decimal
}

type PricingResult struct {
	Item     *models.OrderItem
	Forced   bool
	Estimate decimal.NullDecimal
}

type PriceEstimate struct {
	ServiceType lifecycle.ServiceType `json:"service_type"`
	Amount      decimal.NullDecimal   `json:"estimated_price"`
	HasEstimate bool                  `json:"has_estimate"`
}

// OrderItemOptions holds the optional collaborators of the service. Nil
// members disable the matching side effect.
type OrderItemOptions struct {
	Events        EventBus
	Cache         StatusCache
	Notifications NotificationService
}

type orderItemService struct {
	repo          *repository.Repository
	events        EventBus
	cache         StatusCache
	notifications NotificationService
	log           *zap.Logger
	now           func() time.Time
}

func NewOrderItemService(repo *repository.Repository, log *zap.Logger, opts OrderItemOptions) OrderItemService {
	if log == nil {
		log = zap.NewNop()
	}
	return &orderItemService{
		repo:          repo,
		events:        opts.Events,
		cache:         opts.Cache,
		notifications: opts.Notifications,
		log:           log.Named("order_items"),
		now:           time.Now,
	}
}

func (s *orderItemService) GetItem(ctx context.Context, id uuid.UUID) (*models.OrderItem, error) {
	item, err := s.repo.OrderItems.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order item: %w", err)
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	return item, nil
}

func (s *orderItemService) ListUserItems(ctx context.Context, userID uuid.UUID) ([]models.OrderItem, error) {
	items, err := s.repo.OrderItems.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	return items, nil
}

// ListByStatus accepts any spelling Normalize understands.
func (s *orderItemService) ListByStatus(ctx context.Context, status string) ([]models.OrderItem, error) {
	st, err := lifecycle.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.OrderItems.GetByStatus(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("list order items by status: %w", err)
	}
	return items, nil
}

func (s *orderItemService) CurrentStatus(ctx context.Context, id uuid.UUID) (lifecycle.Status, error) {
	if s.cache != nil {
		status, ok, err := s.cache.GetItemStatus(ctx, id)
		if err != nil {
			s.log.Warn("status cache read failed", zap.String("item_id", id.String()), zap.Error(err))
		} else if ok {
			return status, nil
		}
	}
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return "", err
	}
	s.cacheStatus(ctx, item)
	return item.Status(), nil
}

func (s *orderItemService) Timeline(ctx context.Context, id uuid.UUID) ([]lifecycle.Milestone, error) {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	return lifecycle.Project(item.ServiceType, item.Status(), item.StatusUpdatedAt, item.OrderDate), nil
}

func (s *orderItemService) PriceHistory(ctx context.Context, id uuid.UUID) ([]models.PriceRevision, error) {
	if _, err := s.GetItem(ctx, id); err != nil {
		return nil, err
	}
	revs, err := s.repo.PriceRevisions.GetByOrderItemID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list price revisions: %w", err)
	}
	return revs, nil
}

func (s *orderItemService) EstimatePrice(serviceType string, data map[string]any) (*PriceEstimate, error) {
	t, err := lifecycle.ParseServiceType(serviceType)
	if err != nil {
		return nil, err
	}
	est := &PriceEstimate{ServiceType: t}
	if amount, ok := lifecycle.Estimate(t, data); ok {
		est.Amount = decimal.NewNullDecimal(amount)
		est.HasEstimate = true
	}
	return est, nil
}

func (s *orderItemService) Accept(ctx context.Context, id uuid.UUID) (*models.OrderItem, error) {
	item, err := s.mutate(ctx, id, ActionAccept, func(item *models.OrderItem, _ time.Time) (*models.PriceRevision, error) {
		cur := item.Status()
		if cur.IsTerminal() {
			return nil, fmt.Errorf("%w: %s", ErrTerminalStatus, cur)
		}
		if cur != lifecycle.StatusPending {
			return nil, fmt.Errorf("%w: only pending items can be accepted, item is %s", ErrInvalidTransition, cur)
		}
		next, ok := lifecycle.NextStatus(cur, item.ServiceType)
		if !ok {
			return nil, ErrNoTransition
		}
		item.ApprovalStatus = next
		return nil, nil
	})
	return item, err
}

func (s *orderItemService) Decline(ctx context.Context, id uuid.UUID, reason string) (*models.OrderItem, error) {
	item, err := s.mutate(ctx, id, ActionDecline, func(item *models.OrderItem, _ time.Time) (*models.PriceRevision, error) {
		if err := lifecycle.CanApply(item.ServiceType, item.Status(), lifecycle.StatusCancelled); err != nil {
			return nil, err
		}
		item.ApprovalStatus = lifecycle.StatusCancelled
		if reason = strings.TrimSpace(reason); reason != "" {
			item.SetFactors(map[string]any{models.FactorDeclineReason: reason})
		}
		return nil, nil
	})
	return item, err
}

func (s *orderItemService) Advance(ctx context.Context, id uuid.UUID) (*models.OrderItem, error) {
	item, err := s.mutate(ctx, id, ActionAdvance, func(item *models.OrderItem, _ time.Time) (*models.PriceRevision, error) {
		cur := item.Status()
		if cur == lifecycle.StatusPriceConfirmation {
			return nil, ErrAwaitingPriceConfirmation
		}
		next, ok := lifecycle.NextStatus(cur, item.ServiceType)
		if !ok {
			return nil, fmt.Errorf("%w: from %s for %s", ErrNoTransition, cur, item.ServiceType)
		}
		item.ApprovalStatus = next
		return nil, nil
	})
	return item, err
}

func (s *orderItemService) Complete(ctx context.Context, id uuid.UUID) (*models.OrderItem, error) {
	item, err := s.mutate(ctx, id, ActionComplete, func(item *models.OrderItem, _ time.Time) (*models.PriceRevision, error) {
		if err := lifecycle.CanApply(item.ServiceType, item.Status(), lifecycle.StatusCompleted); err != nil {
			return nil, err
		}
		item.ApprovalStatus = lifecycle.StatusCompleted
		return nil, nil
	})
	return item, err
}

func (s *orderItemService) UpdatePricing(ctx context.Context, id uuid.UUID, in PricingUpdate) (*PricingResult, error) {
	if in.FinalPrice == nil && in.Status == "" && in.AdminNotes == nil && in.DepositAmount == nil {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	if in.FinalPrice != nil && in.FinalPrice.IsNegative() {
		return nil, ErrInvalidPrice
	}
	if in.DepositAmount != nil && in.DepositAmount.IsNegative() {
		return nil, ErrInvalidPrice
	}
	var requested lifecycle.Status
	if in.Status != "" {
		st, err := lifecycle.ParseStatus(in.Status)
		if err != nil {
			return nil, err
		}
		requested = st
	}

	result := &PricingResult{}
	item, err := s.mutate(ctx, id, ActionPricing, func(item *models.OrderItem, _ time.Time) (*models.PriceRevision, error) {
		cur := item.Status()
		if in.FinalPrice != nil || (requested != "" && requested != cur) {
			if cur.IsTerminal() {
				return nil, fmt.Errorf("%w: %s", ErrTerminalStatus, cur)
			}
			if cur == lifecycle.StatusPriceConfirmation {
				return nil, ErrAwaitingPriceConfirmation
			}
		}

		next := cur
		patch := map[string]any{}
		var rev *models.PriceRevision

		// Resubmitting the stored price is not a revision. Once the customer
		// has confirmed a price it stays locked in.
		unchanged := in.FinalPrice != nil && item.FinalPrice.Valid && item.FinalPrice.Decimal.Equal(*in.FinalPrice)

		if in.FinalPrice != nil && !unchanged {
			res := lifecycle.Reconcile(lifecycle.ReconcileInput{
				ServiceType:     item.ServiceType,
				SpecificData:    item.SpecificData,
				CurrentStatus:   cur,
				RequestedStatus: requested,
				FinalPrice:      *in.FinalPrice,
			})
			rev = &models.PriceRevision{
				OrderItemID:        item.ID,
				PreviousPrice:      item.FinalPrice,
				NewPrice:           *in.FinalPrice,
				ForcedConfirmation: res.Forced,
				StatusBefore:       cur,
			}
			if res.HasEstimate {
				rev.EstimatedPrice = decimal.NewNullDecimal(res.Estimate)
				result.Estimate = rev.EstimatedPrice
			}
			if res.Forced {
				next = res.Status
				result.Forced = true
				for k, v := range res.Factors {
					patch[k] = v
				}
			}
			item.FinalPrice = decimal.NewNullDecimal(*in.FinalPrice)
		}

		if !result.Forced && requested != "" && requested != cur {
			if err := lifecycle.CanApply(item.ServiceType, cur, requested); err != nil {
				return nil, err
			}
			next = requested
		}

		if in.AdminNotes != nil {
			patch[models.FactorAdminNotes] = strings.TrimSpace(*in.AdminNotes)
		}
		if in.DepositAmount != nil {
			patch[models.FactorDepositAmount] = in.DepositAmount.StringFixed(2)
		}
		if len(patch) > 0 {
			item.SetFactors(patch)
		}

		item.ApprovalStatus = next
		if rev != nil {
			rev.StatusAfter = next
		}
		return rev, nil
	})
	if err != nil {
		return nil, err
	}

	result.Item = item
	if result.Forced && s.notifications != nil {
		if _, err := s.notifications.NotifyPriceConfirmation(ctx, item); err != nil {
			s.log.Error("price confirmation notification failed",
				zap.String("item_id", item.ID.String()), zap.Error(err))
		}
	}
	return result, nil
}

func (s *orderItemService) ConfirmPrice(ctx context.Context, id, userID uuid.UUID) (*models.OrderItem, error) {
	return s.answerPrice(ctx, id, userID, true)
}

func (s *orderItemService) DeclinePrice(ctx context.Context, id, userID uuid.UUID) (*models.OrderItem, error) {
	return s.answerPrice(ctx, id, userID, false)
}

func (s *orderItemService) answerPrice(ctx context.Context, id, userID uuid.UUID, accept bool) (*models.OrderItem, error) {
	action := ActionDeclinePrice
	if accept {
		action = ActionConfirmPrice
	}
	item, err := s.mutate(ctx, id, action, func(item *models.OrderItem, now time.Time) (*models.PriceRevision, error) {
		if item.UserID != userID {
			return nil, ErrForbidden
		}
		next, err := lifecycle.ResolvePriceConfirmation(item.ServiceType, item.Status(), accept)
		if err != nil {
			return nil, err
		}
		item.ApprovalStatus = next
		item.SetFactors(map[string]any{models.FactorPriceAnswerAt: now.UTC().Format(time.RFC3339)})
		return nil, nil
	})
	return item, err
}

type applyFunc func(item *models.OrderItem, now time.Time) (*models.PriceRevision, error)

// mutate loads the item under a row lock, applies fn and persists the result
// with its price revision in one transaction. Nothing is written when fn
// fails.
func (s *orderItemService) mutate(ctx context.Context, id uuid.UUID, action string, fn applyFunc) (*models.OrderItem, error) {
	var (
		updated *models.OrderItem
		from    lifecycle.Status
		rev     *models.PriceRevision
	)
	now := s.now()

	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		item, err := tx.OrderItems.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("load order item: %w", err)
		}
		if item == nil {
			return ErrItemNotFound
		}

		from = item.Status()
		rev, err = fn(item, now)
		if err != nil {
			return err
		}
		if item.Status() != from {
			item.StatusUpdatedAt = now
		}
		if err := tx.OrderItems.UpdateLifecycle(ctx, item); err != nil {
			return fmt.Errorf("update order item: %w", err)
		}
		if rev != nil {
			if err := tx.PriceRevisions.Create(ctx, rev); err != nil {
				return fmt.Errorf("record price revision: %w", err)
			}
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	to := updated.Status()
	s.log.Info("order item updated",
		zap.String("item_id", updated.ID.String()),
		zap.String("action", action),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
	)

	s.cacheStatus(ctx, updated)
	if to != from {
		s.publishStatusChanged(ctx, updated, from, action, rev != nil && rev.ForcedConfirmation)
	}
	return updated, nil
}

func (s *orderItemService) cacheStatus(ctx context.Context, item *models.OrderItem) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetItemStatus(ctx, item.ID, item.Status()); err != nil {
		s.log.Warn("status cache write failed", zap.String("item_id", item.ID.String()), zap.Error(err))
	}
}

func (s *orderItemService) publishStatusChanged(ctx context.Context, item *models.OrderItem, from lifecycle.Status, action string, forced bool) {
	if s.events == nil {
		return
	}
	e := StatusChangedEvent{
		OrderItemID: item.ID,
		OrderID:     item.OrderID,
		UserID:      item.UserID,
		ServiceType: item.ServiceType,
		From:        from,
		To:          item.Status(),
		Action:      action,
		Forced:      forced,
		ChangedAt:   item.StatusUpdatedAt,
	}
	if item.FinalPrice.Valid {
		e.FinalPrice = item.FinalPrice.Decimal.StringFixed(2)
	}
	if err := s.events.PublishStatusChanged(ctx, e); err != nil {
		s.log.Warn("publish status change failed", zap.String("item_id", item.ID.String()), zap.Error(err))
	}
}
