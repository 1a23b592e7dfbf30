package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"tailor_tracker/internal/lifecycle"
	"tailor_tracker/internal/models"
	"tailor_tracker/internal/repository"
)

type NewOrderItem struct {
	ServiceType  string         `json:"service_type"`
	SpecificData map[string]any `json:"specific_data"`
}

type OrderService interface {
	// PlaceOrder stores a new order whose items all start pending.
	PlaceOrder(ctx context.Context, userID uuid.UUID, items []NewOrderItem) (*models.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListUserOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
}

func NewOrderService(orderRepo repository.OrderRepository) OrderService {
	return &orderService{orderRepo: orderRepo}
}

func (s *orderService) PlaceOrder(ctx context.Context, userID uuid.UUID, items []NewOrderItem) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: an order needs at least one item", ErrInvalidInput)
	}

	order := &models.Order{UserID: userID}
	for i, in := range items {
		t, err := lifecycle.ParseServiceType(in.ServiceType)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		data := datatypes.JSONMap{}
		for k, v := range in.SpecificData {
			data[k] = v
		}
		order.Items = append(order.Items, models.OrderItem{
			UserID:         userID,
			ServiceType:    t,
			ApprovalStatus: lifecycle.StatusPending,
			SpecificData:   data,
		})
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) ListUserOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	orders, err := s.orderRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}
