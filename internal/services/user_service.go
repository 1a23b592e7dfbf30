package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"tailor_tracker/internal/models"
	"tailor_tracker/internal/repository"
	"tailor_tracker/pkg/whatsapp"
)

type UserService interface {
	RegisterCustomer(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByWhatsAppNumber(ctx context.Context, number string) (*models.User, error)
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

// RegisterCustomer stores a customer with numbers in international form.
func (s *userService) RegisterCustomer(ctx context.Context, user *models.User) error {
	user.Name = strings.TrimSpace(user.Name)
	if user.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	user.PhoneNumber = whatsapp.NormalizePhone(user.PhoneNumber)
	user.WhatsAppNumber = whatsapp.NormalizePhone(user.WhatsAppNumber)
	if user.Role == "" {
		user.Role = models.RoleCustomer
	}
	user.IsActive = true
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return fmt.Errorf("%w: email already registered", ErrInvalidInput)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *userService) GetUserByWhatsAppNumber(ctx context.Context, number string) (*models.User, error) {
	user, err := s.userRepo.GetByWhatsAppNumber(ctx, whatsapp.NormalizePhone(number))
	if err != nil {
		return nil, fmt.Errorf("get user by whatsapp number: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
