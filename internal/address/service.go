package address

import (
	"context"

	"storefront-be/internal/logger"
	"storefront-be/internal/utils"
	"storefront-be/internal/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	List(ctx context.Context) ([]*Address, error)
	Get(ctx context.Context, addressID uuid.UUID) (*Address, error)
	Create(ctx context.Context, input Input) (*Address, error)
	Update(ctx context.Context, addressID uuid.UUID, input Input) (*Address, error)
	Delete(ctx context.Context, addressID uuid.UUID) error
	SetDefault(ctx context.Context, addressID uuid.UUID) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context) ([]*Address, error) {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUserNotAuthenticated
	}
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) Get(ctx context.Context, addressID uuid.UUID) (*Address, error) {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUserNotAuthenticated
	}
	return s.repo.GetForUser(ctx, addressID, userID)
}

func (s *service) Create(ctx context.Context, input Input) (*Address, error) {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUserNotAuthenticated
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	a := &Address{ID: uuid.New(), UserID: userID, IsActive: true}
	input.apply(a)

	if err := s.repo.Create(ctx, a); err != nil {
		logger.FromCtx(ctx).Error("failed to create address",
			zap.String("layer", "service"),
			zap.Error(err),
		)
		return nil, err
	}
	return a, nil
}

func (s *service) Update(ctx context.Context, addressID uuid.UUID, input Input) (*Address, error) {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUserNotAuthenticated
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	a, err := s.repo.GetForUser(ctx, addressID, userID)
	if err != nil {
		return nil, err
	}
	input.apply(a)

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *service) Delete(ctx context.Context, addressID uuid.UUID) error {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return ErrUserNotAuthenticated
	}
	return s.repo.Deactivate(ctx, addressID, userID)
}

func (s *service) SetDefault(ctx context.Context, addressID uuid.UUID) error {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return ErrUserNotAuthenticated
	}
	return s.repo.SetDefault(ctx, addressID, userID)
}
