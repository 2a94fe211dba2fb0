package user

import (
	"context"
	"errors"

	"storefront-be/internal/logger"
	"storefront-be/internal/validation"

	"go.uber.org/zap"
)

type Service interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, input LoginInput) (*AuthResult, error)
	GetByID(ctx context.Context, id uint) (*User, error)
}

type service struct {
	repo   Repository
	tokens *TokenManager
}

func NewService(repo Repository, tokens *TokenManager) Service {
	return &service{repo: repo, tokens: tokens}
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Register"),
	)

	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	hashed, err := HashPassword(input.Password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return nil, err
	}

	u := &User{
		Email:    input.Email,
		Name:     input.Name,
		Password: hashed,
		Role:     RoleCustomer,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	log.Info("user registered", zap.Uint("user_id", u.ID))
	return s.issue(u)
}

func (s *service) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	u, err := s.repo.FindByEmail(ctx, input.Email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !CheckPasswordHash(input.Password, u.Password) {
		logger.FromCtx(ctx).Warn("login rejected", zap.Uint("user_id", u.ID))
		return nil, ErrInvalidCredentials
	}

	return s.issue(u)
}

// GetByID loads the user from the database. Privileged operations use it to
// check the caller's role instead of trusting token claims.
func (s *service) GetByID(ctx context.Context, id uint) (*User, error) {
	if id == 0 {
		return nil, ErrUserNotFound
	}
	return s.repo.FindByID(ctx, id)
}

func (s *service) issue(u *User) (*AuthResult, error) {
	token, err := s.tokens.Generate(u)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: u}, nil
}
