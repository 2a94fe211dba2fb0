package cart

import (
	"context"

	"storefront-be/internal/logger"
	"storefront-be/internal/product"
	"storefront-be/internal/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProductReader is the slice of the catalog the cart needs.
type ProductReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*product.Product, error)
}

type Service interface {
	Get(ctx context.Context, userID uint) (*Cart, error)
	Add(ctx context.Context, userID uint, input AddInput) (*Cart, error)
	UpdateQuantity(ctx context.Context, userID uint, productID uuid.UUID, qty int) (*Cart, error)
	Remove(ctx context.Context, userID uint, productID uuid.UUID) (*Cart, error)
	Clear(ctx context.Context, userID uint) error
}

type service struct {
	repo     Repository
	products ProductReader
}

func NewService(repo Repository, products ProductReader) Service {
	return &service{repo: repo, products: products}
}

func (s *service) Get(ctx context.Context, userID uint) (*Cart, error) {
	items, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return newCart(items), nil
}

func (s *service) Add(ctx context.Context, userID uint, input AddInput) (*Cart, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "AddToCart"),
		zap.Uint("user_id", userID),
		zap.String("product_id", input.ProductID.String()),
	)

	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	p, err := s.products.GetByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if !p.InStock(input.Quantity) {
		return nil, ErrInsufficientStock
	}

	qty, err := s.repo.Add(ctx, userID, input.ProductID, input.Quantity)
	if err != nil {
		log.Warn("add to cart failed", zap.Error(err))
		return nil, err
	}

	log.Info("cart updated", zap.Int("quantity", qty))
	return s.Get(ctx, userID)
}

func (s *service) UpdateQuantity(ctx context.Context, userID uint, productID uuid.UUID, qty int) (*Cart, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.InStock(qty) {
		return nil, ErrInsufficientStock
	}

	if err := s.repo.SetQuantity(ctx, userID, productID, qty); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *service) Remove(ctx context.Context, userID uint, productID uuid.UUID) (*Cart, error) {
	if err := s.repo.Remove(ctx, userID, productID); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *service) Clear(ctx context.Context, userID uint) error {
	return s.repo.Clear(ctx, userID)
}
