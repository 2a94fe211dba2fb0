package wishlist

import (
	"context"

	"storefront-be/internal/cart"
	"storefront-be/internal/logger"
	"storefront-be/internal/product"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ProductReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*product.Product, error)
}

// CartAdder is implemented by cart.Service.
type CartAdder interface {
	Add(ctx context.Context, userID uint, input cart.AddInput) (*cart.Cart, error)
}

type Service interface {
	List(ctx context.Context, userID uint) ([]*Item, error)
	Add(ctx context.Context, userID uint, productID uuid.UUID) error
	Remove(ctx context.Context, userID uint, productID uuid.UUID) error
	MoveToCart(ctx context.Context, userID uint, productID uuid.UUID) (*cart.Cart, error)
}

type service struct {
	repo     Repository
	products ProductReader
	cart     CartAdder
}

func NewService(repo Repository, products ProductReader, c CartAdder) Service {
	return &service{repo: repo, products: products, cart: c}
}

func (s *service) List(ctx context.Context, userID uint) ([]*Item, error) {
	return s.repo.List(ctx, userID)
}

func (s *service) Add(ctx context.Context, userID uint, productID uuid.UUID) error {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return err
	}
	return s.repo.Add(ctx, userID, productID)
}

func (s *service) Remove(ctx context.Context, userID uint, productID uuid.UUID) error {
	return s.repo.Remove(ctx, userID, productID)
}

// MoveToCart adds one unit to the cart, then drops the wishlist entry. A failed
// removal leaves the item in both places, which the user can clean up.
func (s *service) MoveToCart(ctx context.Context, userID uint, productID uuid.UUID) (*cart.Cart, error) {
	c, err := s.cart.Add(ctx, userID, cart.AddInput{ProductID: productID, Quantity: 1})
	if err != nil {
		return nil, err
	}

	if err := s.repo.Remove(ctx, userID, productID); err != nil {
		logger.FromCtx(ctx).Warn("wishlist removal after move failed",
			zap.Uint("user_id", userID),
			zap.String("product_id", productID.String()),
			zap.Error(err),
		)
	}
	return c, nil
}
