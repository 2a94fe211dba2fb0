package rest

import (
	"context"

	"storefront-be/internal/cart"
	"storefront-be/internal/order"
	"storefront-be/internal/payment"
	"storefront-be/internal/product"
	"storefront-be/internal/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, input user.RegisterInput) (*user.AuthResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.AuthResult), args.Error(1)
}

func (m *MockUserService) Login(ctx context.Context, input user.LoginInput) (*user.AuthResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.AuthResult), args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, id uint) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) List(ctx context.Context, f product.ListFilter) (*product.ListResult, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.ListResult), args.Error(1)
}

func (m *MockProductService) Get(ctx context.Context, id uuid.UUID) (*product.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

func (m *MockProductService) Categories(ctx context.Context) ([]product.CategoryCount, error) {
	args := m.Called(ctx)
	return args.Get(0).([]product.CategoryCount), args.Error(1)
}

func (m *MockProductService) Create(ctx context.Context, input product.Input) (*product.Product, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

func (m *MockProductService) Update(ctx context.Context, id uuid.UUID, input product.Input) (*product.Product, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

func (m *MockProductService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) Get(ctx context.Context, userID uint) (*cart.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartService) Add(ctx context.Context, userID uint, input cart.AddInput) (*cart.Cart, error) {
	args := m.Called(ctx, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartService) UpdateQuantity(ctx context.Context, userID uint, productID uuid.UUID, qty int) (*cart.Cart, error) {
	args := m.Called(ctx, userID, productID, qty)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartService) Remove(ctx context.Context, userID uint, productID uuid.UUID) (*cart.Cart, error) {
	args := m.Called(ctx, userID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartService) Clear(ctx context.Context, userID uint) error {
	return m.Called(ctx, userID).Error(0)
}

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) order(args mock.Arguments) (*order.Order, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) Create(ctx context.Context, userID uint, input order.CreateInput) (*order.Order, error) {
	return m.order(m.Called(ctx, userID, input))
}

func (m *MockOrderService) Checkout(ctx context.Context, userID uint, addressID uuid.UUID, method order.PaymentMethod) (*order.Order, error) {
	return m.order(m.Called(ctx, userID, addressID, method))
}

func (m *MockOrderService) Get(ctx context.Context, userID uint, id uuid.UUID) (*order.Order, error) {
	return m.order(m.Called(ctx, userID, id))
}

func (m *MockOrderService) Find(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return m.order(m.Called(ctx, id))
}

func (m *MockOrderService) ListForUser(ctx context.Context, userID uint, page, limit int) (*order.ListResult, error) {
	args := m.Called(ctx, userID, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.ListResult), args.Error(1)
}

func (m *MockOrderService) ListAll(ctx context.Context, actorID uint, f order.ListFilter) (*order.ListResult, error) {
	args := m.Called(ctx, actorID, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.ListResult), args.Error(1)
}

func (m *MockOrderService) Cancel(ctx context.Context, userID uint, id uuid.UUID) (*order.Order, error) {
	return m.order(m.Called(ctx, userID, id))
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, actorID uint, id uuid.UUID, to order.Status) (*order.Order, error) {
	return m.order(m.Called(ctx, actorID, id, to))
}

func (m *MockOrderService) UpdateShipping(ctx context.Context, actorID uint, id uuid.UUID, input order.ShippingInput) (*order.Order, error) {
	return m.order(m.Called(ctx, actorID, id, input))
}

func (m *MockOrderService) Delete(ctx context.Context, actorID uint, id uuid.UUID) error {
	return m.Called(ctx, actorID, id).Error(0)
}

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) Initiate(ctx context.Context, userID uint, input payment.InitiateInput) (*payment.InitiateResult, error) {
	args := m.Called(ctx, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.InitiateResult), args.Error(1)
}

func (m *MockPaymentService) GetForOrder(ctx context.Context, userID uint, orderID uuid.UUID) (*payment.Transaction, error) {
	args := m.Called(ctx, userID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Transaction), args.Error(1)
}

func (m *MockPaymentService) HandleRedirect(ctx context.Context, merchantTxnID string, orderID uuid.UUID, code string) (order.PaymentStatus, error) {
	args := m.Called(ctx, merchantTxnID, orderID, code)
	return args.Get(0).(order.PaymentStatus), args.Error(1)
}

func (m *MockPaymentService) HandleWebhook(ctx context.Context, body []byte, xVerify string) error {
	return m.Called(ctx, body, xVerify).Error(0)
}

func (m *MockPaymentService) ReconcilePending(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
