package order

import (
	"context"
	"errors"
	"time"

	"storefront-be/internal/cart"
	"storefront-be/internal/events"
	"storefront-be/internal/logger"
	"storefront-be/internal/user"
	"storefront-be/internal/utils"
	"storefront-be/internal/validation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const sideEffectTimeout = 10 * time.Second

// Notifier sends customer emails. Failures are logged by the caller and never
// undo the order change that triggered them.
type Notifier interface {
	OrderPlaced(ctx context.Context, o *Order) error
	OrderStatusChanged(ctx context.Context, o *Order) error
}

type nopNotifier struct{}

func (nopNotifier) OrderPlaced(context.Context, *Order) error        { return nil }
func (nopNotifier) OrderStatusChanged(context.Context, *Order) error { return nil }

type UserReader interface {
	GetByID(ctx context.Context, id uint) (*user.User, error)
}

type CartStore interface {
	Get(ctx context.Context, userID uint) (*cart.Cart, error)
	Clear(ctx context.Context, userID uint) error
}

type Service interface {
	Create(ctx context.Context, userID uint, input CreateInput) (*Order, error)
	Checkout(ctx context.Context, userID uint, addressID uuid.UUID, method PaymentMethod) (*Order, error)
	Get(ctx context.Context, userID uint, id uuid.UUID) (*Order, error)
	Find(ctx context.Context, id uuid.UUID) (*Order, error)
	ListForUser(ctx context.Context, userID uint, page, limit int) (*ListResult, error)
	ListAll(ctx context.Context, actorID uint, f ListFilter) (*ListResult, error)
	Cancel(ctx context.Context, userID uint, id uuid.UUID) (*Order, error)
	UpdateStatus(ctx context.Context, actorID uint, id uuid.UUID, to Status) (*Order, error)
	UpdateShipping(ctx context.Context, actorID uint, id uuid.UUID, input ShippingInput) (*Order, error)
	Delete(ctx context.Context, actorID uint, id uuid.UUID) error
}

type service struct {
	repo      Repository
	users     UserReader
	carts     CartStore
	notifier  Notifier
	publisher events.Publisher
}

func NewService(repo Repository, users UserReader, carts CartStore, notifier Notifier, publisher events.Publisher) Service {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &service{
		repo:      repo,
		users:     users,
		carts:     carts,
		notifier:  notifier,
		publisher: publisher,
	}
}

func (s *service) Create(ctx context.Context, userID uint, input CreateInput) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateOrder"),
		zap.Uint("user_id", userID),
	)

	if userID == 0 {
		return nil, ErrUserNotAuthenticated
	}
	if len(input.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	lines, err := mergeLines(input.Items)
	if err != nil {
		return nil, err
	}

	o := &Order{
		ID:            uuid.New(),
		UserID:        userID,
		Status:        StatusProcessing,
		PaymentMethod: input.PaymentMethod,
		PaymentStatus: PaymentPending,
	}

	start := time.Now()
	if err := s.repo.Create(ctx, o, input.AddressID, lines); err != nil {
		log.Warn("order creation rolled back", zap.Error(err))
		return nil, err
	}

	log.Info("order created",
		zap.String("order_id", o.ID.String()),
		zap.String("total", o.TotalPrice.String()),
		zap.Int("items", len(o.Items)),
		zap.Duration("duration", time.Since(start)),
	)

	s.afterChange(ctx, o, events.OrderCreated, s.notifier.OrderPlaced)
	return o, nil
}

// Checkout places an order for everything in the user's cart and empties the
// cart once the order is committed.
func (s *service) Checkout(ctx context.Context, userID uint, addressID uuid.UUID, method PaymentMethod) (*Order, error) {
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(c.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	lines := make([]LineInput, 0, len(c.Items))
	for _, it := range c.Items {
		lines = append(lines, LineInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	o, err := s.Create(ctx, userID, CreateInput{
		AddressID:     addressID,
		PaymentMethod: method,
		Items:         lines,
	})
	if err != nil {
		return nil, err
	}

	if err := s.carts.Clear(ctx, userID); err != nil {
		logger.FromCtx(ctx).Warn("failed to clear cart after checkout",
			zap.String("order_id", o.ID.String()),
			zap.Error(err),
		)
	}
	return o, nil
}

func (s *service) Get(ctx context.Context, userID uint, id uuid.UUID) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

// Find loads an order without an ownership check. Internal callers only.
func (s *service) Find(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListForUser(ctx context.Context, userID uint, page, limit int) (*ListResult, error) {
	limit, offset := utils.Page(page, limit)

	orders, total, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return &ListResult{Items: orders, TotalCount: total, Page: offset/limit + 1, Limit: limit}, nil
}

func (s *service) ListAll(ctx context.Context, actorID uint, f ListFilter) (*ListResult, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}

	limit, offset := utils.Page(f.Page, f.Limit)
	orders, total, err := s.repo.ListAll(ctx, f, limit, offset)
	if err != nil {
		return nil, err
	}
	return &ListResult{Items: orders, TotalCount: total, Page: offset/limit + 1, Limit: limit}, nil
}

func (s *service) Cancel(ctx context.Context, userID uint, id uuid.UUID) (*Order, error) {
	if err := s.repo.Cancel(ctx, id, userID); err != nil {
		return nil, err
	}

	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.afterChange(ctx, o, events.OrderStatusChanged, s.notifier.OrderStatusChanged)
	return o, nil
}

func (s *service) UpdateStatus(ctx context.Context, actorID uint, id uuid.UUID, to Status) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateOrderStatus"),
		zap.String("order_id", id.String()),
		zap.String("to", string(to)),
	)

	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}

	from := allowedFrom(to)
	if len(from) == 0 {
		return nil, ErrInvalidTransition
	}

	if err := s.repo.UpdateStatus(ctx, id, to, from); err != nil {
		log.Warn("status update rejected", zap.Error(err))
		return nil, err
	}

	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	log.Info("order status updated", zap.Uint("actor_id", actorID))
	s.afterChange(ctx, o, events.OrderStatusChanged, s.notifier.OrderStatusChanged)
	return o, nil
}

func (s *service) UpdateShipping(ctx context.Context, actorID uint, id uuid.UUID, input ShippingInput) (*Order, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateShipping(ctx, id, input.ShippingID, input.ShippingPartner); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) Delete(ctx context.Context, actorID uint, id uuid.UUID) error {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	logger.FromCtx(ctx).Info("order deleted",
		zap.String("order_id", id.String()),
		zap.Uint("actor_id", actorID),
	)
	return nil
}

// requireAdmin reads the actor's role from the database. Token claims are not
// trusted for privileged writes.
func (s *service) requireAdmin(ctx context.Context, actorID uint) error {
	if actorID == 0 {
		return ErrUserNotAuthenticated
	}

	u, err := s.users.GetByID(ctx, actorID)
	if errors.Is(err, user.ErrUserNotFound) {
		return ErrForbidden
	}
	if err != nil {
		return err
	}
	if !u.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

type eventData struct {
	OrderID       string          `json:"orderId"`
	UserID        uint            `json:"userId"`
	Status        Status          `json:"status"`
	PaymentStatus PaymentStatus   `json:"paymentStatus"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
}

func (s *service) afterChange(ctx context.Context, o *Order, eventType string, notify func(context.Context, *Order) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	log := logger.FromCtx(ctx).With(zap.String("order_id", o.ID.String()))

	if err := notify(ctx, o); err != nil {
		log.Warn("order notification failed", zap.String("event", eventType), zap.Error(err))
	}

	err := s.publisher.Publish(ctx, events.New(eventType, o.ID.String(), eventData{
		OrderID:       o.ID.String(),
		UserID:        o.UserID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		TotalPrice:    o.TotalPrice,
	}))
	if err != nil {
		log.Warn("order event publish failed", zap.String("event", eventType), zap.Error(err))
	}
}
