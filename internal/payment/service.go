package payment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"storefront-be/internal/events"
	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"
	"storefront-be/internal/order"
	"storefront-be/internal/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	RedirectPath = "/api/payment/phonepe/status"
	WebhookPath  = "/api/payment/phonepe/webhook"

	reconcileBatch = 50
)

// Orders is the part of the order service payments depend on.
type Orders interface {
	Create(ctx context.Context, userID uint, input order.CreateInput) (*order.Order, error)
	Checkout(ctx context.Context, userID uint, addressID uuid.UUID, method order.PaymentMethod) (*order.Order, error)
	Get(ctx context.Context, userID uint, id uuid.UUID) (*order.Order, error)
	Find(ctx context.Context, id uuid.UUID) (*order.Order, error)
}

type Notifier interface {
	PaymentSucceeded(ctx context.Context, o *order.Order) error
	PaymentFailed(ctx context.Context, o *order.Order) error
}

type Options struct {
	AppBaseURL     string
	VerifyCallback bool
	ReconcileAfter time.Duration
}

type Service interface {
	Initiate(ctx context.Context, userID uint, input InitiateInput) (*InitiateResult, error)
	GetForOrder(ctx context.Context, userID uint, orderID uuid.UUID) (*Transaction, error)
	HandleRedirect(ctx context.Context, merchantTxnID string, orderID uuid.UUID, code string) (order.PaymentStatus, error)
	HandleWebhook(ctx context.Context, body []byte, xVerify string) error
	ReconcilePending(ctx context.Context) (int, error)
}

type service struct {
	repo      Repository
	gateway   Gateway
	orders    Orders
	notifier  Notifier
	publisher events.Publisher
	stats     *metrics.Payments
	opts      Options
	now       func() time.Time
}

func NewService(
	repo Repository,
	gateway Gateway,
	orders Orders,
	notifier Notifier,
	publisher events.Publisher,
	stats *metrics.Payments,
	opts Options,
) Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if stats == nil {
		stats = metrics.NewPayments()
	}
	return &service{
		repo:      repo,
		gateway:   gateway,
		orders:    orders,
		notifier:  notifier,
		publisher: publisher,
		stats:     stats,
		opts:      opts,
		now:       time.Now,
	}
}

// Initiate places a PHONEPE order, records a PENDING transaction and asks the
// gateway for a pay page. A gateway failure marks the attempt FAILED; the order
// row is kept so the customer can see what happened.
func (s *service) Initiate(ctx context.Context, userID uint, input InitiateInput) (*InitiateResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "InitiatePayment"),
		zap.Uint("user_id", userID),
	)

	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	var (
		o   *order.Order
		err error
	)
	if len(input.Items) > 0 {
		o, err = s.orders.Create(ctx, userID, order.CreateInput{
			AddressID:     input.AddressID,
			PaymentMethod: order.PaymentPhonePe,
			Items:         input.Items,
		})
	} else {
		o, err = s.orders.Checkout(ctx, userID, input.AddressID, order.PaymentPhonePe)
	}
	if err != nil {
		return nil, err
	}

	txn := &Transaction{
		ID:                    uuid.New(),
		OrderID:               o.ID,
		MerchantTransactionID: newMerchantTransactionID(),
		Amount:                o.TotalPrice,
		Status:                order.PaymentPending,
	}
	if err := s.repo.Create(ctx, txn); err != nil {
		log.Error("failed to record transaction", zap.Error(err))
		return nil, err
	}

	log = log.With(
		zap.String("order_id", o.ID.String()),
		zap.String("merchant_transaction_id", txn.MerchantTransactionID),
	)

	resp, err := s.gateway.Pay(ctx, PayRequest{
		MerchantTransactionID: txn.MerchantTransactionID,
		MerchantUserID:        fmt.Sprintf("MUID%d", userID),
		Amount:                txn.Amount,
		RedirectURL:           s.redirectURL(txn.MerchantTransactionID, o.ID),
		CallbackURL:           s.opts.AppBaseURL + WebhookPath,
		MobileNumber:          input.MobileNumber,
	})
	if err != nil {
		s.stats.GatewayErrors.Inc()
		log.Error("gateway rejected payment", zap.Error(err))

		if _, applyErr := s.apply(ctx, txn.MerchantTransactionID, order.PaymentFailed, nil, nil, "initiate"); applyErr != nil {
			log.Error("failed to mark payment failed", zap.Error(applyErr))
		}
		return nil, err
	}

	if err := s.repo.AttachGatewayResponse(ctx, txn.MerchantTransactionID, resp.Raw); err != nil {
		log.Warn("failed to store gateway response", zap.Error(err))
	}

	s.stats.Initiated.Inc()
	log.Info("payment initiated")

	return &InitiateResult{
		OrderID:               o.ID,
		MerchantTransactionID: txn.MerchantTransactionID,
		RedirectURL:           resp.RedirectURL,
	}, nil
}

func (s *service) redirectURL(merchantTxnID string, orderID uuid.UUID) string {
	q := url.Values{}
	q.Set("id", merchantTxnID)
	q.Set("orderId", orderID.String())
	return s.opts.AppBaseURL + RedirectPath + "?" + q.Encode()
}

func (s *service) GetForOrder(ctx context.Context, userID uint, orderID uuid.UUID) (*Transaction, error) {
	if _, err := s.orders.Get(ctx, userID, orderID); err != nil {
		return nil, err
	}
	return s.repo.LatestForOrder(ctx, orderID)
}

// HandleRedirect resolves the browser return. A transaction that already left
// PENDING keeps its stored status whatever code the browser carries. Without a
// code the gateway is asked directly.
func (s *service) HandleRedirect(ctx context.Context, merchantTxnID string, orderID uuid.UUID, code string) (order.PaymentStatus, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "HandleRedirect"),
		zap.String("merchant_transaction_id", merchantTxnID),
	)

	txn, err := s.repo.GetByMerchantID(ctx, merchantTxnID)
	if err != nil {
		return "", err
	}
	if txn.OrderID != orderID {
		return "", ErrTransactionNotFound
	}
	if txn.Status != order.PaymentPending {
		return txn.Status, nil
	}

	// The redirect is unsigned, so a success claim is only written once the
	// gateway confirms it.
	status := MapCode(code)
	var gatewayTxnID *string
	var raw json.RawMessage
	if code == "" || status == order.PaymentSuccess {
		st, err := s.gateway.CheckStatus(ctx, merchantTxnID)
		if err != nil {
			log.Warn("status check failed, leaving pending", zap.Error(err))
			return order.PaymentPending, nil
		}
		status = MapCode(st.Code)
		raw = st.Raw
		if st.GatewayTransactionID != "" {
			gatewayTxnID = &st.GatewayTransactionID
		}
	}

	if status == order.PaymentPending {
		return order.PaymentPending, nil
	}
	return s.apply(ctx, merchantTxnID, status, gatewayTxnID, raw, "redirect")
}

type webhookBody struct {
	Response string `json:"response"`
}

// HandleWebhook processes a gateway callback. Every delivery is stored in
// payment_webhooks; a redelivery of an already processed callback is
// acknowledged without work, while a failed one is processed again.
func (s *service) HandleWebhook(ctx context.Context, body []byte, xVerify string) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "HandleWebhook"),
	)

	var wb webhookBody
	if err := json.Unmarshal(body, &wb); err != nil || wb.Response == "" {
		return ErrInvalidWebhook
	}

	env, decoded, err := decodeCallback(wb.Response)
	if err != nil {
		log.Warn("undecodable webhook", zap.Error(err))
		return ErrInvalidWebhook
	}

	merchantTxnID := env.Data.MerchantTransactionID
	if merchantTxnID == "" {
		return ErrInvalidWebhook
	}
	log = log.With(
		zap.String("merchant_transaction_id", merchantTxnID),
		zap.String("code", env.Code),
	)

	signatureValid := s.gateway.VerifyCallback(wb.Response, xVerify) == nil

	webhookID, duplicate, err := s.repo.SaveWebhook(ctx, eventID(wb.Response), merchantTxnID, env.Code, decoded, signatureValid)
	if err != nil {
		log.Error("failed to store webhook", zap.Error(err))
		return err
	}
	if duplicate {
		log.Info("duplicate webhook ignored")
		return nil
	}

	if s.opts.VerifyCallback && !signatureValid {
		s.stats.WebhooksRejected.Inc()
		log.Warn("webhook checksum mismatch")
		s.markWebhookFailed(ctx, webhookID, ErrInvalidSignature.Error())
		return ErrInvalidSignature
	}

	status := MapCode(env.Code)
	if status != order.PaymentPending {
		var gatewayTxnID *string
		if env.Data.TransactionID != "" {
			gatewayTxnID = &env.Data.TransactionID
		}
		if _, err := s.apply(ctx, merchantTxnID, status, gatewayTxnID, decoded, "webhook"); err != nil {
			s.markWebhookFailed(ctx, webhookID, err.Error())
			return err
		}
	}

	if err := s.repo.MarkWebhookProcessed(ctx, webhookID); err != nil {
		log.Warn("failed to mark webhook processed", zap.Error(err))
	}
	return nil
}

func (s *service) markWebhookFailed(ctx context.Context, webhookID int64, reason string) {
	if err := s.repo.MarkWebhookFailed(ctx, webhookID, reason); err != nil {
		logger.FromCtx(ctx).Warn("failed to mark webhook failed", zap.Error(err))
	}
}

func eventID(base64Response string) string {
	sum := sha256.Sum256([]byte(base64Response))
	return hex.EncodeToString(sum[:])
}

// ReconcilePending asks the gateway about transactions that have stayed
// PENDING for longer than ReconcileAfter and applies terminal answers.
func (s *service) ReconcilePending(ctx context.Context) (int, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ReconcilePending"),
	)

	stale, err := s.repo.ListStalePending(ctx, s.now().Add(-s.opts.ReconcileAfter), reconcileBatch)
	if err != nil {
		return 0, err
	}

	resolved := 0
	for _, txn := range stale {
		if ctx.Err() != nil {
			return resolved, ctx.Err()
		}

		st, err := s.gateway.CheckStatus(ctx, txn.MerchantTransactionID)
		if err != nil {
			log.Warn("status check failed",
				zap.String("merchant_transaction_id", txn.MerchantTransactionID),
				zap.Error(err),
			)
			continue
		}

		status := MapCode(st.Code)
		if status == order.PaymentPending {
			continue
		}

		var gatewayTxnID *string
		if st.GatewayTransactionID != "" {
			gatewayTxnID = &st.GatewayTransactionID
		}
		if _, err := s.apply(ctx, txn.MerchantTransactionID, status, gatewayTxnID, st.Raw, "reconcile"); err != nil {
			log.Warn("reconcile write failed",
				zap.String("merchant_transaction_id", txn.MerchantTransactionID),
				zap.Error(err),
			)
			continue
		}
		s.stats.Reconciled.Inc()
		resolved++
	}

	if len(stale) > 0 {
		log.Info("reconcile pass done", zap.Int("checked", len(stale)), zap.Int("resolved", resolved))
	}
	return resolved, nil
}

type paymentEvent struct {
	OrderID               string              `json:"orderId"`
	MerchantTransactionID string              `json:"merchantTransactionId"`
	Status                order.PaymentStatus `json:"status"`
	Source                string              `json:"source"`
}

// apply performs the guarded write and, only when it changed the row, fires
// the notification and event. The returned status is the stored one.
func (s *service) apply(
	ctx context.Context,
	merchantTxnID string,
	status order.PaymentStatus,
	gatewayTxnID *string,
	raw json.RawMessage,
	source string,
) (order.PaymentStatus, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("merchant_transaction_id", merchantTxnID),
		zap.String("source", source),
	)

	res, err := s.repo.ApplyStatus(ctx, merchantTxnID, status, gatewayTxnID, raw)
	if err != nil {
		return "", err
	}

	if !res.Applied {
		s.stats.StaleWrites.Inc()
		log.Info("payment already settled, write ignored",
			zap.String("stored", string(res.Status)),
			zap.String("incoming", string(status)),
		)
		return res.Status, nil
	}

	if status == order.PaymentSuccess {
		s.stats.Succeeded.Inc()
	} else {
		s.stats.Failed.Inc()
	}
	log.Info("payment status updated", zap.String("status", string(status)))

	s.afterSettle(ctx, res, merchantTxnID, source)
	return res.Status, nil
}

func (s *service) afterSettle(ctx context.Context, res *ApplyResult, merchantTxnID, source string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	log := logger.FromCtx(ctx).With(zap.String("order_id", res.OrderID.String()))

	if err := s.publisher.Publish(ctx, events.New(events.PaymentStatusChanged, res.OrderID.String(), paymentEvent{
		OrderID:               res.OrderID.String(),
		MerchantTransactionID: merchantTxnID,
		Status:                res.Status,
		Source:                source,
	})); err != nil {
		log.Warn("payment event publish failed", zap.Error(err))
	}

	if s.notifier == nil {
		return
	}

	o, err := s.orders.Find(ctx, res.OrderID)
	if err != nil {
		log.Warn("failed to load order for notification", zap.Error(err))
		return
	}

	notify := s.notifier.PaymentFailed
	if res.Status == order.PaymentSuccess {
		notify = s.notifier.PaymentSucceeded
	}
	if err := notify(ctx, o); err != nil && !errors.Is(err, context.Canceled) {
		log.Warn("payment notification failed", zap.Error(err))
	}
}
