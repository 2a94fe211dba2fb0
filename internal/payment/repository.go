package payment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"storefront-be/internal/db"
	"storefront-be/internal/logger"
	"storefront-be/internal/order"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, t *Transaction) error
	AttachGatewayResponse(ctx context.Context, merchantTxnID string, raw json.RawMessage) error
	ApplyStatus(ctx context.Context, merchantTxnID string, status order.PaymentStatus, gatewayTxnID *string, raw json.RawMessage) (*ApplyResult, error)
	GetByMerchantID(ctx context.Context, merchantTxnID string) (*Transaction, error)
	LatestForOrder(ctx context.Context, orderID uuid.UUID) (*Transaction, error)
	ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]*Transaction, error)

	SaveWebhook(
		ctx context.Context,
		eventID string,
		merchantTxnID string,
		code string,
		payload json.RawMessage,
		signatureValid bool,
	) (webhookID int64, isDuplicate bool, err error)
	MarkWebhookProcessed(ctx context.Context, webhookID int64) error
	MarkWebhookFailed(ctx context.Context, webhookID int64, reason string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, t *Transaction) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO transactions (id, order_id, merchant_transaction_id, amount, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, t.ID, t.OrderID, t.MerchantTransactionID, t.Amount, t.Status).
		Scan(&t.CreatedAt, &t.UpdatedAt)
}

func (r *repository) AttachGatewayResponse(ctx context.Context, merchantTxnID string, raw json.RawMessage) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET gateway_response = $2, updated_at = NOW()
		WHERE merchant_transaction_id = $1
	`, merchantTxnID, []byte(raw))
	return err
}

// ApplyStatus writes a terminal status only while the transaction is PENDING.
// The guard and the write are one statement, and the order's payment status is
// mirrored in the same transaction only when that statement changed a row.
// When nothing changed, the stored status is returned with Applied=false.
func (r *repository) ApplyStatus(
	ctx context.Context,
	merchantTxnID string,
	status order.PaymentStatus,
	gatewayTxnID *string,
	raw json.RawMessage,
) (*ApplyResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("repo", "Payment"),
		zap.String("method", "ApplyStatus"),
		zap.String("merchant_transaction_id", merchantTxnID),
	)

	var rawArg any
	if len(raw) > 0 {
		rawArg = []byte(raw)
	}

	res := &ApplyResult{}
	err := db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			UPDATE transactions SET
				status = $2,
				gateway_transaction_id = COALESCE($3, gateway_transaction_id),
				gateway_response = COALESCE($4, gateway_response),
				updated_at = NOW()
			WHERE merchant_transaction_id = $1 AND status = 'PENDING'
			RETURNING order_id
		`, merchantTxnID, status, gatewayTxnID, rawArg).Scan(&res.OrderID)

		if errors.Is(err, sql.ErrNoRows) {
			err = tx.QueryRowContext(ctx, `
				SELECT status, order_id FROM transactions WHERE merchant_transaction_id = $1
			`, merchantTxnID).Scan(&res.Status, &res.OrderID)
			if errors.Is(err, sql.ErrNoRows) {
				return ErrTransactionNotFound
			}
			return err
		}
		if err != nil {
			return err
		}

		res.Applied = true
		res.Status = status
		return order.SetPaymentStatusTx(ctx, tx, res.OrderID, status)
	})
	if err != nil {
		if !errors.Is(err, ErrTransactionNotFound) {
			log.Error("apply status failed", zap.Error(err))
		}
		return nil, err
	}

	log.Debug("apply status done",
		zap.Bool("applied", res.Applied),
		zap.String("status", string(res.Status)),
	)
	return res, nil
}

const selectTransaction = `
	SELECT
		id, order_id, merchant_transaction_id, gateway_transaction_id,
		amount, status, gateway_response, created_at, updated_at
	FROM transactions
`

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (*Transaction, error) {
	var t Transaction
	var raw []byte
	err := row.Scan(
		&t.ID, &t.OrderID, &t.MerchantTransactionID, &t.GatewayTransactionID,
		&t.Amount, &t.Status, &raw, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		t.GatewayResponse = json.RawMessage(raw)
	}
	return &t, nil
}

func (r *repository) GetByMerchantID(ctx context.Context, merchantTxnID string) (*Transaction, error) {
	t, err := scanTransaction(r.db.QueryRowContext(ctx,
		selectTransaction+" WHERE merchant_transaction_id = $1", merchantTxnID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	return t, err
}

func (r *repository) LatestForOrder(ctx context.Context, orderID uuid.UUID) (*Transaction, error) {
	t, err := scanTransaction(r.db.QueryRowContext(ctx,
		selectTransaction+" WHERE order_id = $1 ORDER BY created_at DESC LIMIT 1", orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	return t, err
}

func (r *repository) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]*Transaction, error) {
	rows, err := r.db.QueryContext(ctx, selectTransaction+`
		WHERE status = 'PENDING' AND created_at < $1
		ORDER BY created_at
		LIMIT $2
	`, olderThan, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

func (r *repository) SaveWebhook(
	ctx context.Context,
	eventID string,
	merchantTxnID string,
	code string,
	payload json.RawMessage,
	signatureValid bool,
) (int64, bool, error) {

	const q = `
	INSERT INTO payment_webhooks (
		provider,
		event_id,
		merchant_transaction_id,
		code,
		signature_valid,
		payload
	)
	VALUES ('PHONEPE', $1, $2, $3, $4, $5)
	ON CONFLICT (provider, event_id)
	DO UPDATE SET
		received_at = NOW(),
		signature_valid = EXCLUDED.signature_valid,
		process_error = NULL
	WHERE payment_webhooks.processed_at IS NULL
	RETURNING id;
	`

	var id int64
	err := r.db.QueryRowContext(ctx, q,
		eventID,
		merchantTxnID,
		code,
		signatureValid,
		[]byte(payload),
	).Scan(&id)

	if err != nil {
		// Only a delivery that was already processed counts as a duplicate;
		// an unprocessed row is reclaimed for the retry.
		if errors.Is(err, sql.ErrNoRows) {
			return 0, true, nil
		}
		return 0, false, err
	}

	return id, false, nil
}

func (r *repository) MarkWebhookProcessed(ctx context.Context, webhookID int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE payment_webhooks SET processed_at = NOW() WHERE id = $1
	`, webhookID)
	return err
}

func (r *repository) MarkWebhookFailed(ctx context.Context, webhookID int64, reason string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE payment_webhooks SET process_error = $2 WHERE id = $1
	`, webhookID, reason)
	return err
}
