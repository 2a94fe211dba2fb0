package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront-be/internal/db"
	"storefront-be/internal/logger"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, o *Order, addressID uuid.UUID, lines []LineInput) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*Order, int, error)
	ListAll(ctx context.Context, f ListFilter, limit, offset int) ([]*Order, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, to Status, from []Status) error
	Cancel(ctx context.Context, id uuid.UUID, userID uint) error
	UpdateShipping(ctx context.Context, id uuid.UUID, shippingID, partner string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// Create places the order atomically: product rows are locked, stock is
// checked and decremented, and the order with its items is inserted in one
// transaction. Any failure leaves stock untouched and no order row behind.
func (r *repository) Create(ctx context.Context, o *Order, addressID uuid.UUID, lines []LineInput) error {
	log := logger.FromCtx(ctx).With(
		zap.String("repo", "Order"),
		zap.String("method", "Create"),
		zap.String("order_id", o.ID.String()),
	)

	return db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		s := &o.Shipping
		err := tx.QueryRowContext(ctx, `
			SELECT receiver_name, phone, line1, line2, city, state, postal_code, country
			FROM addresses
			WHERE id = $1 AND user_id = $2 AND is_active = true
		`, addressID, o.UserID).Scan(
			&s.ReceiverName, &s.Phone, &s.Line1, &s.Line2,
			&s.City, &s.State, &s.PostalCode, &s.Country,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAddressNotFound
		}
		if err != nil {
			return err
		}

		err = tx.QueryRowContext(ctx, `SELECT email, name FROM users WHERE id = $1`, o.UserID).
			Scan(&o.Customer.Email, &o.Customer.Name)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}

		items := make([]*Item, 0, len(lines))
		for _, l := range lines {
			it := &Item{ProductID: l.ProductID, Quantity: l.Quantity}
			var stock int

			err := tx.QueryRowContext(ctx, `
				SELECT name, price, stock FROM products WHERE id = $1 FOR UPDATE
			`, l.ProductID).Scan(&it.Name, &it.Price, &stock)
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: %s", ErrProductNotFound, l.ProductID)
			}
			if err != nil {
				return err
			}

			if stock < l.Quantity {
				log.Info("insufficient stock",
					zap.String("product_id", l.ProductID.String()),
					zap.Int("stock", stock),
					zap.Int("requested", l.Quantity),
				)
				return fmt.Errorf("%w: %s", ErrInsufficientStock, it.Name)
			}

			if _, err := tx.ExecContext(ctx, `
				UPDATE products SET stock = stock - $1, updated_at = NOW() WHERE id = $2
			`, l.Quantity, l.ProductID); err != nil {
				return err
			}
			items = append(items, it)
		}

		o.Items = items
		o.TotalPrice = Total(items)

		err = tx.QueryRowContext(ctx, `
			INSERT INTO orders (
				id, user_id, total_price, status, payment_method, payment_status,
				ship_receiver_name, ship_phone, ship_line1, ship_line2,
				ship_city, ship_state, ship_postal_code, ship_country
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
			RETURNING created_at, updated_at
		`,
			o.ID, o.UserID, o.TotalPrice, o.Status, o.PaymentMethod, o.PaymentStatus,
			s.ReceiverName, s.Phone, s.Line1, s.Line2,
			s.City, s.State, s.PostalCode, s.Country,
		).Scan(&o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			log.Error("failed to insert order", zap.Error(err))
			return err
		}

		for _, it := range items {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO order_items (order_id, product_id, product_name, quantity, price)
				VALUES ($1, $2, $3, $4, $5)
			`, o.ID, it.ProductID, it.Name, it.Quantity, it.Price); err != nil {
				log.Error("failed to insert order item", zap.Error(err))
				return err
			}
		}
		return nil
	})
}

const selectOrder = `
	SELECT
		o.id, o.user_id, o.total_price, o.status, o.payment_method, o.payment_status,
		o.ship_receiver_name, o.ship_phone, o.ship_line1, o.ship_line2,
		o.ship_city, o.ship_state, o.ship_postal_code, o.ship_country,
		o.shipping_id, o.shipping_partner, u.email, u.name,
		o.created_at, o.updated_at
	FROM orders o
	JOIN users u ON u.id = o.user_id
`

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (*Order, error) {
	var o Order
	s := &o.Shipping
	err := row.Scan(
		&o.ID, &o.UserID, &o.TotalPrice, &o.Status, &o.PaymentMethod, &o.PaymentStatus,
		&s.ReceiverName, &s.Phone, &s.Line1, &s.Line2,
		&s.City, &s.State, &s.PostalCode, &s.Country,
		&o.ShippingID, &o.ShippingPartner, &o.Customer.Email, &o.Customer.Name,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Items = []*Item{}
	return &o, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, selectOrder+" WHERE o.id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := r.loadItems(ctx, []*Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

// loadItems fills Items for all orders with a single query.
func (r *repository) loadItems(ctx context.Context, orders []*Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	byID := make(map[uuid.UUID]*Order, len(orders))
	for i, o := range orders {
		ids[i] = o.ID.String()
		byID[o.ID] = o
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT order_id, product_id, product_name, quantity, price
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY id
	`, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var orderID uuid.UUID
		var it Item
		if err := rows.Scan(&orderID, &it.ProductID, &it.Name, &it.Quantity, &it.Price); err != nil {
			return err
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, &it)
		}
	}
	return rows.Err()
}

func (r *repository) list(ctx context.Context, where string, args []any, limit, offset int) ([]*Order, int, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("repo", "Order"),
		zap.String("method", "List"),
	)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders o"+where, args...).Scan(&total); err != nil {
		log.Error("count failed", zap.Error(err))
		return nil, 0, err
	}

	query := selectOrder + where + " ORDER BY o.created_at DESC" +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("query failed", zap.Error(err))
		return nil, 0, err
	}
	defer rows.Close()

	orders := []*Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			log.Error("scan failed", zap.Error(err))
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := r.loadItems(ctx, orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*Order, int, error) {
	return r.list(ctx, " WHERE o.user_id = $1", []any{userID}, limit, offset)
}

func (r *repository) ListAll(ctx context.Context, f ListFilter, limit, offset int) ([]*Order, int, error) {
	where := " WHERE 1=1"
	args := []any{}

	if f.Status != nil {
		args = append(args, *f.Status)
		where += fmt.Sprintf(" AND o.status = $%d", len(args))
	}
	if f.PaymentStatus != nil {
		args = append(args, *f.PaymentStatus)
		where += fmt.Sprintf(" AND o.payment_status = $%d", len(args))
	}
	return r.list(ctx, where, args, limit, offset)
}

func statusStrings(ss []Status) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = string(s)
	}
	return out
}

// UpdateStatus moves the order to `to` only if its current status is in
// `from`. The check and the write are one statement.
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, to Status, from []Status) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = ANY($3)
	`, id, to, pq.Array(statusStrings(from)))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrOrderNotFound
	}
	return ErrInvalidTransition
}

func (r *repository) Cancel(ctx context.Context, id uuid.UUID, userID uint) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND status = $4
	`, id, userID, StatusCancelled, StatusProcessing)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	var current Status
	err = r.db.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = $1 AND user_id = $2`, id, userID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrOrderNotFound
	}
	if err != nil {
		return err
	}
	return ErrCannotCancel
}

func (r *repository) UpdateShipping(ctx context.Context, id uuid.UUID, shippingID, partner string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET shipping_id = $2, shipping_partner = $3, updated_at = NOW()
		WHERE id = $1
	`, id, shippingID, partner)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// Delete removes the order; order_items go with it via ON DELETE CASCADE.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// SetPaymentStatusTx mirrors a payment outcome onto the order inside the
// caller's transaction.
func SetPaymentStatusTx(ctx context.Context, tx *sql.Tx, orderID uuid.UUID, status PaymentStatus) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE orders SET payment_status = $2, updated_at = NOW() WHERE id = $1
	`, orderID, status)
	return err
}
