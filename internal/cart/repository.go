package cart

import (
	"context"
	"database/sql"
	"errors"

	"storefront-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Repository interface {
	List(ctx context.Context, userID uint) ([]*Item, error)
	Add(ctx context.Context, userID uint, productID uuid.UUID, qty int) (int, error)
	SetQuantity(ctx context.Context, userID uint, productID uuid.UUID, qty int) error
	Remove(ctx context.Context, userID uint, productID uuid.UUID) error
	Clear(ctx context.Context, userID uint) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, userID uint) ([]*Item, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("repo", "Cart"),
		zap.String("method", "List"),
		zap.Uint("user_id", userID),
	)

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			p.id, p.name, COALESCE(p.images[1], ''), p.price, p.stock,
			c.quantity, c.created_at
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY c.created_at DESC
	`, userID)
	if err != nil {
		log.Error("query failed", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(
			&it.ProductID, &it.Name, &it.Image, &it.Price, &it.Stock,
			&it.Quantity, &it.AddedAt,
		); err != nil {
			log.Error("scan failed", zap.Error(err))
			return nil, err
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

// Add inserts the line or increments an existing one in a single statement.
// The unique (user_id, product_id) index makes concurrent adds merge instead of
// duplicating. No row comes back when the resulting quantity exceeds stock.
func (r *repository) Add(ctx context.Context, userID uint, productID uuid.UUID, qty int) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO cart_items (user_id, product_id, quantity)
		SELECT $1, p.id, $3
		FROM products p
		WHERE p.id = $2 AND p.stock >= $3
		ON CONFLICT (user_id, product_id) DO UPDATE
		SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()
		WHERE cart_items.quantity + EXCLUDED.quantity <= (
			SELECT stock FROM products WHERE id = EXCLUDED.product_id
		)
		RETURNING quantity
	`, userID, productID, qty).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrInsufficientStock
	}
	return total, err
}

func (r *repository) SetQuantity(ctx context.Context, userID uint, productID uuid.UUID, qty int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE cart_items SET quantity = $3, updated_at = NOW()
		WHERE user_id = $1 AND product_id = $2
	`, userID, productID, qty)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

func (r *repository) Remove(ctx context.Context, userID uint, productID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2
	`, userID, productID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

func (r *repository) Clear(ctx context.Context, userID uint) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	return err
}
