package address

import (
	"context"
	"database/sql"
	"errors"

	"storefront-be/internal/db"
	"storefront-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Repository interface {
	ListByUser(ctx context.Context, userID uint) ([]*Address, error)
	GetForUser(ctx context.Context, id uuid.UUID, userID uint) (*Address, error)
	Create(ctx context.Context, addr *Address) error
	Update(ctx context.Context, addr *Address) error
	Deactivate(ctx context.Context, id uuid.UUID, userID uint) error
	SetDefault(ctx context.Context, id uuid.UUID, userID uint) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const selectColumns = `
	SELECT
		id, user_id, receiver_name, phone,
		line1, line2, city, state, postal_code, country,
		is_default, is_active, created_at, updated_at
	FROM addresses
`

type scanner interface {
	Scan(dest ...any) error
}

func scanAddress(row scanner) (*Address, error) {
	var a Address
	err := row.Scan(
		&a.ID, &a.UserID, &a.ReceiverName, &a.Phone,
		&a.Line1, &a.Line2, &a.City, &a.State, &a.PostalCode, &a.Country,
		&a.IsDefault, &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uint) ([]*Address, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("repo", "Address"),
		zap.String("method", "ListByUser"),
	)

	rows, err := r.db.QueryContext(ctx, selectColumns+`
		WHERE user_id = $1 AND is_active = true
		ORDER BY is_default DESC, created_at DESC
	`, userID)
	if err != nil {
		log.Error("query failed", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var res []*Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			log.Error("scan failed", zap.Error(err))
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

func (r *repository) GetForUser(ctx context.Context, id uuid.UUID, userID uint) (*Address, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+`
		WHERE id = $1 AND user_id = $2 AND is_active = true
	`, id, userID)

	a, err := scanAddress(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAddressNotFound
	}
	return a, err
}

func (r *repository) Create(ctx context.Context, a *Address) error {
	return db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if a.IsDefault {
			if err := clearDefault(ctx, tx, a.UserID); err != nil {
				return err
			}
		}

		return tx.QueryRowContext(ctx, `
			INSERT INTO addresses (
				id, user_id, receiver_name, phone,
				line1, line2, city, state, postal_code, country, is_default
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
			RETURNING created_at, updated_at
		`,
			a.ID, a.UserID, a.ReceiverName, a.Phone,
			a.Line1, a.Line2, a.City, a.State, a.PostalCode, a.Country, a.IsDefault,
		).Scan(&a.CreatedAt, &a.UpdatedAt)
	})
}

func (r *repository) Update(ctx context.Context, a *Address) error {
	return db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if a.IsDefault {
			if err := clearDefault(ctx, tx, a.UserID); err != nil {
				return err
			}
		}

		err := tx.QueryRowContext(ctx, `
			UPDATE addresses SET
				receiver_name = $1, phone = $2, line1 = $3, line2 = $4,
				city = $5, state = $6, postal_code = $7, country = $8,
				is_default = $9, updated_at = NOW()
			WHERE id = $10 AND user_id = $11 AND is_active = true
			RETURNING updated_at
		`,
			a.ReceiverName, a.Phone, a.Line1, a.Line2,
			a.City, a.State, a.PostalCode, a.Country,
			a.IsDefault, a.ID, a.UserID,
		).Scan(&a.UpdatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAddressNotFound
		}
		return err
	})
}

// Deactivate hides the address; orders keep their own snapshot of it.
func (r *repository) Deactivate(ctx context.Context, id uuid.UUID, userID uint) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE addresses
		SET is_active = false, is_default = false, updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND is_active = true
	`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAddressNotFound
	}
	return nil
}

func (r *repository) SetDefault(ctx context.Context, id uuid.UUID, userID uint) error {
	return db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := clearDefault(ctx, tx, userID); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE addresses
			SET is_default = true, updated_at = NOW()
			WHERE id = $1 AND user_id = $2 AND is_active = true
		`, id, userID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrAddressNotFound
		}
		return nil
	})
}

func clearDefault(ctx context.Context, tx *sql.Tx, userID uint) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE addresses SET is_default = false
		WHERE user_id = $1 AND is_default = true
	`, userID)
	return err
}
