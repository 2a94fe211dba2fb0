package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront-be/internal/logger"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	List(ctx context.Context, f ListFilter, limit, offset int) ([]*Product, int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	Categories(ctx context.Context) ([]CategoryCount, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const selectColumns = `
	SELECT
		id, name, description, price, stock, category,
		images, is_featured, created_at, updated_at
	FROM products
`

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (*Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.Category,
		pq.Array(&p.Images), &p.IsFeatured, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	return &p, nil
}

// buildWhere renders the filter as a WHERE clause using $1..$n placeholders.
func buildWhere(f ListFilter) (string, []any) {
	where := " WHERE 1=1"
	args := []any{}
	argIndex := 1

	if f.Category != nil && *f.Category != "" {
		where += fmt.Sprintf(" AND category = $%d", argIndex)
		args = append(args, *f.Category)
		argIndex++
	}
	if f.Featured != nil {
		where += fmt.Sprintf(" AND is_featured = $%d", argIndex)
		args = append(args, *f.Featured)
		argIndex++
	}
	if f.Search != nil && *f.Search != "" {
		where += fmt.Sprintf(" AND (name ILIKE $%d OR description ILIKE $%d)", argIndex, argIndex)
		args = append(args, "%"+*f.Search+"%")
		argIndex++
	}
	if f.MinPrice != nil {
		where += fmt.Sprintf(" AND price >= $%d", argIndex)
		args = append(args, *f.MinPrice)
		argIndex++
	}
	if f.MaxPrice != nil {
		where += fmt.Sprintf(" AND price <= $%d", argIndex)
		args = append(args, *f.MaxPrice)
	}
	return where, args
}

func orderBy(s SortBy) string {
	switch s {
	case SortPriceAsc:
		return " ORDER BY price ASC, created_at DESC"
	case SortPriceDesc:
		return " ORDER BY price DESC, created_at DESC"
	default:
		return " ORDER BY created_at DESC"
	}
}

func (r *repository) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Product, int, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("repo", "Product"),
		zap.String("method", "List"),
	)

	where, args := buildWhere(f)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products"+where, args...).Scan(&total); err != nil {
		log.Error("count failed", zap.Error(err))
		return nil, 0, err
	}

	query := selectColumns + where + orderBy(f.Sort) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	log.Debug("executing list query", zap.String("query", query), zap.Any("args", args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("query failed", zap.Error(err))
		return nil, 0, err
	}
	defer rows.Close()

	items := []*Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			log.Error("scan failed", zap.Error(err))
			return nil, 0, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, selectColumns+" WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	return p, err
}

func (r *repository) Create(ctx context.Context, p *Product) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO products (
			id, name, description, price, stock, category, images, is_featured
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at
	`,
		p.ID, p.Name, p.Description, p.Price, p.Stock, p.Category,
		pq.Array(p.Images), p.IsFeatured,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *repository) Update(ctx context.Context, p *Product) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE products SET
			name = $1, description = $2, price = $3, stock = $4,
			category = $5, images = $6, is_featured = $7, updated_at = NOW()
		WHERE id = $8
		RETURNING created_at, updated_at
	`,
		p.Name, p.Description, p.Price, p.Stock,
		p.Category, pq.Array(p.Images), p.IsFeatured, p.ID,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrProductNotFound
	}
	return err
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *repository) Categories(ctx context.Context) ([]CategoryCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT category, COUNT(*)
		FROM products
		GROUP BY category
		ORDER BY category
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []CategoryCount{}
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}
