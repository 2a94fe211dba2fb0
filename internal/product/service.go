package product

import (
	"context"
	"errors"
	"time"

	"storefront-be/internal/cache"
	"storefront-be/internal/logger"
	"storefront-be/internal/utils"
	"storefront-be/internal/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const cacheTTL = 5 * time.Minute

type Service interface {
	List(ctx context.Context, f ListFilter) (*ListResult, error)
	Get(ctx context.Context, id uuid.UUID) (*Product, error)
	Categories(ctx context.Context) ([]CategoryCount, error)
	Create(ctx context.Context, input Input) (*Product, error)
	Update(ctx context.Context, id uuid.UUID, input Input) (*Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo  Repository
	cache cache.Cache
}

func NewService(repo Repository, c cache.Cache) Service {
	if c == nil {
		c = cache.Nop{}
	}
	return &service{repo: repo, cache: c}
}

func cacheKey(id uuid.UUID) string {
	return "product:" + id.String()
}

func (s *service) List(ctx context.Context, f ListFilter) (*ListResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ListProducts"),
	)

	start := time.Now()
	limit, offset := utils.Page(f.Page, f.Limit)

	items, total, err := s.repo.List(ctx, f, limit, offset)
	if err != nil {
		log.Error("failed to fetch product list", zap.Error(err))
		return nil, err
	}

	log.Debug("product list fetched",
		zap.Int("count", len(items)),
		zap.Int("total", total),
		zap.Duration("duration", time.Since(start)),
	)

	return &ListResult{
		Items:      items,
		TotalCount: total,
		Page:       offset/limit + 1,
		Limit:      limit,
	}, nil
}

// Get serves from the cache when it can. Cache errors only cost a database read.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "GetProduct"),
		zap.String("product_id", id.String()),
	)

	var cached Product
	err := s.cache.Get(ctx, cacheKey(id), &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		log.Warn("cache read failed", zap.Error(err))
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, cacheKey(id), p, cacheTTL); err != nil {
		log.Warn("cache write failed", zap.Error(err))
	}
	return p, nil
}

func (s *service) Categories(ctx context.Context) ([]CategoryCount, error) {
	return s.repo.Categories(ctx)
}

func validate(input Input) error {
	if err := validation.Struct(input); err != nil {
		return err
	}
	if !input.Price.IsPositive() {
		return &validation.Error{Fields: map[string]string{"price": "must be greater than 0"}}
	}
	return nil
}

func (s *service) Create(ctx context.Context, input Input) (*Product, error) {
	if err := validate(input); err != nil {
		return nil, err
	}

	p := &Product{ID: uuid.New()}
	input.apply(p)

	if err := s.repo.Create(ctx, p); err != nil {
		logger.FromCtx(ctx).Error("failed to create product",
			zap.String("layer", "service"),
			zap.Error(err),
		)
		return nil, err
	}

	logger.FromCtx(ctx).Info("product created", zap.String("product_id", p.ID.String()))
	return p, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input Input) (*Product, error) {
	if err := validate(input); err != nil {
		return nil, err
	}

	p := &Product{ID: id}
	input.apply(p)

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return p, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *service) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.cache.Delete(ctx, cacheKey(id)); err != nil {
		logger.FromCtx(ctx).Warn("cache invalidation failed",
			zap.String("product_id", id.String()),
			zap.Error(err),
		)
	}
}
