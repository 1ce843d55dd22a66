// Package cache provides a read-through cache for product listings.
//
// CachedStore wraps a store.Store: ListProducts is served from the cache when
// possible and every product write invalidates all cached listings.
package cache

import (
	"context"
	"log/slog"

	"github.com/artpar/shopdesk/internal/core/domain"
	"github.com/artpar/shopdesk/internal/shell/store"
)

// ProductCache stores product listings keyed by their list options.
// Cache failures are never fatal; implementations report a miss instead.
type ProductCache interface {
	GetProducts(ctx context.Context, opts store.ListOptions) ([]domain.Product, bool)
	SetProducts(ctx context.Context, opts store.ListOptions, products []domain.Product)
	InvalidateProducts(ctx context.Context)
	Close() error
}

// =============================================================================
// Noop Cache
// =============================================================================

// Noop is used when no cache is configured.
type Noop struct{}

func (Noop) GetProducts(context.Context, store.ListOptions) ([]domain.Product, bool) {
	return nil, false
}
func (Noop) SetProducts(context.Context, store.ListOptions, []domain.Product) {}
func (Noop) InvalidateProducts(context.Context)                             {}
func (Noop) Close() error                                                   { return nil }

// =============================================================================
// Cached Store
// =============================================================================

// CachedStore is a store.Store with cached product listings.
type CachedStore struct {
	store.Store
	cache  ProductCache
	logger *slog.Logger
}

// NewCachedStore wraps s with c. A nil cache disables caching.
func NewCachedStore(s store.Store, c ProductCache, logger *slog.Logger) *CachedStore {
	if c == nil {
		c = Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedStore{Store: s, cache: c, logger: logger.With("component", "product_cache")}
}

// ListProducts serves from the cache, falling back to the store.
func (s *CachedStore) ListProducts(ctx context.Context, opts store.ListOptions) ([]domain.Product, error) {
	opts = opts.Normalize()
	if products, ok := s.cache.GetProducts(ctx, opts); ok {
		return products, nil
	}

	products, err := s.Store.ListProducts(ctx, opts)
	if err != nil {
		return nil, err
	}
	s.cache.SetProducts(ctx, opts, products)
	return products, nil
}

func (s *CachedStore) CreateProduct(ctx context.Context, product *domain.Product) error {
	return s.invalidateAfter(ctx, s.Store.CreateProduct(ctx, product))
}

func (s *CachedStore) UpdateProduct(ctx context.Context, product *domain.Product) error {
	return s.invalidateAfter(ctx, s.Store.UpdateProduct(ctx, product))
}

func (s *CachedStore) DeleteProduct(ctx context.Context, id string) error {
	return s.invalidateAfter(ctx, s.Store.DeleteProduct(ctx, id))
}

func (s *CachedStore) SetPromotion(ctx context.Context, productID string, promo *float64) error {
	return s.invalidateAfter(ctx, s.Store.SetPromotion(ctx, productID, promo))
}

// WithTx runs fn in a transaction of the wrapped store and invalidates the
// product listings once it commits.
func (s *CachedStore) WithTx(ctx context.Context, fn func(store.Store) error) error {
	return s.invalidateAfter(ctx, s.Store.WithTx(ctx, fn))
}

// Close closes the cache and the wrapped store.
func (s *CachedStore) Close() error {
	if err := s.cache.Close(); err != nil {
		s.logger.Warn("failed to close cache", "error", err)
	}
	return s.Store.Close()
}

func (s *CachedStore) invalidateAfter(ctx context.Context, err error) error {
	if err == nil {
		s.cache.InvalidateProducts(ctx)
	}
	return err
}
