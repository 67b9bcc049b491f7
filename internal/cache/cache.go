package cache

import (
	"context"
	"errors"

	"github.com/aapiden/storefront/internal/domain"
)

// ProductCache holds product detail pages keyed by slug.
type ProductCache interface {
	Get(ctx context.Context, slug string) (*domain.Product, error)
	Set(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, slugs ...string) error
}

var ErrCacheMiss = errors.New("cache miss")
