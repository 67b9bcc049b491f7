// Package service holds the storefront use cases. Every operation receives the
// authenticated domain.Actor explicitly.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aapiden/storefront/internal/cache"
	"github.com/aapiden/storefront/internal/domain"
	"github.com/aapiden/storefront/internal/repository"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Stores groups the repositories the services depend on.
type Stores struct {
	Orders       repository.OrderRepository
	Products     repository.ProductRepository
	ProductTypes repository.ProductTypeRepository
	Users        repository.UserRepository
	Reviews      repository.ReviewRepository
}

func requireAdmin(actor domain.Actor) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: administrator role required", domain.ErrForbidden)
	}
	return nil
}

func requireSession(actor domain.Actor) error {
	if actor.UserID.IsZero() {
		return fmt.Errorf("%w: you must be signed in", domain.ErrUnauthorized)
	}
	return nil
}

// logFailure logs store failures as errors and rejected requests as warnings.
func logFailure(ctx context.Context, logger *slog.Logger, msg string, err error, args ...any) {
	args = append(args, "error", err)
	if errors.Is(err, domain.ErrPersistence) {
		logger.ErrorContext(ctx, msg, args...)
		return
	}
	logger.WarnContext(ctx, msg, args...)
}

func invalidateProducts(c cache.ProductCache, logger *slog.Logger, slugs ...string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.Delete(ctx, slugs...); err != nil {
		logger.Warn("cache invalidate error", "slugs", slugs, "error", err)
	}
}
