package service

import (
	"context"
	"log/slog"

	"github.com/aapiden/storefront/internal/domain"
	"github.com/aapiden/storefront/internal/repository"
	"golang.org/x/sync/errgroup"
)

type DashboardService struct {
	stores Stores
	logger *slog.Logger
}

func NewDashboardService(stores Stores, logger *slog.Logger) *DashboardService {
	return &DashboardService{stores: stores, logger: logger}
}

// Summary runs the back-office counters concurrently.
func (s *DashboardService) Summary(ctx context.Context, actor domain.Actor) (*domain.DashboardSummary, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var (
		sum       domain.DashboardSummary
		paid      = domain.OrderStatePaid
		delivered = domain.OrderStateDelivered
		client    = domain.RoleClient
		empty     = 0
		low       = domain.LowInventoryThreshold
	)

	g, ctx := errgroup.WithContext(ctx)
	count := func(dst *int64, fn func(context.Context) (int64, error)) {
		g.Go(func() error {
			n, err := fn(ctx)
			if err != nil {
				return err
			}
			*dst = n
			return nil
		})
	}

	count(&sum.NumberOfOrders, func(ctx context.Context) (int64, error) {
		return s.stores.Orders.Count(ctx, repository.OrderFilter{})
	})
	count(&sum.PaidOrders, func(ctx context.Context) (int64, error) {
		return s.stores.Orders.Count(ctx, repository.OrderFilter{State: &paid})
	})
	count(&sum.DeliveredOrders, func(ctx context.Context) (int64, error) {
		return s.stores.Orders.Count(ctx, repository.OrderFilter{State: &delivered})
	})
	count(&sum.NumberOfClients, func(ctx context.Context) (int64, error) {
		return s.stores.Users.Count(ctx, &client)
	})
	count(&sum.NumberOfProductTypes, s.stores.ProductTypes.Count)
	count(&sum.NumberOfProducts, func(ctx context.Context) (int64, error) {
		return s.stores.Products.Count(ctx, repository.ProductFilter{})
	})
	count(&sum.ProductsWithNoInventory, func(ctx context.Context) (int64, error) {
		return s.stores.Products.Count(ctx, repository.ProductFilter{MaxStock: &empty})
	})
	count(&sum.LowInventory, func(ctx context.Context) (int64, error) {
		return s.stores.Products.Count(ctx, repository.ProductFilter{MaxStock: &low})
	})
	count(&sum.NumberOfReviews, s.stores.Reviews.Count)

	if err := g.Wait(); err != nil {
		logFailure(ctx, s.logger, "dashboard summary failed", err)
		return nil, err
	}

	sum.NotPaidOrders = sum.NumberOfOrders - (sum.PaidOrders + sum.DeliveredOrders)
	return &sum, nil
}
