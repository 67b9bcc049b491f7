package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aapiden/storefront/internal/cache"
	"github.com/aapiden/storefront/internal/domain"
	"github.com/aapiden/storefront/internal/pricing"
	"github.com/aapiden/storefront/internal/repository"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CreateOrderItem struct {
	ProductID string `json:"_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"min=1"`
}

type CreateOrderRequest struct {
	Items           []CreateOrderItem      `json:"orderItems" validate:"required,min=1,dive"`
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
	DeliveryType    domain.DeliveryType    `json:"deliveryType" validate:"required,oneof=envio retiro"`
	Total           float64                `json:"total" validate:"gte=0"`
}

type OrderService struct {
	tx       repository.Transactor
	stores   Stores
	cache    cache.ProductCache
	notifier Notifier
	tariff   pricing.Tariff
	logger   *slog.Logger
}

func NewOrderService(tx repository.Transactor, stores Stores, c cache.ProductCache, notifier Notifier, tariff pricing.Tariff, logger *slog.Logger) *OrderService {
	return &OrderService{
		tx:       tx,
		stores:   stores,
		cache:    c,
		notifier: notifier,
		tariff:   tariff,
		logger:   logger,
	}
}

// CreateOrder prices the request from stored products, checks the client
// total and persists the order while taking the stock in one transaction.
func (s *OrderService) CreateOrder(ctx context.Context, actor domain.Actor, req CreateOrderRequest) (*domain.Order, error) {
	if err := requireSession(actor); err != nil {
		return nil, err
	}
	if !req.DeliveryType.IsValid() {
		return nil, fmt.Errorf("%w: unknown delivery type %q", domain.ErrInvalidInput, req.DeliveryType)
	}

	quantities, ids, err := mergeItems(req.Items)
	if err != nil {
		return nil, err
	}

	user, err := s.stores.Users.GetByID(ctx, actor.UserID)
	if err != nil {
		logFailure(ctx, s.logger, "load order owner failed", err, "user_id", actor.UserID.Hex())
		return nil, err
	}

	items, lines, err := s.snapshotItems(ctx, ids, quantities)
	if err != nil {
		logFailure(ctx, s.logger, "snapshot order items failed", err, "user_id", actor.UserID.Hex())
		return nil, err
	}

	summary, err := pricing.Calculate(lines, s.tariff, req.DeliveryType.NeedsShipping(), user.FreeShipping)
	if err != nil {
		return nil, err
	}
	if err := pricing.VerifyTotal(summary, req.Total); err != nil {
		logFailure(ctx, s.logger, "order total rejected", err, "user_id", actor.UserID.Hex())
		return nil, err
	}

	amounts := summary.Rounded()
	order := &domain.Order{
		UserID:          user.ID,
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		NumberOfItems:   amounts.NumberOfItems,
		SubTotal:        amounts.SubTotal,
		Tax:             amounts.Tax,
		ShippingFee:     amounts.ShippingFee,
		Total:           amounts.Total,
		DeliveryType:    req.DeliveryType,
		State:           domain.OrderStatePending,
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.stores.Orders.Create(ctx, order); err != nil {
			return err
		}
		for _, item := range order.Items {
			if err := s.stores.Products.AdjustStock(ctx, item.ProductID, -item.Quantity); err != nil {
				if errors.Is(err, domain.ErrInsufficientStock) {
					return fmt.Errorf("%w: not enough units of %s left", domain.ErrInsufficientStock, item.Title)
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		logFailure(ctx, s.logger, "create order failed", err, "user_id", actor.UserID.Hex())
		return nil, err
	}

	s.logger.InfoContext(ctx, "order created", "order_id", order.ID.Hex(), "total", order.Total)
	invalidateProducts(s.cache, s.logger, order.Slugs()...)

	s.notifier.Notify(ctx, []string{user.Email}, domain.NotifyOrderCreated, order.ID.Hex())
	s.notifyAdmins(ctx, domain.NotifyOrderCreatedAdmins, order.ID.Hex())
	return order, nil
}

func mergeItems(items []CreateOrderItem) (map[primitive.ObjectID]int, []primitive.ObjectID, error) {
	if len(items) == 0 {
		return nil, nil, fmt.Errorf("%w: the order has no items", domain.ErrInvalidInput)
	}
	quantities := make(map[primitive.ObjectID]int, len(items))
	ids := make([]primitive.ObjectID, 0, len(items))
	for _, item := range items {
		id, err := domain.ParseID(item.ProductID)
		if err != nil {
			return nil, nil, err
		}
		if item.Quantity < 1 {
			return nil, nil, fmt.Errorf("%w: quantity must be at least 1", domain.ErrInvalidInput)
		}
		if _, seen := quantities[id]; !seen {
			ids = append(ids, id)
		}
		quantities[id] += item.Quantity
	}
	return quantities, ids, nil
}

// snapshotItems copies price, weight and tax from the stored products so the
// client never decides an amount.
func (s *OrderService) snapshotItems(ctx context.Context, ids []primitive.ObjectID, quantities map[primitive.ObjectID]int) ([]domain.OrderItem, []pricing.CartLine, error) {
	products, err := s.stores.Products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	byID := make(map[primitive.ObjectID]domain.Product, len(products))
	typeIDs := make([]primitive.ObjectID, 0, len(products))
	for _, p := range products {
		byID[p.ID] = p
		typeIDs = append(typeIDs, p.ProductTypeID)
	}

	types, err := s.stores.ProductTypes.FindByIDs(ctx, typeIDs)
	if err != nil {
		return nil, nil, err
	}

	items := make([]domain.OrderItem, 0, len(ids))
	lines := make([]pricing.CartLine, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok || p.State != domain.StateActive {
			return nil, nil, fmt.Errorf("%w: product %s does not exist", domain.ErrInvalidInput, id.Hex())
		}
		pt, ok := types[p.ProductTypeID]
		if !ok {
			return nil, nil, fmt.Errorf("%w: product %s has no product type", domain.ErrInvalidInput, p.Slug)
		}
		qty := quantities[id]
		if p.InStock < qty {
			return nil, nil, fmt.Errorf("%w: only %d units of %s are left", domain.ErrInsufficientStock, p.InStock, p.Title)
		}

		items = append(items, domain.OrderItem{
			ProductID: p.ID,
			Title:     p.Title,
			Quantity:  qty,
			Slug:      p.Slug,
			Image:     p.FirstImage(),
			Price:     p.Price,
			Weight:    p.Weight,
			ProductType: domain.OrderItemProductType{
				ID:   pt.ID,
				Name: pt.Name,
				Tax:  pt.Tax,
			},
		})
		lines = append(lines, pricing.CartLine{
			ProductID:      id.Hex(),
			UnitPrice:      decimal.NewFromFloat(p.Price),
			Quantity:       qty,
			WeightKg:       decimal.NewFromFloat(p.Weight),
			TaxRatePercent: decimal.NewFromFloat(pt.Tax),
		})
	}
	return items, lines, nil
}

// PayOrder registers the payment receipt. It does not change the state.
func (s *OrderService) PayOrder(ctx context.Context, actor domain.Actor, orderID, transactionID string) (*domain.Order, error) {
	if err := requireSession(actor); err != nil {
		return nil, err
	}
	order, err := s.GetOrder(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.CanAttachPayment(transactionID); err != nil {
		return nil, err
	}

	paidAt := time.Now()
	if err := s.stores.Orders.AttachPayment(ctx, order.ID, transactionID, paidAt); err != nil {
		logFailure(ctx, s.logger, "attach payment failed", err, "order_id", orderID)
		return nil, err
	}
	order.TransactionID = transactionID
	order.PaidAt = &paidAt

	s.logger.InfoContext(ctx, "payment registered", "order_id", orderID)
	s.notifyOwner(ctx, order, domain.NotifyPaymentReceived)
	s.notifyAdmins(ctx, domain.NotifyPaymentReceivedAdmins, orderID)
	return order, nil
}

// ChangeState moves an order to next when the guard allows it.
func (s *OrderService) ChangeState(ctx context.Context, actor domain.Actor, orderID string, next domain.OrderState) (*domain.Order, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	id, err := domain.ParseID(orderID)
	if err != nil {
		return nil, err
	}

	var order *domain.Order
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		current, err := s.stores.Orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := current.CanTransitionTo(next); err != nil {
			return err
		}
		if err := s.stores.Orders.UpdateState(ctx, id, current.State, next); err != nil {
			return err
		}
		current.State = next
		order = current
		return nil
	})
	if err != nil {
		logFailure(ctx, s.logger, "change order state failed", err, "order_id", orderID, "state", next)
		return nil, err
	}

	s.logger.InfoContext(ctx, "order state changed", "order_id", orderID, "state", next)
	if kind, ok := domain.NotificationForState(next); ok {
		s.notifyOwner(ctx, order, kind)
	}
	return order, nil
}

// DeleteOrder removes a pending order and gives its stock back.
func (s *OrderService) DeleteOrder(ctx context.Context, actor domain.Actor, orderID string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	id, err := domain.ParseID(orderID)
	if err != nil {
		return err
	}

	var order *domain.Order
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		current, err := s.stores.Orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := current.CanDelete(); err != nil {
			return err
		}
		for _, item := range current.Items {
			err := s.stores.Products.AdjustStock(ctx, item.ProductID, item.Quantity)
			if errors.Is(err, repository.ErrProductNotFound) {
				s.logger.WarnContext(ctx, "product of deleted order no longer exists", "order_id", orderID, "product_id", item.ProductID.Hex())
				continue
			}
			if err != nil {
				return err
			}
		}
		if err := s.stores.Orders.Delete(ctx, id, domain.OrderStatePending); err != nil {
			return err
		}
		order = current
		return nil
	})
	if err != nil {
		logFailure(ctx, s.logger, "delete order failed", err, "order_id", orderID)
		return err
	}

	s.logger.InfoContext(ctx, "order deleted", "order_id", orderID)
	invalidateProducts(s.cache, s.logger, order.Slugs()...)
	s.notifyOwner(ctx, order, domain.NotifyOrderDeleted)
	return nil
}

// GetOrder returns the order to its owner or an admin. Anyone else gets
// not found so ids don't leak.
func (s *OrderService) GetOrder(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
	if err := requireSession(actor); err != nil {
		return nil, err
	}
	id, err := domain.ParseID(orderID)
	if err != nil {
		return nil, err
	}
	order, err := s.stores.Orders.GetByID(ctx, id)
	if err != nil {
		logFailure(ctx, s.logger, "get order failed", err, "order_id", orderID)
		return nil, err
	}
	if !actor.Owns(order.UserID) {
		return nil, repository.ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) ListUserOrders(ctx context.Context, actor domain.Actor, state string, page domain.PageRequest) (*domain.Page[domain.Order], error) {
	if err := requireSession(actor); err != nil {
		return nil, err
	}
	filter := repository.OrderFilter{UserID: &actor.UserID}
	if st, ok := domain.ParseOrderState(state); ok {
		filter.State = &st
	}
	return s.list(ctx, filter, page)
}

func (s *OrderService) ListOrders(ctx context.Context, actor domain.Actor, state string, page domain.PageRequest) (*domain.Page[domain.Order], error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	filter := repository.OrderFilter{WithOwner: true}
	if st, ok := domain.ParseOrderState(state); ok {
		filter.State = &st
	}
	return s.list(ctx, filter, page)
}

func (s *OrderService) list(ctx context.Context, filter repository.OrderFilter, page domain.PageRequest) (*domain.Page[domain.Order], error) {
	orders, total, err := s.stores.Orders.List(ctx, filter, page)
	if err != nil {
		logFailure(ctx, s.logger, "list orders failed", err)
		return nil, err
	}
	return domain.NewPage(orders, total, page), nil
}

// notifyOwner and notifyAdmins run after commit, so they ignore request cancellation.
func (s *OrderService) notifyOwner(ctx context.Context, order *domain.Order, kind domain.NotificationKind) {
	ctx = context.WithoutCancel(ctx)
	owner, err := s.stores.Users.GetByID(ctx, order.UserID)
	if err != nil {
		logFailure(ctx, s.logger, "load order owner for notification failed", err, "order_id", order.ID.Hex())
		return
	}
	s.notifier.Notify(ctx, []string{owner.Email}, kind, order.ID.Hex())
}

func (s *OrderService) notifyAdmins(ctx context.Context, kind domain.NotificationKind, orderRef string) {
	ctx = context.WithoutCancel(ctx)
	admins, err := s.stores.Users.ListAdminEmails(ctx)
	if err != nil {
		logFailure(ctx, s.logger, "load admin e-mails failed", err, "order_id", orderRef)
		return
	}
	s.notifier.Notify(ctx, admins, kind, orderRef)
}
