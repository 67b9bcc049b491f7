package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aapiden/storefront/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrOrderNotFound       = fmt.Errorf("%w: order does not exist", domain.ErrNotFound)
	ErrProductNotFound     = fmt.Errorf("%w: product does not exist", domain.ErrNotFound)
	ErrProductTypeNotFound = fmt.Errorf("%w: product type does not exist", domain.ErrNotFound)
	ErrUserNotFound        = fmt.Errorf("%w: user does not exist", domain.ErrNotFound)
	ErrReviewNotFound      = fmt.Errorf("%w: review does not exist", domain.ErrNotFound)

	ErrOrderStateChanged = fmt.Errorf("%w: order was modified by another request", domain.ErrConflict)
	ErrDuplicateSlug     = fmt.Errorf("%w: slug already exists", domain.ErrConflict)
	ErrDuplicateEmail    = fmt.Errorf("%w: e-mail is already registered", domain.ErrConflict)
)

// OrderFilter narrows order listings. A nil State lists every state.
type OrderFilter struct {
	UserID    *primitive.ObjectID
	State     *domain.OrderState
	WithOwner bool
}

// ProductFilter narrows product listings and counts.
type ProductFilter struct {
	ProductTypeID   *primitive.ObjectID
	PurchasableOnly bool
	MaxStock        *int
}

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter, page domain.PageRequest) ([]domain.Order, int64, error)
	Count(ctx context.Context, filter OrderFilter) (int64, error)
	// UpdateState only succeeds while the stored state is still expected.
	UpdateState(ctx context.Context, id primitive.ObjectID, expected, next domain.OrderState) error
	AttachPayment(ctx context.Context, id primitive.ObjectID, transactionID string, paidAt time.Time) error
	// Delete only removes the order while the stored state is still expected.
	Delete(ctx context.Context, id primitive.ObjectID, expected domain.OrderState) error
}

type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Product, error)
	List(ctx context.Context, filter ProductFilter, page domain.PageRequest) ([]domain.Product, int64, error)
	Search(ctx context.Context, term string) ([]domain.Product, error)
	Count(ctx context.Context, filter ProductFilter) (int64, error)
	// AdjustStock adds delta to inStock. A negative delta is only applied
	// when enough stock is left.
	AdjustStock(ctx context.Context, id primitive.ObjectID, delta int) error
}

type ProductTypeRepository interface {
	Create(ctx context.Context, pt *domain.ProductType) error
	Update(ctx context.Context, pt *domain.ProductType) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ProductType, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.ProductType, error)
	ListActive(ctx context.Context) ([]domain.ProductType, error)
	List(ctx context.Context, page domain.PageRequest) ([]domain.ProductType, int64, error)
	Count(ctx context.Context) (int64, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, page domain.PageRequest) ([]domain.User, int64, error)
	ListAdminEmails(ctx context.Context) ([]string, error)
	UpdateRoleAndShipping(ctx context.Context, id primitive.ObjectID, role *domain.Role, freeShipping *bool) error
	UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error
	UpdateProfile(ctx context.Context, id primitive.ObjectID, name, phone, email string) error
	Count(ctx context.Context, role *domain.Role) (int64, error)
}

type ReviewRepository interface {
	Upsert(ctx context.Context, review *domain.Review) (*domain.Review, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Review, error)
	Update(ctx context.Context, id primitive.ObjectID, text string, rating int) (*domain.Review, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	ListByProduct(ctx context.Context, productID primitive.ObjectID, page domain.PageRequest) ([]domain.Review, int64, error)
	AverageRating(ctx context.Context, productID primitive.ObjectID) (float64, error)
	Count(ctx context.Context) (int64, error)
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, events ...*OutboxEvent) error
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id string) error
	PurgeProcessed(ctx context.Context, before time.Time) (int64, error)
}

func persistenceErr(op string, err error) error {
	return fmt.Errorf("%w: failed to %s: %w", domain.ErrPersistence, op, err)
}

// notFoundOr maps a missing document to notFound and anything else to a persistence failure.
func notFoundOr(notFound error, op string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return notFound
	}
	return persistenceErr(op, err)
}
