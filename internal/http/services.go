package http

import (
	"context"

	"github.com/aapiden/storefront/internal/domain"
	"github.com/aapiden/storefront/internal/service"
)

// The handlers depend on these instead of the concrete services so they can
// be tested with hand-written mocks.

type OrderService interface {
	CreateOrder(ctx context.Context, actor domain.Actor, req service.CreateOrderRequest) (*domain.Order, error)
	PayOrder(ctx context.Context, actor domain.Actor, orderID, transactionID string) (*domain.Order, error)
	ChangeState(ctx context.Context, actor domain.Actor, orderID string, next domain.OrderState) (*domain.Order, error)
	DeleteOrder(ctx context.Context, actor domain.Actor, orderID string) error
	GetOrder(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error)
	ListUserOrders(ctx context.Context, actor domain.Actor, state string, page domain.PageRequest) (*domain.Page[domain.Order], error)
	ListOrders(ctx context.Context, actor domain.Actor, state string, page domain.PageRequest) (*domain.Page[domain.Order], error)
}

type CatalogService interface {
	ListProducts(ctx context.Context, productType string, page domain.PageRequest) (*domain.Page[domain.Product], error)
	ListAllProducts(ctx context.Context, actor domain.Actor, page domain.PageRequest) (*domain.Page[domain.Product], error)
	GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error)
	SearchProducts(ctx context.Context, term string) ([]domain.Product, error)
	CreateProduct(ctx context.Context, actor domain.Actor, in service.ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, actor domain.Actor, productID string, in service.ProductInput) (*domain.Product, error)
	ListActiveProductTypes(ctx context.Context) ([]domain.ProductType, error)
	ListProductTypes(ctx context.Context, actor domain.Actor, page domain.PageRequest) (*domain.Page[domain.ProductType], error)
	CreateProductType(ctx context.Context, actor domain.Actor, in service.ProductTypeInput) (*domain.ProductType, error)
	UpdateProductType(ctx context.Context, actor domain.Actor, productTypeID string, in service.ProductTypeInput) (*domain.ProductType, error)
}

type UserService interface {
	Register(ctx context.Context, req service.RegisterRequest) (*service.Session, error)
	Login(ctx context.Context, req service.LoginRequest) (*service.Session, error)
	Renew(ctx context.Context, actor domain.Actor) (*service.Session, error)
	UpdateProfile(ctx context.Context, actor domain.Actor, userID string, req service.UpdateProfileRequest) (*service.Session, error)
	CheckPassword(ctx context.Context, actor domain.Actor, userID, oldPassword string) (*domain.User, error)
	UpdatePassword(ctx context.Context, actor domain.Actor, userID, oldPassword, newPassword string) error
	ListUsers(ctx context.Context, actor domain.Actor, page domain.PageRequest) (*domain.Page[domain.User], error)
	UpdateUser(ctx context.Context, actor domain.Actor, userID string, req service.UpdateUserRequest) error
}

type ReviewService interface {
	ListProductReviews(ctx context.Context, productID string, page domain.PageRequest) (*domain.ReviewPage, error)
	UpsertReview(ctx context.Context, actor domain.Actor, req service.ReviewRequest) (*domain.Review, error)
	UpdateReview(ctx context.Context, actor domain.Actor, req service.ReviewRequest) (*domain.Review, error)
	DeleteReview(ctx context.Context, actor domain.Actor, reviewID string) error
}

type DashboardService interface {
	Summary(ctx context.Context, actor domain.Actor) (*domain.DashboardSummary, error)
}
