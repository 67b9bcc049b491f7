package http

import (
	"context"
	"errors"

	"github.com/aapiden/storefront/internal/domain"
	"github.com/aapiden/storefront/internal/service"
)

// --- Mocks ---

type OrderServiceMock struct {
	order     *domain.Order
	page      *domain.Page[domain.Order]
	err       error
	gotActor  domain.Actor
	gotID     string
	gotState  string
	gotCreate service.CreateOrderRequest
	gotNext   domain.OrderState
	gotTxID   string
}

func (m *OrderServiceMock) CreateOrder(_ context.Context, actor domain.Actor, req service.CreateOrderRequest) (*domain.Order, error) {
	m.gotActor, m.gotCreate = actor, req
	return m.order, m.err
}

func (m *OrderServiceMock) PayOrder(_ context.Context, actor domain.Actor, orderID, transactionID string) (*domain.Order, error) {
	m.gotActor, m.gotID, m.gotTxID = actor, orderID, transactionID
	return m.order, m.err
}

func (m *OrderServiceMock) ChangeState(_ context.Context, actor domain.Actor, orderID string, next domain.OrderState) (*domain.Order, error) {
	m.gotActor, m.gotID, m.gotNext = actor, orderID, next
	return m.order, m.err
}

func (m *OrderServiceMock) DeleteOrder(_ context.Context, actor domain.Actor, orderID string) error {
	m.gotActor, m.gotID = actor, orderID
	return m.err
}

func (m *OrderServiceMock) GetOrder(_ context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
	m.gotActor, m.gotID = actor, orderID
	return m.order, m.err
}

func (m *OrderServiceMock) ListUserOrders(_ context.Context, actor domain.Actor, state string, _ domain.PageRequest) (*domain.Page[domain.Order], error) {
	m.gotActor, m.gotState = actor, state
	return m.page, m.err
}

func (m *OrderServiceMock) ListOrders(_ context.Context, actor domain.Actor, state string, _ domain.PageRequest) (*domain.Page[domain.Order], error) {
	m.gotActor, m.gotState = actor, state
	return m.page, m.err
}

type CatalogServiceMock struct {
	product  *domain.Product
	products []domain.Product
	types    []domain.ProductType
	err      error
	gotSlug  string
	gotType  string
	gotPage  domain.PageRequest
	gotInput service.ProductInput
}

func (m *CatalogServiceMock) ListProducts(_ context.Context, productType string, page domain.PageRequest) (*domain.Page[domain.Product], error) {
	m.gotType, m.gotPage = productType, page
	if m.err != nil {
		return nil, m.err
	}
	return domain.NewPage(m.products, int64(len(m.products)), page), nil
}

func (m *CatalogServiceMock) ListAllProducts(_ context.Context, _ domain.Actor, page domain.PageRequest) (*domain.Page[domain.Product], error) {
	if m.err != nil {
		return nil, m.err
	}
	return domain.NewPage(m.products, int64(len(m.products)), page), nil
}

func (m *CatalogServiceMock) GetProductBySlug(_ context.Context, slug string) (*domain.Product, error) {
	m.gotSlug = slug
	return m.product, m.err
}

func (m *CatalogServiceMock) SearchProducts(context.Context, string) ([]domain.Product, error) {
	return m.products, m.err
}

func (m *CatalogServiceMock) CreateProduct(_ context.Context, _ domain.Actor, in service.ProductInput) (*domain.Product, error) {
	m.gotInput = in
	return m.product, m.err
}

func (m *CatalogServiceMock) UpdateProduct(_ context.Context, _ domain.Actor, _ string, in service.ProductInput) (*domain.Product, error) {
	m.gotInput = in
	return m.product, m.err
}

func (m *CatalogServiceMock) ListActiveProductTypes(context.Context) ([]domain.ProductType, error) {
	return m.types, m.err
}

func (m *CatalogServiceMock) ListProductTypes(_ context.Context, _ domain.Actor, page domain.PageRequest) (*domain.Page[domain.ProductType], error) {
	if m.err != nil {
		return nil, m.err
	}
	return domain.NewPage(m.types, int64(len(m.types)), page), nil
}

func (m *CatalogServiceMock) CreateProductType(_ context.Context, _ domain.Actor, in service.ProductTypeInput) (*domain.ProductType, error) {
	return &domain.ProductType{Name: in.Name, Tax: in.Tax, State: in.State}, m.err
}

func (m *CatalogServiceMock) UpdateProductType(_ context.Context, _ domain.Actor, _ string, in service.ProductTypeInput) (*domain.ProductType, error) {
	return &domain.ProductType{Name: in.Name, Tax: in.Tax, State: in.State}, m.err
}

type UserServiceMock struct {
	session   *service.Session
	err       error
	gotActor  domain.Actor
	gotUserID string
	gotUpdate service.UpdateUserRequest
}

func (m *UserServiceMock) Register(context.Context, service.RegisterRequest) (*service.Session, error) {
	return m.session, m.err
}

func (m *UserServiceMock) Login(context.Context, service.LoginRequest) (*service.Session, error) {
	return m.session, m.err
}

func (m *UserServiceMock) Renew(_ context.Context, actor domain.Actor) (*service.Session, error) {
	m.gotActor = actor
	return m.session, m.err
}

func (m *UserServiceMock) UpdateProfile(_ context.Context, actor domain.Actor, userID string, _ service.UpdateProfileRequest) (*service.Session, error) {
	m.gotActor, m.gotUserID = actor, userID
	return m.session, m.err
}

func (m *UserServiceMock) CheckPassword(_ context.Context, actor domain.Actor, userID, _ string) (*domain.User, error) {
	m.gotActor, m.gotUserID = actor, userID
	return nil, m.err
}

func (m *UserServiceMock) UpdatePassword(_ context.Context, actor domain.Actor, userID, _, _ string) error {
	m.gotActor, m.gotUserID = actor, userID
	return m.err
}

func (m *UserServiceMock) ListUsers(_ context.Context, _ domain.Actor, page domain.PageRequest) (*domain.Page[domain.User], error) {
	if m.err != nil {
		return nil, m.err
	}
	return domain.NewPage[domain.User](nil, 0, page), nil
}

func (m *UserServiceMock) UpdateUser(_ context.Context, actor domain.Actor, userID string, req service.UpdateUserRequest) error {
	m.gotActor, m.gotUserID, m.gotUpdate = actor, userID, req
	return m.err
}

type ReviewServiceMock struct {
	review   *domain.Review
	page     *domain.ReviewPage
	err      error
	gotID    string
	gotActor domain.Actor
}

func (m *ReviewServiceMock) ListProductReviews(_ context.Context, productID string, _ domain.PageRequest) (*domain.ReviewPage, error) {
	m.gotID = productID
	return m.page, m.err
}

func (m *ReviewServiceMock) UpsertReview(_ context.Context, actor domain.Actor, _ service.ReviewRequest) (*domain.Review, error) {
	m.gotActor = actor
	return m.review, m.err
}

func (m *ReviewServiceMock) UpdateReview(_ context.Context, actor domain.Actor, req service.ReviewRequest) (*domain.Review, error) {
	m.gotActor, m.gotID = actor, req.ID
	return m.review, m.err
}

func (m *ReviewServiceMock) DeleteReview(_ context.Context, actor domain.Actor, reviewID string) error {
	m.gotActor, m.gotID = actor, reviewID
	return m.err
}

type DashboardServiceMock struct {
	summary *domain.DashboardSummary
	err     error
}

func (m *DashboardServiceMock) Summary(context.Context, domain.Actor) (*domain.DashboardSummary, error) {
	return m.summary, m.err
}

// fakeTokens accepts "client" and "admin" as tokens.
type fakeTokens struct {
	client domain.Actor
	admin  domain.Actor
}

func (f fakeTokens) Parse(raw string) (domain.Actor, error) {
	switch raw {
	case "client":
		return f.client, nil
	case "admin":
		return f.admin, nil
	}
	return domain.Actor{}, errors.New("token is malformed")
}
