package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aapiden/storefront/internal/cache"
	"github.com/aapiden/storefront/internal/domain"
	"github.com/aapiden/storefront/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockTransactor runs fn directly and counts invocations.
type mockTransactor struct {
	calls       int
	afterCommit func()
}

func (m *mockTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	if err := fn(ctx); err != nil {
		return err
	}
	if m.afterCommit != nil {
		m.afterCommit()
	}
	return nil
}

type mockOrderRepository struct {
	m      sync.Mutex
	orders map[primitive.ObjectID]*domain.Order
	err    error
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{orders: map[primitive.ObjectID]*domain.Order{}}
}

func (m *mockOrderRepository) Create(_ context.Context, order *domain.Order) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	order.CreatedAt = time.Now()
	cp := *order
	m.orders[order.ID] = &cp
	return nil
}

func (m *mockOrderRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepository) matching(f repository.OrderFilter) []domain.Order {
	var out []domain.Order
	for _, o := range m.orders {
		if f.UserID != nil && o.UserID != *f.UserID {
			continue
		}
		if f.State != nil && o.State != *f.State {
			continue
		}
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *mockOrderRepository) List(_ context.Context, f repository.OrderFilter, page domain.PageRequest) ([]domain.Order, int64, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, 0, m.err
	}
	all := m.matching(f)
	start := int(page.Skip())
	if start > len(all) {
		start = len(all)
	}
	end := start + page.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (m *mockOrderRepository) Count(_ context.Context, f repository.OrderFilter) (int64, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	return int64(len(m.matching(f))), nil
}

func (m *mockOrderRepository) UpdateState(_ context.Context, id primitive.ObjectID, expected, next domain.OrderState) error {
	m.m.Lock()
	defer m.m.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	if o.State != expected {
		return repository.ErrOrderStateChanged
	}
	o.State = next
	return nil
}

func (m *mockOrderRepository) AttachPayment(_ context.Context, id primitive.ObjectID, transactionID string, paidAt time.Time) error {
	m.m.Lock()
	defer m.m.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	if o.State == domain.OrderStateDelivered {
		return repository.ErrOrderStateChanged
	}
	o.TransactionID = transactionID
	o.PaidAt = &paidAt
	return nil
}

func (m *mockOrderRepository) Delete(_ context.Context, id primitive.ObjectID, expected domain.OrderState) error {
	m.m.Lock()
	defer m.m.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	if o.State != expected {
		return repository.ErrOrderStateChanged
	}
	delete(m.orders, id)
	return nil
}

type mockProductRepository struct {
	m        sync.Mutex
	products map[primitive.ObjectID]*domain.Product
	bySlug   int
	err      error
}

func newMockProductRepository(products ...*domain.Product) *mockProductRepository {
	m := &mockProductRepository{products: map[primitive.ObjectID]*domain.Product{}}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockProductRepository) stock(id primitive.ObjectID) int {
	m.m.Lock()
	defer m.m.Unlock()
	return m.products[id].InStock
}

func (m *mockProductRepository) Create(_ context.Context, p *domain.Product) error {
	m.m.Lock()
	defer m.m.Unlock()
	for _, existing := range m.products {
		if existing.Slug == p.Slug {
			return repository.ErrDuplicateSlug
		}
	}
	p.ID = primitive.NewObjectID()
	m.products[p.ID] = p
	return nil
}

func (m *mockProductRepository) Update(_ context.Context, p *domain.Product) error {
	m.m.Lock()
	defer m.m.Unlock()
	if _, ok := m.products[p.ID]; !ok {
		return repository.ErrProductNotFound
	}
	m.products[p.ID] = p
	return nil
}

func (m *mockProductRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepository) GetBySlug(_ context.Context, slug string) (*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.bySlug++
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.products {
		if p.Slug == slug {
			cp := *p
			cp.Images = append([]string(nil), p.Images...)
			return &cp, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (m *mockProductRepository) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Product
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockProductRepository) List(_ context.Context, f repository.ProductFilter, _ domain.PageRequest) ([]domain.Product, int64, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, 0, m.err
	}
	var out []domain.Product
	for _, p := range m.products {
		if f.PurchasableOnly && !p.IsPurchasable() {
			continue
		}
		if f.ProductTypeID != nil && p.ProductTypeID != *f.ProductTypeID {
			continue
		}
		cp := *p
		cp.Images = append([]string(nil), p.Images...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, int64(len(out)), nil
}

func (m *mockProductRepository) Search(context.Context, string) ([]domain.Product, error) {
	return nil, m.err
}

func (m *mockProductRepository) Count(_ context.Context, f repository.ProductFilter) (int64, error) {
	m.m.Lock()
	defer m.m.Unlock()
	var n int64
	for _, p := range m.products {
		if f.MaxStock != nil && p.InStock > *f.MaxStock {
			continue
		}
		n++
	}
	return n, nil
}

func (m *mockProductRepository) AdjustStock(_ context.Context, id primitive.ObjectID, delta int) error {
	m.m.Lock()
	defer m.m.Unlock()
	p, ok := m.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	if delta < 0 && p.InStock < -delta {
		return domain.ErrInsufficientStock
	}
	p.InStock += delta
	return nil
}

type mockProductTypeRepository struct {
	types map[primitive.ObjectID]domain.ProductType
}

func newMockProductTypeRepository(types ...domain.ProductType) *mockProductTypeRepository {
	m := &mockProductTypeRepository{types: map[primitive.ObjectID]domain.ProductType{}}
	for _, t := range types {
		m.types[t.ID] = t
	}
	return m
}

func (m *mockProductTypeRepository) Create(_ context.Context, pt *domain.ProductType) error {
	pt.ID = primitive.NewObjectID()
	m.types[pt.ID] = *pt
	return nil
}

func (m *mockProductTypeRepository) Update(_ context.Context, pt *domain.ProductType) error {
	if _, ok := m.types[pt.ID]; !ok {
		return repository.ErrProductTypeNotFound
	}
	m.types[pt.ID] = *pt
	return nil
}

func (m *mockProductTypeRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.ProductType, error) {
	pt, ok := m.types[id]
	if !ok {
		return nil, repository.ErrProductTypeNotFound
	}
	return &pt, nil
}

func (m *mockProductTypeRepository) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.ProductType, error) {
	out := map[primitive.ObjectID]domain.ProductType{}
	for _, id := range ids {
		if pt, ok := m.types[id]; ok {
			out[id] = pt
		}
	}
	return out, nil
}

func (m *mockProductTypeRepository) ListActive(context.Context) ([]domain.ProductType, error) {
	var out []domain.ProductType
	for _, pt := range m.types {
		if pt.State == domain.StateActive {
			out = append(out, pt)
		}
	}
	return out, nil
}

func (m *mockProductTypeRepository) List(context.Context, domain.PageRequest) ([]domain.ProductType, int64, error) {
	var out []domain.ProductType
	for _, pt := range m.types {
		out = append(out, pt)
	}
	return out, int64(len(out)), nil
}

func (m *mockProductTypeRepository) Count(context.Context) (int64, error) {
	return int64(len(m.types)), nil
}

type mockUserRepository struct {
	m     sync.Mutex
	users map[primitive.ObjectID]*domain.User
	err   error
	// honorCtx makes reads fail on a done context, like the driver does.
	honorCtx bool
}

func newMockUserRepository(users ...*domain.User) *mockUserRepository {
	m := &mockUserRepository{users: map[primitive.ObjectID]*domain.User{}}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserRepository) Create(_ context.Context, user *domain.User) error {
	m.m.Lock()
	defer m.m.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	user.ID = primitive.NewObjectID()
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.honorCtx && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.m.Lock()
	defer m.m.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) List(context.Context, domain.PageRequest) ([]domain.User, int64, error) {
	m.m.Lock()
	defer m.m.Unlock()
	var out []domain.User
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (m *mockUserRepository) ListAdminEmails(ctx context.Context) ([]string, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.honorCtx && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	var out []string
	for _, u := range m.users {
		if u.Role == domain.RoleAdmin {
			out = append(out, u.Email)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *mockUserRepository) UpdateRoleAndShipping(_ context.Context, id primitive.ObjectID, role *domain.Role, freeShipping *bool) error {
	m.m.Lock()
	defer m.m.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	if role != nil {
		u.Role = *role
	}
	if freeShipping != nil {
		u.FreeShipping = *freeShipping
	}
	return nil
}

func (m *mockUserRepository) UpdatePassword(_ context.Context, id primitive.ObjectID, hash string) error {
	m.m.Lock()
	defer m.m.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (m *mockUserRepository) UpdateProfile(_ context.Context, id primitive.ObjectID, name, phone, email string) error {
	m.m.Lock()
	defer m.m.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Name, u.Phone, u.Email = name, phone, email
	return nil
}

func (m *mockUserRepository) Count(_ context.Context, role *domain.Role) (int64, error) {
	m.m.Lock()
	defer m.m.Unlock()
	var n int64
	for _, u := range m.users {
		if role == nil || u.Role == *role {
			n++
		}
	}
	return n, nil
}

type mockReviewRepository struct {
	reviews map[primitive.ObjectID]*domain.Review
	err     error
}

func newMockReviewRepository() *mockReviewRepository {
	return &mockReviewRepository{reviews: map[primitive.ObjectID]*domain.Review{}}
}

func (m *mockReviewRepository) Upsert(_ context.Context, r *domain.Review) (*domain.Review, error) {
	for _, existing := range m.reviews {
		if existing.UserID == r.UserID && existing.ProductID == r.ProductID {
			existing.Text, existing.Rating = r.Text, r.Rating
			cp := *existing
			return &cp, nil
		}
	}
	r.ID = primitive.NewObjectID()
	m.reviews[r.ID] = r
	cp := *r
	return &cp, nil
}

func (m *mockReviewRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Review, error) {
	r, ok := m.reviews[id]
	if !ok {
		return nil, repository.ErrReviewNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockReviewRepository) Update(_ context.Context, id primitive.ObjectID, text string, rating int) (*domain.Review, error) {
	r, ok := m.reviews[id]
	if !ok {
		return nil, repository.ErrReviewNotFound
	}
	r.Text, r.Rating = text, rating
	cp := *r
	return &cp, nil
}

func (m *mockReviewRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := m.reviews[id]; !ok {
		return repository.ErrReviewNotFound
	}
	delete(m.reviews, id)
	return nil
}

func (m *mockReviewRepository) ListByProduct(_ context.Context, productID primitive.ObjectID, _ domain.PageRequest) ([]domain.Review, int64, error) {
	var out []domain.Review
	for _, r := range m.reviews {
		if r.ProductID == productID {
			out = append(out, *r)
		}
	}
	return out, int64(len(out)), m.err
}

func (m *mockReviewRepository) AverageRating(_ context.Context, productID primitive.ObjectID) (float64, error) {
	var sum, n int
	for _, r := range m.reviews {
		if r.ProductID == productID {
			sum += r.Rating
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return float64(sum) / float64(n), nil
}

func (m *mockReviewRepository) Count(context.Context) (int64, error) {
	return int64(len(m.reviews)), m.err
}

type mockCache struct {
	m        sync.RWMutex
	products map[string]*domain.Product
	deleted  []string
	err      error
}

func newMockCache() *mockCache {
	return &mockCache{products: map[string]*domain.Product{}}
}

func (m *mockCache) Get(_ context.Context, slug string) (*domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[slug]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	cp := *p
	return &cp, nil
}

func (m *mockCache) Set(_ context.Context, p *domain.Product) error {
	m.m.Lock()
	defer m.m.Unlock()
	cp := *p
	m.products[p.Slug] = &cp
	return nil
}

func (m *mockCache) Delete(_ context.Context, slugs ...string) error {
	m.m.Lock()
	defer m.m.Unlock()
	for _, s := range slugs {
		delete(m.products, s)
	}
	m.deleted = append(m.deleted, slugs...)
	return nil
}

func (m *mockCache) cached(slug string) bool {
	m.m.RLock()
	defer m.m.RUnlock()
	_, ok := m.products[slug]
	return ok
}

type sentNotification struct {
	Recipients []string
	Kind       domain.NotificationKind
	OrderRef   string
}

type mockNotifier struct {
	m    sync.Mutex
	sent []sentNotification
}

func (m *mockNotifier) Notify(_ context.Context, recipients []string, kind domain.NotificationKind, orderRef string) {
	m.m.Lock()
	defer m.m.Unlock()
	m.sent = append(m.sent, sentNotification{Recipients: recipients, Kind: kind, OrderRef: orderRef})
}

func (m *mockNotifier) kinds() []domain.NotificationKind {
	m.m.Lock()
	defer m.m.Unlock()
	out := make([]domain.NotificationKind, 0, len(m.sent))
	for _, s := range m.sent {
		out = append(out, s.Kind)
	}
	return out
}

type mockOutbox struct {
	events []*repository.OutboxEvent
	err    error
}

func (m *mockOutbox) Enqueue(_ context.Context, events ...*repository.OutboxEvent) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, events...)
	return nil
}

func (m *mockOutbox) GetUnprocessedEvents(context.Context, int) ([]*repository.OutboxEvent, error) {
	return m.events, m.err
}

func (m *mockOutbox) MarkEventAsProcessed(context.Context, string) error { return m.err }

func (m *mockOutbox) PurgeProcessed(context.Context, time.Time) (int64, error) { return 0, m.err }

type fakeTokens struct{}

func (fakeTokens) Issue(user *domain.User) (string, error) {
	return "token-" + user.ID.Hex(), nil
}
