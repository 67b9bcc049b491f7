package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aapiden/storefront/internal/cache"
	"github.com/aapiden/storefront/internal/domain"
	"github.com/aapiden/storefront/internal/repository"
	"golang.org/x/sync/singleflight"
)

// AllProductTypes is the catalog filter value that disables type filtering.
const AllProductTypes = "todos"

const minProductImages = 2

type ProductInput struct {
	Title       string       `json:"title" validate:"required"`
	Slug        string       `json:"slug" validate:"required"`
	Description string       `json:"description" validate:"required"`
	Images      []string     `json:"images" validate:"min=2,dive,required"`
	InStock     int          `json:"inStock" validate:"gte=0"`
	Weight      float64      `json:"weight" validate:"gte=0"`
	Price       float64      `json:"price" validate:"gte=0"`
	Tags        []string     `json:"tags"`
	State       domain.State `json:"state" validate:"required,oneof=activo inactivo"`
	ProductType string       `json:"productType" validate:"required"`
}

type ProductTypeInput struct {
	Name  string       `json:"name" validate:"required"`
	Tax   float64      `json:"tax" validate:"gte=0,lte=100"`
	State domain.State `json:"state" validate:"required,oneof=activo inactivo"`
}

type CatalogService struct {
	products     repository.ProductRepository
	productTypes repository.ProductTypeRepository
	cache        cache.ProductCache
	hostName     string
	logger       *slog.Logger
	sfg          singleflight.Group // Prevents cache stampede
}

func NewCatalogService(stores Stores, c cache.ProductCache, hostName string, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		products:     stores.Products,
		productTypes: stores.ProductTypes,
		cache:        c,
		hostName:     hostName,
		logger:       logger,
	}
}

// ListProducts lists purchasable products, optionally of one product type.
func (s *CatalogService) ListProducts(ctx context.Context, productType string, page domain.PageRequest) (*domain.Page[domain.Product], error) {
	filter := repository.ProductFilter{PurchasableOnly: true}
	if productType != "" && productType != AllProductTypes {
		id, err := domain.ParseID(productType)
		if err != nil {
			return nil, err
		}
		filter.ProductTypeID = &id
	}
	return s.list(ctx, filter, page)
}

func (s *CatalogService) ListAllProducts(ctx context.Context, actor domain.Actor, page domain.PageRequest) (*domain.Page[domain.Product], error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.list(ctx, repository.ProductFilter{}, page)
}

func (s *CatalogService) list(ctx context.Context, filter repository.ProductFilter, page domain.PageRequest) (*domain.Page[domain.Product], error) {
	products, total, err := s.products.List(ctx, filter, page)
	if err != nil {
		logFailure(ctx, s.logger, "list products failed", err)
		return nil, err
	}
	for i := range products {
		products[i].ResolveImages(s.hostName)
	}
	return domain.NewPage(products, total, page), nil
}

// GetProductBySlug reads through the product cache.
func (s *CatalogService) GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, fmt.Errorf("%w: slug is required", domain.ErrInvalidInput)
	}

	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(slug, func() (interface{}, error) {
		product, err := s.cache.Get(ctx, slug)
		if err == nil {
			return product, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.WarnContext(ctx, "cache get error", "slug", slug, "error", err)
		}

		product, err = s.products.GetBySlug(ctx, slug)
		if err != nil {
			return nil, err
		}
		product.ResolveImages(s.hostName)

		go func(p domain.Product) {
			if err := s.cache.Set(context.Background(), &p); err != nil {
				s.logger.Warn("cache set error", "slug", p.Slug, "error", err)
			}
		}(*product)

		return product, nil
	})
	if err != nil {
		logFailure(ctx, s.logger, "get product failed", err, "slug", slug)
		return nil, err
	}

	// shared between singleflight callers
	product := *v.(*domain.Product)
	if product.State != domain.StateActive {
		return nil, repository.ErrProductNotFound
	}
	return &product, nil
}

func (s *CatalogService) SearchProducts(ctx context.Context, term string) ([]domain.Product, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("%w: search term is required", domain.ErrInvalidInput)
	}
	products, err := s.products.Search(ctx, term)
	if err != nil {
		logFailure(ctx, s.logger, "search products failed", err, "term", term)
		return nil, err
	}
	for i := range products {
		products[i].ResolveImages(s.hostName)
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, actor domain.Actor, in ProductInput) (*domain.Product, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	product, err := s.buildProduct(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := s.products.Create(ctx, product); err != nil {
		logFailure(ctx, s.logger, "create product failed", err, "slug", product.Slug)
		return nil, err
	}
	s.logger.InfoContext(ctx, "product created", "product_id", product.ID.Hex(), "slug", product.Slug)
	return product, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, actor domain.Actor, productID string, in ProductInput) (*domain.Product, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	id, err := domain.ParseID(productID)
	if err != nil {
		return nil, err
	}
	product, err := s.buildProduct(ctx, in)
	if err != nil {
		return nil, err
	}

	existing, err := s.products.GetByID(ctx, id)
	if err != nil {
		logFailure(ctx, s.logger, "load product failed", err, "product_id", productID)
		return nil, err
	}

	product.ID = id
	product.CreatedAt = existing.CreatedAt
	if err := s.products.Update(ctx, product); err != nil {
		logFailure(ctx, s.logger, "update product failed", err, "product_id", productID)
		return nil, err
	}

	invalidateProducts(s.cache, s.logger, existing.Slug, product.Slug)
	return product, nil
}

func (s *CatalogService) buildProduct(ctx context.Context, in ProductInput) (*domain.Product, error) {
	if len(in.Images) < minProductImages {
		return nil, fmt.Errorf("%w: at least %d images are required", domain.ErrInvalidInput, minProductImages)
	}
	if !in.State.IsValid() {
		return nil, fmt.Errorf("%w: unknown state %q", domain.ErrInvalidInput, in.State)
	}
	slug := strings.ToLower(strings.TrimSpace(in.Slug))
	if slug == "" || strings.ContainsAny(slug, " /") {
		return nil, fmt.Errorf("%w: slug must not be empty or contain spaces", domain.ErrInvalidInput)
	}
	if in.InStock < 0 || in.Price < 0 || in.Weight < 0 {
		return nil, fmt.Errorf("%w: stock, price and weight must not be negative", domain.ErrInvalidInput)
	}

	typeID, err := domain.ParseID(in.ProductType)
	if err != nil {
		return nil, err
	}
	if _, err := s.productTypes.GetByID(ctx, typeID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: product type does not exist", domain.ErrInvalidInput)
		}
		return nil, err
	}

	return &domain.Product{
		Title:         strings.TrimSpace(in.Title),
		Slug:          slug,
		Description:   in.Description,
		Images:        in.Images,
		InStock:       in.InStock,
		Weight:        in.Weight,
		Price:         in.Price,
		Tags:          in.Tags,
		State:         in.State,
		ProductTypeID: typeID,
	}, nil
}

func (s *CatalogService) ListActiveProductTypes(ctx context.Context) ([]domain.ProductType, error) {
	types, err := s.productTypes.ListActive(ctx)
	if err != nil {
		logFailure(ctx, s.logger, "list product types failed", err)
		return nil, err
	}
	if types == nil {
		types = []domain.ProductType{}
	}
	return types, nil
}

func (s *CatalogService) ListProductTypes(ctx context.Context, actor domain.Actor, page domain.PageRequest) (*domain.Page[domain.ProductType], error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	types, total, err := s.productTypes.List(ctx, page)
	if err != nil {
		logFailure(ctx, s.logger, "list product types failed", err)
		return nil, err
	}
	return domain.NewPage(types, total, page), nil
}

func (s *CatalogService) CreateProductType(ctx context.Context, actor domain.Actor, in ProductTypeInput) (*domain.ProductType, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	pt, err := buildProductType(in)
	if err != nil {
		return nil, err
	}
	if err := s.productTypes.Create(ctx, pt); err != nil {
		logFailure(ctx, s.logger, "create product type failed", err)
		return nil, err
	}
	return pt, nil
}

func (s *CatalogService) UpdateProductType(ctx context.Context, actor domain.Actor, productTypeID string, in ProductTypeInput) (*domain.ProductType, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	id, err := domain.ParseID(productTypeID)
	if err != nil {
		return nil, err
	}
	pt, err := buildProductType(in)
	if err != nil {
		return nil, err
	}
	pt.ID = id
	if err := s.productTypes.Update(ctx, pt); err != nil {
		logFailure(ctx, s.logger, "update product type failed", err, "product_type_id", productTypeID)
		return nil, err
	}
	return pt, nil
}

func buildProductType(in ProductTypeInput) (*domain.ProductType, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if in.Tax < 0 || in.Tax > 100 {
		return nil, fmt.Errorf("%w: tax must be between 0 and 100", domain.ErrInvalidInput)
	}
	if !in.State.IsValid() {
		return nil, fmt.Errorf("%w: unknown state %q", domain.ErrInvalidInput, in.State)
	}
	return &domain.ProductType{Name: name, Tax: in.Tax, State: in.State}, nil
}
