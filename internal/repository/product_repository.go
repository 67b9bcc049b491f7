package repository

import (
	"context"
	"time"

	"github.com/aapiden/storefront/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const searchLimit = 50

type mongoProductRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Database) ProductRepository {
	return &mongoProductRepository{
		collection: db.Collection("products"),
	}
}

func (m *mongoProductRepository) Create(ctx context.Context, product *domain.Product) error {
	now := time.Now()
	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	product.CreatedAt = now
	product.UpdatedAt = now

	if _, err := m.collection.InsertOne(ctx, product); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateSlug
		}
		return persistenceErr("create product", err)
	}
	return nil
}

func (m *mongoProductRepository) Update(ctx context.Context, product *domain.Product) error {
	product.UpdatedAt = time.Now()
	update := bson.M{"$set": bson.M{
		"title":       product.Title,
		"slug":        product.Slug,
		"description": product.Description,
		"images":      product.Images,
		"inStock":     product.InStock,
		"weight":      product.Weight,
		"price":       product.Price,
		"tags":        product.Tags,
		"state":       product.State,
		"productType": product.ProductTypeID,
		"updatedAt":   product.UpdatedAt,
	}}

	result, err := m.collection.UpdateByID(ctx, product.ID, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateSlug
		}
		return persistenceErr("update product", err)
	}
	if result.MatchedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (m *mongoProductRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Product, error) {
	var product domain.Product
	if err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		return nil, notFoundOr(ErrProductNotFound, "get product", err)
	}
	return &product, nil
}

func (m *mongoProductRepository) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	var product domain.Product
	if err := m.collection.FindOne(ctx, bson.M{"slug": slug}).Decode(&product); err != nil {
		return nil, notFoundOr(ErrProductNotFound, "get product by slug", err)
	}
	return &product, nil
}

func (m *mongoProductRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Product, error) {
	cursor, err := m.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, persistenceErr("find products", err)
	}
	var products []domain.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, persistenceErr("decode products", err)
	}
	return products, nil
}

func productFilter(f ProductFilter) bson.M {
	filter := bson.M{}
	if f.ProductTypeID != nil {
		filter["productType"] = *f.ProductTypeID
	}
	if f.PurchasableOnly {
		filter["state"] = domain.StateActive
		filter["inStock"] = bson.M{"$gte": 1}
	}
	if f.MaxStock != nil {
		stock, _ := filter["inStock"].(bson.M)
		if stock == nil {
			stock = bson.M{}
		}
		stock["$lte"] = *f.MaxStock
		filter["inStock"] = stock
	}
	return filter
}

func (m *mongoProductRepository) List(ctx context.Context, f ProductFilter, page domain.PageRequest) ([]domain.Product, int64, error) {
	filter := productFilter(f)

	total, err := m.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, persistenceErr("count products", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "title", Value: 1}}).
		SetSkip(page.Skip()).
		SetLimit(page.Limit())
	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, persistenceErr("list products", err)
	}
	var products []domain.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, persistenceErr("decode products", err)
	}
	return products, total, nil
}

func (m *mongoProductRepository) Search(ctx context.Context, term string) ([]domain.Product, error) {
	filter := productFilter(ProductFilter{PurchasableOnly: true})
	filter["$text"] = bson.M{"$search": term}

	opts := options.Find().
		SetProjection(bson.M{"score": bson.M{"$meta": "textScore"}}).
		SetSort(bson.D{{Key: "score", Value: bson.M{"$meta": "textScore"}}}).
		SetLimit(searchLimit)
	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, persistenceErr("search products", err)
	}
	var products []domain.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, persistenceErr("decode products", err)
	}
	return products, nil
}

func (m *mongoProductRepository) Count(ctx context.Context, f ProductFilter) (int64, error) {
	n, err := m.collection.CountDocuments(ctx, productFilter(f))
	if err != nil {
		return 0, persistenceErr("count products", err)
	}
	return n, nil
}

func (m *mongoProductRepository) AdjustStock(ctx context.Context, id primitive.ObjectID, delta int) error {
	filter := bson.M{"_id": id}
	if delta < 0 {
		filter["inStock"] = bson.M{"$gte": -delta}
	}
	update := bson.M{
		"$inc": bson.M{"inStock": delta},
		"$set": bson.M{"updatedAt": time.Now()},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return persistenceErr("adjust stock", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	n, err := m.collection.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return persistenceErr("check product", err)
	}
	if n == 0 {
		return ErrProductNotFound
	}
	return domain.ErrInsufficientStock
}
