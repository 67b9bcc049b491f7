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

type mongoProductTypeRepository struct {
	collection *mongo.Collection
}

func NewProductTypeRepository(db *mongo.Database) ProductTypeRepository {
	return &mongoProductTypeRepository{
		collection: db.Collection("product_types"),
	}
}

func (m *mongoProductTypeRepository) Create(ctx context.Context, pt *domain.ProductType) error {
	now := time.Now()
	if pt.ID.IsZero() {
		pt.ID = primitive.NewObjectID()
	}
	pt.CreatedAt = now
	pt.UpdatedAt = now

	if _, err := m.collection.InsertOne(ctx, pt); err != nil {
		return persistenceErr("create product type", err)
	}
	return nil
}

func (m *mongoProductTypeRepository) Update(ctx context.Context, pt *domain.ProductType) error {
	pt.UpdatedAt = time.Now()
	update := bson.M{"$set": bson.M{
		"name":      pt.Name,
		"tax":       pt.Tax,
		"state":     pt.State,
		"updatedAt": pt.UpdatedAt,
	}}
	result, err := m.collection.UpdateByID(ctx, pt.ID, update)
	if err != nil {
		return persistenceErr("update product type", err)
	}
	if result.MatchedCount == 0 {
		return ErrProductTypeNotFound
	}
	return nil
}

func (m *mongoProductTypeRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ProductType, error) {
	var pt domain.ProductType
	if err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&pt); err != nil {
		return nil, notFoundOr(ErrProductTypeNotFound, "get product type", err)
	}
	return &pt, nil
}

func (m *mongoProductTypeRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.ProductType, error) {
	cursor, err := m.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, persistenceErr("find product types", err)
	}
	var types []domain.ProductType
	if err := cursor.All(ctx, &types); err != nil {
		return nil, persistenceErr("decode product types", err)
	}

	byID := make(map[primitive.ObjectID]domain.ProductType, len(types))
	for _, pt := range types {
		byID[pt.ID] = pt
	}
	return byID, nil
}

func (m *mongoProductTypeRepository) ListActive(ctx context.Context) ([]domain.ProductType, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := m.collection.Find(ctx, bson.M{"state": domain.StateActive}, opts)
	if err != nil {
		return nil, persistenceErr("list product types", err)
	}
	var types []domain.ProductType
	if err := cursor.All(ctx, &types); err != nil {
		return nil, persistenceErr("decode product types", err)
	}
	return types, nil
}

func (m *mongoProductTypeRepository) List(ctx context.Context, page domain.PageRequest) ([]domain.ProductType, int64, error) {
	total, err := m.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, persistenceErr("count product types", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetSkip(page.Skip()).
		SetLimit(page.Limit())
	cursor, err := m.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, persistenceErr("list product types", err)
	}
	var types []domain.ProductType
	if err := cursor.All(ctx, &types); err != nil {
		return nil, 0, persistenceErr("decode product types", err)
	}
	return types, total, nil
}

func (m *mongoProductTypeRepository) Count(ctx context.Context) (int64, error) {
	n, err := m.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, persistenceErr("count product types", err)
	}
	return n, nil
}
