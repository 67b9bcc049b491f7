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

type mongoReviewRepository struct {
	collection *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) ReviewRepository {
	return &mongoReviewRepository{
		collection: db.Collection("reviews"),
	}
}

// Upsert keeps one review per user and product.
func (m *mongoReviewRepository) Upsert(ctx context.Context, review *domain.Review) (*domain.Review, error) {
	now := time.Now()
	filter := bson.M{"user": review.UserID, "product": review.ProductID}
	update := bson.M{
		"$set": bson.M{
			"review":    review.Text,
			"rating":    review.Rating,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var saved domain.Review
	if err := m.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&saved); err != nil {
		return nil, persistenceErr("upsert review", err)
	}
	return &saved, nil
}

func (m *mongoReviewRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Review, error) {
	var review domain.Review
	if err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&review); err != nil {
		return nil, notFoundOr(ErrReviewNotFound, "get review", err)
	}
	return &review, nil
}

func (m *mongoReviewRepository) Update(ctx context.Context, id primitive.ObjectID, text string, rating int) (*domain.Review, error) {
	update := bson.M{"$set": bson.M{"review": text, "rating": rating, "updatedAt": time.Now()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var saved domain.Review
	if err := m.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&saved); err != nil {
		return nil, notFoundOr(ErrReviewNotFound, "update review", err)
	}
	return &saved, nil
}

func (m *mongoReviewRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return persistenceErr("delete review", err)
	}
	if result.DeletedCount == 0 {
		return ErrReviewNotFound
	}
	return nil
}

func (m *mongoReviewRepository) ListByProduct(ctx context.Context, productID primitive.ObjectID, page domain.PageRequest) ([]domain.Review, int64, error) {
	filter := bson.M{"product": productID}
	total, err := m.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, persistenceErr("count reviews", err)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$sort", Value: bson.D{{Key: "updatedAt", Value: -1}}}},
		{{Key: "$skip", Value: page.Skip()}},
		{{Key: "$limit", Value: page.Limit()}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "user",
			"foreignField": "_id",
			"as":           "author",
			"pipeline":     bson.A{bson.M{"$project": bson.M{"name": 1}}},
		}}},
		{{Key: "$set", Value: bson.M{"author": bson.M{"$first": "$author"}}}},
	}
	cursor, err := m.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, persistenceErr("list reviews", err)
	}
	var reviews []domain.Review
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, 0, persistenceErr("decode reviews", err)
	}
	return reviews, total, nil
}

func (m *mongoReviewRepository) AverageRating(ctx context.Context, productID primitive.ObjectID) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"product": productID}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "avg": bson.M{"$avg": "$rating"}}}},
	}
	cursor, err := m.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, persistenceErr("average rating", err)
	}
	var result []struct {
		Avg float64 `bson:"avg"`
	}
	if err := cursor.All(ctx, &result); err != nil {
		return 0, persistenceErr("decode average rating", err)
	}
	if len(result) == 0 {
		return 0, nil
	}
	return result[0].Avg, nil
}

func (m *mongoReviewRepository) Count(ctx context.Context) (int64, error) {
	n, err := m.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, persistenceErr("count reviews", err)
	}
	return n, nil
}
