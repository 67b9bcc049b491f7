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

type mongoOrderRepository struct {
	collection *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) OrderRepository {
	return &mongoOrderRepository{
		collection: db.Collection("orders"),
	}
}

func (m *mongoOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	now := time.Now()
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	order.CreatedAt = now
	order.UpdatedAt = now

	if _, err := m.collection.InsertOne(ctx, order); err != nil {
		return persistenceErr("create order", err)
	}
	return nil
}

func (m *mongoOrderRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Order, error) {
	var order domain.Order
	err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if err != nil {
		return nil, notFoundOr(ErrOrderNotFound, "get order", err)
	}
	return &order, nil
}

func orderFilter(f OrderFilter) bson.M {
	filter := bson.M{}
	if f.UserID != nil {
		filter["user"] = *f.UserID
	}
	if f.State != nil {
		filter["state"] = *f.State
	}
	return filter
}

func (m *mongoOrderRepository) List(ctx context.Context, f OrderFilter, page domain.PageRequest) ([]domain.Order, int64, error) {
	filter := orderFilter(f)

	total, err := m.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, persistenceErr("count orders", err)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$skip", Value: page.Skip()}},
		{{Key: "$limit", Value: page.Limit()}},
	}
	if f.WithOwner {
		pipeline = append(pipeline,
			bson.D{{Key: "$lookup", Value: bson.M{
				"from":         "users",
				"localField":   "user",
				"foreignField": "_id",
				"as":           "owner",
				"pipeline":     bson.A{bson.M{"$project": bson.M{"name": 1, "email": 1}}},
			}}},
			bson.D{{Key: "$set", Value: bson.M{"owner": bson.M{"$first": "$owner"}}}},
		)
	}

	cursor, err := m.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, persistenceErr("list orders", err)
	}
	var orders []domain.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, persistenceErr("decode orders", err)
	}
	return orders, total, nil
}

func (m *mongoOrderRepository) Count(ctx context.Context, f OrderFilter) (int64, error) {
	n, err := m.collection.CountDocuments(ctx, orderFilter(f))
	if err != nil {
		return 0, persistenceErr("count orders", err)
	}
	return n, nil
}

func (m *mongoOrderRepository) UpdateState(ctx context.Context, id primitive.ObjectID, expected, next domain.OrderState) error {
	filter := bson.M{"_id": id, "state": expected}
	update := bson.M{"$set": bson.M{"state": next, "updatedAt": time.Now()}}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return persistenceErr("update order state", err)
	}
	if result.MatchedCount == 0 {
		return m.missingOrChanged(ctx, id)
	}
	return nil
}

func (m *mongoOrderRepository) AttachPayment(ctx context.Context, id primitive.ObjectID, transactionID string, paidAt time.Time) error {
	filter := bson.M{"_id": id, "state": bson.M{"$ne": domain.OrderStateDelivered}}
	update := bson.M{"$set": bson.M{
		"transactionId": transactionID,
		"paidAt":        paidAt,
		"updatedAt":     time.Now(),
	}}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return persistenceErr("attach payment", err)
	}
	if result.MatchedCount == 0 {
		return m.missingOrChanged(ctx, id)
	}
	return nil
}

func (m *mongoOrderRepository) Delete(ctx context.Context, id primitive.ObjectID, expected domain.OrderState) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"_id": id, "state": expected})
	if err != nil {
		return persistenceErr("delete order", err)
	}
	if result.DeletedCount == 0 {
		return m.missingOrChanged(ctx, id)
	}
	return nil
}

// missingOrChanged explains why a guarded write matched nothing.
func (m *mongoOrderRepository) missingOrChanged(ctx context.Context, id primitive.ObjectID) error {
	n, err := m.collection.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return persistenceErr("check order", err)
	}
	if n == 0 {
		return ErrOrderNotFound
	}
	return ErrOrderStateChanged
}
