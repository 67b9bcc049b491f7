package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OutboxEvent is a notification waiting to be published.
type OutboxEvent struct {
	ID          string     `bson:"_id"`
	AggregateId string     `bson:"aggregateId"`
	EventType   string     `bson:"eventType"`
	Payload     []byte     `bson:"payload"`
	CreatedAt   time.Time  `bson:"createdAt"`
	ProcessedAt *time.Time `bson:"processedAt,omitempty"`
}

type mongoOutboxRepository struct {
	collection *mongo.Collection
}

func NewOutboxRepository(db *mongo.Database) OutboxRepository {
	return &mongoOutboxRepository{
		collection: db.Collection("outbox"),
	}
}

func (m *mongoOutboxRepository) Enqueue(ctx context.Context, events ...*OutboxEvent) error {
	if len(events) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(events))
	for _, e := range events {
		if e.CreatedAt.IsZero() {
			e.CreatedAt = time.Now()
		}
		docs = append(docs, e)
	}
	if _, err := m.collection.InsertMany(ctx, docs); err != nil {
		return persistenceErr("enqueue outbox events", err)
	}
	return nil
}

func (m *mongoOutboxRepository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetLimit(int64(limit))
	cursor, err := m.collection.Find(ctx, bson.M{"processedAt": bson.M{"$exists": false}}, opts)
	if err != nil {
		return nil, persistenceErr("get unprocessed events", err)
	}
	var events []*OutboxEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, persistenceErr("decode outbox events", err)
	}
	return events, nil
}

func (m *mongoOutboxRepository) MarkEventAsProcessed(ctx context.Context, id string) error {
	update := bson.M{"$set": bson.M{"processedAt": time.Now()}}
	if _, err := m.collection.UpdateByID(ctx, id, update); err != nil {
		return persistenceErr("mark event as processed", err)
	}
	return nil
}

func (m *mongoOutboxRepository) PurgeProcessed(ctx context.Context, before time.Time) (int64, error) {
	result, err := m.collection.DeleteMany(ctx, bson.M{"processedAt": bson.M{"$lt": before}})
	if err != nil {
		return 0, persistenceErr("purge outbox", err)
	}
	return result.DeletedCount, nil
}
