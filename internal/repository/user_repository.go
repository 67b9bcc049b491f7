package repository

import (
	"context"
	"strings"
	"time"

	"github.com/aapiden/storefront/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoUserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) UserRepository {
	return &mongoUserRepository{
		collection: db.Collection("users"),
	}
}

func (m *mongoUserRepository) Create(ctx context.Context, user *domain.User) error {
	now := time.Now()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.Email = strings.ToLower(user.Email)
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := m.collection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return persistenceErr("create user", err)
	}
	return nil
}

func (m *mongoUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	var user domain.User
	if err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, notFoundOr(ErrUserNotFound, "get user", err)
	}
	return &user, nil
}

func (m *mongoUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	filter := bson.M{"email": strings.ToLower(email)}
	if err := m.collection.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, notFoundOr(ErrUserNotFound, "get user by email", err)
	}
	return &user, nil
}

func (m *mongoUserRepository) List(ctx context.Context, page domain.PageRequest) ([]domain.User, int64, error) {
	total, err := m.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, persistenceErr("count users", err)
	}

	opts := options.Find().
		SetProjection(bson.M{"password": 0}).
		SetSort(bson.D{{Key: "role", Value: 1}, {Key: "createdAt", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(page.Limit())
	cursor, err := m.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, persistenceErr("list users", err)
	}
	var users []domain.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, 0, persistenceErr("decode users", err)
	}
	return users, total, nil
}

func (m *mongoUserRepository) ListAdminEmails(ctx context.Context) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"email": 1})
	cursor, err := m.collection.Find(ctx, bson.M{"role": domain.RoleAdmin}, opts)
	if err != nil {
		return nil, persistenceErr("list admins", err)
	}
	var admins []domain.User
	if err := cursor.All(ctx, &admins); err != nil {
		return nil, persistenceErr("decode admins", err)
	}

	emails := make([]string, 0, len(admins))
	for _, a := range admins {
		emails = append(emails, a.Email)
	}
	return emails, nil
}

func (m *mongoUserRepository) UpdateRoleAndShipping(ctx context.Context, id primitive.ObjectID, role *domain.Role, freeShipping *bool) error {
	set := bson.M{"updatedAt": time.Now()}
	if role != nil {
		set["role"] = *role
	}
	if freeShipping != nil {
		set["freeShipping"] = *freeShipping
	}

	result, err := m.collection.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return persistenceErr("update user", err)
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (m *mongoUserRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	update := bson.M{"$set": bson.M{"password": passwordHash, "updatedAt": time.Now()}}
	result, err := m.collection.UpdateByID(ctx, id, update)
	if err != nil {
		return persistenceErr("update password", err)
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (m *mongoUserRepository) UpdateProfile(ctx context.Context, id primitive.ObjectID, name, phone, email string) error {
	update := bson.M{"$set": bson.M{
		"name":      name,
		"phone":     phone,
		"email":     strings.ToLower(email),
		"updatedAt": time.Now(),
	}}
	result, err := m.collection.UpdateByID(ctx, id, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return persistenceErr("update profile", err)
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (m *mongoUserRepository) Count(ctx context.Context, role *domain.Role) (int64, error) {
	filter := bson.M{}
	if role != nil {
		filter["role"] = *role
	}
	n, err := m.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, persistenceErr("count users", err)
	}
	return n, nil
}
