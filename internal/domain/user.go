package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
)

func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleClient
}

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	Phone        string             `bson:"phone" json:"phone"`
	PasswordHash string             `bson:"password,omitempty" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	FreeShipping bool               `bson:"freeShipping" json:"freeShipping"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Actor is the authenticated caller of a request. It is passed explicitly
// into every use case instead of being read from ambient state.
type Actor struct {
	UserID       primitive.ObjectID
	Email        string
	Role         Role
	FreeShipping bool
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Owns reports whether the actor may see a resource owned by userID.
func (a Actor) Owns(userID primitive.ObjectID) bool {
	return a.IsAdmin() || a.UserID == userID
}
