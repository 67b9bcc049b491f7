package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReviewAuthor struct {
	ID   primitive.ObjectID `bson:"_id" json:"_id"`
	Name string             `bson:"name" json:"name"`
}

type Review struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID    primitive.ObjectID `bson:"user" json:"user"`
	Author    *ReviewAuthor      `bson:"author,omitempty" json:"author,omitempty"`
	ProductID primitive.ObjectID `bson:"product" json:"product"`
	Text      string             `bson:"review" json:"review"`
	Rating    int                `bson:"rating" json:"rating"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type ReviewPage struct {
	Reviews       []Review `json:"reviews"`
	TotalReviews  int64    `json:"totalReviews"`
	TotalPages    int64    `json:"totalPages"`
	AverageRating float64  `json:"averageRating"`
}
