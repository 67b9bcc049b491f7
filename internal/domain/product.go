package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// State is shared by products and product types.
type State string

const (
	StateActive   State = "activo"
	StateInactive State = "inactivo"
)

func (s State) IsValid() bool {
	return s == StateActive || s == StateInactive
}

type Product struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title         string             `bson:"title" json:"title"`
	Slug          string             `bson:"slug" json:"slug"`
	Description   string             `bson:"description" json:"description"`
	Images        []string           `bson:"images" json:"images"`
	InStock       int                `bson:"inStock" json:"inStock"`
	Weight        float64            `bson:"weight" json:"weight"`
	Price         float64            `bson:"price" json:"price"`
	Tags          []string           `bson:"tags" json:"tags"`
	State         State              `bson:"state" json:"state"`
	ProductTypeID primitive.ObjectID `bson:"productType" json:"productType"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsPurchasable mirrors the public catalog condition: active and in stock.
func (p *Product) IsPurchasable() bool {
	return p.State == StateActive && p.InStock >= 1
}

// ResolveImages prefixes relative image names with the public host.
func (p *Product) ResolveImages(hostName string) {
	for i, image := range p.Images {
		if !strings.Contains(image, "http") {
			p.Images[i] = strings.TrimRight(hostName, "/") + "/products/" + image
		}
	}
}

// FirstImage is what gets snapshotted on an order line.
func (p *Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// ProductType carries the tax rate, in percent, applied to its products.
type ProductType struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name      string             `bson:"name" json:"name"`
	Tax       float64            `bson:"tax" json:"tax"`
	State     State              `bson:"state" json:"state"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
