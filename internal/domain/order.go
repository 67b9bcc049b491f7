package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderState string

const (
	OrderStatePending   OrderState = "pendiente"
	OrderStatePaid      OrderState = "pagada"
	OrderStateDelivered OrderState = "entregada"
)

func (s OrderState) IsValid() bool {
	switch s {
	case OrderStatePending, OrderStatePaid, OrderStateDelivered:
		return true
	}
	return false
}

func (s OrderState) IsTerminal() bool {
	return s == OrderStateDelivered
}

// String representation (for logging)
func (s OrderState) String() string {
	return string(s)
}

// ParseOrderState returns the state and true only for one of the three known states.
func ParseOrderState(raw string) (OrderState, bool) {
	s := OrderState(raw)
	return s, s.IsValid()
}

type DeliveryType string

const (
	DeliveryShipping DeliveryType = "envio"
	DeliveryPickup   DeliveryType = "retiro"
)

func (d DeliveryType) IsValid() bool {
	return d == DeliveryShipping || d == DeliveryPickup
}

func (d DeliveryType) NeedsShipping() bool {
	return d == DeliveryShipping
}

// OrderItemProductType is the product type captured when the order was placed.
type OrderItemProductType struct {
	ID   primitive.ObjectID `bson:"_id" json:"_id"`
	Name string             `bson:"name" json:"name"`
	Tax  float64            `bson:"tax" json:"tax"`
}

// OrderItem is an immutable snapshot of the product at purchase time.
type OrderItem struct {
	ProductID   primitive.ObjectID   `bson:"_id" json:"_id"`
	Title       string               `bson:"title" json:"title"`
	Quantity    int                  `bson:"quantity" json:"quantity"`
	Slug        string               `bson:"slug" json:"slug"`
	Image       string               `bson:"image" json:"image"`
	Price       float64              `bson:"price" json:"price"`
	Weight      float64              `bson:"weight" json:"weight"`
	ProductType OrderItemProductType `bson:"productType" json:"productType"`
}

type ShippingAddress struct {
	FirstName string `bson:"firstName" json:"firstName" validate:"required"`
	LastName  string `bson:"lastName" json:"lastName" validate:"required"`
	Address   string `bson:"address" json:"address" validate:"required"`
	Address2  string `bson:"address2,omitempty" json:"address2,omitempty"`
	Zip       string `bson:"zip" json:"zip" validate:"required"`
	District  string `bson:"district" json:"district" validate:"required"`
	Canton    string `bson:"canton" json:"canton" validate:"required"`
	Province  string `bson:"province" json:"province" validate:"required"`
	Country   string `bson:"country" json:"country" validate:"required"`
	Phone     string `bson:"phone" json:"phone" validate:"required"`
}

// OrderOwner is filled only by admin listings.
type OrderOwner struct {
	ID    primitive.ObjectID `bson:"_id" json:"_id"`
	Name  string             `bson:"name" json:"name"`
	Email string             `bson:"email" json:"email"`
}

type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID          primitive.ObjectID `bson:"user" json:"user"`
	Owner           *OrderOwner        `bson:"owner,omitempty" json:"owner,omitempty"`
	Items           []OrderItem        `bson:"orderItems" json:"orderItems"`
	ShippingAddress ShippingAddress    `bson:"shippingAddress" json:"shippingAddress"`

	NumberOfItems int     `bson:"numberOfItems" json:"numberOfItems"`
	SubTotal      float64 `bson:"subTotal" json:"subTotal"`
	Tax           float64 `bson:"tax" json:"tax"`
	ShippingFee   float64 `bson:"shippingFee" json:"shippingFee"`
	Total         float64 `bson:"total" json:"total"`

	DeliveryType  DeliveryType `bson:"deliveryType" json:"deliveryType"`
	State         OrderState   `bson:"state" json:"state"`
	PaidAt        *time.Time   `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	TransactionID string       `bson:"transactionId,omitempty" json:"transactionId,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Slugs lists the product slugs referenced by the order, used for cache invalidation.
func (o *Order) Slugs() []string {
	slugs := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		slugs = append(slugs, item.Slug)
	}
	return slugs
}
