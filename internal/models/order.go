package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	StatusOrderPlaced OrderStatus = "order placed"
	StatusShipped     OrderStatus = "shipped"
	StatusDelivered   OrderStatus = "delivered"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusOrderPlaced, StatusShipped, StatusDelivered:
		return true
	}
	return false
}

type Order struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	Medicine  primitive.ObjectID `bson:"medicine" json:"medicine"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Status    OrderStatus        `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// OrderView is an order with its references resolved. User is only populated
// for the admin listing.
type OrderView struct {
	ID        primitive.ObjectID `bson:"_id" json:"_id"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Status    OrderStatus        `bson:"status" json:"status"`
	Medicine  *Medicine          `bson:"medicine,omitempty" json:"medicine"`
	User      *User              `bson:"user,omitempty" json:"user,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// OrderItem is one line of a place-order request. The id may arrive as
// "_id" or "productId".
type OrderItem struct {
	ID        string `json:"_id"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (i OrderItem) MedicineID() string {
	if i.ID != "" {
		return i.ID
	}
	return i.ProductID
}

type PlaceOrderRequest struct {
	Order []OrderItem `json:"order"`
}

// OrderPlacedEvent is published after a successful placement.
type OrderPlacedEvent struct {
	UserID   string      `json:"user_id"`
	OrderIDs []string    `json:"order_ids"`
	Items    []OrderItem `json:"items"`
	PlacedAt time.Time   `json:"placed_at"`
}

type OrderStatusEvent struct {
	OrderID   string      `json:"order_id"`
	Status    OrderStatus `json:"status"`
	UpdatedAt time.Time   `json:"updated_at"`
}
