package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DefaultDescription = "A high-quality medicine for your health needs."
	DefaultImageURL    = "https://via.placeholder.com/300x180"
	DefaultStock       = 100
)

type Medicine struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	ProductName string             `bson:"product_name" json:"product_name"`
	Description string             `bson:"description" json:"description"`
	Price       float64            `bson:"price" json:"price"`
	Stock       int                `bson:"stock" json:"stock"`
	ImageURL    string             `bson:"image_url" json:"image_url"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// MedicineInput is the create/update body. Stock is a pointer so an omitted
// value can be told apart from an explicit zero.
type MedicineInput struct {
	ProductName string  `json:"product_name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       *int    `json:"stock"`
	ImageURL    string  `json:"image_url"`
}
