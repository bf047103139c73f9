package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	DefaultAvatar = "https://www.w3schools.com/howto/img_avatar.png"
)

type User struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"_id,omitempty"`
	Username   string              `bson:"username" json:"username"`
	Email      string              `bson:"email" json:"email"`
	Password   string              `bson:"password,omitempty" json:"-"`
	Phone      string              `bson:"phone" json:"phone"`
	Address    string              `bson:"address" json:"address"`
	Avatar     string              `bson:"avatar" json:"avatar"`
	Role       string              `bson:"role" json:"role"`
	Favourites *primitive.ObjectID `bson:"favourites,omitempty" json:"favourites,omitempty"`
	Cart       *primitive.ObjectID `bson:"cart,omitempty" json:"cart,omitempty"`
	Order      *primitive.ObjectID `bson:"order,omitempty" json:"order,omitempty"`
	CreatedAt  time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time           `bson:"updatedAt" json:"updatedAt"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
}

type SignInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
