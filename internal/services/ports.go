package services

import (
	"context"
	"io"

	"github.com/arzan03/medistore/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

//go:generate mockgen -source=ports.go -destination=../mocks/mock_ports.go -package=mocks

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	ExistsByField(ctx context.Context, field, value string) (bool, error)
	SetAvatar(ctx context.Context, id primitive.ObjectID, url string) (*models.User, error)
}

type MedicineStore interface {
	List(ctx context.Context) ([]models.Medicine, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Medicine, error)
	Create(ctx context.Context, medicine *models.Medicine) error
	Update(ctx context.Context, id primitive.ObjectID, medicine *models.Medicine) (*models.Medicine, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	SetStock(ctx context.Context, id primitive.ObjectID, stock int) (*models.Medicine, error)
	ResetAllStock(ctx context.Context, stock int) (int64, error)
	ReserveStock(ctx context.Context, id primitive.ObjectID, qty int) (bool, error)
	ReleaseStock(ctx context.Context, id primitive.ObjectID, qty int) error
	SetImageURL(ctx context.Context, id primitive.ObjectID, url string) (*models.Medicine, error)
}

type OrderStore interface {
	CreateMany(ctx context.Context, orders []models.Order) error
	DeleteMany(ctx context.Context, ids []primitive.ObjectID) error
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.OrderView, error)
	ListAll(ctx context.Context) ([]models.OrderView, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (bool, error)
}

type ImageStore interface {
	Upload(ctx context.Context, prefix, filename string, r io.Reader, size int64, contentType string) (string, error)
}

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value interface{}) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// Upload is a file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}
