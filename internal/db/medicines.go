package db

import (
	"context"
	"time"

	"github.com/arzan03/medistore/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MedicineRepository struct {
	collection *mongo.Collection
}

func NewMedicineRepository(database *mongo.Database) *MedicineRepository {
	return &MedicineRepository{collection: database.Collection(medicinesCollection)}
}

func (r *MedicineRepository) List(ctx context.Context) ([]models.Medicine, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	medicines := []models.Medicine{}
	if err := cursor.All(ctx, &medicines); err != nil {
		return nil, err
	}
	return medicines, nil
}

func (r *MedicineRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Medicine, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var medicine models.Medicine
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&medicine); err != nil {
		return nil, translate(err)
	}
	return &medicine, nil
}

func (r *MedicineRepository) Create(ctx context.Context, medicine *models.Medicine) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	now := time.Now().UTC()
	if medicine.ID.IsZero() {
		medicine.ID = primitive.NewObjectID()
	}
	medicine.CreatedAt, medicine.UpdatedAt = now, now

	_, err := r.collection.InsertOne(ctx, medicine)
	return translate(err)
}

// Update overwrites the editable fields and returns the stored document.
// An empty image URL leaves the current one in place.
func (r *MedicineRepository) Update(ctx context.Context, id primitive.ObjectID, medicine *models.Medicine) (*models.Medicine, error) {
	set := bson.M{
		"product_name": medicine.ProductName,
		"description":  medicine.Description,
		"price":        medicine.Price,
		"stock":        medicine.Stock,
	}
	if medicine.ImageURL != "" {
		set["image_url"] = medicine.ImageURL
	}
	return r.findAndSet(ctx, id, set)
}

func (r *MedicineRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStock sets an absolute stock value, filling in a missing description.
func (r *MedicineRepository) SetStock(ctx context.Context, id primitive.ObjectID, stock int) (*models.Medicine, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	// Pipeline update so the description fallback is evaluated server side.
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"stock":       stock,
			"description": descriptionFallback(),
			"updatedAt":   "$$NOW",
		}}},
	}

	var medicine models.Medicine
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&medicine)
	if err != nil {
		return nil, translate(err)
	}
	return &medicine, nil
}

// ResetAllStock sets every medicine's stock and fills missing descriptions.
func (r *MedicineRepository) ResetAllStock(ctx context.Context, stock int) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"stock":       stock,
			"description": descriptionFallback(),
			"updatedAt":   "$$NOW",
		}}},
	}
	res, err := r.collection.UpdateMany(ctx, bson.M{}, update)
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

// ReserveStock decrements stock by qty only if at least qty is available.
// It reports false when the guard did not match.
func (r *MedicineRepository) ReserveStock(ctx context.Context, id primitive.ObjectID, qty int) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "stock": bson.M{"$gte": qty}},
		bson.M{
			"$inc":         bson.M{"stock": -qty},
			"$currentDate": bson.M{"updatedAt": true},
		},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// ReleaseStock gives back stock taken by ReserveStock.
func (r *MedicineRepository) ReleaseStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc":         bson.M{"stock": qty},
			"$currentDate": bson.M{"updatedAt": true},
		},
	)
	return err
}

func (r *MedicineRepository) SetImageURL(ctx context.Context, id primitive.ObjectID, url string) (*models.Medicine, error) {
	return r.findAndSet(ctx, id, bson.M{"image_url": url})
}

func (r *MedicineRepository) findAndSet(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Medicine, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	set["updatedAt"] = time.Now().UTC()

	var medicine models.Medicine
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&medicine)
	if err != nil {
		return nil, translate(err)
	}
	return &medicine, nil
}

func descriptionFallback() bson.M {
	return bson.M{"$cond": bson.A{
		bson.M{"$gt": bson.A{bson.M{"$strLenCP": bson.M{"$ifNull": bson.A{"$description", ""}}}, 0}},
		"$description",
		models.DefaultDescription,
	}}
}
