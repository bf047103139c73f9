package db

import (
	"context"
	"time"

	"github.com/arzan03/medistore/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type OrderRepository struct {
	collection *mongo.Collection
}

func NewOrderRepository(database *mongo.Database) *OrderRepository {
	return &OrderRepository{collection: database.Collection(ordersCollection)}
}

// CreateMany assigns missing ids and timestamps and inserts the orders in one
// batch. On failure some of the orders may already be stored.
func (r *OrderRepository) CreateMany(ctx context.Context, orders []models.Order) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	now := time.Now().UTC()
	docs := make([]interface{}, len(orders))
	for i := range orders {
		if orders[i].ID.IsZero() {
			orders[i].ID = primitive.NewObjectID()
		}
		orders[i].CreatedAt, orders[i].UpdatedAt = now, now
		docs[i] = orders[i]
	}

	_, err := r.collection.InsertMany(ctx, docs)
	return translate(err)
}

// DeleteMany removes the orders with the given ids. Ids that were never
// stored are ignored.
func (r *OrderRepository) DeleteMany(ctx context.Context, ids []primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return err
}

// ListByUser returns the user's orders newest first with the medicine joined.
func (r *OrderRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.OrderView, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user": userID}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
	}
	pipeline = append(pipeline, lookupOne(medicinesCollection, "medicine", nil)...)
	pipeline = append(pipeline, bson.D{{Key: "$unset", Value: "user"}})
	return r.aggregate(ctx, pipeline)
}

// ListAll returns every order newest first with medicine and user joined.
func (r *OrderRepository) ListAll(ctx context.Context) ([]models.OrderView, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
	}
	pipeline = append(pipeline, lookupOne(medicinesCollection, "medicine", nil)...)
	pipeline = append(pipeline, lookupOne(usersCollection, "user", bson.M{"password": 0})...)
	return r.aggregate(ctx, pipeline)
}

// UpdateStatus sets the status without checking that the order exists. It
// reports whether a document was modified.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (r *OrderRepository) aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]models.OrderView, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	orders := []models.OrderView{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// lookupOne replaces the reference in field with the referenced document,
// or null when it no longer exists.
func lookupOne(from, field string, projection bson.M) []bson.D {
	lookup := bson.M{
		"from":         from,
		"localField":   field,
		"foreignField": "_id",
		"as":           field,
	}
	if projection != nil {
		lookup = bson.M{
			"from":     from,
			"let":      bson.M{"ref": "$" + field},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$eq": bson.A{"$_id", "$$ref"}}}},
				bson.M{"$project": projection},
			},
			"as": field,
		}
	}
	return []bson.D{
		{{Key: "$lookup", Value: lookup}},
		{{Key: "$set", Value: bson.M{field: bson.M{"$arrayElemAt": bson.A{"$" + field, 0}}}}},
	}
}
