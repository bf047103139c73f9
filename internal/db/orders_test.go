package db

import (
	"context"
	"errors"
	"testing"

	"github.com/arzan03/medistore/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestOrderRepository_UpdateStatus(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("unknown order is not modified", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(updateResult(0, 0)...))

		modified, err := repo.UpdateStatus(context.Background(), primitive.NewObjectID(), models.StatusShipped)
		if err != nil {
			mt.Fatalf("UpdateStatus: %v", err)
		}
		if modified {
			mt.Error("unknown order reported as modified")
		}
	})

	mt.Run("existing order", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(updateResult(1, 1)...))

		modified, err := repo.UpdateStatus(context.Background(), primitive.NewObjectID(), models.StatusDelivered)
		if err != nil {
			mt.Fatalf("UpdateStatus: %v", err)
		}
		if !modified {
			mt.Error("order not reported as modified")
		}
		status := mt.GetStartedEvent().Command.Lookup("updates", "0", "u", "$set", "status").StringValue()
		if status != string(models.StatusDelivered) {
			mt.Errorf("status = %q", status)
		}
	})
}

func TestOrderRepository_CreateMany(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("keeps assigned ids", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}))

		id := primitive.NewObjectID()
		orders := []models.Order{{ID: id, Quantity: 1}, {Quantity: 2}}
		if err := repo.CreateMany(context.Background(), orders); err != nil {
			mt.Fatalf("CreateMany: %v", err)
		}
		if orders[0].ID != id || orders[1].ID.IsZero() {
			mt.Errorf("unexpected ids %v, %v", orders[0].ID, orders[1].ID)
		}
		if orders[0].CreatedAt.IsZero() {
			mt.Error("timestamps not set")
		}
	})

	mt.Run("duplicate key", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   1,
			Code:    11000,
			Message: "duplicate key error",
		}))

		err := repo.CreateMany(context.Background(), []models.Order{{Quantity: 1}, {Quantity: 1}})
		if !errors.Is(err, ErrDuplicate) {
			mt.Fatalf("got %v, want ErrDuplicate", err)
		}
	})
}

func TestOrderRepository_DeleteMany(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("deletes by id", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		ids := []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID()}
		if err := repo.DeleteMany(context.Background(), ids); err != nil {
			mt.Fatalf("DeleteMany: %v", err)
		}

		in, err := mt.GetStartedEvent().Command.LookupErr("deletes", "0", "q", "_id", "$in")
		if err != nil {
			mt.Fatalf("delete filter: %v", err)
		}
		values, err := in.Array().Values()
		if err != nil {
			mt.Fatal(err)
		}
		if len(values) != 2 || values[1].ObjectID() != ids[1] {
			mt.Errorf("$in = %v, want %v", values, ids)
		}
	})
}

func TestOrderRepository_ListAll(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("joins medicine and user without the password", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.DB)
		orderID, userID := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.orders", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: orderID},
			{Key: "quantity", Value: 2},
			{Key: "status", Value: string(models.StatusOrderPlaced)},
			{Key: "medicine", Value: bson.D{{Key: "product_name", Value: "Aspirin"}}},
			{Key: "user", Value: bson.D{{Key: "_id", Value: userID}, {Key: "username", Value: "alice"}}},
		}))

		orders, err := repo.ListAll(context.Background())
		if err != nil {
			mt.Fatalf("ListAll: %v", err)
		}
		if len(orders) != 1 || orders[0].Medicine == nil || orders[0].User == nil {
			mt.Fatalf("unexpected orders %+v", orders)
		}
		if orders[0].User.Username != "alice" {
			mt.Errorf("user = %+v", orders[0].User)
		}

		// stages: sort, medicine lookup, medicine unwrap, user lookup, user unwrap
		if got := lookupInt(mt, "pipeline", "3", "$lookup", "pipeline", "1", "$project", "password"); got != 0 {
			mt.Errorf("password projection = %d, want 0", got)
		}
		if got := lookupInt(mt, "pipeline", "0", "$sort", "createdAt"); got != -1 {
			mt.Errorf("sort createdAt = %d, want -1", got)
		}
	})
}

func TestOrderRepository_ListByUser(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("filters by user", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.DB)
		userID := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.orders", mtest.FirstBatch))

		orders, err := repo.ListByUser(context.Background(), userID)
		if err != nil {
			mt.Fatalf("ListByUser: %v", err)
		}
		if orders == nil || len(orders) != 0 {
			mt.Errorf("orders = %v, want empty slice", orders)
		}
		got := mt.GetStartedEvent().Command.Lookup("pipeline", "0", "$match", "user").ObjectID()
		if got != userID {
			mt.Errorf("match user = %v, want %v", got, userID)
		}
	})
}
