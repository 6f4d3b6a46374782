package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const GuardCollectionName = "Allocation_guards"

// Guard serializes allocations that share a key. Acquire must be called inside
// a transaction before the read that the allocation decision depends on: two
// transactions writing the same guard document conflict, so the later one is
// retried and re-reads the state the earlier one committed.
type Guard interface {
	Acquire(ctx context.Context, key string) error
}

type mongoGuard struct {
	collection *mongo.Collection
}

func NewGuard(db *mongo.Database) Guard {
	return &mongoGuard{
		collection: db.Collection(GuardCollectionName),
	}
}

func (g *mongoGuard) Acquire(ctx context.Context, key string) error {
	if !InTransaction(ctx) {
		return fmt.Errorf("guard %s acquired outside a transaction", key)
	}

	_, err := g.collection.UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{
			"$inc": bson.M{"version": 1},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to acquire guard %s: %w", key, err)
	}
	return nil
}
