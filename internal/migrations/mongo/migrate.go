package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"hotelops/internal/migrations/mongo/validators"
	reservationsrepo "hotelops/internal/reservations/repository"
	roomsrepo "hotelops/internal/rooms/repository"
	tasksrepo "hotelops/internal/tasks/repository"
	mongotx "hotelops/pkg/db/mongo"
	"hotelops/pkg/logger"
)

// GuardTTL bounds how long an idle guard document is kept. Task-day guards
// accumulate one document per scheduled day.
const GuardTTL = 30 * 24 * time.Hour

type collectionDef struct {
	Indexes   []mongo.IndexModel
	Validator bson.M
}

var (
	RoomsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "number", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	ReservationsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "room_id", Value: 1},
			{Key: "check_in_date", Value: 1},
			{Key: "check_out_date", Value: 1},
			{Key: "status", Value: 1},
		}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "check_in_date", Value: 1}}},
	}

	TasksIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "scheduled_day", Value: 1}}},
		{Keys: bson.D{{Key: "room_id", Value: 1}, {Key: "scheduled_at", Value: 1}}},
		{Keys: bson.D{{Key: "batch_id", Value: 1}}, Options: options.Index().SetSparse(true)},
	}

	GuardIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(GuardTTL / time.Second)),
		},
	}
)

func Collections() map[string]collectionDef {
	return map[string]collectionDef{
		roomsrepo.CollectionName: {
			Indexes:   RoomsIndexes,
			Validator: validators.RoomValidator,
		},
		reservationsrepo.CollectionName: {
			Indexes:   ReservationsIndexes,
			Validator: validators.ReservationValidator,
		},
		tasksrepo.CollectionName: {
			Indexes:   TasksIndexes,
			Validator: validators.TaskValidator,
		},
		mongotx.GuardCollectionName: {
			Indexes:   GuardIndexes,
			Validator: validators.GuardValidator,
		},
	}
}

func RunMigration(ctx context.Context, client *mongo.Client, dbName string, log *logger.Logger) error {
	db := client.Database(dbName)
	log.Info("Running Mongo migrations", "database", dbName)

	for name, def := range Collections() {
		if err := ensureCollection(ctx, db, name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	log.Info("All migrations applied successfully", "database", dbName)
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection already exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if len(models) == 0 {
		return nil
	}
	if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}
