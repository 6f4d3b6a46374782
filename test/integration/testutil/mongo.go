//go:build integration

package testutil

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	reservationsrepo "hotelops/internal/reservations/repository"
	roomsrepo "hotelops/internal/rooms/repository"
	tasksrepo "hotelops/internal/tasks/repository"
	mongotx "hotelops/pkg/db/mongo"
	"hotelops/pkg/model"
)

const (
	DefaultMongoURI     = "mongodb://localhost:27017/?replicaSet=rs0"
	DefaultDatabaseName = "hotelops_test"
	ConnectionTimeout   = 10 * time.Second
)

var allocationCollections = []string{
	roomsrepo.CollectionName,
	reservationsrepo.CollectionName,
	tasksrepo.CollectionName,
	mongotx.GuardCollectionName,
}

type MongoHelper struct {
	Client   *mongo.Client
	Database *mongo.Database
	DBName   string
}

func NewMongoHelper(t *testing.T, mongoURI, dbName string) *MongoHelper {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), ConnectionTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		t.Fatalf("failed to connect to MongoDB: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		t.Fatalf("failed to ping MongoDB: %v", err)
	}

	return &MongoHelper{
		Client:   client,
		Database: client.Database(dbName),
		DBName:   dbName,
	}
}

func (m *MongoHelper) Close(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.Client.Disconnect(ctx); err != nil {
		t.Logf("warning: failed to disconnect from MongoDB: %v", err)
	}
}

// CleanDatabase empties the allocation collections. Documents are deleted
// rather than collections dropped so migrated validators and indexes survive.
func (m *MongoHelper) CleanDatabase(t *testing.T) {
	t.Helper()
	for _, name := range allocationCollections {
		m.CleanCollection(t, name)
	}
}

func (m *MongoHelper) CleanCollection(t *testing.T, collectionName string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := m.Database.Collection(collectionName).DeleteMany(ctx, bson.M{}); err != nil {
		t.Fatalf("failed to clean collection %s: %v", collectionName, err)
	}
}

// SeedRooms inserts one available room per id, numbered after the id.
func (m *MongoHelper) SeedRooms(t *testing.T, roomIDs ...string) {
	t.Helper()
	if len(roomIDs) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	docs := make([]any, 0, len(roomIDs))
	for _, id := range roomIDs {
		docs = append(docs, model.Room{
			ID:        id,
			Number:    id,
			Type:      "double",
			Capacity:  2,
			Status:    "AVAILABLE",
			CreatedAt: time.Now().UTC(),
		})
	}
	if _, err := m.Database.Collection(roomsrepo.CollectionName).InsertMany(ctx, docs); err != nil {
		t.Fatalf("failed to seed rooms: %v", err)
	}
}

func (m *MongoHelper) CountDocuments(t *testing.T, collectionName string, filter bson.M) int64 {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if filter == nil {
		filter = bson.M{}
	}
	count, err := m.Database.Collection(collectionName).CountDocuments(ctx, filter)
	if err != nil {
		t.Fatalf("failed to count documents in %s: %v", collectionName, err)
	}
	return count
}
