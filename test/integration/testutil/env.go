//go:build integration

package testutil

import (
	"os"
	"testing"
	"time"
)

const DefaultHealthCheckTimeout = 30 * time.Second

// TestEnv points at a running reservations service, a running tasks service
// and the Mongo replica set both use.
type TestEnv struct {
	MongoURI        string
	DatabaseName    string
	ReservationsURL string
	TasksURL        string
}

func NewTestEnv() *TestEnv {
	return &TestEnv{
		MongoURI:        getEnv("TEST_MONGO_URI", DefaultMongoURI),
		DatabaseName:    getEnv("TEST_DB_NAME", DefaultDatabaseName),
		ReservationsURL: getEnv("TEST_RESERVATIONS_URL", "http://localhost:8080"),
		TasksURL:        getEnv("TEST_TASKS_URL", "http://localhost:8081"),
	}
}

// Setup empties the allocation collections, seeds rooms and waits for baseURL
// to report healthy.
func (e *TestEnv) Setup(t *testing.T, baseURL string, roomIDs ...string) (*MongoHelper, *Client) {
	t.Helper()

	mongo := NewMongoHelper(t, e.MongoURI, e.DatabaseName)
	mongo.CleanDatabase(t)
	mongo.SeedRooms(t, roomIDs...)

	client := NewClient(baseURL)
	client.WaitForHealthy(t, DefaultHealthCheckTimeout)

	return mongo, client
}

func (e *TestEnv) Cleanup(t *testing.T, mongo *MongoHelper) {
	t.Helper()

	if mongo != nil {
		mongo.CleanDatabase(t)
		mongo.Close(t)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
