package mongo

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	mongotx "hotelops/pkg/db/mongo"
)

func indexKeys(def collectionDef) [][]string {
	var out [][]string
	for _, idx := range def.Indexes {
		var keys []string
		for _, e := range idx.Keys.(bson.D) {
			keys = append(keys, e.Key)
		}
		out = append(out, keys)
	}
	return out
}

func hasIndex(def collectionDef, want ...string) bool {
	for _, keys := range indexKeys(def) {
		if len(keys) != len(want) {
			continue
		}
		match := true
		for i := range keys {
			if keys[i] != want[i] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func TestCollections_DefineValidators(t *testing.T) {
	for name, def := range Collections() {
		t.Run(name, func(t *testing.T) {
			if _, ok := def.Validator["$jsonSchema"]; !ok {
				t.Errorf("collection %s has no $jsonSchema validator", name)
			}
		})
	}
}

func TestCollections_AllocationIndexes(t *testing.T) {
	cols := Collections()

	tests := []struct {
		collection string
		keys       []string
	}{
		{"Reservations", []string{"room_id", "check_in_date", "check_out_date", "status"}},
		{"Tasks", []string{"scheduled_day"}},
		{"Tasks", []string{"room_id", "scheduled_at"}},
		{mongotx.GuardCollectionName, []string{"updated_at"}},
	}

	for _, tt := range tests {
		def, ok := cols[tt.collection]
		if !ok {
			t.Fatalf("collection %s missing", tt.collection)
		}
		if !hasIndex(def, tt.keys...) {
			t.Errorf("collection %s missing index on %v, got %v", tt.collection, tt.keys, indexKeys(def))
		}
	}
}

func TestGuardIndexes_ExpireIdleGuards(t *testing.T) {
	opts := GuardIndexes[0].Options
	if opts == nil || opts.ExpireAfterSeconds == nil {
		t.Fatal("guard index should carry a TTL")
	}
	if *opts.ExpireAfterSeconds <= 0 {
		t.Errorf("TTL must be positive, got %d", *opts.ExpireAfterSeconds)
	}
}
