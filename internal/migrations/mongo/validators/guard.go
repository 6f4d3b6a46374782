package validators

import "go.mongodb.org/mongo-driver/bson"

// GuardValidator covers the allocation guard documents keyed by
// "room:<id>" and "task-day:<yyyy-mm-dd>".
var GuardValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "version"},
		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
				"pattern":  `^(room|task-day):.+$`,
			},
			"version": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
			},
			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
