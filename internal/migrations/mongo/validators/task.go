package validators

import "go.mongodb.org/mongo-driver/bson"

var TaskValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"room_id",
			"description",
			"scheduled_at",
			"scheduled_day",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},
			"room_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},
			"description": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 1000,
			},
			"scheduled_at": bson.M{
				"bsonType": "date",
			},
			"scheduled_day": bson.M{
				"bsonType": "date",
			},
			"duration_minutes": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},
			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"PENDING",
					"IN_PROGRESS",
					"DONE",
					"CANCELLED",
				},
			},
			"batch_id": bson.M{
				"bsonType": "string",
			},
			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
