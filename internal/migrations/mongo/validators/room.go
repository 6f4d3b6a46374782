package validators

import "go.mongodb.org/mongo-driver/bson"

var RoomValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"_id", "number", "status"},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},
			"number": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 20,
			},
			"type": bson.M{
				"bsonType": "string",
			},
			"capacity": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},
			"status": bson.M{
				"bsonType": "string",
			},
			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
