package model

import "time"

// Room is owned by the room management collaborator. This module only reads
// rooms: to confirm a room exists and to count rooms for the task capacity.
type Room struct {
	ID        string    `json:"id" bson:"_id"`
	Number    string    `json:"number" bson:"number"`
	Type      string    `json:"type" bson:"type"`
	Capacity  int       `json:"capacity" bson:"capacity"`
	Status    string    `json:"status" bson:"status"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
