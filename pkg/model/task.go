package model

import "time"

type TaskStatus string

const (
	TaskPending    TaskStatus = "PENDING"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskDone       TaskStatus = "DONE"
	TaskCancelled  TaskStatus = "CANCELLED"
)

var TaskStatuses = []TaskStatus{
	TaskPending,
	TaskInProgress,
	TaskDone,
	TaskCancelled,
}

func (s TaskStatus) Valid() bool {
	for _, known := range TaskStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Task is a housekeeping or maintenance job for one room. ScheduledDay is the
// hotel-local calendar date of ScheduledAt, stored as midnight UTC, and is what
// the daily capacity counts on.
type Task struct {
	ID              string     `json:"id,omitempty" bson:"_id,omitempty"`
	RoomID          string     `json:"room_id" bson:"room_id"`
	Description     string     `json:"description" bson:"description"`
	ScheduledAt     time.Time  `json:"scheduled_at" bson:"scheduled_at"`
	ScheduledDay    time.Time  `json:"scheduled_day" bson:"scheduled_day"`
	DurationMinutes int        `json:"duration_minutes,omitempty" bson:"duration_minutes,omitempty"`
	AssignedTo      string     `json:"assigned_to,omitempty" bson:"assigned_to,omitempty"`
	Remarks         string     `json:"remarks,omitempty" bson:"remarks,omitempty"`
	Status          TaskStatus `json:"status" bson:"status"`
	BatchID         string     `json:"batch_id,omitempty" bson:"batch_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" bson:"updated_at"`
}

type TaskInput struct {
	RoomID          string     `json:"room_id" validate:"required,max=64"`
	Description     string     `json:"description" validate:"required,min=2,max=1000"`
	ScheduledAt     time.Time  `json:"scheduled_at" validate:"required"`
	DurationMinutes int        `json:"duration_minutes,omitempty" validate:"min=0,max=1440"`
	AssignedTo      string     `json:"assigned_to,omitempty" validate:"max=200"`
	Remarks         string     `json:"remarks,omitempty" validate:"max=2000"`
	Status          TaskStatus `json:"status,omitempty" validate:"omitempty,task_status"`
}

// TaskBatchInput creates the same task for several rooms on one day.
type TaskBatchInput struct {
	RoomIDs         []string  `json:"room_ids" validate:"required,min=1,max=1000,dive,required,max=64"`
	Description     string    `json:"description" validate:"required,min=2,max=1000"`
	ScheduledAt     time.Time `json:"scheduled_at" validate:"required"`
	DurationMinutes int       `json:"duration_minutes,omitempty" validate:"min=0,max=1440"`
	AssignedTo      string    `json:"assigned_to,omitempty" validate:"max=200"`
	Remarks         string    `json:"remarks,omitempty" validate:"max=2000"`
}

type TaskStatusChange struct {
	Status TaskStatus `json:"status" validate:"required,task_status"`
}
