package repository

import (
	"context"
	"errors"
	"fmt"
	taskserrors "hotelops/internal/tasks/errors"
	"hotelops/pkg/config"
	mongotx "hotelops/pkg/db/mongo"
	"hotelops/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Tasks"
)

type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	// CreateMany inserts every task or none. Call it inside a transaction.
	CreateMany(ctx context.Context, tasks []*model.Task) error
	FindByID(ctx context.Context, id string) (*model.Task, error)
	Update(ctx context.Context, id string, task *model.Task) error
	UpdateStatus(ctx context.Context, id string, status model.TaskStatus, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
	FindByRoom(ctx context.Context, roomID string) ([]*model.Task, error)
	FindByRooms(ctx context.Context, roomIDs []string, limit int, offset int64) ([]*model.Task, error)
	CountByRooms(ctx context.Context, roomIDs []string) (int64, error)
	FindByDay(ctx context.Context, day time.Time, limit int, offset int64) ([]*model.Task, error)
	// CountByDay counts tasks of every status scheduled on day, leaving out
	// excludeID when it is set.
	CountByDay(ctx context.Context, day time.Time, excludeID string) (int64, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoTaskRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoTaskRepository(cfg *config.Config) TaskRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoTaskRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %s", taskserrors.ErrInvalidID, id)
	}
	return oid, nil
}

func (r *mongoTaskRepository) Create(ctx context.Context, task *model.Task) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		task.ID = oid.Hex()
	}
	return nil
}

func (r *mongoTaskRepository) CreateMany(ctx context.Context, tasks []*model.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	docs := make([]any, len(tasks))
	for i, task := range tasks {
		docs[i] = task
	}

	result, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
	if err != nil {
		return fmt.Errorf("failed to create %d tasks: %w", len(tasks), err)
	}

	for i, id := range result.InsertedIDs {
		if oid, ok := id.(primitive.ObjectID); ok && i < len(tasks) {
			tasks[i].ID = oid.Hex()
		}
	}
	return nil
}

func (r *mongoTaskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var task model.Task
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&task)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, taskserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	return &task, nil
}

func (r *mongoTaskRepository) Update(ctx context.Context, id string, task *model.Task) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return err
	}

	update := bson.M{
		"$set": bson.M{
			"room_id":          task.RoomID,
			"description":      task.Description,
			"scheduled_at":     task.ScheduledAt,
			"scheduled_day":    task.ScheduledDay,
			"duration_minutes": task.DurationMinutes,
			"assigned_to":      task.AssignedTo,
			"remarks":          task.Remarks,
			"status":           task.Status,
			"updated_at":       task.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	if result.MatchedCount == 0 {
		return taskserrors.ErrNotFound
	}

	return nil
}

func (r *mongoTaskRepository) UpdateStatus(ctx context.Context, id string, status model.TaskStatus, updatedAt time.Time) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return err
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"status": status, "updated_at": updatedAt}},
	)
	if err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
	}

	if result.MatchedCount == 0 {
		return taskserrors.ErrNotFound
	}

	return nil
}

func (r *mongoTaskRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return err
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	if result.DeletedCount == 0 {
		return taskserrors.ErrNotFound
	}

	return nil
}

func (r *mongoTaskRepository) FindByRoom(ctx context.Context, roomID string) ([]*model.Task, error) {
	return r.find(ctx, bson.M{"room_id": roomID}, options.Find().SetSort(bson.D{{Key: "scheduled_at", Value: 1}}))
}

func (r *mongoTaskRepository) FindByRooms(ctx context.Context, roomIDs []string, limit int, offset int64) ([]*model.Task, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "scheduled_at", Value: 1}, {Key: "room_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)
	return r.find(ctx, bson.M{"room_id": bson.M{"$in": roomIDs}}, opts)
}

func (r *mongoTaskRepository) CountByRooms(ctx context.Context, roomIDs []string) (int64, error) {
	return r.count(ctx, bson.M{"room_id": bson.M{"$in": roomIDs}})
}

func (r *mongoTaskRepository) FindByDay(ctx context.Context, day time.Time, limit int, offset int64) ([]*model.Task, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "scheduled_at", Value: 1}, {Key: "room_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)
	return r.find(ctx, bson.M{"scheduled_day": day}, opts)
}

func (r *mongoTaskRepository) CountByDay(ctx context.Context, day time.Time, excludeID string) (int64, error) {
	filter := bson.M{"scheduled_day": day}
	if excludeID != "" {
		oid, err := objectID(excludeID)
		if err != nil {
			return 0, err
		}
		filter["_id"] = bson.M{"$ne": oid}
	}
	return r.count(ctx, filter)
}

func (r *mongoTaskRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Task, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find tasks: %w", err)
	}
	defer cursor.Close(ctx)

	tasks := []*model.Task{}
	if err = cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}

	return tasks, nil
}

func (r *mongoTaskRepository) count(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return count, nil
}

func (r *mongoTaskRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
