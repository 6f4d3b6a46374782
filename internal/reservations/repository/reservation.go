package repository

import (
	"context"
	"errors"
	"fmt"
	reservationserrors "hotelops/internal/reservations/errors"
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
	CollectionName = "Reservations"
)

type ReservationRepository interface {
	Create(ctx context.Context, reservation *model.Reservation) error
	FindByID(ctx context.Context, id string) (*model.Reservation, error)
	Update(ctx context.Context, id string, reservation *model.Reservation) error
	UpdateStatus(ctx context.Context, id string, status model.ReservationStatus, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
	FindByRoom(ctx context.Context, roomID string) ([]*model.Reservation, error)
	// FindOverlapping returns the active reservations of roomID whose dates
	// share at least one day with [checkIn, checkOut].
	FindOverlapping(ctx context.Context, roomID string, checkIn, checkOut time.Time) ([]*model.Reservation, error)
	FindByStatus(ctx context.Context, status model.ReservationStatus, limit int, offset int64) ([]*model.Reservation, error)
	CountByStatus(ctx context.Context, status model.ReservationStatus) (int64, error)
	FindInPeriod(ctx context.Context, from, to time.Time, limit int, offset int64) ([]*model.Reservation, error)
	CountInPeriod(ctx context.Context, from, to time.Time) (int64, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoReservationRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoReservationRepository(cfg *config.Config) ReservationRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoReservationRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %s", reservationserrors.ErrInvalidID, id)
	}
	return oid, nil
}

func (r *mongoReservationRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, reservation)
	if err != nil {
		return fmt.Errorf("failed to create reservation: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		reservation.ID = oid.Hex()
	}
	return nil
}

func (r *mongoReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var reservation model.Reservation
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&reservation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, reservationserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find reservation: %w", err)
	}

	return &reservation, nil
}

func (r *mongoReservationRepository) Update(ctx context.Context, id string, reservation *model.Reservation) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return err
	}

	update := bson.M{
		"$set": bson.M{
			"room_id":          reservation.RoomID,
			"check_in_date":    reservation.CheckInDate,
			"check_out_date":   reservation.CheckOutDate,
			"guest_name":       reservation.GuestName,
			"guest_email":      reservation.GuestEmail,
			"guest_phone":      reservation.GuestPhone,
			"number_of_guests": reservation.NumberOfGuests,
			"price":            reservation.Price,
			"status":           reservation.Status,
			"notes":            reservation.Notes,
			"updated_at":       reservation.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to update reservation: %w", err)
	}

	if result.MatchedCount == 0 {
		return reservationserrors.ErrNotFound
	}

	return nil
}

func (r *mongoReservationRepository) UpdateStatus(ctx context.Context, id string, status model.ReservationStatus, updatedAt time.Time) error {
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
		return fmt.Errorf("failed to update reservation status: %w", err)
	}

	if result.MatchedCount == 0 {
		return reservationserrors.ErrNotFound
	}

	return nil
}

func (r *mongoReservationRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return err
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete reservation: %w", err)
	}

	if result.DeletedCount == 0 {
		return reservationserrors.ErrNotFound
	}

	return nil
}

func (r *mongoReservationRepository) FindByRoom(ctx context.Context, roomID string) ([]*model.Reservation, error) {
	return r.find(ctx, bson.M{"room_id": roomID}, options.Find().SetSort(bson.D{{Key: "check_in_date", Value: 1}}))
}

func (r *mongoReservationRepository) FindOverlapping(ctx context.Context, roomID string, checkIn, checkOut time.Time) ([]*model.Reservation, error) {
	return r.find(ctx, overlapFilter(roomID, checkIn, checkOut), options.Find())
}

// overlapFilter mirrors calendar.Overlaps: existing.start <= checkOut and
// existing.end >= checkIn, limited to statuses that claim their dates.
func overlapFilter(roomID string, checkIn, checkOut time.Time) bson.M {
	return bson.M{
		"room_id":        roomID,
		"status":         bson.M{"$nin": model.InactiveReservationStatuses()},
		"check_in_date":  bson.M{"$lte": checkOut},
		"check_out_date": bson.M{"$gte": checkIn},
	}
}

func (r *mongoReservationRepository) FindByStatus(ctx context.Context, status model.ReservationStatus, limit int, offset int64) ([]*model.Reservation, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "check_in_date", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)
	return r.find(ctx, bson.M{"status": status}, opts)
}

func (r *mongoReservationRepository) CountByStatus(ctx context.Context, status model.ReservationStatus) (int64, error) {
	return r.count(ctx, bson.M{"status": status})
}

func periodFilter(from, to time.Time) bson.M {
	return bson.M{
		"check_in_date":  bson.M{"$lte": to},
		"check_out_date": bson.M{"$gte": from},
	}
}

func (r *mongoReservationRepository) FindInPeriod(ctx context.Context, from, to time.Time, limit int, offset int64) ([]*model.Reservation, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "check_in_date", Value: 1}, {Key: "room_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)
	return r.find(ctx, periodFilter(from, to), opts)
}

func (r *mongoReservationRepository) CountInPeriod(ctx context.Context, from, to time.Time) (int64, error) {
	return r.count(ctx, periodFilter(from, to))
}

func (r *mongoReservationRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Reservation, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find reservations: %w", err)
	}
	defer cursor.Close(ctx)

	reservations := []*model.Reservation{}
	if err = cursor.All(ctx, &reservations); err != nil {
		return nil, fmt.Errorf("failed to decode reservations: %w", err)
	}

	return reservations, nil
}

func (r *mongoReservationRepository) count(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count reservations: %w", err)
	}
	return count, nil
}

func (r *mongoReservationRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
