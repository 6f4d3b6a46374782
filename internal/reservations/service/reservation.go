package service

import (
	"context"
	"errors"
	"hotelops/internal/calendar"
	"hotelops/internal/events"
	reservationserrors "hotelops/internal/reservations/errors"
	"hotelops/internal/reservations/repository"
	"hotelops/internal/reservations/validator"
	"hotelops/internal/roomcache"
	roomserrors "hotelops/internal/rooms/errors"
	roomsrepository "hotelops/internal/rooms/repository"
	"hotelops/pkg/config"
	mongotx "hotelops/pkg/db/mongo"
	apperrors "hotelops/pkg/errors"
	"hotelops/pkg/model"
	"hotelops/pkg/sanitizer"
	"hotelops/pkg/validation"
	"strings"
	"sync"
	"time"
)

type ReservationService interface {
	Create(ctx context.Context, input *model.ReservationInput) (*model.Reservation, error)
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	Update(ctx context.Context, id string, input *model.ReservationInput) (*model.Reservation, error)
	ChangeStatus(ctx context.Context, id string, status model.ReservationStatus) (*model.Reservation, error)
	Delete(ctx context.Context, id string) error
	IsRoomAvailable(ctx context.Context, roomID string, checkIn, checkOut time.Time, excludeID string) bool
	ListByRoom(ctx context.Context, roomID string) ([]*model.Reservation, error)
	ListByStatus(ctx context.Context, status model.ReservationStatus, limit int, offset int64) ([]*model.Reservation, int64, error)
	ListInPeriod(ctx context.Context, from, to time.Time, limit int, offset int64) ([]*model.Reservation, int64, error)
}

// RoomCache holds each room's reservations, ordered by check-in.
type RoomCache = roomcache.Cache[[]*model.Reservation]

type reservationService struct {
	repo         repository.ReservationRepository
	rooms        roomsrepository.RoomRepository
	guard        mongotx.Guard
	availability *AvailabilityChecker
	policy       StatusPolicy
	validator    *validator.ReservationValidator
	cache        *RoomCache
	publisher    events.Publisher
	cfg          *config.Config
	now          func() time.Time
}

func NewReservationService(
	repo repository.ReservationRepository,
	rooms roomsrepository.RoomRepository,
	guard mongotx.Guard,
	validator *validator.ReservationValidator,
	cache *RoomCache,
	publisher events.Publisher,
	cfg *config.Config,
) ReservationService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &reservationService{
		repo:         repo,
		rooms:        rooms,
		guard:        guard,
		availability: NewAvailabilityChecker(repo),
		policy:       StatusPolicy{AllowReinstate: cfg.ReservationAllowReinstate},
		validator:    validator,
		cache:        cache,
		publisher:    publisher,
		cfg:          cfg,
		now:          time.Now,
	}
}

// RoomGuardKey names the guard document serializing allocations of one room.
func RoomGuardKey(roomID string) string {
	return "room:" + roomID
}

func (s *reservationService) Create(ctx context.Context, input *model.ReservationInput) (*model.Reservation, error) {
	s.sanitize(input)
	checkIn, checkOut, err := s.validate(input)
	if err != nil {
		return nil, err
	}

	today := calendar.Day(s.now(), s.cfg.Location())
	if checkIn.Before(today) {
		s.cfg.Log.Warn("Reservation rejected: check-in in the past",
			"room_id", input.RoomID,
			"check_in_date", input.CheckInDate,
			"today", calendar.FormatDate(today),
		)
		return nil, apperrors.Validation("Check-in date cannot be in the past", map[string]any{
			"check_in_date": input.CheckInDate,
			"today":         calendar.FormatDate(today),
		}).WithCause(reservationserrors.ErrPastCheckIn)
	}

	status := input.Status
	if status == "" {
		status = model.ReservationPending
	}
	if status != model.ReservationPending && status != model.ReservationConfirmed {
		return nil, apperrors.Validation("A new reservation must be PENDING or CONFIRMED", map[string]any{
			"status": status,
		}).WithCause(reservationserrors.ErrIllegalTransition)
	}

	now := s.now().UTC()
	reservation := &model.Reservation{
		RoomID:         input.RoomID,
		CheckInDate:    checkIn,
		CheckOutDate:   checkOut,
		GuestName:      input.GuestName,
		GuestEmail:     input.GuestEmail,
		GuestPhone:     input.GuestPhone,
		NumberOfGuests: input.NumberOfGuests,
		Price:          input.Price,
		Status:         status,
		Notes:          input.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		// Retries start from a clean document.
		reservation.ID = ""
		if err := s.claimRoom(txCtx, reservation.RoomID); err != nil {
			return err
		}
		if err := s.ensureAvailable(txCtx, reservation, ""); err != nil {
			return err
		}
		return s.repo.Create(txCtx, reservation)
	})
	if err != nil {
		return nil, s.fail(err, "Failed to create reservation", "room_id", reservation.RoomID)
	}

	s.committed(ctx, events.ReservationCreated, reservation, reservation.RoomID)
	s.cfg.Log.Info("Reservation created successfully",
		"id", reservation.ID,
		"room_id", reservation.RoomID,
		"check_in_date", calendar.FormatDate(reservation.CheckInDate),
		"check_out_date", calendar.FormatDate(reservation.CheckOutDate),
		"status", reservation.Status,
	)
	return reservation, nil
}

func (s *reservationService) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.fail(lookupError(err, id), "Failed to retrieve reservation", "id", id)
	}
	return reservation, nil
}

func (s *reservationService) Update(ctx context.Context, id string, input *model.ReservationInput) (*model.Reservation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}
	s.sanitize(input)
	checkIn, checkOut, err := s.validate(input)
	if err != nil {
		return nil, err
	}

	var updated *model.Reservation
	var previousRoomID string
	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return lookupError(err, id)
		}
		previousRoomID = existing.RoomID

		status := input.Status
		if status == "" {
			status = existing.Status
		}
		if !s.policy.CanTransition(existing.Status, status) {
			return s.illegalTransition(existing, status)
		}

		merged := *existing
		merged.RoomID = input.RoomID
		merged.CheckInDate = checkIn
		merged.CheckOutDate = checkOut
		merged.GuestName = input.GuestName
		merged.GuestEmail = input.GuestEmail
		merged.GuestPhone = input.GuestPhone
		merged.NumberOfGuests = input.NumberOfGuests
		merged.Price = input.Price
		merged.Status = status
		merged.Notes = input.Notes
		merged.UpdatedAt = s.now().UTC()

		roomChanged := merged.RoomID != existing.RoomID
		datesChanged := !merged.CheckInDate.Equal(existing.CheckInDate) || !merged.CheckOutDate.Equal(existing.CheckOutDate)

		if roomChanged || (merged.IsActive() && (datesChanged || Reactivates(existing.Status, status))) {
			if err := s.claimRoom(txCtx, merged.RoomID); err != nil {
				return err
			}
			if roomChanged {
				// Serializes with allocations reading the room being left.
				if err := s.guard.Acquire(txCtx, RoomGuardKey(existing.RoomID)); err != nil {
					return err
				}
			}
			if merged.IsActive() {
				if err := s.ensureAvailable(txCtx, &merged, id); err != nil {
					return err
				}
			}
		}

		if err := s.repo.Update(txCtx, id, &merged); err != nil {
			return lookupError(err, id)
		}
		updated = &merged
		return nil
	})
	if err != nil {
		return nil, s.fail(err, "Failed to update reservation", "id", id)
	}

	s.committed(ctx, events.ReservationUpdated, updated, updated.RoomID, previousRoomID)
	s.cfg.Log.Info("Reservation updated successfully",
		"id", id,
		"room_id", updated.RoomID,
		"check_in_date", calendar.FormatDate(updated.CheckInDate),
		"check_out_date", calendar.FormatDate(updated.CheckOutDate),
		"status", updated.Status,
	)
	return updated, nil
}

func (s *reservationService) ChangeStatus(ctx context.Context, id string, status model.ReservationStatus) (*model.Reservation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}
	if err := s.validator.ValidateStatusChange(&model.ReservationStatusChange{Status: status}); err != nil {
		return nil, s.validationFailed(err)
	}

	var result *model.Reservation
	changed := false
	err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return lookupError(err, id)
		}
		if existing.Status == status {
			result, changed = existing, false
			return nil
		}
		if !s.policy.CanTransition(existing.Status, status) {
			return s.illegalTransition(existing, status)
		}

		next := *existing
		next.Status = status
		next.UpdatedAt = s.now().UTC()

		if Reactivates(existing.Status, status) {
			if err := s.claimRoom(txCtx, next.RoomID); err != nil {
				return err
			}
			if err := s.ensureAvailable(txCtx, &next, id); err != nil {
				return err
			}
		}

		if err := s.repo.UpdateStatus(txCtx, id, status, next.UpdatedAt); err != nil {
			return lookupError(err, id)
		}
		result, changed = &next, true
		return nil
	})
	if err != nil {
		return nil, s.fail(err, "Failed to change reservation status", "id", id, "status", status)
	}

	if changed {
		s.committed(ctx, events.ReservationStatusChanged, result, result.RoomID)
		s.cfg.Log.Info("Reservation status changed successfully",
			"id", id,
			"room_id", result.RoomID,
			"status", result.Status,
		)
	}
	return result, nil
}

func (s *reservationService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	var deleted *model.Reservation
	err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return lookupError(err, id)
		}
		if err := s.repo.Delete(txCtx, id); err != nil {
			return lookupError(err, id)
		}
		deleted = existing
		return nil
	})
	if err != nil {
		return s.fail(err, "Failed to delete reservation", "id", id)
	}

	s.committed(ctx, events.ReservationDeleted, deleted, deleted.RoomID)
	s.cfg.Log.Info("Reservation deleted successfully", "id", id, "room_id", deleted.RoomID)
	return nil
}

// IsRoomAvailable never returns an error. An inverted range or a failed read
// is logged and reported as unavailable.
func (s *reservationService) IsRoomAvailable(ctx context.Context, roomID string, checkIn, checkOut time.Time, excludeID string) bool {
	available, err := s.availability.IsAvailable(ctx, roomID, checkIn, checkOut, excludeID)
	if err != nil {
		if errors.Is(err, reservationserrors.ErrInvalidDateRange) {
			s.cfg.Log.Warn("Availability requested for an inverted range",
				"room_id", roomID,
				"check_in_date", calendar.FormatDate(checkIn),
				"check_out_date", calendar.FormatDate(checkOut),
			)
		} else {
			s.cfg.Log.Error("Failed to check room availability", "room_id", roomID, "error", err)
		}
		return false
	}
	return available
}

func (s *reservationService) ListByRoom(ctx context.Context, roomID string) ([]*model.Reservation, error) {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return nil, apperrors.InvalidInput("Room ID cannot be empty")
	}

	reservations, err := s.cache.Get(ctx, roomID, s.repo.FindByRoom)
	if err != nil {
		s.cfg.Log.Error("Failed to list reservations by room", "room_id", roomID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve reservations", err)
	}
	return copyReservations(reservations), nil
}

// copyReservations copies each element so callers can modify the result
// without touching the values held by the room cache.
func copyReservations(list []*model.Reservation) []*model.Reservation {
	out := make([]*model.Reservation, len(list))
	for i, r := range list {
		c := *r
		out[i] = &c
	}
	return out
}

func (s *reservationService) ListByStatus(ctx context.Context, status model.ReservationStatus, limit int, offset int64) ([]*model.Reservation, int64, error) {
	if !status.Valid() {
		return nil, 0, apperrors.Validation("Invalid reservation status", map[string]any{"status": status})
	}
	return s.list(ctx,
		func(ctx context.Context) (int64, error) { return s.repo.CountByStatus(ctx, status) },
		func(ctx context.Context) ([]*model.Reservation, error) {
			return s.repo.FindByStatus(ctx, status, limit, offset)
		},
	)
}

func (s *reservationService) ListInPeriod(ctx context.Context, from, to time.Time, limit int, offset int64) ([]*model.Reservation, int64, error) {
	period, err := calendar.NewRange(from, to)
	if err != nil {
		return nil, 0, apperrors.Validation("Period start must not be after period end", map[string]any{
			"from": calendar.FormatDate(from),
			"to":   calendar.FormatDate(to),
		}).WithCause(reservationserrors.ErrInvalidDateRange)
	}
	return s.list(ctx,
		func(ctx context.Context) (int64, error) { return s.repo.CountInPeriod(ctx, period.Start, period.End) },
		func(ctx context.Context) ([]*model.Reservation, error) {
			return s.repo.FindInPeriod(ctx, period.Start, period.End, limit, offset)
		},
	)
}

func (s *reservationService) list(
	ctx context.Context,
	countFn func(context.Context) (int64, error),
	findFn func(context.Context) ([]*model.Reservation, error),
) ([]*model.Reservation, int64, error) {
	var count int64
	var reservations []*model.Reservation
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = countFn(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count reservations", "error", errCount)
			errCount = apperrors.Internal("Failed to count reservations", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		reservations, errFind = findFn(ctx)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list reservations", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve reservations", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return reservations, count, nil
}

func (s *reservationService) sanitize(input *model.ReservationInput) {
	input.RoomID = sanitizer.TrimAndNormalize(input.RoomID)
	input.CheckInDate = strings.TrimSpace(input.CheckInDate)
	input.CheckOutDate = strings.TrimSpace(input.CheckOutDate)
	input.GuestName = sanitizer.NormalizeGuestName(input.GuestName)
	input.GuestEmail = sanitizer.NormalizeEmail(input.GuestEmail)
	// An unparseable number is kept as typed so validation reports it.
	if phone := sanitizer.NormalizePhone(input.GuestPhone); phone != "" {
		input.GuestPhone = phone
	}
	input.Notes = sanitizer.NormalizeText(input.Notes)
	input.Status = model.ReservationStatus(strings.ToUpper(strings.TrimSpace(string(input.Status))))
}

// validate checks the input and its date order. The returned dates are
// midnight UTC.
func (s *reservationService) validate(input *model.ReservationInput) (time.Time, time.Time, error) {
	checkIn, checkOut, err := s.validator.Validate(input)
	if err != nil {
		return time.Time{}, time.Time{}, s.validationFailed(err)
	}

	if _, err := calendar.NewRange(checkIn, checkOut); err != nil {
		s.cfg.Log.Warn("Reservation rejected: inverted date range",
			"room_id", input.RoomID,
			"check_in_date", input.CheckInDate,
			"check_out_date", input.CheckOutDate,
		)
		return time.Time{}, time.Time{}, apperrors.Validation("Check-in date must not be after check-out date", map[string]any{
			"check_in_date":  input.CheckInDate,
			"check_out_date": input.CheckOutDate,
		}).WithCause(reservationserrors.ErrInvalidDateRange)
	}
	return checkIn, checkOut, nil
}

func (s *reservationService) validationFailed(err error) error {
	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		s.cfg.Log.Warn("Reservation validation failed", "error", err)
		return apperrors.Validation("Reservation validation failed", verrs.Details())
	}
	return apperrors.Internal("Failed to validate reservation", err)
}

// claimRoom touches the room's guard and confirms the room exists. It must run
// inside the transaction, before the availability read.
func (s *reservationService) claimRoom(ctx context.Context, roomID string) error {
	if err := s.guard.Acquire(ctx, RoomGuardKey(roomID)); err != nil {
		return err
	}
	if _, err := s.rooms.FindByID(ctx, roomID); err != nil {
		if errors.Is(err, roomserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Room", roomID).WithCause(roomserrors.ErrNotFound)
		}
		return err
	}
	return nil
}

func (s *reservationService) ensureAvailable(ctx context.Context, reservation *model.Reservation, excludeID string) error {
	conflicts, err := s.availability.Conflicts(ctx, reservation.RoomID, reservation.CheckInDate, reservation.CheckOutDate, excludeID)
	if err != nil {
		return err
	}
	if len(conflicts) == 0 {
		return nil
	}

	requested := calendar.Range{Start: reservation.CheckInDate, End: reservation.CheckOutDate}
	s.cfg.Log.Warn("Reservation rejected: room unavailable",
		"room_id", reservation.RoomID,
		"requested", requested.String(),
		"conflicts", conflictIDs(conflicts),
	)
	return apperrors.Conflict("Room is not available for the requested dates").
		WithCause(reservationserrors.ErrRoomUnavailable).
		WithDetail("room_id", reservation.RoomID).
		WithDetail("check_in_date", calendar.FormatDate(reservation.CheckInDate)).
		WithDetail("check_out_date", calendar.FormatDate(reservation.CheckOutDate)).
		WithDetail("conflicting_reservation_ids", conflictIDs(conflicts))
}

func (s *reservationService) illegalTransition(existing *model.Reservation, to model.ReservationStatus) error {
	s.cfg.Log.Warn("Reservation rejected: illegal status transition",
		"id", existing.ID,
		"from", existing.Status,
		"to", to,
	)
	return apperrors.Conflict("Reservation status cannot change from "+string(existing.Status)+" to "+string(to)).
		WithCause(reservationserrors.ErrIllegalTransition).
		WithDetail("from", existing.Status).
		WithDetail("to", to).
		WithDetail("allowed", s.policy.Next(existing.Status))
}

// committed runs after a successful commit: local cache first, then the event
// that lets other instances drop theirs.
func (s *reservationService) committed(ctx context.Context, eventType string, reservation *model.Reservation, roomIDs ...string) {
	roomIDs = sanitizer.NormalizeIDs(roomIDs)
	s.cache.Invalidate(roomIDs...)
	events.Emit(ctx, s.publisher, s.cfg.Log, events.Event{
		Type:       eventType,
		EntityID:   reservation.ID,
		RoomIDs:    roomIDs,
		OccurredAt: s.now().UTC(),
		Payload:    reservation,
	})
}

// fail logs and classifies an error leaving a mutation. Domain rejections are
// already AppErrors. Anything else came from the store.
func (s *reservationService) fail(err error, message string, args ...any) error {
	if apperrors.IsAppError(err) {
		return apperrors.AsAppError(err)
	}
	s.cfg.Log.Error(message, append(args, "error", err)...)
	return apperrors.Internal(message, err)
}

// lookupError maps repository sentinels for reservation id lookups. Store
// errors pass through untouched so the driver can still see retry labels.
func lookupError(err error, id string) error {
	switch {
	case errors.Is(err, reservationserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Reservation", id).WithCause(reservationserrors.ErrNotFound)
	case errors.Is(err, reservationserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid reservation ID format").WithCause(reservationserrors.ErrInvalidID)
	default:
		return err
	}
}
