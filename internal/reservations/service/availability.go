package service

import (
	"context"
	"fmt"
	"hotelops/internal/calendar"
	reservationserrors "hotelops/internal/reservations/errors"
	"hotelops/internal/reservations/repository"
	"hotelops/pkg/model"
	"time"
)

// AvailabilityChecker answers whether a room is free for an inclusive range of
// days. It only reads.
type AvailabilityChecker struct {
	repo repository.ReservationRepository
}

func NewAvailabilityChecker(repo repository.ReservationRepository) *AvailabilityChecker {
	return &AvailabilityChecker{repo: repo}
}

// Conflicts returns the active reservations of roomID that share a day with
// [checkIn, checkOut], leaving out excludeID. The store narrows the candidates
// and the overlap rule is applied again here, so a loose query can only cost a
// few extra rows.
func (a *AvailabilityChecker) Conflicts(ctx context.Context, roomID string, checkIn, checkOut time.Time, excludeID string) ([]*model.Reservation, error) {
	requested, err := calendar.NewRange(checkIn, checkOut)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", reservationserrors.ErrInvalidDateRange, err)
	}

	candidates, err := a.repo.FindOverlapping(ctx, roomID, requested.Start, requested.End)
	if err != nil {
		return nil, err
	}

	var conflicts []*model.Reservation
	for _, r := range candidates {
		if r.ID == excludeID && excludeID != "" {
			continue
		}
		if r.RoomID != roomID || !r.IsActive() {
			continue
		}
		existing, err := calendar.NewRange(r.CheckInDate, r.CheckOutDate)
		if err != nil {
			// A stored inverted range claims nothing.
			continue
		}
		if existing.Overlaps(requested) {
			conflicts = append(conflicts, r)
		}
	}
	return conflicts, nil
}

func (a *AvailabilityChecker) IsAvailable(ctx context.Context, roomID string, checkIn, checkOut time.Time, excludeID string) (bool, error) {
	conflicts, err := a.Conflicts(ctx, roomID, checkIn, checkOut, excludeID)
	if err != nil {
		return false, err
	}
	return len(conflicts) == 0, nil
}

func conflictIDs(conflicts []*model.Reservation) []string {
	ids := make([]string, 0, len(conflicts))
	for _, r := range conflicts {
		ids = append(ids, r.ID)
	}
	return ids
}
