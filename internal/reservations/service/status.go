package service

import "hotelops/pkg/model"

var reservationTransitions = map[model.ReservationStatus][]model.ReservationStatus{
	model.ReservationPending:   {model.ReservationConfirmed, model.ReservationCancelled},
	model.ReservationConfirmed: {model.ReservationCheckedIn, model.ReservationCancelled},
	model.ReservationCheckedIn: {model.ReservationCheckedOut},
}

var reinstateTransitions = []model.ReservationStatus{model.ReservationPending, model.ReservationConfirmed}

// StatusPolicy decides which reservation status changes are legal.
// CHECKED_OUT is always terminal. CANCELLED is terminal unless reinstatement
// is enabled.
type StatusPolicy struct {
	AllowReinstate bool
}

func (p StatusPolicy) Next(from model.ReservationStatus) []model.ReservationStatus {
	if from == model.ReservationCancelled && p.AllowReinstate {
		return reinstateTransitions
	}
	return reservationTransitions[from]
}

func (p StatusPolicy) CanTransition(from, to model.ReservationStatus) bool {
	if from == to {
		return true
	}
	for _, next := range p.Next(from) {
		if next == to {
			return true
		}
	}
	return false
}

// Reactivates reports whether the change makes a reservation claim its dates
// again, which needs an availability check.
func Reactivates(from, to model.ReservationStatus) bool {
	return !from.IsActive() && to.IsActive()
}
