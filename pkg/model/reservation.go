package model

import "time"

type ReservationStatus string

const (
	ReservationPending    ReservationStatus = "PENDING"
	ReservationConfirmed  ReservationStatus = "CONFIRMED"
	ReservationCheckedIn  ReservationStatus = "CHECKED_IN"
	ReservationCheckedOut ReservationStatus = "CHECKED_OUT"
	ReservationCancelled  ReservationStatus = "CANCELLED"
)

var ReservationStatuses = []ReservationStatus{
	ReservationPending,
	ReservationConfirmed,
	ReservationCheckedIn,
	ReservationCheckedOut,
	ReservationCancelled,
}

func (s ReservationStatus) Valid() bool {
	for _, known := range ReservationStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsActive reports whether a reservation in this status claims its dates.
func (s ReservationStatus) IsActive() bool {
	return s != ReservationCancelled && s != ReservationCheckedOut
}

// InactiveReservationStatuses lists the statuses that release a room's dates.
func InactiveReservationStatuses() []ReservationStatus {
	return []ReservationStatus{ReservationCancelled, ReservationCheckedOut}
}

// Reservation holds a room for an inclusive range of calendar days. Both dates
// are stored as midnight UTC of the hotel-local date.
type Reservation struct {
	ID             string            `json:"id,omitempty" bson:"_id,omitempty"`
	RoomID         string            `json:"room_id" bson:"room_id"`
	CheckInDate    time.Time         `json:"check_in_date" bson:"check_in_date"`
	CheckOutDate   time.Time         `json:"check_out_date" bson:"check_out_date"`
	GuestName      string            `json:"guest_name" bson:"guest_name"`
	GuestEmail     string            `json:"guest_email,omitempty" bson:"guest_email,omitempty"`
	GuestPhone     string            `json:"guest_phone,omitempty" bson:"guest_phone,omitempty"`
	NumberOfGuests int               `json:"number_of_guests" bson:"number_of_guests"`
	Price          float64           `json:"price" bson:"price"`
	Status         ReservationStatus `json:"status" bson:"status"`
	Notes          string            `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt      time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at" bson:"updated_at"`
}

func (r *Reservation) IsActive() bool {
	return r.Status.IsActive()
}

// ReservationInput is the caller-supplied part of a reservation, used by both
// create and full update. Dates are YYYY-MM-DD.
type ReservationInput struct {
	RoomID         string            `json:"room_id" validate:"required,max=64"`
	CheckInDate    string            `json:"check_in_date" validate:"required,datetime=2006-01-02"`
	CheckOutDate   string            `json:"check_out_date" validate:"required,datetime=2006-01-02"`
	GuestName      string            `json:"guest_name" validate:"required,min=2,max=200"`
	GuestEmail     string            `json:"guest_email,omitempty" validate:"omitempty,email,max=254"`
	GuestPhone     string            `json:"guest_phone,omitempty" validate:"e164_or_empty"`
	NumberOfGuests int               `json:"number_of_guests" validate:"required,min=1,max=50"`
	Price          float64           `json:"price" validate:"min=0"`
	Status         ReservationStatus `json:"status,omitempty" validate:"omitempty,reservation_status"`
	Notes          string            `json:"notes,omitempty" validate:"max=2000"`
}

type ReservationStatusChange struct {
	Status ReservationStatus `json:"status" validate:"required,reservation_status"`
}
