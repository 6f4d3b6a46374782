//go:build integration

package testutil

import (
	"time"

	"hotelops/pkg/model"
)

// Day returns the date offset days from today, in the form the API expects.
func Day(offset int) string {
	return time.Now().UTC().AddDate(0, 0, offset).Format(time.DateOnly)
}

type ReservationBuilder struct {
	in model.ReservationInput
}

func NewReservationBuilder(roomID string) *ReservationBuilder {
	return &ReservationBuilder{
		in: model.ReservationInput{
			RoomID:         roomID,
			CheckInDate:    Day(10),
			CheckOutDate:   Day(12),
			GuestName:      "Dana Levi",
			GuestEmail:     "dana@example.com",
			NumberOfGuests: 2,
			Price:          420,
		},
	}
}

func (b *ReservationBuilder) WithDates(checkIn, checkOut string) *ReservationBuilder {
	b.in.CheckInDate = checkIn
	b.in.CheckOutDate = checkOut
	return b
}

func (b *ReservationBuilder) WithGuest(name string) *ReservationBuilder {
	b.in.GuestName = name
	return b
}

func (b *ReservationBuilder) WithStatus(status model.ReservationStatus) *ReservationBuilder {
	b.in.Status = status
	return b
}

func (b *ReservationBuilder) Build() model.ReservationInput {
	return b.in
}

// ScheduledAt returns 10:00 UTC offset days from today.
func ScheduledAt(offset int) time.Time {
	d := time.Now().UTC().AddDate(0, 0, offset)
	return time.Date(d.Year(), d.Month(), d.Day(), 10, 0, 0, 0, time.UTC)
}

func NewTask(roomID string, at time.Time) model.TaskInput {
	return model.TaskInput{
		RoomID:          roomID,
		Description:     "Turnover cleaning",
		ScheduledAt:     at,
		DurationMinutes: 45,
	}
}

func NewTaskBatch(at time.Time, roomIDs ...string) model.TaskBatchInput {
	return model.TaskBatchInput{
		RoomIDs:         roomIDs,
		Description:     "Deep cleaning",
		ScheduledAt:     at,
		DurationMinutes: 90,
	}
}
