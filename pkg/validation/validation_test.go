package validation

import (
	"errors"
	"hotelops/pkg/logger"
	"hotelops/pkg/model"
	"testing"
	"time"
)

func validReservationInput() *model.ReservationInput {
	return &model.ReservationInput{
		RoomID:         "101",
		CheckInDate:    "2026-11-01",
		CheckOutDate:   "2026-11-03",
		GuestName:      "Ada Lovelace",
		GuestEmail:     "ada@example.com",
		GuestPhone:     "+14155550123",
		NumberOfGuests: 2,
		Price:          240,
	}
}

func TestStruct_ReservationInput(t *testing.T) {
	v := New(logger.Discard())

	tests := []struct {
		name      string
		mutate    func(in *model.ReservationInput)
		wantField string
	}{
		{"valid", func(in *model.ReservationInput) {}, ""},
		{"missing room", func(in *model.ReservationInput) { in.RoomID = "" }, "room_id"},
		{"bad date format", func(in *model.ReservationInput) { in.CheckInDate = "01/11/2026" }, "check_in_date"},
		{"bad phone", func(in *model.ReservationInput) { in.GuestPhone = "555-0123" }, "guest_phone"},
		{"empty phone allowed", func(in *model.ReservationInput) { in.GuestPhone = "" }, ""},
		{"unknown status", func(in *model.ReservationInput) { in.Status = "BOOKED" }, "status"},
		{"known status", func(in *model.ReservationInput) { in.Status = model.ReservationConfirmed }, ""},
		{"zero guests", func(in *model.ReservationInput) { in.NumberOfGuests = 0 }, "number_of_guests"},
		{"negative price", func(in *model.ReservationInput) { in.Price = -1 }, "price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validReservationInput()
			tt.mutate(in)

			err := Struct(v, in)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			if _, ok := verrs.Details()[tt.wantField]; !ok {
				t.Errorf("expected error on %q, got %v", tt.wantField, verrs)
			}
		})
	}
}

func TestStruct_TaskBatchInput(t *testing.T) {
	v := New(logger.Discard())

	in := &model.TaskBatchInput{
		RoomIDs:     []string{"101", ""},
		Description: "Deep clean",
		ScheduledAt: time.Date(2026, 11, 1, 9, 0, 0, 0, time.UTC),
	}
	err := Struct(v, in)

	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if _, ok := verrs.Details()["room_ids[1]"]; !ok {
		t.Errorf("expected error on room_ids[1], got %v", verrs)
	}
}

func TestTranslate_Messages(t *testing.T) {
	v := New(logger.Discard())

	err := Struct(v, &model.TaskStatusChange{Status: "STARTED"})
	var verrs ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) != 1 {
		t.Fatalf("expected one validation error, got %v", err)
	}
	want := "status must be one of: PENDING IN_PROGRESS DONE CANCELLED"
	if verrs[0].Message != want {
		t.Errorf("message = %q, want %q", verrs[0].Message, want)
	}
}
