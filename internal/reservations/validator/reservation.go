package validator

import (
	"hotelops/internal/calendar"
	"hotelops/pkg/logger"
	"hotelops/pkg/model"
	"hotelops/pkg/validation"
	"time"

	"github.com/go-playground/validator/v10"
)

type ReservationValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewReservationValidator(log *logger.Logger) *ReservationValidator {
	v := validation.New(log)

	log.Info("Reservation validator initialized successfully")

	return &ReservationValidator{
		validate: v,
		logger:   log,
	}
}

// Validate checks the struct tags and returns the parsed stay dates. Ordering
// of the two dates is left to the service, which reports it as its own error.
func (v *ReservationValidator) Validate(input *model.ReservationInput) (checkIn, checkOut time.Time, err error) {
	if err := validation.Struct(v.validate, input); err != nil {
		return time.Time{}, time.Time{}, err
	}

	checkIn, err = calendar.ParseDate(input.CheckInDate)
	if err != nil {
		return time.Time{}, time.Time{}, validation.ValidationErrors{
			{Field: "check_in_date", Message: err.Error()},
		}
	}
	checkOut, err = calendar.ParseDate(input.CheckOutDate)
	if err != nil {
		return time.Time{}, time.Time{}, validation.ValidationErrors{
			{Field: "check_out_date", Message: err.Error()},
		}
	}

	return checkIn, checkOut, nil
}

func (v *ReservationValidator) ValidateStatusChange(change *model.ReservationStatusChange) error {
	return validation.Struct(v.validate, change)
}
