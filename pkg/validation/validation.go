package validation

import (
	"errors"
	"fmt"
	"hotelops/pkg/logger"
	"hotelops/pkg/model"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var phoneRegex = regexp.MustCompile(`^(?:|\+[1-9]\d{7,14})$`)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// Details renders the errors as a field to message map for AppError details.
func (v ValidationErrors) Details() map[string]any {
	details := make(map[string]any, len(v))
	for _, err := range v {
		details[err.Field] = err.Message
	}
	return details
}

// New returns a validator with the domain tags registered. It exits the
// process if a tag cannot be registered since that is a programming error.
func New(log *logger.Logger) *validator.Validate {
	v := validator.New()

	// Report json names so messages match the request body.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	register := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatal("Failed to register validator", "tag", tag, "error", err)
		}
	}
	register("reservation_status", validateReservationStatus)
	register("task_status", validateTaskStatus)
	register("e164_or_empty", validateE164OrEmpty)

	return v
}

func validateReservationStatus(fl validator.FieldLevel) bool {
	return model.ReservationStatus(fl.Field().String()).Valid()
}

func validateTaskStatus(fl validator.FieldLevel) bool {
	return model.TaskStatus(fl.Field().String()).Valid()
}

func validateE164OrEmpty(fl validator.FieldLevel) bool {
	return phoneRegex.MatchString(fl.Field().String())
}

// Struct validates s and translates failures into ValidationErrors. Other
// errors (e.g. invalid argument) are returned unchanged.
func Struct(v *validator.Validate, s any) error {
	if err := v.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return Translate(validationErrs)
		}
		return err
	}
	return nil
}

func Translate(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "datetime":
			message = fmt.Sprintf("%s must be a date in YYYY-MM-DD format", err.Field())
		case "e164_or_empty":
			message = fmt.Sprintf("%s must be in E.164 format (e.g., +14155550123)", err.Field())
		case "reservation_status":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), joinStatuses(model.ReservationStatuses))
		case "task_status":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), joinStatuses(model.TaskStatuses))
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}

func joinStatuses[S ~string](statuses []S) string {
	parts := make([]string, len(statuses))
	for i, s := range statuses {
		parts[i] = string(s)
	}
	return strings.Join(parts, " ")
}
