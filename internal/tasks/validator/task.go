package validator

import (
	"hotelops/pkg/logger"
	"hotelops/pkg/model"
	"hotelops/pkg/validation"
	"time"

	"github.com/go-playground/validator/v10"
)

type TaskValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewTaskValidator(log *logger.Logger) *TaskValidator {
	v := validation.New(log)

	log.Info("Task validator initialized successfully")

	return &TaskValidator{
		validate: v,
		logger:   log,
	}
}

func (v *TaskValidator) Validate(input *model.TaskInput) error {
	if err := validation.Struct(v.validate, input); err != nil {
		return err
	}
	return requireScheduledAt(input.ScheduledAt)
}

func (v *TaskValidator) ValidateBatch(input *model.TaskBatchInput) error {
	if err := validation.Struct(v.validate, input); err != nil {
		return err
	}
	return requireScheduledAt(input.ScheduledAt)
}

func (v *TaskValidator) ValidateStatusChange(change *model.TaskStatusChange) error {
	return validation.Struct(v.validate, change)
}

func requireScheduledAt(t time.Time) error {
	if t.IsZero() {
		return validation.ValidationErrors{
			{Field: "scheduled_at", Message: "scheduled_at is required"},
		}
	}
	return nil
}
