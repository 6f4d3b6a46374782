package service

import (
	"context"
	"errors"
	"hotelops/internal/calendar"
	"hotelops/internal/events"
	"hotelops/internal/roomcache"
	roomserrors "hotelops/internal/rooms/errors"
	roomsrepository "hotelops/internal/rooms/repository"
	taskserrors "hotelops/internal/tasks/errors"
	"hotelops/internal/tasks/repository"
	"hotelops/internal/tasks/validator"
	"hotelops/pkg/config"
	mongotx "hotelops/pkg/db/mongo"
	apperrors "hotelops/pkg/errors"
	"hotelops/pkg/model"
	"hotelops/pkg/sanitizer"
	"hotelops/pkg/validation"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type TaskService interface {
	Create(ctx context.Context, input *model.TaskInput) (*model.Task, error)
	CreateBatch(ctx context.Context, input *model.TaskBatchInput) ([]*model.Task, error)
	GetByID(ctx context.Context, id string) (*model.Task, error)
	Update(ctx context.Context, id string, input *model.TaskInput) (*model.Task, error)
	ChangeStatus(ctx context.Context, id string, status model.TaskStatus) (*model.Task, error)
	Delete(ctx context.Context, id string) error
	CanScheduleForDate(ctx context.Context, day time.Time) bool
	Capacity(ctx context.Context, day time.Time) (Decision, error)
	ListByRoom(ctx context.Context, roomID string) ([]*model.Task, error)
	ListByRooms(ctx context.Context, roomIDs []string, limit int, offset int64) ([]*model.Task, int64, error)
	ListByDay(ctx context.Context, day time.Time, limit int, offset int64) ([]*model.Task, int64, error)
}

// RoomCache holds each room's tasks, ordered by scheduled time.
type RoomCache = roomcache.Cache[[]*model.Task]

type taskService struct {
	repo      repository.TaskRepository
	rooms     roomsrepository.RoomRepository
	guard     mongotx.Guard
	gate      *CapacityGate
	validator *validator.TaskValidator
	cache     *RoomCache
	publisher events.Publisher
	cfg       *config.Config
	now       func() time.Time
	newID     func() string
}

func NewTaskService(
	repo repository.TaskRepository,
	rooms roomsrepository.RoomRepository,
	guard mongotx.Guard,
	validator *validator.TaskValidator,
	cache *RoomCache,
	publisher events.Publisher,
	cfg *config.Config,
) TaskService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &taskService{
		repo:      repo,
		rooms:     rooms,
		guard:     guard,
		gate:      NewCapacityGate(repo, rooms),
		validator: validator,
		cache:     cache,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// DayGuardKey names the guard document serializing task admission for a day.
func DayGuardKey(day time.Time) string {
	return "task-day:" + calendar.FormatDate(day)
}

func (s *taskService) Create(ctx context.Context, input *model.TaskInput) (*model.Task, error) {
	s.sanitize(input)
	if err := s.validator.Validate(input); err != nil {
		return nil, s.validationFailed(err)
	}

	status := input.Status
	if status == "" {
		status = model.TaskPending
	}
	if status != model.TaskPending && status != model.TaskInProgress {
		return nil, apperrors.Validation("A new task must be PENDING or IN_PROGRESS", map[string]any{
			"status": status,
		}).WithCause(taskserrors.ErrIllegalTransition)
	}

	now := s.now().UTC()
	task := &model.Task{
		RoomID:          input.RoomID,
		Description:     input.Description,
		ScheduledAt:     input.ScheduledAt.UTC(),
		ScheduledDay:    calendar.Day(input.ScheduledAt, s.cfg.Location()),
		DurationMinutes: input.DurationMinutes,
		AssignedTo:      input.AssignedTo,
		Remarks:         input.Remarks,
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		task.ID = ""
		if err := s.guard.Acquire(txCtx, DayGuardKey(task.ScheduledDay)); err != nil {
			return err
		}
		if err := s.ensureRooms(txCtx, task.RoomID); err != nil {
			return err
		}
		if err := s.admit(s.gate.ForDate(txCtx, task.ScheduledDay)); err != nil {
			return err
		}
		return s.repo.Create(txCtx, task)
	})
	if err != nil {
		return nil, s.fail(err, "Failed to create task", "room_id", task.RoomID)
	}

	s.committed(ctx, events.TaskCreated, task.ID, task, task.RoomID)
	s.cfg.Log.Info("Task created successfully",
		"id", task.ID,
		"room_id", task.RoomID,
		"scheduled_day", calendar.FormatDate(task.ScheduledDay),
	)
	return task, nil
}

// CreateBatch creates one task per distinct room on a single day. The whole
// batch passes the capacity check together and is inserted together, or
// nothing is created.
func (s *taskService) CreateBatch(ctx context.Context, input *model.TaskBatchInput) ([]*model.Task, error) {
	input.RoomIDs = sanitizer.NormalizeIDs(input.RoomIDs)
	input.Description = sanitizer.TrimAndNormalize(input.Description)
	input.AssignedTo = sanitizer.TrimAndNormalize(input.AssignedTo)
	input.Remarks = sanitizer.NormalizeText(input.Remarks)

	if len(input.RoomIDs) == 0 {
		s.cfg.Log.Warn("Task batch rejected: no rooms")
		return nil, apperrors.Validation("A task batch needs at least one room", map[string]any{
			"room_ids": "room_ids must contain at least one room id",
		}).WithCause(taskserrors.ErrEmptyBatch)
	}
	if err := s.validator.ValidateBatch(input); err != nil {
		return nil, s.validationFailed(err)
	}

	now := s.now().UTC()
	day := calendar.Day(input.ScheduledAt, s.cfg.Location())
	batchID := s.newID()

	tasks := make([]*model.Task, len(input.RoomIDs))
	for i, roomID := range input.RoomIDs {
		tasks[i] = &model.Task{
			RoomID:          roomID,
			Description:     input.Description,
			ScheduledAt:     input.ScheduledAt.UTC(),
			ScheduledDay:    day,
			DurationMinutes: input.DurationMinutes,
			AssignedTo:      input.AssignedTo,
			Remarks:         input.Remarks,
			Status:          model.TaskPending,
			BatchID:         batchID,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
	}

	err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		for _, task := range tasks {
			task.ID = ""
		}
		if err := s.guard.Acquire(txCtx, DayGuardKey(day)); err != nil {
			return err
		}
		if err := s.ensureRooms(txCtx, input.RoomIDs...); err != nil {
			return err
		}
		if err := s.admit(s.gate.ForRoomsAndDate(txCtx, input.RoomIDs, day)); err != nil {
			return err
		}
		return s.repo.CreateMany(txCtx, tasks)
	})
	if err != nil {
		return nil, s.fail(err, "Failed to create task batch", "batch_id", batchID, "rooms", len(tasks))
	}

	s.committed(ctx, events.TaskBatchCreated, batchID, tasks, input.RoomIDs...)
	s.cfg.Log.Info("Task batch created successfully",
		"batch_id", batchID,
		"rooms", len(tasks),
		"scheduled_day", calendar.FormatDate(day),
	)
	return tasks, nil
}

func (s *taskService) GetByID(ctx context.Context, id string) (*model.Task, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Task ID cannot be empty")
	}

	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.fail(lookupError(err, id), "Failed to retrieve task", "id", id)
	}
	return task, nil
}

// Update re-runs the capacity check only when the task moves to another day.
// The task's own slot is left out of the count.
func (s *taskService) Update(ctx context.Context, id string, input *model.TaskInput) (*model.Task, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Task ID cannot be empty")
	}
	s.sanitize(input)
	if err := s.validator.Validate(input); err != nil {
		return nil, s.validationFailed(err)
	}

	var updated *model.Task
	var previousRoomID string
	err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return lookupError(err, id)
		}
		previousRoomID = existing.RoomID

		status := input.Status
		if status == "" {
			status = existing.Status
		}
		if !canTransition(existing.Status, status) {
			return s.illegalTransition(existing, status)
		}

		merged := *existing
		merged.RoomID = input.RoomID
		merged.Description = input.Description
		merged.ScheduledAt = input.ScheduledAt.UTC()
		merged.ScheduledDay = calendar.Day(input.ScheduledAt, s.cfg.Location())
		merged.DurationMinutes = input.DurationMinutes
		merged.AssignedTo = input.AssignedTo
		merged.Remarks = input.Remarks
		merged.Status = status
		merged.UpdatedAt = s.now().UTC()

		if merged.RoomID != existing.RoomID {
			if err := s.ensureRooms(txCtx, merged.RoomID); err != nil {
				return err
			}
		}
		if !merged.ScheduledDay.Equal(existing.ScheduledDay) {
			if err := s.guard.Acquire(txCtx, DayGuardKey(merged.ScheduledDay)); err != nil {
				return err
			}
			if err := s.admit(s.gate.ForDateExcluding(txCtx, merged.ScheduledDay, id)); err != nil {
				return err
			}
		}

		if err := s.repo.Update(txCtx, id, &merged); err != nil {
			return lookupError(err, id)
		}
		updated = &merged
		return nil
	})
	if err != nil {
		return nil, s.fail(err, "Failed to update task", "id", id)
	}

	s.committed(ctx, events.TaskUpdated, id, updated, updated.RoomID, previousRoomID)
	s.cfg.Log.Info("Task updated successfully",
		"id", id,
		"room_id", updated.RoomID,
		"scheduled_day", calendar.FormatDate(updated.ScheduledDay),
		"status", updated.Status,
	)
	return updated, nil
}

func (s *taskService) ChangeStatus(ctx context.Context, id string, status model.TaskStatus) (*model.Task, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Task ID cannot be empty")
	}
	if err := s.validator.ValidateStatusChange(&model.TaskStatusChange{Status: status}); err != nil {
		return nil, s.validationFailed(err)
	}

	var result *model.Task
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
		if !canTransition(existing.Status, status) {
			return s.illegalTransition(existing, status)
		}

		next := *existing
		next.Status = status
		next.UpdatedAt = s.now().UTC()
		if err := s.repo.UpdateStatus(txCtx, id, status, next.UpdatedAt); err != nil {
			return lookupError(err, id)
		}
		result, changed = &next, true
		return nil
	})
	if err != nil {
		return nil, s.fail(err, "Failed to change task status", "id", id, "status", status)
	}

	if changed {
		s.committed(ctx, events.TaskStatusChanged, id, result, result.RoomID)
		s.cfg.Log.Info("Task status changed successfully", "id", id, "status", result.Status)
	}
	return result, nil
}

func (s *taskService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Task ID cannot be empty")
	}

	var deleted *model.Task
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
		return s.fail(err, "Failed to delete task", "id", id)
	}

	s.committed(ctx, events.TaskDeleted, id, deleted, deleted.RoomID)
	s.cfg.Log.Info("Task deleted successfully", "id", id, "room_id", deleted.RoomID)
	return nil
}

// CanScheduleForDate never returns an error. A failed count is logged and
// reported as no capacity.
func (s *taskService) CanScheduleForDate(ctx context.Context, day time.Time) bool {
	ok, err := s.gate.CanScheduleForDate(ctx, day)
	if err != nil {
		s.cfg.Log.Error("Failed to check task capacity", "day", calendar.FormatDate(day), "error", err)
		return false
	}
	return ok
}

func (s *taskService) Capacity(ctx context.Context, day time.Time) (Decision, error) {
	d, err := s.gate.ForDate(ctx, day)
	if err != nil {
		s.cfg.Log.Error("Failed to check task capacity", "day", calendar.FormatDate(day), "error", err)
		return d, apperrors.Internal("Failed to check task capacity", err)
	}
	return d, nil
}

func (s *taskService) ListByRoom(ctx context.Context, roomID string) ([]*model.Task, error) {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return nil, apperrors.InvalidInput("Room ID cannot be empty")
	}

	tasks, err := s.cache.Get(ctx, roomID, s.repo.FindByRoom)
	if err != nil {
		s.cfg.Log.Error("Failed to list tasks by room", "room_id", roomID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve tasks", err)
	}
	return copyTasks(tasks), nil
}

// copyTasks copies each element so callers can modify the result without
// touching the values held by the room cache.
func copyTasks(list []*model.Task) []*model.Task {
	out := make([]*model.Task, len(list))
	for i, t := range list {
		c := *t
		out[i] = &c
	}
	return out
}

func (s *taskService) ListByRooms(ctx context.Context, roomIDs []string, limit int, offset int64) ([]*model.Task, int64, error) {
	roomIDs = sanitizer.NormalizeIDs(roomIDs)
	if len(roomIDs) == 0 {
		return nil, 0, apperrors.InvalidInput("At least one room ID is required")
	}
	return s.list(ctx,
		func(ctx context.Context) (int64, error) { return s.repo.CountByRooms(ctx, roomIDs) },
		func(ctx context.Context) ([]*model.Task, error) {
			return s.repo.FindByRooms(ctx, roomIDs, limit, offset)
		},
	)
}

func (s *taskService) ListByDay(ctx context.Context, day time.Time, limit int, offset int64) ([]*model.Task, int64, error) {
	day = calendar.DateOf(day)
	return s.list(ctx,
		func(ctx context.Context) (int64, error) { return s.repo.CountByDay(ctx, day, "") },
		func(ctx context.Context) ([]*model.Task, error) {
			return s.repo.FindByDay(ctx, day, limit, offset)
		},
	)
}

func (s *taskService) list(
	ctx context.Context,
	countFn func(context.Context) (int64, error),
	findFn func(context.Context) ([]*model.Task, error),
) ([]*model.Task, int64, error) {
	var count int64
	var tasks []*model.Task
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = countFn(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count tasks", "error", errCount)
			errCount = apperrors.Internal("Failed to count tasks", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		tasks, errFind = findFn(ctx)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list tasks", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve tasks", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return tasks, count, nil
}

func (s *taskService) sanitize(input *model.TaskInput) {
	input.RoomID = sanitizer.TrimAndNormalize(input.RoomID)
	input.Description = sanitizer.TrimAndNormalize(input.Description)
	input.AssignedTo = sanitizer.TrimAndNormalize(input.AssignedTo)
	input.Remarks = sanitizer.NormalizeText(input.Remarks)
	input.Status = model.TaskStatus(strings.ToUpper(strings.TrimSpace(string(input.Status))))
}

func (s *taskService) validationFailed(err error) error {
	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		s.cfg.Log.Warn("Task validation failed", "error", err)
		return apperrors.Validation("Task validation failed", verrs.Details())
	}
	return apperrors.Internal("Failed to validate task", err)
}

// ensureRooms fails with RoomNotFound listing every unknown id.
func (s *taskService) ensureRooms(ctx context.Context, roomIDs ...string) error {
	var missing []string
	for _, roomID := range roomIDs {
		if _, err := s.rooms.FindByID(ctx, roomID); err != nil {
			if !errors.Is(err, roomserrors.ErrNotFound) {
				return err
			}
			missing = append(missing, roomID)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	s.cfg.Log.Warn("Task rejected: unknown rooms", "room_ids", missing)
	return apperrors.NotFoundWithID("Room", strings.Join(missing, ",")).
		WithCause(roomserrors.ErrNotFound).
		WithDetail("room_ids", missing)
}

// admit turns a gate decision taken inside the transaction, after the day
// guard, into a capacity conflict.
func (s *taskService) admit(d Decision, err error) error {
	if err != nil {
		return err
	}
	if d.Allowed {
		return nil
	}

	s.cfg.Log.Warn("Task rejected: daily capacity reached",
		"day", calendar.FormatDate(d.Day),
		"existing", d.Existing,
		"requested", d.Requested,
		"room_count", d.RoomCount,
	)
	return apperrors.Conflict("Daily task capacity reached").
		WithCause(taskserrors.ErrCapacityExceeded).
		WithDetail("day", calendar.FormatDate(d.Day)).
		WithDetail("existing", d.Existing).
		WithDetail("requested", d.Requested).
		WithDetail("room_count", d.RoomCount)
}

func (s *taskService) illegalTransition(existing *model.Task, to model.TaskStatus) error {
	s.cfg.Log.Warn("Task rejected: illegal status transition",
		"id", existing.ID,
		"from", existing.Status,
		"to", to,
	)
	return apperrors.Conflict("Task status cannot change from "+string(existing.Status)+" to "+string(to)).
		WithCause(taskserrors.ErrIllegalTransition).
		WithDetail("from", existing.Status).
		WithDetail("to", to).
		WithDetail("allowed", taskTransitions[existing.Status])
}

func (s *taskService) committed(ctx context.Context, eventType, entityID string, payload any, roomIDs ...string) {
	roomIDs = sanitizer.NormalizeIDs(roomIDs)
	s.cache.Invalidate(roomIDs...)
	events.Emit(ctx, s.publisher, s.cfg.Log, events.Event{
		Type:       eventType,
		EntityID:   entityID,
		RoomIDs:    roomIDs,
		OccurredAt: s.now().UTC(),
		Payload:    payload,
	})
}

func (s *taskService) fail(err error, message string, args ...any) error {
	if apperrors.IsAppError(err) {
		return apperrors.AsAppError(err)
	}
	s.cfg.Log.Error(message, append(args, "error", err)...)
	return apperrors.Internal(message, err)
}

func lookupError(err error, id string) error {
	switch {
	case errors.Is(err, taskserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Task", id).WithCause(taskserrors.ErrNotFound)
	case errors.Is(err, taskserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid task ID format").WithCause(taskserrors.ErrInvalidID)
	default:
		return err
	}
}
