package service

import (
	"context"
	"fmt"
	"hotelops/internal/events"
	"hotelops/internal/roomcache"
	roomserrors "hotelops/internal/rooms/errors"
	taskserrors "hotelops/internal/tasks/errors"
	"hotelops/internal/tasks/validator"
	"hotelops/pkg/config"
	mongotx "hotelops/pkg/db/mongo"
	"hotelops/pkg/logger"
	"hotelops/pkg/model"
	"maps"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"
)

// memTaskRepository rolls back every write of a failed transaction, like the
// Mongo session it stands in for.
type memTaskRepository struct {
	mu         sync.Mutex
	tasks      map[string]*model.Task
	nextID     int
	countErr   error
	findByRoom int
}

func newMemTaskRepository() *memTaskRepository {
	return &memTaskRepository{tasks: make(map[string]*model.Task)}
}

func (m *memTaskRepository) Create(ctx context.Context, task *model.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insert(task)
	return nil
}

func (m *memTaskRepository) CreateMany(ctx context.Context, tasks []*model.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, task := range tasks {
		m.insert(task)
	}
	return nil
}

func (m *memTaskRepository) insert(task *model.Task) {
	m.nextID++
	task.ID = fmt.Sprintf("task-%03d", m.nextID)
	stored := *task
	m.tasks[task.ID] = &stored
}

func (m *memTaskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == "bad-id" {
		return nil, taskserrors.ErrInvalidID
	}
	task, ok := m.tasks[id]
	if !ok {
		return nil, taskserrors.ErrNotFound
	}
	found := *task
	return &found, nil
}

func (m *memTaskRepository) Update(ctx context.Context, id string, task *model.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return taskserrors.ErrNotFound
	}
	stored := *task
	m.tasks[id] = &stored
	return nil
}

func (m *memTaskRepository) UpdateStatus(ctx context.Context, id string, status model.TaskStatus, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok {
		return taskserrors.ErrNotFound
	}
	task.Status = status
	task.UpdatedAt = updatedAt
	return nil
}

func (m *memTaskRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return taskserrors.ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *memTaskRepository) FindByRoom(ctx context.Context, roomID string) ([]*model.Task, error) {
	m.mu.Lock()
	m.findByRoom++
	m.mu.Unlock()
	return m.filter(func(t *model.Task) bool { return t.RoomID == roomID }), nil
}

func (m *memTaskRepository) FindByRooms(ctx context.Context, roomIDs []string, limit int, offset int64) ([]*model.Task, error) {
	return m.filter(func(t *model.Task) bool { return slices.Contains(roomIDs, t.RoomID) }), nil
}

func (m *memTaskRepository) CountByRooms(ctx context.Context, roomIDs []string) (int64, error) {
	list, _ := m.FindByRooms(ctx, roomIDs, 0, 0)
	return int64(len(list)), nil
}

func (m *memTaskRepository) FindByDay(ctx context.Context, day time.Time, limit int, offset int64) ([]*model.Task, error) {
	return m.filter(func(t *model.Task) bool { return t.ScheduledDay.Equal(day) }), nil
}

func (m *memTaskRepository) CountByDay(ctx context.Context, day time.Time, excludeID string) (int64, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	list := m.filter(func(t *model.Task) bool {
		return t.ScheduledDay.Equal(day) && t.ID != excludeID
	})
	return int64(len(list)), nil
}

func (m *memTaskRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	m.mu.Lock()
	snapshot := make(map[string]*model.Task, len(m.tasks))
	for id, task := range m.tasks {
		copied := *task
		snapshot[id] = &copied
	}
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.mu.Lock()
		m.tasks = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memTaskRepository) filter(keep func(*model.Task) bool) []*model.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := []*model.Task{}
	for _, id := range slices.Sorted(maps.Keys(m.tasks)) {
		if task := m.tasks[id]; keep(task) {
			found := *task
			result = append(result, &found)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].ScheduledAt.Before(result[j].ScheduledAt) })
	return result
}

func (m *memTaskRepository) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

type memRoomRepository struct {
	rooms map[string]*model.Room
}

func newMemRoomRepository(n int) *memRoomRepository {
	rooms := make(map[string]*model.Room, n)
	for i := 1; i <= n; i++ {
		id := fmt.Sprintf("%d", 100+i)
		rooms[id] = &model.Room{ID: id, Number: id}
	}
	return &memRoomRepository{rooms: rooms}
}

func (m *memRoomRepository) FindByID(ctx context.Context, id string) (*model.Room, error) {
	room, ok := m.rooms[id]
	if !ok {
		return nil, roomserrors.ErrNotFound
	}
	return room, nil
}

func (m *memRoomRepository) Count(ctx context.Context) (int64, error) {
	return int64(len(m.rooms)), nil
}

type recordingGuard struct {
	mu   sync.Mutex
	keys []string
}

func (g *recordingGuard) Acquire(ctx context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.keys = append(g.keys, key)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

type testFixture struct {
	service   *taskService
	repo      *memTaskRepository
	guard     *recordingGuard
	publisher *recordingPublisher
}

// 2025-06-10 09:00 in the hotel zone.
var dayD = time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

func newTestFixture(t *testing.T, roomCount int, zone string) *testFixture {
	t.Helper()

	log := logger.Discard()
	cfg := &config.Config{
		Log:           log,
		HotelTimeZone: zone,
	}

	cache, err := roomcache.New[[]*model.Task](16)
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}

	repo := newMemTaskRepository()
	guard := &recordingGuard{}
	publisher := &recordingPublisher{}

	svc := NewTaskService(
		repo,
		newMemRoomRepository(roomCount),
		guard,
		validator.NewTaskValidator(log),
		cache,
		publisher,
		cfg,
	).(*taskService)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC) }
	svc.newID = func() string { return "batch-1" }

	return &testFixture{service: svc, repo: repo, guard: guard, publisher: publisher}
}

func taskInput(roomID string, at time.Time) *model.TaskInput {
	return &model.TaskInput{
		RoomID:          roomID,
		Description:     "Deep clean",
		ScheduledAt:     at,
		DurationMinutes: 45,
		AssignedTo:      "housekeeping",
	}
}

func batchInput(at time.Time, roomIDs ...string) *model.TaskBatchInput {
	return &model.TaskBatchInput{
		RoomIDs:         roomIDs,
		Description:     "Linen change",
		ScheduledAt:     at,
		DurationMinutes: 20,
	}
}
