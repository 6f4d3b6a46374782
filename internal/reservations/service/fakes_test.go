package service

import (
	"context"
	"fmt"
	"hotelops/internal/events"
	reservationserrors "hotelops/internal/reservations/errors"
	"hotelops/internal/reservations/validator"
	"hotelops/internal/roomcache"
	roomserrors "hotelops/internal/rooms/errors"
	"hotelops/pkg/config"
	mongotx "hotelops/pkg/db/mongo"
	"hotelops/pkg/logger"
	"hotelops/pkg/model"
	"sort"
	"sync"
	"testing"
	"time"
)

// memReservationRepository keeps reservations in a map. FindOverlapping
// returns every reservation of the room so the checker's own predicate is
// what decides.
type memReservationRepository struct {
	mu           sync.Mutex
	reservations map[string]*model.Reservation
	nextID       int
	findByRoom   int
	failOverlap  error
}

func newMemReservationRepository() *memReservationRepository {
	return &memReservationRepository{reservations: make(map[string]*model.Reservation)}
}

func (m *memReservationRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	reservation.ID = fmt.Sprintf("res-%d", m.nextID)
	stored := *reservation
	m.reservations[reservation.ID] = &stored
	return nil
}

func (m *memReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == "bad-id" {
		return nil, reservationserrors.ErrInvalidID
	}
	r, ok := m.reservations[id]
	if !ok {
		return nil, reservationserrors.ErrNotFound
	}
	found := *r
	return &found, nil
}

func (m *memReservationRepository) Update(ctx context.Context, id string, reservation *model.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reservations[id]; !ok {
		return reservationserrors.ErrNotFound
	}
	stored := *reservation
	m.reservations[id] = &stored
	return nil
}

func (m *memReservationRepository) UpdateStatus(ctx context.Context, id string, status model.ReservationStatus, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[id]
	if !ok {
		return reservationserrors.ErrNotFound
	}
	r.Status = status
	r.UpdatedAt = updatedAt
	return nil
}

func (m *memReservationRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reservations[id]; !ok {
		return reservationserrors.ErrNotFound
	}
	delete(m.reservations, id)
	return nil
}

func (m *memReservationRepository) FindByRoom(ctx context.Context, roomID string) ([]*model.Reservation, error) {
	m.mu.Lock()
	m.findByRoom++
	m.mu.Unlock()
	return m.filter(func(r *model.Reservation) bool { return r.RoomID == roomID }), nil
}

func (m *memReservationRepository) FindOverlapping(ctx context.Context, roomID string, checkIn, checkOut time.Time) ([]*model.Reservation, error) {
	if m.failOverlap != nil {
		return nil, m.failOverlap
	}
	return m.filter(func(r *model.Reservation) bool { return r.RoomID == roomID }), nil
}

func (m *memReservationRepository) FindByStatus(ctx context.Context, status model.ReservationStatus, limit int, offset int64) ([]*model.Reservation, error) {
	return m.filter(func(r *model.Reservation) bool { return r.Status == status }), nil
}

func (m *memReservationRepository) CountByStatus(ctx context.Context, status model.ReservationStatus) (int64, error) {
	list, _ := m.FindByStatus(ctx, status, 0, 0)
	return int64(len(list)), nil
}

func (m *memReservationRepository) FindInPeriod(ctx context.Context, from, to time.Time, limit int, offset int64) ([]*model.Reservation, error) {
	return m.filter(func(r *model.Reservation) bool {
		return !r.CheckInDate.After(to) && !r.CheckOutDate.Before(from)
	}), nil
}

func (m *memReservationRepository) CountInPeriod(ctx context.Context, from, to time.Time) (int64, error) {
	list, _ := m.FindInPeriod(ctx, from, to, 0, 0)
	return int64(len(list)), nil
}

func (m *memReservationRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(ctx)
}

func (m *memReservationRepository) filter(keep func(*model.Reservation) bool) []*model.Reservation {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := []*model.Reservation{}
	for _, r := range m.reservations {
		if keep(r) {
			found := *r
			result = append(result, &found)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

type memRoomRepository struct {
	rooms map[string]*model.Room
}

func newMemRoomRepository(ids ...string) *memRoomRepository {
	rooms := make(map[string]*model.Room, len(ids))
	for _, id := range ids {
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

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.Type
	}
	return types
}

type testFixture struct {
	service   *reservationService
	repo      *memReservationRepository
	guard     *recordingGuard
	publisher *recordingPublisher
}

var testToday = time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC)

func newTestFixture(t *testing.T, allowReinstate bool, roomIDs ...string) *testFixture {
	t.Helper()

	log := logger.Discard()
	cfg := &config.Config{
		Log:                       log,
		HotelTimeZone:             "UTC",
		ReservationAllowReinstate: allowReinstate,
	}

	cache, err := roomcache.New[[]*model.Reservation](16)
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}

	repo := newMemReservationRepository()
	guard := &recordingGuard{}
	publisher := &recordingPublisher{}

	svc := NewReservationService(
		repo,
		newMemRoomRepository(roomIDs...),
		guard,
		validator.NewReservationValidator(log),
		cache,
		publisher,
		cfg,
	).(*reservationService)
	svc.now = func() time.Time { return testToday }

	return &testFixture{service: svc, repo: repo, guard: guard, publisher: publisher}
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func input(roomID, checkIn, checkOut string) *model.ReservationInput {
	return &model.ReservationInput{
		RoomID:         roomID,
		CheckInDate:    checkIn,
		CheckOutDate:   checkOut,
		GuestName:      "Ada Lovelace",
		NumberOfGuests: 2,
		Price:          480,
	}
}
