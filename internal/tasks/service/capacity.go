package service

import (
	"context"
	"hotelops/internal/calendar"
	"hotelops/pkg/sanitizer"
	"time"
)

// DayCounter counts the tasks scheduled on a day, in any status.
type DayCounter interface {
	CountByDay(ctx context.Context, day time.Time, excludeID string) (int64, error)
}

// RoomCounter returns the number of rooms in the hotel.
type RoomCounter interface {
	Count(ctx context.Context) (int64, error)
}

// Decision is the outcome of one capacity check with the figures behind it.
type Decision struct {
	Day       time.Time `json:"-"`
	Existing  int64     `json:"existing"`
	Requested int64     `json:"requested"`
	RoomCount int64     `json:"room_count"`
	Allowed   bool      `json:"allowed"`
}

// Evaluate admits requested new tasks when the day stays within one task per
// room. For a single task this is existing < roomCount.
func Evaluate(day time.Time, existing, requested, roomCount int64) Decision {
	return Decision{
		Day:       day,
		Existing:  existing,
		Requested: requested,
		RoomCount: roomCount,
		Allowed:   requested > 0 && existing+requested <= roomCount,
	}
}

// CapacityGate caps the tasks of a calendar day at the hotel's room count.
// The cap is a workload ceiling and does not look at which rooms the tasks
// are for.
type CapacityGate struct {
	tasks DayCounter
	rooms RoomCounter
}

func NewCapacityGate(tasks DayCounter, rooms RoomCounter) *CapacityGate {
	return &CapacityGate{tasks: tasks, rooms: rooms}
}

// Decide counts day, leaving out excludeID, and evaluates requested more tasks.
// day is reduced to its date.
func (g *CapacityGate) Decide(ctx context.Context, day time.Time, requested int64, excludeID string) (Decision, error) {
	day = calendar.DateOf(day)

	existing, err := g.tasks.CountByDay(ctx, day, excludeID)
	if err != nil {
		return Decision{Day: day, Requested: requested}, err
	}
	roomCount, err := g.rooms.Count(ctx)
	if err != nil {
		return Decision{Day: day, Requested: requested, Existing: existing}, err
	}

	return Evaluate(day, existing, requested, roomCount), nil
}

// ForDate is the decision for one more task on day.
func (g *CapacityGate) ForDate(ctx context.Context, day time.Time) (Decision, error) {
	return g.Decide(ctx, day, 1, "")
}

// ForRoomsAndDate is the decision for a batch: one task per distinct room id.
// An empty batch is never allowed.
func (g *CapacityGate) ForRoomsAndDate(ctx context.Context, roomIDs []string, day time.Time) (Decision, error) {
	return g.Decide(ctx, day, int64(len(sanitizer.NormalizeIDs(roomIDs))), "")
}

// ForDateExcluding is the decision for moving taskID onto day; taskID itself
// is left out of the count.
func (g *CapacityGate) ForDateExcluding(ctx context.Context, day time.Time, taskID string) (Decision, error) {
	return g.Decide(ctx, day, 1, taskID)
}

func (g *CapacityGate) CanScheduleForDate(ctx context.Context, day time.Time) (bool, error) {
	d, err := g.ForDate(ctx, day)
	return d.Allowed, err
}

func (g *CapacityGate) CanScheduleForRoomsAndDate(ctx context.Context, roomIDs []string, day time.Time) (bool, error) {
	d, err := g.ForRoomsAndDate(ctx, roomIDs, day)
	return d.Allowed, err
}

func (g *CapacityGate) CanScheduleForDateExcluding(ctx context.Context, day time.Time, taskID string) (bool, error) {
	d, err := g.ForDateExcluding(ctx, day, taskID)
	return d.Allowed, err
}
