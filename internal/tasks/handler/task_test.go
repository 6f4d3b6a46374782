package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	taskserrors "hotelops/internal/tasks/errors"
	"hotelops/internal/tasks/service"
	apperrors "hotelops/pkg/errors"
	"hotelops/pkg/logger"
	"hotelops/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockTaskService struct {
	createBatchFunc func(ctx context.Context, input *model.TaskBatchInput) ([]*model.Task, error)
	capacityFunc    func(ctx context.Context, day time.Time) (service.Decision, error)
	listByRoomFunc  func(ctx context.Context, roomID string) ([]*model.Task, error)
	listByRoomsFunc func(ctx context.Context, roomIDs []string, limit int, offset int64) ([]*model.Task, int64, error)
	listByDayFunc   func(ctx context.Context, day time.Time, limit int, offset int64) ([]*model.Task, int64, error)
}

func (m *mockTaskService) Create(ctx context.Context, input *model.TaskInput) (*model.Task, error) {
	return &model.Task{ID: "t1", RoomID: input.RoomID}, nil
}

func (m *mockTaskService) CreateBatch(ctx context.Context, input *model.TaskBatchInput) ([]*model.Task, error) {
	if m.createBatchFunc != nil {
		return m.createBatchFunc(ctx, input)
	}
	return []*model.Task{}, nil
}

func (m *mockTaskService) GetByID(ctx context.Context, id string) (*model.Task, error) {
	return &model.Task{ID: id}, nil
}

func (m *mockTaskService) Update(ctx context.Context, id string, input *model.TaskInput) (*model.Task, error) {
	return &model.Task{ID: id}, nil
}

func (m *mockTaskService) ChangeStatus(ctx context.Context, id string, status model.TaskStatus) (*model.Task, error) {
	return &model.Task{ID: id, Status: status}, nil
}

func (m *mockTaskService) Delete(ctx context.Context, id string) error {
	return nil
}

func (m *mockTaskService) CanScheduleForDate(ctx context.Context, day time.Time) bool {
	return true
}

func (m *mockTaskService) Capacity(ctx context.Context, day time.Time) (service.Decision, error) {
	if m.capacityFunc != nil {
		return m.capacityFunc(ctx, day)
	}
	return service.Decision{Day: day, Allowed: true}, nil
}

func (m *mockTaskService) ListByRoom(ctx context.Context, roomID string) ([]*model.Task, error) {
	if m.listByRoomFunc != nil {
		return m.listByRoomFunc(ctx, roomID)
	}
	return []*model.Task{}, nil
}

func (m *mockTaskService) ListByRooms(ctx context.Context, roomIDs []string, limit int, offset int64) ([]*model.Task, int64, error) {
	if m.listByRoomsFunc != nil {
		return m.listByRoomsFunc(ctx, roomIDs, limit, offset)
	}
	return []*model.Task{}, 0, nil
}

func (m *mockTaskService) ListByDay(ctx context.Context, day time.Time, limit int, offset int64) ([]*model.Task, int64, error) {
	if m.listByDayFunc != nil {
		return m.listByDayFunc(ctx, day, limit, offset)
	}
	return []*model.Task{}, 0, nil
}

func newRouter(svc *mockTaskService) *httprouter.Router {
	router := httprouter.New()
	NewTaskHandler(svc, logger.Discard()).RegisterRoutes(router)
	return router
}

func serve(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateBatch_CapacityExceeded(t *testing.T) {
	svc := &mockTaskService{
		createBatchFunc: func(ctx context.Context, input *model.TaskBatchInput) ([]*model.Task, error) {
			return nil, apperrors.Conflict("Daily task capacity reached").
				WithCause(taskserrors.ErrCapacityExceeded).
				WithDetail("room_count", int64(5))
		},
	}

	body := `{"room_ids":["101","102","103"],"description":"Linen change","scheduled_at":"2025-06-10T09:00:00Z"}`
	rec := serve(newRouter(svc), http.MethodPost, "/api/v1/tasks/batch", body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	var resp struct {
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp.Code != apperrors.CodeConflict || resp.Details["room_count"] != float64(5) {
		t.Errorf("unexpected body %+v", resp)
	}
}

func TestCreateBatch_DecodesScheduledAt(t *testing.T) {
	var got *model.TaskBatchInput
	svc := &mockTaskService{
		createBatchFunc: func(ctx context.Context, input *model.TaskBatchInput) ([]*model.Task, error) {
			got = input
			return []*model.Task{{ID: "t1"}, {ID: "t2"}}, nil
		},
	}

	body := `{"room_ids":["101","102"],"description":"Linen change","scheduled_at":"2025-06-10T09:00:00+02:00"}`
	rec := serve(newRouter(svc), http.MethodPost, "/api/v1/tasks/batch", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if !got.ScheduledAt.Equal(time.Date(2025, 6, 10, 7, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected scheduled_at %s", got.ScheduledAt)
	}
}

func TestCapacity(t *testing.T) {
	svc := &mockTaskService{
		capacityFunc: func(ctx context.Context, day time.Time) (service.Decision, error) {
			return service.Evaluate(day, 3, 1, 3), nil
		},
	}
	router := newRouter(svc)

	rec := serve(router, http.MethodGet, "/api/v1/tasks/capacity?date=2025-06-10", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Data CapacityResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	want := CapacityResponse{Date: "2025-06-10", Allowed: false, Existing: 3, RoomCount: 3}
	if resp.Data != want {
		t.Errorf("expected %+v, got %+v", want, resp.Data)
	}

	for _, q := range []string{"", "?date=10-06-2025"} {
		if rec := serve(router, http.MethodGet, "/api/v1/tasks/capacity"+q, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("query %q: expected 400, got %d", q, rec.Code)
		}
	}
}

func TestSearch_Dispatch(t *testing.T) {
	var called string
	var rooms []string
	svc := &mockTaskService{
		listByRoomFunc: func(ctx context.Context, roomID string) ([]*model.Task, error) {
			called = "room"
			rooms = []string{roomID}
			return []*model.Task{}, nil
		},
		listByRoomsFunc: func(ctx context.Context, roomIDs []string, limit int, offset int64) ([]*model.Task, int64, error) {
			called = "rooms"
			rooms = roomIDs
			return []*model.Task{}, 0, nil
		},
		listByDayFunc: func(ctx context.Context, day time.Time, limit int, offset int64) ([]*model.Task, int64, error) {
			called = "day:" + day.Format("2006-01-02")
			return []*model.Task{}, 0, nil
		},
	}
	router := newRouter(svc)

	tests := []struct {
		query      string
		wantStatus int
		wantCall   string
		wantRooms  []string
	}{
		{"room_id=101", http.StatusOK, "room", []string{"101"}},
		{"room_id=101&room_id=102", http.StatusOK, "rooms", []string{"101", "102"}},
		{"room_id=101,102,101", http.StatusOK, "rooms", []string{"101", "102"}},
		{"date=2025-06-10", http.StatusOK, "day:2025-06-10", nil},
		{"date=tomorrow", http.StatusBadRequest, "", nil},
		{"", http.StatusBadRequest, "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			called, rooms = "", nil
			rec := serve(router, http.MethodGet, "/api/v1/tasks/search?"+tt.query, "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if called != tt.wantCall {
				t.Errorf("expected call %q, got %q", tt.wantCall, called)
			}
			if tt.wantRooms != nil && !slices.Equal(rooms, tt.wantRooms) {
				t.Errorf("expected rooms %v, got %v", tt.wantRooms, rooms)
			}
		})
	}
}

func TestChangeStatus_BadBody(t *testing.T) {
	rec := serve(newRouter(&mockTaskService{}), http.MethodPatch, "/api/v1/tasks/id/t1/status", `status=DONE`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
