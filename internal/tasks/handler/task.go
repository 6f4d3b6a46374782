package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"hotelops/internal/calendar"
	"hotelops/internal/tasks/service"
	apperrors "hotelops/pkg/errors"
	httputil "hotelops/pkg/http"
	"hotelops/pkg/logger"
	"hotelops/pkg/model"
	"hotelops/pkg/sanitizer"

	"github.com/julienschmidt/httprouter"
)

type TaskHandler struct {
	service service.TaskService
	log     *logger.Logger
}

func NewTaskHandler(service service.TaskService, log *logger.Logger) *TaskHandler {
	return &TaskHandler{
		service: service,
		log:     log,
	}
}

type CapacityResponse struct {
	Date      string `json:"date"`
	Allowed   bool   `json:"allowed"`
	Existing  int64  `json:"existing"`
	RoomCount int64  `json:"room_count"`
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input model.TaskInput
	if !h.decode(w, r, "Create", &input) {
		return
	}

	task, err := h.service.Create(r.Context(), &input)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, task); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *TaskHandler) CreateBatch(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input model.TaskBatchInput
	if !h.decode(w, r, "CreateBatch", &input) {
		return
	}

	tasks, err := h.service.CreateBatch(r.Context(), &input)
	if err != nil {
		h.writeError(w, "CreateBatch", err)
		return
	}

	if err := httputil.WriteCreated(w, tasks); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateBatch", "operation", "WriteCreated", "error", err)
	}
}

func (h *TaskHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	task, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, task); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var input model.TaskInput
	if !h.decode(w, r, "Update", &input) {
		return
	}

	task, err := h.service.Update(r.Context(), ps.ByName("id"), &input)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, task); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *TaskHandler) ChangeStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var change model.TaskStatusChange
	if !h.decode(w, r, "ChangeStatus", &change) {
		return
	}
	status := model.TaskStatus(strings.ToUpper(strings.TrimSpace(string(change.Status))))

	task, err := h.service.ChangeStatus(r.Context(), ps.ByName("id"), status)
	if err != nil {
		h.writeError(w, "ChangeStatus", err)
		return
	}

	if err := httputil.WriteSuccess(w, task); err != nil {
		h.log.Error("failed to write success response", "handler", "ChangeStatus", "operation", "WriteSuccess", "error", err)
	}
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *TaskHandler) Capacity(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	raw, err := httputil.RequiredQuery(r, "date")
	if err != nil {
		h.writeError(w, "Capacity", err)
		return
	}
	day, err := calendar.ParseDate(raw)
	if err != nil {
		h.writeError(w, "Capacity", apperrors.InvalidInput("invalid date parameter, must be YYYY-MM-DD: "+raw))
		return
	}

	decision, err := h.service.Capacity(r.Context(), day)
	if err != nil {
		h.writeError(w, "Capacity", err)
		return
	}

	if err := httputil.WriteSuccess(w, CapacityResponse{
		Date:      calendar.FormatDate(day),
		Allowed:   decision.Allowed,
		Existing:  decision.Existing,
		RoomCount: decision.RoomCount,
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "Capacity", "operation", "WriteSuccess", "error", err)
	}
}

// Search lists by room (room_id may repeat or hold a comma separated list) or
// by date. A single room is served from the room cache.
func (h *TaskHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()

	var roomIDs []string
	for _, v := range query["room_id"] {
		roomIDs = append(roomIDs, strings.Split(v, ",")...)
	}
	roomIDs = sanitizer.NormalizeIDs(roomIDs)

	if len(roomIDs) == 1 {
		tasks, err := h.service.ListByRoom(r.Context(), roomIDs[0])
		if err != nil {
			h.writeError(w, "Search", err)
			return
		}
		if err := httputil.WriteSuccess(w, tasks); err != nil {
			h.log.Error("failed to write success response", "handler", "Search", "operation", "WriteSuccess", "error", err)
		}
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	var tasks []*model.Task
	var total int64
	switch {
	case len(roomIDs) > 1:
		tasks, total, err = h.service.ListByRooms(r.Context(), roomIDs, limit, offset)
	case query.Get("date") != "":
		day, parseErr := calendar.ParseDate(strings.TrimSpace(query.Get("date")))
		if parseErr != nil {
			h.writeError(w, "Search", apperrors.InvalidInput("invalid date parameter, must be YYYY-MM-DD: "+query.Get("date")))
			return
		}
		tasks, total, err = h.service.ListByDay(r.Context(), day, limit, offset)
	default:
		h.writeError(w, "Search", apperrors.InvalidInput("either 'room_id' or 'date' query parameter is required"))
		return
	}
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	if err := httputil.WritePaginated(w, tasks, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "Search", "operation", "WritePaginated", "error", err)
	}
}

func (h *TaskHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/tasks", h.Create)
	router.POST("/api/v1/tasks/batch", h.CreateBatch)
	router.GET("/api/v1/tasks/id/:id", h.GetByID)
	router.PUT("/api/v1/tasks/id/:id", h.Update)
	router.PATCH("/api/v1/tasks/id/:id/status", h.ChangeStatus)
	router.DELETE("/api/v1/tasks/id/:id", h.Delete)
	router.GET("/api/v1/tasks/capacity", h.Capacity)
	router.GET("/api/v1/tasks/search", h.Search)
}

func (h *TaskHandler) decode(w http.ResponseWriter, r *http.Request, handler string, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", handler, "operation", "WriteJSON", "error", writeErr)
		}
		return false
	}
	return true
}

func (h *TaskHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
