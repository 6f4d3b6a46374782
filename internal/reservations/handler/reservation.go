package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"hotelops/internal/calendar"
	"hotelops/internal/reservations/service"
	apperrors "hotelops/pkg/errors"
	httputil "hotelops/pkg/http"
	"hotelops/pkg/logger"
	"hotelops/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ReservationHandler struct {
	service service.ReservationService
	log     *logger.Logger
}

func NewReservationHandler(service service.ReservationService, log *logger.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: service,
		log:     log,
	}
}

type AvailabilityResponse struct {
	RoomID       string `json:"room_id"`
	CheckInDate  string `json:"check_in_date"`
	CheckOutDate string `json:"check_out_date"`
	ExcludeID    string `json:"exclude_id,omitempty"`
	Available    bool   `json:"available"`
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input model.ReservationInput
	if !h.decode(w, r, "Create", &input) {
		return
	}

	reservation, err := h.service.Create(r.Context(), &input)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, reservation); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *ReservationHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	reservation, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, reservation); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var input model.ReservationInput
	if !h.decode(w, r, "Update", &input) {
		return
	}

	reservation, err := h.service.Update(r.Context(), ps.ByName("id"), &input)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, reservation); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) ChangeStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var change model.ReservationStatusChange
	if !h.decode(w, r, "ChangeStatus", &change) {
		return
	}
	status := model.ReservationStatus(strings.ToUpper(strings.TrimSpace(string(change.Status))))

	reservation, err := h.service.ChangeStatus(r.Context(), ps.ByName("id"), status)
	if err != nil {
		h.writeError(w, "ChangeStatus", err)
		return
	}

	if err := httputil.WriteSuccess(w, reservation); err != nil {
		h.log.Error("failed to write success response", "handler", "ChangeStatus", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ReservationHandler) Availability(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	roomID, err := httputil.RequiredQuery(r, "room_id")
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}
	checkIn, err := dateQuery(r, "check_in")
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}
	checkOut, err := dateQuery(r, "check_out")
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}
	excludeID := strings.TrimSpace(r.URL.Query().Get("exclude_id"))

	available := h.service.IsRoomAvailable(r.Context(), roomID, checkIn, checkOut, excludeID)

	if err := httputil.WriteSuccess(w, AvailabilityResponse{
		RoomID:       roomID,
		CheckInDate:  calendar.FormatDate(checkIn),
		CheckOutDate: calendar.FormatDate(checkOut),
		ExcludeID:    excludeID,
		Available:    available,
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "Availability", "operation", "WriteSuccess", "error", err)
	}
}

// Search lists by room_id, by status, or by the from/to period, in that order
// of precedence.
func (h *ReservationHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()

	if roomID := strings.TrimSpace(query.Get("room_id")); roomID != "" {
		reservations, err := h.service.ListByRoom(r.Context(), roomID)
		if err != nil {
			h.writeError(w, "Search", err)
			return
		}
		if err := httputil.WriteSuccess(w, reservations); err != nil {
			h.log.Error("failed to write success response", "handler", "Search", "operation", "WriteSuccess", "error", err)
		}
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	var reservations []*model.Reservation
	var total int64
	switch {
	case query.Get("status") != "":
		status := model.ReservationStatus(strings.ToUpper(strings.TrimSpace(query.Get("status"))))
		reservations, total, err = h.service.ListByStatus(r.Context(), status, limit, offset)
	case query.Get("from") != "" || query.Get("to") != "":
		from, fromErr := dateQuery(r, "from")
		if fromErr != nil {
			h.writeError(w, "Search", fromErr)
			return
		}
		to, toErr := dateQuery(r, "to")
		if toErr != nil {
			h.writeError(w, "Search", toErr)
			return
		}
		reservations, total, err = h.service.ListInPeriod(r.Context(), from, to, limit, offset)
	default:
		h.writeError(w, "Search", apperrors.InvalidInput("one of 'room_id', 'status' or 'from'/'to' query parameters is required"))
		return
	}
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	if err := httputil.WritePaginated(w, reservations, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "Search", "operation", "WritePaginated", "error", err)
	}
}

func (h *ReservationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/reservations", h.Create)
	router.GET("/api/v1/reservations/id/:id", h.GetByID)
	router.PUT("/api/v1/reservations/id/:id", h.Update)
	router.PATCH("/api/v1/reservations/id/:id/status", h.ChangeStatus)
	router.DELETE("/api/v1/reservations/id/:id", h.Delete)
	router.GET("/api/v1/reservations/availability", h.Availability)
	router.GET("/api/v1/reservations/search", h.Search)
}

func (h *ReservationHandler) decode(w http.ResponseWriter, r *http.Request, handler string, v any) bool {
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

func (h *ReservationHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func dateQuery(r *http.Request, name string) (time.Time, error) {
	raw, err := httputil.RequiredQuery(r, name)
	if err != nil {
		return time.Time{}, err
	}
	day, err := calendar.ParseDate(raw)
	if err != nil {
		return time.Time{}, apperrors.InvalidInput("invalid " + name + " parameter, must be YYYY-MM-DD: " + raw)
	}
	return day, nil
}
