package adaptor

import (
	"encoding/json"
	"net/http"

	"room-reservation/internal/dto/request"
	"room-reservation/internal/dto/response"
	"room-reservation/internal/usecase"
	"room-reservation/pkg/utils"

	"go.uber.org/zap"
)

const actionAdminRequests = "admin-requests"

// CalendarHandler serves /api/calendar: reads by room, user or pending queue, booking
// creation, approval decisions, blocking and cancellation.
type CalendarHandler struct {
	booking  usecase.BookingService
	approval usecase.ApprovalService
	block    usecase.BlockService
	calendar usecase.CalendarService
	log      *zap.Logger
}

func NewCalendarHandler(service *usecase.Service, log *zap.Logger) *CalendarHandler {
	return &CalendarHandler{
		booking:  service.Booking,
		approval: service.Approval,
		block:    service.Block,
		calendar: service.Calendar,
		log:      log.With(zap.String("handler", "calendar")),
	}
}

// Get handles GET /api/calendar?room_id=R | ?user_id=U | ?action=admin-requests
func (h *CalendarHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())
	query := r.URL.Query()

	switch {
	case query.Get("action") == actionAdminRequests:
		pending, err := h.calendar.PendingRequests(r.Context(), actor)
		if err != nil {
			handleServiceError(w, h.log, err, "list pending requests")
			return
		}
		utils.ResponseSuccess(w, "success", pending)

	case query.Has("room_id"):
		roomID, ok := utils.ParseID(query.Get("room_id"))
		if !ok {
			utils.ResponseBadRequest(w, "room_id must be a positive integer", nil)
			return
		}
		slots, err := h.calendar.RoomCalendar(r.Context(), actor, roomID)
		if err != nil {
			handleServiceError(w, h.log, err, "get room calendar")
			return
		}
		utils.ResponseSuccess(w, "success", slots)

	case query.Has("user_id"):
		userID, ok := utils.ParseID(query.Get("user_id"))
		if !ok {
			utils.ResponseBadRequest(w, "user_id must be a positive integer", nil)
			return
		}
		bookings, err := h.calendar.UserBookings(r.Context(), actor, userID)
		if err != nil {
			handleServiceError(w, h.log, err, "get user bookings")
			return
		}
		utils.ResponseSuccess(w, "success", bookings)

	default:
		utils.ResponseBadRequest(w, "One of room_id, user_id or action=admin-requests is required", nil)
	}
}

// Create handles POST /api/calendar
func (h *CalendarHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.booking.CreateBooking(r.Context(), actorFrom(r.Context()), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create booking")
		return
	}

	utils.ResponseCreated(w, "success", result)
}

// Update handles PUT /api/calendar (accept, reject, update_end_date)
func (h *CalendarHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req request.ApprovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	actor := actorFrom(r.Context())
	target := usecase.Target{BookingID: req.BookingID, BookingIDs: req.BookingIDs, PatternID: req.PatternID}

	var (
		result *response.ApprovalResult
		err    error
	)
	switch req.Action {
	case request.ActionAccept:
		result, err = h.approval.Accept(r.Context(), actor, target)
	case request.ActionReject:
		result, err = h.approval.Reject(r.Context(), actor, target)
	case request.ActionUpdateEndDate:
		result, err = h.approval.UpdateSeriesEndDate(r.Context(), actor, req.PatternID, req.EndDate)
	}
	if err != nil {
		handleServiceError(w, h.log, err, req.Action+" booking")
		return
	}

	utils.ResponseSuccess(w, "success", result)
}

// Patch handles PATCH /api/calendar: {action: "unblock", timeslot_id} or a block request
func (h *CalendarHandler) Patch(w http.ResponseWriter, r *http.Request) {
	var req request.SlotPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	actor := actorFrom(r.Context())

	switch req.Action {
	case request.ActionUnblock:
		slot, err := h.block.UnblockSlot(r.Context(), actor, req.TimeslotID)
		if err != nil {
			handleServiceError(w, h.log, err, "unblock slot")
			return
		}
		utils.ResponseSuccess(w, "success", slot)

	case request.ActionBlock, "":
		slot, err := h.block.BlockSlot(r.Context(), actor, req.Block())
		if err != nil {
			handleServiceError(w, h.log, err, "block slot")
			return
		}
		utils.ResponseCreated(w, "success", slot)

	default:
		utils.ResponseBadRequest(w, "action must be one of: block, unblock", nil)
	}
}

// Delete handles DELETE /api/calendar?booking_id=B | ?pattern_id=P
func (h *CalendarHandler) Delete(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var target usecase.Target
	if query.Has("booking_id") {
		id, ok := utils.ParseID(query.Get("booking_id"))
		if !ok {
			utils.ResponseBadRequest(w, "booking_id must be a positive integer", nil)
			return
		}
		target.BookingID = id
	}
	if query.Has("pattern_id") {
		id, ok := utils.ParseID(query.Get("pattern_id"))
		if !ok {
			utils.ResponseBadRequest(w, "pattern_id must be a positive integer", nil)
			return
		}
		target.PatternID = id
	}

	result, err := h.approval.Cancel(r.Context(), actorFrom(r.Context()), target)
	if err != nil {
		handleServiceError(w, h.log, err, "cancel booking")
		return
	}

	utils.ResponseSuccess(w, "success", result)
}
