package joinrequest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tranqh/tripflow/internal/trip"
	"github.com/tranqh/tripflow/pkg/middleware"
	"github.com/tranqh/tripflow/pkg/response"
)

// Handler handles HTTP requests for join request operations.
type Handler struct {
	service *Service
}

// NewHandler creates a new join request handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for join request endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.ListByTrip)
	r.Get("/{id}", h.GetByID)
	r.Post("/{id}/approve", h.Approve)
	r.Post("/{id}/reject", h.Reject)
	r.Post("/{id}/cancel", h.Cancel)

	return r
}

// Create handles POST /join-requests
// @Summary      Request a seat on an approved solo trip
// @Tags         join-requests
// @Accept       json
// @Produce      json
// @Param        request body CreateRequest true "Join request"
// @Success      201 {object} response.APIResponse{data=JoinRequest}
// @Failure      409 {object} response.APIResponse "duplicate pending request"
// @Router       /join-requests [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Unauthorized(w, "Missing identity")
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	jr, err := h.service.Create(r.Context(), id.UserID, id.Email, id.Name, &req)
	if err != nil {
		var notJoinable *NotJoinableError
		switch {
		case errors.Is(err, trip.ErrTripNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrDuplicateRequest):
			response.Conflict(w, err.Error())
		case errors.Is(err, ErrOwnTrip):
			response.BadRequest(w, err.Error())
		case errors.As(err, &notJoinable):
			response.ErrorWithDetails(w, http.StatusConflict, "NOT_JOINABLE", err.Error(), map[string]string{
				"currentStatus": notJoinable.TripStatus,
			})
		default:
			response.InternalError(w, "Failed to create join request")
		}
		return
	}

	response.JSON(w, http.StatusCreated, jr)
}

// ListByTrip handles GET /join-requests?tripId=
// @Summary      List join requests for a trip
// @Tags         join-requests
// @Produce      json
// @Param        tripId query string true "Trip ID"
// @Success      200 {object} response.APIResponse{data=[]JoinRequest}
// @Router       /join-requests [get]
func (h *Handler) ListByTrip(w http.ResponseWriter, r *http.Request) {
	tripID := r.URL.Query().Get("tripId")
	if tripID == "" {
		response.BadRequest(w, "Missing tripId")
		return
	}
	requests, err := h.service.ListByTrip(r.Context(), tripID)
	if err != nil {
		response.InternalError(w, "Failed to list join requests")
		return
	}
	if requests == nil {
		requests = []*JoinRequest{}
	}
	response.JSON(w, http.StatusOK, requests)
}

// GetByID handles GET /join-requests/{id}
// @Summary      Get a join request
// @Tags         join-requests
// @Produce      json
// @Param        id path int true "Join request ID"
// @Success      200 {object} response.APIResponse{data=JoinRequest}
// @Failure      404 {object} response.APIResponse
// @Router       /join-requests/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid join request ID")
		return
	}
	jr, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrRequestNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get join request")
		return
	}
	response.JSON(w, http.StatusOK, jr)
}

// Approve handles POST /join-requests/{id}/approve (admin)
// @Summary      Approve a join request
// @Description  Adds the requester as a rider on the target trip; trip state and capacity are re-checked under the row lock
// @Tags         join-requests
// @Accept       json
// @Produce      json
// @Param        id path int true "Join request ID"
// @Param        request body ResolveRequest false "Optional admin notes"
// @Success      200 {object} response.APIResponse{data=JoinRequest}
// @Failure      409 {object} response.APIResponse
// @Router       /join-requests/{id}/approve [post]
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, true)
}

// Reject handles POST /join-requests/{id}/reject (admin)
// @Summary      Reject a join request
// @Description  Requires non-empty admin notes; the target trip is untouched
// @Tags         join-requests
// @Accept       json
// @Produce      json
// @Param        id path int true "Join request ID"
// @Param        request body ResolveRequest true "Admin notes (required)"
// @Success      200 {object} response.APIResponse{data=JoinRequest}
// @Failure      400 {object} response.APIResponse
// @Router       /join-requests/{id}/reject [post]
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, false)
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request, approve bool) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok || !identity.IsAdmin() {
		response.Forbidden(w, "Admin access required")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid join request ID")
		return
	}

	var req ResolveRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req) // notes are optional on approve
	}

	var jr *JoinRequest
	if approve {
		jr, err = h.service.Approve(r.Context(), id, req.AdminNotes, identity.Email)
	} else {
		jr, err = h.service.Reject(r.Context(), id, req.AdminNotes, identity.Email)
	}
	if err != nil {
		h.writeResolveError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, jr)
}

// Cancel handles POST /join-requests/{id}/cancel
// @Summary      Cancel own pending join request
// @Tags         join-requests
// @Produce      json
// @Param        id path int true "Join request ID"
// @Success      200 {object} response.APIResponse{data=JoinRequest}
// @Failure      409 {object} response.APIResponse
// @Router       /join-requests/{id}/cancel [post]
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Unauthorized(w, "Missing identity")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid join request ID")
		return
	}

	jr, err := h.service.Cancel(r.Context(), id, identity.UserID)
	if err != nil {
		h.writeResolveError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, jr)
}

func (h *Handler) writeResolveError(w http.ResponseWriter, err error) {
	var (
		resolved    *AlreadyResolvedError
		notJoinable *NotJoinableError
	)
	switch {
	case errors.Is(err, ErrRequestNotFound), errors.Is(err, trip.ErrTripNotFound):
		response.NotFound(w, err.Error())
	case errors.As(err, &resolved):
		response.ErrorWithDetails(w, http.StatusConflict, "ALREADY_RESOLVED", err.Error(), map[string]string{
			"currentStatus": string(resolved.Status),
		})
	case errors.As(err, &notJoinable):
		response.ErrorWithDetails(w, http.StatusConflict, "NOT_JOINABLE", err.Error(), map[string]string{
			"currentStatus": notJoinable.TripStatus,
		})
	case errors.Is(err, ErrTripFull):
		response.Conflict(w, err.Error())
	case errors.Is(err, ErrNotesRequired):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrNotRequester):
		response.Forbidden(w, err.Error())
	default:
		response.InternalError(w, "Failed to resolve join request")
	}
}
