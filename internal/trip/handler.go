package trip

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tranqh/tripflow/internal/approval"
	"github.com/tranqh/tripflow/pkg/middleware"
	"github.com/tranqh/tripflow/pkg/response"
)

// Handler handles HTTP requests for trip operations.
type Handler struct {
	service *Service
}

// NewHandler creates a new trip handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for trip endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Submit)
	r.Get("/", h.List)
	r.Get("/approval", h.DecideByToken)
	r.Get("/{id}", h.GetByID)
	r.Post("/{id}/cancel", h.Cancel)
	r.Post("/{id}/approval", h.Decide)

	return r
}

// Submit handles POST /trips
// @Summary      Submit a trip request
// @Description  Register a business trip; the initial status depends on manager presence and time to departure
// @Tags         trips
// @Accept       json
// @Produce      json
// @Param        request body CreateTripRequest true "Trip submission"
// @Success      201 {object} response.APIResponse{data=Trip}
// @Failure      400 {object} response.APIResponse
// @Router       /trips [post]
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Unauthorized(w, "Missing identity")
		return
	}

	var req CreateTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	t, err := h.service.Submit(r.Context(), id.UserID, id.Email, id.Name, &req)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	response.JSON(w, http.StatusCreated, t)
}

// List handles GET /trips
// @Summary      List trips
// @Description  Users see their own trips; admins may filter any status via ?status=
// @Tags         trips
// @Produce      json
// @Param        status query string false "Status filter (admin only)"
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]Trip}
// @Router       /trips [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Unauthorized(w, "Missing identity")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	var (
		trips []*Trip
		total int
		err   error
	)
	if statusFilter := r.URL.Query().Get("status"); statusFilter != "" && id.IsAdmin() {
		status := TripStatus(statusFilter)
		if !status.IsValid() {
			response.BadRequest(w, "Invalid status filter")
			return
		}
		trips, total, err = h.service.ListByStatus(r.Context(), status, page, perPage)
	} else {
		trips, total, err = h.service.ListForUser(r.Context(), id.UserID, page, perPage)
	}
	if err != nil {
		response.InternalError(w, "Failed to list trips")
		return
	}

	page, perPage = clampPaging(page, perPage)
	meta := &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: (total + perPage - 1) / perPage,
	}
	response.JSONWithMeta(w, http.StatusOK, trips, meta)
}

// GetByID handles GET /trips/{id}
// @Summary      Get trip by ID
// @Tags         trips
// @Produce      json
// @Param        id path string true "Trip ID"
// @Success      200 {object} response.APIResponse{data=Trip}
// @Failure      404 {object} response.APIResponse
// @Router       /trips/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrTripNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get trip")
		return
	}
	response.JSON(w, http.StatusOK, t)
}

// Cancel handles POST /trips/{id}/cancel
// @Summary      Cancel a trip
// @Description  Moves a non-terminal trip to cancelled; allowed for the owner and admins
// @Tags         trips
// @Produce      json
// @Param        id path string true "Trip ID"
// @Success      200 {object} response.APIResponse{data=Trip}
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /trips/{id}/cancel [post]
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Unauthorized(w, "Missing identity")
		return
	}

	t, err := h.service.Cancel(r.Context(), chi.URLParam(r, "id"), id.UserID, id.IsAdmin())
	if err != nil {
		switch {
		case errors.Is(err, ErrTripNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotOwner):
			response.Forbidden(w, err.Error())
		case errors.Is(err, ErrNotCancellable):
			response.Conflict(w, err.Error())
		default:
			response.InternalError(w, "Failed to cancel trip")
		}
		return
	}
	response.JSON(w, http.StatusOK, t)
}

// DecideByToken handles GET /trips/approval — the emailed approval link.
// @Summary      Resolve a manager approval link
// @Description  Applies the approve/reject decision encoded in an emailed single-use link
// @Tags         trips
// @Produce      json
// @Param        token query string true "Approval token"
// @Param        action query string true "approve or reject"
// @Success      200 {object} response.APIResponse{data=Trip}
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /trips/approval [get]
func (h *Handler) DecideByToken(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	action := r.URL.Query().Get("action")
	if token == "" {
		response.BadRequest(w, "Missing token")
		return
	}

	t, err := h.service.DecideByToken(r.Context(), token, action)
	if err != nil {
		h.writeDecisionError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, t)
}

// Decide handles POST /trips/{id}/approval — the admin-console decision path.
// @Summary      Approve or reject a pending trip
// @Tags         trips
// @Accept       json
// @Produce      json
// @Param        id path string true "Trip ID"
// @Param        request body DecisionRequest true "Decision"
// @Success      200 {object} response.APIResponse{data=Trip}
// @Failure      409 {object} response.APIResponse
// @Router       /trips/{id}/approval [post]
func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok || !id.IsAdmin() {
		response.Forbidden(w, "Admin access required")
		return
	}

	var req DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	t, err := h.service.Decide(r.Context(), chi.URLParam(r, "id"), req.Action, id.Email)
	if err != nil {
		h.writeDecisionError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, t)
}

func (h *Handler) writeDecisionError(w http.ResponseWriter, err error) {
	var processed *AlreadyProcessedError
	switch {
	case errors.Is(err, ErrTripNotFound), errors.Is(err, approval.ErrTokenNotFound):
		response.NotFound(w, err.Error())
	case errors.As(err, &processed):
		response.ErrorWithDetails(w, http.StatusConflict, "ALREADY_PROCESSED", err.Error(), map[string]string{
			"currentStatus":         string(processed.TripStatus),
			"managerApprovalStatus": string(processed.ApprovalStatus),
		})
	case errors.Is(err, ErrInvalidAction):
		response.BadRequest(w, err.Error())
	default:
		response.InternalError(w, "Failed to apply decision")
	}
}
