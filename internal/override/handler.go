package override

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tranqh/tripflow/internal/trip"
	"github.com/tranqh/tripflow/pkg/middleware"
	"github.com/tranqh/tripflow/pkg/response"
)

// Handler handles HTTP requests for the manual override path. Admin-only;
// the guard is applied when the router is mounted.
type Handler struct {
	service *Service
}

// NewHandler creates a new override handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for override endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/worklist", h.Worklist)
	r.Post("/", h.Process)
	r.Get("/log", h.Log)

	return r
}

// Worklist handles GET /admin/overrides/worklist
// @Summary      List trips needing manual resolution
// @Description  Trips still awaiting a manager decision past the approval-link lifetime
// @Tags         overrides
// @Produce      json
// @Success      200 {object} response.APIResponse{data=[]trip.Trip}
// @Router       /admin/overrides/worklist [get]
func (h *Handler) Worklist(w http.ResponseWriter, r *http.Request) {
	trips, err := h.service.Worklist(r.Context())
	if err != nil {
		response.InternalError(w, "Failed to load worklist")
		return
	}
	if trips == nil {
		trips = []*trip.Trip{}
	}
	response.JSON(w, http.StatusOK, trips)
}

// Process handles POST /admin/overrides
// @Summary      Apply an admin override
// @Description  Resolves a trip in the manager's stead; exactly one of two racing calls succeeds
// @Tags         overrides
// @Accept       json
// @Produce      json
// @Param        request body Request true "Override request"
// @Success      200 {object} response.APIResponse{data=Result}
// @Failure      400 {object} response.APIResponse "validation error or inactive owner"
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse "already processed; details carry currentStatus"
// @Failure      422 {object} response.APIResponse "past departure; details carry requiresForce"
// @Router       /admin/overrides [post]
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.GetIdentity(r.Context())

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	req.AdminEmail = id.Email
	req.IPAddress = clientIP(r)
	req.UserAgent = r.UserAgent()

	result, err := h.service.Process(r.Context(), &req)
	if err != nil {
		h.writeProcessError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, result)
}

func (h *Handler) writeProcessError(w http.ResponseWriter, err error) {
	var (
		processed  *AlreadyProcessedError
		overridden *NotOverridableError
		inactive   *UserInactiveError
	)
	switch {
	case errors.Is(err, trip.ErrTripNotFound):
		response.NotFound(w, err.Error())
	case errors.As(err, &processed):
		response.ErrorWithDetails(w, http.StatusConflict, "ALREADY_PROCESSED", err.Error(), map[string]string{
			"currentStatus": string(processed.ApprovalStatus),
			"tripStatus":    string(processed.TripStatus),
		})
	case errors.As(err, &overridden):
		response.ErrorWithDetails(w, http.StatusConflict, "NOT_OVERRIDABLE", err.Error(), map[string]string{
			"currentStatus": string(overridden.Status),
		})
	case errors.Is(err, ErrRequiresForce):
		response.UnprocessableEntity(w, "REQUIRES_FORCE", err.Error(), map[string]bool{
			"requiresForce": true,
		})
	case errors.As(err, &inactive):
		response.ErrorWithDetails(w, http.StatusBadRequest, "USER_INACTIVE", err.Error(), map[string]string{
			"userStatus": "inactive",
		})
	case errors.Is(err, ErrInvalidAction), errors.Is(err, ErrReasonTooShort):
		response.BadRequest(w, err.Error())
	default:
		response.InternalError(w, "Failed to process override")
	}
}

// Log handles GET /admin/overrides/log
// @Summary      Audit trail for a trip
// @Tags         overrides
// @Produce      json
// @Param        tripId query string true "Trip ID"
// @Success      200 {object} response.APIResponse{data=[]LogEntry}
// @Router       /admin/overrides/log [get]
func (h *Handler) Log(w http.ResponseWriter, r *http.Request) {
	tripID := r.URL.Query().Get("tripId")
	if tripID == "" {
		response.BadRequest(w, "Missing tripId")
		return
	}
	entries, err := h.service.Log(r.Context(), tripID)
	if err != nil {
		response.InternalError(w, "Failed to load override log")
		return
	}
	if entries == nil {
		entries = []*LogEntry{}
	}
	response.JSON(w, http.StatusOK, entries)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
