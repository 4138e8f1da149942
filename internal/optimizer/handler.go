package optimizer

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

// Handler handles HTTP requests for optimizer operations. All routes are
// admin-only; the guard is applied when the router is mounted.
type Handler struct {
	service *Service
}

// NewHandler creates a new optimizer handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for optimizer endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/proposals", h.Proposals)
	r.Post("/proposals/accept", h.Accept)
	r.Get("/groups", h.ListGroups)
	r.Get("/groups/{id}", h.GetGroup)

	return r
}

// Proposals handles GET /optimizer/proposals
// @Summary      Preview optimization proposals
// @Description  Clusters approved trips into shared-vehicle proposals ordered by descending savings; nothing is written
// @Tags         optimizer
// @Produce      json
// @Success      200 {object} response.APIResponse{data=[]Proposal}
// @Router       /optimizer/proposals [get]
func (h *Handler) Proposals(w http.ResponseWriter, r *http.Request) {
	proposals, err := h.service.Preview(r.Context())
	if err != nil {
		response.InternalError(w, "Failed to compute proposals")
		return
	}
	if proposals == nil {
		proposals = []*Proposal{}
	}
	response.JSON(w, http.StatusOK, proposals)
}

// Accept handles POST /optimizer/proposals/accept
// @Summary      Accept a proposal
// @Description  Atomically commits a proposal: group row plus all member trip updates, or nothing
// @Tags         optimizer
// @Accept       json
// @Produce      json
// @Param        request body AcceptProposalRequest true "Member trip ids"
// @Success      201 {object} response.APIResponse{data=Group}
// @Failure      409 {object} response.APIResponse
// @Failure      422 {object} response.APIResponse
// @Router       /optimizer/proposals/accept [post]
func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.GetIdentity(r.Context())

	var req AcceptProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	group, err := h.service.Accept(r.Context(), &req, id.Email)
	if err != nil {
		var notOpt *NotOptimizableError
		switch {
		case errors.Is(err, trip.ErrTripNotFound):
			response.NotFound(w, err.Error())
		case errors.As(err, &notOpt):
			response.ErrorWithDetails(w, http.StatusConflict, "NOT_OPTIMIZABLE", err.Error(), map[string]string{
				"tripId":        notOpt.TripID,
				"currentStatus": string(notOpt.Status),
			})
		case errors.Is(err, ErrTooFewMembers), errors.Is(err, ErrRouteMismatch),
			errors.Is(err, ErrOverCapacity), errors.Is(err, ErrWaitExceeded),
			errors.Is(err, ErrBelowThreshold), errors.Is(err, ErrMissingCost):
			response.UnprocessableEntity(w, "PROPOSAL_INVALID", err.Error(), nil)
		default:
			response.InternalError(w, "Failed to accept proposal")
		}
		return
	}

	response.JSON(w, http.StatusCreated, group)
}

// ListGroups handles GET /optimizer/groups
// @Summary      List committed optimization groups
// @Tags         optimizer
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]Group}
// @Router       /optimizer/groups [get]
func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	groups, total, err := h.service.ListGroups(r.Context(), page, perPage)
	if err != nil {
		response.InternalError(w, "Failed to list groups")
		return
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	meta := &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: (total + perPage - 1) / perPage,
	}
	response.JSONWithMeta(w, http.StatusOK, groups, meta)
}

// GetGroup handles GET /optimizer/groups/{id}
// @Summary      Get an optimization group
// @Tags         optimizer
// @Produce      json
// @Param        id path string true "Group ID"
// @Success      200 {object} response.APIResponse{data=Group}
// @Failure      404 {object} response.APIResponse
// @Router       /optimizer/groups/{id} [get]
func (h *Handler) GetGroup(w http.ResponseWriter, r *http.Request) {
	g, err := h.service.GetGroup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrGroupNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get group")
		return
	}
	response.JSON(w, http.StatusOK, g)
}
