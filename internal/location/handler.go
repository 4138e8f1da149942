package location

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tranqh/tripflow/pkg/response"
)

// Handler serves the read-only reference data trip forms need.
type Handler struct{}

// NewHandler creates a new location handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Routes returns the router for location endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	return r
}

type locationInfo struct {
	Code Code   `json:"code"`
	Name string `json:"name"`
}

type referenceData struct {
	Locations []locationInfo `json:"locations"`
	Vehicles  []Tier         `json:"vehicles"`
}

// List handles GET /locations
// @Summary      List locations and vehicle tiers
// @Tags         locations
// @Produce      json
// @Success      200 {object} response.APIResponse
// @Router       /locations [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	codes := All()
	data := referenceData{
		Locations: make([]locationInfo, len(codes)),
		Vehicles:  Tiers(),
	}
	for i, c := range codes {
		data.Locations[i] = locationInfo{Code: c, Name: c.DisplayName()}
	}
	response.JSON(w, http.StatusOK, data)
}
