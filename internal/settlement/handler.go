package settlement

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fkhayef/dutchpay/internal/currency"
	"github.com/fkhayef/dutchpay/pkg/middleware"
	"github.com/fkhayef/dutchpay/pkg/response"
)

// Handler handles HTTP requests for settlement operations
type Handler struct {
	service *Service
}

// NewHandler creates a new settlement handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for settlement endpoints. expenseRoutes is
// mounted at /{id}/expenses when not nil.
func (h *Handler) Routes(expenseRoutes http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.GetByID)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	// Lifecycle
	r.Post("/{id}/complete", h.Complete)
	r.Post("/{id}/reopen", h.Reopen)
	r.Get("/{id}/summary", h.Summary)

	if expenseRoutes != nil {
		r.Mount("/{id}/expenses", expenseRoutes)
	}

	return r
}

// Create handles POST /settlements
// @Summary      Create a settlement
// @Description  Start an open settlement. Participants default to A and B, the base currency to JPY and the date to today.
// @Tags         settlements
// @Accept       json
// @Produce      json
// @Param        request body CreateSettlementRequest true "Settlement creation request"
// @Success      201 {object} response.APIResponse{data=SettlementResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /settlements [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.GetOwnerID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req CreateSettlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	s, err := h.service.Create(r.Context(), ownerID, &req)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, s.ToResponse())
}

// List handles GET /settlements
// @Summary      List settlements
// @Description  Get a paginated list of your settlements, newest first
// @Tags         settlements
// @Produce      json
// @Param        date query string false "Only settlements on this day (YYYY-MM-DD)"
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]SettlementResponse}
// @Router       /settlements [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.GetOwnerID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > maxPerPage {
		perPage = defaultPerPage
	}

	filter := Filter{Page: page, PerPage: perPage}
	if raw := r.URL.Query().Get("date"); raw != "" {
		date, err := time.Parse(currency.DateLayout, raw)
		if err != nil {
			response.BadRequest(w, "Invalid date, expected YYYY-MM-DD")
			return
		}
		filter.Date = &date
	}

	settlements, total, err := h.service.List(r.Context(), ownerID, filter)
	if err != nil {
		response.FromError(w, err)
		return
	}

	out := make([]*SettlementResponse, len(settlements))
	for i, s := range settlements {
		out[i] = s.ToResponse()
	}

	response.JSONWithMeta(w, http.StatusOK, out, response.NewMeta(page, perPage, total))
}

// GetByID handles GET /settlements/{id}
// @Summary      Get settlement by ID
// @Description  Get a settlement with all its expenses
// @Tags         settlements
// @Produce      json
// @Param        id path string true "Settlement ID"
// @Success      200 {object} response.APIResponse{data=SettlementResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /settlements/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	ownerID, id, ok := h.target(w, r)
	if !ok {
		return
	}

	s, err := h.service.Get(r.Context(), ownerID, id)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, s.ToResponse())
}

// Update handles PUT /settlements/{id}
// @Summary      Update a settlement
// @Description  Change the title and/or date. Participants and base currency cannot change.
// @Tags         settlements
// @Accept       json
// @Produce      json
// @Param        id path string true "Settlement ID"
// @Param        request body UpdateSettlementRequest true "Fields to change"
// @Success      200 {object} response.APIResponse{data=SettlementResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /settlements/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	ownerID, id, ok := h.target(w, r)
	if !ok {
		return
	}

	var req UpdateSettlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	s, err := h.service.Update(r.Context(), ownerID, id, &req)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, s.ToResponse())
}

// Delete handles DELETE /settlements/{id}
// @Summary      Delete a settlement
// @Description  Permanently delete a settlement and all its expenses
// @Tags         settlements
// @Param        id path string true "Settlement ID"
// @Success      200 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /settlements/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, id, ok := h.target(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), ownerID, id); err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Settlement deleted successfully"})
}

// Complete handles POST /settlements/{id}/complete
// @Summary      Complete a settlement
// @Description  Mark an open settlement as settled and return the transfers that settle it
// @Tags         settlements
// @Produce      json
// @Param        id path string true "Settlement ID"
// @Success      200 {object} response.APIResponse{data=Summary}
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /settlements/{id}/complete [post]
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	ownerID, id, ok := h.target(w, r)
	if !ok {
		return
	}

	summary, err := h.service.Complete(r.Context(), ownerID, id)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, summary)
}

// Reopen handles POST /settlements/{id}/reopen
// @Summary      Reopen a settlement
// @Tags         settlements
// @Produce      json
// @Param        id path string true "Settlement ID"
// @Success      200 {object} response.APIResponse{data=SettlementResponse}
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /settlements/{id}/reopen [post]
func (h *Handler) Reopen(w http.ResponseWriter, r *http.Request) {
	ownerID, id, ok := h.target(w, r)
	if !ok {
		return
	}

	s, err := h.service.Reopen(r.Context(), ownerID, id)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, s.ToResponse())
}

// Summary handles GET /settlements/{id}/summary
// @Summary      Settlement summary
// @Description  Per-participant totals and the transfers that settle all balances
// @Tags         settlements
// @Produce      json
// @Param        id path string true "Settlement ID"
// @Success      200 {object} response.APIResponse{data=Summary}
// @Failure      404 {object} response.APIResponse
// @Router       /settlements/{id}/summary [get]
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	ownerID, id, ok := h.target(w, r)
	if !ok {
		return
	}

	summary, err := h.service.Summary(r.Context(), ownerID, id)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, summary)
}

// target reads the owner and the {id} path parameter, writing an error
// response when either is missing
func (h *Handler) target(w http.ResponseWriter, r *http.Request) (string, uuid.UUID, bool) {
	ownerID, ok := middleware.GetOwnerID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return "", uuid.Nil, false
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid settlement ID")
		return "", uuid.Nil, false
	}

	return ownerID, id, true
}
