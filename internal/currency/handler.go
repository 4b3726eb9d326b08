package currency

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/dutchpay/pkg/apperror"
	"github.com/fkhayef/dutchpay/pkg/response"
)

// RateResponse is the body returned by GET /rates
type RateResponse struct {
	Date string  `json:"date"`
	From Code    `json:"from"`
	To   Code    `json:"to"`
	Rate float64 `json:"rate"`
}

// Handler exposes rate lookups over HTTP
type Handler struct {
	source   RateSource
	location *time.Location
}

// NewHandler creates a new rate handler
func NewHandler(source RateSource, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{source: source, location: loc}
}

// Routes returns the router for rate endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Get)
	return r
}

// Get handles GET /rates
// @Summary      Look up an exchange rate
// @Description  Returns the multiplier converting one unit of "from" into "to" on the given day. Future dates use the latest rate.
// @Tags         rates
// @Produce      json
// @Param        date query string false "Day (YYYY-MM-DD), defaults to today"
// @Param        from query string true "Source currency" Enums(JPY, KRW, USD)
// @Param        to query string true "Target currency" Enums(JPY, KRW, USD)
// @Success      200 {object} response.APIResponse{data=RateResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      502 {object} response.APIResponse
// @Router       /rates [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from, err := ParseCode(q.Get("from"))
	if err != nil {
		response.FromError(w, err)
		return
	}
	to, err := ParseCode(q.Get("to"))
	if err != nil {
		response.FromError(w, err)
		return
	}

	date := time.Now().In(h.location)
	if raw := q.Get("date"); raw != "" {
		date, err = time.ParseInLocation(DateLayout, raw, h.location)
		if err != nil {
			response.FromError(w, apperror.Validation("date must be YYYY-MM-DD"))
			return
		}
	}

	rate, err := Resolve(r.Context(), h.source, date, from, to, nil)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, RateResponse{
		Date: date.Format(DateLayout),
		From: from,
		To:   to,
		Rate: rate,
	})
}
