package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fkhayef/dutchpay/pkg/apperror"
)

// DateLayout is the calendar-day format used for rate dates
const DateLayout = "2006-01-02"

// RateSource returns the multiplier that converts one unit of from into to,
// as published for the given day.
type RateSource interface {
	Rate(ctx context.Context, date time.Time, from, to Code) (float64, error)
}

// Resolve decides the exchange rate for an expense. Same-currency expenses
// always use 1. An override supplied by the user wins over a lookup.
func Resolve(ctx context.Context, src RateSource, date time.Time, from, base Code, override *float64) (float64, error) {
	if from == base {
		return 1, nil
	}
	if override != nil {
		if !validRate(*override) {
			return 0, apperror.Validation("exchange rate must be a positive number")
		}
		return *override, nil
	}
	if src == nil {
		return 0, fmt.Errorf("%w: no rate source configured", apperror.ErrRateUnavailable)
	}

	rate, err := src.Rate(ctx, date, from, base)
	if err != nil {
		return 0, err
	}
	return rate, nil
}

// HTTPSource fetches rates from a Frankfurter-compatible API:
// GET {base}/{YYYY-MM-DD|latest}?from=X&to=Y
type HTTPSource struct {
	baseURL  string
	client   *http.Client
	location *time.Location
	now      func() time.Time
}

// NewHTTPSource creates a source for the API at baseURL. loc decides which
// calendar day counts as today.
func NewHTTPSource(baseURL string, timeout time.Duration, loc *time.Location) *HTTPSource {
	if loc == nil {
		loc = time.UTC
	}
	return &HTTPSource{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		location: loc,
		now:      time.Now,
	}
}

type rateResponse struct {
	Base  string                     `json:"base"`
	Date  string                     `json:"date"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// Rate implements RateSource. Dates after today ask for the latest rate.
func (s *HTTPSource) Rate(ctx context.Context, date time.Time, from, to Code) (float64, error) {
	endpoint := s.baseURL + "/" + s.pathFor(date) + "?" + url.Values{
		"from": {string(from)},
		"to":   {string(to)},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", apperror.ErrRateUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Warn("Rate lookup failed", "from", from, "to", to, "error", err)
		return 0, fmt.Errorf("%w: %v", apperror.ErrRateUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Warn("Rate lookup rejected", "from", from, "to", to, "status", resp.StatusCode)
		return 0, fmt.Errorf("%w: rate api returned %d", apperror.ErrRateUnavailable, resp.StatusCode)
	}

	var body rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("%w: decode response: %v", apperror.ErrRateUnavailable, err)
	}

	rate, ok := body.Rates[string(to)]
	if !ok || !rate.IsPositive() {
		return 0, fmt.Errorf("%w: no %s rate for %s", apperror.ErrRateUnavailable, to, from)
	}

	return rate.InexactFloat64(), nil
}

func (s *HTTPSource) pathFor(date time.Time) string {
	today := s.now().In(s.location).Format(DateLayout)
	day := date.Format(DateLayout)
	if date.IsZero() || day > today {
		return "latest"
	}
	return day
}
