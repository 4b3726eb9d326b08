package expense

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/dutchpay/internal/currency"
	"github.com/fkhayef/dutchpay/internal/expense/split"
	"github.com/fkhayef/dutchpay/pkg/apperror"
	"github.com/fkhayef/dutchpay/pkg/middleware"
	"github.com/fkhayef/dutchpay/pkg/response"
)

func newRouter(svc *Service) http.Handler {
	h := NewHandler(svc)
	r := chi.NewRouter()
	r.Use(middleware.DevOwnerMiddleware)
	r.Mount("/settlements/{id}/expenses", h.SettlementRoutes())
	r.Mount("/expenses", h.Routes())
	return r
}

func TestHandler_Routes(t *testing.T) {
	store, rates := new(MockStore), new(MockRates)
	parent := newParent()
	existing := &Expense{
		ID:              uuid.New(),
		SettlementID:    parent.ID,
		Name:            "Lunch",
		OriginalAmount:  1000,
		Currency:        currency.JPY,
		ExchangeRate:    1,
		ConvertedAmount: 1000,
		Payer:           "A",
		SplitMethod:     split.MethodEqual,
		Shares:          split.Shares{"A": 500, "B": 500},
	}
	missing := uuid.New()

	store.On("GetParent", mock.Anything, parent.ID).Return(parent, nil)
	store.On("GetParent", mock.Anything, missing).Return(nil, nil)
	store.On("GetByID", mock.Anything, existing.ID).Return(existing, nil)
	store.On("GetByID", mock.Anything, missing).Return(nil, nil)
	store.On("Create", mock.Anything, mock.Anything).Return(existing, nil)
	store.On("Update", mock.Anything, mock.Anything).Return(existing, nil)
	store.On("Delete", mock.Anything, existing).Return(true, nil)
	store.On("ListBySettlement", mock.Anything, parent.ID).Return([]*Expense{existing}, nil)
	rates.On("Rate", mock.Anything, parent.Date, currency.USD, currency.JPY).
		Return(0.0, fmt.Errorf("%w: upstream returned 503", apperror.ErrRateUnavailable))

	router := newRouter(NewService(store, rates, nil))
	base := "/settlements/" + parent.ID.String() + "/expenses/"
	item := "/expenses/" + existing.ID.String()

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"add", http.MethodPost, base, `{"name":"Lunch","amount":1000,"payer":"A","split_method":"equal"}`, http.StatusCreated, ""},
		{"add bad settlement id", http.MethodPost, "/settlements/nope/expenses/", `{}`, http.StatusBadRequest, "BAD_REQUEST"},
		{"add bad body", http.MethodPost, base, `{"name":`, http.StatusBadRequest, "BAD_REQUEST"},
		{"add unknown payer", http.MethodPost, base, `{"name":"Lunch","amount":1000,"payer":"Z"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"add manual mismatch", http.MethodPost, base,
			`{"name":"Museum","amount":1000,"payer":"A","split_method":"amount","manual_amounts":{"A":600,"B":398}}`,
			http.StatusUnprocessableEntity, "SPLIT_MISMATCH"},
		{"add rate unavailable", http.MethodPost, base,
			`{"name":"Taxi","amount":20,"currency":"USD","payer":"A"}`,
			http.StatusBadGateway, "RATE_UNAVAILABLE"},
		{"add to missing settlement", http.MethodPost, "/settlements/" + missing.String() + "/expenses/",
			`{"name":"Lunch","amount":1000,"payer":"A"}`, http.StatusNotFound, "NOT_FOUND"},
		{"list", http.MethodGet, base, "", http.StatusOK, ""},
		{"get", http.MethodGet, item, "", http.StatusOK, ""},
		{"get bad id", http.MethodGet, "/expenses/nope", "", http.StatusBadRequest, "BAD_REQUEST"},
		{"get missing", http.MethodGet, "/expenses/" + missing.String(), "", http.StatusNotFound, "NOT_FOUND"},
		{"edit", http.MethodPut, item, `{"name":"Lunch","amount":1200,"payer":"B"}`, http.StatusOK, ""},
		{"edit invalid amount", http.MethodPut, item, `{"name":"Lunch","amount":0,"payer":"B"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"delete", http.MethodDelete, item, "", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set(middleware.DevOwnerHeader, owner)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			var resp response.APIResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode != "" {
				require.NotNil(t, resp.Error)
				assert.Equal(t, tt.wantCode, resp.Error.Code)
				assert.False(t, resp.Success)
			} else {
				assert.True(t, resp.Success)
			}
		})
	}

	t.Run("other owner is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, item, nil)
		req.Header.Set(middleware.DevOwnerHeader, "someone-else")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
