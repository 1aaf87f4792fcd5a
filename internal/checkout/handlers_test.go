package checkout

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/theideaiq/backend-suq/internal/cart"
	"github.com/theideaiq/backend-suq/internal/payment"
)

func TestCheckoutHandler(t *testing.T) {
	session := payment.Session{ID: "lnk-1", URL: "https://pay.example/lnk-1", Provider: "wayl"}
	newHandler := func(svc *Service) *Handler {
		return &Handler{Svc: svc, Validate: validator.New()}
	}

	t.Run("created", func(t *testing.T) {
		svc := newService(
			&cartStub{items: []cart.PricedItem{pricedItem(1_000, 1)}},
			&orderStub{},
			&providerStub{name: "wayl", session: session},
		)
		h := newHandler(svc)

		body := `{"cartId":"` + uuid.NewString() + `"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
		req = req.WithContext(authedCtx())
		rec := httptest.NewRecorder()
		h.Checkout(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		require.Contains(t, rec.Body.String(), session.URL)
	})

	t.Run("invalid body", func(t *testing.T) {
		h := newHandler(newService(&cartStub{}, &orderStub{}, &providerStub{name: "wayl"}))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{`))
		req = req.WithContext(authedCtx())
		rec := httptest.NewRecorder()
		h.Checkout(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("cartId must be a uuid", func(t *testing.T) {
		h := newHandler(newService(&cartStub{}, &orderStub{}, &providerStub{name: "wayl"}))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"cartId":"nope"}`))
		req = req.WithContext(authedCtx())
		rec := httptest.NewRecorder()
		h.Checkout(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		h := newHandler(newService(&cartStub{}, &orderStub{}, &providerStub{name: "wayl"}))
		body := `{"cartId":"` + uuid.NewString() + `"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.Checkout(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("empty cart maps to 404", func(t *testing.T) {
		h := newHandler(newService(&cartStub{}, &orderStub{}, &providerStub{name: "wayl", session: session}))
		body := `{"cartId":"` + uuid.NewString() + `"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
		req = req.WithContext(authedCtx())
		rec := httptest.NewRecorder()
		h.Checkout(rec, req)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("gateway error maps to 502", func(t *testing.T) {
		svc := newService(
			&cartStub{items: []cart.PricedItem{pricedItem(1_000, 1)}},
			&orderStub{},
			&providerStub{name: "wayl", err: &payment.GatewayError{Provider: "wayl", StatusCode: 500}},
		)
		svc.Log = zerolog.Nop()
		h := newHandler(svc)
		body := `{"cartId":"` + uuid.NewString() + `"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
		req = req.WithContext(authedCtx())
		rec := httptest.NewRecorder()
		h.Checkout(rec, req)
		require.Equal(t, http.StatusBadGateway, rec.Code)
	})
}
