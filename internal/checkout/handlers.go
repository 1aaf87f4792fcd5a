package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/theideaiq/backend-suq/internal/common"
	"github.com/theideaiq/backend-suq/internal/payment"
)

// Input is the checkout request body.
type Input struct {
	CartID string `json:"cartId" validate:"required,uuid"`
}

// Output is the checkout response body.
type Output struct {
	URL string `json:"url"`
}

// Handler exposes the checkout flow over HTTP.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

// Checkout handles POST /api/v1/checkout.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	var payload Input
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(payload); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "cartId must be a uuid", nil)
			return
		}
	}
	url, err := h.Svc.Initiate(r.Context(), payload.CartID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": Output{URL: url}})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var gwErr *payment.GatewayError
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
	case errors.Is(err, ErrCartEmpty):
		common.JSONError(w, http.StatusNotFound, "CART_EMPTY", ErrCartEmpty.Error(), nil)
	case errors.Is(err, ErrInvalidTotal):
		common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_TOTAL", ErrInvalidTotal.Error(), nil)
	case errors.Is(err, ErrOrderCreate):
		common.JSONError(w, http.StatusInternalServerError, "ORDER_CREATE_FAILED", ErrOrderCreate.Error(), nil)
	case errors.Is(err, payment.ErrNotImplemented):
		common.JSONError(w, http.StatusNotImplemented, "PROVIDER_NOT_IMPLEMENTED", "payment provider not available", nil)
	case errors.As(err, &gwErr):
		common.JSONError(w, http.StatusBadGateway, "GATEWAY_ERROR", "payment gateway rejected the request", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout failed", nil)
	}
}
