package payment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/theideaiq/backend-suq/internal/common"
	"github.com/theideaiq/backend-suq/internal/obs"
)

// SignatureHeader carries the hex HMAC of the raw webhook body.
const SignatureHeader = "X-Wayl-Signature"

// Settler applies a verified payment event to the local order record.
// Implementations must be idempotent; gateways deliver at least once.
type Settler interface {
	Settle(ctx context.Context, ev Event) error
}

// Webhook handles inbound gateway notifications. Verification never touches
// the order; only events that pass the signature check reach the settler.
type Webhook struct {
	Router    RouterConfig
	Settler   Settler
	Replay    *redis.Client
	ReplayTTL time.Duration
	Log       zerolog.Logger
}

// Handle processes POST /api/v1/webhooks/payment?provider=<name>.
func (h Webhook) Handle(w http.ResponseWriter, r *http.Request) {
	if h.Settler == nil {
		common.JSONError(w, http.StatusInternalServerError, "PAYMENT_NOT_CONFIGURED", "webhook unavailable", nil)
		return
	}
	ctx, span := otel.Tracer("payment.Webhook").Start(r.Context(), "Webhook.Handle")
	defer span.End()

	providerName := r.URL.Query().Get("provider")
	if providerName == "" {
		providerName = waylProviderName
	}
	result := "error"
	defer func() {
		span.SetAttributes(
			attribute.String("payment.provider", providerName),
			attribute.String("payment.webhook.result", result),
		)
		if obs.PaymentWebhookTotal != nil {
			obs.PaymentWebhookTotal.WithLabelValues(providerName, result).Inc()
		}
	}()

	provider, err := SelectByName(providerName, h.Router)
	if err != nil {
		result = "unknown_provider"
		common.JSONError(w, http.StatusNotFound, "PROVIDER_NOT_SUPPORTED", "unknown provider", nil)
		return
	}
	providerName = provider.Name()

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		result = "bad_body"
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "unable to read payload", nil)
		return
	}

	ev, err := provider.VerifyWebhook(body, r.Header.Get(SignatureHeader))
	if err != nil {
		switch {
		case errors.Is(err, ErrSignatureMissing), errors.Is(err, ErrSignatureInvalid):
			result = "invalid_signature"
			h.Log.Warn().Str("provider", providerName).Err(err).Msg("webhook signature rejected")
			common.JSONError(w, http.StatusUnauthorized, "INVALID_SIGNATURE", "signature verification failed", nil)
		case errors.Is(err, ErrNotImplemented):
			result = "not_implemented"
			common.JSONError(w, http.StatusNotImplemented, "PROVIDER_NOT_IMPLEMENTED", err.Error(), nil)
		default:
			result = "invalid_payload"
			common.JSONError(w, http.StatusBadRequest, "WEBHOOK_INVALID", err.Error(), nil)
		}
		return
	}

	if h.Replay != nil && h.ReplayTTL > 0 {
		key := fmt.Sprintf("wh:%s:%s", providerName, common.Sha256Hex(string(body)))
		fresh, err := h.Replay.SetNX(ctx, key, "1", h.ReplayTTL).Result()
		if err != nil {
			result = "replay_store_error"
			common.JSONError(w, http.StatusInternalServerError, "REPLAY_STORE_ERROR", err.Error(), nil)
			return
		}
		if !fresh {
			result = "replay"
			common.JSONError(w, http.StatusConflict, "REPLAY", "duplicate webhook", nil)
			return
		}
	}

	if err := h.Settler.Settle(ctx, ev); err != nil {
		result = "settle_error"
		span.RecordError(err)
		h.Log.Error().
			Str("provider", providerName).
			Str("gatewayLinkId", ev.ID).
			Str("referenceId", ev.ReferenceID).
			Err(err).
			Msg("webhook settlement failed")
		var appErr *common.AppError
		if errors.As(err, &appErr) && appErr.HTTPStatus != 0 {
			common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "SETTLEMENT_ERROR", "unable to apply payment event", nil)
		return
	}

	result = "ok"
	h.Log.Info().
		Str("provider", providerName).
		Str("gatewayLinkId", ev.ID).
		Str("referenceId", ev.ReferenceID).
		Str("eventType", string(ev.Type)).
		Msg("webhook processed")
	w.WriteHeader(http.StatusNoContent)
}
