package payment

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type settlerStub struct {
	events []Event
	err    error
}

func (s *settlerStub) Settle(_ context.Context, ev Event) error {
	s.events = append(s.events, ev)
	return s.err
}

func newWebhookRequest(body []byte, signature, provider string) *http.Request {
	target := "/api/v1/webhooks/payment"
	if provider != "" {
		target += "?provider=" + provider
	}
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	return req
}

func TestWebhookHandle(t *testing.T) {
	const secret = "wh-secret"
	router := RouterConfig{WaylSecretKey: "sk-wayl", WaylWebhookSecret: secret}
	body := []byte(`{"id":"lnk-1","referenceId":"ref-123","status":"Complete"}`)
	sig := signBody(secret, body)

	t.Run("valid webhook settles the order", func(t *testing.T) {
		settler := &settlerStub{}
		h := Webhook{Router: router, Settler: settler, Log: zerolog.Nop()}
		rec := httptest.NewRecorder()
		h.Handle(rec, newWebhookRequest(body, sig, "wayl"))

		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Len(t, settler.events, 1)
		require.Equal(t, EventPaymentSuccess, settler.events[0].Type)
		require.Equal(t, "ref-123", settler.events[0].ReferenceID)
	})

	t.Run("provider defaults to wayl", func(t *testing.T) {
		settler := &settlerStub{}
		h := Webhook{Router: router, Settler: settler, Log: zerolog.Nop()}
		rec := httptest.NewRecorder()
		h.Handle(rec, newWebhookRequest(body, sig, ""))

		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Len(t, settler.events, 1)
	})

	t.Run("invalid signature never reaches the settler", func(t *testing.T) {
		settler := &settlerStub{}
		h := Webhook{Router: router, Settler: settler, Log: zerolog.Nop()}
		rec := httptest.NewRecorder()
		h.Handle(rec, newWebhookRequest(body, signBody("wrong", body), "wayl"))

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Empty(t, settler.events)
	})

	t.Run("missing signature rejected when secret configured", func(t *testing.T) {
		settler := &settlerStub{}
		h := Webhook{Router: router, Settler: settler, Log: zerolog.Nop()}
		rec := httptest.NewRecorder()
		h.Handle(rec, newWebhookRequest(body, "", "wayl"))

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Empty(t, settler.events)
	})

	t.Run("unknown provider is a 404", func(t *testing.T) {
		settler := &settlerStub{}
		h := Webhook{Router: router, Settler: settler, Log: zerolog.Nop()}
		rec := httptest.NewRecorder()
		h.Handle(rec, newWebhookRequest(body, sig, "stripe"))

		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Empty(t, settler.events)
	})

	t.Run("stubbed provider is a 501", func(t *testing.T) {
		settler := &settlerStub{}
		h := Webhook{Router: router, Settler: settler, Log: zerolog.Nop()}
		rec := httptest.NewRecorder()
		h.Handle(rec, newWebhookRequest(body, sig, "zain-direct"))

		require.Equal(t, http.StatusNotImplemented, rec.Code)
		require.Empty(t, settler.events)
	})

	t.Run("settler failure is a 500", func(t *testing.T) {
		settler := &settlerStub{err: errors.New("db down")}
		h := Webhook{Router: router, Settler: settler, Log: zerolog.Nop()}
		rec := httptest.NewRecorder()
		h.Handle(rec, newWebhookRequest(body, sig, "wayl"))

		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("replay guard drops duplicate deliveries", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer client.Close()

		settler := &settlerStub{}
		h := Webhook{
			Router:    router,
			Settler:   settler,
			Replay:    client,
			ReplayTTL: time.Hour,
			Log:       zerolog.Nop(),
		}

		rec := httptest.NewRecorder()
		h.Handle(rec, newWebhookRequest(body, sig, "wayl"))
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = httptest.NewRecorder()
		h.Handle(rec, newWebhookRequest(body, sig, "wayl"))
		require.Equal(t, http.StatusConflict, rec.Code)

		require.Len(t, settler.events, 1)
	})
}
