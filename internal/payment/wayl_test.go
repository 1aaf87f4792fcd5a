package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestWaylCreateCheckoutSession(t *testing.T) {
	intent := OrderIntent{
		ReferenceID: "ref-123",
		Amount:      25_000,
		Currency:    CurrencyIQD,
		Description: "order ref-123",
		WebhookURL:  "https://shop.example/api/v1/webhooks/payment?provider=wayl",
		RedirectURL: "https://shop.example/orders",
		Customer:    Customer{Email: "buyer@example.com"},
	}

	t.Run("success", func(t *testing.T) {
		var gotAuth string
		var gotBody waylLinkRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/api/v1/Links", r.URL.Path)
			gotAuth = r.Header.Get("X-WAYL-AUTHENTICATION")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"data":{"id":"lnk-1","url":"https://pay.example/lnk-1","referenceId":"ref-123"}}`))
		}))
		defer srv.Close()

		p := Wayl{SecretKey: "sk-test", WebhookSecret: "wh-default", BaseURL: srv.URL, Client: srv.Client()}
		session, err := p.CreateCheckoutSession(context.Background(), intent)
		require.NoError(t, err)
		require.Equal(t, "lnk-1", session.ID)
		require.Equal(t, "https://pay.example/lnk-1", session.URL)
		require.Equal(t, "wayl", session.Provider)
		require.Equal(t, "ref-123", session.Metadata["referenceId"])

		require.Equal(t, "sk-test", gotAuth)
		require.Equal(t, "ref-123", gotBody.ReferenceID)
		require.Equal(t, int64(25_000), gotBody.Total)
		require.Equal(t, CurrencyIQD, gotBody.Currency)
		require.Equal(t, "order ref-123", gotBody.CustomParam)
		require.Equal(t, "buyer@example.com", gotBody.Email)
		require.Equal(t, "wh-default", gotBody.WebhookSecret)
	})

	t.Run("intent webhook secret wins over adapter default", func(t *testing.T) {
		var gotSecret string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body waylLinkRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			gotSecret = body.WebhookSecret
			_, _ = w.Write([]byte(`{"data":{"id":"lnk-2","url":"https://pay.example/lnk-2","referenceId":"ref-123"}}`))
		}))
		defer srv.Close()

		p := Wayl{SecretKey: "sk-test", WebhookSecret: "wh-default", BaseURL: srv.URL, Client: srv.Client()}
		withSecret := intent
		withSecret.WebhookSecret = "wh-override"
		_, err := p.CreateCheckoutSession(context.Background(), withSecret)
		require.NoError(t, err)
		require.Equal(t, "wh-override", gotSecret)
	})

	t.Run("gateway error surfaces status and body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"error":"invalid total"}`))
		}))
		defer srv.Close()

		p := Wayl{SecretKey: "sk-test", BaseURL: srv.URL, Client: srv.Client()}
		_, err := p.CreateCheckoutSession(context.Background(), intent)
		var gwErr *GatewayError
		require.ErrorAs(t, err, &gwErr)
		require.Equal(t, http.StatusUnprocessableEntity, gwErr.StatusCode)
		require.Contains(t, gwErr.Body, "invalid total")
	})

	t.Run("missing payment url rejected", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"data":{"id":"lnk-3","referenceId":"ref-123"}}`))
		}))
		defer srv.Close()

		p := Wayl{SecretKey: "sk-test", BaseURL: srv.URL, Client: srv.Client()}
		_, err := p.CreateCheckoutSession(context.Background(), intent)
		require.Error(t, err)
	})

	t.Run("validation failures never reach the network", func(t *testing.T) {
		p := Wayl{SecretKey: "sk-test", BaseURL: "http://127.0.0.1:1"}

		bad := intent
		bad.ReferenceID = ""
		_, err := p.CreateCheckoutSession(context.Background(), bad)
		require.Error(t, err)

		bad = intent
		bad.Amount = 0
		_, err = p.CreateCheckoutSession(context.Background(), bad)
		require.Error(t, err)

		unconfigured := Wayl{BaseURL: "http://127.0.0.1:1"}
		_, err = unconfigured.CreateCheckoutSession(context.Background(), intent)
		require.Error(t, err)
	})
}

func TestWaylVerifyWebhook(t *testing.T) {
	const secret = "wh-secret"
	successBody := []byte(`{"id":"lnk-1","referenceId":"ref-123","status":"Complete"}`)

	tests := []struct {
		name      string
		secret    string
		body      []byte
		signature string
		wantErr   error
		wantType  EventType
	}{
		{
			name:      "valid signature complete",
			secret:    secret,
			body:      successBody,
			signature: signBody(secret, successBody),
			wantType:  EventPaymentSuccess,
		},
		{
			name:      "valid signature delivered",
			secret:    secret,
			body:      []byte(`{"id":"lnk-1","referenceId":"ref-123","status":"Delivered"}`),
			signature: signBody(secret, []byte(`{"id":"lnk-1","referenceId":"ref-123","status":"Delivered"}`)),
			wantType:  EventPaymentSuccess,
		},
		{
			name:      "non terminal status maps to failed",
			secret:    secret,
			body:      []byte(`{"id":"lnk-1","referenceId":"ref-123","status":"Rejected"}`),
			signature: signBody(secret, []byte(`{"id":"lnk-1","referenceId":"ref-123","status":"Rejected"}`)),
			wantType:  EventPaymentFailed,
		},
		{
			name:    "missing signature",
			secret:  secret,
			body:    successBody,
			wantErr: ErrSignatureMissing,
		},
		{
			name:      "wrong signature",
			secret:    secret,
			body:      successBody,
			signature: signBody("other-secret", successBody),
			wantErr:   ErrSignatureInvalid,
		},
		{
			name:      "truncated signature",
			secret:    secret,
			body:      successBody,
			signature: signBody(secret, successBody)[:10],
			wantErr:   ErrSignatureInvalid,
		},
		{
			name:      "signature over different body",
			secret:    secret,
			body:      successBody,
			signature: signBody(secret, []byte(`{"id":"lnk-1","referenceId":"ref-123","status":"Complete" }`)),
			wantErr:   ErrSignatureInvalid,
		},
		{
			name:     "no secret configured skips verification",
			body:     successBody,
			wantType: EventPaymentSuccess,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := Wayl{WebhookSecret: tc.secret}
			ev, err := p.VerifyWebhook(tc.body, tc.signature)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.wantType, ev.Type)
			require.Equal(t, "lnk-1", ev.ID)
			require.Equal(t, "ref-123", ev.ReferenceID)
			require.Equal(t, "wayl", ev.Provider)
			require.Equal(t, tc.body, ev.Payload)
		})
	}

	t.Run("malformed payload", func(t *testing.T) {
		p := Wayl{WebhookSecret: secret}
		body := []byte(`not-json`)
		_, err := p.VerifyWebhook(body, signBody(secret, body))
		require.Error(t, err)
		require.NotErrorIs(t, err, ErrSignatureInvalid)
	})

	t.Run("verification is re-entrant", func(t *testing.T) {
		p := Wayl{WebhookSecret: secret}
		sig := signBody(secret, successBody)
		first, err := p.VerifyWebhook(successBody, sig)
		require.NoError(t, err)
		second, err := p.VerifyWebhook(successBody, sig)
		require.NoError(t, err)
		require.Equal(t, first, second)
	})
}
