package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const waylProviderName = "wayl"

// DefaultWaylBaseURL is the production Wayl API host.
const DefaultWaylBaseURL = "https://api.thewayl.com"

// Wayl integrates the Wayl hosted-checkout gateway.
type Wayl struct {
	SecretKey string
	// WebhookSecret is the default signing secret for inbound notifications.
	// When empty, webhook verification is skipped entirely; only acceptable in
	// development environments.
	WebhookSecret string
	BaseURL       string
	Client        *http.Client
}

// Name implements Provider.
func (Wayl) Name() string { return waylProviderName }

type waylLinkRequest struct {
	ReferenceID    string `json:"referenceId"`
	Total          int64  `json:"total"`
	Currency       string `json:"currency"`
	WebhookURL     string `json:"webhookUrl,omitempty"`
	WebhookSecret  string `json:"webhookSecret,omitempty"`
	RedirectionURL string `json:"redirectionUrl,omitempty"`
	CustomParam    string `json:"customParameter,omitempty"`
	Email          string `json:"email,omitempty"`
}

type waylLinkResponse struct {
	Data struct {
		ID          string `json:"id"`
		URL         string `json:"url"`
		ReferenceID string `json:"referenceId"`
	} `json:"data"`
}

// CreateCheckoutSession opens a payment link for the intent.
func (p Wayl) CreateCheckoutSession(ctx context.Context, intent OrderIntent) (Session, error) {
	if strings.TrimSpace(p.SecretKey) == "" {
		return Session{}, errors.New("wayl: secret key is not configured")
	}
	if strings.TrimSpace(intent.ReferenceID) == "" {
		return Session{}, errors.New("wayl: reference id is required")
	}
	if intent.Amount <= 0 {
		return Session{}, errors.New("wayl: amount must be positive")
	}
	currency := intent.Currency
	if currency == "" {
		currency = CurrencyIQD
	}
	webhookSecret := intent.WebhookSecret
	if webhookSecret == "" {
		webhookSecret = p.WebhookSecret
	}
	payload, err := json.Marshal(waylLinkRequest{
		ReferenceID:    intent.ReferenceID,
		Total:          intent.Amount,
		Currency:       currency,
		WebhookURL:     intent.WebhookURL,
		WebhookSecret:  webhookSecret,
		RedirectionURL: intent.RedirectURL,
		CustomParam:    intent.Description,
		Email:          intent.Customer.Email,
	})
	if err != nil {
		return Session{}, fmt.Errorf("wayl: encode link request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.linksURL(), bytes.NewReader(payload))
	if err != nil {
		return Session{}, fmt.Errorf("wayl: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-WAYL-AUTHENTICATION", p.SecretKey)

	resp, err := p.client().Do(req)
	if err != nil {
		return Session{}, fmt.Errorf("wayl: create link: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Session{}, fmt.Errorf("wayl: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Session{}, &GatewayError{
			Provider:   waylProviderName,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}
	var decoded waylLinkResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return Session{}, fmt.Errorf("wayl: decode response: %w", err)
	}
	if decoded.Data.URL == "" {
		return Session{}, errors.New("wayl: response missing payment url")
	}
	return Session{
		ID:       decoded.Data.ID,
		URL:      decoded.Data.URL,
		Provider: waylProviderName,
		Metadata: map[string]string{"referenceId": decoded.Data.ReferenceID},
	}, nil
}

type waylWebhookPayload struct {
	ID          string `json:"id"`
	ReferenceID string `json:"referenceId"`
	Status      string `json:"status"`
}

// VerifyWebhook authenticates a notification and normalises it into an Event.
// The signature is HMAC-SHA256 hex over the exact raw body bytes. With no
// webhook secret configured the crypto check is skipped.
func (p Wayl) VerifyWebhook(rawBody []byte, signature string) (Event, error) {
	secret := strings.TrimSpace(p.WebhookSecret)
	if secret != "" {
		provided := strings.TrimSpace(signature)
		if provided == "" {
			return Event{}, ErrSignatureMissing
		}
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(rawBody)
		expected := hex.EncodeToString(mac.Sum(nil))
		if len(provided) != len(expected) || !hmac.Equal([]byte(provided), []byte(expected)) {
			return Event{}, ErrSignatureInvalid
		}
	}
	var payload waylWebhookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return Event{}, fmt.Errorf("wayl: decode webhook payload: %w", err)
	}
	return Event{
		ID:          payload.ID,
		Provider:    waylProviderName,
		Type:        classifyWaylStatus(payload.Status),
		ReferenceID: payload.ReferenceID,
		Payload:     rawBody,
	}, nil
}

func classifyWaylStatus(status string) EventType {
	switch strings.TrimSpace(status) {
	case "Complete", "Delivered":
		return EventPaymentSuccess
	default:
		return EventPaymentFailed
	}
}

func (p Wayl) linksURL() string {
	base := strings.TrimRight(strings.TrimSpace(p.BaseURL), "/")
	if base == "" {
		base = DefaultWaylBaseURL
	}
	return base + "/api/v1/Links"
}

func (p Wayl) client() *http.Client {
	if p.Client != nil {
		return p.Client
	}
	return &http.Client{Timeout: 30 * time.Second}
}
