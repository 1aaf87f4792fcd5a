package payment

import (
	"errors"
	"fmt"
)

var (
	// ErrSignatureMissing is returned when a webhook secret is configured but the
	// request carried no signature header.
	ErrSignatureMissing = errors.New("webhook signature missing")
	// ErrSignatureInvalid is returned when the provided signature does not match
	// the HMAC of the raw body.
	ErrSignatureInvalid = errors.New("webhook signature invalid")
	// ErrNotImplemented marks provider operations that are stubbed out.
	ErrNotImplemented = errors.New("not implemented")
	// ErrUnknownProvider is returned when routing by name finds no adapter.
	ErrUnknownProvider = errors.New("unknown payment provider")
)

// GatewayError wraps a non-2xx response from an upstream gateway.
type GatewayError struct {
	Provider   string
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s gateway returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}
