package payment

import (
	"context"
	"fmt"
)

const zainProviderName = "zain-direct"

// ZainDirect is a placeholder for the upcoming Zain Cash direct integration.
// Every operation fails loudly until the integration lands.
type ZainDirect struct {
	SecretKey string
}

// Name implements Provider.
func (ZainDirect) Name() string { return zainProviderName }

// CreateCheckoutSession always fails with ErrNotImplemented.
func (ZainDirect) CreateCheckoutSession(_ context.Context, _ OrderIntent) (Session, error) {
	return Session{}, fmt.Errorf("zain-direct: create checkout session: %w", ErrNotImplemented)
}

// VerifyWebhook always fails with ErrNotImplemented.
func (ZainDirect) VerifyWebhook(_ []byte, _ string) (Event, error) {
	return Event{}, fmt.Errorf("zain-direct: verify webhook: %w", ErrNotImplemented)
}
