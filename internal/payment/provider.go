package payment

import "context"

// Provider abstracts a payment gateway. Implementations must keep
// VerifyWebhook free of side effects so deliveries can be retried safely.
type Provider interface {
	Name() string
	CreateCheckoutSession(ctx context.Context, intent OrderIntent) (Session, error)
	VerifyWebhook(rawBody []byte, signature string) (Event, error)
}
