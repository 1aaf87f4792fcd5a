package payment

// CurrencyIQD is the only settlement currency the gateways accept today.
const CurrencyIQD = "IQD"

// EventType classifies a verified webhook notification.
type EventType string

const (
	// EventPaymentSuccess indicates the gateway settled the payment.
	EventPaymentSuccess EventType = "payment.success"
	// EventPaymentFailed covers every non-settled terminal status.
	EventPaymentFailed EventType = "payment.failed"
)

// Customer identifies the paying user as far as the gateway needs to know.
type Customer struct {
	Name  string
	Phone string
	Email string
}

// OrderIntent captures everything a provider needs to open a checkout session.
type OrderIntent struct {
	ReferenceID   string
	Amount        int64
	Currency      string
	Description   string
	WebhookURL    string
	WebhookSecret string
	RedirectURL   string
	Customer      Customer
}

// Session is a provider-hosted checkout page the buyer is redirected to.
type Session struct {
	ID       string
	URL      string
	Provider string
	Metadata map[string]string
}

// Event is a webhook notification that passed signature verification.
// Payload holds the exact raw body bytes for audit trails.
type Event struct {
	ID          string
	Provider    string
	Type        EventType
	ReferenceID string
	Payload     []byte
}
