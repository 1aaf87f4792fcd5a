package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/theideaiq/backend-suq/internal/cart"
	"github.com/theideaiq/backend-suq/internal/common"
	"github.com/theideaiq/backend-suq/internal/obs"
	"github.com/theideaiq/backend-suq/internal/order"
	"github.com/theideaiq/backend-suq/internal/payment"
)

var (
	// ErrNotAuthenticated is returned when no caller identity is on the context.
	ErrNotAuthenticated = errors.New("authentication required")
	// ErrCartEmpty covers both a missing cart and a cart with no lines.
	ErrCartEmpty = errors.New("cart is empty or not found")
	// ErrInvalidTotal is returned when the payable total is not positive.
	ErrInvalidTotal = errors.New("invalid total amount")
	// ErrOrderCreate is returned when the pending order could not be persisted.
	ErrOrderCreate = errors.New("failed to create order")
)

// CartReader yields the priced lines of a cart.
type CartReader interface {
	ListPricedItems(ctx context.Context, cartID uuid.UUID) ([]cart.PricedItem, error)
}

// OrderWriter persists the pending order record.
type OrderWriter interface {
	CreatePending(ctx context.Context, o order.PendingOrder) error
}

// Service orchestrates checkout: price the cart, route to a gateway, open a
// session and persist the pending order.
type Service struct {
	Cart        CartReader
	Orders      OrderWriter
	Router      payment.RouterConfig
	SiteBaseURL string
	RedirectURL string
	Currency    string
	Log         zerolog.Logger

	// Route overrides the amount-based provider selection; nil means
	// payment.SelectByAmount with the configured router.
	Route func(amount int64) payment.Provider
}

// Initiate runs the checkout flow for the given cart and returns the hosted
// payment page URL the buyer should be redirected to.
func (s *Service) Initiate(ctx context.Context, cartID string) (string, error) {
	if s == nil || s.Cart == nil || s.Orders == nil {
		return "", errors.New("checkout service not configured")
	}
	ctx, span := otel.Tracer("checkout.Service").Start(ctx, "Checkout.Initiate")
	defer span.End()

	userID, ok := common.UserID(ctx)
	if !ok || userID == "" {
		return "", ErrNotAuthenticated
	}
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return "", ErrNotAuthenticated
	}
	cartUUID, err := uuid.Parse(cartID)
	if err != nil {
		return "", ErrCartEmpty
	}

	items, err := s.Cart.ListPricedItems(ctx, cartUUID)
	if err != nil || len(items) == 0 {
		return "", ErrCartEmpty
	}
	var total int64
	for _, it := range items {
		if it.Dangling() {
			s.Log.Warn().
				Str("cartId", cartID).
				Str("itemName", it.Name).
				Msg("skipping cart line with deleted product")
			continue
		}
		total += it.Price * it.Quantity
	}
	if total <= 0 {
		return "", ErrInvalidTotal
	}

	// fresh reference id per attempt so retries never collide at the gateway
	referenceID := uuid.NewString()
	provider := s.selectProvider(total)
	span.SetAttributes(
		attribute.String("checkout.provider", provider.Name()),
		attribute.Int64("checkout.total", total),
		attribute.String("checkout.referenceId", referenceID),
	)

	email, _ := common.UserEmail(ctx)
	intent := payment.OrderIntent{
		ReferenceID: referenceID,
		Amount:      total,
		Currency:    s.currency(),
		Description: fmt.Sprintf("order %s", referenceID),
		WebhookURL:  fmt.Sprintf("%s/api/v1/webhooks/payment?provider=%s", s.SiteBaseURL, provider.Name()),
		RedirectURL: s.redirectURL(),
		Customer:    payment.Customer{Email: email},
	}

	session, err := provider.CreateCheckoutSession(ctx, intent)
	if err != nil {
		span.RecordError(err)
		s.countSession(provider.Name(), "gateway_error")
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	s.countSession(provider.Name(), "created")

	pending := order.PendingOrder{
		UserID:          userUUID,
		ReferenceID:     referenceID,
		TotalAmount:     total,
		GatewayProvider: session.Provider,
		GatewayLinkID:   session.ID,
		GatewayMetadata: session.Metadata,
	}
	if err := s.Orders.CreatePending(ctx, pending); err != nil {
		// the gateway session stays open with no local order; reconciliation
		// picks these up, so leave a loud trail here
		span.RecordError(err)
		s.countSession(provider.Name(), "orphaned")
		s.Log.Error().
			Str("provider", session.Provider).
			Str("gatewayLinkId", session.ID).
			Str("referenceId", referenceID).
			Int64("totalAmount", total).
			Err(err).
			Msg("orphaned checkout session: order persistence failed")
		return "", ErrOrderCreate
	}

	return session.URL, nil
}

func (s *Service) selectProvider(amount int64) payment.Provider {
	if s.Route != nil {
		return s.Route(amount)
	}
	return payment.SelectByAmount(amount, s.Router)
}

func (s *Service) currency() string {
	if s.Currency != "" {
		return s.Currency
	}
	return payment.CurrencyIQD
}

func (s *Service) redirectURL() string {
	if s.RedirectURL != "" {
		return s.RedirectURL
	}
	return s.SiteBaseURL
}

func (s *Service) countSession(provider, result string) {
	if obs.CheckoutSessionTotal != nil {
		obs.CheckoutSessionTotal.WithLabelValues(provider, result).Inc()
	}
}
