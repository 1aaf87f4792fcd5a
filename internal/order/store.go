package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/theideaiq/backend-suq/internal/common"
	"github.com/theideaiq/backend-suq/internal/payment"
)

// Order lifecycle statuses. The checkout flow only ever writes pending;
// webhooks settle to paid or failed.
const (
	StatusPending = "pending"
	StatusPaid    = "paid"
	StatusFailed  = "failed"
)

// ErrStoreUnavailable indicates the order store dependency is not configured.
var ErrStoreUnavailable = errors.New("order: store unavailable")

// PendingOrder is the record persisted after a checkout session is created.
type PendingOrder struct {
	UserID          uuid.UUID
	ReferenceID     string
	TotalAmount     int64
	GatewayProvider string
	GatewayLinkID   string
	GatewayMetadata map[string]string
}

// StalePending identifies a pending order that outlived the settlement grace
// period and may correspond to an orphaned gateway session.
type StalePending struct {
	ID            uuid.UUID
	ReferenceID   string
	GatewayLinkID string
	Provider      string
	CreatedAt     time.Time
}

// Store persists order records in postgres.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store backed by a pgx connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// CreatePending inserts a new order in the pending state.
func (s *Store) CreatePending(ctx context.Context, o PendingOrder) error {
	if s == nil || s.pool == nil {
		return ErrStoreUnavailable
	}
	metadata, err := json.Marshal(o.GatewayMetadata)
	if err != nil {
		return fmt.Errorf("order: encode gateway metadata: %w", err)
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO orders
(user_id, reference_id, total_amount, status, gateway_provider, gateway_link_id, gateway_metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		o.UserID, o.ReferenceID, o.TotalAmount, StatusPending, o.GatewayProvider, o.GatewayLinkID, metadata)
	if err != nil {
		return fmt.Errorf("order: create pending: %w", err)
	}
	return nil
}

// Settle applies a verified payment event to the order identified by the
// gateway link id. Only pending orders transition; duplicate deliveries and
// already-settled orders are no-ops.
func (s *Store) Settle(ctx context.Context, ev payment.Event) error {
	if s == nil || s.pool == nil {
		return ErrStoreUnavailable
	}
	status := StatusForEvent(ev.Type)
	tag, err := s.pool.Exec(ctx, `UPDATE orders
SET status = $1, gateway_metadata = gateway_metadata || jsonb_build_object('lastWebhook', $2::jsonb), updated_at = now()
WHERE gateway_link_id = $3 AND status = $4`,
		status, json.RawMessage(ev.Payload), ev.ID, StatusPending)
	if err != nil {
		return fmt.Errorf("order: settle: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	var existing string
	err = s.pool.QueryRow(ctx, `SELECT status FROM orders WHERE gateway_link_id = $1`, ev.ID).Scan(&existing)
	if errors.Is(err, pgx.ErrNoRows) {
		return common.NewAppError("ORDER_NOT_FOUND", "no order for gateway link", http.StatusNotFound, nil)
	}
	if err != nil {
		return fmt.Errorf("order: settle lookup: %w", err)
	}
	// already settled; at-least-once delivery makes this normal
	return nil
}

// ListStalePending returns pending orders created before the cutoff.
func (s *Store) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]StalePending, error) {
	if s == nil || s.pool == nil {
		return nil, ErrStoreUnavailable
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `SELECT id, reference_id, gateway_link_id, gateway_provider, created_at
FROM orders
WHERE status = $1 AND created_at < $2
ORDER BY created_at
LIMIT $3`, StatusPending, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("order: list stale pending: %w", err)
	}
	defer rows.Close()

	var stale []StalePending
	for rows.Next() {
		var sp StalePending
		if err := rows.Scan(&sp.ID, &sp.ReferenceID, &sp.GatewayLinkID, &sp.Provider, &sp.CreatedAt); err != nil {
			return nil, fmt.Errorf("order: scan stale pending: %w", err)
		}
		stale = append(stale, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("order: iterate stale pending: %w", err)
	}
	return stale, nil
}

// StatusForEvent maps a webhook event type onto the order status it settles to.
func StatusForEvent(t payment.EventType) string {
	if t == payment.EventPaymentSuccess {
		return StatusPaid
	}
	return StatusFailed
}
