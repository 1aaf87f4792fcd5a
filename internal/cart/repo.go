package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrRepoUnavailable indicates the cart repository dependency is not configured.
var ErrRepoUnavailable = errors.New("cart: repository unavailable")

// PricedItem is a cart line joined with its product's current price.
// ProductID is nil when the product row no longer exists.
type PricedItem struct {
	ProductID *uuid.UUID
	Name      string
	Price     int64
	Quantity  int64
}

// Dangling reports whether the line references a deleted product.
func (i PricedItem) Dangling() bool { return i.ProductID == nil }

// Repo reads cart contents from postgres.
type Repo struct {
	pool *pgxpool.Pool
}

// NewRepo constructs a Repo backed by a pgx connection pool.
func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ListPricedItems returns the cart's lines with product name and price.
// Lines whose product was deleted come back with a nil ProductID so callers
// can decide how to treat them.
func (r *Repo) ListPricedItems(ctx context.Context, cartID uuid.UUID) ([]PricedItem, error) {
	if r == nil || r.pool == nil {
		return nil, ErrRepoUnavailable
	}
	rows, err := r.pool.Query(ctx, `SELECT p.id, p.name, p.price, ci.quantity
FROM cart_items ci
LEFT JOIN products p ON p.id = ci.product_id
WHERE ci.cart_id = $1
ORDER BY ci.created_at`, cartID)
	if err != nil {
		return nil, fmt.Errorf("cart: list priced items: %w", err)
	}
	defer rows.Close()

	var items []PricedItem
	for rows.Next() {
		var (
			productID pgtype.UUID
			name      pgtype.Text
			price     pgtype.Int8
			quantity  int64
		)
		if err := rows.Scan(&productID, &name, &price, &quantity); err != nil {
			return nil, fmt.Errorf("cart: scan priced item: %w", err)
		}
		item := PricedItem{
			Name:     name.String,
			Price:    price.Int64,
			Quantity: quantity,
		}
		if productID.Valid {
			id := uuid.UUID(productID.Bytes)
			item.ProductID = &id
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cart: iterate priced items: %w", err)
	}
	return items, nil
}
