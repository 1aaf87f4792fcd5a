// Command seeder populates a development database with a few products and a
// ready-to-checkout cart.
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/theideaiq/backend-suq/internal/app"
	"github.com/theideaiq/backend-suq/internal/config"
	"github.com/theideaiq/backend-suq/internal/obs"
)

func main() {
	userID := flag.String("user", uuid.NewString(), "user id to attach the seeded cart to")
	flag.Parse()

	cfg := config.MustLoad()
	logger := obs.NewLogger("console", "info").With().Str("component", "seeder").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := app.NewDBPool(ctx, cfg.DatabaseURL, "suq-seeder")
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	products := []struct {
		name  string
		price int64
	}{
		{"Ceramic mug", 12_000},
		{"Cotton t-shirt", 35_000},
		{"Leather wallet", 85_000},
		{"Office chair", 450_000},
		{"Standing desk", 750_000},
	}

	productIDs := make([]uuid.UUID, 0, len(products))
	for _, p := range products {
		var id uuid.UUID
		err := pool.QueryRow(ctx, `INSERT INTO products (name, price) VALUES ($1, $2) RETURNING id`, p.name, p.price).Scan(&id)
		if err != nil {
			logger.Fatal().Err(err).Str("product", p.name).Msg("seed product")
		}
		productIDs = append(productIDs, id)
		logger.Info().Str("id", id.String()).Str("name", p.name).Int64("price", p.price).Msg("product seeded")
	}

	owner, err := uuid.Parse(*userID)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse user id")
	}
	var cartID uuid.UUID
	if err := pool.QueryRow(ctx, `INSERT INTO carts (user_id) VALUES ($1) RETURNING id`, owner).Scan(&cartID); err != nil {
		logger.Fatal().Err(err).Msg("seed cart")
	}
	for i, productID := range productIDs[:3] {
		qty := int64(i + 1)
		if _, err := pool.Exec(ctx, `INSERT INTO cart_items (cart_id, product_id, quantity) VALUES ($1, $2, $3)`, cartID, productID, qty); err != nil {
			logger.Fatal().Err(err).Msg("seed cart item")
		}
	}

	fmt.Printf("seeded cart %s for user %s\n", cartID, owner)
}
