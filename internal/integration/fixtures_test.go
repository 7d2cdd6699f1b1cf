package integration

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/images"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/testutil"
)

const imageBase = "https://cdn.example.com/uploads"

type env struct {
	pool     *pgxpool.Pool
	carts    *cart.PostgresRepository
	orders   *order.PostgresRepository
	checkout *checkout.Service
	queries  *order.QueryService
}

func newEnv(t *testing.T, opts ...checkout.Option) *env {
	t.Helper()
	pool, _ := testutil.StartPostgres(t)
	return wire(pool, opts...)
}

func wire(pool *pgxpool.Pool, opts ...checkout.Option) *env {
	resolver := images.NewResolver(imageBase)
	carts := cart.NewPostgresRepository(pool, resolver)
	orders := order.NewPostgresRepository(pool, resolver)
	return &env{
		pool:     pool,
		carts:    carts,
		orders:   orders,
		checkout: checkout.NewService(pool, carts, orders, zerolog.Nop(), opts...),
		queries:  order.NewQueryService(orders),
	}
}

// seedScenario creates user 7 with two approved products in the cart:
// product 1 at 10.00 x2 and product 2 at 5.50 x1.
func seedScenario(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	batch := &pgx.Batch{}
	batch.Queue(`INSERT INTO users (id, name, email, role) VALUES
		(1, 'Admin', 'admin@example.com', 'admin'),
		(7, 'Ada', 'ada@example.com', 'user'),
		(8, 'Bob', 'bob@example.com', 'user')`)
	batch.Queue(`INSERT INTO products (id, seller_id, name, description, price, status) VALUES
		(1, 1, 'Mug', 'Ceramic mug', 10.00, 'approved'),
		(2, 1, 'Pen', 'Blue pen', 5.50, 'approved'),
		(3, 1, 'Lamp', 'Pending review', 30.00, 'pending')`)
	batch.Queue(`INSERT INTO product_images (product_id, image_path, is_primary) VALUES
		(1, 'mug-side.jpg', false),
		(1, 'mug-front.jpg', true),
		(2, 'https://images.example.net/pen.jpg', false)`)
	batch.Queue(`INSERT INTO cart_items (user_id, product_id, quantity) VALUES (7, 1, 2), (7, 2, 1)`)
	batch.Queue(`SELECT setval(pg_get_serial_sequence('users', 'id'), 100)`)
	batch.Queue(`SELECT setval(pg_get_serial_sequence('products', 'id'), 100)`)
	require.NoError(t, pool.SendBatch(ctx, batch).Close())
}

func count(ctx context.Context, t *testing.T, pool *pgxpool.Pool, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, pool.QueryRow(ctx, query, args...).Scan(&n))
	return n
}

func scenarioRequest() checkout.Request {
	return checkout.Request{UserID: 7, PaymentMethod: "cod", Address: "123 Main St", Phone: "555-1234"}
}
