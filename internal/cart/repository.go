package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/images"
)

const lockLinesSQL = `
	SELECT c.id, c.product_id, c.quantity, p.price
	FROM cart_items c
	JOIN products p ON p.id = c.product_id
	WHERE c.user_id = $1
	ORDER BY c.product_id
	FOR UPDATE OF c`

const listSQL = `
	SELECT c.id, c.product_id, p.name, p.description, p.price, c.quantity, ` + images.PrimaryPathSQL + `
	FROM cart_items c
	JOIN products p ON p.id = c.product_id
	WHERE c.user_id = $1
	ORDER BY c.id`

const addSQL = `
	INSERT INTO cart_items (user_id, product_id, quantity)
	SELECT $1::bigint, p.id, $3::int FROM products p WHERE p.id = $2 AND p.status = 'approved'
	ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
	RETURNING id, quantity`

type PostgresRepository struct {
	pool   db.DBPool
	images images.Resolver
}

func NewPostgresRepository(pool db.DBPool, resolver images.Resolver) *PostgresRepository {
	return &PostgresRepository{pool: pool, images: resolver}
}

// LockLines reads the user's cart joined with live product prices and locks
// the cart rows until tx ends. Product rows are not locked.
func (r *PostgresRepository) LockLines(ctx context.Context, tx pgx.Tx, userID int64) ([]Line, error) {
	rows, err := tx.Query(ctx, lockLinesSQL, userID)
	if err != nil {
		return nil, db.Classify(fmt.Errorf("lock cart lines: %w", err))
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ItemID, &l.ProductID, &l.Quantity, &l.Price); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify(fmt.Errorf("lock cart lines: %w", err))
	}
	return lines, nil
}

// Clear deletes the given cart rows of the user inside tx. Callers pass the
// ids returned by LockLines, so rows added to the cart after the lock was
// taken stay in the cart.
func (r *PostgresRepository) Clear(ctx context.Context, tx pgx.Tx, userID int64, itemIDs []int64) (int64, error) {
	tag, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1 AND id = ANY($2)`, userID, itemIDs)
	if err != nil {
		return 0, db.Classify(fmt.Errorf("clear cart: %w", err))
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresRepository) List(ctx context.Context, userID int64) ([]Item, error) {
	rows, err := r.pool.Query(ctx, listSQL, userID)
	if err != nil {
		return nil, db.Classify(fmt.Errorf("list cart: %w", err))
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var (
			it   Item
			path *string
		)
		if err := rows.Scan(&it.ID, &it.ProductID, &it.Name, &it.Description, &it.Price, &it.Quantity, &path); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		it.ImageURL = r.images.URL(path)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify(fmt.Errorf("list cart: %w", err))
	}
	return items, nil
}

// Add puts quantity units of an approved product in the cart, adding to an
// existing row for the same product.
func (r *PostgresRepository) Add(ctx context.Context, userID, productID int64, quantity int) (Item, error) {
	it := Item{ProductID: productID}
	err := r.pool.QueryRow(ctx, addSQL, userID, productID, quantity).Scan(&it.ID, &it.Quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, fmt.Errorf("product %d: %w", productID, apperr.ErrNotFound)
		}
		return Item{}, db.Classify(fmt.Errorf("add cart item: %w", err))
	}
	return it, nil
}

func (r *PostgresRepository) SetQuantity(ctx context.Context, userID, itemID int64, quantity int) error {
	tag, err := r.pool.Exec(ctx, `UPDATE cart_items SET quantity = $3 WHERE id = $1 AND user_id = $2`, itemID, userID, quantity)
	if err != nil {
		return db.Classify(fmt.Errorf("update cart item: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cart item %d: %w", itemID, apperr.ErrNotFound)
	}
	return nil
}

func (r *PostgresRepository) Remove(ctx context.Context, userID, itemID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE id = $1 AND user_id = $2`, itemID, userID)
	if err != nil {
		return db.Classify(fmt.Errorf("remove cart item: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cart item %d: %w", itemID, apperr.ErrNotFound)
	}
	return nil
}
