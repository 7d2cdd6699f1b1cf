package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/images"
)

var lineColumns = []string{"order_id", "product_id", "quantity", "price"}

const insertOrderSQL = `
	INSERT INTO orders (user_id, total_price, payment_method, address, phone)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id, created_at`

const detailHeaderSQL = `
	SELECT o.id, o.user_id, u.name, o.total_price, o.payment_method, o.address, o.phone, o.created_at
	FROM orders o
	JOIN users u ON u.id = o.user_id
	WHERE o.id = $1`

const listHeadersSQL = `
	SELECT o.id, o.user_id, u.name, o.total_price, o.payment_method, o.address, o.phone, o.created_at
	FROM orders o
	JOIN users u ON u.id = o.user_id
	WHERE o.user_id = $1
	ORDER BY o.created_at DESC, o.id DESC`

const linesSQL = `
	SELECT oi.order_id, oi.product_id, p.name, oi.quantity, oi.price, ` + images.PrimaryPathSQL + `
	FROM order_items oi
	JOIN products p ON p.id = oi.product_id
	WHERE oi.order_id = ANY($1)
	ORDER BY oi.order_id, oi.id`

type PostgresRepository struct {
	pool   db.DBPool
	images images.Resolver
}

func NewPostgresRepository(pool db.DBPool, resolver images.Resolver) *PostgresRepository {
	return &PostgresRepository{pool: pool, images: resolver}
}

// InsertOrder writes the header inside tx and fills in the generated id and
// creation time.
func (r *PostgresRepository) InsertOrder(ctx context.Context, tx pgx.Tx, o *Order) error {
	err := tx.QueryRow(ctx, insertOrderSQL, o.UserID, o.TotalPrice, o.PaymentMethod, o.Address, o.Phone).
		Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return db.Classify(fmt.Errorf("insert order: %w", err))
	}
	return nil
}

// InsertLines copies all lines of orderID in a single batch. A short copy is
// an error so the caller rolls back instead of committing a partial order.
func (r *PostgresRepository) InsertLines(ctx context.Context, tx pgx.Tx, orderID int64, lines []Line) error {
	n, err := tx.CopyFrom(ctx, pgx.Identifier{"order_items"}, lineColumns,
		pgx.CopyFromSlice(len(lines), func(i int) ([]any, error) {
			l := lines[i]
			return []any{orderID, l.ProductID, l.Quantity, l.UnitPrice}, nil
		}))
	if err != nil {
		return db.Classify(fmt.Errorf("insert order lines: %w", err))
	}
	if n != int64(len(lines)) {
		return fmt.Errorf("insert order lines: copied %d of %d rows", n, len(lines))
	}
	return nil
}

func (r *PostgresRepository) Detail(ctx context.Context, orderID int64) (*Detail, error) {
	var d Detail
	err := r.pool.QueryRow(ctx, detailHeaderSQL, orderID).Scan(
		&d.ID, &d.UserID, &d.UserName, &d.TotalPrice, &d.PaymentMethod, &d.Address, &d.Phone, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %d: %w", orderID, apperr.ErrNotFound)
		}
		return nil, db.Classify(fmt.Errorf("get order: %w", err))
	}

	byOrder, err := r.lines(ctx, []int64{orderID})
	if err != nil {
		return nil, err
	}
	d.Items = byOrder[orderID]
	if d.Items == nil {
		d.Items = []DetailLine{}
	}
	return &d, nil
}

// ListByUser returns the user's orders, newest first, with their lines
// loaded in one extra query.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]Summary, error) {
	rows, err := r.pool.Query(ctx, listHeadersSQL, userID)
	if err != nil {
		return nil, db.Classify(fmt.Errorf("list orders: %w", err))
	}

	summaries := []Summary{}
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.UserID, &s.UserName, &s.TotalPrice, &s.PaymentMethod, &s.Address, &s.Phone, &s.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan order: %w", err)
		}
		summaries = append(summaries, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, db.Classify(fmt.Errorf("list orders: %w", err))
	}
	if len(summaries) == 0 {
		return summaries, nil
	}

	ids := make([]int64, len(summaries))
	for i, s := range summaries {
		ids[i] = s.ID
	}
	byOrder, err := r.lines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range summaries {
		items := byOrder[summaries[i].ID]
		if items == nil {
			items = []DetailLine{}
		}
		summaries[i].Items = items
		summaries[i].ItemCount = len(items)
	}
	return summaries, nil
}

func (r *PostgresRepository) lines(ctx context.Context, orderIDs []int64) (map[int64][]DetailLine, error) {
	rows, err := r.pool.Query(ctx, linesSQL, orderIDs)
	if err != nil {
		return nil, db.Classify(fmt.Errorf("load order lines: %w", err))
	}
	defer rows.Close()

	out := make(map[int64][]DetailLine, len(orderIDs))
	for rows.Next() {
		var (
			orderID int64
			l       DetailLine
			path    *string
		)
		if err := rows.Scan(&orderID, &l.ProductID, &l.ProductName, &l.Quantity, &l.UnitPrice, &path); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		l.ImageURL = r.images.URL(path)
		out[orderID] = append(out[orderID], l)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify(fmt.Errorf("load order lines: %w", err))
	}
	return out, nil
}
