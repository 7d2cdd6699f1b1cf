package order

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/images"
)

// decimalArg matches numerically equal decimals regardless of scale.
type decimalArg struct{ want decimal.Decimal }

func (a decimalArg) Match(v any) bool {
	d, ok := v.(decimal.Decimal)
	return ok && d.Equal(a.want)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newRepo(t *testing.T) (*PostgresRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresRepository(mock, images.NewResolver("http://img.local")), mock
}

var lineCols = []string{"order_id", "product_id", "name", "quantity", "price", "image_path"}

func TestInsertOrderAndLines_InOneTx(t *testing.T) {
	ctx := context.Background()
	repo, mock := newRepo(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBeginTx(db.ReadCommitted)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO orders")).
		WithArgs(int64(7), decimalArg{dec("25.50")}, "cod", "123 Main St", "555-1234").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(42), created))
	mock.ExpectCopyFrom(pgx.Identifier{"order_items"}, []string{"order_id", "product_id", "quantity", "price"}).
		WillReturnResult(2)
	mock.ExpectCommit()

	o := &Order{UserID: 7, TotalPrice: dec("25.50"), PaymentMethod: "cod", Address: "123 Main St", Phone: "555-1234"}
	err := db.InTx(ctx, mock, db.ReadCommitted, func(tx pgx.Tx) error {
		if err := repo.InsertOrder(ctx, tx, o); err != nil {
			return err
		}
		return repo.InsertLines(ctx, tx, o.ID, []Line{
			{ProductID: 1, Quantity: 2, UnitPrice: dec("10.00")},
			{ProductID: 2, Quantity: 1, UnitPrice: dec("5.50")},
		})
	})

	require.NoError(t, err)
	assert.Equal(t, int64(42), o.ID)
	assert.Equal(t, created, o.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertLines_ShortCopyFails(t *testing.T) {
	ctx := context.Background()
	repo, mock := newRepo(t)

	mock.ExpectBeginTx(db.ReadCommitted)
	mock.ExpectCopyFrom(pgx.Identifier{"order_items"}, []string{"order_id", "product_id", "quantity", "price"}).
		WillReturnResult(1)
	mock.ExpectRollback()

	err := db.InTx(ctx, mock, db.ReadCommitted, func(tx pgx.Tx) error {
		return repo.InsertLines(ctx, tx, 42, []Line{
			{ProductID: 1, Quantity: 2, UnitPrice: dec("10.00")},
			{ProductID: 2, Quantity: 1, UnitPrice: dec("5.50")},
		})
	})

	require.ErrorContains(t, err, "copied 1 of 2 rows")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDetail(t *testing.T) {
	repo, mock := newRepo(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	primary := "uploads/p1-main.jpg"

	mock.ExpectQuery(regexp.QuoteMeta("JOIN users u ON u.id = o.user_id")).
		WithArgs(int64(42)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "name", "total_price", "payment_method", "address", "phone", "created_at"}).
			AddRow(int64(42), int64(7), "Ada", dec("25.50"), "cod", "123 Main St", "555-1234", created))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE oi.order_id = ANY($1)")).
		WithArgs([]int64{42}).
		WillReturnRows(pgxmock.NewRows(lineCols).
			AddRow(int64(42), int64(1), "Mug", 2, dec("10.00"), &primary).
			AddRow(int64(42), int64(2), "Pen", 1, dec("5.50"), (*string)(nil)))

	d, err := repo.Detail(context.Background(), 42)
	require.NoError(t, err)

	assert.Equal(t, "Ada", d.UserName)
	assert.Equal(t, int64(7), d.UserID)
	require.Len(t, d.Items, 2)
	assert.Equal(t, "Mug", d.Items[0].ProductName)
	require.NotNil(t, d.Items[0].ImageURL)
	assert.Equal(t, "http://img.local/uploads/p1-main.jpg", *d.Items[0].ImageURL)
	assert.Nil(t, d.Items[1].ImageURL)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDetail_NotFound(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders o")).
		WithArgs(int64(404)).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.Detail(context.Background(), 404)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

var summaryCols = []string{"id", "user_id", "name", "total_price", "payment_method", "address", "phone", "created_at"}

func TestListByUser_LoadsLinesInOneQuery(t *testing.T) {
	repo, mock := newRepo(t)
	newer := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	older := newer.Add(-24 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("JOIN users u ON u.id = o.user_id")).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows(summaryCols).
			AddRow(int64(43), int64(7), "Ada", dec("5.50"), "card", "1 Elm", "555", newer).
			AddRow(int64(42), int64(7), "Ada", dec("25.50"), "cod", "123 Main St", "555-1234", older))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE oi.order_id = ANY($1)")).
		WithArgs([]int64{43, 42}).
		WillReturnRows(pgxmock.NewRows(lineCols).
			AddRow(int64(42), int64(1), "Mug", 2, dec("10.00"), (*string)(nil)).
			AddRow(int64(42), int64(2), "Pen", 1, dec("5.50"), (*string)(nil)).
			AddRow(int64(43), int64(2), "Pen", 1, dec("5.50"), (*string)(nil)))

	out, err := repo.ListByUser(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, int64(43), out[0].ID)
	assert.Equal(t, "Ada", out[0].UserName)
	assert.Equal(t, 1, out[0].ItemCount)
	assert.Equal(t, int64(42), out[1].ID)
	assert.Equal(t, 2, out[1].ItemCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListByUser_NoOrdersSkipsLineQuery(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders o")).
		WithArgs(int64(9)).
		WillReturnRows(pgxmock.NewRows(summaryCols))

	out, err := repo.ListByUser(context.Background(), 9)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NotNil(t, out)
	require.NoError(t, mock.ExpectationsWereMet())
}
