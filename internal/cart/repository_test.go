package cart

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/images"
)

func newRepo(t *testing.T) (*PostgresRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresRepository(mock, images.NewResolver("http://img.local")), mock
}

func TestLockLines_LocksCartRowsOnly(t *testing.T) {
	ctx := context.Background()
	repo, mock := newRepo(t)

	mock.ExpectBeginTx(db.ReadCommitted)
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE OF c")).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "product_id", "quantity", "price"}).
			AddRow(int64(11), int64(1), 2, decimal.RequireFromString("10.00")).
			AddRow(int64(12), int64(2), 1, decimal.RequireFromString("5.50")))
	mock.ExpectRollback()

	var lines []Line
	err := db.InTx(ctx, mock, db.ReadCommitted, func(tx pgx.Tx) error {
		var err error
		lines, err = repo.LockLines(ctx, tx, 7)
		if err != nil {
			return err
		}
		return errors.New("stop")
	})
	require.EqualError(t, err, "stop")

	require.Len(t, lines, 2)
	assert.Equal(t, int64(11), lines[0].ItemID)
	assert.Equal(t, int64(1), lines[0].ProductID)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.True(t, lines[1].Price.Equal(decimal.RequireFromString("5.5")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClear_DeletesOnlyLockedRows(t *testing.T) {
	ctx := context.Background()
	repo, mock := newRepo(t)

	mock.ExpectBeginTx(db.ReadCommitted)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cart_items WHERE user_id = $1 AND id = ANY($2)")).
		WithArgs(int64(7), []int64{11, 12}).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectCommit()

	var n int64
	err := db.InTx(ctx, mock, db.ReadCommitted, func(tx pgx.Tx) error {
		var err error
		n, err = repo.Clear(ctx, tx, 7, []int64{11, 12})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList_ResolvesImages(t *testing.T) {
	repo, mock := newRepo(t)
	rel := "uploads/mug.jpg"

	mock.ExpectQuery(regexp.QuoteMeta("FROM cart_items c")).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "product_id", "name", "description", "price", "quantity", "image_path"}).
			AddRow(int64(11), int64(1), "Mug", "A mug", decimal.RequireFromString("10.00"), 2, &rel).
			AddRow(int64(12), int64(2), "Pen", "", decimal.RequireFromString("5.50"), 1, (*string)(nil)))

	items, err := repo.List(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.NotNil(t, items[0].ImageURL)
	assert.Equal(t, "http://img.local/uploads/mug.jpg", *items[0].ImageURL)
	assert.Nil(t, items[1].ImageURL)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdd(t *testing.T) {
	t.Run("upserts approved product", func(t *testing.T) {
		repo, mock := newRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (user_id, product_id)")).
			WithArgs(int64(7), int64(1), 3).
			WillReturnRows(pgxmock.NewRows([]string{"id", "quantity"}).AddRow(int64(11), 5))

		it, err := repo.Add(context.Background(), 7, 1, 3)
		require.NoError(t, err)
		assert.Equal(t, int64(11), it.ID)
		assert.Equal(t, 5, it.Quantity)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown or unapproved product", func(t *testing.T) {
		repo, mock := newRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO cart_items")).
			WithArgs(int64(7), int64(99), 1).
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.Add(context.Background(), 7, 99, 1)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestSetQuantityAndRemove_ScopedToOwner(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE cart_items SET quantity = $3 WHERE id = $1 AND user_id = $2")).
		WithArgs(int64(11), int64(7), 4).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cart_items WHERE id = $1 AND user_id = $2")).
		WithArgs(int64(11), int64(8)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, repo.SetQuantity(context.Background(), 7, 11, 4))

	err := repo.Remove(context.Background(), 8, 11)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
