package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"storefront-svc/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cartRowColumns = []string{"id", "product_id", "quantity", "created_at",
	"p_id", "category_id", "name", "slug", "short_description",
	"price", "discount", "p_quantity", "is_bestseller", "p_created_at"}

func setupCartRepositoryTest(t *testing.T) (*PostgresCartRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresCartRepository(db), mock
}

func TestCartRepository_List(t *testing.T) {
	repo, mock := setupCartRepositoryTest(t)
	owner := models.SessionOwner("abc")
	now := time.Now()

	rows := sqlmock.NewRows(cartRowColumns).
		AddRow(1, 5, 2, now, 5, 1, "Lamp", "lamp", "", "10.00", "0", 9, false, now).
		AddRow(2, 6, 1, now, 6, 1, "Chair", "chair", "", "3.55", "0", 1, false, now)
	mock.ExpectQuery("FROM cart_items c JOIN products p (.+) WHERE c.owner_key = \\$1 ORDER BY c.id").
		WithArgs("session:abc").
		WillReturnRows(rows)

	lines, err := repo.List(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "Lamp", lines[0].Product.Name)
	assert.Equal(t, "23.55", models.NewCartSummary(lines).TotalSum.StringFixed(2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepository_Add_Upserts(t *testing.T) {
	repo, mock := setupCartRepositoryTest(t)
	userID := int64(42)

	mock.ExpectExec("INSERT INTO cart_items (.+) ON CONFLICT \\(owner_key, product_id\\) DO UPDATE").
		WithArgs("user:42", int64(5), 3).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Add(context.Background(), models.UserOwner(userID), 5, 3)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepository_Get_OtherOwner(t *testing.T) {
	repo, mock := setupCartRepositoryTest(t)

	mock.ExpectQuery("FROM cart_items c JOIN products p (.+) WHERE c.id = \\$1 AND c.owner_key = \\$2").
		WithArgs(int64(9), "session:abc").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), models.SessionOwner("abc"), 9)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepository_SetQuantity(t *testing.T) {
	repo, mock := setupCartRepositoryTest(t)

	mock.ExpectExec("UPDATE cart_items SET quantity = \\$1 WHERE id = \\$2 AND owner_key = \\$3").
		WithArgs(4, int64(1), "session:abc").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SetQuantity(context.Background(), models.SessionOwner("abc"), 1, 4)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepository_Delete_NotFound(t *testing.T) {
	repo, mock := setupCartRepositoryTest(t)

	mock.ExpectExec("DELETE FROM cart_items WHERE id = \\$1 AND owner_key = \\$2").
		WithArgs(int64(1), "session:abc").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), models.SessionOwner("abc"), 1)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
