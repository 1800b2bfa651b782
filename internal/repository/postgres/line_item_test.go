package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfkarayel/eshop/internal/domain"
	"github.com/mfkarayel/eshop/pkg/database"
	apperrors "github.com/mfkarayel/eshop/pkg/errors"
)

func newLineItemRepo(t *testing.T) (*LineItemRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return NewLineItemRepository(mock), mock
}

func TestLineItemRepository_Create_Success(t *testing.T) {
	repo, mock := newLineItemRepo(t)

	item := &domain.LineItem{
		ID:        "item-001",
		ProductID: "prod-001",
		Quantity:  3,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	mock.ExpectExec("INSERT INTO line_items").
		WithArgs(item.ID, item.ProductID, item.Quantity, item.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), item)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLineItemRepository_Create_Error(t *testing.T) {
	repo, mock := newLineItemRepo(t)

	item := &domain.LineItem{ID: "item-001", ProductID: "prod-001", Quantity: 1}

	mock.ExpectExec("INSERT INTO line_items").
		WithArgs(item.ID, item.ProductID, item.Quantity, item.CreatedAt).
		WillReturnError(errors.New("connection refused"))

	err := repo.Create(context.Background(), item)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "insert line item")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLineItemRepository_GetByID_Success(t *testing.T) {
	repo, mock := newLineItemRepo(t)

	now := time.Now().UTC().Truncate(time.Microsecond)
	rows := pgxmock.NewRows([]string{"id", "product_id", "quantity", "created_at"}).
		AddRow("item-001", "prod-001", 2, now)

	mock.ExpectQuery("SELECT id, product_id, quantity, created_at FROM line_items").
		WithArgs("item-001").
		WillReturnRows(rows)

	item, err := repo.GetByID(context.Background(), "item-001")
	require.NoError(t, err)
	assert.Equal(t, "prod-001", item.ProductID)
	assert.Equal(t, 2, item.Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLineItemRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newLineItemRepo(t)

	mock.ExpectQuery("SELECT id, product_id, quantity, created_at FROM line_items").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLineItemRepository_Delete_Idempotent(t *testing.T) {
	repo, mock := newLineItemRepo(t)

	// Zero rows affected is still a success.
	mock.ExpectExec("DELETE FROM line_items").
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Delete(context.Background(), "missing")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
