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
	"github.com/mfkarayel/eshop/internal/repository"
	"github.com/mfkarayel/eshop/pkg/database"
	apperrors "github.com/mfkarayel/eshop/pkg/errors"
)

func newProductRepo(t *testing.T) (*ProductRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return NewProductRepository(mock), mock
}

func sampleProduct() *domain.Product {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Product{
		ID:              "prod-001",
		Name:            "Red Shirt",
		Description:     "A red shirt",
		RichDescription: "<p>A very red shirt</p>",
		Image:           "http://localhost:3000/uploads/red-shirt-1.png",
		Images:          []string{},
		Brand:           "Acme",
		Price:           2999,
		CategoryID:      "cat-001",
		CountInStock:    10,
		Rating:          4.5,
		NumReviews:      12,
		IsFeatured:      true,
		DateCreated:     now,
		UpdatedAt:       now,
	}
}

func TestProductRepository_Create_Success(t *testing.T) {
	repo, mock := newProductRepo(t)

	p := sampleProduct()

	mock.ExpectExec("INSERT INTO products").
		WithArgs(
			p.ID, p.Name, p.Description, p.RichDescription, p.Image, p.Images,
			p.Brand, p.Price, p.CategoryID, p.CountInStock, p.Rating,
			p.NumReviews, p.IsFeatured, p.DateCreated, p.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), p)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetByID_PopulatesCategory(t *testing.T) {
	repo, mock := newProductRepo(t)

	p := sampleProduct()
	now := p.DateCreated

	rows := pgxmock.NewRows([]string{
		"id", "name", "description", "rich_description", "image", "images",
		"brand", "price", "category_id", "count_in_stock", "rating",
		"num_reviews", "is_featured", "date_created", "updated_at",
		"c_id", "c_name", "c_icon", "c_color", "c_created_at", "c_updated_at",
	}).AddRow(
		p.ID, p.Name, p.Description, p.RichDescription, p.Image, p.Images,
		p.Brand, p.Price, p.CategoryID, p.CountInStock, p.Rating,
		p.NumReviews, p.IsFeatured, p.DateCreated, p.UpdatedAt,
		"cat-001", "Shirts", "shirt-icon", "#ff0000", now, now,
	)

	mock.ExpectQuery("SELECT (.+) FROM products p").
		WithArgs(p.ID).
		WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Category)
	assert.Equal(t, "Shirts", got.Category.Name)
	assert.Equal(t, p.Price, got.Price)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newProductRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM products p").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_List_FilterByCategories(t *testing.T) {
	repo, mock := newProductRepo(t)

	p := sampleProduct()

	rows := pgxmock.NewRows([]string{
		"id", "name", "description", "rich_description", "image", "images",
		"brand", "price", "category_id", "count_in_stock", "rating",
		"num_reviews", "is_featured", "date_created", "updated_at",
	}).AddRow(
		p.ID, p.Name, p.Description, p.RichDescription, p.Image, p.Images,
		p.Brand, p.Price, p.CategoryID, p.CountInStock, p.Rating,
		p.NumReviews, p.IsFeatured, p.DateCreated, p.UpdatedAt,
	)

	mock.ExpectQuery("SELECT (.+) FROM products").
		WithArgs([]string{"cat-001", "cat-002"}).
		WillReturnRows(rows)

	products, err := repo.List(context.Background(), repository.ProductFilter{
		CategoryIDs: []string{"cat-001", "cat-002"},
	})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, p.ID, products[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_List_FeaturedWithLimit(t *testing.T) {
	repo, mock := newProductRepo(t)

	featured := true

	mock.ExpectQuery("SELECT (.+) FROM products").
		WithArgs(featured, 4).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "name", "description", "rich_description", "image", "images",
			"brand", "price", "category_id", "count_in_stock", "rating",
			"num_reviews", "is_featured", "date_created", "updated_at",
		}))

	products, err := repo.List(context.Background(), repository.ProductFilter{
		Featured: &featured,
		Limit:    4,
	})
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_UpdateGallery(t *testing.T) {
	repo, mock := newProductRepo(t)

	images := []string{"http://localhost:3000/uploads/a.png", "http://localhost:3000/uploads/b.png"}

	mock.ExpectExec("UPDATE products SET images").
		WithArgs("prod-001", images).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.UpdateGallery(context.Background(), "prod-001", images)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Delete_NotFound(t *testing.T) {
	repo, mock := newProductRepo(t)

	mock.ExpectExec("DELETE FROM products").
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Count_Error(t *testing.T) {
	repo, mock := newProductRepo(t)

	mock.ExpectQuery("SELECT count").
		WillReturnError(errors.New("connection refused"))

	_, err := repo.Count(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "count products")
	assert.NoError(t, mock.ExpectationsWereMet())
}
