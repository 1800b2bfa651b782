package http

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mfkarayel/eshop/internal/domain"
	"github.com/mfkarayel/eshop/internal/service"
	"github.com/mfkarayel/eshop/internal/storage"
	apperrors "github.com/mfkarayel/eshop/pkg/errors"
)

// --- Mock CategoryRepository ---

type mockCategoryRepository struct {
	mock.Mock
}

func (m *mockCategoryRepository) Create(ctx context.Context, c *domain.Category) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *mockCategoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *mockCategoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Category), args.Error(1)
}

func (m *mockCategoryRepository) Update(ctx context.Context, c *domain.Category) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *mockCategoryRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- In-memory Storage ---

type memStorage struct {
	mu      sync.Mutex
	uploads []string
}

func (s *memStorage) Upload(ctx context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	if _, err := io.Copy(io.Discard, input.Data); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads = append(s.uploads, input.Key)
	return &storage.UploadResult{Key: input.Key, URL: "http://localhost/uploads/" + input.Key}, nil
}

func (s *memStorage) Delete(ctx context.Context, key string) error { return nil }

func (s *memStorage) GetURL(ctx context.Context, key string) (string, error) {
	return "http://localhost/uploads/" + key, nil
}

// --- Test Helpers ---

func testProductHandler(products *mockProductRepository, categories *mockCategoryRepository, store *memStorage) *ProductHandler {
	logger := testLogger()
	svc := service.NewProductService(products, categories, store, logger)
	return NewProductHandler(svc, logger)
}

func setupProductRouter(handler *ProductHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", handler.ListProducts)
		r.Get("/get/count", handler.CountProducts)
		r.Get("/get/featured/{count}", handler.ListFeatured)
		r.Get("/{id}", handler.GetProduct)
		r.Post("/", handler.CreateProduct)
		r.Put("/{id}", handler.UpdateProduct)
		r.Put("/gallery-images/{id}", handler.UpdateGallery)
		r.Delete("/{id}", handler.DeleteProduct)
	})
	return r
}

// productFormBody builds a multipart body with the given fields and one
// image file per entry in files.
func productFormBody(t *testing.T, fields map[string]string, files map[string][]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for field, names := range files {
		for _, name := range names {
			fw, err := w.CreateFormFile(field, name)
			require.NoError(t, err)
			_, err = fw.Write([]byte("fake image bytes"))
			require.NoError(t, err)
		}
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func validProductFields() map[string]string {
	return map[string]string{
		"name":           "Red Shirt",
		"description":    "A red shirt",
		"brand":          "Acme",
		"price":          "1999",
		"category":       "550e8400-e29b-41d4-a716-446655440040",
		"count_in_stock": "12",
	}
}

// ============================================================================
// POST /api/v1/products - CreateProduct
// ============================================================================

func TestCreateProduct_Success(t *testing.T) {
	products := new(mockProductRepository)
	categories := new(mockCategoryRepository)
	store := &memStorage{}
	router := setupProductRouter(testProductHandler(products, categories, store))

	categories.On("GetByID", mock.Anything, "550e8400-e29b-41d4-a716-446655440040").
		Return(&domain.Category{ID: "550e8400-e29b-41d4-a716-446655440040", Name: "Shirts"}, nil)
	products.On("Create", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(nil)

	body, contentType := productFormBody(t, validProductFields(), map[string][]string{"image": {"red-shirt.png"}})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	require.Nil(t, resp.Error)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Red Shirt", data["name"])
	assert.Equal(t, float64(1999), data["price"])
	assert.Contains(t, data["image"], "red-shirt")

	require.Len(t, store.uploads, 1)
	assert.True(t, strings.HasPrefix(store.uploads[0], "red-shirt"))
	products.AssertExpectations(t)
}

func TestCreateProduct_MissingImage(t *testing.T) {
	products := new(mockProductRepository)
	categories := new(mockCategoryRepository)
	router := setupProductRouter(testProductHandler(products, categories, &memStorage{}))

	categories.On("GetByID", mock.Anything, mock.Anything).
		Return(&domain.Category{ID: "550e8400-e29b-41d4-a716-446655440040"}, nil)

	body, contentType := productFormBody(t, validProductFields(), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateProduct_UnknownCategory(t *testing.T) {
	products := new(mockProductRepository)
	categories := new(mockCategoryRepository)
	router := setupProductRouter(testProductHandler(products, categories, &memStorage{}))

	categories.On("GetByID", mock.Anything, mock.Anything).
		Return(nil, apperrors.NotFound("category", "550e8400-e29b-41d4-a716-446655440040"))

	body, contentType := productFormBody(t, validProductFields(), map[string][]string{"image": {"red-shirt.png"}})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateProduct_BadNumericField(t *testing.T) {
	products := new(mockProductRepository)
	router := setupProductRouter(testProductHandler(products, new(mockCategoryRepository), &memStorage{}))

	fields := validProductFields()
	fields["price"] = "not-a-number"
	body, contentType := productFormBody(t, fields, map[string][]string{"image": {"red-shirt.png"}})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Message, "price")
}

// ============================================================================
// PUT /api/v1/products/gallery-images/{id} - UpdateGallery
// ============================================================================

func TestUpdateGallery_Success(t *testing.T) {
	products := new(mockProductRepository)
	store := &memStorage{}
	router := setupProductRouter(testProductHandler(products, new(mockCategoryRepository), store))

	id := "550e8400-e29b-41d4-a716-446655440050"
	product := &domain.Product{ID: id, Name: "Red Shirt"}
	products.On("GetByID", mock.Anything, id).Return(product, nil)
	products.On("UpdateGallery", mock.Anything, id, mock.AnythingOfType("[]string")).Return(nil)

	body, contentType := productFormBody(t, nil, map[string][]string{"images": {"a.png", "b.jpg"}})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/products/gallery-images/"+id, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, store.uploads, 2)
	products.AssertExpectations(t)
}

// ============================================================================
// GET /api/v1/products - reads
// ============================================================================

func TestListProducts_FiltersOnCategories(t *testing.T) {
	products := new(mockProductRepository)
	router := setupProductRouter(testProductHandler(products, new(mockCategoryRepository), &memStorage{}))

	products.On("List", mock.Anything, mock.MatchedBy(func(f interface{}) bool {
		return true
	})).Return([]domain.Product{{ID: "p1", Name: "Red Shirt"}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?categories=c1,c2", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	items, ok := resp.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, items, 1)
}

func TestListFeatured_BadCount(t *testing.T) {
	products := new(mockProductRepository)
	router := setupProductRouter(testProductHandler(products, new(mockCategoryRepository), &memStorage{}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/get/featured/banana", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCountProducts(t *testing.T) {
	products := new(mockProductRepository)
	router := setupProductRouter(testProductHandler(products, new(mockCategoryRepository), &memStorage{}))

	products.On("Count", mock.Anything).Return(42, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/get/count", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(42), data["product_count"])
}

func TestDeleteProduct_NotFound(t *testing.T) {
	products := new(mockProductRepository)
	router := setupProductRouter(testProductHandler(products, new(mockCategoryRepository), &memStorage{}))

	id := "550e8400-e29b-41d4-a716-446655440099"
	products.On("Delete", mock.Anything, id).Return(apperrors.NotFound("product", id))

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/products/"+id, nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
