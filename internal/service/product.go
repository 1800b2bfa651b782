package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mfkarayel/eshop/internal/domain"
	"github.com/mfkarayel/eshop/internal/repository"
	"github.com/mfkarayel/eshop/internal/storage"
	apperrors "github.com/mfkarayel/eshop/pkg/errors"
	"github.com/mfkarayel/eshop/pkg/slug"
)

// ProductService implements the business logic for catalog products.
type ProductService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	store      storage.Storage
	logger     *slog.Logger
}

// NewProductService creates a new product service.
func NewProductService(
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	store storage.Storage,
	logger *slog.Logger,
) *ProductService {
	return &ProductService{
		products:   products,
		categories: categories,
		store:      store,
		logger:     logger,
	}
}

// ImageUpload is an uploaded image file attached to a product request.
type ImageUpload struct {
	FileName string
	Size     int64
	Data     io.Reader
}

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	Name            string `validate:"required"`
	Description     string `validate:"required"`
	RichDescription string
	Brand           string
	Price           int64 `validate:"gte=0"`
	CategoryID      string `validate:"required,uuid"`
	CountInStock    int    `validate:"gte=0,lte=255"`
	Rating          float64
	NumReviews      int
	IsFeatured      bool
	Image           *ImageUpload
}

// UpdateProductInput holds the parameters for updating a product. The image
// is replaced only when a new upload is present.
type UpdateProductInput struct {
	Name            string `validate:"required"`
	Description     string `validate:"required"`
	RichDescription string
	Brand           string
	Price           int64 `validate:"gte=0"`
	CategoryID      string `validate:"required,uuid"`
	CountInStock    int    `validate:"gte=0,lte=255"`
	Rating          float64
	NumReviews      int
	IsFeatured      bool
	Image           *ImageUpload
}

// CreateProduct validates the category, stores the main image, and writes
// the product. A missing image is rejected.
func (s *ProductService) CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	if input.Image == nil {
		return nil, apperrors.InvalidInput("an image file is required")
	}

	if _, err := s.categories.GetByID(ctx, input.CategoryID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("category %s does not exist", input.CategoryID))
		}
		return nil, fmt.Errorf("check category: %w", err)
	}

	imageURL, err := s.storeImage(ctx, input.Image)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:              uuid.New().String(),
		Name:            input.Name,
		Description:     input.Description,
		RichDescription: input.RichDescription,
		Image:           imageURL,
		Images:          []string{},
		Brand:           input.Brand,
		Price:           input.Price,
		CategoryID:      input.CategoryID,
		CountInStock:    input.CountInStock,
		Rating:          input.Rating,
		NumReviews:      input.NumReviews,
		IsFeatured:      input.IsFeatured,
		DateCreated:     now,
		UpdatedAt:       now,
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("name", product.Name),
	)

	return product, nil
}

// GetProduct retrieves a product with its category populated.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	return product, nil
}

// ListProducts returns products, optionally restricted to the given
// category IDs.
func (s *ProductService) ListProducts(ctx context.Context, categoryIDs []string) ([]domain.Product, error) {
	products, err := s.products.List(ctx, repository.ProductFilter{CategoryIDs: categoryIDs})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// ListFeatured returns up to limit featured products.
func (s *ProductService) ListFeatured(ctx context.Context, limit int) ([]domain.Product, error) {
	featured := true
	products, err := s.products.List(ctx, repository.ProductFilter{
		Featured: &featured,
		Limit:    limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list featured products: %w", err)
	}
	return products, nil
}

// UpdateProduct overwrites a product's fields, optionally replacing the
// main image.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, input UpdateProductInput) (*domain.Product, error) {
	if _, err := s.categories.GetByID(ctx, input.CategoryID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("category %s does not exist", input.CategoryID))
		}
		return nil, fmt.Errorf("check category: %w", err)
	}

	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product for update: %w", err)
	}

	imageURL := product.Image
	if input.Image != nil {
		imageURL, err = s.storeImage(ctx, input.Image)
		if err != nil {
			return nil, err
		}
	}

	product.Name = input.Name
	product.Description = input.Description
	product.RichDescription = input.RichDescription
	product.Image = imageURL
	product.Brand = input.Brand
	product.Price = input.Price
	product.CategoryID = input.CategoryID
	product.CountInStock = input.CountInStock
	product.Rating = input.Rating
	product.NumReviews = input.NumReviews
	product.IsFeatured = input.IsFeatured
	product.UpdatedAt = time.Now().UTC()

	if err := s.products.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	return product, nil
}

// UpdateGallery replaces a product's gallery with the uploaded images,
// capped at domain.MaxGalleryImages.
func (s *ProductService) UpdateGallery(ctx context.Context, id string, uploads []*ImageUpload) (*domain.Product, error) {
	if len(uploads) == 0 {
		return nil, apperrors.InvalidInput("at least one image file is required")
	}
	if len(uploads) > domain.MaxGalleryImages {
		uploads = uploads[:domain.MaxGalleryImages]
	}

	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product for gallery update: %w", err)
	}

	urls := make([]string, 0, len(uploads))
	for _, upload := range uploads {
		url, err := s.storeImage(ctx, upload)
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}

	if err := s.products.UpdateGallery(ctx, id, urls); err != nil {
		return nil, fmt.Errorf("update gallery: %w", err)
	}

	product.Images = urls
	return product, nil
}

// DeleteProduct removes a product by ID.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	s.logger.InfoContext(ctx, "product deleted", slog.String("product_id", id))
	return nil
}

// CountProducts returns the total number of products.
func (s *ProductService) CountProducts(ctx context.Context) (int, error) {
	count, err := s.products.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return count, nil
}

// storeImage validates the upload's extension and size, then writes it to
// storage under a slugged, timestamped key.
func (s *ProductService) storeImage(ctx context.Context, upload *ImageUpload) (string, error) {
	ext := strings.ToLower(filepath.Ext(upload.FileName))
	if !storage.IsAllowedExtension(ext) {
		return "", apperrors.InvalidInput(fmt.Sprintf("file type %q is not allowed, use png, jpeg or jpg", ext))
	}
	if upload.Size > storage.MaxUploadSize {
		return "", apperrors.InvalidInput("image exceeds the maximum upload size")
	}

	base := slug.Filename(upload.FileName)
	base = base[:len(base)-len(ext)]
	key := fmt.Sprintf("%s-%d%s", base, time.Now().UnixMilli(), ext)

	result, err := s.store.Upload(ctx, &storage.UploadInput{
		Key:         key,
		ContentType: storage.ContentTypeFor(ext),
		Size:        upload.Size,
		Data:        upload.Data,
	})
	if err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}

	return result.URL, nil
}
