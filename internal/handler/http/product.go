package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mfkarayel/eshop/internal/service"
	"github.com/mfkarayel/eshop/internal/storage"
	"github.com/mfkarayel/eshop/pkg/httputil"
	"github.com/mfkarayel/eshop/pkg/validator"
)

// ProductHandler handles HTTP requests for catalog products.
type ProductHandler struct {
	service *service.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(svc *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: svc,
		logger:  logger,
	}
}

// ListProducts handles GET /api/v1/products. The optional "categories"
// query parameter is a comma separated list of category IDs.
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	var categoryIDs []string
	if raw := r.URL.Query().Get("categories"); raw != "" {
		categoryIDs = strings.Split(raw, ",")
	}

	products, err := h.service.ListProducts(r.Context(), categoryIDs)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: products})
}

// GetProduct handles GET /api/v1/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	product, err := h.service.GetProduct(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

// ListFeatured handles GET /api/v1/products/get/featured/{count}
func (h *ProductHandler) ListFeatured(w http.ResponseWriter, r *http.Request) {
	count := 0
	if raw := chi.URLParam(r, "count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "count must be a non-negative integer"},
			})
			return
		}
		count = parsed
	}

	products, err := h.service.ListFeatured(r.Context(), count)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: products})
}

// CountProducts handles GET /api/v1/products/get/count
func (h *ProductHandler) CountProducts(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.CountProducts(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]int{"product_count": count}})
}

// CreateProduct handles POST /api/v1/products as multipart form data with
// an "image" file part.
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	input, ok := h.parseProductForm(w, r)
	if !ok {
		return
	}

	create := service.CreateProductInput{
		Name:            input.Name,
		Description:     input.Description,
		RichDescription: input.RichDescription,
		Brand:           input.Brand,
		Price:           input.Price,
		CategoryID:      input.CategoryID,
		CountInStock:    input.CountInStock,
		Rating:          input.Rating,
		NumReviews:      input.NumReviews,
		IsFeatured:      input.IsFeatured,
		Image:           input.Image,
	}

	if err := validator.Validate(create); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	product, err := h.service.CreateProduct(r.Context(), create)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: product})
}

// UpdateProduct handles PUT /api/v1/products/{id}; the image part is
// optional on update.
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	input, ok := h.parseProductForm(w, r)
	if !ok {
		return
	}

	update := service.UpdateProductInput{
		Name:            input.Name,
		Description:     input.Description,
		RichDescription: input.RichDescription,
		Brand:           input.Brand,
		Price:           input.Price,
		CategoryID:      input.CategoryID,
		CountInStock:    input.CountInStock,
		Rating:          input.Rating,
		NumReviews:      input.NumReviews,
		IsFeatured:      input.IsFeatured,
		Image:           input.Image,
	}

	if err := validator.Validate(update); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), id.String(), update)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

// UpdateGallery handles PUT /api/v1/products/gallery-images/{id} with up to
// ten "images" file parts.
func (h *ProductHandler) UpdateGallery(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(storage.MaxUploadSize); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid multipart form: " + err.Error()},
		})
		return
	}

	var uploads []*service.ImageUpload
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["images"] {
			file, err := header.Open()
			if err != nil {
				httputil.WriteError(w, r, err, h.logger)
				return
			}
			defer file.Close()
			uploads = append(uploads, &service.ImageUpload{
				FileName: header.Filename,
				Size:     header.Size,
				Data:     file,
			})
		}
	}

	product, err := h.service.UpdateGallery(r.Context(), id.String(), uploads)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

// DeleteProduct handles DELETE /api/v1/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"message": "product deleted"}})
}

// productForm is the decoded multipart product form shared by create and
// update.
type productForm struct {
	Name            string
	Description     string
	RichDescription string
	Brand           string
	Price           int64
	CategoryID      string
	CountInStock    int
	Rating          float64
	NumReviews      int
	IsFeatured      bool
	Image           *service.ImageUpload
}

func (h *ProductHandler) parseProductForm(w http.ResponseWriter, r *http.Request) (*productForm, bool) {
	if err := r.ParseMultipartForm(storage.MaxUploadSize); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid multipart form: " + err.Error()},
		})
		return nil, false
	}

	form := &productForm{
		Name:            r.FormValue("name"),
		Description:     r.FormValue("description"),
		RichDescription: r.FormValue("rich_description"),
		Brand:           r.FormValue("brand"),
		CategoryID:      r.FormValue("category"),
	}

	var parseErr string
	form.Price, parseErr = parseInt64Field(r.FormValue("price"), parseErr, "price")
	form.CountInStock, parseErr = parseIntField(r.FormValue("count_in_stock"), parseErr, "count_in_stock")
	form.NumReviews, parseErr = parseIntField(r.FormValue("num_reviews"), parseErr, "num_reviews")

	if raw := r.FormValue("rating"); raw != "" {
		rating, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			parseErr = "rating"
		}
		form.Rating = rating
	}
	form.IsFeatured = r.FormValue("is_featured") == "true"

	if parseErr != "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid numeric field: " + parseErr},
		})
		return nil, false
	}

	if file, header, err := r.FormFile("image"); err == nil {
		form.Image = &service.ImageUpload{
			FileName: header.Filename,
			Size:     header.Size,
			Data:     file,
		}
	}

	return form, true
}

func parseInt64Field(raw, prevErr, name string) (int64, string) {
	if prevErr != "" {
		return 0, prevErr
	}
	if raw == "" {
		return 0, ""
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, name
	}
	return v, ""
}

func parseIntField(raw, prevErr, name string) (int, string) {
	v, errName := parseInt64Field(raw, prevErr, name)
	return int(v), errName
}
