package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mfkarayel/eshop/internal/service"
	"github.com/mfkarayel/eshop/pkg/health"
	"github.com/mfkarayel/eshop/pkg/middleware"
)

// RouterConfig carries the collaborators the router needs beyond the
// services themselves.
type RouterConfig struct {
	OrderService    *service.OrderService
	ProductService  *service.ProductService
	CategoryService *service.CategoryService
	UserService     *service.UserService
	HealthHandler   *health.Handler
	TokenValidator  middleware.TokenValidator
	CORS            middleware.CORSConfig
	PprofCIDRs      []string

	// UploadsDir, when set, is served read-only under /uploads/.
	UploadsDir string
}

// NewRouter creates a chi router with all store routes registered. Catalog
// reads, order placement, and account registration and login are public;
// everything else requires an authenticated admin.
func NewRouter(cfg RouterConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics())
	r.Use(middleware.Tracing("eshop"))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", cfg.HealthHandler.LivenessHandler())
	r.Get("/health/ready", cfg.HealthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	// Uploaded product images, served as static files.
	if cfg.UploadsDir != "" {
		fileServer := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir)))
		r.With(middleware.CacheControl(86400)).Get("/uploads/*", fileServer.ServeHTTP)
	}

	orderHandler := NewOrderHandler(cfg.OrderService, logger)
	productHandler := NewProductHandler(cfg.ProductService, logger)
	categoryHandler := NewCategoryHandler(cfg.CategoryService, logger)
	userHandler := NewUserHandler(cfg.UserService, logger)

	requireAdmin := func(r chi.Router) chi.Router {
		return r.With(middleware.Auth(cfg.TokenValidator), middleware.RequireAdmin())
	}

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", productHandler.ListProducts)
		r.Get("/get/count", productHandler.CountProducts)
		r.Get("/get/featured/{count}", productHandler.ListFeatured)
		r.Get("/{id}", productHandler.GetProduct)

		admin := requireAdmin(r)
		admin.Post("/", productHandler.CreateProduct)
		admin.Put("/{id}", productHandler.UpdateProduct)
		admin.Put("/gallery-images/{id}", productHandler.UpdateGallery)
		admin.Delete("/{id}", productHandler.DeleteProduct)
	})

	r.Route("/api/v1/categories", func(r chi.Router) {
		r.Get("/", categoryHandler.ListCategories)
		r.Get("/{id}", categoryHandler.GetCategory)

		admin := requireAdmin(r).With(ContentTypeJSON)
		admin.Post("/", categoryHandler.CreateCategory)
		admin.Put("/{id}", categoryHandler.UpdateCategory)
		admin.Delete("/{id}", categoryHandler.DeleteCategory)
	})

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Get("/", orderHandler.ListOrders)
		r.Get("/get/totalsales", orderHandler.TotalSales)
		r.Get("/get/count", orderHandler.CountOrders)
		r.Get("/get/userorders/{userid}", orderHandler.ListUserOrders)
		r.Get("/{id}", orderHandler.GetOrder)
		// Checkout works for guests, but a presented token binds the order
		// to the token's user.
		r.With(ContentTypeJSON, middleware.OptionalAuth(cfg.TokenValidator)).Post("/", orderHandler.PlaceOrder)

		admin := requireAdmin(r).With(ContentTypeJSON)
		admin.Put("/{id}", orderHandler.UpdateOrderStatus)
		admin.Delete("/{id}", orderHandler.DeleteOrder)
	})

	r.Route("/api/v1/users", func(r chi.Router) {
		r.With(ContentTypeJSON).Post("/register", userHandler.Register)
		r.With(ContentTypeJSON).Post("/login", userHandler.Login)

		admin := requireAdmin(r).With(ContentTypeJSON)
		admin.Get("/", userHandler.ListUsers)
		admin.Get("/get/count", userHandler.CountUsers)
		admin.Get("/{id}", userHandler.GetUser)
		admin.Put("/{id}", userHandler.UpdateUser)
		admin.Delete("/{id}", userHandler.DeleteUser)
	})

	return r
}
