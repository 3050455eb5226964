package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/foodieexpress/storefront/internal/catalog"
	"github.com/foodieexpress/storefront/internal/checkout"
	"github.com/foodieexpress/storefront/internal/service"
	"github.com/foodieexpress/storefront/pkg/health"
	"github.com/foodieexpress/storefront/pkg/middleware"
)

const serviceName = "storefront"

// RouterOptions holds the knobs of the HTTP surface that come from config.
type RouterOptions struct {
	CORS           middleware.CORSConfig
	PprofCIDRs     []string
	CatalogMaxAge  int // seconds; 0 disables Cache-Control on catalog reads
	JWTSecret      string
	RateLimitRPS   float64 // 0 disables
	RateLimitBurst int
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(
	cartService *service.CartService,
	checkoutService *checkout.Service,
	catalogService *catalog.Service,
	healthHandler *health.Handler,
	logger *slog.Logger,
	opts RouterOptions,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(opts.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.Identity())
	if opts.JWTSecret != "" {
		r.Use(middleware.VerifyJWT(opts.JWTSecret, logger))
	}
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	if len(opts.PprofCIDRs) > 0 {
		middleware.RegisterPprof(r, opts.PprofCIDRs, logger)
	}

	var menu MenuResolver
	if catalogService != nil {
		menu = catalogService
	}
	cartHandler := NewCartHandler(cartService, menu, logger)
	checkoutHandler := NewCheckoutHandler(checkoutService, logger)

	r.Route("/api/v1", func(r chi.Router) {
		if opts.RateLimitRPS > 0 {
			r.Use(middleware.RateLimit(opts.RateLimitRPS, opts.RateLimitBurst, logger))
		}
		r.Use(ContentTypeJSON)

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Use(SessionID)

			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)

			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{menuItemId}", cartHandler.UpdateQuantity)
			r.Delete("/items/{menuItemId}", cartHandler.RemoveItem)

			r.Put("/address", cartHandler.SetAddress)
			r.Put("/discount", cartHandler.ApplyDiscount)

			r.Post("/toggle", cartHandler.Toggle)
			r.Post("/open", cartHandler.Open)
			r.Post("/close", cartHandler.Close)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Use(middleware.RequireAuth())
			r.Use(SessionID)

			r.Post("/checkout", checkoutHandler.PlaceOrder)
			r.Get("/orders", checkoutHandler.ListOrders)
		})

		if catalogService != nil {
			catalogHandler := NewCatalogHandler(catalogService, logger)
			r.Route("/restaurants", func(r chi.Router) {
				if opts.CatalogMaxAge > 0 {
					r.Use(middleware.CacheControl(opts.CatalogMaxAge))
				}

				r.Get("/", catalogHandler.ListRestaurants)
				r.Get("/{id}", catalogHandler.GetRestaurant)
				r.Get("/{id}/menu", catalogHandler.GetMenu)
			})
		}
	})

	return r
}
