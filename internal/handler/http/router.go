package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/storefront/internal/session"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/middleware"
)

const serviceName = "storefront"

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(
	registry *session.Registry,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cors middleware.CORSConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cors))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	cartHandler := NewCartHandler(logger)
	wishlistHandler := NewWishlistHandler(logger)
	localeHandler := NewLocaleHandler(logger)

	r.Route("/api/v1/sessions/{"+middleware.SessionParam+"}", func(r chi.Router) {
		r.Use(middleware.CacheControl("no-store"))
		r.Use(SessionFromPath(registry, logger))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{productId}", cartHandler.UpdateQuantity)
			r.Delete("/items/{productId}", cartHandler.RemoveItem)
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", wishlistHandler.GetWishlist)
			r.Delete("/", wishlistHandler.ClearWishlist)
			r.Post("/items", wishlistHandler.AddItem)
			r.Get("/items/{productId}", wishlistHandler.Contains)
			r.Delete("/items/{productId}", wishlistHandler.RemoveItem)
			r.Post("/items/{productId}/top", wishlistHandler.MoveToTop)
			r.Post("/sort", wishlistHandler.Sort)
		})

		r.Get("/locale", localeHandler.GetLocale)
		r.Put("/locale", localeHandler.SetLocale)
		r.Get("/notifications", DrainNotifications)
	})

	return r
}
