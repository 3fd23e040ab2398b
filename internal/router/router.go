package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"rbxstore-api/internal/handler"
	"rbxstore-api/internal/middleware"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler         *handler.Handler
	RBX5Handler     *handler.RBX5Handler
	CheckoutHandler *handler.CheckoutHandler
	OrderHandler    *handler.OrderHandler
	AdminHandler    *handler.AdminHandler
	AuthMiddleware  func(http.Handler) http.Handler
	AllowedOrigins  []string
	Logger          *zap.Logger
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-API-Key"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// PUBLIC routes (no auth required)
	r.Handle("/metrics", promhttp.Handler())
	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Handler != nil {
			r.Get("/health", cfg.Handler.Health)
			r.Get("/ready", cfg.Handler.Ready)
		}

		// Buyer-facing RBX5 form
		if cfg.RBX5Handler != nil {
			r.Route("/rbx5", func(r chi.Router) {
				r.Get("/packages", cfg.RBX5Handler.Packages)
				r.Get("/quote", cfg.RBX5Handler.Quote)
				r.Post("/sessions", cfg.RBX5Handler.CreateSession)
				r.Route("/sessions/{session_id}", func(r chi.Router) {
					r.Get("/", cfg.RBX5Handler.GetSession)
					r.Delete("/", cfg.RBX5Handler.DeleteSession)
					r.Put("/username", cfg.RBX5Handler.SetUsername)
					r.Put("/quantity", cfg.RBX5Handler.SetQuantity)
					r.Put("/place", cfg.RBX5Handler.SelectPlace)
					r.Post("/verify", cfg.RBX5Handler.Verify)
					r.Post("/checkout", cfg.RBX5Handler.Checkout)
				})
			})
		}

		// AUTHENTICATED routes (use Group to apply auth middleware only to these)
		r.Group(func(r chi.Router) {
			if cfg.AuthMiddleware != nil {
				r.Use(cfg.AuthMiddleware)
			}

			if cfg.CheckoutHandler != nil {
				r.Post("/checkout/handoffs/{token}/claim", cfg.CheckoutHandler.Claim)
			}

			if cfg.OrderHandler != nil {
				r.Route("/orders", func(r chi.Router) {
					r.Get("/", cfg.OrderHandler.ListOrders)
					r.Get("/{order_id}", cfg.OrderHandler.GetOrder)
				})
			}

			if cfg.AdminHandler != nil {
				r.Get("/admin/stats", cfg.AdminHandler.GetStats)
			}
		})
	})

	return r
}
