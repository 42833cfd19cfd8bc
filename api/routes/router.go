package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmarrez/storefront-backend/api/controllers"
	webhookcontrollers "github.com/dmarrez/storefront-backend/api/controllers/webhooks"
	"github.com/dmarrez/storefront-backend/api/middleware"
	authsvc "github.com/dmarrez/storefront-backend/internal/auth"
	"github.com/dmarrez/storefront-backend/internal/basket"
	checkoutsvc "github.com/dmarrez/storefront-backend/internal/checkout"
	"github.com/dmarrez/storefront-backend/internal/orders"
	"github.com/dmarrez/storefront-backend/internal/products"
	stripewebhook "github.com/dmarrez/storefront-backend/internal/webhooks/stripe"
	"github.com/dmarrez/storefront-backend/pkg/auth/session"
	"github.com/dmarrez/storefront-backend/pkg/config"
	"github.com/dmarrez/storefront-backend/pkg/db"
	"github.com/dmarrez/storefront-backend/pkg/logger"
	"github.com/dmarrez/storefront-backend/pkg/metrics"
	"github.com/dmarrez/storefront-backend/pkg/redis"
	"github.com/dmarrez/storefront-backend/pkg/stripe"
)

// RouterParams bundles everything the HTTP surface needs.
type RouterParams struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           db.Pinger
	Redis        *redis.Client
	Metrics      *metrics.HTTPMetrics
	Gatherer     prometheus.Gatherer
	Sessions     session.AccessSessionChecker
	Products     products.Service
	Baskets      basket.Service
	Auth         authsvc.Service
	Orders       orders.Service
	Checkout     checkoutsvc.Service
	StripeClient *stripe.Client
	StripeHooks  *stripewebhook.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(p.Metrics),
		middleware.CORS(cfg.CORS),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, p.DB, p.Redis, logg))
	})

	if p.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(p.StripeHooks, p.StripeClient, logg))
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ListProducts(p.Products, logg))
		r.Get("/filters", controllers.GetProductFilters(p.Products, logg))
		r.Get("/{productId}", controllers.GetProduct(p.Products, logg))
	})

	r.Route("/api/v1/basket", func(r chi.Router) {
		r.Use(middleware.OptionalAuth(cfg.JWT, p.Sessions, logg))
		r.Get("/", controllers.GetBasket(p.Baskets, cfg.Basket, logg))
		r.Post("/", controllers.AddBasketItem(p.Baskets, cfg.Basket, logg))
		r.Delete("/", controllers.RemoveBasketItem(p.Baskets, cfg.Basket, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(
			middleware.AuthRateLimit(registerPolicy, p.Redis, logg),
			middleware.Idempotency(p.Redis, logg),
		).Post("/register", controllers.Register(p.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).
			Post("/login", controllers.Login(p.Auth, p.Baskets, cfg.Basket, logg))
		r.Post("/refresh", controllers.Refresh(p.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
			r.Get("/me", controllers.Me(p.Auth, p.Baskets, logg))
			r.Post("/logout", controllers.Logout(p.Auth, logg))
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
		r.Use(middleware.Idempotency(p.Redis, logg))

		r.Post("/api/v1/checkout/payment-intent", controllers.CreatePaymentIntent(p.Checkout, logg))
		r.Route("/api/v1/orders", func(r chi.Router) {
			r.Post("/", controllers.SubmitOrder(p.Orders, p.Checkout, logg))
			r.Get("/", controllers.ListOrders(p.Orders, logg))
			r.Get("/{orderId}", controllers.GetOrder(p.Orders, logg))
		})
	})

	r.Route("/api/admin/v1/products", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
		r.Use(middleware.RequireAdmin(logg))
		r.Post("/", controllers.CreateProduct(p.Products, logg))
		r.Put("/{productId}", controllers.UpdateProduct(p.Products, logg))
		r.Delete("/{productId}", controllers.DeleteProduct(p.Products, logg))
	})

	return r
}
