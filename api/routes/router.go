package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront/api/controllers"
	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// Deps are the services the HTTP surface exposes.
type Deps struct {
	Catalog  controllers.CatalogService
	Carts    controllers.CartStores
	Checkout controllers.CheckoutFlows
	Admin    controllers.AdminSessions

	// Counters backs the admin login rate limit; CounterKey namespaces its keys.
	Counters   middleware.CounterStore
	CounterKey func(string) string

	Ready    map[string]controllers.Pinger
	Gatherer prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Ready))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	loginPolicy := middleware.NewRateLimitPolicy(
		"admin-login",
		cfg.Admin.LoginWindow,
		cfg.Admin.LoginIPLimit,
		cfg.Admin.LoginEmailLimit,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(logg))

		r.Get("/products", controllers.ProductList(deps.Catalog, logg))
		r.Get("/products/{id}", controllers.ProductDetail(deps.Catalog, logg))
		r.Get("/categories", controllers.CategoryList(deps.Catalog, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(deps.Carts, logg))
			r.Delete("/", controllers.CartClear(deps.Carts, logg))
			r.Post("/items", controllers.CartAddItem(deps.Carts, deps.Catalog, logg))
			r.Put("/items/{productId}", controllers.CartSetQuantity(deps.Carts, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(deps.Carts, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", controllers.CheckoutFetch(deps.Checkout, logg))
			r.Post("/", controllers.CheckoutOpen(deps.Checkout, logg))
			r.Delete("/", controllers.CheckoutCancel(deps.Checkout, logg))
			r.Post("/payment-session", controllers.CheckoutPreparePayment(deps.Checkout, logg))
			r.Post("/submit", controllers.CheckoutSubmit(deps.Checkout, logg))
			r.Post("/retry", controllers.CheckoutRetry(deps.Checkout, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.With(middleware.RateLimit(loginPolicy, deps.Counters, deps.CounterKey, logg)).Post("/login", controllers.AdminLogin(deps.Admin, logg))
			r.Get("/me", controllers.AdminMe(deps.Admin, logg))
			r.Post("/logout", controllers.AdminLogout(deps.Admin, logg))
		})
	})

	return r
}
