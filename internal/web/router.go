// Package web exposes the cart engine over a local HTTP API; it stands
// in for the UI layer, which is out of scope.
package web

import (
	"log/slog"
	"net/http"

	cartapp "github.com/batuhanyalcin/storefront/internal/cart/app"
	checkoutapp "github.com/batuhanyalcin/storefront/internal/checkout/app"
	"github.com/batuhanyalcin/storefront/internal/metrics"
	"github.com/batuhanyalcin/storefront/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

type Deps struct {
	Cart     *cartapp.Service
	Checkout *checkoutapp.Service
	Gate     *session.Gate
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
	Log      *slog.Logger

	// Requests per second for the whole facade; zero disables limiting.
	RateLimit float64
}

func NewRouter(deps Deps) http.Handler {
	h := &handlers{
		cart:     deps.Cart,
		checkout: deps.Checkout,
		gate:     deps.Gate,
		metrics:  deps.Metrics,
		log:      deps.Log,
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger(deps.Log))
	if deps.RateLimit > 0 {
		r.Use(rateLimit(rate.NewLimiter(rate.Limit(deps.RateLimit), int(deps.RateLimit)+1)))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.getCart)
		r.Delete("/", h.clearCart)
		r.Get("/count", h.cartCount)
		r.Post("/items", h.addItem)
		r.Put("/items/{productID}", h.setQuantity)
		r.Delete("/items/{productID}", h.removeItem)
	})

	r.Post("/checkout", h.submitCheckout)

	r.Route("/session", func(r chi.Router) {
		r.Get("/", h.sessionState)
		r.Post("/login", h.login)
		r.Post("/logout", h.logout)
	})

	return r
}
