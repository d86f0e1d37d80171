package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hardcastle/ledger-direct-backend/api/controllers"
	"github.com/hardcastle/ledger-direct-backend/api/middleware"
	"github.com/hardcastle/ledger-direct-backend/internal/orders"
	"github.com/hardcastle/ledger-direct-backend/internal/quotes"
	"github.com/hardcastle/ledger-direct-backend/pkg/config"
	"github.com/hardcastle/ledger-direct-backend/pkg/logger"
)

// RouterParams carry the wiring for the HTTP surface.
type RouterParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Redis    controllers.Pinger
	Orders   orders.Service
	Quotes   quotes.Service
	Gatherer prometheus.Gatherer
}

// NewRouter assembles the payment gateway's HTTP routes.
func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.DB, params.Redis))
	})

	if params.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(params.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Post("/", controllers.CreateOrder(params.Orders, logg))
		r.Route("/{orderID}", func(r chi.Router) {
			r.Get("/", controllers.GetOrder(params.Orders, logg))
			r.Post("/quote", controllers.CreateQuote(params.Quotes, logg))
			r.Get("/quote", controllers.GetQuote(params.Quotes, logg))
			r.Post("/payment-check", controllers.CheckPayment(params.Quotes, logg))
		})
	})

	return r
}
