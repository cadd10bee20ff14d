package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zenartworks/revenue-backend/api/controllers"
	"github.com/zenartworks/revenue-backend/api/middleware"
	"github.com/zenartworks/revenue-backend/internal/analytics"
	"github.com/zenartworks/revenue-backend/internal/catalog"
	"github.com/zenartworks/revenue-backend/internal/ingestion"
	"github.com/zenartworks/revenue-backend/internal/ledger"
	"github.com/zenartworks/revenue-backend/internal/payouts"
	"github.com/zenartworks/revenue-backend/pkg/bigquery"
	"github.com/zenartworks/revenue-backend/pkg/config"
	"github.com/zenartworks/revenue-backend/pkg/db"
	"github.com/zenartworks/revenue-backend/pkg/logger"
	pkgredis "github.com/zenartworks/revenue-backend/pkg/redis"
)

type redisStore interface {
	pkgredis.Pinger
	pkgredis.IdempotencyStore
}

type pinger interface {
	Ping(context.Context) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient redisStore,
	pubsubP pinger,
	bigqueryP bigquery.Pinger,
	ingestionService ingestion.Service,
	ledgerService ledger.Service,
	analyticsService analytics.Service,
	catalogService catalog.Service,
	payoutService payouts.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Idempotency(redisClient, logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient, pubsubP, bigqueryP))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/events", controllers.IngestEvent(ingestionService, logg))
		r.Post("/orders/{orderId}/clear", controllers.ClearOrder(ingestionService, logg))
		r.Get("/ledger/entries", controllers.ListLedgerEntries(ledgerService, logg))
		r.Get("/analytics/summary", controllers.AnalyticsSummary(analyticsService, logg))

		r.Get("/catalog/skus/{code}", controllers.GetSKU(catalogService, logg))
		r.Put("/catalog/skus", controllers.UpsertSKU(catalogService, logg))

		r.Route("/payouts", func(r chi.Router) {
			r.Use(middleware.OperatorAuth(cfg.JWT, logg))

			r.Get("/", controllers.ListPayouts(payoutService, logg))
			r.Get("/{payoutId}", controllers.GetPayout(payoutService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireScope("payouts:write", logg))
				r.Post("/sweep", controllers.SweepPayout(payoutService, logg))
				r.Post("/{payoutId}/submit", controllers.SubmitPayout(payoutService, logg))
				r.Post("/{payoutId}/confirm", controllers.ConfirmPayout(payoutService, logg))
			})
		})
	})

	return r
}
