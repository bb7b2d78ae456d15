package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/crmstore-backend/api/controllers"
	"github.com/angelmondragon/crmstore-backend/api/middleware"
	"github.com/angelmondragon/crmstore-backend/internal/actions"
	"github.com/angelmondragon/crmstore-backend/internal/catalog"
	"github.com/angelmondragon/crmstore-backend/internal/sales"
	"github.com/angelmondragon/crmstore-backend/pkg/config"
	"github.com/angelmondragon/crmstore-backend/pkg/db"
	"github.com/angelmondragon/crmstore-backend/pkg/logger"
	"github.com/angelmondragon/crmstore-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	catalogService catalog.Service,
	salesService sales.Service,
	actionsService actions.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	writePolicy := middleware.NewRateLimitPolicy(
		"write",
		cfg.RateLimit.WriteWindow,
		cfg.RateLimit.WriteIPLimit,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(writePolicy, redisClient, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/catalog", func(r chi.Router) {
			r.Route("/categories", func(r chi.Router) {
				r.Post("/", controllers.CategoryCreate(catalogService, logg))
				r.Put("/{categoryId}/name", controllers.CategoryRename(catalogService, logg))
				r.Put("/{categoryId}/price-policy", controllers.CategorySetPricePolicy(catalogService, logg))
			})
			r.Post("/policies", controllers.PricePolicyCreate(catalogService, logg))
			r.Post("/vat-rates", controllers.VatRateCreate(catalogService, logg))
			r.Route("/items", func(r chi.Router) {
				r.Post("/", controllers.ItemCreate(catalogService, logg))
				r.Get("/{itemId}", controllers.ItemGet(catalogService, logg))
				r.Patch("/{itemId}", controllers.ItemUpdate(catalogService, logg))
				r.Get("/{itemId}/effective-price", controllers.ItemEffectivePrice(catalogService, logg))
				r.Get("/{itemId}/discounts", controllers.ItemDiscounts(catalogService, logg))
			})
			r.Post("/discounts", controllers.DiscountCreate(catalogService, logg))
			r.Post("/price-classes", controllers.PriceClassCreate(catalogService, logg))
		})

		r.Post("/action-types", controllers.ActionTypeCreate(actionsService, logg))

		r.Route("/actions", func(r chi.Router) {
			r.Get("/", controllers.ActionList(actionsService, logg))
			r.Post("/", controllers.ActionCreate(actionsService, logg))
			r.Get("/{actionId}", controllers.ActionGet(actionsService, logg))
			r.Patch("/{actionId}", controllers.ActionUpdate(actionsService, logg))
			r.Post("/{actionId}/clone", controllers.ActionClone(actionsService, logg))
			r.Route("/{actionId}/sale", func(r chi.Router) {
				r.Get("/", controllers.SaleGet(salesService, logg))
				r.Post("/lines", controllers.SaleLineAdd(salesService, logg))
			})
		})

		r.Route("/sale-lines", func(r chi.Router) {
			r.Patch("/{lineId}", controllers.SaleLineUpdate(salesService, logg))
			r.Delete("/{lineId}", controllers.SaleLineDelete(salesService, logg))
		})
	})

	return r
}
