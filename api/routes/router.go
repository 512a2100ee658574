package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/packlane/groupbuy-backend/api/controllers"
	grouporderscontrollers "github.com/packlane/groupbuy-backend/api/controllers/grouporders"
	"github.com/packlane/groupbuy-backend/api/middleware"
	internalgrouporders "github.com/packlane/groupbuy-backend/internal/grouporders"
	internalledger "github.com/packlane/groupbuy-backend/internal/ledger"
	"github.com/packlane/groupbuy-backend/pkg/config"
	"github.com/packlane/groupbuy-backend/pkg/db"
	"github.com/packlane/groupbuy-backend/pkg/enums"
	"github.com/packlane/groupbuy-backend/pkg/logger"
	"github.com/packlane/groupbuy-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	groupOrdersSvc internalgrouporders.Service,
	ledgerSvc internalledger.Service,
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
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Route("/api/v1/group-orders", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.With(middleware.RequireRole(string(enums.ActorRoleSupplier), logg)).
			Post("/", grouporderscontrollers.Create(groupOrdersSvc, logg))
		r.Get("/", grouporderscontrollers.List(groupOrdersSvc, logg))
		r.Get("/{groupOrderId}", grouporderscontrollers.Status(groupOrdersSvc, logg))
		r.Get("/{groupOrderId}/ledger", grouporderscontrollers.Ledger(ledgerSvc, logg))

		r.With(middleware.RequireRole(string(enums.ActorRoleVendor), logg)).
			Post("/{groupOrderId}/join", grouporderscontrollers.Join(groupOrdersSvc, logg))
		r.With(middleware.RequireRole(string(enums.ActorRoleVendor), logg)).
			Post("/{groupOrderId}/withdraw", grouporderscontrollers.Withdraw(groupOrdersSvc, logg))
		r.With(middleware.RequireAnyRole(logg, string(enums.ActorRoleSupplier), string(enums.ActorRoleAdmin))).
			Post("/{groupOrderId}/cancel", grouporderscontrollers.Cancel(groupOrdersSvc, logg))
	})

	return r
}
