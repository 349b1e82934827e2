package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tirehub/punchout-backend/api/controllers"
	"github.com/tirehub/punchout-backend/api/middleware"
	"github.com/tirehub/punchout-backend/internal/auditlog"
	"github.com/tirehub/punchout-backend/internal/items"
	"github.com/tirehub/punchout-backend/internal/punchout"
	"github.com/tirehub/punchout-backend/internal/sessions"
	"github.com/tirehub/punchout-backend/internal/storefront"
	"github.com/tirehub/punchout-backend/pkg/config"
	"github.com/tirehub/punchout-backend/pkg/logger"
	"github.com/tirehub/punchout-backend/pkg/redis"
)

// NewRouter assembles the HTTP surface: cXML intake, portal and
// shopping JSON endpoints for the storefront host, the admin session
// grid, and the operational endpoints.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbPinger controllers.Pinger,
	redisClient *redis.Client,
	punchoutService *punchout.Service,
	sessionsService *sessions.Service,
	storefrontService *storefront.Service,
	itemsRepo items.Repository,
	audit *auditlog.Writer,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbPinger, redisClient))
	})
	r.Get("/ping", controllers.Ping())
	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	// The procurement system talks to these two directly.
	r.Group(func(r chi.Router) {
		r.Use(middleware.SetupRateLimit(cfg.RateLimit, redisClient, logg))
		r.Post("/punchout/setup", controllers.Setup(punchoutService, logg))
		r.Get("/punchout/item", controllers.QuickItem(punchoutService, logg))
	})

	// The storefront host calls these on the buyer's behalf.
	r.Route("/api/punchout", func(r chi.Router) {
		r.Use(middleware.CORS(cfg.App.CORSOrigins))
		r.Get("/portal/locations", controllers.PortalLocations(punchoutService, logg))
		r.Post("/portal/submit", controllers.PortalSubmit(punchoutService, logg))
		r.Post("/shopping/start", controllers.ShoppingStart(punchoutService, logg))
		r.Get("/context", controllers.PunchoutContext(storefrontService, logg))
		r.Post("/order/complete", controllers.OrderComplete(punchoutService, logg))
		r.Post("/order/temppo", controllers.TempPO(punchoutService, logg))
	})

	r.Route("/api/admin/sessions", func(r chi.Router) {
		r.Use(middleware.CORS(cfg.App.CORSOrigins))
		r.Get("/", controllers.AdminListSessions(sessionsService, logg))
		r.Get("/{sessionID}", controllers.AdminGetSession(sessionsService, logg))
		r.Get("/{sessionID}/logs", controllers.AdminSessionLogs(sessionsService, audit, logg))
		r.Get("/{sessionID}/items", controllers.AdminSessionItems(sessionsService, itemsRepo, logg))
		r.Get("/{sessionID}/cxml", controllers.AdminSessionCXML(sessionsService, logg))
	})

	return r
}
