package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hilo/internal/platform/metrics"
	"hilo/internal/platform/middleware"
)

// Handler is the thin HTTP layer over the registries. It delegates to the
// domain services and keeps transport concerns out of them.
type Handler struct {
	logger     *slog.Logger
	identity   IdentityService
	materials  MaterialService
	products   ProductService
	garments   GarmentService
	market     MarketService
	provenance ProvenanceService
}

// Deps bundles everything the router needs.
type Deps struct {
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	Sessions   middleware.SessionValidator
	Identity   IdentityService
	Materials  MaterialService
	Products   ProductService
	Garments   GarmentService
	Market     MarketService
	Provenance ProvenanceService
	Health     func() error
}

// NewRouter wires every endpoint. Registration and login are public; every
// other registry route requires a valid session token.
func NewRouter(deps Deps) http.Handler {
	h := &Handler{
		logger:     deps.Logger,
		identity:   deps.Identity,
		materials:  deps.Materials,
		products:   deps.Products,
		garments:   deps.Garments,
		market:     deps.Market,
		provenance: deps.Provenance,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Latency(deps.Metrics))

	r.Get("/healthz", healthHandler(deps.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(public chi.Router) {
		public.Use(middleware.ContentTypeJSON)
		public.Post("/identity/register", h.handleRegister)
		public.Post("/identity/login", h.handleLogin)
	})

	r.Group(func(protected chi.Router) {
		protected.Use(middleware.ContentTypeJSON)
		protected.Use(middleware.RequireSession(deps.Sessions, deps.Logger))
		h.registerIdentityRoutes(protected)
		h.registerMaterialRoutes(protected)
		h.registerProductRoutes(protected)
		h.registerGarmentRoutes(protected)
		h.registerMarketRoutes(protected)
		h.registerProvenanceRoutes(protected)
	})

	return r
}

func healthHandler(check func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
