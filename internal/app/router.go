package app

import (
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/volunteerhub/portal/internal/console"
	"github.com/volunteerhub/portal/internal/guard"
	"github.com/volunteerhub/portal/internal/observability"
	"github.com/volunteerhub/portal/internal/platform/httpx"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Portal  *console.Handler
	Console *console.Handler
	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router serving the portal at / and the
// administrator console at /admin.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", params.Metrics.Handler())

	r.Route("/api", params.Portal.MountAPI)
	r.Route(guard.Console.Prefix, func(r chi.Router) {
		r.Route("/api", params.Console.MountAPI)
		params.Console.MountPages(r)
	})
	params.Portal.MountPages(r)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no route for "+r.URL.Path)
	})
	return r
}

// NewHandlers builds the portal and console handlers from a runtime.
func NewHandlers(rt *Runtime, cfg *Config, logger *slog.Logger) (portal, admin *console.Handler) {
	portal = console.NewHandler(console.HandlerParams{
		Logger:    logger,
		Store:     rt.User.Store,
		Service:   rt.User.Service,
		Client:    rt.User.Client,
		Table:     guard.Portal,
		StaticDir: cfg.StaticDir,
	})
	adminStatic := ""
	if cfg.StaticDir != "" {
		adminStatic = filepath.Join(cfg.StaticDir, "admin")
	}
	admin = console.NewHandler(console.HandlerParams{
		Logger:    logger,
		Store:     rt.Admin.Store,
		Service:   rt.Admin.Service,
		Client:    rt.Admin.Client,
		Table:     guard.Console,
		StaticDir: adminStatic,
	})
	return portal, admin
}
