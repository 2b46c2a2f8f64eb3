package console

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/volunteerhub/portal/internal/guard"
	"github.com/volunteerhub/portal/internal/platform/httpx"
	"github.com/volunteerhub/portal/internal/session"
)

type pageView struct {
	Frontend string            `json:"frontend"`
	Route    string            `json:"route"`
	Access   string            `json:"access"`
	Params   map[string]string `json:"params,omitempty"`
	Session  sessionView       `json:"session"`
}

// MountPages registers every route of the handler's table behind its guard.
// With a static directory the single-page index is served; otherwise a JSON
// descriptor of the resolved route.
func (h *Handler) MountPages(r chi.Router) {
	if h.staticDir != "" {
		assets := http.FileServer(http.Dir(filepath.Join(h.staticDir, "assets")))
		r.Handle("/assets/*", http.StripPrefix(h.table.Prefix+"/assets", assets))
	}
	for _, route := range h.table.Routes {
		r.With(h.table.Middleware(route, h.store, h.logger)).Get(route.Path, h.page(route))
	}
}

func (h *Handler) page(route guard.Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.staticDir != "" {
			index := filepath.Join(h.staticDir, "index.html")
			if _, err := os.Stat(index); err == nil {
				http.ServeFile(w, r, index)
				return
			}
		}
		view := pageView{
			Frontend: h.table.Name,
			Route:    route.Name,
			Access:   route.Access.String(),
			Session:  h.viewOf(session.StateFromContext(r.Context())),
		}
		if route.HasRoleParam() {
			view.Params = map[string]string{guard.RoleParam: chi.URLParam(r, guard.RoleParam)}
		}
		httpx.JSON(w, http.StatusOK, view)
	}
}
