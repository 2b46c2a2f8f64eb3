package guard

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/volunteerhub/portal/internal/auth"
	"github.com/volunteerhub/portal/internal/session"
)

// Decision is the outcome of a guard check: either allow, or redirect.
type Decision struct {
	Allow    bool
	Redirect string
}

func allow() Decision { return Decision{Allow: true} }

func redirect(target string) Decision { return Decision{Redirect: target} }

// Decide applies the table's rules to route. It performs no I/O.
//
// A role path parameter other than volunteer or npo is not found. A protected
// route without a session goes to sign-in; a session whose role does not fit
// the route goes to the principal's own home.
func (t *Table) Decide(route Route, params map[string]string, state auth.SessionState) Decision {
	roleSlug := params[RoleParam]
	if route.HasRoleParam() && !validPortalSlug(roleSlug) {
		return redirect(NotFoundPath)
	}
	if route.Access == Public {
		return allow()
	}
	if !state.LoggedIn || state.Principal == nil {
		return redirect(t.LoginPath(loginSlug(route, roleSlug)))
	}
	if route.HasRoleParam() && state.Principal.Role.Slug() != roleSlug {
		return redirect(t.home(state.Principal))
	}
	if route.Access == Restricted && !state.HasRole(route.Roles...) {
		return redirect(t.home(state.Principal))
	}
	return allow()
}

// loginSlug picks the sign-in page for a route without a role parameter from
// the single role it is restricted to.
func loginSlug(route Route, roleSlug string) string {
	if roleSlug == "" && len(route.Roles) == 1 {
		return route.Roles[0].Slug()
	}
	return roleSlug
}

// StateSource restores the session a guard checks against.
type StateSource interface {
	Restore(ctx context.Context) auth.SessionState
}

// Middleware enforces route on every request and exposes the restored state
// to the next handler through the request context.
func (t *Table) Middleware(route Route, sessions StateSource, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := sessions.Restore(r.Context())
			params := map[string]string{}
			if route.HasRoleParam() {
				params[RoleParam] = chi.URLParam(r, RoleParam)
			}
			decision := t.Decide(route, params, state)
			if !decision.Allow {
				if logger != nil {
					logger.Debug("guard redirect",
						slog.String("table", t.Name),
						slog.String("route", route.Name),
						slog.String("to", decision.Redirect),
					)
				}
				http.Redirect(w, r, t.Prefix+decision.Redirect, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r.WithContext(session.ContextWithState(r.Context(), state)))
		})
	}
}
