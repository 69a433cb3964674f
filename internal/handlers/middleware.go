package handlers

import (
	"net/http"

	"github.com/nexo-rrhh/portal/internal/services"
	"github.com/nexo-rrhh/portal/internal/session"
	"github.com/nexo-rrhh/portal/types"
)

// RequireAuth resolves the current user from the database on every request
// and stores it in the request context. Anonymous visitors, and sessions
// whose user was deactivated, are redirected to the login page.
func (p *Pages) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromContext(r.Context())

		user, err := p.auth.CurrentUser(r.Context(), sess)
		if err != nil {
			p.fail(w, r, err, "/login")
			return
		}
		if user == nil {
			if sess.Authenticated() {
				sess.Unbind()
				sess.AddFlash(session.FlashInfo, msgSessionExpired)
			}
			p.redirect(w, r, "/login")
			return
		}

		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

// RequireRoles admits only users whose role is listed. It must run after
// RequireAuth. Denied users go back to the dashboard with a message that
// does not reveal which roles are required.
func (p *Pages) RequireRoles(roles ...types.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := services.RequireRole(userFromContext(r.Context()), roles...); err != nil {
				p.logger(r).Info().Str("path", r.URL.Path).Msg("authorization denied")
				p.flashRedirect(w, r, session.FlashError, msgForbidden, "/dashboard")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
