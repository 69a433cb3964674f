package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/nexo-rrhh/portal/internal/services"
	"github.com/nexo-rrhh/portal/internal/session"
	"github.com/nexo-rrhh/portal/internal/web"
)

// AuthHandler serves the public pages: login, logout and the theme toggle.
type AuthHandler struct {
	*Pages
}

// AuthRouter registers the public routes on the given router.
func AuthRouter(r chi.Router, pages *Pages) {
	handler := &AuthHandler{Pages: pages}

	r.Get("/", handler.Index)
	r.Get("/login", handler.LoginForm)
	r.Post("/login", handler.Login)
	r.Get("/logout", handler.Logout)
	r.Post("/toggle-theme", handler.ToggleTheme)
}

// Index sends signed in browsers to the dashboard and everyone else to the
// login page.
func (h *AuthHandler) Index(w http.ResponseWriter, r *http.Request) {
	if session.FromContext(r.Context()).Authenticated() {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, web.PageLogin, "Login", web.LoginView{})
}

// Login checks the submitted credentials and binds the session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.flashRedirect(w, r, session.FlashError, msgLoginFailed, "/login")
		return
	}

	sess := session.FromContext(r.Context())
	user, err := h.auth.Login(r.Context(), sess, r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			h.logger(r).Info().Msg("login rejected")
			h.flashRedirect(w, r, session.FlashError, msgLoginFailed, "/login")
			return
		}
		h.fail(w, r, err, "/login")
		return
	}

	h.logger(r).Info().Int("user_id", user.ID).Msg("user logged in")
	h.flashRedirect(w, r, session.FlashSuccess, msgLoginOK, "/dashboard")
}

// Logout clears the session unconditionally.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.auth.Logout(session.FromContext(r.Context()))
	h.redirect(w, r, "/login")
}

// ToggleTheme flips light/dark mode and returns to the previous page.
func (h *AuthHandler) ToggleTheme(w http.ResponseWriter, r *http.Request) {
	session.FromContext(r.Context()).ToggleTheme()
	h.redirect(w, r, sameHostReferer(r, "/dashboard"))
}

// sameHostReferer returns the path of the Referer when it points back at
// this host, so the toggle cannot be used as an open redirect.
func sameHostReferer(r *http.Request, fallback string) string {
	ref := strings.TrimSpace(r.Referer())
	if ref == "" {
		return fallback
	}
	u, err := url.Parse(ref)
	if err != nil {
		return fallback
	}
	if u.Host != "" && u.Host != r.Host {
		return fallback
	}
	if !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") || strings.HasPrefix(u.Path, "/\\") {
		return fallback
	}
	return u.RequestURI()
}
