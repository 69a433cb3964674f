package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/nexo-rrhh/portal/internal/services"
	"github.com/nexo-rrhh/portal/internal/session"
	"github.com/nexo-rrhh/portal/internal/web"
	"github.com/rs/zerolog"
)

const displayTimeFormat = "2006-01-02 15:04:05"

// Pages holds what every HTML handler needs: the auth service, the session
// store and the renderer.
type Pages struct {
	auth     *services.AuthService
	sessions *session.Manager
	view     *web.Renderer
	log      zerolog.Logger
}

func NewPages(auth *services.AuthService, sessions *session.Manager, view *web.Renderer, log zerolog.Logger) *Pages {
	return &Pages{auth: auth, sessions: sessions, view: view, log: log}
}

// redirect persists the session and sends the browser to target.
func (p *Pages) redirect(w http.ResponseWriter, r *http.Request, target string) {
	if err := p.sessions.Save(w, session.FromContext(r.Context())); err != nil {
		p.logger(r).Error().Err(err).Msg("failed to save session")
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// flashRedirect queues a message and redirects.
func (p *Pages) flashRedirect(w http.ResponseWriter, r *http.Request, kind, message, target string) {
	session.FromContext(r.Context()).AddFlash(kind, message)
	p.redirect(w, r, target)
}

// fail logs an unexpected error and sends the user to a safe page with a
// generic message.
func (p *Pages) fail(w http.ResponseWriter, r *http.Request, err error, target string) {
	p.logger(r).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	p.flashRedirect(w, r, session.FlashError, msgUnexpected, target)
}

// render consumes pending flashes, saves the session and writes the page.
func (p *Pages) render(w http.ResponseWriter, r *http.Request, name, subtitle string, content any) {
	sess := session.FromContext(r.Context())

	page := web.Page{
		Title:    web.AppName,
		Subtitle: subtitle,
		Theme:    sess.ThemeOrDefault(),
		Content:  content,
	}
	if user := userFromContext(r.Context()); user != nil {
		page.User = &web.Badge{Username: user.Username, Role: string(user.Role)}
	}
	for _, flash := range sess.PopFlashes() {
		page.Flashes = append(page.Flashes, web.Flash{Kind: flash.Kind, Message: flash.Message})
	}

	if err := p.sessions.Save(w, sess); err != nil {
		p.logger(r).Error().Err(err).Msg("failed to save session")
	}
	if err := p.view.Render(w, http.StatusOK, name, page); err != nil {
		p.logger(r).Error().Err(err).Str("page", name).Msg("failed to render page")
		http.Error(w, msgUnexpected, http.StatusInternalServerError)
	}
}

func (p *Pages) logger(r *http.Request) *zerolog.Logger {
	l := p.log.With().Str("request_id", middleware.GetReqID(r.Context())).Logger()
	return &l
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(displayTimeFormat)
}
