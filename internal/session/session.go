// Package session keeps per-browser state in an HS256 signed cookie.
//
// The cookie only carries what the browser may know about itself: the bound
// user id, the theme and pending flash messages. Identity is re-validated
// against the database on every request by the auth service.
package session

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultCookieName = "nexo_session"
	defaultTTL        = 12 * time.Hour

	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Flash kinds.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    string `json:"k"`
	Message string `json:"m"`
}

// Session is the decoded cookie state of one browser.
type Session struct {
	UserID  int
	Theme   string
	Flashes []Flash
}

// Bind associates the session with a user.
func (s *Session) Bind(userID int) {
	s.UserID = userID
}

// Unbind drops the user binding and keeps the theme.
func (s *Session) Unbind() {
	s.UserID = 0
}

// Authenticated reports whether a user id is bound. The caller still has to
// check that the user exists and is active.
func (s *Session) Authenticated() bool {
	return s != nil && s.UserID > 0
}

// Clear wipes all state.
func (s *Session) Clear() {
	*s = Session{}
}

func (s *Session) AddFlash(kind, message string) {
	s.Flashes = append(s.Flashes, Flash{Kind: kind, Message: message})
}

// PopFlashes returns the pending flashes and removes them.
func (s *Session) PopFlashes() []Flash {
	flashes := s.Flashes
	s.Flashes = nil
	return flashes
}

// ToggleTheme flips between the light and dark themes.
func (s *Session) ToggleTheme() {
	if s.Theme == ThemeDark {
		s.Theme = ThemeLight
		return
	}
	s.Theme = ThemeDark
}

// ThemeOrDefault returns the current theme, light when unset.
func (s *Session) ThemeOrDefault() string {
	if s == nil || s.Theme != ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

func (s *Session) empty() bool {
	return s.UserID == 0 && s.Theme == "" && len(s.Flashes) == 0
}

type claims struct {
	UserID  int     `json:"uid,omitempty"`
	Theme   string  `json:"theme,omitempty"`
	Flashes []Flash `json:"flashes,omitempty"`
	jwt.RegisteredClaims
}

// Manager loads and stores sessions as signed cookies.
type Manager struct {
	secret     []byte
	ttl        time.Duration
	secure     bool
	cookieName string
	now        func() time.Time
}

// NewManager constructs a Manager. ttl is an idle timeout: every Save
// extends it.
func NewManager(secret string, ttl time.Duration, secure bool) (*Manager, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("session secret is required")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Manager{
		secret:     []byte(secret),
		ttl:        ttl,
		secure:     secure,
		cookieName: DefaultCookieName,
		now:        time.Now,
	}, nil
}

// Load decodes the session cookie. A missing, tampered or expired cookie
// yields an empty anonymous session.
func (m *Manager) Load(r *http.Request) *Session {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil || cookie.Value == "" {
		return &Session{}
	}

	var c claims
	token, err := jwt.ParseWithClaims(cookie.Value, &c, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return &Session{}
	}

	return &Session{
		UserID:  c.UserID,
		Theme:   c.Theme,
		Flashes: c.Flashes,
	}
}

// Save writes the session cookie, or expires it when the session is empty.
// It must run before the response headers are written.
func (m *Manager) Save(w http.ResponseWriter, s *Session) error {
	if s == nil || s.empty() {
		m.expire(w)
		return nil
	}

	now := m.now()
	expires := now.Add(m.ttl)
	c := claims{
		UserID:  s.UserID,
		Theme:   s.Theme,
		Flashes: s.Flashes,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	value, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (m *Manager) expire(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

type contextKey struct{}

// Middleware loads the session once per request and stores it in the
// request context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := m.Load(r)
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), sess)))
	})
}

func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the request's session, or an empty one when the
// middleware did not run.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(contextKey{}).(*Session); ok && s != nil {
		return s
	}
	return &Session{}
}
