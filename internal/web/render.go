// Package web renders the portal's HTML pages from plain view records.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

const AppName = "NEXO RRHH"

const (
	PageLogin     = "login"
	PageDashboard = "dashboard"
	PageUsers     = "users"
)

// Flash is a message shown once at the top of a page.
type Flash struct {
	Kind    string
	Message string
}

// Badge identifies the signed in user in the top bar.
type Badge struct {
	Username string
	Role     string
}

// Page is the data shared by every page layout.
type Page struct {
	Title    string
	Subtitle string
	Theme    string
	User     *Badge
	Flashes  []Flash
	Content  any
}

// AppName is exposed to templates as a method so views need not carry it.
func (Page) AppName() string { return AppName }

type LoginView struct {
	Username string
}

type DashboardView struct {
	Uploads        []UploadRow
	Accept         string
	MaxUploadMB    int64
	CanManageUsers bool
}

type UploadRow struct {
	ID           int
	OriginalName string
	StoredName   string
	Uploader     string
	UploadedAt   string
	Notes        string
}

type UsersView struct {
	Users []UserRow
}

type UserRow struct {
	ID        int
	Username  string
	Role      string
	Active    bool
	CreatedAt string
}

// Renderer executes the embedded page templates.
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	pages := make(map[string]*template.Template)
	for _, name := range []string{PageLogin, PageDashboard, PageUsers} {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		pages[name] = tmpl
	}
	return &Renderer{pages: pages}, nil
}

// Render writes the named page. The page is rendered into a buffer first so
// a template error never produces a half written response.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, page Page) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", page); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
