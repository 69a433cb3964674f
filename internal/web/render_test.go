package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRenderPages(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}

	tests := []struct {
		name    string
		page    Page
		want    []string
		notWant []string
	}{
		{
			name: PageLogin,
			page: Page{Title: AppName, Subtitle: "Login", Theme: "light", Content: LoginView{}},
			want: []string{`action="/login"`, "Modo: Claro"},
		},
		{
			name: PageDashboard,
			page: Page{
				Title:   AppName,
				Theme:   "dark",
				User:    &Badge{Username: "admin", Role: "SUPERADMIN"},
				Flashes: []Flash{{Kind: "success", Message: "Excel subido OK."}},
				Content: DashboardView{
					Accept:         ".xlsx,.xls",
					CanManageUsers: true,
					Uploads: []UploadRow{{
						ID:           1,
						OriginalName: "<script>alert(1)</script>.xlsx",
						StoredName:   "20260115_093012_1f2e3d4c__scriptalert1script.xlsx",
						Uploader:     "admin",
					}},
				},
			},
			want: []string{
				`data-theme="dark"`,
				"Excel subido OK.",
				"admin · SUPERADMIN",
				`href="/users"`,
				`href="/uploads/20260115_093012_1f2e3d4c__scriptalert1script.xlsx"`,
				"&lt;script&gt;alert(1)&lt;/script&gt;.xlsx",
			},
			notWant: []string{"<script>alert(1)</script>"},
		},
		{
			name:    PageDashboard + " without admin card",
			page:    Page{User: &Badge{Username: "lector", Role: "LECTOR"}, Content: DashboardView{}},
			want:    []string{"Todavía no hay archivos subidos."},
			notWant: []string{`href="/users"`},
		},
		{
			name: PageUsers,
			page: Page{Content: UsersView{Users: []UserRow{
				{ID: 1, Username: "admin", Role: "SUPERADMIN", Active: true},
				{ID: 2, Username: "baja", Role: "LECTOR", Active: false},
			}}},
			want: []string{"admin", "baja", "Inactivo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, _, _ := strings.Cut(tt.name, " ")
			rec := httptest.NewRecorder()
			if err := r.Render(rec, http.StatusOK, name, tt.page); err != nil {
				t.Fatalf("Render: %v", err)
			}
			body := rec.Body.String()
			for _, want := range tt.want {
				if !strings.Contains(body, want) {
					t.Errorf("body missing %q", want)
				}
			}
			for _, notWant := range tt.notWant {
				if strings.Contains(body, notWant) {
					t.Errorf("body contains %q", notWant)
				}
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
				t.Errorf("Content-Type = %q", ct)
			}
		})
	}
}

func TestRenderUnknownPage(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	rec := httptest.NewRecorder()
	if err := r.Render(rec, http.StatusOK, "missing", Page{}); err == nil {
		t.Fatal("expected error for unknown page")
	}
	if rec.Body.Len() != 0 {
		t.Fatal("unknown page wrote a body")
	}
}
