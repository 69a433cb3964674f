package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nexo-rrhh/portal/internal/services"
	"github.com/nexo-rrhh/portal/internal/web"
	"github.com/nexo-rrhh/portal/types"
)

// userAdminRoles may see the user roster.
var userAdminRoles = []types.Role{types.RoleSuperAdmin, types.RoleAdmin}

// UserHandler serves the user administration pages.
type UserHandler struct {
	*Pages
	users *services.UserService
}

// UserRouter registers the user administration routes.
func UserRouter(r chi.Router, pages *Pages, users *services.UserService) {
	handler := &UserHandler{Pages: pages, users: users}

	r.Group(func(r chi.Router) {
		r.Use(pages.RequireAuth, pages.RequireRoles(userAdminRoles...))
		r.Get("/users", handler.List)
	})
}

// List shows every user, inactive ones included.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.fail(w, r, err, "/dashboard")
		return
	}

	view := web.UsersView{Users: make([]web.UserRow, 0, len(users))}
	for _, user := range users {
		view.Users = append(view.Users, web.UserRow{
			ID:        user.ID,
			Username:  user.Username,
			Role:      string(user.Role),
			Active:    user.IsActive,
			CreatedAt: formatTime(user.CreatedAt),
		})
	}

	h.render(w, r, web.PageUsers, "Administración de usuarios", view)
}
