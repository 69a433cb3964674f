package services

import (
	"errors"
	"testing"

	"github.com/nexo-rrhh/portal/types"
)

func TestRequireRole(t *testing.T) {
	userAdmins := []types.Role{types.RoleSuperAdmin, types.RoleAdmin}

	tests := []struct {
		name    string
		user    *types.User
		allowed []types.Role
		wantErr bool
	}{
		{name: "superadmin on users page", user: &types.User{Role: types.RoleSuperAdmin}, allowed: userAdmins},
		{name: "admin on users page", user: &types.User{Role: types.RoleAdmin}, allowed: userAdmins},
		{name: "rrhh on users page", user: &types.User{Role: types.RoleRRHH}, allowed: userAdmins, wantErr: true},
		{name: "lector on users page", user: &types.User{Role: types.RoleLector}, allowed: userAdmins, wantErr: true},
		{name: "no hierarchy: superadmin not implied", user: &types.User{Role: types.RoleSuperAdmin}, allowed: []types.Role{types.RoleRRHH}, wantErr: true},
		{name: "empty allow-list", user: &types.User{Role: types.RoleSuperAdmin}, wantErr: true},
		{name: "no user", user: nil, allowed: userAdmins, wantErr: true},
		{name: "unknown role", user: &types.User{Role: types.Role("ROOT")}, allowed: userAdmins, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RequireRole(tt.user, tt.allowed...)
			if tt.wantErr {
				if !errors.Is(err, ErrAuthorizationDenied) {
					t.Fatalf("RequireRole() = %v, want ErrAuthorizationDenied", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("RequireRole() = %v, want nil", err)
			}
		})
	}
}
