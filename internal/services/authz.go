package services

import "github.com/nexo-rrhh/portal/types"

// RequireRole allows user only when its role is listed in allowed. Roles
// have no hierarchy and an empty list admits nobody.
func RequireRole(user *types.User, allowed ...types.Role) error {
	if user == nil {
		return ErrAuthorizationDenied
	}
	for _, role := range allowed {
		if user.Role == role {
			return nil
		}
	}
	return ErrAuthorizationDenied
}
