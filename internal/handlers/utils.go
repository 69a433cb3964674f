package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/nexo-rrhh/portal/types"
)

type contextKey string

const contextUserKey contextKey = "user"

// userFromContext returns the user resolved by RequireAuth.
func userFromContext(ctx context.Context) *types.User {
	user, _ := ctx.Value(contextUserKey).(*types.User)
	return user
}

func withUser(ctx context.Context, user *types.User) context.Context {
	return context.WithValue(ctx, contextUserKey, user)
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}
