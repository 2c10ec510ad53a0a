package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/savora/api/internal/auth"
	"github.com/savora/api/internal/rbac"
)

type contextKey string

const identityKey contextKey = "identity"

// Authenticate resolves the bearer token into an rbac.Identity and stores
// it on the request context. A token carrying an unknown role code is
// rejected the same as an invalid token.
func Authenticate(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing authorization header"})
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid authorization format"})
				return
			}

			claims, err := auth.ValidateToken(jwtSecret, parts[1])
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
				return
			}

			identity, err := claims.Identity()
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireRole denies the request unless the identity holds the role.
// Admin satisfies a staff requirement.
func RequireRole(role rbac.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if deny(w, rbac.Authorize(IdentityFromContext(r.Context()), &role, nil)) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireCapability denies the request unless the identity is an admin or
// a staff member holding the capability bit.
func RequireCapability(cap rbac.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if deny(w, rbac.Authorize(IdentityFromContext(r.Context()), nil, &cap)) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// deny writes the gate's decision as an HTTP error. Returns true when the
// request was denied.
func deny(w http.ResponseWriter, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, rbac.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
	case errors.Is(err, rbac.ErrInsufficientPermission):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "insufficient permission"})
	default:
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
	}
	return true
}

// WithIdentity returns a context carrying the identity.
func WithIdentity(ctx context.Context, id *rbac.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the authenticated identity, or nil.
func IdentityFromContext(ctx context.Context) *rbac.Identity {
	id, _ := ctx.Value(identityKey).(*rbac.Identity)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
