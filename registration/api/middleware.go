// registration/api/middleware.go
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/hackbits/registration-service/registration/service"
	sharedapi "github.com/hackbits/registration-service/shared/api"
)

type contextKey string

// adminClaimsKey carries the authenticated admin claims through the
// request context.
const adminClaimsKey contextKey = "adminClaims"

// AdminAuthMiddleware rejects requests without a valid bearer token and
// stashes the claims for handlers.
func AdminAuthMiddleware(auth *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				sharedapi.WriteUnauthorized(w, "missing bearer token")
				return
			}

			claims, err := auth.Authenticate(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				sharedapi.WriteUnauthorized(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), adminClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// adminFromContext returns the authenticated admin claims, or nil outside
// the auth middleware.
func adminFromContext(ctx context.Context) *service.AdminClaims {
	claims, _ := ctx.Value(adminClaimsKey).(*service.AdminClaims)
	return claims
}
