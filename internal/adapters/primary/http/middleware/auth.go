package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/quickbite/order-hub/internal/auth"
	"github.com/quickbite/order-hub/internal/infrastructure/logging"
)

// contextKey keeps middleware context values from colliding with other packages.
type contextKey string

// UserClaimsKey is the key used to store user claims in the request context.
const UserClaimsKey contextKey = "userClaims"

// OptionalJWT attaches validated claims to the request context when a Bearer
// token is present. Requests without a token, or with an invalid one, proceed
// anonymously. The hub trusts declared identity; a token merely binds it
// server-side.
func OptionalJWT(tm *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := claimsFromRequest(tm, r)
			if claims == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), UserClaimsKey, claims)
			ctx = logging.WithUserID(ctx, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the validated claims, or nil for anonymous requests.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(UserClaimsKey).(*auth.Claims)
	return claims
}

func claimsFromRequest(tm *auth.TokenManager, r *http.Request) *auth.Claims {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil
	}

	claims, err := tm.ValidateToken(parts[1])
	if err != nil {
		return nil
	}
	return claims
}
