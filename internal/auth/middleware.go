package auth

import (
	"net/http"
	"strings"

	"github.com/shoptrack/shoptrack/internal/platform/httpx"
)

// TokenParser verifies a bearer token and returns its tenant id.
type TokenParser interface {
	ParseToken(tokenStr string) (string, error)
}

// RequireTenant rejects requests without a valid bearer token and stamps
// the token's tenant onto the request context via httpx.WithTenant.
func RequireTenant(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
				return
			}
			tenantID, err := parser.ParseToken(token)
			if err != nil {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(httpx.WithTenant(r.Context(), tenantID)))
		})
	}
}
