package chi

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// BearerAuthMiddleware returns a middleware that validates Bearer tokens.
// If apiKeys is empty, authentication is disabled (pass-through).
// CORS preflight requests are never challenged.
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	validKeys := make([][]byte, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			validKeys = append(validKeys, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		if len(validKeys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "missing authorization header")
				return
			}

			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(auth, bearerPrefix) {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "authorization header must use Bearer scheme")
				return
			}

			if !validToken(validKeys, []byte(auth[len(bearerPrefix):])) {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid api key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func validToken(keys [][]byte, token []byte) bool {
	ok := false
	for _, k := range keys {
		if subtle.ConstantTimeCompare(k, token) == 1 {
			ok = true
		}
	}
	return ok
}
