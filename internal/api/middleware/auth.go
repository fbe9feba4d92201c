// internal/api/middleware/auth.go
package middleware

import (
	"crypto/subtle"
	"net/http"
	"slices"
	"strings"

	"github.com/newthinker/swingbot/internal/api/response"
	"github.com/newthinker/swingbot/internal/core"
)

// APIKeyAuth returns middleware that validates the X-API-Key header or an
// "Authorization: Bearer" token. Requests for the public paths pass
// through. If apiKey is empty, authentication is disabled.
func APIKeyAuth(apiKey string, public ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" || slices.Contains(public, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			key := providedKey(r)
			if key == "" {
				response.Error(w, http.StatusUnauthorized,
					core.Errorf(core.ErrUnauthorized, "no API key provided"))
				return
			}

			// Constant-time comparison to prevent timing attacks
			if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
				response.Error(w, http.StatusUnauthorized,
					core.WrapError(core.ErrUnauthorized, nil))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func providedKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
