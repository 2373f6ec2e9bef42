package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"github.com/JonMunkholm/estatekit/internal/config"
	"github.com/JonMunkholm/estatekit/internal/logging"
)

// APIKeyHeader carries the key for /api routes. A bearer token in the
// Authorization header is accepted as well.
const APIKeyHeader = "X-API-Key"

type authError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// APIKeyAuth rejects requests without a configured API key when
// cfg.RequireAPIKey is set. With auth required but no keys configured every
// request is rejected.
func APIKeyAuth(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	keys := make([][]byte, 0, len(cfg.APIKeys))
	for _, k := range cfg.APIKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		if !cfg.RequireAPIKey {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := presentedKey(r)
			logger := logging.WithFields(r.Context(), "path", r.URL.Path, "remote_addr", r.RemoteAddr)

			switch {
			case key == "":
				logger.Warn("auth: missing API key")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, authError{Error: "missing API key", Code: "AUTH001"})
			case !matchesAny([]byte(key), keys):
				logger.Warn("auth: invalid API key")
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, authError{Error: "invalid API key", Code: "AUTH002"})
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func presentedKey(r *http.Request) string {
	if k := r.Header.Get(APIKeyHeader); k != "" {
		return k
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// matchesAny compares against every key so timing does not reveal which
// key (if any) matched.
func matchesAny(key []byte, keys [][]byte) bool {
	match := 0
	for _, k := range keys {
		match |= subtle.ConstantTimeCompare(key, k)
	}
	return match == 1
}
