package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"rbxstore-api/pkg/apierror"
)

// RequireAPIKey rejects requests without one of keys in X-API-Key or an
// Authorization: Bearer header. With no keys configured every request is rejected.
func RequireAPIKey(keys []string) func(http.Handler) http.Handler {
	valid := make([][]byte, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			valid = append(valid, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				auth := r.Header.Get("Authorization")
				if strings.HasPrefix(auth, "Bearer ") {
					apiKey = strings.TrimPrefix(auth, "Bearer ")
				}
			}

			if apiKey == "" {
				writeError(w, apierror.Unauthorized("Authentication required. Use X-API-Key or Bearer header."))
				return
			}
			if !isValidKey([]byte(apiKey), valid) {
				writeError(w, apierror.Unauthorized("Invalid API key"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, err *apierror.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	_, _ = w.Write(err.ToJSON())
}

func isValidKey(key []byte, validKeys [][]byte) bool {
	ok := false
	for _, v := range validKeys {
		if subtle.ConstantTimeCompare(key, v) == 1 {
			ok = true
		}
	}
	return ok
}
