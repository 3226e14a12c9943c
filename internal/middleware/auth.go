package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// SuperUserOnly guards debugging endpoints. The caller must present the
// configured token in the Authorization header; an empty configured token
// disables the endpoint entirely. Comparison is constant-time.
func SuperUserOnly(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			auth := r.Header.Get("Authorization")
			presented := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if presented == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
