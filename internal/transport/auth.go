package transport

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

// ErrUnauthorized indicates invalid or missing credentials.
var ErrUnauthorized = errors.New("unauthorized")

// WebhookSecretHeader carries the shared webhook secret. A bearer token
// with the same value is accepted too.
const WebhookSecretHeader = "X-Webhook-Secret"

// WebhookAuth rejects requests that do not present the shared secret.
func WebhookAuth(secret string) func(http.Handler) http.Handler {
	want := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(WebhookSecretHeader)
			if got == "" {
				auth := r.Header.Get("Authorization")
				got = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			}
			if got == "" {
				http.Error(w, "missing webhook secret", http.StatusUnauthorized)
				return
			}
			if subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				http.Error(w, "invalid webhook secret", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
