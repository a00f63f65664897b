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

// BearerAuthMiddleware returns a middleware that validates API keys sent as
// "Authorization: Bearer <key>" or "X-API-Key: <key>". If apiKeys is empty,
// authentication is disabled (pass-through).
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
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			token, msg := requestToken(r)
			if msg != "" {
				writeError(w, http.StatusUnauthorized, codeUnauthorized, msg)
				return
			}
			if !validToken(validKeys, []byte(token)) {
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "invalid api key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// requestToken extracts the key. A non-empty msg explains why there is none.
func requestToken(r *http.Request) (token, msg string) {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key, ""
	}
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", "missing authorization header"
	}
	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(auth, bearerPrefix) {
		return "", "authorization header must use Bearer scheme"
	}
	return auth[len(bearerPrefix):], ""
}

func validToken(keys [][]byte, token []byte) bool {
	ok := 0
	for _, k := range keys {
		ok |= subtle.ConstantTimeCompare(k, token)
	}
	return ok == 1
}
