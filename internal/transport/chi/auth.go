package chi

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/evidex/internal/logger"
)

// APIKeyHeader carries the key for clients that cannot set Authorization.
const APIKeyHeader = "X-API-Key"

// Probes and scrapes stay open.
var publicPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// APIKeyAuth rejects /v1 requests that do not present one of apiKeys,
// either as "Authorization: Bearer <key>" or in the X-API-Key header.
// With no non-empty keys configured the middleware is a pass-through.
func APIKeyAuth(apiKeys []string, fallback *zap.Logger) func(http.Handler) http.Handler {
	keys := make([][]byte, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := publicPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			token, reason := presentedKey(r)
			if reason == "" && !validKey(keys, []byte(token)) {
				reason = "invalid api key"
			}
			if reason != "" {
				logpkg.FromContext(r.Context(), fallback).Info("Request rejected",
					zap.String("path", r.URL.Path),
					zap.String("reason", reason),
				)
				writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, reason)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// presentedKey returns the key from the request, or a rejection reason.
func presentedKey(r *http.Request) (key, reason string) {
	if k := r.Header.Get(APIKeyHeader); k != "" {
		return k, ""
	}
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", "missing api key"
	}
	scheme, token, found := strings.Cut(auth, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", "authorization header must use Bearer scheme"
	}
	return strings.TrimSpace(token), ""
}

func validKey(keys [][]byte, token []byte) bool {
	found := 0
	for _, k := range keys {
		found |= subtle.ConstantTimeCompare(k, token)
	}
	return found == 1
}
