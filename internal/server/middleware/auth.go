package middleware

import (
	"crypto/subtle"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agentstation/dsplugin/internal/server/response"
)

// AuthConfig holds API-key authentication settings.
type AuthConfig struct {
	Enabled     bool
	APIKey      string
	HeaderName  string
	QueryParam  string // browsers cannot set headers on EventSource or WebSocket
	PublicPaths []string
}

// DefaultAuthConfig returns the default authentication settings. The key
// is read from DSPLUGIN_API_KEY.
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		APIKey:      os.Getenv("DSPLUGIN_API_KEY"),
		HeaderName:  "X-API-Key",
		QueryParam:  "api_key",
		PublicPaths: []string{"/health", "/api/v1/health", "/api/v1/ready"},
	}
}

// Auth rejects requests to non-public paths without a valid API key.
func Auth(config AuthConfig, logger *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !config.Enabled || isPublicPath(r.URL.Path, config.PublicPaths) {
				next.ServeHTTP(w, r)
				return
			}

			apiKey := extractAPIKey(r, config)
			if !validKey(apiKey, config.APIKey) {
				logger.Warn().
					Str("path", r.URL.Path).
					Str("remote_addr", r.RemoteAddr).
					Bool("key_provided", apiKey != "").
					Msg("Authentication failed")
				response.Unauthorized(w, "Invalid or missing API key",
					"Provide a valid API key in the "+config.HeaderName+" header")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func validKey(got, want string) bool {
	if got == "" || want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func isPublicPath(path string, publicPaths []string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}

// extractAPIKey looks at the configured header, then Authorization, then
// the query parameter.
func extractAPIKey(r *http.Request, config AuthConfig) string {
	if key := r.Header.Get(config.HeaderName); key != "" {
		return key
	}
	if auth := r.Header.Get("Authorization"); auth != "" {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if config.QueryParam != "" {
		return r.URL.Query().Get(config.QueryParam)
	}
	return ""
}
