package middleware

import (
	"crypto/subtle"
	"log"
	"net/http"
	"strings"
)

// AuthConfig holds authentication configuration
type AuthConfig struct {
	// Secret is the shared bearer token. Empty disables authentication.
	Secret string

	// SkipPaths are paths that don't require authentication.
	// A trailing "*" matches by prefix.
	SkipPaths []string
}

// AuthMiddleware provides bearer-secret authentication
type AuthMiddleware struct {
	secret  []byte
	skipMap map[string]bool
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(config *AuthConfig) *AuthMiddleware {
	m := &AuthMiddleware{
		secret:  []byte(config.Secret),
		skipMap: make(map[string]bool),
	}

	// Build skip paths map for O(1) lookup
	for _, path := range config.SkipPaths {
		m.skipMap[path] = true
	}

	if m.IsEnabled() {
		log.Printf("AuthMiddleware: authentication ENABLED")
	} else {
		log.Printf("Warning: API_SECRET is not set, webhook authentication is DISABLED")
	}

	return m
}

// IsEnabled returns whether authentication is enforced
func (m *AuthMiddleware) IsEnabled() bool {
	return len(m.secret) > 0
}

// Wrap wraps an http.Handler with authentication
func (m *AuthMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.IsEnabled() || m.shouldSkipAuth(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token := extractBearerToken(r)
		if token == "" {
			m.unauthorized(w, "Missing bearer token")
			return
		}

		if subtle.ConstantTimeCompare([]byte(token), m.secret) != 1 {
			log.Printf("AuthMiddleware: Invalid token attempt from %s", r.RemoteAddr)
			m.unauthorized(w, "Invalid bearer token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// shouldSkipAuth checks if the path should skip authentication
func (m *AuthMiddleware) shouldSkipAuth(path string) bool {
	if m.skipMap[path] {
		return true
	}

	for skipPath := range m.skipMap {
		if strings.HasSuffix(skipPath, "*") {
			prefix := strings.TrimSuffix(skipPath, "*")
			if strings.HasPrefix(path, prefix) {
				return true
			}
		}
	}

	return false
}

// extractBearerToken returns the token of an "Authorization: Bearer <token>" header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if len(authHeader) > len("Bearer ") && strings.EqualFold(authHeader[:len("Bearer ")], "Bearer ") {
		return authHeader[len("Bearer "):]
	}
	return ""
}

// unauthorized sends an unauthorized response
func (m *AuthMiddleware) unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer realm=\"API\"")
	w.WriteHeader(http.StatusUnauthorized)
	if _, err := w.Write([]byte(`{"success":false,"error":"` + message + `"}`)); err != nil {
		log.Printf("Failed to write error response: %v", err)
	}
}
