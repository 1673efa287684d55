package middlewares

import (
	"net/http"
	"net/url"
	"slices"
	"strings"
)

// CORSMiddleware answers preflights and sets CORS headers for the admin frontend.
// Allowed origins are exact origins, "*", or subdomain patterns such as "https://*.example.org".
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Vary", "Origin")
			if allowedOrigin := getAllowedOrigin(r.Header.Get("Origin"), allowedOrigins); allowedOrigin != "" {
				w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
				if allowedOrigin != "*" {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
			}

			// Content-Disposition carries blob filenames on downloads
			w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
				w.Header().Set("Access-Control-Max-Age", "3600")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getAllowedOrigin returns the value for Access-Control-Allow-Origin, or "" when the origin is not allowed
func getAllowedOrigin(requestOrigin string, allowedOrigins []string) string {
	if requestOrigin == "" {
		return ""
	}
	if slices.Contains(allowedOrigins, "*") {
		return "*"
	}
	if slices.ContainsFunc(allowedOrigins, func(allowed string) bool {
		return originMatches(requestOrigin, allowed)
	}) {
		return requestOrigin
	}
	return ""
}

// originMatches compares an origin with an allowed entry, expanding a leading "*." in the host
func originMatches(origin, allowed string) bool {
	if strings.EqualFold(origin, allowed) {
		return true
	}
	scheme, host, ok := strings.Cut(allowed, "://*.")
	if !ok {
		return false
	}
	u, err := url.Parse(origin)
	if err != nil || !strings.EqualFold(u.Scheme, scheme) {
		return false
	}
	suffix := "." + strings.ToLower(host)
	return strings.HasSuffix(strings.ToLower(u.Host), suffix)
}
