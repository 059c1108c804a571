package mw

import (
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/logbook/internal/logger"
)

const (
	corsAllowMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization, X-Request-ID"
	corsMaxAge       = "600"
)

// CORS answers preflight requests and sets Access-Control headers for the
// allowed origins. "*" allows any origin. An empty list disables CORS
// (passthrough).
func CORS(allowedOrigins []string, log logger.Logger) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		log.Debug("CORS: no allowed origins, passthrough mode")
		return func(next http.Handler) http.Handler { return next }
	}

	wildcard := false
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			wildcard = true
			continue
		}
		if o != "" {
			allowed[o] = struct{}{}
		}
	}

	log.Debugf("CORS: initialized with origins=%v", allowedOrigins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Add("Vary", "Origin")

			_, ok := allowed[origin]
			switch {
			case wildcard:
				h.Set("Access-Control-Allow-Origin", "*")
			case ok:
				h.Set("Access-Control-Allow-Origin", origin)
			default:
				log.Debugf("CORS: origin %s not allowed", origin)
				if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", corsAllowMethods)
				h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
				h.Set("Access-Control-Max-Age", corsMaxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
