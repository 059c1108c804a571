package mw

import (
	"net/http"

	"github.com/MrSnakeDoc/logbook/internal/logger"
	"github.com/MrSnakeDoc/logbook/internal/utils"
)

// AllowOnlyCIDRS restricts the wrapped routes to the given IPs and CIDRs.
// An empty list disables the check.
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	m := utils.NewIPMatcher(allowed)
	if m.IsEmpty() {
		log.Debug("ops allow-list empty, passthrough")
		return func(next http.Handler) http.Handler { return next }
	}

	log.Debug("ops allow-list enabled", logger.Int("rules", m.Len()), logger.Bool("trust_proxy", trustProxy))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addr, ok := utils.ClientAddr(r, trustProxy)
			if !ok || !m.Allow(addr) {
				log.Debug("ops request rejected",
					logger.String("client", utils.ClientIP(r, trustProxy)),
					logger.String("path", r.URL.Path))
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
