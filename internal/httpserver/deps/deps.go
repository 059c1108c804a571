package deps

import (
	"time"

	"github.com/MrSnakeDoc/logbook/internal/domain"
	"github.com/MrSnakeDoc/logbook/internal/hub"
	"github.com/MrSnakeDoc/logbook/internal/ingest"
	"github.com/MrSnakeDoc/logbook/internal/logger"
	"github.com/MrSnakeDoc/logbook/internal/store"
)

type Deps struct {
	Logger          logger.Logger
	StartTime       time.Time
	Version         string
	Commit          string
	BuildDate       string
	GoVersion       string
	TimeNow         func() time.Time   // for testing, defaults to time.Now
	AllowedHosts    []string           // Host headers allowed to access the ops endpoints
	AllowedCIDRS    []string           // IPs allowed to access the ops endpoints
	TrustProxy      bool               // true if running behind a trusted reverse proxy (e.g., cloudflared)
	CORSOrigins     []string           // Origins allowed by CORS ("*" for any)
	Store           store.Store        // Entry store (redis, postgres or memory)
	Ingest          *ingest.Service    // Validates, persists and broadcasts new entries
	Hub             *hub.Hub           // Live broadcast hub feeding /events
	Calendar        domain.Calendar    // Day rule shared by history and live events
	RequestTimeout  time.Duration      // Per-request timeout for non-streaming routes
	MaxBodyBytes    int64              // Request body limit
	StreamHeartbeat time.Duration      // Interval between SSE keep-alive comments
	IngestBurst     int                // Ingest rate limit burst per client IP (0 disables)
	IngestRefill    int                // Ingest tokens refilled per client IP per minute
	ReloadTrigger   chan struct{}      // Channel to trigger a manual project seed reload (nil if no seed file)
	LastReload      func() time.Time   // Time of the last successful seed reload (nil if no seed file)
}

// Now returns d.TimeNow() or time.Now().
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
