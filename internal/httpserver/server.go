package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/logbook/internal/config"
	"github.com/MrSnakeDoc/logbook/internal/httpserver/deps"
	"github.com/MrSnakeDoc/logbook/internal/httpserver/mw"
	"github.com/MrSnakeDoc/logbook/internal/httpserver/routes"
	"github.com/MrSnakeDoc/logbook/internal/logger"
)

// Server is the logbook HTTP API.
type Server struct {
	http   *http.Server
	logger logger.Logger

	mu   sync.Mutex
	addr net.Addr
}

// Router builds the handler tree: global middlewares, then every
// registered route.
func Router(d deps.Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.GetHead)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(mw.Log(d.Logger))
	r.Use(mw.CORS(d.CORSOrigins, d.Logger))
	// Timeouts are per route since /events is long-lived.

	routes.RegisterAll(r, d)
	return r
}

// New builds the server. Shutdown closes the live hub first so open
// event streams end and the connections drain.
func New(cfg *config.Config, loggerClient logger.Logger, d deps.Deps) *Server {
	s := &http.Server{
		Addr:              cfg.ListenPort,
		Handler:           Router(d),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	if d.Hub != nil {
		s.RegisterOnShutdown(d.Hub.Close)
	}

	return &Server{http: s, logger: loggerClient}
}

// Start listens and serves until Stop. It returns nil on a clean stop.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	s.logger.Info("HTTP server listening", logger.String("addr", ln.Addr().String()))
	if err := s.http.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr is the bound address once Start is listening, nil before.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Stop drains connections until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down")
	return s.http.Shutdown(ctx)
}
