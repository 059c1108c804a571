package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/logbook/internal/config"
	"github.com/MrSnakeDoc/logbook/internal/domain"
	"github.com/MrSnakeDoc/logbook/internal/httpserver"
	"github.com/MrSnakeDoc/logbook/internal/httpserver/deps"
	"github.com/MrSnakeDoc/logbook/internal/hub"
	"github.com/MrSnakeDoc/logbook/internal/ingest"
	"github.com/MrSnakeDoc/logbook/internal/logger"
	"github.com/MrSnakeDoc/logbook/internal/redis"
	"github.com/MrSnakeDoc/logbook/internal/scheduler"
	"github.com/MrSnakeDoc/logbook/internal/store"
	"github.com/MrSnakeDoc/logbook/internal/store/memory"
	"github.com/MrSnakeDoc/logbook/internal/store/postgres"
	redisstore "github.com/MrSnakeDoc/logbook/internal/store/redis"
	"github.com/MrSnakeDoc/logbook/internal/version"
)

type App struct {
	cfg    *config.Config
	logger logger.Logger
	server *httpserver.Server
	store  store.Store
	closer io.Closer // backend connection, nil for memory
	seeder *scheduler.ProjectSeeder
	pruner *scheduler.Pruner
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Initialize the store early - fail fast if unavailable
	st, closer, err := openStore(context.Background(), cfg, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to open %s store: %v", cfg.StoreBackend, err)
		os.Exit(1)
	}
	loggerClient.Info("store initialized successfully",
		logger.String("backend", st.Backend()))

	calendar := domain.NewCalendar(cfg.TimeZone, cfg.DayLayout)
	liveHub := hub.New(cfg.HubBuffer)
	ingestService := ingest.NewService(st, liveHub, calendar, loggerClient.Named("ingest"))

	// Project seeding is optional
	var (
		seeder        *scheduler.ProjectSeeder
		reloadTrigger chan struct{}
		lastReload    func() time.Time
	)
	if cfg.ProjectsFile != "" {
		loggerClient.Info("projects file configured, initializing seeder",
			logger.String("file", cfg.ProjectsFile))
		reloadTrigger = make(chan struct{}, 1)
		seeder = scheduler.NewProjectSeeder(
			cfg.ProjectsFile,
			st,
			loggerClient.Named("seeder"),
			cfg.ReloadInterval,
			reloadTrigger,
		)
		lastReload = seeder.LastReload
	} else {
		loggerClient.Info("projects file not configured, seeding disabled")
	}

	var pruner *scheduler.Pruner
	if cfg.Retention > 0 {
		pruner = scheduler.NewPruner(st, loggerClient.Named("pruner"), cfg.RetentionInterval, cfg.Retention)
	}

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:          loggerClient,
		StartTime:       time.Now(),
		Version:         version.Version,
		Commit:          version.Commit,
		BuildDate:       version.BuildDate,
		GoVersion:       version.GoVersion,
		TimeNow:         time.Now,
		AllowedHosts:    cfg.AllowedHosts,
		AllowedCIDRS:    cfg.AllowedCIDRS,
		TrustProxy:      cfg.TrustProxy,
		CORSOrigins:     cfg.CORSOrigins,
		Store:           st,
		Ingest:          ingestService,
		Hub:             liveHub,
		Calendar:        calendar,
		RequestTimeout:  cfg.RequestTimeout,
		MaxBodyBytes:    cfg.MaxBodyBytes,
		StreamHeartbeat: cfg.StreamHeartbeat,
		IngestBurst:     cfg.IngestBurst,
		IngestRefill:    cfg.IngestRefill,
		ReloadTrigger:   reloadTrigger,
		LastReload:      lastReload,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:    cfg,
		logger: loggerClient,
		server: server,
		store:  st,
		closer: closer,
		seeder: seeder,
		pruner: pruner,
	}
}

// openStore connects the configured backend.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (store.Store, io.Closer, error) {
	switch cfg.StoreBackend {
	case config.BackendRedis:
		log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.New(ctx, redis.ConnectOptions{
			Addr:         cfg.RedisAddr,
			User:         cfg.RedisUser,
			Password:     cfg.RedisPassword,
			RedisDB:      cfg.RedisDB,
			DialTimeout:  cfg.RedisDT,
			ReadTimeout:  cfg.RedisRT,
			WriteTimeout: cfg.RedisWT,
			PoolSize:     cfg.RedisPoolSize,
			Retry:        cfg.RetryPolicy(),
		}, log)
		if err != nil {
			return nil, nil, err
		}
		return redisstore.NewStore(client), client, nil

	case config.BackendPostgres:
		log.Info("Connecting to Postgres")
		db, err := postgres.Open(ctx, cfg.PostgresDSN, cfg.RetryPolicy(), log)
		if err != nil {
			return nil, nil, err
		}
		configurePool(db, cfg)
		return postgres.NewStore(db), db, nil

	case config.BackendMemory:
		log.Warn("using in-memory store, entries are lost on restart")
		return memory.NewStore(), nil, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

func configurePool(db *sql.DB, cfg *config.Config) {
	db.SetMaxOpenConns(cfg.PostgresMaxOpenConns)
	db.SetMaxIdleConns(cfg.PostgresMaxIdleConns)
	db.SetConnMaxLifetime(cfg.PostgresConnMaxLifetime)
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting logbook %s on %s", version.String(), a.cfg.ListenPort)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start project seeder (creates declared projects and keeps them in sync)
	if a.seeder != nil {
		if err := a.seeder.Start(ctx); err != nil {
			return fmt.Errorf("failed to start project seeder: %w", err)
		}
		a.logger.Info("project seeder started",
			logger.Duration("interval", a.cfg.ReloadInterval))
	}

	// Start retention pruner
	if a.pruner != nil {
		if err := a.pruner.Start(ctx); err != nil {
			return fmt.Errorf("failed to start retention pruner: %w", err)
		}
		a.logger.Info("retention pruner started",
			logger.Duration("retention", a.cfg.Retention),
			logger.Duration("interval", a.cfg.RetentionInterval))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	if a.seeder != nil {
		a.seeder.Stop()
	}
	if a.pruner != nil {
		a.pruner.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.closer != nil {
		if err := a.closer.Close(); err != nil {
			a.logger.Warnf("failed to close %s store: %v", a.store.Backend(), err)
		} else {
			a.logger.Infof("✅ %s store closed cleanly", a.store.Backend())
		}
	}

	a.logger.Info("✅ logbook stopped cleanly")
	return nil
}
