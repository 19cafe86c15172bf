// Package app is the application bootstrap and dependency injection root.
// It holds the shared infrastructure (DB pool, Redis client, event publisher,
// metrics registry, Echo instance) and wires the plugins together.
package app

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/qualis-hq/backoffice/internal/config"
	"github.com/qualis-hq/backoffice/internal/events"
	"github.com/qualis-hq/backoffice/internal/metrics"
	"github.com/qualis-hq/backoffice/internal/middleware"
)

// App holds all shared dependencies and the Echo HTTP server instance.
// Created once at startup in main.go and used to register all routes.
type App struct {
	// Config holds the loaded application configuration.
	Config *config.Config

	// DB is the MariaDB connection pool shared by all plugins.
	DB *sql.DB

	// Redis backs the auth token cache. Nil when REDIS_URL is empty.
	Redis *redis.Client

	// Publisher forwards activity to the message broker.
	Publisher events.Publisher

	// Registry is what /metrics serves.
	Registry *prometheus.Registry

	// Metrics records domain and HTTP counters into Registry.
	Metrics *metrics.Collector

	// Echo is the HTTP server instance.
	Echo *echo.Echo
}

// New creates a new App instance with the given dependencies and configures
// the Echo server with global middleware and error handling. A nil publisher
// disables event forwarding.
func New(cfg *config.Config, db *sql.DB, rdb *redis.Client, publisher events.Publisher) *App {
	e := echo.New()

	// Disable Echo's default banner and startup message -- we log our own.
	e.HideBanner = true
	e.HidePort = true

	// Resolve c.RealIP() through the configured proxies so the per-IP rate
	// limiter sees clients, not the load balancer.
	middleware.TrustedProxies(e, cfg.TrustedProxies)

	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app := &App{
		Config:    cfg,
		DB:        db,
		Redis:     rdb,
		Publisher: publisher,
		Registry:  reg,
		Metrics:   metrics.NewCollector(reg),
		Echo:      e,
	}

	// Register global middleware in order of execution.
	app.setupMiddleware()

	// Every error leaves as {"error": <type>, "message": <text>}.
	e.HTTPErrorHandler = middleware.ErrorHandler

	return app
}

// setupMiddleware registers global middleware on the Echo instance.
// Order matters: outermost (recovery) runs first.
func (a *App) setupMiddleware() {
	// Panic recovery -- must be outermost to catch panics from all other middleware.
	a.Echo.Use(middleware.Recovery())

	// Request logging -- method, path, status, latency, request ID.
	a.Echo.Use(middleware.RequestLogger(a.Metrics))

	a.Echo.Use(middleware.SecurityHeaders())

	origins := a.Config.CORSOrigins
	if len(origins) == 0 {
		origins = []string{a.Config.BaseURL}
	}
	a.Echo.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: origins,
	}))
}

// Start begins listening for HTTP requests on the configured port.
func (a *App) Start() error {
	addr := fmt.Sprintf(":%d", a.Config.Port)
	slog.Info("starting back-office API",
		slog.String("addr", addr),
		slog.String("env", a.Config.Env),
	)
	return a.Echo.Start(addr)
}
