package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/piousdev/roel-agency/config"
	"github.com/piousdev/roel-agency/internal/application"
	"github.com/piousdev/roel-agency/internal/container"
	"github.com/piousdev/roel-agency/internal/infrastructure/metrics"
	pginfra "github.com/piousdev/roel-agency/internal/infrastructure/postgres"
	"github.com/piousdev/roel-agency/internal/interface/middleware"
	"github.com/piousdev/roel-agency/internal/router"
	"github.com/piousdev/roel-agency/pkg/helpers"
	"github.com/piousdev/roel-agency/pkg/tracking"
	"github.com/piousdev/roel-agency/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx := context.Background()

	// Error tracking
	var reporter tracking.Reporter = tracking.Noop{}
	var sentryReporter *tracking.SentryReporter
	if cfg.SentryDSN != "" {
		sr, err := tracking.NewSentryReporter(tracking.SentryOptions{
			DSN:              cfg.SentryDSN,
			Environment:      cfg.Env,
			Release:          cfg.AppName,
			TracesSampleRate: cfg.SentryTracesSampleRate,
			Debug:            cfg.Env == "development",
		})
		if err != nil {
			logger.WithError(err).Warn("sentry init failed, error reporting disabled")
		} else {
			reporter, sentryReporter = sr, sr
		}
	}
	gate := tracking.NewGate(reporter, logger)

	// Metrics
	var collector *metrics.Collector
	var promReg *prometheus.Registry
	if cfg.MetricsEnabled {
		promReg = prometheus.NewRegistry()
		promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		collector = metrics.NewCollector(promReg)
	}

	// Postgres
	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.PoolOptions{
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: cfg.DBMaxConnLife,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to postgres")
	}
	defer pool.Close()

	if cfg.MigrateOnStart {
		if err := pginfra.RunMigrations(cfg.PostgresDSN(), logger); err != nil {
			logger.WithError(err).Fatal("migration failed")
		}
	}

	// Redis
	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() { _ = rdb.Close() }()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Warn("redis unreachable, session cache lookups will fall back to postgres")
	}

	// RabbitMQ publisher for email jobs
	var pub *helpers.RabbitPublisher
	if cfg.MailSendEnabled {
		pub, err = helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			logger.WithError(err).Warn("rabbitmq unavailable, email jobs will be skipped")
		} else {
			defer pub.Close()
		}
	}

	// Provide infra singletons to container for registry auto-wiring
	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetPGPool(pool)
	container.SetRedis(rdb)
	container.SetRabbitPub(pub)
	container.SetGate(gate)
	container.SetMetrics(promReg, collector)
	container.SetSigner(helpers.NewSessionSigner(cfg.AuthSecret, cfg.CookieCacheMaxAge))
	container.SetCookies(helpers.NewCookie(cfg.CookieDomain, cfg.CookieSecure))

	services := router.BuildServices()

	// Gin engine and global middleware
	r := router.NewEngine()

	// Registry: auto-register modules using container
	reg := router.NewRegistry(r)
	reg.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.InitModules(reg, services)
	reg.RegisterAll()

	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()
	go application.NewSweeper(services.Auth, cfg.SweepInterval, logger, container.GetSweepRecorder()).Run(workerCtx)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.WithField("port", cfg.Port).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("listen failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")
	stopWorkers()

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.WithError(err).Error("server forced to shutdown")
	}
	if sentryReporter != nil && !sentryReporter.Flush(2*time.Second) {
		logger.Warn("sentry flush timed out")
	}
	logger.Info("server exited properly")
}
