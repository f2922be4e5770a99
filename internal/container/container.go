package container

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/piousdev/roel-agency/config"
	"github.com/piousdev/roel-agency/internal/application"
	"github.com/piousdev/roel-agency/internal/infrastructure/metrics"
	"github.com/piousdev/roel-agency/pkg/helpers"
	"github.com/piousdev/roel-agency/pkg/tracking"
)

// app-level container to share constructed components across packages
// Router can auto-wire modules from these singletons.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient *redis.Client

	signer  *helpers.SessionSigner
	cookies *helpers.Manager

	rabbitPub *helpers.RabbitPublisher
	gate      *tracking.Gate

	registry  *prometheus.Registry
	collector *metrics.Collector
)

func SetConfig(c *config.Config) { cfg = c }
func GetConfig() *config.Config  { return cfg }
func SetLogger(l *logrus.Logger) { logger = l }
func GetLogger() *logrus.Logger {
	if logger != nil {
		return logger
	}
	return logrus.StandardLogger()
}
func SetPGPool(p *pgxpool.Pool) { pgPool = p }
func GetPGPool() *pgxpool.Pool  { return pgPool }
func SetRedis(r *redis.Client)  { redisClient = r }
func GetRedis() *redis.Client   { return redisClient }

func SetSigner(s *helpers.SessionSigner) { signer = s }
func GetSigner() *helpers.SessionSigner  { return signer }
func SetCookies(m *helpers.Manager)      { cookies = m }
func GetCookies() *helpers.Manager {
	if cookies != nil {
		return cookies
	}
	return helpers.NewCookie("", false)
}

// SetRabbitPub stores the email job publisher. A nil publisher means email
// jobs are skipped.
func SetRabbitPub(p *helpers.RabbitPublisher) { rabbitPub = p }
func GetRabbitPub() *helpers.RabbitPublisher  { return rabbitPub }

func SetGate(g *tracking.Gate) { gate = g }
func GetGate() *tracking.Gate {
	if gate != nil {
		return gate
	}
	return tracking.NewGate(nil, GetLogger())
}

func SetMetrics(reg *prometheus.Registry, c *metrics.Collector) {
	registry, collector = reg, c
}

// GetRegistry returns the registry served on /metrics, or nil when metrics are off.
func GetRegistry() *prometheus.Registry { return registry }

// GetRecorder returns the collector, or a no-op recorder when metrics are off.
func GetRecorder() metrics.Recorder {
	if collector != nil {
		return collector
	}
	return metrics.Noop{}
}

// GetSweepRecorder returns the collector as the sweeper's recorder, or a no-op one.
func GetSweepRecorder() application.SweepRecorder {
	if collector != nil {
		return collector
	}
	return metrics.Noop{}
}
