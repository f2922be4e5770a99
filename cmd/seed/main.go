package main

import (
	"context"
	"errors"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/piousdev/roel-agency/config"
	"github.com/piousdev/roel-agency/internal/application"
	"github.com/piousdev/roel-agency/internal/container"
	pginfra "github.com/piousdev/roel-agency/internal/infrastructure/postgres"
	"github.com/piousdev/roel-agency/internal/router"
	"github.com/piousdev/roel-agency/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	// the seeder never enqueues verification emails
	cfg.MailSendEnabled = false
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)

	ctx := context.Background()
	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.PoolOptions{
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: cfg.DBMaxConnLife,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to postgres")
	}
	defer pool.Close()

	if err := pginfra.RunMigrations(cfg.PostgresDSN(), logger); err != nil {
		logger.WithError(err).Fatal("migration failed")
	}

	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetPGPool(pool)
	services := router.BuildServices()

	in := application.SignUpInput{
		Name:     "Demo User",
		Email:    "demo@example.com",
		Password: "password123",
	}
	as, err := services.Auth.SignUp(ctx, in, application.ClientInfo{UserAgent: "seed"})
	if errors.Is(err, application.ErrEmailTaken) {
		logger.WithField("email", in.Email).Info("demo user already exists")
		return
	}
	if err != nil {
		logger.WithError(err).Fatal("failed to seed user")
	}
	if err := services.Auth.SignOut(ctx, as.Session.Token); err != nil {
		logger.WithError(err).Warn("failed to drop seed session")
	}
	logger.WithFields(logrus.Fields{
		"id":       as.User.ID,
		"email":    as.User.Email,
		"password": in.Password,
	}).Info("seeded user")
}
