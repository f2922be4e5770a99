package router

import (
	"github.com/piousdev/roel-agency/internal/application"
	"github.com/piousdev/roel-agency/internal/container"
	"github.com/piousdev/roel-agency/internal/infrastructure/cache"
	pginfra "github.com/piousdev/roel-agency/internal/infrastructure/postgres"
	handlers "github.com/piousdev/roel-agency/internal/interface/http"
	"github.com/piousdev/roel-agency/internal/router/modules"
)

// Services are the application services shared by the HTTP modules and the
// background workers.
type Services struct {
	Auth *application.AuthService
	User *application.UserService
}

// BuildServices wires repositories, the session cache and the email publisher
// from the container into the application services.
func BuildServices() Services {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	pool := container.GetPGPool()

	users := pginfra.NewUserRepository(pool)
	sessions := pginfra.NewSessionRepository(pool)
	accounts := pginfra.NewAccountRepository(pool)
	verifications := pginfra.NewVerificationRepository(pool)

	var sessionCache application.SessionCache
	if rdb := container.GetRedis(); rdb != nil {
		sessionCache = cache.NewSessionCache(rdb, cfg.SessionCacheTTL)
	}
	var mail application.EmailPublisher
	if pub := container.GetRabbitPub(); pub != nil {
		mail = pub
	}

	auth := application.NewAuthService(
		users, sessions, accounts, verifications,
		pginfra.NewTxManager(pool),
		sessionCache,
		mail,
		logger,
		application.AuthOptions{
			AppName:           cfg.AppName,
			SessionTTL:        cfg.SessionTTL,
			UpdateAge:         cfg.SessionUpdateAge,
			VerificationTTL:   cfg.VerificationTTL,
			ResetTokenTTL:     cfg.ResetTokenTTL,
			MinPasswordLength: cfg.MinPasswordLength,
			VerifyEmailURL:    cfg.VerifyEmailURL,
			ResetPasswordURL:  cfg.ResetPasswordURL,
			SendEmail:         cfg.MailSendEnabled,
		},
	)
	user := application.NewUserService(users, sessions, sessionCache, logger)
	return Services{Auth: auth, User: user}
}

// InitModules builds the HTTP handlers for svc and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry, svc Services) {
	logger := container.GetLogger()
	signer := container.GetSigner()
	cookies := container.GetCookies()

	authHandler := handlers.NewAuthHandler(svc.Auth, signer, cookies, logger)
	userHandler := handlers.NewUserHandler(svc.User, cookies, logger)

	r.Add(modules.NewHealthModule(handlers.NewHealthHandler()))
	if reg := container.GetRegistry(); reg != nil {
		r.Add(modules.NewDebugModule(reg))
	}
	r.Add(modules.NewAuthModule(authHandler))
	r.Add(modules.NewUserModule(userHandler, svc.Auth, signer, cookies, logger))
}
