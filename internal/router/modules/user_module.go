package modules

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	handlers "github.com/piousdev/roel-agency/internal/interface/http"
	"github.com/piousdev/roel-agency/internal/interface/middleware"
	"github.com/piousdev/roel-agency/pkg/helpers"
)

// UserModule wires the signed-in user's profile and session routes.
// Protected: GET/PATCH/DELETE /api/users/me, GET /api/users/me/sessions,
// DELETE /api/users/me/sessions/:id
type UserModule struct {
	Handler  *handlers.UserHandler
	Resolver middleware.SessionResolver
	Signer   *helpers.SessionSigner
	Cookies  *helpers.Manager
	Logger   *logrus.Logger
}

func NewUserModule(h *handlers.UserHandler, resolver middleware.SessionResolver, signer *helpers.SessionSigner, cookies *helpers.Manager, logger *logrus.Logger) *UserModule {
	return &UserModule{Handler: h, Resolver: resolver, Signer: signer, Cookies: cookies, Logger: logger}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	me := rg.Group("/users/me")
	me.Use(middleware.SessionAuth(m.Resolver, m.Signer, m.Cookies, m.Logger))
	{
		me.GET("", m.Handler.GetProfile)
		me.PATCH("", m.Handler.UpdateProfile)
		me.DELETE("", m.Handler.DeleteAccount)
		me.GET("/sessions", m.Handler.ListSessions)
		me.DELETE("/sessions/:id", m.Handler.RevokeSession)
	}
}
