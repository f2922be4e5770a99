package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/piousdev/roel-agency/internal/interface/http"
)

// AuthModule exposes the public email/password endpoints under /auth.
type AuthModule struct {
	Handler *handlers.AuthHandler
}

func NewAuthModule(h *handlers.AuthHandler) *AuthModule {
	return &AuthModule{Handler: h}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	{
		auth.POST("/sign-up/email", m.Handler.SignUp)
		auth.POST("/sign-in/email", m.Handler.SignIn)
		auth.POST("/sign-out", m.Handler.SignOut)
		auth.GET("/get-session", m.Handler.GetSession)

		auth.POST("/send-verification-email", m.Handler.SendVerificationEmail)
		auth.GET("/verify-email", m.Handler.VerifyEmail)
		auth.POST("/request-password-reset", m.Handler.RequestPasswordReset)
		auth.POST("/reset-password", m.Handler.ResetPassword)
	}
}
