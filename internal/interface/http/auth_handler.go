package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/piousdev/roel-agency/internal/application"
	"github.com/piousdev/roel-agency/internal/domain/entity"
	"github.com/piousdev/roel-agency/internal/interface/middleware"
	"github.com/piousdev/roel-agency/pkg/helpers"
	"github.com/piousdev/roel-agency/pkg/response"
	"github.com/piousdev/roel-agency/pkg/validation"
)

// AuthService is the part of application.AuthService the HTTP layer uses.
type AuthService interface {
	SignUp(ctx context.Context, in application.SignUpInput, client application.ClientInfo) (*entity.AuthSession, error)
	SignIn(ctx context.Context, email, password string, client application.ClientInfo) (*entity.AuthSession, error)
	SignOut(ctx context.Context, token string) error
	GetSession(ctx context.Context, token string) (*entity.AuthSession, error)
	RequestEmailVerification(ctx context.Context, email string) error
	VerifyEmail(ctx context.Context, token string) (*entity.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type AuthHandler struct {
	Svc     AuthService
	Signer  *helpers.SessionSigner
	Cookies *helpers.Manager
	Logger  *logrus.Logger
}

func NewAuthHandler(svc AuthService, signer *helpers.SessionSigner, cookies *helpers.Manager, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, Signer: signer, Cookies: cookies, Logger: logger}
}

func clientInfo(c *gin.Context) application.ClientInfo {
	return application.ClientInfo{IPAddress: middleware.ClientIP(c), UserAgent: c.GetHeader("User-Agent")}
}

// setSessionCookies writes the session token cookie and the signed cache cookie.
func (h *AuthHandler) setSessionCookies(c *gin.Context, as *entity.AuthSession) {
	var (
		data    string
		dataExp time.Time
	)
	if h.Signer != nil {
		var err error
		data, dataExp, err = h.Signer.Sign(helpers.SessionClaims{
			SessionID:        as.Session.ID,
			UserID:           as.User.ID,
			Email:            as.User.Email,
			Name:             as.User.Name,
			SessionExpiresAt: as.Session.ExpiresAt.Unix(),
		}, time.Now())
		if err != nil {
			h.Logger.WithError(err).Warn("sign session cookie failed")
			data = ""
		}
	}
	h.Cookies.SetSession(c, as.Session.Token, as.Session.ExpiresAt, data, dataExp)
}

// SignUp POST /api/auth/sign-up/email
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(validation.FromBindError(err))
		return
	}
	as, err := h.Svc.SignUp(c.Request.Context(), application.SignUpInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}, clientInfo(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.setSessionCookies(c, as)
	response.Success(c, http.StatusCreated, newAuthView(as, true))
}

// SignIn POST /api/auth/sign-in/email
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(validation.FromBindError(err))
		return
	}
	as, err := h.Svc.SignIn(c.Request.Context(), req.Email, req.Password, clientInfo(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.setSessionCookies(c, as)
	response.Success(c, http.StatusOK, newAuthView(as, true))
}

// SignOut POST /api/auth/sign-out
func (h *AuthHandler) SignOut(c *gin.Context) {
	if err := h.Svc.SignOut(c.Request.Context(), middleware.SessionToken(c)); err != nil {
		_ = c.Error(err)
		return
	}
	h.Cookies.Clear(c)
	response.Success(c, http.StatusOK, statusView{Status: true})
}

// GetSession GET /api/auth/get-session
func (h *AuthHandler) GetSession(c *gin.Context) {
	as, err := h.Svc.GetSession(c.Request.Context(), middleware.SessionToken(c))
	if err != nil {
		h.Cookies.Clear(c)
		_ = c.Error(err)
		return
	}
	h.setSessionCookies(c, as)
	response.Success(c, http.StatusOK, newAuthView(as, false))
}

// SendVerificationEmail POST /api/auth/send-verification-email
func (h *AuthHandler) SendVerificationEmail(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(validation.FromBindError(err))
		return
	}
	if err := h.Svc.RequestEmailVerification(c.Request.Context(), req.Email); err != nil {
		_ = c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, statusView{Status: true})
}

// VerifyEmail GET /api/auth/verify-email?token=
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var q verifyEmailQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(validation.FromBindError(err))
		return
	}
	u, err := h.Svc.VerifyEmail(c.Request.Context(), q.Token)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": newUserView(u)})
}

// RequestPasswordReset POST /api/auth/request-password-reset
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(validation.FromBindError(err))
		return
	}
	if err := h.Svc.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		_ = c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, statusView{Status: true})
}

// ResetPassword POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(validation.FromBindError(err))
		return
	}
	if err := h.Svc.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		_ = c.Error(err)
		return
	}
	h.Cookies.Clear(c)
	response.Success(c, http.StatusOK, statusView{Status: true})
}
