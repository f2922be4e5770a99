package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/piousdev/roel-agency/internal/application"
	"github.com/piousdev/roel-agency/internal/domain/entity"
	"github.com/piousdev/roel-agency/internal/interface/middleware"
	"github.com/piousdev/roel-agency/pkg/helpers"
	"github.com/piousdev/roel-agency/pkg/response"
	"github.com/piousdev/roel-agency/pkg/validation"
)

// UserService is the part of application.UserService the HTTP layer uses.
type UserService interface {
	GetProfile(ctx context.Context, userID string) (*entity.User, error)
	UpdateProfile(ctx context.Context, userID string, in application.UpdateProfileInput) (*entity.User, error)
	DeleteAccount(ctx context.Context, userID string) error
	ListSessions(ctx context.Context, userID string) ([]entity.Session, error)
	RevokeSession(ctx context.Context, userID, sessionID string) error
}

type UserHandler struct {
	Svc     UserService
	Cookies *helpers.Manager
	Logger  *logrus.Logger
}

func NewUserHandler(svc UserService, cookies *helpers.Manager, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Cookies: cookies, Logger: logger}
}

// GetProfile GET /api/users/me
func (h *UserHandler) GetProfile(c *gin.Context) {
	u, err := h.Svc.GetProfile(c.Request.Context(), c.GetString(middleware.UserIDKey))
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, newUserView(u))
}

// UpdateProfile PATCH /api/users/me
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(validation.FromBindError(err))
		return
	}
	u, err := h.Svc.UpdateProfile(c.Request.Context(), c.GetString(middleware.UserIDKey), application.UpdateProfileInput{
		Name:  req.Name,
		Image: req.Image,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	// the cached identity in session_data may carry the old name
	h.Cookies.ClearSessionData(c)
	response.Success(c, http.StatusOK, newUserView(u))
}

// DeleteAccount DELETE /api/users/me
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	if err := h.Svc.DeleteAccount(c.Request.Context(), c.GetString(middleware.UserIDKey)); err != nil {
		_ = c.Error(err)
		return
	}
	h.Cookies.Clear(c)
	response.NoContent(c)
}

// ListSessions GET /api/users/me/sessions
func (h *UserHandler) ListSessions(c *gin.Context) {
	list, err := h.Svc.ListSessions(c.Request.Context(), c.GetString(middleware.UserIDKey))
	if err != nil {
		_ = c.Error(err)
		return
	}
	current := c.GetString(middleware.SessionIDKey)
	out := make([]sessionView, 0, len(list))
	for i := range list {
		v := newSessionView(&list[i], false)
		v.Current = list[i].ID == current
		out = append(out, v)
	}
	response.Success(c, http.StatusOK, out)
}

// RevokeSession DELETE /api/users/me/sessions/:id
func (h *UserHandler) RevokeSession(c *gin.Context) {
	id := c.Param("id")
	if err := h.Svc.RevokeSession(c.Request.Context(), c.GetString(middleware.UserIDKey), id); err != nil {
		_ = c.Error(err)
		return
	}
	if id == c.GetString(middleware.SessionIDKey) {
		h.Cookies.Clear(c)
	}
	response.NoContent(c)
}
