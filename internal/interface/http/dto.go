package handlers

import (
	"time"

	"github.com/piousdev/roel-agency/internal/domain/entity"
)

type signUpRequest struct {
	Name     string `json:"name" binding:"required,notblank,displayname"`
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,pwd"`
}

type signInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type verifyEmailQuery struct {
	Token string `json:"token" form:"token" binding:"required"`
}

type resetPasswordRequest struct {
	Token           string `json:"token" binding:"required"`
	Password        string `json:"password" binding:"required,pwd"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
}

type updateProfileRequest struct {
	Name  *string `json:"name" binding:"omitempty,notblank,displayname"`
	Image *string `json:"image" binding:"omitempty,url,max=2048"`
}

type userView struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"emailVerified"`
	Image         *string   `json:"image"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func newUserView(u *entity.User) userView {
	return userView{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		Image:         u.Image,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

type sessionView struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
	IPAddress *string   `json:"ipAddress"`
	UserAgent *string   `json:"userAgent"`
	Current   bool      `json:"current"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newSessionView(s *entity.Session, withToken bool) sessionView {
	v := sessionView{
		ID:        s.ID,
		UserID:    s.UserID,
		ExpiresAt: s.ExpiresAt,
		IPAddress: s.IPAddress,
		UserAgent: s.UserAgent,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	if withToken {
		v.Token = s.Token
	}
	return v
}

type authView struct {
	User    userView    `json:"user"`
	Session sessionView `json:"session"`
}

func newAuthView(as *entity.AuthSession, withToken bool) authView {
	sv := newSessionView(&as.Session, withToken)
	sv.Current = true
	return authView{User: newUserView(&as.User), Session: sv}
}

type statusView struct {
	Status bool `json:"status"`
}
