package helpers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	SessionTokenCookie = "session_token"
	SessionDataCookie  = "session_data"
)

type Manager struct {
	Domain string
	Secure bool
}

func NewCookie(domain string, secure bool) *Manager {
	return &Manager{Domain: domain, Secure: secure}
}

// SetSession stores the session token cookie and, when data is not empty, the
// signed session cache cookie.
func (m *Manager) SetSession(c *gin.Context, token string, exp time.Time, data string, dataExp time.Time) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionTokenCookie, token, maxAgeFrom(exp), "/", m.Domain, m.Secure, true)
	if data != "" {
		c.SetCookie(SessionDataCookie, data, maxAgeFrom(dataExp), "/", m.Domain, m.Secure, true)
	}
}

// SetSessionData refreshes only the signed session cache cookie.
func (m *Manager) SetSessionData(c *gin.Context, data string, exp time.Time) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionDataCookie, data, maxAgeFrom(exp), "/", m.Domain, m.Secure, true)
}

func (m *Manager) ClearSessionData(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionDataCookie, "", -1, "/", m.Domain, m.Secure, true)
}

func (m *Manager) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionTokenCookie, "", -1, "/", m.Domain, m.Secure, true)
	c.SetCookie(SessionDataCookie, "", -1, "/", m.Domain, m.Secure, true)
}

func maxAgeFrom(exp time.Time) int {
	sec := int(time.Until(exp).Seconds())
	if sec < 0 {
		return 0
	}
	return sec
}
