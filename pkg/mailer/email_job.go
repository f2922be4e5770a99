package mailer

import (
	"time"

	"github.com/piousdev/roel-agency/pkg/mailer/templates"
)

// Message types carried in the AMQP Type property.
const (
	JobTypeVerifyEmail   = "email.verify"
	JobTypeResetPassword = "email.reset_password"
)

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Template names an embedded template set; Subject/Text/HTML are used as-is otherwise.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// NewVerifyEmailJob builds the job sent when a user asks to confirm an address.
func NewVerifyEmailJob(appName, to, name, link string, expiresAt time.Time) EmailJob {
	return EmailJob{
		To:       to,
		Template: templates.VerifyEmail,
		Data: map[string]any{
			"AppName":   appName,
			"Name":      name,
			"Email":     to,
			"VerifyURL": link,
			"ExpiresAt": expiresAt.UTC().Format("02 January 2006, 15:04 MST"),
		},
	}
}

// NewResetPasswordJob builds the job sent when a password reset is requested.
func NewResetPasswordJob(appName, to, name, link string, expiresAt time.Time) EmailJob {
	return EmailJob{
		To:       to,
		Template: templates.ResetPassword,
		Data: map[string]any{
			"AppName":   appName,
			"Name":      name,
			"Email":     to,
			"ResetURL":  link,
			"ExpiresAt": expiresAt.UTC().Format("02 January 2006, 15:04 MST"),
		},
	}
}
