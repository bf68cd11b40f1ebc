package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"github.com/redmonkez12/bookings-api/internal/config"
	"github.com/redmonkez12/bookings-api/internal/logging"
)

const resetSubject = "Password reset token"

var resetTemplate = template.Must(template.New("passwordReset").Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #0F766E; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
        .content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
        .button { display: inline-block; background-color: #0F766E; color: white !important; padding: 12px 30px; text-decoration: none; border-radius: 5px; margin: 20px 0; }
        .footer { margin-top: 30px; font-size: 12px; color: #666; text-align: center; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Password Reset Request</h1>
    </div>
    <div class="content">
        <p>You are receiving this email because you (or someone else) requested a password reset for your bookings account.</p>

        <a href="{{.ResetLink}}" class="button" style="color: white !important;">Reset Password</a>

        <p>Or copy and paste this link into your browser:</p>
        <p style="word-break: break-all; color: #0F766E;">{{.ResetLink}}</p>

        <p style="margin-top: 30px;">If you didn't request a password reset, you can safely ignore this email. Your password will remain unchanged.</p>
    </div>
    <div class="footer">
        <p>This link will expire in {{.ExpiresIn}}.</p>
    </div>
</body>
</html>
`))

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPService sends mail through an SMTP relay with PLAIN auth.
type SMTPService struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	fromEmail    string
	linkTTL      time.Duration
	send         sendFunc
}

func NewSMTPService(cfg config.EmailConfig, linkTTL time.Duration) *SMTPService {
	return &SMTPService{
		smtpHost:     cfg.SMTPHost,
		smtpPort:     cfg.SMTPPort,
		smtpUser:     cfg.SMTPUser,
		smtpPassword: cfg.SMTPPassword,
		fromEmail:    cfg.SMTPUser,
		linkTTL:      linkTTL,
		send:         smtp.SendMail,
	}
}

// SendPasswordResetEmail mails resetURL to toEmail. It blocks until the relay
// accepts or rejects the message so the caller can withdraw the token.
func (s *SMTPService) SendPasswordResetEmail(ctx context.Context, toEmail, resetURL string) error {
	logger := logging.GetLoggerFromContext(ctx)

	body, err := renderPasswordReset(resetURL, s.linkTTL)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.sendEmail(toEmail, resetSubject, body); err != nil {
		logger.Error("failed to send password reset email", "email", toEmail, "error", err.Error())
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("password reset email sent", "email", toEmail)
	return nil
}

func (s *SMTPService) sendEmail(to, subject, body string) error {
	auth := smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)

	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		s.fromEmail, to, subject, body,
	))

	addr := fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort)
	return s.send(addr, auth, s.fromEmail, []string{to}, msg)
}

func renderPasswordReset(resetLink string, ttl time.Duration) (string, error) {
	var buf bytes.Buffer
	data := struct {
		ResetLink string
		ExpiresIn string
	}{
		ResetLink: resetLink,
		ExpiresIn: ttl.String(),
	}

	if err := resetTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}

// LogMailer writes reset links to the log instead of sending them. Used when
// SMTP_HOST is unset.
type LogMailer struct {
	logger *logging.Logger
}

func NewLogMailer(logger *logging.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendPasswordResetEmail(_ context.Context, toEmail, resetURL string) error {
	m.logger.Warn("SMTP not configured, password reset link logged instead of mailed",
		"email", toEmail, "reset_url", resetURL)
	return nil
}
