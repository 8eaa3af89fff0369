package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

// Mailer represents an email sender. Every send is bounded by the
// configured timeout so a slow SMTP peer cannot stall a request.
type Mailer struct {
	config *mailerConfig
	dialer *gomail.Dialer
}

// Email represents an email message.
type Email struct {
	To       []string
	Subject  string
	Body     string
	HTMLBody string
}

// NewMailer creates a new Mailer instance configured from the environment.
func NewMailer(logger *zerolog.Logger) *Mailer {
	cfg := newMailerConfig(logger)

	if err := cfg.validate(); err != nil {
		logger.Fatal().Err(err).Msg("failed to validate Mailer configuration")
	}

	dialer := gomail.NewDialer(
		cfg.Host,
		cfg.Port,
		cfg.Username,
		cfg.Password,
	)

	return &Mailer{
		config: cfg,
		dialer: dialer,
	}
}

// Send sends a single email.
func (m *Mailer) Send(ctx context.Context, email Email) error {
	if len(email.To) == 0 {
		return fmt.Errorf("no recipients specified")
	}

	msg := gomail.NewMessage()
	m.setEmailMessage(msg, email)

	return m.dialAndSend(ctx, msg)
}

// SendHTML sends an HTML email.
func (m *Mailer) SendHTML(ctx context.Context, to []string, subject, htmlBody string) error {
	return m.Send(ctx, Email{
		To:       to,
		Subject:  subject,
		HTMLBody: htmlBody,
	})
}

// SendLoginOTP sends the login one-time passcode email.
func (m *Mailer) SendLoginOTP(ctx context.Context, to, code string) error {
	subject := fmt.Sprintf("%s is your Kaze OTP", code)

	htmlBody := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
			<h2 style="color: #2563eb; text-align: center;">Your OTP Code</h2>
			<p style="text-align: center;">Use the following OTP to complete your login:</p>
			<div style="text-align: center; margin: 30px 0;">
				<h1 style="font-size: 32px; letter-spacing: 8px; color: #2563eb;">%s</h1>
			</div>
			<p style="text-align: center;"><strong>This OTP will expire in 10 minutes.</strong></p>
			<p style="color: #6b7280; font-size: 14px; text-align: center;">Do not share this code with anyone.</p>
		</div>
	`, code)

	return m.SendHTML(ctx, []string{to}, subject, htmlBody)
}

// SendPasswordReset sends the password reset link email.
func (m *Mailer) SendPasswordReset(ctx context.Context, to, resetLink string) error {
	htmlBody := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
			<h2 style="color: #2563eb;">Password Reset Request</h2>
			<p>You requested to reset your password. Click the button below to create a new password:</p>
			<div style="text-align: center; margin: 30px 0;">
				<a href="%s" style="background-color: #2563eb; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">Reset Password</a>
			</div>
			<p>Or copy this link:</p>
			<p style="color: #6b7280; font-size: 14px; word-break: break-all;">%s</p>
			<p><strong>This link expires in 1 hour.</strong></p>
			<p style="color: #6b7280; font-size: 12px;">If you didn't request this, please ignore this email.</p>
		</div>
	`, resetLink, resetLink)

	return m.SendHTML(ctx, []string{to}, "Reset your password", htmlBody)
}

// dialAndSend runs the SMTP exchange under the configured timeout.
// gomail has no context support, so the send runs in its own goroutine
// and is abandoned on timeout.
func (m *Mailer) dialAndSend(ctx context.Context, msg *gomail.Message) error {
	errc := make(chan error, 1)
	go func() {
		errc <- m.dialer.DialAndSend(msg)
	}()

	select {
	case err := <-errc:
		return err
	case <-time.After(m.config.Timeout):
		return fmt.Errorf("smtp send timed out after %s", m.config.Timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Mailer) setEmailMessage(msg *gomail.Message, email Email) {
	msg.SetHeader("From", m.config.From)
	msg.SetHeader("To", email.To...)
	msg.SetHeader("Subject", email.Subject)

	if email.HTMLBody != "" {
		msg.SetBody("text/html", email.HTMLBody)
		if email.Body != "" {
			msg.AddAlternative("text/plain", email.Body)
		}
	} else {
		msg.SetBody("text/plain", email.Body)
	}
}

// mailerConfig holds SMTP configuration for sending emails.
type mailerConfig struct {
	Host     string        `env:"SMTP_HOST"`
	Port     int           `env:"SMTP_PORT"`
	Username string        `env:"SMTP_USERNAME"`
	Password string        `env:"SMTP_PASSWORD"`
	From     string        `env:"SMTP_FROM"`
	Timeout  time.Duration `env:"SMTP_TIMEOUT" envDefault:"10s"`
}

// newMailerConfig creates a mailerConfig instance from environment variables.
func newMailerConfig(logger *zerolog.Logger) *mailerConfig {
	cfg, err := env.ParseAs[mailerConfig]()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse environment variables")
	}

	return &cfg
}

// validate checks if the Mailer configuration is valid.
func (c *mailerConfig) validate() error {
	if c.Host == "" {
		return fmt.Errorf("missing SMTP_HOST environment variable")
	}
	if c.Port == 0 {
		return fmt.Errorf("missing SMTP_PORT environment variable")
	}
	if c.From == "" {
		return fmt.Errorf("missing SMTP_FROM environment variable")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("SMTP_TIMEOUT must be positive")
	}

	return nil
}
