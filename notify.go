package authcore

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"
)

// SMTPConfig configures the bundled SMTP notifier.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
}

// SMTPNotifier delivers engine mail over plain SMTP with AUTH PLAIN. It
// is the reference Notifier; integrators with a delivery provider should
// implement Notifier against the provider's API instead.
type SMTPNotifier struct {
	config SMTPConfig
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{config: cfg}
}

// Send composes an RFC 822 plain-text message and hands it to SendMail.
// The ctx parameter is accepted for interface symmetry; net/smtp offers
// no cancellation hook.
func (n *SMTPNotifier) Send(ctx context.Context, to, subject, body string) error {
	_ = ctx

	headers := []string{
		fmt.Sprintf("From: %s", n.config.User),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		body,
	}
	message := strings.Join(headers, "\r\n")

	addr := fmt.Sprintf("%s:%d", n.config.Host, n.config.Port)
	auth := smtp.PlainAuth("", n.config.User, n.config.Password, n.config.Host)

	return smtp.SendMail(addr, auth, n.config.User, []string{to}, []byte(message))
}

// NoOpNotifier discards all messages. Useful in tests and in deployments
// that surface tokens through a side channel.
type NoOpNotifier struct{}

func (NoOpNotifier) Send(context.Context, string, string, string) error { return nil }

// verifyEmailBody renders the registration verification mail. The token
// is appended to the configured link base as the final path segment.
func verifyEmailBody(cfg MailConfig, token string, ttl time.Duration) string {
	link := token
	if cfg.VerifyLinkURL != "" {
		link = strings.TrimRight(cfg.VerifyLinkURL, "/") + "/" + token
	}

	return fmt.Sprintf(
		"Hello,\n\n"+
			"Thank you for signing up for %s! To complete your registration, please open the link below:\n\n"+
			"%s\n\n"+
			"This link will expire in %d minutes. If you did not request this email, please ignore it.\n\n"+
			"Best regards,\nThe %s Team",
		cfg.AppName, link, int(ttl.Minutes()), cfg.AppName)
}

// otpEmailBody renders the login second-factor mail.
func otpEmailBody(cfg MailConfig, code string, ttl time.Duration) string {
	return fmt.Sprintf(
		"Hello,\n\n"+
			"Someone is signing in to your %s account. Use the verification code below to continue:\n\n"+
			"Verification Code: %s\n\n"+
			"This code will expire in %d minutes. If this was not you, change your password immediately.\n\n"+
			"Best regards,\nThe %s Team",
		cfg.AppName, code, int(ttl.Minutes()), cfg.AppName)
}
