package delivery

import (
	"context"
	"time"

	"followup_backend/platform/config"
	"followup_backend/platform/logger"

	gomail "github.com/wneessen/go-mail"
)

// Mailer probes the configured SMTP relay. A nil mailer means email is not
// configured for this deployment.
type Mailer struct {
	host     string
	port     int
	username string
	password string
	log      *logger.Logger
}

func NewMailer(cfg config.SMTPConfig, log *logger.Logger) *Mailer {
	if !cfg.IsSMTPEnabled() {
		return nil
	}

	return &Mailer{
		host:     cfg.GetSMTPHost(),
		port:     cfg.GetSMTPPort(),
		username: cfg.GetSMTPUsername(),
		password: cfg.GetSMTPPassword(),
		log:      log,
	}
}

// Available dials the relay and disconnects without sending anything.
func (m *Mailer) Available(ctx context.Context) bool {
	if m == nil {
		return false
	}

	client, err := gomail.NewClient(m.host,
		gomail.WithPort(m.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(m.username),
		gomail.WithPassword(m.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(10*time.Second),
	)
	if err != nil {
		m.log.Warn("smtp client init failed", "error", err.Error())
		return false
	}

	if err := client.DialWithContext(ctx); err != nil {
		m.log.Warn("smtp relay unreachable", "host", m.host, "error", err.Error())
		return false
	}
	_ = client.Close()
	return true
}
