package infra

import (
	"fmt"
	"net/smtp"

	"bibliocra/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer wraps SMTP configuration for sending notices, optionally with a PDF
// attachment.
type Mailer struct {
	host     string
	user     string
	password string
	addr     string
	from     string
}

func NewMailer(cfg *config.Config) *Mailer {
	from := cfg.SMTPUser
	if cfg.Domain != "" {
		from = fmt.Sprintf("Biblioteca CRA <avisos@%s>", cfg.Domain)
	}
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		from:     from,
	}
}

// SendAviso sends a plain-text notice to a user, attaching a PDF when a path
// is given.
func (m *Mailer) SendAviso(to, subject, body, pdfPath string) error {
	e := email.NewEmail()
	e.From = m.from
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	if pdfPath != "" {
		if _, err := e.AttachFile(pdfPath); err != nil {
			return fmt.Errorf("mailer: attach PDF: %w", err)
		}
	}

	auth := smtp.PlainAuth("", m.user, m.password, m.host)
	return e.Send(m.addr, auth)
}
