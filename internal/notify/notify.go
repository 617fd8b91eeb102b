// Package notify mails the archive run report.
package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mtfs/internal/formatter"
	"github.com/desertthunder/mtfs/internal/shared"
	"github.com/desertthunder/mtfs/internal/tasks"
)

// Mailer delivers a plain-text message to the configured recipients.
type Mailer interface {
	Send(ctx context.Context, subject, body string) error
}

// SMTPMailer sends mail through an SMTP relay, upgrading to TLS when the server offers STARTTLS.
type SMTPMailer struct {
	cfg    shared.MailConfig
	dialer net.Dialer
	now    func() time.Time
}

// NewSMTPMailer validates cfg and returns a mailer for it.
func NewSMTPMailer(cfg shared.MailConfig) (*SMTPMailer, error) {
	if cfg.Host == "" || cfg.From == "" || len(cfg.To) == 0 {
		return nil, fmt.Errorf("%w: mail host, from and to are required", shared.ErrInvalidConfig)
	}
	if _, err := mail.ParseAddress(cfg.From); err != nil {
		return nil, fmt.Errorf("%w: mail from %q", shared.ErrInvalidConfig, cfg.From)
	}
	for _, to := range cfg.To {
		if _, err := mail.ParseAddress(to); err != nil {
			return nil, fmt.Errorf("%w: mail recipient %q", shared.ErrInvalidConfig, to)
		}
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPMailer{cfg: cfg, dialer: net.Dialer{Timeout: 30 * time.Second}, now: time.Now}, nil
}

// Send implements [Mailer].
func (m *SMTPMailer) Send(ctx context.Context, subject, body string) error {
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	conn, err := m.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("mail: dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("mail: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
			return fmt.Errorf("mail: starttls: %w", err)
		}
	}
	if m.cfg.Username != "" {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("mail: auth: %w", err)
		}
	}

	if err := c.Mail(address(m.cfg.From)); err != nil {
		return fmt.Errorf("mail: from: %w", err)
	}
	for _, to := range m.cfg.To {
		if err := c.Rcpt(address(to)); err != nil {
			return fmt.Errorf("mail: rcpt %s: %w", to, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("mail: data: %w", err)
	}
	if _, err := w.Write(m.message(subject, body)); err != nil {
		w.Close()
		return fmt.Errorf("mail: write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("mail: data: %w", err)
	}
	return c.Quit()
}

func (m *SMTPMailer) message(subject, body string) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(m.cfg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", m.now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return b.Bytes()
}

// address extracts the bare address from a "Name <addr>" form.
func address(s string) string {
	if a, err := mail.ParseAddress(s); err == nil {
		return a.Address
	}
	return s
}

// Subject returns the report subject for t, numbered by ISO week and ISO year.
func Subject(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("MTFS - Playlists archived %02d/%d", week, year)
}

// Reporter mails the summary of an archive run.
type Reporter struct {
	mailer Mailer
	logger *log.Logger
	now    func() time.Time
}

// NewReporter creates a Reporter. A nil logger falls back to [shared.NewLogger].
func NewReporter(mailer Mailer, logger *log.Logger) *Reporter {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Reporter{mailer: mailer, logger: logger, now: time.Now}
}

// Report mails result when at least one playlist was archived and reports whether a mail went out.
// Delivery failures are logged, never returned.
func (r *Reporter) Report(ctx context.Context, result *tasks.BatchResult) bool {
	if result == nil || result.Archived == 0 {
		r.logger.Debug("nothing archived, skipping report")
		return false
	}

	subject := Subject(r.now())
	if err := r.mailer.Send(ctx, subject, formatter.BatchReport(result)); err != nil {
		r.logger.Warn("failed to send archive report", "error", err)
		return false
	}
	r.logger.Info("archive report sent", "subject", subject)
	return true
}
