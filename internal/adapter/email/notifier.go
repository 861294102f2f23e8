// Package email delivers report files as SMTP email attachments.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	mail "gopkg.in/mail.v2"

	"github.com/Strob0t/dailyreport/internal/domain/report"
	"github.com/Strob0t/dailyreport/internal/logger"
	"github.com/Strob0t/dailyreport/internal/port/notifier"
)

// SMTPConfig holds the configuration for SMTP connections.
type SMTPConfig struct {
	Host     string
	Port     int
	From     string
	Password string
}

// Dialer opens an SMTP session and sends messages. *mail.Dialer satisfies it.
type Dialer interface {
	DialAndSend(m ...*mail.Message) error
}

// Notifier sends report emails via SMTP with mandatory STARTTLS.
type Notifier struct {
	cfg    SMTPConfig
	dialer Dialer
	logger *slog.Logger
	now    func() time.Time // for testing
}

// NewNotifier creates a new email notifier.
func NewNotifier(cfg SMTPConfig, log *slog.Logger) *Notifier {
	if log == nil {
		log = slog.Default()
	}
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.From, cfg.Password)
	d.StartTLSPolicy = mail.MandatoryStartTLS

	return &Notifier{
		cfg:    cfg,
		dialer: d,
		logger: log,
		now:    time.Now,
	}
}

// SetDialer replaces the SMTP dialer.
func (n *Notifier) SetDialer(d Dialer) {
	n.dialer = d
}

// SendReport emails the report at filePath to the valid addresses in
// recipients. Non-string or all-invalid recipients are logged and skipped
// without dialing.
func (n *Notifier) SendReport(ctx context.Context, project string, recipients report.Recipients, filePath string) (bool, error) {
	log := logger.FromContext(ctx, n.logger).With("project", project)

	raw, ok := recipients.Text()
	if !ok {
		log.Warn("invalid recipients format, expected string", "recipients", string(recipients.Raw()))
		return false, nil
	}

	to := report.ParseAddresses(raw)
	if len(to) == 0 {
		log.Warn("no valid recipients")
		return false, nil
	}

	log.Info("sending email", "recipients", to)

	msg := n.buildMessage(project, to, filePath)
	if err := n.dialer.DialAndSend(msg); err != nil {
		return false, fmt.Errorf("%w: project %s: %w", notifier.ErrSendFailed, project, err)
	}

	log.Info("emails sent successfully")
	return true, nil
}

// buildMessage assembles the multipart message: a plain-text body and the
// report as a base64 octet-stream attachment named after the file.
func (n *Notifier) buildMessage(project string, to []string, filePath string) *mail.Message {
	m := mail.NewMessage()
	m.SetHeader("From", n.cfg.From)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", report.Subject(project))
	m.SetBody("text/plain", Body(project, n.now()))
	m.Attach(filePath,
		mail.Rename(filepath.Base(filePath)),
		mail.SetHeader(map[string][]string{
			"Content-Type": {"application/octet-stream"},
		}),
	)
	return m
}

// Body returns the plain-text email body for a project's report sent at t.
func Body(project string, t time.Time) string {
	return fmt.Sprintf("Attached is the daily delivery report for %s.\nCurrent UTC time: %s\n\n",
		project, t.UTC().Format(report.TimestampLayout))
}
