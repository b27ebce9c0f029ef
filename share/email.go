package share

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"calendar_server_go/config"
	"calendar_server_go/logger"
)

// EmailStatus - итог составления письма.
type EmailStatus string

const (
	EmailSent      EmailStatus = "sent"
	EmailCancelled EmailStatus = "cancelled"
	EmailFailed    EmailStatus = "failed"
)

// Email - составитель писем.
type Email interface {
	Compose(ctx context.Context, recipients []string, subject, body string) (EmailStatus, error)
}

// NewEmail создает отправителя писем по конфигурации.
func NewEmail(cfg config.EmailConfig, log *logger.Logger) (Email, error) {
	switch cfg.Driver {
	case "log", "":
		return &LogEmail{log: log}, nil
	case "smtp":
		return NewSMTPEmail(cfg), nil
	default:
		return nil, fmt.Errorf("unknown email driver %q", cfg.Driver)
	}
}

func cleanRecipients(recipients []string) []string {
	out := make([]string, 0, len(recipients))
	for _, r := range recipients {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

// LogEmail пишет письма в лог.
type LogEmail struct {
	log *logger.Logger
}

func (e *LogEmail) Compose(_ context.Context, recipients []string, subject, body string) (EmailStatus, error) {
	recipients = cleanRecipients(recipients)
	if len(recipients) == 0 {
		return EmailCancelled, nil
	}
	l := e.log
	if l == nil {
		l = logger.L()
	}
	l.Info("Email", "to", recipients, "subject", subject, "body", body)
	return EmailSent, nil
}

// sendFunc совпадает с smtp.SendMail; подменяется в тестах.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPEmail отправляет письма через SMTP-сервер.
type SMTPEmail struct {
	addr     string
	host     string
	username string
	password string
	from     string
	send     sendFunc
	now      func() time.Time
}

func NewSMTPEmail(cfg config.EmailConfig) *SMTPEmail {
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &SMTPEmail{
		addr:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		host:     cfg.Host,
		username: cfg.Username,
		password: cfg.Password,
		from:     from,
		send:     smtp.SendMail,
		now:      time.Now,
	}
}

// Compose отправляет письмо. Без получателей письмо отменяется.
func (e *SMTPEmail) Compose(ctx context.Context, recipients []string, subject, body string) (EmailStatus, error) {
	recipients = cleanRecipients(recipients)
	if len(recipients) == 0 {
		return EmailCancelled, nil
	}
	if err := ctx.Err(); err != nil {
		return EmailCancelled, nil
	}

	var auth smtp.Auth
	if e.username != "" {
		auth = smtp.PlainAuth("", e.username, e.password, e.host)
	}
	if err := e.send(e.addr, auth, e.from, recipients, e.message(recipients, subject, body)); err != nil {
		return EmailFailed, fmt.Errorf("smtp send failed: %w", err)
	}
	return EmailSent, nil
}

func (e *SMTPEmail) message(to []string, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + e.from + "\r\n")
	b.WriteString("To: " + strings.Join(to, ", ") + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("Date: " + e.now().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return []byte(b.String())
}
