package share

import (
	"context"
	"fmt"

	"calendar_server_go/apperrors"
	"calendar_server_go/logger"
)

// SMS - отправитель SMS.
type SMS interface {
	IsAvailable(ctx context.Context) bool
	Send(ctx context.Context, recipients []string, body string) error
}

// NewSMS создает отправителя по имени драйвера: "log" или "none".
func NewSMS(driver string, log *logger.Logger) (SMS, error) {
	switch driver {
	case "log", "":
		return &LogSMS{log: log}, nil
	case "none":
		return NoSMS{}, nil
	default:
		return nil, fmt.Errorf("unknown sms driver %q", driver)
	}
}

// LogSMS пишет сообщения в лог вместо отправки.
type LogSMS struct {
	log *logger.Logger
}

func (s *LogSMS) IsAvailable(context.Context) bool { return true }

func (s *LogSMS) Send(_ context.Context, recipients []string, body string) error {
	l := s.log
	if l == nil {
		l = logger.L()
	}
	l.Info("SMS", "recipients", recipients, "body", body)
	return nil
}

// NoSMS - устройство без SMS.
type NoSMS struct{}

func (NoSMS) IsAvailable(context.Context) bool { return false }

func (NoSMS) Send(context.Context, []string, string) error {
	return apperrors.CapabilityUnavailable("share.SMS", "SMS is not available on this device.")
}
