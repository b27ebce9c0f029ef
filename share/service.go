package share

import (
	"context"
	"strings"

	"calendar_server_go/apperrors"
	"calendar_server_go/logger"
	"calendar_server_go/models"
)

// Service - приглашения и обзор событий.
type Service struct {
	sms   SMS
	email Email
	log   *logger.Logger
}

func NewService(sms SMS, email Email) *Service {
	return &Service{
		sms:   sms,
		email: email,
		log:   logger.L().With("component", "share"),
	}
}

// InviteFriend отправляет SMS-приглашение на событие. Пустой список
// получателей допустим: адресатов выбирает отправитель.
func (s *Service) InviteFriend(ctx context.Context, eventName string, recipients []string) error {
	const op = "share.InviteFriend"

	if strings.TrimSpace(eventName) == "" {
		return apperrors.Validation(op, "event name is required")
	}
	if !s.sms.IsAvailable(ctx) {
		return apperrors.CapabilityUnavailable(op, "SMS is not available on this device.")
	}
	if err := s.sms.Send(ctx, recipients, InviteMessage(eventName)); err != nil {
		s.log.Warn("SMS invite failed", "event", eventName, "error", err)
		return err
	}
	return nil
}

// SendReview отправляет письмо с обзором событий на адрес пользователя.
func (s *Service) SendReview(ctx context.Context, userEmail string, events []models.Event) (EmailStatus, error) {
	const op = "share.SendReview"

	if strings.TrimSpace(userEmail) == "" {
		return EmailCancelled, apperrors.Auth(op, "No user is signed in.", nil)
	}
	status, err := s.email.Compose(ctx, []string{userEmail}, ReviewSubject, ReviewBody(events))
	if err != nil {
		s.log.Warn("Review e-mail failed", "to", userEmail, "error", err)
	}
	return status, err
}
