// Package notify - локальный планировщик уведомлений: очередь в базе и
// периодическая доставка наступивших уведомлений по cron-расписанию.
package notify

import (
	"context"
	"strings"
	"time"

	"calendar_server_go/apperrors"
	"calendar_server_go/logger"
	"calendar_server_go/models"

	"github.com/google/uuid"
)

// Store - очередь уведомлений.
type Store interface {
	InsertNotification(ctx context.Context, n models.ScheduledNotification) error
	GetNotification(ctx context.Context, handle string) (*models.ScheduledNotification, error)
	DueNotifications(ctx context.Context, now time.Time, limit int) ([]models.ScheduledNotification, error)
	MarkNotificationDelivered(ctx context.Context, handle string, at time.Time) error
	LinkNotificationEvent(ctx context.Context, handle, eventID string) error
	DeleteNotification(ctx context.Context, handle string) (bool, error)
	DeleteEventNotifications(ctx context.Context, eventID string) (int64, error)
}

// LocalScheduler ставит уведомления в очередь и отменяет их.
type LocalScheduler struct {
	store Store
	now   func() time.Time
	log   *logger.Logger
}

func NewLocalScheduler(store Store) *LocalScheduler {
	return &LocalScheduler{
		store: store,
		now:   time.Now,
		log:   logger.L().With("component", "notify"),
	}
}

// ScheduleNotification ставит уведомление на now + delay и возвращает handle.
func (s *LocalScheduler) ScheduleNotification(ctx context.Context, title, body string, delay time.Duration) (string, error) {
	const op = "notify.ScheduleNotification"

	if strings.TrimSpace(title) == "" {
		return "", apperrors.Validation(op, "notification title is required")
	}
	if delay < 0 {
		return "", apperrors.Validation(op, "notification delay must not be negative")
	}

	now := s.now()
	n := models.ScheduledNotification{
		Handle:    uuid.NewString(),
		Title:     title,
		Body:      body,
		FireAt:    now.Add(delay),
		CreatedAt: now,
	}
	if err := s.store.InsertNotification(ctx, n); err != nil {
		return "", apperrors.Storage(op, err)
	}
	s.log.Debug("Notification scheduled", "handle", n.Handle, "fire_at", n.FireAt)
	return n.Handle, nil
}

// Get возвращает уведомление по handle.
func (s *LocalScheduler) Get(ctx context.Context, handle string) (*models.ScheduledNotification, error) {
	n, err := s.store.GetNotification(ctx, handle)
	if err != nil {
		return nil, apperrors.Storage("notify.Get", err)
	}
	return n, nil
}

// Cancel удаляет ожидающее уведомление. Неизвестный или уже доставленный
// handle - не ошибка.
func (s *LocalScheduler) Cancel(ctx context.Context, handle string) error {
	removed, err := s.store.DeleteNotification(ctx, handle)
	if err != nil {
		return apperrors.Storage("notify.Cancel", err)
	}
	if removed {
		s.log.Info("Notification cancelled", "handle", handle)
	}
	return nil
}

// LinkEvent связывает уведомление с событием.
func (s *LocalScheduler) LinkEvent(ctx context.Context, handle, eventID string) error {
	if err := s.store.LinkNotificationEvent(ctx, handle, eventID); err != nil {
		return apperrors.Storage("notify.LinkEvent", err)
	}
	return nil
}

// CancelForEvent отменяет ожидающие уведомления удаленного события.
func (s *LocalScheduler) CancelForEvent(ctx context.Context, eventID string) error {
	n, err := s.store.DeleteEventNotifications(ctx, eventID)
	if err != nil {
		return apperrors.Storage("notify.CancelForEvent", err)
	}
	if n > 0 {
		s.log.Info("Event notifications cancelled", "event_id", eventID, "count", n)
	}
	return nil
}
