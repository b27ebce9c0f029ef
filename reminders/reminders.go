// Package reminders вычисляет время напоминания о событии и передает его
// планировщику локальных уведомлений.
package reminders

import (
	"context"
	"strings"
	"time"

	"calendar_server_go/apperrors"
	"calendar_server_go/events"
	"calendar_server_go/logger"
)

const (
	// DefaultTitle - заголовок уведомления о событии.
	DefaultTitle = "Event Reminder!"
	// DefaultOffsetDays - напоминание срабатывает за один календарный день.
	DefaultOffsetDays = 1
)

// Body возвращает текст уведомления для события.
func Body(eventName string) string {
	return "Reminder for event: " + eventName
}

// ComputeReminderOffset возвращает, через сколько от now сработает
// напоминание: за один календарный день до eventDate, в то же время суток.
// Результат может быть отрицательным.
func ComputeReminderOffset(eventDate, now time.Time) time.Duration {
	return ComputeReminderOffsetDays(eventDate, now, DefaultOffsetDays)
}

// ComputeReminderOffsetDays - то же для произвольного числа дней.
// Календарные дни, а не 24 часа: переход на летнее время не сдвигает
// напоминание с полуночи.
func ComputeReminderOffsetDays(eventDate, now time.Time, days int) time.Duration {
	return eventDate.AddDate(0, 0, -days).Sub(now)
}

// OffsetSeconds переводит смещение в секунды задержки срабатывания.
func OffsetSeconds(offset time.Duration) float64 {
	return offset.Seconds()
}

// ReminderOffsetForDate разбирает сохраненную дату события и вычисляет смещение.
func ReminderOffsetForDate(dateText string, now time.Time) (time.Duration, error) {
	eventDate, ok := events.ParseEventDate(dateText)
	if !ok {
		return 0, apperrors.Validation("reminders.ReminderOffsetForDate", "event date is not a valid date: "+dateText)
	}
	return ComputeReminderOffset(eventDate, now), nil
}

// Notifier - планировщик локальных уведомлений. Доставка не гарантируется
// и не отслеживается.
type Notifier interface {
	ScheduleNotification(ctx context.Context, title, body string, delay time.Duration) (string, error)
}

// ScheduleResult описывает запланированное напоминание.
type ScheduleResult struct {
	Handle string        `json:"handle"`
	Offset time.Duration `json:"offset"`
	FireAt time.Time     `json:"fireAt"`
}

// Scheduler планирует напоминания о событиях.
type Scheduler struct {
	notifier   Notifier
	title      string
	offsetDays int
	now        func() time.Time
	log        *logger.Logger
}

// Option настраивает Scheduler.
type Option func(*Scheduler)

// WithTitle задает заголовок уведомлений.
func WithTitle(title string) Option {
	return func(s *Scheduler) {
		if strings.TrimSpace(title) != "" {
			s.title = title
		}
	}
}

// WithOffsetDays задает, за сколько дней до события приходит напоминание.
func WithOffsetDays(days int) Option {
	return func(s *Scheduler) {
		if days > 0 {
			s.offsetDays = days
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func NewScheduler(notifier Notifier, opts ...Option) *Scheduler {
	s := &Scheduler{
		notifier:   notifier,
		title:      DefaultTitle,
		offsetDays: DefaultOffsetDays,
		now:        time.Now,
		log:        logger.L().With("component", "reminders"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OffsetFor вычисляет смещение напоминания для сохраненной даты события
// с учетом настроенного числа дней.
func (s *Scheduler) OffsetFor(dateText string) (time.Duration, error) {
	eventDate, ok := events.ParseEventDate(dateText)
	if !ok {
		return 0, apperrors.Validation("reminders.OffsetFor", "event date is not a valid date: "+dateText)
	}
	return ComputeReminderOffsetDays(eventDate, s.now(), s.offsetDays), nil
}

// Schedule передает напоминание планировщику уведомлений. Если offset <= 0,
// возвращается PastReminderError и планировщик не вызывается.
func (s *Scheduler) Schedule(ctx context.Context, eventName string, offset time.Duration) (ScheduleResult, error) {
	const op = "reminders.Schedule"

	if offset <= 0 {
		return ScheduleResult{}, apperrors.PastReminder(op, OffsetSeconds(offset))
	}

	handle, err := s.notifier.ScheduleNotification(ctx, s.title, Body(eventName), offset)
	if err != nil {
		s.log.Warn("Notification scheduling failed", "event", eventName, "error", err)
		return ScheduleResult{}, err
	}

	result := ScheduleResult{
		Handle: handle,
		Offset: offset,
		FireAt: s.now().Add(offset),
	}
	s.log.Info("Reminder scheduled", "event", eventName, "handle", handle, "fire_at", result.FireAt)
	return result, nil
}
