package reminders

import (
	"context"

	"calendar_server_go/apperrors"
	"calendar_server_go/logger"
	"calendar_server_go/models"
)

// EventStore - операции адаптера событий, нужные сервису.
type EventStore interface {
	SaveEvent(ctx context.Context, draft models.EventDraft) (models.Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

// ReminderLinker связывает уведомления с событиями, чтобы удаление события
// отменяло его напоминания.
type ReminderLinker interface {
	LinkEvent(ctx context.Context, handle, eventID string) error
	CancelForEvent(ctx context.Context, eventID string) error
}

// CreateResult - итог создания события. Если напоминание не удалось
// запланировать, событие все равно сохранено, а ReminderErr и Warning
// объясняют почему.
type CreateResult struct {
	Event       models.Event
	Reminder    *ScheduleResult
	Warning     string
	ReminderErr error
}

// EventService сохраняет события и планирует для них напоминания.
type EventService struct {
	events    EventStore
	scheduler *Scheduler
	links     ReminderLinker
	log       *logger.Logger
}

// NewEventService создает сервис. links может быть nil: тогда напоминания
// не отменяются при удалении события.
func NewEventService(store EventStore, scheduler *Scheduler, links ReminderLinker) *EventService {
	return &EventService{
		events:    store,
		scheduler: scheduler,
		links:     links,
		log:       logger.L().With("component", "event_service"),
	}
}

// Create сохраняет событие и, если запрошено, планирует напоминание.
// Ошибка сохранения возвращается как есть; ошибка напоминания только
// попадает в результат.
func (s *EventService) Create(ctx context.Context, draft models.EventDraft) (CreateResult, error) {
	event, err := s.events.SaveEvent(ctx, draft)
	if err != nil {
		return CreateResult{}, err
	}

	result := CreateResult{Event: event}
	if !event.NotificationScheduled {
		return result, nil
	}

	offset, err := s.scheduler.OffsetFor(event.Date)
	if err == nil {
		var scheduled ScheduleResult
		scheduled, err = s.scheduler.Schedule(ctx, event.Name, offset)
		if err == nil {
			result.Reminder = &scheduled
		}
	}
	if err != nil {
		result.ReminderErr = err
		result.Warning = "Event saved without reminder: " + apperrors.Message(err)
		s.log.Warn("Event saved without reminder", "event_id", event.ID, "error", err)
		return result, nil
	}

	if s.links != nil {
		if err := s.links.LinkEvent(ctx, result.Reminder.Handle, event.ID); err != nil {
			s.log.Warn("Failed to link reminder to event", "event_id", event.ID, "handle", result.Reminder.Handle, "error", err)
		}
	}
	return result, nil
}

// Delete удаляет событие и отменяет его ожидающие напоминания.
// Сбой отмены не делает удаление неуспешным.
func (s *EventService) Delete(ctx context.Context, id string) error {
	if err := s.events.DeleteEvent(ctx, id); err != nil {
		return err
	}
	if s.links != nil {
		if err := s.links.CancelForEvent(ctx, id); err != nil {
			s.log.Warn("Failed to cancel reminders for deleted event", "event_id", id, "error", err)
		}
	}
	return nil
}
