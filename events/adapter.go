// Package events переводит модель событий календаря в записи хранилища:
// создание, список в хронологическом порядке, удаление и подписка на
// изменения коллекции.
package events

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"calendar_server_go/apperrors"
	"calendar_server_go/logger"
	"calendar_server_go/models"

	"golang.org/x/sync/singleflight"
)

// Store - коллекция записей "events/<id>".
type Store interface {
	InsertEvent(ctx context.Context, event models.Event) error
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	ListEvents(ctx context.Context) ([]models.Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

// ChangeSource - хранилище, которое умеет дешево сообщить, изменилась ли
// коллекция. Нужен, чтобы замечать записи других процессов.
type ChangeSource interface {
	EventsFingerprint(ctx context.Context) (string, error)
}

const snapshotTimeout = 10 * time.Second

// maxIDAttempts ограничивает повторы при занятом id.
const maxIDAttempts = 32

// Adapter - хранилище событий с уведомлениями об изменениях.
type Adapter struct {
	store Store
	ids   *IDGenerator
	log   *logger.Logger

	// flights склеивает одновременные загрузки снимка для подписчиков.
	// Ключ - номер поколения коллекции, поэтому загрузка, начатая до
	// изменения, не отдается подписчикам, разбуженным этим изменением.
	flights    singleflight.Group
	generation atomic.Uint64

	mu      sync.Mutex
	subs    map[uint64]*Subscription
	nextSub uint64

	pollMu      sync.Mutex
	fingerprint string
}

// Option настраивает Adapter.
type Option func(*Adapter)

// WithClock задает источник времени для id новых событий.
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) { a.ids = NewIDGenerator(now) }
}

func WithLogger(l *logger.Logger) Option {
	return func(a *Adapter) { a.log = l }
}

func NewAdapter(store Store, opts ...Option) *Adapter {
	a := &Adapter{
		store: store,
		ids:   NewIDGenerator(time.Now),
		log:   logger.L().With("component", "events"),
		subs:  make(map[uint64]*Subscription),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ListEvents возвращает все события, отсортированные по дате.
func (a *Adapter) ListEvents(ctx context.Context) ([]models.Event, error) {
	list, err := a.store.ListEvents(ctx)
	if err != nil {
		return nil, apperrors.Storage("events.ListEvents", err)
	}
	return SortByDate(list), nil
}

// SaveEvent проверяет черновик, присваивает id и записывает событие целиком.
// При ошибке валидации хранилище не вызывается.
func (a *Adapter) SaveEvent(ctx context.Context, draft models.EventDraft) (models.Event, error) {
	const op = "events.SaveEvent"

	name := strings.TrimSpace(draft.Name)
	if name == "" {
		return models.Event{}, apperrors.Validation(op, "event name is required")
	}
	date := strings.TrimSpace(draft.Date)
	if date == "" {
		return models.Event{}, apperrors.Validation(op, "event date is required")
	}

	event := models.Event{
		Name:                  name,
		Date:                  date,
		NotificationScheduled: draft.NotificationScheduled,
		AudioURI:              draft.AudioURI,
		AudioLength:           draft.AudioLength,
		PushToken:             draft.PushToken,
	}
	if event.AudioURI == nil {
		event.AudioLength = 0
	}

	// Тот же id мог выдать другой процесс с общей базой; следующий id
	// генератора больше занятого.
	var err error
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		event.ID = a.ids.Next()
		err = a.store.InsertEvent(ctx, event)
		if !errors.Is(err, models.ErrEventExists) {
			break
		}
		a.log.Debug("Event id taken, retrying", "event_id", event.ID)
	}
	if err != nil {
		return models.Event{}, apperrors.Storage(op, err)
	}
	a.log.Info("Event saved", "event_id", event.ID, "reminder", event.NotificationScheduled)
	a.notifyChanged()
	return event, nil
}

// DeleteEvent удаляет событие; отсутствие события не ошибка.
func (a *Adapter) DeleteEvent(ctx context.Context, id string) error {
	const op = "events.DeleteEvent"

	if strings.TrimSpace(id) == "" {
		return apperrors.Validation(op, "event id is required")
	}
	if err := a.store.DeleteEvent(ctx, id); err != nil {
		return apperrors.Storage(op, err)
	}
	a.log.Info("Event deleted", "event_id", id)
	a.notifyChanged()
	return nil
}

// FindEvent ищет событие по id.
func (a *Adapter) FindEvent(ctx context.Context, id string) (models.Event, bool, error) {
	event, err := a.store.GetEvent(ctx, id)
	if err != nil {
		return models.Event{}, false, apperrors.Storage("events.FindEvent", err)
	}
	if event == nil {
		return models.Event{}, false, nil
	}
	return *event, true, nil
}

// snapshot загружает отсортированный список; одновременные вызовы
// разделяют одну загрузку. Каждый вызывающий получает свою копию.
func (a *Adapter) snapshot() ([]models.Event, error) {
	key := strconv.FormatUint(a.generation.Load(), 10)
	v, err, _ := a.flights.Do(key, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
		defer cancel()
		return a.ListEvents(ctx)
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]models.Event)), nil
}

// notifyChanged будит всех подписчиков; не блокируется.
func (a *Adapter) notifyChanged() {
	a.generation.Add(1)
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, s := range a.subs {
		s.wakeUp()
	}
}

// Poll сверяет отпечаток коллекции с прошлым и будит подписчиков, если
// коллекция изменилась в обход адаптера (например, другим процессом с той
// же базой). Свои записи тоже меняют отпечаток; лишний снимок безвреден.
// Если хранилище не ChangeSource, ничего не делает.
func (a *Adapter) Poll(ctx context.Context) error {
	src, ok := a.store.(ChangeSource)
	if !ok {
		return nil
	}

	a.pollMu.Lock()
	defer a.pollMu.Unlock()

	fp, err := src.EventsFingerprint(ctx)
	if err != nil {
		return apperrors.Storage("events.Poll", err)
	}
	if fp == a.fingerprint {
		return nil
	}
	a.fingerprint = fp
	a.log.Debug("Events collection changed", "fingerprint", fp)
	a.notifyChanged()
	return nil
}

// Close отменяет все подписки.
func (a *Adapter) Close() {
	a.mu.Lock()
	subs := make([]*Subscription, 0, len(a.subs))
	for _, s := range a.subs {
		subs = append(subs, s)
	}
	a.mu.Unlock()

	for _, s := range subs {
		s.Cancel()
	}
}

// Subscribers возвращает число активных подписок.
func (a *Adapter) Subscribers() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.subs)
}
