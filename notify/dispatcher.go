package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"calendar_server_go/logger"
	"calendar_server_go/models"

	"github.com/robfig/cron/v3"
)

const (
	DefaultSweepSchedule = "@every 30s"
	defaultBatchSize     = 100
	sweepTimeout         = 20 * time.Second
)

// Deliverer доставляет наступившее уведомление пользователю.
type Deliverer interface {
	Deliver(ctx context.Context, n models.ScheduledNotification) error
}

// DelivererFunc позволяет использовать функцию как Deliverer.
type DelivererFunc func(ctx context.Context, n models.ScheduledNotification) error

func (f DelivererFunc) Deliver(ctx context.Context, n models.ScheduledNotification) error {
	return f(ctx, n)
}

// LogDeliverer "доставляет" уведомление записью в лог.
type LogDeliverer struct {
	Log *logger.Logger
}

func (d LogDeliverer) Deliver(_ context.Context, n models.ScheduledNotification) error {
	l := d.Log
	if l == nil {
		l = logger.L()
	}
	l.Info("Notification", "handle", n.Handle, "title", n.Title, "body", n.Body, "event_id", n.EventID)
	return nil
}

// MultiDeliverer передает уведомление всем получателям; ошибка первого
// упавшего возвращается после попытки доставки остальным.
type MultiDeliverer []Deliverer

func (m MultiDeliverer) Deliver(ctx context.Context, n models.ScheduledNotification) error {
	var first error
	for _, d := range m {
		if err := d.Deliver(ctx, n); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// cronLogger направляет журнал cron в logger.
type cronLogger struct {
	l *logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, append(keysAndValues, "error", err)...)
}

// Dispatcher периодически доставляет наступившие уведомления.
// Доставка без повторов: уведомление отмечается доставленным после
// первой попытки, даже неудачной.
type Dispatcher struct {
	store     Store
	deliverer Deliverer
	cron      *cron.Cron
	now       func() time.Time
	batch     int
	log       *logger.Logger

	mu      sync.Mutex
	started bool
}

// NewDispatcher создает диспетчер; запускается через Start.
func NewDispatcher(store Store, deliverer Deliverer) *Dispatcher {
	log := logger.L().With("component", "dispatcher")
	if deliverer == nil {
		deliverer = LogDeliverer{Log: log}
	}
	return &Dispatcher{
		store:     store,
		deliverer: deliverer,
		cron: cron.New(
			cron.WithLogger(cronLogger{l: log}),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger{l: log})),
		),
		now:   time.Now,
		batch: defaultBatchSize,
		log:   log,
	}
}

// Sweep доставляет все наступившие уведомления и возвращает их число.
func (d *Dispatcher) Sweep(ctx context.Context) (int, error) {
	now := d.now()
	due, err := d.store.DueNotifications(ctx, now, d.batch)
	if err != nil {
		return 0, fmt.Errorf("failed to load due notifications: %w", err)
	}

	delivered := 0
	for _, n := range due {
		if err := d.deliverer.Deliver(ctx, n); err != nil {
			d.log.Warn("Notification delivery failed", "handle", n.Handle, "error", err)
		} else {
			delivered++
		}
		if err := d.store.MarkNotificationDelivered(ctx, n.Handle, now); err != nil {
			return delivered, fmt.Errorf("failed to mark notification %s delivered: %w", n.Handle, err)
		}
	}
	if len(due) > 0 {
		d.log.Info("Notifications dispatched", "due", len(due), "delivered", delivered)
	}
	return delivered, nil
}

func (d *Dispatcher) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()
	if _, err := d.Sweep(ctx); err != nil {
		d.log.Error("Notification sweep failed", "error", err)
	}
}

// AddFunc регистрирует дополнительную периодическую задачу
// (например, очистку отозванных токенов).
func (d *Dispatcher) AddFunc(spec string, fn func()) error {
	if _, err := d.cron.AddFunc(spec, fn); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// Start регистрирует доставку по расписанию schedule и запускает cron.
func (d *Dispatcher) Start(schedule string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return fmt.Errorf("dispatcher already started")
	}
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	if err := d.AddFunc(schedule, d.runSweep); err != nil {
		return err
	}
	d.cron.Start()
	d.started = true
	d.log.Info("Notification dispatcher started", "schedule", schedule)
	return nil
}

// Stop останавливает cron и ждет завершения выполняющихся задач или ctx.
func (d *Dispatcher) Stop(ctx context.Context) {
	d.mu.Lock()
	started := d.started
	d.started = false
	d.mu.Unlock()
	if !started {
		return
	}

	done := d.cron.Stop()
	select {
	case <-done.Done():
		d.log.Info("Notification dispatcher stopped")
	case <-ctx.Done():
		d.log.Warn("Notification dispatcher stop timed out")
	}
}
