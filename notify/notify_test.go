package notify

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"calendar_server_go/apperrors"
	"calendar_server_go/data"
	"calendar_server_go/models"
)

func newTestStore(t *testing.T) *data.Store {
	t.Helper()
	store, err := data.Open(context.Background(), "sqlite3", filepath.Join(t.TempDir(), "notify.db"))
	if err != nil {
		t.Fatalf("data.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// recorder запоминает доставленные уведомления.
type recorder struct {
	mu   sync.Mutex
	got  []models.ScheduledNotification
	fail bool
}

func (r *recorder) Deliver(_ context.Context, n models.ScheduledNotification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
	if r.fail {
		return errors.New("device offline")
	}
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.got)
}

func TestLocalScheduler_Schedule(t *testing.T) {
	store := newTestStore(t)
	s := NewLocalScheduler(store)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	handle, err := s.ScheduleNotification(ctx, "Event Reminder!", "Reminder for event: Trip", 90*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	n, err := s.Get(ctx, handle)
	if err != nil || n == nil {
		t.Fatalf("Get = %v, %v", n, err)
	}
	if !n.FireAt.Equal(now.Add(90*time.Minute)) || n.Body != "Reminder for event: Trip" || !n.Pending() {
		t.Errorf("stored notification = %+v", n)
	}

	other, _ := s.ScheduleNotification(ctx, "t", "b", time.Minute)
	if other == handle {
		t.Error("handles must be unique")
	}
}

func TestLocalScheduler_Validation(t *testing.T) {
	s := NewLocalScheduler(newTestStore(t))
	ctx := context.Background()

	if _, err := s.ScheduleNotification(ctx, " ", "b", time.Minute); !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("blank title: got %v", err)
	}
	if _, err := s.ScheduleNotification(ctx, "t", "b", -time.Second); !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("negative delay: got %v", err)
	}
}

func TestLocalScheduler_CancelAndCancelForEvent(t *testing.T) {
	store := newTestStore(t)
	s := NewLocalScheduler(store)
	ctx := context.Background()

	h1, _ := s.ScheduleNotification(ctx, "t", "one", time.Hour)
	h2, _ := s.ScheduleNotification(ctx, "t", "two", time.Hour)
	if err := s.LinkEvent(ctx, h2, "event-2"); err != nil {
		t.Fatal(err)
	}

	if err := s.Cancel(ctx, h1); err != nil {
		t.Fatal(err)
	}
	if err := s.Cancel(ctx, h1); err != nil {
		t.Errorf("repeat Cancel: %v", err)
	}
	if err := s.Cancel(ctx, "unknown"); err != nil {
		t.Errorf("unknown handle: %v", err)
	}
	if n, _ := s.Get(ctx, h1); n != nil {
		t.Error("h1 still queued")
	}

	if err := s.CancelForEvent(ctx, "event-2"); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.Get(ctx, h2); n != nil {
		t.Error("h2 still queued after CancelForEvent")
	}
}

func TestDispatcher_SweepDeliversDueOnce(t *testing.T) {
	store := newTestStore(t)
	sched := NewLocalScheduler(store)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	sched.now = func() time.Time { return base }
	ctx := context.Background()

	due, _ := sched.ScheduleNotification(ctx, "t", "due", time.Minute)
	if _, err := sched.ScheduleNotification(ctx, "t", "later", time.Hour); err != nil {
		t.Fatal(err)
	}

	rec := &recorder{}
	d := NewDispatcher(store, rec)
	d.now = func() time.Time { return base.Add(5 * time.Minute) }

	n, err := d.Sweep(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 || rec.count() != 1 || rec.got[0].Handle != due {
		t.Fatalf("delivered %d, got %+v", n, rec.got)
	}

	// Повторный проход не доставляет то же уведомление снова.
	if n, _ := d.Sweep(ctx); n != 0 {
		t.Errorf("second sweep delivered %d", n)
	}
	stored, _ := sched.Get(ctx, due)
	if stored == nil || stored.Pending() {
		t.Errorf("due notification not marked delivered: %+v", stored)
	}
}

func TestDispatcher_FailedDeliveryNotRetried(t *testing.T) {
	store := newTestStore(t)
	sched := NewLocalScheduler(store)
	ctx := context.Background()
	if _, err := sched.ScheduleNotification(ctx, "t", "b", 0); err != nil {
		t.Fatal(err)
	}

	rec := &recorder{fail: true}
	d := NewDispatcher(store, rec)
	d.now = func() time.Time { return time.Now().Add(time.Second) }

	if n, err := d.Sweep(ctx); err != nil || n != 0 {
		t.Fatalf("Sweep = %d, %v", n, err)
	}
	if _, err := d.Sweep(ctx); err != nil {
		t.Fatal(err)
	}
	if rec.count() != 1 {
		t.Errorf("delivery attempted %d times, want 1", rec.count())
	}
}

func TestDispatcher_StartStop(t *testing.T) {
	store := newTestStore(t)
	sched := NewLocalScheduler(store)
	ctx := context.Background()
	if _, err := sched.ScheduleNotification(ctx, "t", "b", 0); err != nil {
		t.Fatal(err)
	}

	delivered := make(chan struct{}, 1)
	d := NewDispatcher(store, DelivererFunc(func(context.Context, models.ScheduledNotification) error {
		select {
		case delivered <- struct{}{}:
		default:
		}
		return nil
	}))

	if err := d.Start("@every 1s"); err != nil {
		t.Fatal(err)
	}
	if err := d.Start("@every 1s"); err == nil {
		t.Error("second Start should fail")
	}

	select {
	case <-delivered:
	case <-time.After(5 * time.Second):
		t.Fatal("dispatcher never delivered")
	}

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	d.Stop(stopCtx)
	d.Stop(stopCtx)
}

func TestDispatcher_InvalidSchedule(t *testing.T) {
	d := NewDispatcher(newTestStore(t), nil)
	if err := d.Start("not a schedule"); err == nil {
		t.Error("expected error for invalid schedule")
	}
}

func TestMultiDeliverer(t *testing.T) {
	ok, bad := &recorder{}, &recorder{fail: true}
	m := MultiDeliverer{bad, ok}
	if err := m.Deliver(context.Background(), models.ScheduledNotification{Handle: "h"}); err == nil {
		t.Error("expected first error")
	}
	if ok.count() != 1 {
		t.Error("remaining deliverers must still be called")
	}
}
