package events

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"calendar_server_go/apperrors"
	"calendar_server_go/data"
	"calendar_server_go/models"
)

// memStore - хранилище в памяти с подсчетом вызовов и внедрением ошибок.
type memStore struct {
	mu      sync.Mutex
	records map[string]models.Event
	order   []string
	puts    int
	failPut error
	failDel error
	failLst error
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]models.Event)}
}

func (m *memStore) InsertEvent(_ context.Context, e models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.failPut != nil {
		return m.failPut
	}
	if _, ok := m.records[e.ID]; ok {
		return models.ErrEventExists
	}
	m.order = append(m.order, e.ID)
	m.records[e.ID] = e
	return nil
}

func (m *memStore) GetEvent(_ context.Context, id string) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *memStore) ListEvents(context.Context) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failLst != nil {
		return nil, m.failLst
	}
	out := make([]models.Event, 0, len(m.order))
	for _, id := range m.order {
		if e, ok := m.records[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) DeleteEvent(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDel != nil {
		return m.failDel
	}
	delete(m.records, id)
	return nil
}

func (m *memStore) putCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newSQLiteAdapter(t *testing.T) *Adapter {
	t.Helper()
	store, err := data.Open(context.Background(), "sqlite3", filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("data.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	a := NewAdapter(store)
	t.Cleanup(a.Close)
	return a
}

// newSharedAdapters открывает два независимых хранилища на одном файле
// sqlite, как сервер и терминальный клиент, запущенные рядом.
func newSharedAdapters(t *testing.T, opts ...Option) (*Adapter, *Adapter) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shared.db")
	open := func() *Adapter {
		store, err := data.Open(context.Background(), "sqlite3", path)
		if err != nil {
			t.Fatalf("data.Open: %v", err)
		}
		t.Cleanup(func() { store.Close() })
		a := NewAdapter(store, opts...)
		t.Cleanup(a.Close)
		return a
	}
	return open(), open()
}

func TestSaveEvent_TwoWritersSameMillisecond(t *testing.T) {
	now := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	server, client := newSharedAdapters(t, WithClock(fixedClock(now)))
	ctx := context.Background()

	dentist, err := server.SaveEvent(ctx, models.EventDraft{Name: "Dentist", Date: "Tue Mar 05 2024"})
	if err != nil {
		t.Fatal(err)
	}
	birthday, err := client.SaveEvent(ctx, models.EventDraft{Name: "Birthday", Date: "Wed Mar 06 2024"})
	if err != nil {
		t.Fatal(err)
	}
	if dentist.ID == birthday.ID {
		t.Fatalf("both writers got id %s", dentist.ID)
	}

	list, err := server.ListEvents(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Name != "Dentist" || list[1].Name != "Birthday" {
		t.Fatalf("list = %+v, want Dentist and Birthday", list)
	}
}

func TestPoll_PushesChangesFromAnotherWriter(t *testing.T) {
	server, client := newSharedAdapters(t)
	ctx := context.Background()

	ch := make(chan []models.Event, 16)
	sub := server.Subscribe(func(list []models.Event) { ch <- list })
	defer sub.Cancel()
	if initial := waitFor(t, ch); len(initial) != 0 {
		t.Fatalf("initial snapshot = %v", initial)
	}
	if err := server.Poll(ctx); err != nil {
		t.Fatalf("Poll: %v", err)
	}

	if _, err := client.SaveEvent(ctx, models.EventDraft{Name: "From terminal", Date: "Mon Mar 04 2024"}); err != nil {
		t.Fatal(err)
	}
	if err := server.Poll(ctx); err != nil {
		t.Fatalf("Poll: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case list := <-ch:
			if len(list) == 1 && list[0].Name == "From terminal" {
				return
			}
		case <-deadline:
			t.Fatal("change made by another writer never reached the subscriber")
		}
	}
}

func TestPoll_UnchangedCollectionIsQuiet(t *testing.T) {
	a := newSQLiteAdapter(t)
	ctx := context.Background()

	var calls atomic.Int64
	first := make(chan struct{}, 1)
	sub := a.Subscribe(func([]models.Event) {
		calls.Add(1)
		select {
		case first <- struct{}{}:
		default:
		}
	})
	defer sub.Cancel()
	<-first

	if err := a.Poll(ctx); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	base := calls.Load()
	for i := 0; i < 3; i++ {
		if err := a.Poll(ctx); err != nil {
			t.Fatal(err)
		}
	}
	time.Sleep(50 * time.Millisecond)
	if got := calls.Load(); got != base {
		t.Errorf("listener called %d times without changes", got-base)
	}

	// Хранилище без отпечатков: Poll ничего не делает.
	if err := NewAdapter(newMemStore()).Poll(ctx); err != nil {
		t.Errorf("Poll on memStore: %v", err)
	}
}

func TestSaveThenList_ContainsExactlyOneNewEntry(t *testing.T) {
	a := newSQLiteAdapter(t)
	ctx := context.Background()

	if _, err := a.SaveEvent(ctx, models.EventDraft{Name: "Existing", Date: "Mon Mar 04 2024"}); err != nil {
		t.Fatal(err)
	}

	audio := "/uploads/audio/note.wav"
	drafts := []models.EventDraft{
		{Name: "Dentist", Date: "Tue Mar 05 2024", NotificationScheduled: true},
		{Name: "Voice memo", Date: "Fri Mar 01 2024", AudioURI: &audio, AudioLength: 12},
	}

	for _, draft := range drafts {
		before, err := a.ListEvents(ctx)
		if err != nil {
			t.Fatal(err)
		}
		saved, err := a.SaveEvent(ctx, draft)
		if err != nil {
			t.Fatalf("SaveEvent(%q): %v", draft.Name, err)
		}
		after, err := a.ListEvents(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(after) != len(before)+1 {
			t.Fatalf("list grew by %d, want 1", len(after)-len(before))
		}

		var found []models.Event
		for _, e := range after {
			if e.ID == saved.ID {
				found = append(found, e)
			}
		}
		if len(found) != 1 {
			t.Fatalf("saved id %s appears %d times", saved.ID, len(found))
		}
		got := found[0]
		if got.Name != draft.Name || got.Date != draft.Date || got.NotificationScheduled != draft.NotificationScheduled ||
			got.AudioLength != draft.AudioLength {
			t.Errorf("stored %+v does not match draft %+v", got, draft)
		}
		if (got.AudioURI == nil) != (draft.AudioURI == nil) {
			t.Errorf("audio presence mismatch: %+v", got)
		}
	}
}

func TestSaveEvent_ValidationBeforeIO(t *testing.T) {
	store := newMemStore()
	a := NewAdapter(store)

	tests := []struct {
		name  string
		draft models.EventDraft
	}{
		{"empty name", models.EventDraft{Date: "Mon Mar 04 2024"}},
		{"blank name", models.EventDraft{Name: "   ", Date: "Mon Mar 04 2024"}},
		{"missing date", models.EventDraft{Name: "Party"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.SaveEvent(context.Background(), tt.draft)
			if !errors.Is(err, apperrors.ErrValidation) {
				t.Fatalf("got %v, want ValidationError", err)
			}
		})
	}
	if n := store.putCount(); n != 0 {
		t.Errorf("store was called %d times on invalid drafts", n)
	}
}

func TestSaveEvent_StorageError(t *testing.T) {
	store := newMemStore()
	store.failPut = errors.New("permission denied")
	a := NewAdapter(store)

	_, err := a.SaveEvent(context.Background(), models.EventDraft{Name: "x", Date: "Mon Mar 04 2024"})
	if !errors.Is(err, apperrors.ErrStorage) {
		t.Fatalf("got %v, want StorageError", err)
	}
	if !errors.Is(err, store.failPut) {
		t.Errorf("cause should be preserved")
	}
}

func TestSaveEvent_IDsUniqueWithinSameMillisecond(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	a := NewAdapter(newMemStore(), WithClock(fixedClock(now)))

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		e, err := a.SaveEvent(context.Background(), models.EventDraft{Name: "n", Date: "Mon Mar 04 2024"})
		if err != nil {
			t.Fatal(err)
		}
		if seen[e.ID] {
			t.Fatalf("duplicate id %s", e.ID)
		}
		seen[e.ID] = true
	}
}

func TestSaveEvent_DropsAudioLengthWithoutAudio(t *testing.T) {
	a := NewAdapter(newMemStore())
	e, err := a.SaveEvent(context.Background(), models.EventDraft{Name: "n", Date: "Mon Mar 04 2024", AudioLength: 9})
	if err != nil {
		t.Fatal(err)
	}
	if e.AudioLength != 0 {
		t.Errorf("AudioLength = %d, want 0 without audio", e.AudioLength)
	}
}

func TestDeleteEvent(t *testing.T) {
	a := newSQLiteAdapter(t)
	ctx := context.Background()

	if err := a.DeleteEvent(ctx, "does-not-exist"); err != nil {
		t.Errorf("deleting a missing id must succeed, got %v", err)
	}

	e, err := a.SaveEvent(ctx, models.EventDraft{Name: "Gone", Date: "Mon Mar 04 2024"})
	if err != nil {
		t.Fatal(err)
	}
	if err := a.DeleteEvent(ctx, e.ID); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := a.FindEvent(ctx, e.ID); ok {
		t.Error("event still present after delete")
	}

	if err := a.DeleteEvent(ctx, " "); !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("blank id: got %v, want ValidationError", err)
	}
}

func TestDeleteEvent_StorageError(t *testing.T) {
	store := newMemStore()
	store.failDel = errors.New("offline")
	a := NewAdapter(store)
	if err := a.DeleteEvent(context.Background(), "1"); !errors.Is(err, apperrors.ErrStorage) {
		t.Fatalf("got %v, want StorageError", err)
	}
}

func TestListEvents_StorageError(t *testing.T) {
	store := newMemStore()
	store.failLst = errors.New("timeout")
	a := NewAdapter(store)
	if _, err := a.ListEvents(context.Background()); !errors.Is(err, apperrors.ErrStorage) {
		t.Fatalf("got %v, want StorageError", err)
	}
}

func TestFindEvent(t *testing.T) {
	a := NewAdapter(newMemStore())
	ctx := context.Background()
	e, _ := a.SaveEvent(ctx, models.EventDraft{Name: "Find me", Date: "Mon Mar 04 2024"})

	got, ok, err := a.FindEvent(ctx, e.ID)
	if err != nil || !ok || got.Name != "Find me" {
		t.Errorf("FindEvent = %+v, %v, %v", got, ok, err)
	}
	if _, ok, err := a.FindEvent(ctx, "missing"); ok || err != nil {
		t.Errorf("FindEvent(missing) = %v, %v", ok, err)
	}
}

// waitFor ждет значения из канала или проваливает тест по таймауту.
func waitFor(t *testing.T, ch <-chan []models.Event) []models.Event {
	t.Helper()
	select {
	case list := <-ch:
		return list
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for listener")
		return nil
	}
}

func TestSubscribe_PushesInitialAndOnChange(t *testing.T) {
	a := NewAdapter(newMemStore())
	ctx := context.Background()

	ch := make(chan []models.Event, 16)
	sub := a.Subscribe(func(list []models.Event) { ch <- list })
	defer sub.Cancel()

	if initial := waitFor(t, ch); len(initial) != 0 {
		t.Fatalf("initial snapshot = %v, want empty", initial)
	}

	if _, err := a.SaveEvent(ctx, models.EventDraft{Name: "Later", Date: "Fri Mar 08 2024"}); err != nil {
		t.Fatal(err)
	}
	if _, err := a.SaveEvent(ctx, models.EventDraft{Name: "Sooner", Date: "Mon Mar 04 2024"}); err != nil {
		t.Fatal(err)
	}

	// Изменения могут склеиться; ждем снимок с обоими событиями.
	deadline := time.After(5 * time.Second)
	for {
		select {
		case list := <-ch:
			if len(list) == 2 {
				if list[0].Name != "Sooner" || list[1].Name != "Later" {
					t.Errorf("snapshot not sorted by date: %+v", list)
				}
				return
			}
		case <-deadline:
			t.Fatal("never received snapshot with both events")
		}
	}
}

func TestSubscribe_NoCallsAfterCancel(t *testing.T) {
	a := NewAdapter(newMemStore())
	ctx := context.Background()

	var calls atomic.Int64
	first := make(chan struct{}, 1)
	sub := a.Subscribe(func([]models.Event) {
		calls.Add(1)
		select {
		case first <- struct{}{}:
		default:
		}
	})

	select {
	case <-first:
	case <-time.After(5 * time.Second):
		t.Fatal("initial snapshot not delivered")
	}

	sub.Cancel()
	sub.Cancel() // повторная отмена безопасна
	after := calls.Load()

	for i := 0; i < 10; i++ {
		if _, err := a.SaveEvent(ctx, models.EventDraft{Name: "n", Date: "Mon Mar 04 2024"}); err != nil {
			t.Fatal(err)
		}
	}
	time.Sleep(50 * time.Millisecond)

	if got := calls.Load(); got != after {
		t.Errorf("listener called %d times after Cancel", got-after)
	}
	if n := a.Subscribers(); n != 0 {
		t.Errorf("Subscribers() = %d after Cancel, want 0", n)
	}
	select {
	case <-sub.Done():
	case <-time.After(5 * time.Second):
		t.Error("Done() never closed after Cancel")
	}
}

func TestSubscribe_CancelFromListener(t *testing.T) {
	a := NewAdapter(newMemStore())
	ctx := context.Background()

	var calls atomic.Int64
	returned := make(chan struct{})
	var sub *Subscription
	var once sync.Once
	ready := make(chan struct{})
	sub = a.Subscribe(func([]models.Event) {
		<-ready
		calls.Add(1)
		sub.Cancel()
		once.Do(func() { close(returned) })
	})
	close(ready)

	select {
	case <-returned:
	case <-time.After(5 * time.Second):
		t.Fatal("Cancel called from the listener did not return")
	}
	select {
	case <-sub.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("subscription goroutine did not stop")
	}

	if _, err := a.SaveEvent(ctx, models.EventDraft{Name: "n", Date: "Mon Mar 04 2024"}); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("listener called %d times, want 1", got)
	}
	if n := a.Subscribers(); n != 0 {
		t.Errorf("Subscribers() = %d, want 0", n)
	}
}

func TestSubscribe_MultipleSubscribersGetOwnCopies(t *testing.T) {
	a := NewAdapter(newMemStore())
	ctx := context.Background()
	if _, err := a.SaveEvent(ctx, models.EventDraft{Name: "Shared", Date: "Mon Mar 04 2024"}); err != nil {
		t.Fatal(err)
	}

	ch1 := make(chan []models.Event, 4)
	ch2 := make(chan []models.Event, 4)
	s1 := a.Subscribe(func(l []models.Event) { ch1 <- l })
	s2 := a.Subscribe(func(l []models.Event) { ch2 <- l })
	defer s1.Cancel()
	defer s2.Cancel()

	l1 := waitFor(t, ch1)
	l2 := waitFor(t, ch2)
	if len(l1) != 1 || len(l2) != 1 {
		t.Fatalf("unexpected snapshots: %v %v", l1, l2)
	}
	l1[0].Name = "mutated"
	if l2[0].Name != "Shared" {
		t.Error("subscribers share the same backing slice")
	}
}

func TestClose_CancelsAllSubscriptions(t *testing.T) {
	a := NewAdapter(newMemStore())
	for i := 0; i < 3; i++ {
		a.Subscribe(func([]models.Event) {})
	}
	a.Close()
	if n := a.Subscribers(); n != 0 {
		t.Errorf("Subscribers() = %d after Close", n)
	}
}
