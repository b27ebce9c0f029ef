package tui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"calendar_server_go/apperrors"
	"calendar_server_go/auth"
	"calendar_server_go/data"
	"calendar_server_go/events"
	"calendar_server_go/models"
	"calendar_server_go/notify"
	"calendar_server_go/reminders"
	"calendar_server_go/screens"
	"calendar_server_go/share"
)

type fakeProvider struct{}

func (fakeProvider) SignIn(_ context.Context, email, password string) (auth.Result, error) {
	if password != "secret1" {
		return auth.Result{}, apperrors.Auth("test", "Invalid email or password.", nil)
	}
	return auth.Result{Token: "token", User: models.UserPublicInfo{ID: 1, Email: email}}, nil
}

func (p fakeProvider) SignUp(ctx context.Context, email, password, _ string) (auth.Result, error) {
	return p.SignIn(ctx, email, password)
}

func (fakeProvider) SignOut(context.Context, string) error { return nil }

type fakeRecorder struct {
	started bool
}

func (r *fakeRecorder) RequestPermission(context.Context) error { return nil }

func (r *fakeRecorder) Start(context.Context) error {
	r.started = true
	return nil
}

func (r *fakeRecorder) Stop(context.Context) (string, time.Duration, error) {
	if !r.started {
		return "", 0, errors.New("not recording")
	}
	r.started = false
	return "/tmp/note.wav", 2600 * time.Millisecond, nil
}

func (r *fakeRecorder) Play(context.Context, string) error { return nil }

var testNow = time.Date(2030, 3, 10, 9, 0, 0, 0, time.Local)

func newTestModel(t *testing.T, rec *fakeRecorder) Model {
	t.Helper()
	store, err := data.Open(context.Background(), "sqlite3", filepath.Join(t.TempDir(), "tui.db"))
	if err != nil {
		t.Fatalf("data.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	adapter := events.NewAdapter(store)
	t.Cleanup(adapter.Close)
	local := notify.NewLocalScheduler(store)

	deps := Deps{
		Session:   auth.NewSession(fakeProvider{}),
		Events:    adapter,
		EventSvc:  reminders.NewEventService(adapter, reminders.NewScheduler(local), local),
		Share:     share.NewService(&share.LogSMS{}, &share.LogEmail{}),
		WeekStart: time.Sunday,
		Now:       func() time.Time { return testNow },
	}
	if rec != nil {
		deps.Recorder = rec
	}
	m := New(deps)
	t.Cleanup(m.Close)

	// Начальное состояние сессии: никто не вошел.
	return update(t, m, m.waitForAuth()())
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

// press отправляет клавишу и выполняет возвращенную команду, если она
// завершается сразу.
func press(t *testing.T, m Model, k tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(k)
	return next.(Model), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func nextEvents(t *testing.T, m Model, want int) Model {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case list := <-m.eventsCh:
			m = update(t, m, eventsMsg{list: list})
			if len(list) == want {
				return m
			}
		case <-deadline:
			t.Fatalf("never received %d events", want)
		}
	}
}

func signIn(t *testing.T, m Model) Model {
	t.Helper()
	m, _ = press(t, m, runes("user@example.com"))
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = press(t, m, runes("secret1"))
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("submit returned no command")
	}
	m = update(t, m, cmd())
	m = update(t, m, m.waitForAuth()())
	if m.Screen() != screens.Home {
		t.Fatalf("screen after sign in = %v", m.Screen())
	}
	return nextEvents(t, m, 0)
}

func TestLogin_Validation(t *testing.T) {
	m := newTestModel(t, nil)
	if m.Screen() != screens.Login {
		t.Fatalf("initial screen = %v", m.Screen())
	}

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("empty form must not call the provider")
	}
	if !strings.Contains(m.View(), "Email and password are required.") {
		t.Errorf("view:\n%s", m.View())
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	if !strings.Contains(m.View(), "Sign Up") {
		t.Errorf("mode not toggled:\n%s", m.View())
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	m := newTestModel(t, nil)
	m, _ = press(t, m, runes("user@example.com"))
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = press(t, m, runes("nope"))
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = update(t, m, cmd())

	if m.Screen() != screens.Login || !strings.Contains(m.View(), "Invalid email or password.") {
		t.Errorf("screen %v view:\n%s", m.Screen(), m.View())
	}
}

func TestAddEventFlow(t *testing.T) {
	m := signIn(t, newTestModel(t, nil))
	if !strings.Contains(m.View(), "No events yet.") {
		t.Errorf("home view:\n%s", m.View())
	}

	m, _ = press(t, m, runes("a"))
	if m.Screen() != screens.Calendar || !strings.Contains(m.View(), "March 2030") {
		t.Fatalf("screen %v view:\n%s", m.Screen(), m.View())
	}

	// Без выбранной даты перейти к форме нельзя.
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.Screen() != screens.Calendar {
		t.Fatalf("entered AddEvent without a date")
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRight}) // сегодня, 10-е
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRight}) // 11-е
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.Screen() != screens.AddEvent || m.add.SelectedDate != "Mon Mar 11 2030" {
		t.Fatalf("screen %v date %q", m.Screen(), m.add.SelectedDate)
	}

	// Пустое имя не сохраняется.
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || !strings.Contains(m.View(), "Please enter an event name.") {
		t.Errorf("blank name accepted:\n%s", m.View())
	}

	m, _ = press(t, m, runes("Trip"))
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})
	m, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("save returned no command")
	}
	m = update(t, m, cmd())
	if m.Screen() != screens.Home {
		t.Fatalf("screen after save = %v", m.Screen())
	}

	m = nextEvents(t, m, 1)
	view := m.View()
	for _, want := range []string{"1. Trip (Notification On)", "Date: Mon Mar 11 2030", "Event saved."} {
		if !strings.Contains(view, want) {
			t.Errorf("home view missing %q:\n%s", want, view)
		}
	}

	m, cmd = press(t, m, runes("d"))
	m = update(t, m, cmd())
	m = nextEvents(t, m, 0)
	if !strings.Contains(m.View(), `Deleted "Trip".`) {
		t.Errorf("view after delete:\n%s", m.View())
	}
}

func TestCalendar_BackAndMonths(t *testing.T) {
	m := signIn(t, newTestModel(t, nil))
	m, _ = press(t, m, runes("a"))
	m, _ = press(t, m, runes("n"))
	if !strings.Contains(m.View(), "April 2030") {
		t.Errorf("next month:\n%s", m.View())
	}
	m, _ = press(t, m, runes("p"))
	m, _ = press(t, m, runes("p"))
	if !strings.Contains(m.View(), "February 2030") {
		t.Errorf("previous month:\n%s", m.View())
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.Screen() != screens.Home {
		t.Errorf("esc from calendar: %v", m.Screen())
	}
}

func TestRecording(t *testing.T) {
	rec := &fakeRecorder{}
	m := signIn(t, newTestModel(t, rec))
	m, _ = press(t, m, runes("a"))
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	if !m.add.Recording {
		t.Fatal("not recording")
	}
	m = update(t, m, cmd())
	m, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	m = update(t, m, cmd())

	if m.add.Recording || m.add.AudioURI != "/tmp/note.wav" || m.add.AudioLength != 3 {
		t.Errorf("form after recording = %+v", m.add)
	}
	if !strings.Contains(m.View(), "Voice note: 3s") {
		t.Errorf("view:\n%s", m.View())
	}
}

func TestRecording_Unavailable(t *testing.T) {
	m := signIn(t, newTestModel(t, nil))
	m, _ = press(t, m, runes("a"))
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	if cmd != nil || !strings.Contains(m.View(), "Voice notes are not available.") {
		t.Errorf("view:\n%s", m.View())
	}
}

func TestSignOut(t *testing.T) {
	m := signIn(t, newTestModel(t, nil))
	m, cmd := press(t, m, runes("o"))
	if cmd == nil {
		t.Fatal("sign out returned no command")
	}
	if msg := cmd(); msg != nil {
		m = update(t, m, msg)
	}
	m = update(t, m, m.waitForAuth()())
	if m.Screen() != screens.Login {
		t.Errorf("screen after sign out = %v", m.Screen())
	}
	if m.sub != nil {
		t.Error("events subscription still active after sign out")
	}
}
