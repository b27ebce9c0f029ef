// Package tui - терминальный клиент календаря: экраны Login, Home,
// Calendar и AddEvent поверх тех же сервисов, что и HTTP API.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"calendar_server_go/audio"
	"calendar_server_go/auth"
	"calendar_server_go/calendar"
	"calendar_server_go/events"
	"calendar_server_go/logger"
	"calendar_server_go/models"
	"calendar_server_go/reminders"
	"calendar_server_go/screens"
	"calendar_server_go/share"
)

// Deps - сервисы, с которыми работает клиент. Recorder может быть nil.
type Deps struct {
	Session   *auth.Session
	Events    *events.Adapter
	EventSvc  *reminders.EventService
	Share     *share.Service
	Recorder  audio.Recorder
	WeekStart time.Weekday
	Now       func() time.Time
}

// Сообщения, которые приходят в Update из команд и подписок.
type (
	authStateMsg  struct{ identity *auth.Identity }
	eventsMsg     struct{ list []models.Event }
	authResultMsg struct{ err error }
	savedMsg      struct {
		result reminders.CreateResult
		err    error
	}
	noticeMsg struct {
		text string
		err  error
	}
	recordStartedMsg struct{ err error }
	recordedMsg      struct {
		uri      string
		duration time.Duration
		err      error
	}
)

// Model - состояние клиента.
type Model struct {
	deps   Deps
	keys   KeyMap
	styles Styles
	log    *logger.Logger

	machine screens.Machine

	login         screens.LoginForm
	emailInput    textinput.Model
	passwordInput textinput.Model
	loginField    int

	home screens.HomeState

	view calendar.View

	add       screens.AddEventForm
	nameInput textinput.Model

	width int
	busy  bool

	// Подписки доставляют данные в каналы; команды wait* читают из них.
	authCh      chan *auth.Identity
	eventsCh    chan []models.Event
	sub         *events.Subscription
	unsubscribe func()
}

// New создает модель и подписывается на смену пользователя.
func New(deps Deps) Model {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	email := textinput.New()
	email.Placeholder = "Email"
	email.Width = 40
	email.Focus()

	password := textinput.New()
	password.Placeholder = "Password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.Width = 40

	name := textinput.New()
	name.Placeholder = "Event name"
	name.Width = 40

	m := Model{
		deps:          deps,
		keys:          DefaultKeyMap(),
		styles:        DefaultStyles(),
		log:           logger.L().With("component", "tui"),
		machine:       screens.New(),
		emailInput:    email,
		passwordInput: password,
		nameInput:     name,
		view:          calendar.NewView(deps.Now()),
		authCh:        make(chan *auth.Identity, 1),
		eventsCh:      make(chan []models.Event, 1),
	}
	authCh := m.authCh
	m.unsubscribe = deps.Session.OnAuthStateChange(func(id *auth.Identity) {
		offer(authCh, id)
	})
	return m
}

// offer кладет значение в канал емкостью 1, вытесняя устаревшее.
func offer[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForAuth(), m.waitForEvents())
}

func (m Model) waitForAuth() tea.Cmd {
	ch := m.authCh
	return func() tea.Msg { return authStateMsg{identity: <-ch} }
}

func (m Model) waitForEvents() tea.Cmd {
	ch := m.eventsCh
	return func() tea.Msg { return eventsMsg{list: <-ch} }
}

// subscribe начинает получать список событий. Повторный вызов ничего не делает.
func (m *Model) subscribe() {
	if m.sub != nil || m.deps.Events == nil {
		return
	}
	ch := m.eventsCh
	m.sub = m.deps.Events.Subscribe(func(list []models.Event) {
		offer(ch, list)
	})
}

func (m *Model) cancelSubscription() {
	if m.sub != nil {
		m.sub.Cancel()
		m.sub = nil
	}
}

// Close снимает подписки. Вызывается после завершения программы.
func (m Model) Close() {
	if m.sub != nil {
		m.sub.Cancel()
	}
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Screen возвращает текущий экран.
func (m Model) Screen() screens.Screen {
	return m.machine.Current()
}

// Run запускает клиент в терминале и ждет выхода.
func Run(ctx context.Context, deps Deps) error {
	m := New(deps)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.Close()
	} else {
		m.Close()
	}
	return err
}
