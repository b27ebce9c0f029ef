package tui

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"calendar_server_go/apperrors"
	"calendar_server_go/screens"
)

const opTimeout = 15 * time.Second

// Update обрабатывает сообщения и переключает экраны.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case authStateMsg:
		signedIn := msg.identity != nil
		m.machine = m.machine.OnAuthStateChange(signedIn)
		if signedIn {
			m.subscribe()
			m.login = screens.LoginForm{Mode: m.login.Mode}
			m.emailInput.SetValue("")
			m.passwordInput.SetValue("")
		} else {
			m.cancelSubscription()
			m.home = screens.HomeState{}
		}
		return m, m.waitForAuth()

	case eventsMsg:
		m.home = m.home.WithEvents(msg.list)
		return m, m.waitForEvents()

	case authResultMsg:
		m.busy = false
		if msg.err != nil {
			m.login = m.login.WithNotice(msg.err)
			m.passwordInput.SetValue("")
		}
		return m, nil

	case savedMsg:
		m.busy = false
		if msg.err != nil {
			m.add.Notice = apperrors.Message(msg.err)
			return m, nil
		}
		next, err := m.machine.Apply(screens.ToHome{})
		if err == nil {
			m.machine = next
		}
		m.home.Notice = "Event saved."
		if msg.result.Warning != "" {
			m.home.Notice = msg.result.Warning
		}
		m.add = screens.AddEventForm{}
		m.nameInput.SetValue("")
		m.nameInput.Blur()
		return m, nil

	case noticeMsg:
		m.busy = false
		text := msg.text
		if msg.err != nil {
			text = apperrors.Message(msg.err)
		}
		if m.machine.Current() == screens.AddEvent {
			m.add.Notice = text
		} else {
			m.home.Notice = text
		}
		return m, nil

	case recordStartedMsg:
		if msg.err != nil {
			m.add.Recording = false
			m.add.Notice = apperrors.Message(msg.err)
		}
		return m, nil

	case recordedMsg:
		m.add.Recording = false
		if msg.err != nil {
			m.add.Notice = apperrors.Message(msg.err)
			return m, nil
		}
		m.add = m.add.WithRecording(msg.uri, int(math.Round(msg.duration.Seconds())))
		m.add.Notice = fmt.Sprintf("Recorded %ds voice note.", m.add.AudioLength)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		switch m.machine.Current() {
		case screens.Login:
			return m.updateLogin(msg)
		case screens.Home:
			return m.updateHome(msg)
		case screens.Calendar:
			return m.updateCalendar(msg)
		case screens.AddEvent:
			return m.updateAddEvent(msg)
		}
	}
	return m, nil
}

func (m Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleMode):
		m.login = m.login.ToggleMode()
		return m, nil

	case key.Matches(msg, m.keys.NextField):
		m.loginField = (m.loginField + 1) % 2
		if m.loginField == 0 {
			m.passwordInput.Blur()
			return m, m.emailInput.Focus()
		}
		m.emailInput.Blur()
		return m, m.passwordInput.Focus()

	case key.Matches(msg, m.keys.Submit):
		if m.busy {
			return m, nil
		}
		m.login.Email = m.emailInput.Value()
		m.login.Password = m.passwordInput.Value()
		if err := m.login.Validate(); err != nil {
			m.login = m.login.WithNotice(err)
			return m, nil
		}
		m.busy = true
		m.login.Notice = ""
		return m, m.authenticate(m.login)
	}

	var cmd tea.Cmd
	if m.loginField == 0 {
		m.emailInput, cmd = m.emailInput.Update(msg)
	} else {
		m.passwordInput, cmd = m.passwordInput.Update(msg)
	}
	return m, cmd
}

func (m Model) authenticate(form screens.LoginForm) tea.Cmd {
	session := m.deps.Session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		if form.Mode == screens.ModeSignUp {
			return authResultMsg{err: session.SignUp(ctx, form.Email, form.Password, "")}
		}
		return authResultMsg{err: session.SignIn(ctx, form.Email, form.Password)}
	}
}

func (m Model) updateHome(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.home = m.home.MoveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.home = m.home.MoveCursor(1)

	case key.Matches(msg, m.keys.Calendar):
		next, err := m.machine.Apply(screens.ToCalendar{})
		if err != nil {
			m.home.Notice = apperrors.Message(err)
			return m, nil
		}
		m.machine = next
		m.view = m.view.ClearSelection()
		m.home.Notice = ""

	case key.Matches(msg, m.keys.Delete):
		e, ok := m.home.Selected()
		if !ok {
			return m, nil
		}
		svc := m.deps.EventSvc
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
			defer cancel()
			if err := svc.Delete(ctx, e.ID); err != nil {
				return noticeMsg{err: err}
			}
			return noticeMsg{text: fmt.Sprintf("Deleted %q.", e.Name)}
		}

	case key.Matches(msg, m.keys.Invite):
		e, ok := m.home.Selected()
		if !ok || m.deps.Share == nil {
			return m, nil
		}
		svc := m.deps.Share
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
			defer cancel()
			if err := svc.InviteFriend(ctx, e.Name, nil); err != nil {
				return noticeMsg{err: err}
			}
			return noticeMsg{text: "Invitation sent."}
		}

	case key.Matches(msg, m.keys.Review):
		if m.deps.Share == nil {
			return m, nil
		}
		svc := m.deps.Share
		list := m.home.Events
		email := ""
		if id := m.deps.Session.Current(); id != nil {
			email = id.Email
		}
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
			defer cancel()
			status, err := svc.SendReview(ctx, email, list)
			if err != nil {
				return noticeMsg{err: err}
			}
			return noticeMsg{text: "Review e-mail " + string(status) + "."}
		}

	case key.Matches(msg, m.keys.SignOut):
		session := m.deps.Session
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
			defer cancel()
			if err := session.SignOut(ctx); err != nil {
				return noticeMsg{err: err}
			}
			return nil
		}
	}
	return m, nil
}

func (m Model) updateCalendar(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.machine, _ = m.machine.Apply(screens.Back{})
	case key.Matches(msg, m.keys.PrevMonth):
		m.view = m.view.Prev()
	case key.Matches(msg, m.keys.NextMonth):
		m.view = m.view.Next()
	case key.Matches(msg, m.keys.Left):
		m.moveSelection(-1)
	case key.Matches(msg, m.keys.Right):
		m.moveSelection(1)
	case key.Matches(msg, m.keys.Up):
		m.moveSelection(-7)
	case key.Matches(msg, m.keys.Down):
		m.moveSelection(7)

	case key.Matches(msg, m.keys.Submit):
		next, err := m.machine.Apply(screens.ToAddEvent{SelectedDate: m.view.SelectedDisplay()})
		if err != nil {
			m.home.Notice = apperrors.Message(err)
			return m, nil
		}
		m.machine = next
		m.add = screens.NewAddEventForm(next.SelectedDate())
		m.nameInput.SetValue("")
		return m, m.nameInput.Focus()
	}
	return m, nil
}

// moveSelection сдвигает выбранный день. Без выбора выделяется сегодняшний
// день (если он в этом месяце) или первое число.
func (m *Model) moveSelection(delta int) {
	sel, ok := m.view.Selected()
	if !ok {
		now := m.deps.Now()
		month := m.view.Month()
		day := 1
		if now.Year() == month.Year() && now.Month() == month.Month() {
			day = now.Day()
		}
		m.view, _ = m.view.SelectDay(day)
		return
	}
	if v, err := m.view.SelectDay(sel.Day() + delta); err == nil {
		m.view = v
	}
}

func (m Model) updateAddEvent(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		if m.add.Recording {
			return m, nil
		}
		m.machine, _ = m.machine.Apply(screens.Back{})
		m.nameInput.Blur()
		return m, nil

	case key.Matches(msg, m.keys.ToggleReminder):
		m.add.NotificationScheduled = !m.add.NotificationScheduled
		return m, nil

	case key.Matches(msg, m.keys.Record):
		return m.toggleRecording()

	case key.Matches(msg, m.keys.Play):
		if m.deps.Recorder == nil || m.add.AudioURI == "" {
			return m, nil
		}
		rec, uri := m.deps.Recorder, m.add.AudioURI
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			if err := rec.Play(ctx, uri); err != nil {
				return noticeMsg{err: err}
			}
			return noticeMsg{text: "Playback finished."}
		}

	case key.Matches(msg, m.keys.Submit):
		if m.busy || m.add.Recording {
			return m, nil
		}
		m.add.Name = m.nameInput.Value()
		draft, err := m.add.Draft()
		if err != nil {
			m.add.Notice = apperrors.Message(err)
			return m, nil
		}
		m.busy = true
		svc := m.deps.EventSvc
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
			defer cancel()
			result, err := svc.Create(ctx, draft)
			return savedMsg{result: result, err: err}
		}
	}

	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

func (m Model) toggleRecording() (tea.Model, tea.Cmd) {
	rec := m.deps.Recorder
	if rec == nil {
		m.add.Notice = apperrors.Message(apperrors.CapabilityUnavailable("tui.Record", "Voice notes are not available."))
		return m, nil
	}
	if m.add.Recording {
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
			defer cancel()
			uri, d, err := rec.Stop(ctx)
			return recordedMsg{uri: uri, duration: d, err: err}
		}
	}
	m.add.Recording = true
	m.add.Notice = "Recording..."
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		return recordStartedMsg{err: rec.Start(ctx)}
	}
}
