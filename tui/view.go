package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/mattn/go-runewidth"

	"calendar_server_go/calendar"
	"calendar_server_go/screens"
)

// View рисует текущий экран.
func (m Model) View() string {
	var sb strings.Builder

	switch m.machine.Current() {
	case screens.Login:
		m.viewLogin(&sb)
	case screens.Home:
		m.viewHome(&sb)
	case screens.Calendar:
		m.viewCalendar(&sb)
	case screens.AddEvent:
		m.viewAddEvent(&sb)
	}
	return sb.String()
}

func (m Model) help(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, m.styles.Key.Render(h.Key)+" "+m.styles.Help.Render(h.Desc))
	}
	return strings.Join(parts, m.styles.Help.Render(" • "))
}

// fit обрезает строку по ширине терминала с учетом широких символов.
func (m Model) fit(s string) string {
	if m.width <= 0 {
		return s
	}
	return runewidth.Truncate(s, m.width, "…")
}

func (m Model) viewLogin(sb *strings.Builder) {
	sb.WriteString(m.styles.Title.Render(" " + m.login.Mode.String() + " "))
	sb.WriteString("\n\n")
	sb.WriteString(m.emailInput.View())
	sb.WriteString("\n")
	sb.WriteString(m.passwordInput.View())
	sb.WriteString("\n\n")
	if m.busy {
		sb.WriteString(m.styles.Muted.Render("Please wait..."))
		sb.WriteString("\n")
	}
	if m.login.Notice != "" {
		sb.WriteString(m.styles.Error.Render(m.login.Notice))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(m.help(m.keys.Submit, m.keys.NextField, m.keys.ToggleMode, m.keys.Quit))
}

func (m Model) viewHome(sb *strings.Builder) {
	sb.WriteString(m.styles.Title.Render(" Events "))
	sb.WriteString("\n\n")

	if len(m.home.Events) == 0 {
		sb.WriteString(m.styles.Muted.Render("No events yet."))
		sb.WriteString("\n")
	}
	for i, e := range m.home.Events {
		lines := screens.EventLines(i, e)
		for j, line := range lines {
			line = m.fit(line)
			switch {
			case i == m.home.Cursor && j == 0:
				sb.WriteString(m.styles.Selected.Render("> " + line))
			case j == 0:
				sb.WriteString("  " + line)
			default:
				sb.WriteString("  " + m.styles.Muted.Render(line))
			}
			sb.WriteString("\n")
		}
	}

	if m.home.Notice != "" {
		sb.WriteString("\n")
		sb.WriteString(m.styles.Notice.Render(m.home.Notice))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(m.help(m.keys.Calendar, m.keys.Delete, m.keys.Invite, m.keys.Review, m.keys.SignOut, m.keys.Quit))
}

func (m Model) viewCalendar(sb *strings.Builder) {
	sb.WriteString(m.styles.Title.Render(" Select a date "))
	sb.WriteString("\n\n")
	sb.WriteString(calendar.Render(m.view, m.deps.WeekStart, m.deps.Now()))
	sb.WriteString("\n")
	if d := m.view.SelectedDisplay(); d != "" {
		sb.WriteString("Selected: " + m.styles.Selected.Render(d))
	} else {
		sb.WriteString(m.styles.Muted.Render("No date selected"))
	}
	sb.WriteString("\n")
	if m.home.Notice != "" {
		sb.WriteString(m.styles.Error.Render(m.home.Notice))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(m.help(m.keys.Left, m.keys.Right, m.keys.PrevMonth, m.keys.NextMonth, m.keys.Submit, m.keys.Back))
}

func (m Model) viewAddEvent(sb *strings.Builder) {
	sb.WriteString(m.styles.Title.Render(" Add Event "))
	sb.WriteString("\n\n")
	sb.WriteString("Date: " + m.add.SelectedDate + "\n\n")
	sb.WriteString(m.nameInput.View())
	sb.WriteString("\n\n")

	reminder := "off"
	if m.add.NotificationScheduled {
		reminder = "on"
	}
	sb.WriteString("Reminder: " + reminder + "\n")
	switch {
	case m.add.Recording:
		sb.WriteString(m.styles.Error.Render("● Recording"))
	case m.add.AudioURI != "":
		sb.WriteString(fmt.Sprintf("Voice note: %ds", m.add.AudioLength))
	default:
		sb.WriteString(m.styles.Muted.Render("No voice note"))
	}
	sb.WriteString("\n")

	if m.add.Notice != "" {
		sb.WriteString("\n")
		sb.WriteString(m.styles.Notice.Render(m.add.Notice))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(m.help(m.keys.Submit, m.keys.ToggleReminder, m.keys.Record, m.keys.Play, m.keys.Back))
}
