package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap - привязки клавиш терминального клиента.
type KeyMap struct {
	Quit       key.Binding
	Submit     key.Binding
	Back       key.Binding
	NextField  key.Binding
	ToggleMode key.Binding

	Up       key.Binding
	Down     key.Binding
	Calendar key.Binding
	Delete   key.Binding
	Invite   key.Binding
	Review   key.Binding
	SignOut  key.Binding

	Left      key.Binding
	Right     key.Binding
	PrevMonth key.Binding
	NextMonth key.Binding

	ToggleReminder key.Binding
	Record         key.Binding
	Play           key.Binding
}

// DefaultKeyMap возвращает привязки по умолчанию. На экранах с вводом
// текста действия висят на ctrl-сочетаниях.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit:       key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		Submit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		Back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		NextField:  key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "next field")),
		ToggleMode: key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "sign in / sign up")),

		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Calendar: key.NewBinding(key.WithKeys("a", "c"), key.WithHelp("a", "add event")),
		Delete:   key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		Invite:   key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "invite")),
		Review:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "e-mail review")),
		SignOut:  key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "sign out")),

		Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "previous day")),
		Right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next day")),
		PrevMonth: key.NewBinding(key.WithKeys("p", "pgup"), key.WithHelp("p", "previous month")),
		NextMonth: key.NewBinding(key.WithKeys("n", "pgdown"), key.WithHelp("n", "next month")),

		ToggleReminder: key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "reminder on/off")),
		Record:         key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "record / stop")),
		Play:           key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "play voice note")),
	}
}
