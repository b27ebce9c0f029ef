package screens

import (
	"fmt"
	"strings"

	"calendar_server_go/apperrors"
	"calendar_server_go/models"
)

// AuthMode - вход или регистрация на экране Login.
type AuthMode int

const (
	ModeSignIn AuthMode = iota
	ModeSignUp
)

func (m AuthMode) String() string {
	if m == ModeSignUp {
		return "Sign Up"
	}
	return "Sign In"
}

// LoginForm - состояние экрана входа.
type LoginForm struct {
	Email    string
	Password string
	Mode     AuthMode
	Notice   string
}

// ToggleMode переключает вход и регистрацию.
func (f LoginForm) ToggleMode() LoginForm {
	if f.Mode == ModeSignIn {
		f.Mode = ModeSignUp
	} else {
		f.Mode = ModeSignIn
	}
	f.Notice = ""
	return f
}

// Validate проверяет заполненность полей до обращения к провайдеру.
func (f LoginForm) Validate() error {
	if strings.TrimSpace(f.Email) == "" || f.Password == "" {
		return apperrors.Validation("screens.LoginForm", "Email and password are required.")
	}
	return nil
}

// WithNotice возвращает форму с сообщением для пользователя; пароль сбрасывается.
func (f LoginForm) WithNotice(err error) LoginForm {
	f.Notice = apperrors.Message(err)
	f.Password = ""
	return f
}

// HomeState - состояние главного экрана: список событий и разовое уведомление.
type HomeState struct {
	Events []models.Event
	Cursor int
	Notice string
}

// Selected возвращает событие под курсором.
func (h HomeState) Selected() (models.Event, bool) {
	if h.Cursor < 0 || h.Cursor >= len(h.Events) {
		return models.Event{}, false
	}
	return h.Events[h.Cursor], true
}

// MoveCursor сдвигает курсор в пределах списка.
func (h HomeState) MoveCursor(delta int) HomeState {
	h.Cursor += delta
	if h.Cursor >= len(h.Events) {
		h.Cursor = len(h.Events) - 1
	}
	if h.Cursor < 0 {
		h.Cursor = 0
	}
	return h
}

// WithEvents заменяет список целиком, удерживая курсор в границах.
func (h HomeState) WithEvents(list []models.Event) HomeState {
	h.Events = list
	return h.MoveCursor(0)
}

// EventLines возвращает строки карточки события на главном экране.
func EventLines(index int, e models.Event) []string {
	title := fmt.Sprintf("%d. %s", index+1, e.Name)
	if e.NotificationScheduled {
		title += " (Notification On)"
	}
	date := e.Date
	if strings.TrimSpace(date) == "" {
		date = "No Date Provided"
	}
	lines := []string{title, "Date: " + date}
	if e.HasAudio() {
		lines = append(lines, fmt.Sprintf("Voice note: %ds", e.AudioLength))
	}
	return lines
}

// AddEventForm - состояние формы нового события.
type AddEventForm struct {
	Name                  string
	SelectedDate          string
	NotificationScheduled bool
	AudioURI              string
	AudioLength           int
	Recording             bool
	Notice                string
}

// NewAddEventForm открывает форму для даты, выбранной в календаре.
func NewAddEventForm(selectedDate string) AddEventForm {
	return AddEventForm{SelectedDate: selectedDate}
}

// WithRecording сохраняет результат записи голосовой заметки.
func (f AddEventForm) WithRecording(uri string, seconds int) AddEventForm {
	f.AudioURI = uri
	f.AudioLength = seconds
	f.Recording = false
	return f
}

// Draft собирает черновик события. Пустое имя - ValidationError.
func (f AddEventForm) Draft() (models.EventDraft, error) {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return models.EventDraft{}, apperrors.Validation("screens.AddEventForm", "Please enter an event name.")
	}
	if strings.TrimSpace(f.SelectedDate) == "" {
		return models.EventDraft{}, apperrors.Validation("screens.AddEventForm", "Please select a date.")
	}
	draft := models.EventDraft{
		Name:                  name,
		Date:                  f.SelectedDate,
		NotificationScheduled: f.NotificationScheduled,
	}
	if f.AudioURI != "" {
		uri := f.AudioURI
		draft.AudioURI = &uri
		draft.AudioLength = f.AudioLength
	}
	return draft, nil
}
