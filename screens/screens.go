// Package screens описывает навигацию клиента как конечный автомат над
// экранами Login, Home, Calendar и AddEvent.
package screens

import (
	"slices"
	"strings"

	"calendar_server_go/apperrors"
)

// Screen - именованный экран приложения.
type Screen int

const (
	Login Screen = iota
	Home
	Calendar
	AddEvent
)

func (s Screen) String() string {
	switch s {
	case Login:
		return "Login"
	case Home:
		return "Home"
	case Calendar:
		return "Calendar"
	case AddEvent:
		return "AddEvent"
	default:
		return "Unknown"
	}
}

// Transition - типизированный переход между экранами.
type Transition interface {
	transition()
}

// ToHome открывает главный экран и сбрасывает стек (после входа).
type ToHome struct{}

// ToLogin возвращает на экран входа и сбрасывает стек (после выхода).
type ToLogin struct{}

// ToCalendar открывает календарь поверх текущего экрана.
type ToCalendar struct{}

// ToAddEvent открывает форму события; дата обязательна.
type ToAddEvent struct {
	SelectedDate string
}

// Back возвращает на предыдущий экран; на корневом экране ничего не делает.
type Back struct{}

func (ToHome) transition()     {}
func (ToLogin) transition()    {}
func (ToCalendar) transition() {}
func (ToAddEvent) transition() {}
func (Back) transition()       {}

// Machine - состояние навигации. Значение неизменяемое: Apply и
// OnAuthStateChange возвращают новое состояние.
type Machine struct {
	stack        []Screen
	signedIn     bool
	selectedDate string
}

// New возвращает автомат на экране входа.
func New() Machine {
	return Machine{stack: []Screen{Login}}
}

// Current возвращает экран на вершине стека.
func (m Machine) Current() Screen {
	if len(m.stack) == 0 {
		return Login
	}
	return m.stack[len(m.stack)-1]
}

// Stack возвращает копию стека экранов, корень первым.
func (m Machine) Stack() []Screen {
	if len(m.stack) == 0 {
		return []Screen{Login}
	}
	return slices.Clone(m.stack)
}

func (m Machine) SignedIn() bool {
	return m.signedIn
}

// SelectedDate - дата, переданная в AddEvent.
func (m Machine) SelectedDate() string {
	return m.selectedDate
}

func (m Machine) CanGoBack() bool {
	return len(m.stack) > 1
}

func (m Machine) push(s Screen) Machine {
	m.stack = append(slices.Clone(m.stack), s)
	return m
}

// Apply выполняет переход. Экраны кроме Login требуют входа (AuthError);
// ToAddEvent без даты - ValidationError. При ошибке состояние не меняется.
func (m Machine) Apply(t Transition) (Machine, error) {
	const op = "screens.Apply"

	switch tr := t.(type) {
	case ToLogin:
		return Machine{stack: []Screen{Login}, signedIn: m.signedIn}, nil

	case ToHome:
		if !m.signedIn {
			return m, apperrors.Auth(op, "Sign in to continue.", nil)
		}
		m.stack = []Screen{Home}
		m.selectedDate = ""
		return m, nil

	case ToCalendar:
		if !m.signedIn {
			return m, apperrors.Auth(op, "Sign in to continue.", nil)
		}
		if m.Current() == Calendar {
			return m, nil
		}
		return m.push(Calendar), nil

	case ToAddEvent:
		if !m.signedIn {
			return m, apperrors.Auth(op, "Sign in to continue.", nil)
		}
		date := strings.TrimSpace(tr.SelectedDate)
		if date == "" {
			return m, apperrors.Validation(op, "select a date before adding an event")
		}
		m = m.push(AddEvent)
		m.selectedDate = date
		return m, nil

	case Back:
		if !m.CanGoBack() {
			return m, nil
		}
		m.stack = slices.Clone(m.stack[:len(m.stack)-1])
		if m.Current() != AddEvent {
			m.selectedDate = ""
		}
		return m, nil

	default:
		return m, apperrors.Validation(op, "unknown transition")
	}
}

// OnAuthStateChange применяет правила входа: вошедший пользователь на
// экране Login попадает на Home, вышедший с любого другого экрана
// возвращается на Login.
func (m Machine) OnAuthStateChange(signedIn bool) Machine {
	m.signedIn = signedIn
	switch {
	case signedIn && m.Current() == Login:
		m.stack = []Screen{Home}
	case !signedIn && m.Current() != Login:
		m.stack = []Screen{Login}
		m.selectedDate = ""
	}
	return m
}
