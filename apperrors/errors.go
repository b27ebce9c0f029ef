package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind определяет категорию ошибки приложения.
type Kind string

const (
	KindValidation            Kind = "validation"
	KindStorage               Kind = "storage"
	KindAuth                  Kind = "auth"
	KindPastReminder          Kind = "past_reminder"
	KindPermission            Kind = "permission"
	KindCapabilityUnavailable Kind = "capability_unavailable"
)

// Error - единый тип ошибки приложения. Вид ошибки задается полем Kind,
// исходная причина (если есть) доступна через errors.Unwrap.
type Error struct {
	Kind Kind
	Op   string // операция, в которой произошла ошибка, например "events.SaveEvent"
	Msg  string // сообщение для пользователя
	Err  error
}

// Сентинелы для сравнения через errors.Is.
var (
	ErrValidation            = &Error{Kind: KindValidation}
	ErrStorage               = &Error{Kind: KindStorage}
	ErrAuth                  = &Error{Kind: KindAuth}
	ErrPastReminder          = &Error{Kind: KindPastReminder}
	ErrPermission            = &Error{Kind: KindPermission}
	ErrCapabilityUnavailable = &Error{Kind: KindCapabilityUnavailable}
)

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is сравнивает только вид ошибки, поэтому errors.Is(err, ErrStorage)
// срабатывает для любой ошибки хранилища.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Validation - обязательное поле отсутствует, I/O не выполнялся.
func Validation(op, msg string) error {
	return &Error{Kind: KindValidation, Op: op, Msg: msg}
}

// Storage оборачивает ошибку чтения/записи хранилища.
func Storage(op string, err error) error {
	return &Error{Kind: KindStorage, Op: op, Msg: "storage failure", Err: err}
}

// Auth несет сообщение провайдера аутентификации.
func Auth(op, msg string, err error) error {
	return &Error{Kind: KindAuth, Op: op, Msg: msg, Err: err}
}

// PastReminder - время напоминания уже прошло.
func PastReminder(op string, offsetSeconds float64) error {
	return &Error{
		Kind: KindPastReminder,
		Op:   op,
		Msg:  fmt.Sprintf("reminder time must be in the future (offset %.0fs)", offsetSeconds),
	}
}

func Permission(op, msg string) error {
	return &Error{Kind: KindPermission, Op: op, Msg: msg}
}

func CapabilityUnavailable(op, msg string) error {
	return &Error{Kind: KindCapabilityUnavailable, Op: op, Msg: msg}
}

// KindOf возвращает вид ошибки или пустую строку для посторонних ошибок.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Message возвращает текст, пригодный для показа пользователю.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// HTTPStatus сопоставляет вид ошибки с HTTP-статусом.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindPermission:
		return http.StatusForbidden
	case KindCapabilityUnavailable:
		return http.StatusServiceUnavailable
	case KindPastReminder:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
