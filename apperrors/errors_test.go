package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestErrorsIs_MatchesByKind(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("save: %w", Storage("events.SaveEvent", cause))

	if !errors.Is(err, ErrStorage) {
		t.Errorf("expected errors.Is(err, ErrStorage) to be true")
	}
	if errors.Is(err, ErrValidation) {
		t.Errorf("storage error must not match ErrValidation")
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected cause to be reachable through the chain")
	}
}

func TestKindOfAndStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		kind   Kind
		status int
	}{
		{"validation", Validation("op", "name is required"), KindValidation, http.StatusBadRequest},
		{"auth", Auth("op", "wrong password", nil), KindAuth, http.StatusUnauthorized},
		{"permission", Permission("op", "denied"), KindPermission, http.StatusForbidden},
		{"capability", CapabilityUnavailable("op", "no sms"), KindCapabilityUnavailable, http.StatusServiceUnavailable},
		{"storage", Storage("op", errors.New("x")), KindStorage, http.StatusInternalServerError},
		{"past reminder", PastReminder("op", -10), KindPastReminder, http.StatusUnprocessableEntity},
		{"foreign", errors.New("boom"), "", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.kind {
				t.Errorf("KindOf = %q, want %q", got, tt.kind)
			}
			if got := HTTPStatus(tt.err); got != tt.status {
				t.Errorf("HTTPStatus = %d, want %d", got, tt.status)
			}
		})
	}
}

func TestMessage(t *testing.T) {
	err := Auth("auth.SignIn", "Invalid email or password.", errors.New("bcrypt mismatch"))
	if got := Message(err); got != "Invalid email or password." {
		t.Errorf("Message = %q", got)
	}
	if !strings.Contains(err.Error(), "auth.SignIn") {
		t.Errorf("Error() should include op, got %q", err.Error())
	}
	if Message(nil) != "" {
		t.Errorf("Message(nil) should be empty")
	}
}
