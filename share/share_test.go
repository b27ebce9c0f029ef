package share

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"calendar_server_go/apperrors"
	"calendar_server_go/config"
	"calendar_server_go/models"
)

type fakeSMS struct {
	available  bool
	recipients []string
	body       string
	calls      int
}

func (f *fakeSMS) IsAvailable(context.Context) bool { return f.available }

func (f *fakeSMS) Send(_ context.Context, recipients []string, body string) error {
	f.calls++
	f.recipients = recipients
	f.body = body
	return nil
}

type fakeEmail struct {
	to      []string
	subject string
	body    string
}

func (f *fakeEmail) Compose(_ context.Context, to []string, subject, body string) (EmailStatus, error) {
	f.to, f.subject, f.body = to, subject, body
	return EmailSent, nil
}

func TestMessages(t *testing.T) {
	if got := InviteMessage("Trip"); got != "You're invited to the event: Trip" {
		t.Errorf("InviteMessage = %q", got)
	}
	events := []models.Event{{Name: "Trip"}, {Name: "Dentist"}}
	if got := ReviewBody(events); got != "Here are your upcoming events: Trip, Dentist" {
		t.Errorf("ReviewBody = %q", got)
	}
	if got := ReviewBody(nil); got != "Here are your upcoming events: " {
		t.Errorf("ReviewBody(nil) = %q", got)
	}
}

func TestInviteFriend(t *testing.T) {
	sms := &fakeSMS{available: true}
	svc := NewService(sms, &fakeEmail{})

	if err := svc.InviteFriend(context.Background(), "Trip", []string{"+15550100"}); err != nil {
		t.Fatal(err)
	}
	if sms.body != "You're invited to the event: Trip" || len(sms.recipients) != 1 {
		t.Errorf("sent %q to %v", sms.body, sms.recipients)
	}
}

func TestInviteFriend_Unavailable(t *testing.T) {
	sms := &fakeSMS{available: false}
	svc := NewService(sms, &fakeEmail{})

	err := svc.InviteFriend(context.Background(), "Trip", nil)
	if !errors.Is(err, apperrors.ErrCapabilityUnavailable) {
		t.Fatalf("got %v, want capability unavailable", err)
	}
	if sms.calls != 0 {
		t.Error("Send must not be called when SMS is unavailable")
	}
}

func TestInviteFriend_NoSMSDriver(t *testing.T) {
	sms, err := NewSMS("none", nil)
	if err != nil {
		t.Fatal(err)
	}
	svc := NewService(sms, &fakeEmail{})
	if err := svc.InviteFriend(context.Background(), "Trip", nil); !errors.Is(err, apperrors.ErrCapabilityUnavailable) {
		t.Errorf("got %v", err)
	}
	if _, err := NewSMS("carrier-pigeon", nil); err == nil {
		t.Error("unknown driver should fail")
	}
}

func TestSendReview(t *testing.T) {
	email := &fakeEmail{}
	svc := NewService(&fakeSMS{}, email)

	status, err := svc.SendReview(context.Background(), "a@b.c", []models.Event{{Name: "Trip"}})
	if err != nil || status != EmailSent {
		t.Fatalf("SendReview = %v, %v", status, err)
	}
	if email.subject != ReviewSubject || email.to[0] != "a@b.c" || email.body != "Here are your upcoming events: Trip" {
		t.Errorf("composed %+v", email)
	}
}

func TestSendReview_SignedOut(t *testing.T) {
	email := &fakeEmail{}
	svc := NewService(&fakeSMS{}, email)

	_, err := svc.SendReview(context.Background(), "", nil)
	if !errors.Is(err, apperrors.ErrAuth) || apperrors.Message(err) != "No user is signed in." {
		t.Fatalf("got %v", err)
	}
	if email.subject != "" {
		t.Error("Compose must not be called without a user")
	}
}

func TestLogEmail_NoRecipientsCancelled(t *testing.T) {
	e := &LogEmail{}
	status, err := e.Compose(context.Background(), []string{" "}, "s", "b")
	if err != nil || status != EmailCancelled {
		t.Errorf("Compose = %v, %v", status, err)
	}
}

func TestSMTPEmail(t *testing.T) {
	e := NewSMTPEmail(config.EmailConfig{
		Driver:   "smtp",
		Host:     "smtp.example.com",
		Port:     587,
		Username: "calendar@example.com",
		Password: "secret",
	})
	e.now = func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) }

	var gotAddr, gotFrom string
	var gotMsg []byte
	e.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotMsg = addr, from, msg
		return nil
	}

	status, err := e.Compose(context.Background(), []string{"a@b.c"}, ReviewSubject, "body text")
	if err != nil || status != EmailSent {
		t.Fatalf("Compose = %v, %v", status, err)
	}
	if gotAddr != "smtp.example.com:587" || gotFrom != "calendar@example.com" {
		t.Errorf("addr=%q from=%q", gotAddr, gotFrom)
	}
	msg := string(gotMsg)
	for _, want := range []string{"To: a@b.c\r\n", "Subject: Upcoming Events Review\r\n", "\r\n\r\nbody text"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}

	e.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("connection refused") }
	if status, err := e.Compose(context.Background(), []string{"a@b.c"}, "s", "b"); status != EmailFailed || err == nil {
		t.Errorf("failing send = %v, %v", status, err)
	}
}
