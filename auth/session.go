package auth

import (
	"context"
	"sync"
)

// Identity - вошедший пользователь на стороне клиента.
type Identity struct {
	UserID      int64
	Email       string
	DisplayName string
	Token       string
}

// Provider - операции провайдера, которые использует клиентская сессия.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (Result, error)
	SignUp(ctx context.Context, email, password, displayName string) (Result, error)
	SignOut(ctx context.Context, token string) error
}

// StateListener получает текущую личность; nil - никто не вошел.
type StateListener func(*Identity)

// Session хранит текущего пользователя клиента и рассылает изменения.
type Session struct {
	provider Provider

	mu        sync.Mutex
	current   *Identity
	listeners map[int]StateListener
	nextID    int
}

func NewSession(provider Provider) *Session {
	return &Session{
		provider:  provider,
		listeners: make(map[int]StateListener),
	}
}

// Current возвращает копию текущей личности или nil.
func (s *Session) Current() *Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	id := *s.current
	return &id
}

// OnAuthStateChange сразу передает слушателю текущую личность и затем
// каждое изменение, пока не вызвана возвращенная функция отписки.
func (s *Session) OnAuthStateChange(listener StateListener) (unsubscribe func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners[id] = listener
	s.mu.Unlock()

	listener(s.Current())

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *Session) set(identity *Identity) {
	s.mu.Lock()
	s.current = identity
	listeners := make([]StateListener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(s.Current())
	}
}

func identityFrom(r Result) *Identity {
	return &Identity{
		UserID:      r.User.ID,
		Email:       r.User.Email,
		DisplayName: r.User.DisplayName,
		Token:       r.Token,
	}
}

// SignIn входит и уведомляет слушателей.
func (s *Session) SignIn(ctx context.Context, email, password string) error {
	r, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	s.set(identityFrom(r))
	return nil
}

// SignUp регистрирует пользователя и входит.
func (s *Session) SignUp(ctx context.Context, email, password, displayName string) error {
	r, err := s.provider.SignUp(ctx, email, password, displayName)
	if err != nil {
		return err
	}
	s.set(identityFrom(r))
	return nil
}

// SignOut выходит. Без текущего пользователя ничего не делает.
func (s *Session) SignOut(ctx context.Context) error {
	current := s.Current()
	if current == nil {
		return nil
	}
	if err := s.provider.SignOut(ctx, current.Token); err != nil {
		return err
	}
	s.set(nil)
	return nil
}
