// Package auth реализует провайдера аутентификации: регистрацию, вход,
// выход по JWT и клиентскую сессию с уведомлениями о смене пользователя.
package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"calendar_server_go/apperrors"
	"calendar_server_go/data"
	"calendar_server_go/logger"
	"calendar_server_go/models"
)

const minPasswordLength = 6

// UserStore - хранилище пользователей и отозванных токенов.
type UserStore interface {
	CreateUser(ctx context.Context, email, displayName, password string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// Result - итог успешного входа или регистрации.
type Result struct {
	Token     string
	ExpiresAt time.Time
	User      models.UserPublicInfo
}

// Response переводит результат в тело ответа API.
func (r Result) Response() models.AuthResponse {
	return models.AuthResponse{Token: r.Token, ExpiresAt: r.ExpiresAt, User: r.User}
}

// Service - провайдер аутентификации. Все ошибки - AuthError с сообщением
// для пользователя.
type Service struct {
	users  UserStore
	tokens *TokenService
	log    *logger.Logger
}

func NewService(users UserStore, tokens *TokenService) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		log:    logger.L().With("component", "auth"),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp регистрирует пользователя и сразу выполняет вход.
func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (Result, error) {
	const op = "auth.SignUp"

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return Result{}, apperrors.Auth(op, "Email and password are required.", nil)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return Result{}, apperrors.Auth(op, "The email address is badly formatted.", err)
	}
	if len(password) < minPasswordLength {
		return Result{}, apperrors.Auth(op, "Password should be at least 6 characters.", nil)
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = email
	}

	user, err := s.users.CreateUser(ctx, email, displayName, password)
	if err != nil {
		if errors.Is(err, data.ErrEmailTaken) {
			return Result{}, apperrors.Auth(op, "The email address is already in use by another account.", err)
		}
		s.log.Error("Failed to create user", "email", email, "error", err)
		return Result{}, apperrors.Auth(op, "Could not create the account. Please try again.", err)
	}
	s.log.Info("User registered", "user_id", user.ID)
	return s.issue(op, user)
}

// SignIn проверяет email и пароль.
func (s *Service) SignIn(ctx context.Context, email, password string) (Result, error) {
	const op = "auth.SignIn"

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return Result{}, apperrors.Auth(op, "Email and password are required.", nil)
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		s.log.Error("Failed to look up user", "email", email, "error", err)
		return Result{}, apperrors.Auth(op, "Could not sign in. Please try again.", err)
	}
	if user == nil || !data.CheckPasswordHash(password, user.PasswordHash) {
		return Result{}, apperrors.Auth(op, "Invalid email or password.", nil)
	}
	return s.issue(op, user)
}

func (s *Service) issue(op string, user *models.User) (Result, error) {
	token, claims, err := s.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		s.log.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return Result{}, apperrors.Auth(op, "Could not generate an access token.", err)
	}
	return Result{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		User:      user.PublicInfo(),
	}, nil
}

// SignOut отзывает токен. Повторный выход с тем же токеном не ошибка.
func (s *Service) SignOut(ctx context.Context, token string) error {
	const op = "auth.SignOut"

	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return apperrors.Auth(op, "You are not signed in.", err)
	}
	if err := s.users.RevokeToken(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		s.log.Error("Failed to revoke token", "user_id", claims.UserID, "error", err)
		return apperrors.Auth(op, "Could not sign out. Please try again.", err)
	}
	s.log.Info("User signed out", "user_id", claims.UserID)
	return nil
}

// Authenticate проверяет токен запроса, включая отзыв.
func (s *Service) Authenticate(ctx context.Context, token string) (*Claims, error) {
	const op = "auth.Authenticate"

	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, apperrors.Auth(op, "Invalid token: "+err.Error(), err)
	}
	revoked, err := s.users.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return nil, apperrors.Storage(op, err)
	}
	if revoked {
		return nil, apperrors.Auth(op, "Token has been revoked.", nil)
	}
	return claims, nil
}

// CurrentUser возвращает пользователя по claims.
func (s *Service) CurrentUser(ctx context.Context, claims *Claims) (*models.User, error) {
	const op = "auth.CurrentUser"

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.Storage(op, err)
	}
	if user == nil {
		return nil, apperrors.Auth(op, "No user is signed in.", nil)
	}
	return user, nil
}
