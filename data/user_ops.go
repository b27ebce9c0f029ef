package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"calendar_server_go/models"

	"golang.org/x/crypto/bcrypt"
)

// ErrEmailTaken возвращается CreateUser, если email уже зарегистрирован.
var ErrEmailTaken = errors.New("email already registered")

// HashPassword генерирует хеш bcrypt для пароля.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash сравнивает пароль с хешем.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CreateUser создает нового пользователя; пароль хешируется здесь.
func (s *Store) CreateUser(ctx context.Context, email, displayName, password string) (*models.User, error) {
	existing, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hashedPassword, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &models.User{
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hashedPassword,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// RETURNING поддерживают и SQLite (3.35+), и PostgreSQL; LastInsertId в lib/pq нет.
	query := s.rebind(`INSERT INTO users (email, display_name, password_hash, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?) RETURNING id`)
	if err := s.db.QueryRowxContext(ctx, query, user.Email, user.DisplayName, user.PasswordHash, now, now).Scan(&user.ID); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	s.log.Debug("User created", "user_id", user.ID)
	return user, nil
}

// GetUserByEmail извлекает пользователя по email. nil, nil - не найден.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	query := s.rebind(`SELECT id, email, display_name, password_hash, created_at, updated_at
	          FROM users WHERE email = ?`)
	err := s.db.GetContext(ctx, user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Пользователь не найден
		}
		return nil, fmt.Errorf("failed to get user by email %s: %w", email, err)
	}
	return user, nil
}

// GetUserByID извлекает пользователя по ID. nil, nil - не найден.
func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user := &models.User{}
	query := s.rebind(`SELECT id, email, display_name, password_hash, created_at, updated_at
	          FROM users WHERE id = ?`)
	err := s.db.GetContext(ctx, user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Пользователь не найден
		}
		return nil, fmt.Errorf("failed to get user by ID %d: %w", id, err)
	}
	return user, nil
}
