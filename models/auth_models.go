package models

import "time"

// RegisterRequest представляет данные для регистрации нового пользователя.
// DisplayName необязателен; по умолчанию используется email.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

// LoginRequest представляет данные для входа пользователя.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserPublicInfo представляет публичные данные пользователя, возвращаемые API.
type UserPublicInfo struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// AuthResponse представляет ответ сервера после успешной аутентификации.
type AuthResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
	User      UserPublicInfo `json:"user"`
}
