package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const issuer = "calendar_server_go"

// Claims структура для JWT, включающая стандартные и пользовательские поля.
// RegisteredClaims.ID (jti) используется для отзыва токена при выходе.
type Claims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenService выпускает и проверяет токены HS256.
type TokenService struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewTokenService создает сервис токенов с секретом из конфигурации.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenService{key: []byte(secret), ttl: ttl, now: time.Now}
}

// GenerateToken создает новый JWT для пользователя.
func (s *TokenService) GenerateToken(userID int64, email string) (string, *Claims, error) {
	now := s.now()
	expirationTime := now.Add(s.ttl)

	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.key)
	if err != nil {
		return "", nil, fmt.Errorf("could not sign token: %w", err)
	}

	return tokenString, claims, nil
}

// ValidateToken проверяет JWT и возвращает claims, если токен валиден.
func (s *TokenService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.key, nil
	})

	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) {
			if ve.Errors&jwt.ValidationErrorMalformed != 0 {
				return nil, fmt.Errorf("token is malformed")
			} else if ve.Errors&(jwt.ValidationErrorExpired|jwt.ValidationErrorNotValidYet) != 0 {
				// Token is either expired or not active yet
				return nil, fmt.Errorf("token is expired or not active yet")
			}
		}
		return nil, fmt.Errorf("couldn't handle this token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("token is invalid")
	}
	if claims.Issuer != issuer {
		return nil, fmt.Errorf("token has unexpected issuer %q", claims.Issuer)
	}

	return claims, nil
}
