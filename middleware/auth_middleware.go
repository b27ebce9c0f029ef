package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"calendar_server_go/apperrors"
	"calendar_server_go/auth"
	"calendar_server_go/logger"
)

type contextKey string

// claimsKey - ключ для хранения claims токена в контексте запроса.
const claimsKey contextKey = "claims"

// tokenKey - ключ для исходной строки токена (нужна для выхода).
const tokenKey contextKey = "token"

// Authenticator проверяет токен запроса.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
}

// ClaimsFromContext возвращает claims, положенные JWTMiddleware.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok && claims != nil
}

// TokenFromContext возвращает токен текущего запроса.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

// WithClaims кладет claims и токен в контекст.
func WithClaims(ctx context.Context, claims *auth.Claims, token string) context.Context {
	ctx = context.WithValue(ctx, claimsKey, claims)
	return context.WithValue(ctx, tokenKey, token)
}

// bearerToken достает токен из заголовка Authorization. Для websocket,
// где заголовок задать нельзя, принимается параметр access_token.
func bearerToken(r *http.Request) (string, string) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if token := r.URL.Query().Get("access_token"); token != "" {
			return token, ""
		}
		return "", "Missing Authorization header"
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", "Invalid Authorization header format (expected Bearer {token})"
	}
	return parts[1], ""
}

// JWTMiddleware проверяет наличие и валидность JWT в заголовке Authorization.
// Если токен валиден, claims добавляются в контекст запроса.
func JWTMiddleware(authn Authenticator) func(http.Handler) http.Handler {
	log := logger.L().With("component", "jwt_middleware")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, problem := bearerToken(r)
			if problem != "" {
				log.Debug("Rejected request", "method", r.Method, "path", r.URL.Path, "reason", problem)
				unauthorized(w, problem)
				return
			}

			claims, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				log.Debug("Invalid token", "method", r.Method, "path", r.URL.Path, "error", err)
				if apperrors.KindOf(err) == apperrors.KindStorage {
					writeError(w, http.StatusInternalServerError, "Failed to verify token.", apperrors.KindStorage)
					return
				}
				unauthorized(w, apperrors.Message(err))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims, token)))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusUnauthorized, msg, apperrors.KindAuth)
}

func writeError(w http.ResponseWriter, status int, msg string, kind apperrors.Kind) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg, "kind": string(kind)})
}
