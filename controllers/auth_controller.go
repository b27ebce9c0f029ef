package controllers

import (
	"net/http"

	"calendar_server_go/middleware"
	"calendar_server_go/models"
)

// RegisterHandler обрабатывает запросы на регистрацию новых пользователей.
// Ожидает JSON-тело с email, password и необязательным displayName.
// Пример URL: POST /api/auth/register
func (a *API) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeJSON(r, &req, false); err != nil {
		respondAppError(w, r, err)
		return
	}

	result, err := a.Auth.SignUp(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, result.Response())
}

// LoginHandler обрабатывает запросы на вход пользователей.
// Пример URL: POST /api/auth/login
func (a *API) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(r, &req, false); err != nil {
		respondAppError(w, r, err)
		return
	}

	result, err := a.Auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result.Response())
}

// LogoutHandler отзывает токен текущего запроса.
// Пример URL: POST /api/auth/logout (требует авторизации)
func (a *API) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if err := a.Auth.SignOut(r.Context(), middleware.TokenFromContext(r.Context())); err != nil {
		respondAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
