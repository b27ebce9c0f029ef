package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"calendar_server_go/apperrors"
	"calendar_server_go/logger"
)

// respondJSON пишет payload как JSON с указанным кодом.
func respondJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			// Заголовки уже отправлены, остается только лог.
			logger.L().Error("Error encoding JSON response", "error", err)
		}
	}
}

// respondError пишет {"error": message, "kind": kind}.
func respondError(w http.ResponseWriter, statusCode int, message string, kind apperrors.Kind) {
	body := map[string]string{"error": message}
	if kind != "" {
		body["kind"] = string(kind)
	}
	respondJSON(w, statusCode, body)
}

// respondAppError переводит ошибку приложения в HTTP-ответ по ее виду.
func respondAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.L().Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	respondError(w, status, apperrors.Message(err), apperrors.KindOf(err))
}

// decodeJSON читает тело запроса. Пустое тело допустимо, если allowEmpty.
func decodeJSON(r *http.Request, dst interface{}, allowEmpty bool) error {
	defer r.Body.Close()
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) && allowEmpty {
		return nil
	}
	if err != nil {
		return apperrors.Validation("controllers.decodeJSON", "Invalid request body: "+err.Error())
	}
	return nil
}
