package controllers

import (
	"context"
	"net/http"
	"time"
)

// HealthCheck возвращает статус "OK", если сервер работает и хранилище
// отвечает, иначе 503.
// Пример URL: GET /api/Service/status
func (a *API) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if a.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.DB.Ping(ctx); err != nil {
			a.log.Error("Health check: storage unavailable", "error", err)
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}
