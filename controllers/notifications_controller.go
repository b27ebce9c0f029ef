package controllers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"calendar_server_go/models"
)

// NotificationQueue - очередь локальных напоминаний.
type NotificationQueue interface {
	Get(ctx context.Context, handle string) (*models.ScheduledNotification, error)
	Cancel(ctx context.Context, handle string) error
}

// GetNotificationHandler возвращает состояние напоминания по handle из ответа
// на создание события.
// Пример URL: GET /api/notifications/{handle}
func (a *API) GetNotificationHandler(w http.ResponseWriter, r *http.Request) {
	handle := mux.Vars(r)["handle"]
	n, err := a.Notifications.Get(r.Context(), handle)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	if n == nil {
		respondError(w, http.StatusNotFound, "Reminder not found.", "")
		return
	}
	respondJSON(w, http.StatusOK, models.NotificationStatus{ScheduledNotification: *n, Pending: n.Pending()})
}

// CancelNotificationHandler отменяет напоминание, событие остается.
// Неизвестный или уже доставленный handle - не ошибка.
// Пример URL: DELETE /api/notifications/{handle}
func (a *API) CancelNotificationHandler(w http.ResponseWriter, r *http.Request) {
	handle := mux.Vars(r)["handle"]
	if err := a.Notifications.Cancel(r.Context(), handle); err != nil {
		respondAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
