package controllers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"calendar_server_go/apperrors"
	"calendar_server_go/icsexport"
	"calendar_server_go/middleware"
	"calendar_server_go/models"
)

// ListEventsHandler возвращает все события, отсортированные по дате.
// Пример URL: GET /api/events
func (a *API) ListEventsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := a.Events.ListEvents(r.Context())
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	if list == nil {
		list = []models.Event{}
	}
	respondJSON(w, http.StatusOK, list)
}

// CreateEventHandler сохраняет событие и планирует напоминание.
// Если напоминание запланировать не удалось, событие все равно создается,
// а причина возвращается в поле warning.
// Пример URL: POST /api/events
func (a *API) CreateEventHandler(w http.ResponseWriter, r *http.Request) {
	var draft models.EventDraft
	if err := decodeJSON(r, &draft, false); err != nil {
		respondAppError(w, r, err)
		return
	}

	result, err := a.EventSvc.Create(r.Context(), draft)
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	resp := models.CreateEventResponse{Event: result.Event, Warning: result.Warning}
	if result.Reminder != nil {
		resp.ReminderHandle = result.Reminder.Handle
	}
	if result.ReminderErr != nil {
		resp.WarningKind = string(apperrors.KindOf(result.ReminderErr))
	}
	respondJSON(w, http.StatusCreated, resp)
}

// DeleteEventHandler удаляет событие. Удаление несуществующего id - успех.
// Пример URL: DELETE /api/events/{id}
func (a *API) DeleteEventHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := a.EventSvc.Delete(r.Context(), id); err != nil {
		respondAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportICSHandler отдает события в формате iCalendar.
// Пример URL: GET /api/events.ics
func (a *API) ExportICSHandler(w http.ResponseWriter, r *http.Request) {
	list, err := a.Events.ListEvents(r.Context())
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	body, n := icsexport.Export(list, icsexport.Options{OffsetDays: a.ReminderOffsetDays, Now: a.Now})
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="events.ics"`)
	w.Header().Set("X-Event-Count", strconv.Itoa(n))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}

// InviteHandler отправляет SMS-приглашение на событие.
// Пример URL: POST /api/events/{id}/invite
func (a *API) InviteHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req models.InviteRequest
	if err := decodeJSON(r, &req, true); err != nil {
		respondAppError(w, r, err)
		return
	}

	event, ok, err := a.Events.FindEvent(r.Context(), id)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	if !ok {
		respondError(w, http.StatusNotFound, "Event not found.", "")
		return
	}

	if err := a.Share.InviteFriend(r.Context(), event.Name, req.Recipients); err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

// ReviewHandler отправляет на адрес текущего пользователя письмо
// с перечнем событий.
// Пример URL: POST /api/events/review
func (a *API) ReviewHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "No user is signed in.", apperrors.KindAuth)
		return
	}
	user, err := a.Auth.CurrentUser(r.Context(), claims)
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	list, err := a.Events.ListEvents(r.Context())
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	status, err := a.Share.SendReview(r.Context(), user.Email, list)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, models.ReviewResponse{Status: string(status), Count: len(list)})
}
