package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"calendar_server_go/apperrors"
	"calendar_server_go/calendar"
	"calendar_server_go/events"
	"calendar_server_go/models"
)

// CalendarMonthHandler возвращает сетку месяца с событиями по дням.
// ?selected=15 выделяет день, ?format=text отдает текстовую сетку.
// Пример URL: GET /api/calendar/2024/3
func (a *API) CalendarMonthHandler(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.CalendarMonth"

	vars := mux.Vars(r)
	year, err := strconv.Atoi(vars["year"])
	if err != nil {
		respondAppError(w, r, apperrors.Validation(op, "year must be a number"))
		return
	}
	month, err := strconv.Atoi(vars["month"])
	if err != nil || month < 1 || month > 12 {
		respondAppError(w, r, apperrors.Validation(op, fmt.Sprintf("month must be between 1 and 12, got %q", vars["month"])))
		return
	}

	now := a.Now()
	view := calendar.NewView(time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local))
	if s := r.URL.Query().Get("selected"); s != "" {
		day, err := strconv.Atoi(s)
		if err != nil {
			respondAppError(w, r, apperrors.Validation(op, "selected must be a day number"))
			return
		}
		if view, err = view.SelectDay(day); err != nil {
			respondAppError(w, r, err)
			return
		}
	}

	if strings.EqualFold(r.URL.Query().Get("format"), "text") {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(calendar.Render(view, a.WeekStart, now)))
		return
	}

	list, err := a.Events.ListEvents(r.Context())
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	first := view.Month()
	resp := models.CalendarMonth{
		Year:      first.Year(),
		Month:     int(first.Month()),
		Title:     fmt.Sprintf("%s %d", first.Month(), first.Year()),
		WeekStart: strings.ToLower(a.WeekStart.String()),
		Headers:   calendar.WeekdayHeaders(a.WeekStart),
		Selected:  view.SelectedDisplay(),
		Events:    map[int][]models.Event{},
	}
	for _, week := range calendar.Weeks(first.Year(), first.Month(), a.WeekStart) {
		var row [7]int
		for i, d := range week {
			if !d.IsZero() {
				row[i] = d.Day()
			}
		}
		resp.Weeks = append(resp.Weeks, row)
	}
	for _, e := range list {
		d, ok := events.ParseEventDate(e.Date)
		if !ok || d.Year() != first.Year() || d.Month() != first.Month() {
			continue
		}
		resp.Events[d.Day()] = append(resp.Events[d.Day()], e)
	}
	respondJSON(w, http.StatusOK, resp)
}
