// Package calendar строит сетку дней месяца для выбора даты события.
package calendar

import (
	"strings"
	"time"

	"calendar_server_go/apperrors"
	"calendar_server_go/models"
)

// DaysInMonth возвращает все дни месяца по возрастанию, в полночь
// локального времени. Длину месяца и високосные годы считает time.Date.
func DaysInMonth(year int, month time.Month) []time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	// Нулевой день следующего месяца - последний день текущего.
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.Local).Day()

	days := make([]time.Time, 0, last)
	for d := 0; d < last; d++ {
		days = append(days, first.AddDate(0, 0, d))
	}
	return days
}

// FirstOfMonth возвращает первый день месяца, в котором лежит t.
func FirstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// NextMonth возвращает первый день следующего месяца.
func NextMonth(current time.Time) time.Time {
	return FirstOfMonth(current).AddDate(0, 1, 0)
}

// PreviousMonth возвращает первый день предыдущего месяца.
func PreviousMonth(current time.Time) time.Time {
	return FirstOfMonth(current).AddDate(0, -1, 0)
}

// FormatDisplayDate форматирует дату для сохранения в событии.
func FormatDisplayDate(t time.Time) string {
	return t.Format(models.DateLayout)
}

// ParseDisplayDate разбирает дату в формате FormatDisplayDate.
func ParseDisplayDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(models.DateLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, apperrors.Validation("calendar.ParseDisplayDate", "date must look like \"Tue Mar 05 2024\"")
	}
	return t, nil
}

// ParseWeekStart переводит настройку "monday"/"sunday" в день недели.
// Любое другое значение дает воскресенье.
func ParseWeekStart(s string) time.Weekday {
	if strings.EqualFold(strings.TrimSpace(s), "monday") {
		return time.Monday
	}
	return time.Sunday
}

// sameDay сравнивает только календарную дату.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
