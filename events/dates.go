package events

import (
	"slices"
	"strings"
	"time"

	"calendar_server_go/models"
)

// Форматы, которые принимаются при чтении сохраненных дат.
var dateLayouts = []string{
	models.DateLayout,
	"2006-01-02",
	time.RFC3339,
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseEventDate разбирает сохраненную дату. Даты без времени дают
// локальную полночь. ok == false для пустых и неразборчивых строк.
func ParseEventDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

type sortKey struct {
	event models.Event
	at    time.Time
	ok    bool
}

// SortByDate упорядочивает события по дате, не меняя исходный срез.
// Сортировка стабильная: равные даты сохраняют порядок коллекции,
// события с неразборчивой или пустой датой идут после всех остальных.
func SortByDate(list []models.Event) []models.Event {
	keys := make([]sortKey, len(list))
	for i, e := range list {
		at, ok := ParseEventDate(e.Date)
		keys[i] = sortKey{event: e, at: at, ok: ok}
	}

	slices.SortStableFunc(keys, func(a, b sortKey) int {
		switch {
		case a.ok && b.ok:
			return a.at.Compare(b.at)
		case a.ok:
			return -1
		case b.ok:
			return 1
		default:
			return 0
		}
	})

	out := make([]models.Event, len(keys))
	for i, k := range keys {
		out[i] = k.event
	}
	return out
}
