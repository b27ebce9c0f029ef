// Package icsexport выгружает события в формате iCalendar (RFC 5545),
// чтобы их можно было открыть в любом календаре.
package icsexport

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"calendar_server_go/events"
	"calendar_server_go/models"
	"calendar_server_go/reminders"
)

const (
	DefaultProductID = "-//calendar_server_go//Events//EN"
	// DefaultUIDDomain добавляется к id события в UID.
	DefaultUIDDomain = "calendar.local"
)

// Options настраивает выгрузку.
type Options struct {
	ProductID  string
	UIDDomain  string
	OffsetDays int
	// Now задает DTSTAMP; по умолчанию time.Now.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.ProductID == "" {
		o.ProductID = DefaultProductID
	}
	if o.UIDDomain == "" {
		o.UIDDomain = DefaultUIDDomain
	}
	if o.OffsetDays <= 0 {
		o.OffsetDays = reminders.DefaultOffsetDays
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Export строит календарь из событий. Каждое событие с разборчивой датой
// становится событием на весь день; события без даты пропускаются.
// Для событий с напоминанием добавляется VALARM за OffsetDays дней.
func Export(list []models.Event, opts Options) (string, int) {
	opts = opts.withDefaults()
	stamp := opts.Now().UTC()

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(opts.ProductID)

	exported := 0
	for _, e := range list {
		day, ok := events.ParseEventDate(e.Date)
		if !ok {
			continue
		}
		day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

		ve := cal.AddEvent(fmt.Sprintf("%s@%s", e.ID, opts.UIDDomain))
		ve.SetDtStampTime(stamp)
		ve.SetSummary(e.Name)
		if e.HasAudio() {
			ve.SetDescription(fmt.Sprintf("Voice note: %ds", e.AudioLength))
		}
		ve.SetAllDayStartAt(day)
		ve.SetAllDayEndAt(day.AddDate(0, 0, 1))

		if e.NotificationScheduled {
			alarm := ve.AddAlarm()
			alarm.SetAction(ical.ActionDisplay)
			alarm.SetTrigger(fmt.Sprintf("-P%dD", opts.OffsetDays))
			alarm.SetProperty(ical.ComponentPropertyDescription, reminders.Body(e.Name))
		}
		exported++
	}
	return cal.Serialize(), exported
}
