// Package share отправляет приглашения на событие по SMS и обзор
// предстоящих событий по электронной почте.
package share

import (
	"strings"

	"calendar_server_go/models"
)

// ReviewSubject - тема письма с обзором событий.
const ReviewSubject = "Upcoming Events Review"

// InviteMessage возвращает текст SMS-приглашения.
func InviteMessage(eventName string) string {
	return "You're invited to the event: " + eventName
}

// ReviewBody возвращает текст письма с перечнем событий.
func ReviewBody(events []models.Event) string {
	names := make([]string, 0, len(events))
	for _, e := range events {
		names = append(names, e.Name)
	}
	return "Here are your upcoming events: " + strings.Join(names, ", ")
}
