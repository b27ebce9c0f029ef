package models

import "time"

// ScheduledNotification - локальное уведомление в очереди доставки.
type ScheduledNotification struct {
	Handle      string     `json:"handle"`
	EventID     string     `json:"eventId,omitempty"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	FireAt      time.Time  `json:"fireAt"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Pending сообщает, ожидает ли уведомление доставки.
func (n ScheduledNotification) Pending() bool {
	return n.DeliveredAt == nil
}

// NotificationStatus - ответ GET /api/notifications/{handle}.
type NotificationStatus struct {
	ScheduledNotification
	Pending bool `json:"pending"`
}
