package models

import "errors"

// DateLayout - формат, в котором хранится дата события ("Tue Mar 05 2024").
const DateLayout = "Mon Jan 02 2006"

// ErrEventExists возвращается хранилищем, если событие с таким id уже записано.
var ErrEventExists = errors.New("event with this id already exists")

// Event представляет событие календаря. Запись пишется целиком при создании
// и больше не изменяется; удаляется явно.
type Event struct {
	ID                    string  `json:"id" db:"id"` // миллисекунды Unix на момент создания
	Name                  string  `json:"name" db:"name"`
	Date                  string  `json:"date" db:"date"` // "Mon Jan 02 2006", без часового пояса
	NotificationScheduled bool    `json:"notificationScheduled" db:"notification_scheduled"`
	AudioURI              *string `json:"audioURI,omitempty" db:"audio_uri"`
	AudioLength           int     `json:"audioLength" db:"audio_length"` // секунды, 0 без голосовой заметки
	PushToken             *string `json:"pushToken,omitempty" db:"push_token"`
}

// EventDraft - несохраненное событие, которое собирает пользователь.
type EventDraft struct {
	Name                  string  `json:"name"`
	Date                  string  `json:"date"`
	NotificationScheduled bool    `json:"notificationScheduled"`
	AudioURI              *string `json:"audioURI,omitempty"`
	AudioLength           int     `json:"audioLength"`
	PushToken             *string `json:"pushToken,omitempty"`
}

// HasAudio сообщает, записана ли к событию голосовая заметка.
func (e Event) HasAudio() bool {
	return e.AudioURI != nil && *e.AudioURI != ""
}

// CreateEventResponse - ответ на POST /api/events.
// Warning заполняется, если событие сохранено, но напоминание не запланировано.
type CreateEventResponse struct {
	Event          Event  `json:"event"`
	ReminderHandle string `json:"reminderHandle,omitempty"`
	Warning        string `json:"warning,omitempty"`
	WarningKind    string `json:"warningKind,omitempty"`
}

// InviteRequest - тело POST /api/events/{id}/invite. Пустой список
// получателей допустим: адресатов выбирает отправитель SMS.
type InviteRequest struct {
	Recipients []string `json:"recipients"`
}

// ReviewResponse - результат отправки письма с обзором событий.
type ReviewResponse struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// AudioUploadResponse - ответ на загрузку голосовой заметки.
type AudioUploadResponse struct {
	URI         string `json:"uri"`
	AudioLength int    `json:"audioLength"`
}
