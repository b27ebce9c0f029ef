package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"calendar_server_go/models"
)

// Отсутствующие в записи поля возвращаются нулевыми значениями.
const selectEvents = `SELECT id,
	COALESCE(name, '') AS name,
	COALESCE(date, '') AS date,
	COALESCE(notification_scheduled, FALSE) AS notification_scheduled,
	audio_uri,
	COALESCE(audio_length, 0) AS audio_length,
	push_token
	FROM events`

// InsertEvent записывает новое событие целиком. Если id уже занят (например,
// событие создано другим процессом в ту же миллисекунду), возвращается
// ошибка, обернутая вокруг models.ErrEventExists; запись не перезаписывается.
func (s *Store) InsertEvent(ctx context.Context, event models.Event) error {
	query := `INSERT INTO events (id, name, date, notification_scheduled, audio_uri, audio_length, push_token)
	          VALUES (:id, :name, :date, :notification_scheduled, :audio_uri, :audio_length, :push_token)`

	if _, err := s.db.NamedExecContext(ctx, query, event); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("InsertEvent: event %s: %w", event.ID, models.ErrEventExists)
		}
		return fmt.Errorf("InsertEvent: failed to write event %s: %w", event.ID, err)
	}
	s.log.Debug("Event written", "event_id", event.ID)
	return nil
}

// GetEvent извлекает событие по id. Возвращает nil, nil, если события нет.
func (s *Store) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	event := &models.Event{}
	err := s.db.GetContext(ctx, event, s.rebind(selectEvents+` WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Не найдено
		}
		return nil, fmt.Errorf("GetEvent: failed to get event %s: %w", id, err)
	}
	return event, nil
}

// ListEvents возвращает все события в порядке создания.
// id - миллисекунды Unix, поэтому сортировка по длине и значению совпадает
// с числовой.
func (s *Store) ListEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	err := s.db.SelectContext(ctx, &events, selectEvents+` ORDER BY LENGTH(id) ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("ListEvents: failed to list events: %w", err)
	}
	return events, nil
}

// DeleteEvent удаляет событие. Отсутствие записи ошибкой не считается.
func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM events WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("DeleteEvent: failed to delete event %s: %w", id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		s.log.Debug("DeleteEvent: event not found, nothing to delete", "event_id", id)
		return nil
	}
	s.log.Debug("Event deleted", "event_id", id)
	return nil
}

// EventsFingerprint возвращает отпечаток коллекции: число записей и
// наибольший id. Любое создание или удаление события меняет отпечаток.
func (s *Store) EventsFingerprint(ctx context.Context) (string, error) {
	var row struct {
		Count int64  `db:"n"`
		MaxID string `db:"max_id"`
	}
	err := s.db.GetContext(ctx, &row, `SELECT COUNT(*) AS n, COALESCE(MAX(id), '') AS max_id FROM events`)
	if err != nil {
		return "", fmt.Errorf("EventsFingerprint: %w", err)
	}
	return fmt.Sprintf("%d:%s", row.Count, row.MaxID), nil
}
