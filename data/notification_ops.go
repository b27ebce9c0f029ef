package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"calendar_server_go/models"
)

type notificationRow struct {
	Handle      string         `db:"handle"`
	EventID     sql.NullString `db:"event_id"`
	Title       string         `db:"title"`
	Body        string         `db:"body"`
	FireAt      int64          `db:"fire_at"`
	DeliveredAt sql.NullInt64  `db:"delivered_at"`
	CreatedAt   int64          `db:"created_at"`
}

func (r notificationRow) toModel() models.ScheduledNotification {
	n := models.ScheduledNotification{
		Handle:    r.Handle,
		EventID:   r.EventID.String,
		Title:     r.Title,
		Body:      r.Body,
		FireAt:    time.UnixMilli(r.FireAt),
		CreatedAt: time.UnixMilli(r.CreatedAt),
	}
	if r.DeliveredAt.Valid {
		t := time.UnixMilli(r.DeliveredAt.Int64)
		n.DeliveredAt = &t
	}
	return n
}

const selectNotifications = `SELECT handle, event_id, title, body, fire_at, delivered_at, created_at FROM notifications`

// InsertNotification ставит уведомление в очередь.
func (s *Store) InsertNotification(ctx context.Context, n models.ScheduledNotification) error {
	eventID := sql.NullString{String: n.EventID, Valid: n.EventID != ""}
	query := s.rebind(`INSERT INTO notifications (handle, event_id, title, body, fire_at, created_at)
	          VALUES (?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query, n.Handle, eventID, n.Title, n.Body, n.FireAt.UnixMilli(), n.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("InsertNotification: failed to insert %s: %w", n.Handle, err)
	}
	s.log.Debug("Notification queued", "handle", n.Handle, "fire_at", n.FireAt)
	return nil
}

// GetNotification возвращает уведомление по handle. nil, nil - не найдено.
func (s *Store) GetNotification(ctx context.Context, handle string) (*models.ScheduledNotification, error) {
	var row notificationRow
	err := s.db.GetContext(ctx, &row, s.rebind(selectNotifications+` WHERE handle = ?`), handle)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("GetNotification: failed to get %s: %w", handle, err)
	}
	n := row.toModel()
	return &n, nil
}

// DueNotifications возвращает недоставленные уведомления с fire_at <= now,
// самые ранние первыми.
func (s *Store) DueNotifications(ctx context.Context, now time.Time, limit int) ([]models.ScheduledNotification, error) {
	var rows []notificationRow
	query := s.rebind(selectNotifications + ` WHERE delivered_at IS NULL AND fire_at <= ? ORDER BY fire_at ASC, handle ASC LIMIT ?`)
	if err := s.db.SelectContext(ctx, &rows, query, now.UnixMilli(), limit); err != nil {
		return nil, fmt.Errorf("DueNotifications: %w", err)
	}
	out := make([]models.ScheduledNotification, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// MarkNotificationDelivered отмечает уведомление доставленным.
func (s *Store) MarkNotificationDelivered(ctx context.Context, handle string, at time.Time) error {
	query := s.rebind(`UPDATE notifications SET delivered_at = ? WHERE handle = ? AND delivered_at IS NULL`)
	if _, err := s.db.ExecContext(ctx, query, at.UnixMilli(), handle); err != nil {
		return fmt.Errorf("MarkNotificationDelivered: failed to update %s: %w", handle, err)
	}
	return nil
}

// LinkNotificationEvent связывает уведомление с событием, чтобы его можно
// было отменить при удалении события.
func (s *Store) LinkNotificationEvent(ctx context.Context, handle, eventID string) error {
	query := s.rebind(`UPDATE notifications SET event_id = ? WHERE handle = ?`)
	if _, err := s.db.ExecContext(ctx, query, eventID, handle); err != nil {
		return fmt.Errorf("LinkNotificationEvent: failed to link %s: %w", handle, err)
	}
	return nil
}

// DeleteNotification удаляет ожидающее уведомление. Возвращает false,
// если удалять было нечего (нет такого или уже доставлено).
func (s *Store) DeleteNotification(ctx context.Context, handle string) (bool, error) {
	query := s.rebind(`DELETE FROM notifications WHERE handle = ? AND delivered_at IS NULL`)
	result, err := s.db.ExecContext(ctx, query, handle)
	if err != nil {
		return false, fmt.Errorf("DeleteNotification: failed to delete %s: %w", handle, err)
	}
	rowsAffected, _ := result.RowsAffected()
	return rowsAffected > 0, nil
}

// DeleteEventNotifications удаляет ожидающие уведомления события.
func (s *Store) DeleteEventNotifications(ctx context.Context, eventID string) (int64, error) {
	query := s.rebind(`DELETE FROM notifications WHERE event_id = ? AND delivered_at IS NULL`)
	result, err := s.db.ExecContext(ctx, query, eventID)
	if err != nil {
		return 0, fmt.Errorf("DeleteEventNotifications: failed for event %s: %w", eventID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected > 0 {
		s.log.Debug("Pending notifications cancelled", "event_id", eventID, "count", rowsAffected)
	}
	return rowsAffected, nil
}
