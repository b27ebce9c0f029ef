package data

import (
	"context"
	"fmt"
	"time"
)

// RevokeToken запоминает jti отозванного токена до истечения его срока.
func (s *Store) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	query := s.rebind(`INSERT INTO revoked_tokens (jti, expires_at) VALUES (?, ?)
	          ON CONFLICT (jti) DO NOTHING`)
	if _, err := s.db.ExecContext(ctx, query, jti, expiresAt.UnixMilli()); err != nil {
		return fmt.Errorf("RevokeToken: %w", err)
	}
	return nil
}

// IsTokenRevoked сообщает, был ли токен отозван.
func (s *Store) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	query := s.rebind(`SELECT COUNT(*) > 0 FROM revoked_tokens WHERE jti = ?`)
	if err := s.db.GetContext(ctx, &revoked, query, jti); err != nil {
		return false, fmt.Errorf("IsTokenRevoked: %w", err)
	}
	return revoked, nil
}

// PurgeRevokedTokens удаляет записи об истекших токенах.
func (s *Store) PurgeRevokedTokens(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM revoked_tokens WHERE expires_at <= ?`), now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("PurgeRevokedTokens: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}
