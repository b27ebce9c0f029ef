package data

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"calendar_server_go/logger"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"           // Драйвер PostgreSQL
	"github.com/mattn/go-sqlite3" // Драйвер SQLite, регистрируется при импорте
)

// Store - хранилище событий, пользователей и очереди уведомлений.
// Одно подключение sqlx на процесс; запросы пишутся с плейсхолдерами "?"
// и переписываются под драйвер через Rebind.
type Store struct {
	db     *sqlx.DB
	driver string
	log    *logger.Logger
}

// Open подключается к базе, проверяет соединение и применяет схему.
// driver: "sqlite3" (dsn - путь к файлу) или "postgres" (dsn - строка подключения).
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	log := logger.L().With("component", "data")

	var connStr string
	switch driver {
	case "sqlite3":
		connStr = sqliteDSN(dsn)
	case "postgres":
		connStr = dsn
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.ConnectContext(ctx, driver, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}
	if driver == "sqlite3" {
		// SQLite сериализует запись; одно соединение исключает "database is locked".
		db.SetMaxOpenConns(1)
	}

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", driver, err)
	}
	log.Info("Successfully connected to the database", "driver", driver)

	s := &Store{db: db, driver: driver, log: log}
	if err := s.applySchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// sqliteDSN добавляет к пути параметры подключения, если их еще нет.
func sqliteDSN(path string) string {
	params := "_foreign_keys=on&_busy_timeout=5000&_loc=auto"
	if strings.Contains(path, "?") {
		return path + "&" + params
	}
	return path + "?" + params
}

func (s *Store) applySchema(ctx context.Context) error {
	for _, stmt := range schemaFor(s.driver) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema: %w", err)
		}
	}
	s.log.Info("Database schema applied successfully.")
	return s.ensureSchemaUpgrade(ctx)
}

// ensureSchemaUpgrade добавляет колонки, появившиеся после первой версии схемы.
func (s *Store) ensureSchemaUpgrade(ctx context.Context) error {
	if s.driver != "sqlite3" {
		// В PostgreSQL используется ADD COLUMN IF NOT EXISTS прямо в схеме.
		return nil
	}
	var pushTokenExists bool
	err := s.db.GetContext(ctx, &pushTokenExists, `
		SELECT COUNT(*) > 0
		FROM pragma_table_info('events')
		WHERE name = 'push_token'
	`)
	if err != nil {
		s.log.Warn("Failed to check push_token column", "error", err)
		return nil
	}
	if !pushTokenExists {
		if _, err := s.db.ExecContext(ctx, `ALTER TABLE events ADD COLUMN push_token TEXT`); err != nil {
			return fmt.Errorf("failed to add push_token column: %w", err)
		}
		s.log.Info("Added push_token column to events")
	}
	return nil
}

// Driver возвращает имя драйвера базы.
func (s *Store) Driver() string {
	return s.driver
}

// DB возвращает пул подключений.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Close закрывает подключение.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping проверяет доступность базы (используется проверкой состояния сервера).
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) rebind(query string) string {
	return s.db.Rebind(query)
}

// isUniqueViolation распознает нарушение PRIMARY KEY/UNIQUE в обоих драйверах.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" // unique_violation
	}
	return false
}
