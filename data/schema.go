package data

// Имена колонок в нижнем регистре: PostgreSQL приводит к нему
// идентификаторы без кавычек, а sqlx сопоставляет теги db буквально.

const sqliteUsersSchema = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    email TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
)`

const postgresUsersSchema = `
CREATE TABLE IF NOT EXISTS users (
    id BIGSERIAL PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
)`

// events хранит записи "events/<id>"; поля могут отсутствовать
// у записей, созданных старыми клиентами.
const eventsSchema = `
CREATE TABLE IF NOT EXISTS events (
    id TEXT PRIMARY KEY,
    name TEXT,
    date TEXT,
    notification_scheduled BOOLEAN NOT NULL DEFAULT FALSE,
    audio_uri TEXT,
    audio_length INTEGER NOT NULL DEFAULT 0,
    push_token TEXT
)`

// Время в notifications и revoked_tokens - миллисекунды Unix (UTC),
// чтобы сравнение "fire_at <= now" одинаково работало в обоих драйверах.
const notificationsSchema = `
CREATE TABLE IF NOT EXISTS notifications (
    handle TEXT PRIMARY KEY,
    event_id TEXT,
    title TEXT NOT NULL,
    body TEXT NOT NULL,
    fire_at BIGINT NOT NULL,
    delivered_at BIGINT,
    created_at BIGINT NOT NULL
)`

const notificationsIndex = `
CREATE INDEX IF NOT EXISTS idx_notifications_pending ON notifications (delivered_at, fire_at)`

const revokedTokensSchema = `
CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti TEXT PRIMARY KEY,
    expires_at BIGINT NOT NULL
)`

const postgresPushTokenUpgrade = `ALTER TABLE events ADD COLUMN IF NOT EXISTS push_token TEXT`

// schemaFor возвращает DDL для драйвера; выполняется по одному выражению,
// так как lib/pq не принимает несколько команд с параметрами.
func schemaFor(driver string) []string {
	users := sqliteUsersSchema
	if driver == "postgres" {
		users = postgresUsersSchema
	}
	stmts := []string{users, eventsSchema, notificationsSchema, notificationsIndex, revokedTokensSchema}
	if driver == "postgres" {
		stmts = append(stmts, postgresPushTokenUpgrade)
	}
	return stmts
}
