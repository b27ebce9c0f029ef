// Package config описывает конфигурацию сервера календаря: YAML-файл
// с переопределением любых полей через переменные окружения.
package config

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

// Ошибки валидации конфигурации.
var (
	ErrEmptyPath          = errors.New("config path is empty")
	ErrNilConfig          = errors.New("config is nil")
	ErrInvalidDriver      = errors.New("database.driver must be 'sqlite3' or 'postgres'")
	ErrMissingDSN         = errors.New("database.dsn is required")
	ErrWeakJWTSecret      = errors.New("auth.jwt_secret must be at least 16 characters")
	ErrDefaultJWTSecret   = errors.New("auth.jwt_secret is the published example value; set a private secret")
	ErrInvalidTokenTTL    = errors.New("auth.token_ttl_hours must be at least 1")
	ErrInvalidOffsetDays  = errors.New("reminders.offset_days must be at least 1")
	ErrInvalidWeekStart   = errors.New("calendar.week_start must be 'monday' or 'sunday'")
	ErrInvalidSMSDriver   = errors.New("sms.driver must be 'log' or 'none'")
	ErrInvalidEmailDriver = errors.New("email.driver must be 'log' or 'smtp'")
	ErrMissingSMTPHost    = errors.New("email.host is required for the smtp driver")
	ErrInvalidLogLevel    = errors.New("logging.level must be one of: debug, info, warn, error")
)

const (
	DefaultListen     = "127.0.0.1:8080"
	DefaultDriver     = "sqlite3"
	DefaultSQLiteDSN  = "CalendarServer.db"
	DefaultChangePoll = "@every 2s"

	// publishedJWTSecret писался в конфиг старыми версиями; с ним токены может
	// подделать кто угодно.
	publishedJWTSecret = "change_me_calendar_server_secret"
)

// Config - конфигурация верхнего уровня.
type Config struct {
	Listen    string          `yaml:"listen" env:"CALENDAR_LISTEN"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Uploads   UploadsConfig   `yaml:"uploads"`
	Reminders RemindersConfig `yaml:"reminders"`
	Calendar  CalendarConfig  `yaml:"calendar"`
	SMS       SMSConfig       `yaml:"sms"`
	Email     EmailConfig     `yaml:"email"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DatabaseConfig - хранилище событий и пользователей.
type DatabaseConfig struct {
	// Driver: "sqlite3" (по умолчанию) или "postgres".
	Driver string `yaml:"driver" env:"CALENDAR_DB_DRIVER"`
	// DSN: путь к файлу для sqlite3 или строка подключения для postgres.
	DSN string `yaml:"dsn" env:"CALENDAR_DB_DSN"`
	// ChangePoll - cron-расписание проверки изменений, сделанных другими
	// процессами с той же базой.
	ChangePoll string `yaml:"change_poll" env:"CALENDAR_DB_CHANGE_POLL"`
}

type AuthConfig struct {
	// JWTSecret генерируется при первом запуске; обязателен.
	JWTSecret     string `yaml:"jwt_secret" env:"CALENDAR_JWT_SECRET"`
	TokenTTLHours int    `yaml:"token_ttl_hours" env:"CALENDAR_TOKEN_TTL_HOURS"`
}

// TokenTTL возвращает срок жизни токена.
func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLHours) * time.Hour
}

type UploadsConfig struct {
	Dir        string `yaml:"dir" env:"CALENDAR_UPLOADS_DIR"`
	MaxAudioMB int    `yaml:"max_audio_mb" env:"CALENDAR_MAX_AUDIO_MB"`
}

type RemindersConfig struct {
	// OffsetDays - за сколько дней до события срабатывает напоминание.
	OffsetDays int `yaml:"offset_days" env:"CALENDAR_REMINDER_OFFSET_DAYS"`
	// SweepSchedule - cron-расписание доставки напоминаний (например "@every 30s").
	SweepSchedule string `yaml:"sweep_schedule" env:"CALENDAR_REMINDER_SWEEP"`
	Title         string `yaml:"title" env:"CALENDAR_REMINDER_TITLE"`
}

type CalendarConfig struct {
	// WeekStart: "sunday" (по умолчанию) или "monday".
	WeekStart string `yaml:"week_start" env:"CALENDAR_WEEK_START"`
}

type SMSConfig struct {
	// Driver: "log" пишет сообщения в лог, "none" - SMS недоступны.
	Driver string `yaml:"driver" env:"CALENDAR_SMS_DRIVER"`
}

type EmailConfig struct {
	// Driver: "log" или "smtp".
	Driver   string `yaml:"driver" env:"CALENDAR_EMAIL_DRIVER"`
	Host     string `yaml:"host" env:"CALENDAR_SMTP_HOST"`
	Port     int    `yaml:"port" env:"CALENDAR_SMTP_PORT"`
	Username string `yaml:"username" env:"CALENDAR_SMTP_USERNAME"`
	Password string `yaml:"password" env:"CALENDAR_SMTP_PASSWORD"`
	From     string `yaml:"from" env:"CALENDAR_SMTP_FROM"`
}

type LoggingConfig struct {
	Level string `yaml:"level" env:"CALENDAR_LOG_LEVEL"`
}

// GenerateSecret возвращает случайный секрет для подписи токенов.
func GenerateSecret() string {
	return rand.Text() + rand.Text()
}

// DefaultConfig возвращает конфигурацию по умолчанию со свежим секретом.
func DefaultConfig() *Config {
	return &Config{
		Listen: DefaultListen,
		Database: DatabaseConfig{
			Driver:     DefaultDriver,
			DSN:        DefaultSQLiteDSN,
			ChangePoll: DefaultChangePoll,
		},
		Auth: AuthConfig{
			JWTSecret:     GenerateSecret(),
			TokenTTLHours: 24,
		},
		Uploads: UploadsConfig{
			Dir:        "./uploads",
			MaxAudioMB: 20,
		},
		Reminders: RemindersConfig{
			OffsetDays:    1,
			SweepSchedule: "@every 30s",
			Title:         "Event Reminder!",
		},
		Calendar: CalendarConfig{WeekStart: "sunday"},
		SMS:      SMSConfig{Driver: "log"},
		Email: EmailConfig{
			Driver: "log",
			Port:   587,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Normalize заполняет пустые поля значениями по умолчанию, чтобы
// частично заполненные файлы (например, старых версий) работали корректно.
// Секрет JWT не подставляется: без него Validate вернет ошибку.
func (c *Config) Normalize() {
	def := DefaultConfig()

	if c.Listen == "" {
		c.Listen = def.Listen
	}
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	if c.Database.Driver == "" {
		c.Database.Driver = def.Database.Driver
	}
	if c.Database.DSN == "" && c.Database.Driver == DefaultDriver {
		c.Database.DSN = def.Database.DSN
	}
	if c.Database.ChangePoll == "" {
		c.Database.ChangePoll = def.Database.ChangePoll
	}
	if c.Auth.TokenTTLHours == 0 {
		c.Auth.TokenTTLHours = def.Auth.TokenTTLHours
	}
	if c.Uploads.Dir == "" {
		c.Uploads.Dir = def.Uploads.Dir
	}
	if c.Uploads.MaxAudioMB <= 0 {
		c.Uploads.MaxAudioMB = def.Uploads.MaxAudioMB
	}
	if c.Reminders.OffsetDays == 0 {
		c.Reminders.OffsetDays = def.Reminders.OffsetDays
	}
	if c.Reminders.SweepSchedule == "" {
		c.Reminders.SweepSchedule = def.Reminders.SweepSchedule
	}
	if c.Reminders.Title == "" {
		c.Reminders.Title = def.Reminders.Title
	}
	c.Calendar.WeekStart = strings.ToLower(strings.TrimSpace(c.Calendar.WeekStart))
	if c.Calendar.WeekStart == "" {
		c.Calendar.WeekStart = def.Calendar.WeekStart
	}
	if c.SMS.Driver == "" {
		c.SMS.Driver = def.SMS.Driver
	}
	if c.Email.Driver == "" {
		c.Email.Driver = def.Email.Driver
	}
	if c.Email.Port == 0 {
		c.Email.Port = def.Email.Port
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
}

// Validate проверяет конфигурацию после Normalize.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidDriver, c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return ErrMissingDSN
	}
	if c.Auth.JWTSecret == publishedJWTSecret {
		return ErrDefaultJWTSecret
	}
	if len(c.Auth.JWTSecret) < 16 {
		return ErrWeakJWTSecret
	}
	if c.Auth.TokenTTLHours < 1 {
		return ErrInvalidTokenTTL
	}
	if c.Reminders.OffsetDays < 1 {
		return ErrInvalidOffsetDays
	}
	switch c.Calendar.WeekStart {
	case "monday", "sunday":
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidWeekStart, c.Calendar.WeekStart)
	}
	switch c.SMS.Driver {
	case "log", "none":
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidSMSDriver, c.SMS.Driver)
	}
	switch c.Email.Driver {
	case "log":
	case "smtp":
		if c.Email.Host == "" {
			return ErrMissingSMTPHost
		}
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidEmailDriver, c.Email.Driver)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidLogLevel, c.Logging.Level)
	}
	return nil
}

// Load читает конфигурацию.
//
// Поведение:
//   - пустой path: значения по умолчанию + переменные окружения;
//   - файла нет: создается файл со значениями по умолчанию (0600)
//     и случайным секретом JWT;
//   - файл есть: YAML, затем переменные окружения поверх него.
//
// В конце выполняются Normalize и Validate.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path == "" {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
		return finish(cfg)
	}

	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
		// Первый запуск: создаем файл с настройками по умолчанию.
		if err := Save(path, DefaultConfig()); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Save атомарно записывает конфигурацию в YAML: временный файл в той же
// директории, chmod 0600, rename поверх целевого пути.
func Save(path string, cfg *Config) error {
	if path == "" {
		return ErrEmptyPath
	}
	if cfg == nil {
		return ErrNilConfig
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".calendar-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
