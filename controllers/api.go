// Package controllers содержит HTTP-обработчики API календаря.
package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"calendar_server_go/auth"
	"calendar_server_go/events"
	"calendar_server_go/logger"
	"calendar_server_go/middleware"
	"calendar_server_go/reminders"
	"calendar_server_go/share"
)

// Pinger - проверка доступности хранилища.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps - зависимости обработчиков.
type Deps struct {
	DB       Pinger
	Events   *events.Adapter
	EventSvc *reminders.EventService
	Auth     *auth.Service
	Share    *share.Service
	// Notifications может быть nil: тогда маршруты /api/notifications не
	// регистрируются.
	Notifications NotificationQueue

	UploadsDir    string
	MaxAudioBytes int64
	WeekStart     time.Weekday
	// ReminderOffsetDays задает VALARM в выгрузке ICS.
	ReminderOffsetDays int
	Now                func() time.Time
}

// API - набор обработчиков с общими зависимостями.
type API struct {
	Deps
	log *logger.Logger
}

func NewAPI(deps Deps) *API {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.MaxAudioBytes <= 0 {
		deps.MaxAudioBytes = defaultMaxAudioBytes
	}
	if deps.UploadsDir == "" {
		deps.UploadsDir = "./uploads"
	}
	return &API{Deps: deps, log: logger.L().With("component", "api")}
}

// Routes регистрирует маршруты на router.
func (a *API) Routes(router *mux.Router) {
	// Маршрут для проверки состояния сервера (открытый, без JWT)
	router.HandleFunc("/api/Service/status", a.HealthCheck).Methods(http.MethodGet)

	// Маршруты аутентификации (открытые)
	authRouter := router.PathPrefix("/api/auth").Subrouter()
	authRouter.HandleFunc("/register", a.RegisterHandler).Methods(http.MethodPost)
	authRouter.HandleFunc("/login", a.LoginHandler).Methods(http.MethodPost)

	// Все остальное под /api требует JWT
	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(middleware.JWTMiddleware(a.Auth))

	apiRouter.HandleFunc("/auth/logout", a.LogoutHandler).Methods(http.MethodPost)

	apiRouter.HandleFunc("/events", a.ListEventsHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/events", a.CreateEventHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/events.ics", a.ExportICSHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/events/stream", a.EventStreamHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/events/review", a.ReviewHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/events/{id}", a.DeleteEventHandler).Methods(http.MethodDelete)
	apiRouter.HandleFunc("/events/{id}/invite", a.InviteHandler).Methods(http.MethodPost)

	if a.Notifications != nil {
		apiRouter.HandleFunc("/notifications/{handle}", a.GetNotificationHandler).Methods(http.MethodGet)
		apiRouter.HandleFunc("/notifications/{handle}", a.CancelNotificationHandler).Methods(http.MethodDelete)
	}

	apiRouter.HandleFunc("/calendar/{year:[0-9]{4}}/{month:[0-9]{1,2}}", a.CalendarMonthHandler).Methods(http.MethodGet)

	apiRouter.HandleFunc("/audio/upload", a.UploadAudioHandler).Methods(http.MethodPost)

	// Загруженные файлы доступны без JWT по прямой ссылке.
	router.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", http.FileServer(http.Dir(a.UploadsDir))))
}
