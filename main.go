package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"calendar_server_go/audio"
	"calendar_server_go/auth"
	"calendar_server_go/calendar"
	"calendar_server_go/config"
	"calendar_server_go/controllers"
	"calendar_server_go/data"
	"calendar_server_go/events"
	"calendar_server_go/logger"
	"calendar_server_go/middleware"
	"calendar_server_go/notify"
	"calendar_server_go/reminders"
	"calendar_server_go/share"
	"calendar_server_go/tui"
)

// app - собранные сервисы процесса.
type app struct {
	cfg        *config.Config
	log        *logger.Logger
	store      *data.Store
	adapter    *events.Adapter
	local      *notify.LocalScheduler
	dispatcher *notify.Dispatcher
	eventSvc   *reminders.EventService
	authSvc    *auth.Service
	shareSvc   *share.Service
}

func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	// Инициализация базы данных
	store, err := data.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	sms, err := share.NewSMS(cfg.SMS.Driver, log)
	if err != nil {
		store.Close()
		return nil, err
	}
	email, err := share.NewEmail(cfg.Email, log)
	if err != nil {
		store.Close()
		return nil, err
	}

	adapter := events.NewAdapter(store, events.WithLogger(log.With("component", "events")))
	local := notify.NewLocalScheduler(store)
	scheduler := reminders.NewScheduler(local,
		reminders.WithTitle(cfg.Reminders.Title),
		reminders.WithOffsetDays(cfg.Reminders.OffsetDays),
	)

	return &app{
		cfg:        cfg,
		log:        log,
		store:      store,
		adapter:    adapter,
		local:      local,
		dispatcher: notify.NewDispatcher(store, notify.LogDeliverer{Log: log.With("component", "notifications")}),
		eventSvc:   reminders.NewEventService(adapter, scheduler, local),
		authSvc:    auth.NewService(store, auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())),
		shareSvc:   share.NewService(sms, email),
	}, nil
}

// startBackground запускает доставку напоминаний, очистку отозванных токенов
// и проверку изменений коллекции событий.
func (a *app) startBackground() error {
	err := a.dispatcher.AddFunc("@hourly", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		n, err := a.store.PurgeRevokedTokens(ctx, time.Now())
		if err != nil {
			a.log.Error("Failed to purge revoked tokens", "error", err)
			return
		}
		if n > 0 {
			a.log.Info("Purged expired revoked tokens", "count", n)
		}
	})
	if err != nil {
		return err
	}
	// Изменения, сделанные другим процессом (например, -tui рядом с сервером).
	err = a.dispatcher.AddFunc(a.cfg.Database.ChangePoll, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.adapter.Poll(ctx); err != nil {
			a.log.Error("Failed to poll events for changes", "error", err)
		}
	})
	if err != nil {
		return err
	}
	return a.dispatcher.Start(a.cfg.Reminders.SweepSchedule)
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.dispatcher.Stop(ctx)
	a.adapter.Close()
	if err := a.store.Close(); err != nil {
		a.log.Error("Failed to close database", "error", err)
	}
}

func (a *app) serve(ctx context.Context) error {
	api := controllers.NewAPI(controllers.Deps{
		DB:                 a.store,
		Events:             a.adapter,
		EventSvc:           a.eventSvc,
		Auth:               a.authSvc,
		Share:              a.shareSvc,
		Notifications:      a.local,
		UploadsDir:         a.cfg.Uploads.Dir,
		MaxAudioBytes:      int64(a.cfg.Uploads.MaxAudioMB) * 1024 * 1024,
		WeekStart:          calendar.ParseWeekStart(a.cfg.Calendar.WeekStart),
		ReminderOffsetDays: a.cfg.Reminders.OffsetDays,
	})

	// Создаем новый маршрутизатор gorilla/mux
	router := mux.NewRouter()
	router.Use(middleware.RequestLogger(a.log.With("component", "http")))
	api.Routes(router)

	srv := &http.Server{
		Addr:              a.cfg.Listen,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("Starting server", "addr", a.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (a *app) runTUI(ctx context.Context) error {
	recorder := audio.NewCommandRecorder(filepath.Join(a.cfg.Uploads.Dir, "audio"))
	return tui.Run(ctx, tui.Deps{
		Session:   auth.NewSession(a.authSvc),
		Events:    a.adapter,
		EventSvc:  a.eventSvc,
		Share:     a.shareSvc,
		Recorder:  recorder,
		WeekStart: calendar.ParseWeekStart(a.cfg.Calendar.WeekStart),
	})
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config (created with defaults if missing)")
	listen := flag.String("listen", "", "override listen address")
	tuiMode := flag.Bool("tui", false, "run the terminal client instead of the HTTP server")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *listen != "" {
		cfg.Listen = *listen
	}

	log := logger.NewLogger(cfg.Logging.Level)
	var logFile io.Closer
	if *tuiMode {
		// Терминал занят интерфейсом, лог пишется в файл.
		f, err := os.OpenFile("calendar-tui.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
			os.Exit(1)
		}
		logFile = f
		log = logger.NewWithWriter(f, cfg.Logging.Level)
	}
	logger.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		log.Error("Startup failed", "error", err)
		os.Exit(1)
	}

	if err := a.startBackground(); err != nil {
		log.Error("Failed to start notification dispatcher", "error", err)
		a.close()
		os.Exit(1)
	}

	if *tuiMode {
		err = a.runTUI(ctx)
	} else {
		err = a.serve(ctx)
	}
	a.close()
	if logFile != nil {
		logFile.Close()
	}
	if err != nil {
		log.Error("Exited with error", "error", err)
		os.Exit(1)
	}
}
