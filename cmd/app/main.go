package main

import (
	"reminder-service/internal/config"
	apptGet "reminder-service/internal/http-server/handlers/appointments/get"
	absenceApprove "reminder-service/internal/http-server/handlers/absences/approve"
	absenceCreate "reminder-service/internal/http-server/handlers/absences/create"
	absenceGet "reminder-service/internal/http-server/handlers/absences/get"
	absenceReject "reminder-service/internal/http-server/handlers/absences/reject"
	absenceWithdraw "reminder-service/internal/http-server/handlers/absences/withdraw"
	balanceGet "reminder-service/internal/http-server/handlers/balances/get"
	reminderSweep "reminder-service/internal/http-server/handlers/reminders/sweep"
	scheduleCheck "reminder-service/internal/http-server/handlers/schedule/check"
	settingsGet "reminder-service/internal/http-server/handlers/settings/get"
	settingsOffsets "reminder-service/internal/http-server/handlers/settings/offsets"
	settingsUpdate "reminder-service/internal/http-server/handlers/settings/update"
	"reminder-service/internal/lock"
	"reminder-service/internal/models"
	"reminder-service/internal/notify"
	svc "reminder-service/internal/service"
	"reminder-service/internal/storage/postgres"
	"reminder-service/pkg/handlers/slogpretty"
	"reminder-service/pkg/middleware/mwlogger"
	"reminder-service/pkg/middleware/ratelim"
	"reminder-service/pkg/sl"
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {

	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting API", slog.String("env", cfg.Env))
	log.Debug("Debug messages are enabled")

	storage, err := postgres.New(cfg.StoragePath, cfg.MigrationsPath)
	if err != nil {
		log.Error("Failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	locker, err := lock.NewRedisLock(cfg.RedisAddr)
	if err != nil {
		log.Error("Failed to init redis lock", sl.Err(err))
		os.Exit(1)
	}

	webhooks := notify.NewWebhookSender(map[models.Channel]string{
		models.ChannelEmail:    cfg.Notifier.EmailEndpoint,
		models.ChannelSMS:      cfg.Notifier.SMSEndpoint,
		models.ChannelWhatsApp: cfg.Notifier.WhatsAppEndpoint,
	})

	notifier := notify.New(log, map[models.Channel]notify.Sender{
		models.ChannelEmail:    webhooks,
		models.ChannelSMS:      webhooks,
		models.ChannelWhatsApp: webhooks,
		models.ChannelInApp:    notify.NewInAppSender(storage),
	}, cfg.Notifier.SendTimeout)

	service := svc.NewService(storage, locker, notifier, svc.Options{
		Lookahead:        time.Duration(cfg.Sweep.LookaheadHours) * time.Hour,
		ToleranceMinutes: cfg.Sweep.ToleranceMinutes,
		DedupWindow:      time.Duration(cfg.Sweep.DedupWindowMinutes) * time.Minute,
	})

	sweepLimiter := ratelim.New(cfg.Sweep.TriggersPerMinute, 2)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(mwlogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)
	router.Use(CORS)

	// Schedule
	router.Post("/schedule/check-conflict", scheduleCheck.New(log, service))

	// Reminders
	router.With(sweepLimiter.Limit).Post("/reminders/sweep", reminderSweep.New(log, service))

	// Absences
	router.Post("/absences", absenceCreate.New(log, service))
	router.Get("/absences", absenceGet.NewList(log, service))
	router.Get("/absences/{id}", absenceGet.New(log, service))
	router.Put("/absences/{id}/approve", absenceApprove.New(log, service))
	router.Put("/absences/{id}/reject", absenceReject.New(log, service))
	router.Put("/absences/{id}/withdraw", absenceWithdraw.New(log, service))

	// Vacation balances
	router.Get("/balances/{employee_id}", balanceGet.New(log, service))

	// Appointments
	router.Get("/appointments", apptGet.New(log, service))

	// Notification settings
	router.Get("/businesses/{business_id}/notification-settings", settingsGet.New(log, service))
	router.Put("/businesses/{business_id}/notification-settings", settingsUpdate.New(log, service))
	router.Put("/businesses/{business_id}/reminder-offsets", settingsOffsets.New(log, service))

	serv := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	serverErrCh := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", slog.String("addr", cfg.Address))
		if err := serv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		} else {
			serverErrCh <- nil
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case err := <-serverErrCh:
		if err != nil {
			log.Error("HTTP server stopped unexpectedly", sl.Err(err))
		} else {
			log.Info("HTTP server stopped gracefully")
		}
	}

	shutdownTimeout := cfg.HTTPServer.ShutdownTimeout

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("Shutting down HTTP server", slog.String("timeout", shutdownTimeout.String()))

	if err := serv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", sl.Err(err))
	} else {
		log.Info("Server shutdown complete")
	}

	if storage != nil {
		if err := storage.Close(); err != nil {
			log.Error("Failed to close storage", sl.Err(err))
		} else {
			log.Info("Storage closed")
		}
	} else {
		log.Debug("Storage is nil, nothing to close")
	}

	if locker != nil {
		if err := locker.Close(); err != nil {
			log.Error("Failed to close locker", sl.Err(err))
		} else {
			log.Info("Locker closed")
		}
	}

	log.Info("Shutdown finished, server stopped")

}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger
	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
