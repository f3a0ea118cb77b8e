package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httplog/v3"

	"overtimepay/calendar"
	"overtimepay/config"
	"overtimepay/database"
	"overtimepay/handlers"
	"overtimepay/jobs"
	"overtimepay/middleware"
	"overtimepay/repository"
	"overtimepay/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logFormat := httplog.SchemaECS.Concise(!cfg.IsProduction())
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "overtimepay"),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.Database.Driver, cfg.Database.URL, database.GormLogLevel(cfg.App.LogLevel))
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}
	if err := database.SeedDefaultAdmin(ctx, db, logger); err != nil {
		return err
	}

	store := repository.NewStore(db)
	cal := calendar.New(cfg.Holidays)
	syncer := services.NewSyncer(cfg.Sync.MaxAttempts, cfg.Sync.Backoff, logger)

	reportService := services.NewReportService(store, cal)
	entryService := services.NewEntryService(store, syncer, logger)
	authService := services.NewAuthService(store.Users(), logger)
	adminService := services.NewAdminService(store, syncer, logger)
	dashboardService := services.NewDashboardService(store, reportService)

	auth := middleware.NewAuth(cfg.JWT.Secret, cfg.JWT.Expiration, store.Users())

	router := handlers.NewRouter(
		handlers.RouterConfig{
			Logger:      logger,
			LogLevel:    cfg.SlogLevel(),
			CORSOrigins: cfg.App.CORSOrigins,
		},
		auth,
		handlers.NewAuthHandler(auth, authService, adminService),
		handlers.NewOvertimeHandler(entryService, reportService),
		handlers.NewManagerHandler(reportService),
		handlers.NewDashboardHandler(dashboardService),
	)

	scheduler := jobs.NewScheduler(logger)
	jobs.NewReconciler(store, syncer, cfg.Reconcile.LookbackDays, logger).
		RegisterJobs(scheduler, cfg.Reconcile.Interval)
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
