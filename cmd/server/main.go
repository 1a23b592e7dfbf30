package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tailor_tracker/internal/app"
	"tailor_tracker/internal/config"
	"tailor_tracker/internal/handlers"
	"tailor_tracker/internal/logger"
	"tailor_tracker/internal/scheduler"
)

func main() {
	cfg := config.Load()

	if err := logger.Init(cfg.IsDevelopment()); err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()
	zl := logger.L()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("Failed to start application", zap.Error(err))
	}
	defer a.Close()

	sched := scheduler.New(a.Reminders, cfg.ReminderHour, cfg.Location(), zl)
	if cfg.ReminderEnabled {
		sched.Start(ctx)
		defer sched.Stop()
	}

	var wa *handlers.WhatsAppHandler
	if a.WhatsApp != nil {
		wa = handlers.NewWhatsAppHandler(a.Items, a.Users, a.WhatsApp, zl)
	}
	api := handlers.NewAPIHandler(a.Items, a.Orders, a.Users, a.Notifications, sched, zl)
	router := handlers.NewRouter(api, wa, zl)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zl.Info("Server starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Error("Server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zl.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("Server shutdown failed", zap.Error(err))
	}
}
