// Command reminder runs the appointment reminder job once and prints the
// run summary. It is meant for cron or a Kubernetes CronJob.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"tailor_tracker/internal/app"
	"tailor_tracker/internal/config"
	"tailor_tracker/internal/logger"
)

func main() {
	date := flag.String("date", "", "run as if today were this date (YYYY-MM-DD, configured timezone)")
	flag.Parse()

	cfg := config.Load()
	if err := logger.Init(cfg.IsDevelopment()); err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()
	zl := logger.L()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	a, err := app.New(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("Failed to start application", zap.Error(err))
	}
	defer a.Close()

	now := time.Now()
	if *date != "" {
		day, err := time.ParseInLocation("2006-01-02", *date, cfg.Location())
		if err != nil {
			zl.Fatal("Invalid -date", zap.String("date", *date), zap.Error(err))
		}
		now = day.Add(time.Duration(cfg.ReminderHour) * time.Hour)
	}

	summary, err := a.Reminders.RunFor(ctx, now)
	if err != nil {
		zl.Fatal("Reminder run failed", zap.Error(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		zl.Error("Failed to print summary", zap.Error(err))
	}
}
