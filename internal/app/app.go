// Package app assembles storage, infrastructure clients and services from
// configuration.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tailor_tracker/internal/config"
	"tailor_tracker/internal/database"
	"tailor_tracker/internal/events"
	"tailor_tracker/internal/migrations"
	"tailor_tracker/internal/redis"
	"tailor_tracker/internal/repository"
	"tailor_tracker/internal/repository/memory"
	"tailor_tracker/internal/services"
	"tailor_tracker/pkg/whatsapp"
)

// MemoryScheme selects the in-process store instead of PostgreSQL.
const MemoryScheme = "memory://"

const eventSource = "tailor-tracker"

type App struct {
	Config *config.Config
	Log    *zap.Logger
	Repo   *repository.Repository

	Items         services.OrderItemService
	Orders        services.OrderService
	Users         services.UserService
	Notifications services.NotificationService
	Reminders     services.ReminderService

	// WhatsApp is nil when no gateway is configured.
	WhatsApp *whatsapp.Client

	db       *gorm.DB
	redis    *redis.Client
	producer *events.Producer
}

// New connects every configured backend. Redis, Kafka and WhatsApp are
// optional; a Redis connection failure only disables the cache and lock.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log}

	if strings.HasPrefix(cfg.DatabaseURL, MemoryScheme) {
		log.Warn("using in-memory storage, data is lost on exit")
		a.Repo = memory.New()
	} else {
		db, err := database.Initialize(cfg.DatabaseURL, cfg.DBLogLevel)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		if err := migrations.RunMigrations(db, log); err != nil {
			_ = database.Close(db)
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		a.db = db
		a.Repo = repository.New(db)
	}

	var (
		cache  services.StatusCache
		locker services.Locker
		bus    services.EventBus
	)

	if cfg.RedisURL != "" {
		rc, err := redis.Initialize(cfg.RedisURL, time.Duration(cfg.StatusCacheTTL)*time.Second)
		if err != nil {
			log.Warn("redis unavailable, status cache and reminder lock disabled", zap.Error(err))
		} else {
			a.redis = rc
			cache, locker = rc, rc
		}
	}

	if cfg.KafkaEnabled() {
		a.producer = events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, 256, log)
		a.producer.Start(ctx)
		bus = events.NewPublisher(a.producer, eventSource)
		log.Info("publishing item events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}

	var notifier services.Notifier
	if cfg.WhatsAppEnabled() {
		a.WhatsApp = whatsapp.NewClient(cfg.WhatsAppAPIURL, cfg.WhatsAppUsername, cfg.WhatsAppPassword, cfg.WhatsAppPath)
		notifier = services.NewWhatsAppNotifier(a.WhatsApp, a.Repo.Users)
	}

	a.Notifications = services.NewNotificationService(a.Repo.Notifications, notifier, log)
	a.Orders = services.NewOrderService(a.Repo.Orders)
	a.Users = services.NewUserService(a.Repo.Users)
	a.Items = services.NewOrderItemService(a.Repo, log, services.OrderItemOptions{
		Events:        bus,
		Cache:         cache,
		Notifications: a.Notifications,
	})
	a.Reminders = services.NewReminderService(a.Repo, log, services.ReminderOptions{
		Location: cfg.Location(),
		Delivery: a.Notifications,
		Events:   bus,
		Locker:   locker,
		LockTTL:  time.Duration(cfg.ReminderLockTTL) * time.Second,
	})
	return a, nil
}

// Close flushes queued events and releases connections.
func (a *App) Close() {
	if a.producer != nil {
		a.producer.Close()
		a.producer.WaitClosed()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Log.Warn("close redis", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			a.Log.Warn("close database", zap.Error(err))
		}
	}
}

// DB returns the gorm handle, or nil for in-memory storage.
func (a *App) DB() *gorm.DB { return a.db }
