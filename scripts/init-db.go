package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"tailor_tracker/internal/config"
	"tailor_tracker/internal/database"
	"tailor_tracker/internal/lifecycle"
	"tailor_tracker/internal/logger"
	"tailor_tracker/internal/migrations"
	"tailor_tracker/internal/models"
	"tailor_tracker/internal/repository"
	"tailor_tracker/internal/services"
)

func main() {
	reset := flag.Bool("reset", false, "drop every table before migrating")
	seed := flag.Bool("seed", false, "create demo users and orders")
	flag.Parse()

	fmt.Println("Initializing database...")
	cfg := config.Load()
	if err := logger.Init(true); err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	db, err := database.Initialize(cfg.DatabaseURL, cfg.DBLogLevel)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Close(db)

	if *reset {
		fmt.Println("Dropping existing tables...")
		if err := migrations.Reset(db, logger.L()); err != nil {
			log.Fatal("Failed to reset database:", err)
		}
	}

	fmt.Println("Creating tables...")
	if err := migrations.RunMigrations(db, logger.L()); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	if *seed {
		if err := seedDemo(context.Background(), repository.New(db), cfg.Location()); err != nil {
			log.Fatal("Failed to seed database:", err)
		}
	}
	fmt.Println("Database initialized successfully!")
}

func seedDemo(ctx context.Context, repo *repository.Repository, loc *time.Location) error {
	users := services.NewUserService(repo.Users)

	existing, err := repo.Users.GetByEmail(ctx, "demo.customer@example.com")
	if err != nil {
		return err
	}
	if existing != nil {
		fmt.Println("Demo data already exists")
		return nil
	}

	fmt.Println("Creating demo users...")
	admin := &models.User{Name: "Shop Admin", Email: "admin@example.com", Role: models.RoleAdmin}
	if err := users.RegisterCustomer(ctx, admin); err != nil {
		return err
	}
	customer := &models.User{
		Name:           "Demo Customer",
		Email:          "demo.customer@example.com",
		PhoneNumber:    "081234567890",
		WhatsAppNumber: "081234567890",
	}
	if err := users.RegisterCustomer(ctx, customer); err != nil {
		return err
	}

	fmt.Println("Creating demo orders...")
	tomorrow := time.Now().In(loc).AddDate(0, 0, 1).Format(lifecycle.DateLayout)
	orders := services.NewOrderService(repo.Orders)
	_, err = orders.PlaceOrder(ctx, customer.ID, []services.NewOrderItem{
		{ServiceType: string(lifecycle.Repair), SpecificData: map[string]any{
			"garmentType": "Suit jacket", "damageLevel": "moderate", "appointmentDate": tomorrow,
		}},
		{ServiceType: string(lifecycle.DryCleaning), SpecificData: map[string]any{
			"serviceName": "premium", "quantity": 3, "pickupDate": tomorrow,
		}},
		{ServiceType: string(lifecycle.Rental), SpecificData: map[string]any{
			"rentalStartDate": tomorrow,
		}},
	})
	return err
}
