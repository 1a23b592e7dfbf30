package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tailor_tracker/internal/database"
	"tailor_tracker/internal/lifecycle"
	"tailor_tracker/internal/migrations"
	"tailor_tracker/internal/models"
	"tailor_tracker/internal/repository"
)

func newPostgresRepository(t *testing.T) (*repository.Repository, *gorm.DB) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("tailor_tracker"),
		tcpostgres.WithUsername("tailor"),
		tcpostgres.WithPassword("tailor"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	db, err := database.Initialize(dsn, "silent")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })

	if err := migrations.RunMigrations(db, zap.NewNop()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repository.New(db), db
}

func placeOrder(t *testing.T, repo *repository.Repository, userID uuid.UUID, items ...models.OrderItem) *models.Order {
	t.Helper()
	order := &models.Order{UserID: userID, Items: items}
	if err := repo.Orders.Create(context.Background(), order); err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

func TestPostgresRepositories(t *testing.T) {
	repo, db := newPostgresRepository(t)
	ctx := context.Background()

	user := &models.User{Name: "Sari", Email: "sari@example.com", WhatsAppNumber: "628555", IsActive: true}
	if err := repo.Users.Create(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := repo.Users.Create(ctx, &models.User{Name: "Copy", Email: "sari@example.com"}); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("duplicate email: err = %v", err)
	}
	if got, err := repo.Users.GetByWhatsAppNumber(ctx, "628555"); err != nil || got == nil || got.ID != user.ID {
		t.Fatalf("GetByWhatsAppNumber = %v, %v", got, err)
	}

	order := placeOrder(t, repo, user.ID,
		models.OrderItem{ServiceType: lifecycle.Repair, SpecificData: map[string]any{"appointmentDate": "2026-05-02", "damageLevel": "minor"}},
		models.OrderItem{ServiceType: lifecycle.Rental, SpecificData: map[string]any{"rentalStartDate": "2026-05-02"}},
		models.OrderItem{ServiceType: lifecycle.DryCleaning, SpecificData: map[string]any{"pickupDate": "2026-05-03"}},
	)

	t.Run("items round trip", func(t *testing.T) {
		loaded, err := repo.Orders.GetByID(ctx, order.ID)
		if err != nil || loaded == nil {
			t.Fatalf("GetByID = %v, %v", loaded, err)
		}
		if len(loaded.Items) != 3 {
			t.Fatalf("items = %d; want 3", len(loaded.Items))
		}
		item, err := repo.OrderItems.GetByID(ctx, order.Items[0].ID)
		if err != nil {
			t.Fatalf("GetByID item: %v", err)
		}
		if item.Status() != lifecycle.StatusPending || item.ScheduledDate == nil ||
			item.ScheduledDate.Format(lifecycle.DateLayout) != "2026-05-02" {
			t.Fatalf("item = %+v", item)
		}
		if item.SpecificData["damageLevel"] != "minor" {
			t.Fatalf("specific data = %v", item.SpecificData)
		}
	})

	t.Run("scheduled lookup", func(t *testing.T) {
		day := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
		found, err := repo.OrderItems.FindScheduledOn(ctx, day, []lifecycle.Status{lifecycle.StatusCancelled})
		if err != nil {
			t.Fatalf("FindScheduledOn: %v", err)
		}
		if len(found) != 2 {
			t.Fatalf("found = %d; want 2", len(found))
		}

		cancelled := order.Items[1]
		cancelled.ApprovalStatus = lifecycle.StatusCancelled
		if err := repo.OrderItems.UpdateLifecycle(ctx, &cancelled); err != nil {
			t.Fatalf("UpdateLifecycle: %v", err)
		}
		found, err = repo.OrderItems.FindScheduledOn(ctx, day, []lifecycle.Status{lifecycle.StatusCancelled})
		if err != nil {
			t.Fatalf("FindScheduledOn: %v", err)
		}
		if len(found) != 1 || found[0].ID != order.Items[0].ID {
			t.Fatalf("found after cancel = %+v", found)
		}
	})

	t.Run("reminder uniqueness", func(t *testing.T) {
		day := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
		newReminder := func() *models.Notification {
			d := day
			return &models.Notification{
				OrderItemID: order.Items[0].ID,
				UserID:      user.ID,
				Type:        models.NotificationAppointmentReminder,
				Message:     "Reminder",
				DedupeDate:  &d,
			}
		}
		created, err := repo.Notifications.CreateIfAbsent(ctx, newReminder())
		if err != nil || !created {
			t.Fatalf("first CreateIfAbsent = %v, %v", created, err)
		}
		created, err = repo.Notifications.CreateIfAbsent(ctx, newReminder())
		if err != nil || created {
			t.Fatalf("second CreateIfAbsent = %v, %v", created, err)
		}
		if err := repo.Notifications.Create(ctx, newReminder()); !errors.Is(err, repository.ErrDuplicate) {
			t.Fatalf("Create duplicate: err = %v", err)
		}
		exists, err := repo.Notifications.ExistsForDay(ctx, order.Items[0].ID, models.NotificationAppointmentReminder, day)
		if err != nil || !exists {
			t.Fatalf("ExistsForDay = %v, %v", exists, err)
		}
	})

	t.Run("transaction rollback", func(t *testing.T) {
		id := order.Items[2].ID
		err := repo.WithTx(ctx, func(tx *repository.Repository) error {
			item, err := tx.OrderItems.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			item.ApprovalStatus = lifecycle.StatusAccepted
			item.FinalPrice = decimal.NewNullDecimal(decimal.NewFromInt(250))
			if err := tx.OrderItems.UpdateLifecycle(ctx, item); err != nil {
				return err
			}
			return errors.New("abort")
		})
		if err == nil {
			t.Fatal("expected abort error")
		}
		item, err := repo.OrderItems.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if item.Status() != lifecycle.StatusPending || item.FinalPrice.Valid {
			t.Fatalf("item after rollback = %s %v", item.Status(), item.FinalPrice)
		}
	})

	t.Run("price revisions", func(t *testing.T) {
		rev := &models.PriceRevision{
			OrderItemID:  order.Items[0].ID,
			NewPrice:     decimal.RequireFromString("1200.50"),
			StatusBefore: lifecycle.StatusPending,
			StatusAfter:  lifecycle.StatusPriceConfirmation,
		}
		if err := repo.PriceRevisions.Create(ctx, rev); err != nil {
			t.Fatalf("create revision: %v", err)
		}
		revs, err := repo.PriceRevisions.GetByOrderItemID(ctx, order.Items[0].ID)
		if err != nil || len(revs) != 1 || !revs[0].NewPrice.Equal(rev.NewPrice) {
			t.Fatalf("revisions = %+v, %v", revs, err)
		}
	})

	t.Run("legacy status spellings", func(t *testing.T) {
		id := order.Items[0].ID
		if err := db.Exec("UPDATE order_items SET approval_status = ? WHERE id = ?", "canceled", id).Error; err != nil {
			t.Fatalf("write legacy status: %v", err)
		}
		day := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
		found, err := repo.OrderItems.FindScheduledOn(ctx, day, []lifecycle.Status{lifecycle.StatusCancelled})
		if err != nil {
			t.Fatalf("FindScheduledOn: %v", err)
		}
		if len(found) != 0 {
			t.Fatalf("found = %+v; want legacy cancelled item excluded", found)
		}
		cancelled, err := repo.OrderItems.GetByStatus(ctx, lifecycle.StatusCancelled)
		if err != nil {
			t.Fatalf("GetByStatus: %v", err)
		}
		if len(cancelled) != 2 {
			t.Fatalf("cancelled = %d; want 2", len(cancelled))
		}
	})
}
