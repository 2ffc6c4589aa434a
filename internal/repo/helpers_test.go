package repo

import (
	"fmt"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-rental-backend/internal/domain"
)

// newTestDB opens a unique in-memory database per test. With no models it
// stays empty, which lets tests exercise missing-table error paths.
func newTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	db.Exec("PRAGMA foreign_keys=ON;")
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func allModels() []any {
	return []any{&domain.User{}, &domain.Product{}, &domain.Transaction{}, &domain.Payment{}, &domain.Idempotency{}}
}

// seed creates an owner, a renter and one AVAILABLE product.
func seed(t *testing.T, db *gorm.DB) (owner, renter domain.User, product domain.Product) {
	t.Helper()
	now := time.Now().UTC()
	owner = domain.User{ID: "owner", Username: "owner", CreatedAt: now, UpdatedAt: now}
	renter = domain.User{ID: "renter", Username: "renter", CreatedAt: now, UpdatedAt: now}
	for _, u := range []*domain.User{&owner, &renter} {
		if err := db.Create(u).Error; err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}
	product = domain.Product{
		ID: "p1", OwnerID: owner.ID, Title: "Tent", Description: "2p tent", Category: "camping",
		PricePerDay: 1000, Deposit: 500, Location: "Busan", Status: domain.ProductAvailable, Version: 1,
		CreatedAt: now, UpdatedAt: now,
	}
	if err := db.Omit("Owner").Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return owner, renter, product
}
