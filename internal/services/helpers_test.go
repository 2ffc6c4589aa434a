package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-rental-backend/internal/domain"
	"github.com/tbourn/go-rental-backend/internal/gateway"
	"github.com/tbourn/go-rental-backend/internal/repo"
)

type userRepoFuncs struct{}

func (userRepoFuncs) CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	return repo.CreateUser(ctx, db, u)
}

func (userRepoFuncs) GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	return repo.GetUser(ctx, db, id)
}

func (userRepoFuncs) UserExists(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	return repo.UserExists(ctx, db, id)
}

// newServiceDB opens a migrated in-memory database on a single connection.
func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Exec("PRAGMA foreign_keys=ON;").Error)
	require.NoError(t, repo.AutoMigrate(db))
	return db
}

// fixture bundles services over one database plus a seeded owner, renter,
// and product (price=1000/day, deposit=500).
type fixture struct {
	db       *gorm.DB
	gw       *gateway.Fake
	users    *UserService
	products *ProductService
	txs      *TransactionService
	payments *PaymentService

	owner   *domain.User
	renter  *domain.User
	product *domain.Product
}

// newFileDB opens a migrated on-disk database the way the server does, with
// a connection pool and IMMEDIATE write transactions.
func newFileDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "rental.db"), 0)
	require.NoError(t, err)
	db.Logger = logger.Default.LogMode(logger.Silent)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repo.AutoMigrate(db))
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureOn(t, newServiceDB(t))
}

func newFixtureOn(t *testing.T, db *gorm.DB) *fixture {
	t.Helper()
	f := &fixture{
		db:       db,
		gw:       gateway.NewFake(),
		users:    NewUserService(db, userRepoFuncs{}),
		products: NewProductService(db),
		txs:      NewTransactionService(db),
	}
	f.payments = NewPaymentService(db, f.gw)

	ctx := context.Background()
	var err error
	f.owner, err = f.users.Create(ctx, NewUser{Username: "owner"})
	require.NoError(t, err)
	f.renter, err = f.users.Create(ctx, NewUser{Username: "renter"})
	require.NoError(t, err)
	f.product, err = f.products.Create(ctx, f.owner.ID, ProductInput{
		Title: "Camping tent", Description: "Fits two", Category: "Camping",
		PricePerDay: 1000, Deposit: 500, Location: "Busan",
	})
	require.NoError(t, err)
	return f
}

// accepted creates a transaction for the fixture product and accepts it.
func (f *fixture) accepted(t *testing.T) *domain.Transaction {
	t.Helper()
	ctx := context.Background()
	tx, err := f.txs.Create(ctx, f.renter.ID, f.product.ID)
	require.NoError(t, err)
	tx, err = f.txs.Accept(ctx, f.owner.ID, tx.ID)
	require.NoError(t, err)
	return tx
}

// paid drives a transaction to PAID through prepare+confirm.
func (f *fixture) paid(t *testing.T, days int) (*domain.Transaction, *domain.Payment) {
	t.Helper()
	ctx := context.Background()
	tx := f.accepted(t)
	p, err := f.payments.Prepare(ctx, f.renter.ID, tx.ID, days)
	require.NoError(t, err)
	p, err = f.payments.Confirm(ctx, p.OrderID, "pk_"+p.OrderID, p.Amount)
	require.NoError(t, err)
	tx, err = f.txs.Get(ctx, f.renter.ID, tx.ID)
	require.NoError(t, err)
	return tx, p
}

func (f *fixture) productStatus(t *testing.T) domain.ProductStatus {
	t.Helper()
	p, err := f.products.Get(context.Background(), f.product.ID)
	require.NoError(t, err)
	return p.Status
}
