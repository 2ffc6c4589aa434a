// Package repo implements the persistence gateway for the rental domain,
// backed by GORM. Functions are thin: they take a *gorm.DB (which may be a
// transaction handle) and perform a single query or write. Business rules
// live in the services package.
//
// Writes that change entity state are optimistic: they match on the row's
// version and bump it, returning ErrStale when another writer got there
// first.
package repo

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-rental-backend/internal/domain"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = gorm.ErrRecordNotFound

	// ErrStale is returned when a version-checked update matched no row
	// because the record changed since it was read.
	ErrStale = errors.New("stale record version")

	// ErrDuplicate is returned when an insert violates a unique index.
	ErrDuplicate = errors.New("duplicate")
)

// DefaultBusyTimeout is how long a connection waits on a locked database
// before failing with SQLITE_BUSY.
const DefaultBusyTimeout = 30 * time.Second

// sqlitePragmas are applied to every pooled connection through the DSN.
func sqlitePragmas(busy time.Duration) []string {
	return []string{
		"journal_mode(WAL)",
		"synchronous(NORMAL)",
		"foreign_keys(1)",
		fmt.Sprintf("busy_timeout(%d)", busy.Milliseconds()),
	}
}

// sqliteDSN appends per-connection pragmas and IMMEDIATE transaction locking
// to path. Write transactions take the database lock up front, so two
// read-then-write scopes cannot deadlock on lock upgrade.
func sqliteDSN(path string, busy time.Duration) string {
	q := url.Values{}
	for _, p := range sqlitePragmas(busy) {
		q.Add("_pragma", p)
	}
	q.Set("_txlock", "immediate")
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + q.Encode()
}

// OpenSQLite opens (or creates) a SQLite database, applies PRAGMAs, tunes the
// pool, and registers the OpenTelemetry tracing plugin. A non-positive
// busyTimeout selects DefaultBusyTimeout.
func OpenSQLite(path string, busyTimeout time.Duration) (*gorm.DB, error) {
	if busyTimeout <= 0 {
		busyTimeout = DefaultBusyTimeout
	}
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(sqliteDSN(path, busyTimeout)), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.Use(tracing.NewPlugin()); err != nil {
		return nil, fmt.Errorf("gorm tracing plugin: %w", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// AutoMigrate creates or updates the schema for every persisted model.
// Parents are listed before children so foreign keys resolve.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Product{},
		&domain.Transaction{},
		&domain.Payment{},
		&domain.Idempotency{},
	)
}

// isUniqueViolation reports whether err is a unique constraint failure.
// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}

// IsBusy reports whether err is SQLite refusing a statement because another
// connection holds the lock (SQLITE_BUSY or SQLITE_LOCKED). The statement
// can be retried.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "sqlite_busy") ||
		strings.Contains(low, "sqlite_locked") ||
		strings.Contains(low, "database is locked") ||
		strings.Contains(low, "database table is locked")
}

// checkVersioned converts the result of a version-checked update into
// ErrStale when no row matched.
func checkVersioned(res *gorm.DB) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStale
	}
	return nil
}
