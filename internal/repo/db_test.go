package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-rental-backend/internal/domain"
)

func TestOpenSQLite_ErrorOnBadPath(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "does-not-exist", "app.db")

	db, err := OpenSQLite(bad, 0)
	if err == nil || db != nil {
		t.Fatalf("expected error opening %q, got db=%v err=%v", bad, db, err)
	}
	lower := strings.ToLower(err.Error())
	if !(os.IsNotExist(err) ||
		strings.Contains(lower, "unable to open database file") ||
		strings.Contains(lower, "no such file or directory") ||
		strings.Contains(lower, "out of memory")) {
		t.Fatalf("unexpected error opening %q: %v", bad, err)
	}
}

func TestOpenSQLite_PragmasOnEveryConnection_AndAutoMigrate(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "rental.db"), 0)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	if stats := sqlDB.Stats(); stats.MaxOpenConnections != 10 {
		t.Fatalf("expected MaxOpenConnections=10, got %d", stats.MaxOpenConnections)
	}

	// Two connections held at once must both carry the pragmas.
	ctx := context.Background()
	c1, err := sqlDB.Conn(ctx)
	if err != nil {
		t.Fatalf("conn: %v", err)
	}
	defer c1.Close()
	c2, err := sqlDB.Conn(ctx)
	if err != nil {
		t.Fatalf("conn: %v", err)
	}
	defer c2.Close()
	for i, c := range []*sql.Conn{c1, c2} {
		var fkOn, busyMS int
		if err := c.QueryRowContext(ctx, "PRAGMA foreign_keys;").Scan(&fkOn); err != nil || fkOn != 1 {
			t.Fatalf("conn %d: foreign_keys=%d err=%v", i, fkOn, err)
		}
		if err := c.QueryRowContext(ctx, "PRAGMA busy_timeout;").Scan(&busyMS); err != nil || busyMS != 30000 {
			t.Fatalf("conn %d: busy_timeout=%d err=%v", i, busyMS, err)
		}
	}
	_ = c1.Close()
	_ = c2.Close()

	var journal string
	if err := db.Raw("PRAGMA journal_mode;").Row().Scan(&journal); err != nil || strings.ToLower(journal) != "wal" {
		t.Fatalf("journal_mode=%q err=%v", journal, err)
	}

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	for _, m := range allModels() {
		if !db.Migrator().HasTable(m) {
			t.Fatalf("expected table for %T", m)
		}
	}
}

func TestSQLiteDSN(t *testing.T) {
	got := sqliteDSN("rental.db", 30*time.Second)
	if !strings.HasPrefix(got, "rental.db?") || !strings.Contains(got, "_txlock=immediate") ||
		!strings.Contains(got, "foreign_keys%281%29") || !strings.Contains(got, "busy_timeout%2830000%29") {
		t.Fatalf("unexpected dsn: %s", got)
	}
	if got := sqliteDSN("file:x?mode=memory", DefaultBusyTimeout); !strings.HasPrefix(got, "file:x?mode=memory&") {
		t.Fatalf("existing query must be extended, got %s", got)
	}
}

func TestIsBusy(t *testing.T) {
	if IsBusy(nil) || IsBusy(errors.New("UNIQUE constraint failed: users.username")) {
		t.Fatalf("false positives")
	}
	for _, msg := range []string{
		"database is locked (5) (SQLITE_BUSY)",
		"database table is locked (6) (SQLITE_LOCKED)",
	} {
		if !IsBusy(fmt.Errorf("save payment: %w", errors.New(msg))) {
			t.Fatalf("IsBusy(%q) = false", msg)
		}
	}
}

// A second writer waits for the lock up to the busy timeout and then fails
// with a busy error.
func TestOpenSQLite_WriterGivesUpAfterBusyTimeout(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "busy.db"), 100*time.Millisecond)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- db.Transaction(func(tx *gorm.DB) error {
			if err := CreateUser(context.Background(), tx, &domain.User{ID: "u-holder", Username: "holder"}); err != nil {
				return err
			}
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	start := time.Now()
	err = CreateUser(context.Background(), db, &domain.User{ID: "u-waiter", Username: "waiter"})
	close(release)
	if !IsBusy(err) {
		t.Fatalf("second writer: want busy error, got %v", err)
	}
	if waited := time.Since(start); waited < 80*time.Millisecond {
		t.Fatalf("gave up after %v; busy timeout not applied", waited)
	}
	if err := <-done; err != nil {
		t.Fatalf("holder: %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if isUniqueViolation(nil) || isUniqueViolation(errors.New("boom")) {
		t.Fatalf("false positives")
	}
	if !isUniqueViolation(gorm.ErrDuplicatedKey) || !isUniqueViolation(errors.New("UNIQUE constraint failed: users.username")) {
		t.Fatalf("false negatives")
	}
}

func TestUsers_CreateGetExists(t *testing.T) {
	db := newTestDB(t, &domain.User{})
	ctx := context.Background()

	u := &domain.User{ID: "u1", Username: "alice"}
	if err := CreateUser(ctx, db, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := CreateUser(ctx, db, &domain.User{ID: "u2", Username: "alice"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	got, err := GetUser(ctx, db, "u1")
	if err != nil || got.Username != "alice" {
		t.Fatalf("GetUser: %+v %v", got, err)
	}
	if _, err := GetUser(ctx, db, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if ok, err := UserExists(ctx, db, "u1"); err != nil || !ok {
		t.Fatalf("UserExists(u1) = %v, %v", ok, err)
	}
	if ok, err := UserExists(ctx, db, "nope"); err != nil || ok {
		t.Fatalf("UserExists(nope) = %v, %v", ok, err)
	}
}
