package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-rental-backend/internal/domain"
)

// listingStats counts the rows of model selected by scope and returns the
// newest updated_at among them (nil when none). The newest row is found by
// ordering rather than MAX(), which SQLite returns as TEXT.
func listingStats(ctx context.Context, db *gorm.DB, model any, scope func(*gorm.DB) *gorm.DB) (int64, *time.Time, error) {
	var count int64
	if err := scope(db.WithContext(ctx).Model(model)).Count(&count).Error; err != nil || count == 0 {
		return 0, nil, err
	}
	var newest struct{ UpdatedAt time.Time }
	err := scope(db.WithContext(ctx).Model(model)).
		Select("updated_at").
		Order("updated_at DESC").
		Limit(1).
		Scan(&newest).Error
	if err != nil {
		return 0, nil, err
	}
	return count, &newest.UpdatedAt, nil
}

// TransactionsStats summarizes the transactions userID takes part in, as
// renter or owner, for listing ETags.
func TransactionsStats(ctx context.Context, db *gorm.DB, userID string) (int64, *time.Time, error) {
	return listingStats(ctx, db, &domain.Transaction{}, func(q *gorm.DB) *gorm.DB {
		return participantScope(q, userID)
	})
}

// ProductsStats summarizes the catalog rows matching f.
func ProductsStats(ctx context.Context, db *gorm.DB, f ProductFilter) (int64, *time.Time, error) {
	return listingStats(ctx, db, &domain.Product{}, f.apply)
}
