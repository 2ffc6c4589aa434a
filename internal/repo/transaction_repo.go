package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-rental-backend/internal/domain"
)

// CreateTransaction inserts t.
func CreateTransaction(ctx context.Context, db *gorm.DB, t *domain.Transaction) error {
	return db.WithContext(ctx).Omit("Product", "Renter", "Owner").Create(t).Error
}

// GetTransaction fetches a transaction by id, or ErrNotFound.
func GetTransaction(ctx context.Context, db *gorm.DB, id string) (*domain.Transaction, error) {
	var t domain.Transaction
	if err := db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// TransactionExists reports whether a transaction with id exists.
func TransactionExists(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Transaction{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func participantScope(db *gorm.DB, userID string) *gorm.DB {
	return db.Where("renter_id = ? OR owner_id = ?", userID, userID)
}

// CountTransactionsForUser returns the number of transactions where userID
// is the renter or the owner.
func CountTransactionsForUser(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := participantScope(db.WithContext(ctx).Model(&domain.Transaction{}), userID).Count(&total).Error
	return total, err
}

// ListTransactionsForUserPage returns transactions where userID is the renter
// or the owner, newest first.
func ListTransactionsForUserPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Transaction, error) {
	var out []domain.Transaction
	err := participantScope(db.WithContext(ctx), userID).
		Order("created_at desc").
		Order("id").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// SaveTransaction writes the state of t if the stored version still equals
// t.Version, then increments t.Version. It returns ErrStale otherwise.
func SaveTransaction(ctx context.Context, db *gorm.DB, t *domain.Transaction) error {
	res := db.WithContext(ctx).
		Model(&domain.Transaction{}).
		Where("id = ? AND version = ?", t.ID, t.Version).
		Updates(map[string]any{
			"status":     t.Status,
			"start_at":   t.StartAt,
			"end_at":     t.EndAt,
			"version":    t.Version + 1,
			"updated_at": t.UpdatedAt,
		})
	if err := checkVersioned(res); err != nil {
		return err
	}
	t.Version++
	return nil
}
