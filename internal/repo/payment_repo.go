package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-rental-backend/internal/domain"
)

// CreatePayment inserts p. A reused order id yields ErrDuplicate.
func CreatePayment(ctx context.Context, db *gorm.DB, p *domain.Payment) error {
	if err := db.WithContext(ctx).Omit("Transaction").Create(p).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetPaymentByOrderID fetches a payment by its order id, or ErrNotFound.
func GetPaymentByOrderID(ctx context.Context, db *gorm.DB, orderID string) (*domain.Payment, error) {
	var p domain.Payment
	if err := db.WithContext(ctx).Where("order_id = ?", orderID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPaymentsForTransaction returns every payment of transactionID, oldest first.
func ListPaymentsForTransaction(ctx context.Context, db *gorm.DB, transactionID string) ([]domain.Payment, error) {
	var out []domain.Payment
	err := db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}

// HasPaymentInStatus reports whether transactionID has a payment in status.
func HasPaymentInStatus(ctx context.Context, db *gorm.DB, transactionID string, status domain.PaymentStatus) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("transaction_id = ? AND status = ?", transactionID, status).
		Count(&n).Error
	return n > 0, err
}

// DeletePaymentsInStatus removes the payments of transactionID in status and
// returns how many were removed.
func DeletePaymentsInStatus(ctx context.Context, db *gorm.DB, transactionID string, status domain.PaymentStatus) (int64, error) {
	res := db.WithContext(ctx).
		Where("transaction_id = ? AND status = ?", transactionID, status).
		Delete(&domain.Payment{})
	return res.RowsAffected, res.Error
}

// SavePayment writes the state of p if the stored version still equals
// p.Version, then increments p.Version. Amount and order id are never
// rewritten. It returns ErrStale when the version moved.
func SavePayment(ctx context.Context, db *gorm.DB, p *domain.Payment) error {
	res := db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("id = ? AND version = ?", p.ID, p.Version).
		Updates(map[string]any{
			"status":        p.Status,
			"payment_key":   p.PaymentKey,
			"cancel_reason": p.CancelReason,
			"confirmed_at":  p.ConfirmedAt,
			"canceled_at":   p.CanceledAt,
			"version":       p.Version + 1,
			"updated_at":    p.UpdatedAt,
		})
	if err := checkVersioned(res); err != nil {
		return err
	}
	p.Version++
	return nil
}
