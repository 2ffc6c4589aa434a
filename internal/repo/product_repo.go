package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-rental-backend/internal/domain"
)

// ProductFilter narrows product listings. Zero fields are ignored.
type ProductFilter struct {
	OwnerID  string
	Category string
	Status   domain.ProductStatus
}

func (f ProductFilter) apply(q *gorm.DB) *gorm.DB {
	if f.OwnerID != "" {
		q = q.Where("owner_id = ?", f.OwnerID)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	return q
}

// CreateProduct inserts p.
func CreateProduct(ctx context.Context, db *gorm.DB, p *domain.Product) error {
	return db.WithContext(ctx).Omit("Owner").Create(p).Error
}

// GetProduct fetches a product by id, or ErrNotFound.
func GetProduct(ctx context.Context, db *gorm.DB, id string) (*domain.Product, error) {
	var p domain.Product
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ProductExists reports whether a product with id exists.
func ProductExists(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Product{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// CountProducts returns the number of products matching f.
func CountProducts(ctx context.Context, db *gorm.DB, f ProductFilter) (int64, error) {
	var total int64
	err := f.apply(db.WithContext(ctx).Model(&domain.Product{})).Count(&total).Error
	return total, err
}

// ListProductsPage returns products matching f, newest first.
func ListProductsPage(ctx context.Context, db *gorm.DB, f ProductFilter, offset, limit int) ([]domain.Product, error) {
	var out []domain.Product
	err := f.apply(db.WithContext(ctx)).
		Order("created_at desc").
		Order("id").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// SaveProduct writes the mutable fields of p if the stored version still
// equals p.Version, then increments p.Version. It returns ErrStale otherwise.
func SaveProduct(ctx context.Context, db *gorm.DB, p *domain.Product) error {
	now := time.Now().UTC()
	res := db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ? AND version = ?", p.ID, p.Version).
		Updates(map[string]any{
			"title":         p.Title,
			"description":   p.Description,
			"category":      p.Category,
			"price_per_day": p.PricePerDay,
			"deposit":       p.Deposit,
			"location":      p.Location,
			"thumbnail_url": p.ThumbnailURL,
			"status":        p.Status,
			"version":       p.Version + 1,
			"updated_at":    now,
		})
	if err := checkVersioned(res); err != nil {
		return err
	}
	p.Version++
	p.UpdatedAt = now
	return nil
}

// SetProductStatus moves product id to status `to` only while its current
// status is `from`. It reports whether a row changed; false means the product
// is missing or not in `from`.
func SetProductStatus(ctx context.Context, db *gorm.DB, id string, from, to domain.ProductStatus) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":     to,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected > 0, res.Error
}

// ForceProductStatus sets the status of product id regardless of its current
// value. It returns ErrNotFound if the product does not exist.
func ForceProductStatus(ctx context.Context, db *gorm.DB, id string, to domain.ProductStatus) error {
	res := db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     to,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
