package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-rental-backend/internal/domain"
	"github.com/tbourn/go-rental-backend/internal/repo"
	"github.com/tbourn/go-rental-backend/internal/utils"
)

// ProductInput is the full set of listing fields for ProductService.Create.
type ProductInput struct {
	Title        string
	Description  string
	Category     string
	PricePerDay  int64
	Deposit      int64
	Location     string
	ThumbnailURL string
}

// ProductPatch carries optional listing changes for ProductService.Update.
// Status may only be AVAILABLE or HIDDEN.
type ProductPatch struct {
	Title        *string
	Description  *string
	Category     *string
	PricePerDay  *int64
	Deposit      *int64
	Location     *string
	ThumbnailURL *string
	Status       *domain.ProductStatus
}

// ProductService is the product catalog. Availability changes driven by the
// rental lifecycle go through ProductAvailability instead.
type ProductService struct {
	DB *gorm.DB

	// TitleMaxLen caps stored titles by rune length.
	TitleMaxLen int
}

// NewProductService constructs a ProductService with default limits.
func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{DB: db, TitleMaxLen: 120}
}

// Create lists a new AVAILABLE product owned by ownerID.
func (s *ProductService) Create(ctx context.Context, ownerID string, in ProductInput) (*domain.Product, error) {
	ctx, span := otel.Tracer("services/ProductService").Start(ctx, "Create",
		trace.WithAttributes(attribute.String("user.id", ownerID)))
	defer span.End()

	now := time.Now().UTC()
	p := &domain.Product{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		Title:        normalizeText(in.Title),
		Description:  strings.TrimSpace(in.Description),
		Category:     normalizeCategory(in.Category),
		PricePerDay:  in.PricePerDay,
		Deposit:      in.Deposit,
		Location:     normalizeText(in.Location),
		ThumbnailURL: strings.TrimSpace(in.ThumbnailURL),
		Status:       domain.ProductAvailable,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.validate(p); err != nil {
		return nil, err
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := repo.UserExists(ctx, tx, ownerID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrUserNotFound
		}
		return repo.CreateProduct(ctx, tx, p)
	})
	if err != nil {
		return nil, classify(err)
	}
	return p, nil
}

// Get returns the product with id.
func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	p, err := repo.GetProduct(ctx, s.DB, id)
	if err != nil {
		return nil, notFound(err, ErrProductNotFound)
	}
	return p, nil
}

// ListPage returns a page of products matching f, newest first, and the
// total number of matches.
func (s *ProductService) ListPage(ctx context.Context, f repo.ProductFilter, page, pageSize int) ([]domain.Product, int64, error) {
	ctx, span := otel.Tracer("services/ProductService").Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = utils.DefaultPageSize
	}
	if f.Category != "" {
		f.Category = normalizeCategory(f.Category)
	}
	total, err := repo.CountProducts(ctx, s.DB, f)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Product{}, 0, nil
	}
	items, err := repo.ListProductsPage(ctx, s.DB, f, utils.Offset(page, pageSize), pageSize)
	return items, total, err
}

// Stats returns the number of products matching f and their latest update
// time, for conditional listing responses.
func (s *ProductService) Stats(ctx context.Context, f repo.ProductFilter) (int64, *time.Time, error) {
	if f.Category != "" {
		f.Category = normalizeCategory(f.Category)
	}
	return repo.ProductsStats(ctx, s.DB, f)
}

// Update applies patch to product id on behalf of callerID, who must own it.
// Owners may hide or re-list a product but never while it is rented, and
// RENTED is never set here.
func (s *ProductService) Update(ctx context.Context, callerID, id string, patch ProductPatch) (*domain.Product, error) {
	ctx, span := otel.Tracer("services/ProductService").Start(ctx, "Update",
		trace.WithAttributes(attribute.String("product.id", id)))
	defer span.End()

	var out *domain.Product
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := repo.GetProduct(ctx, tx, id)
		if err != nil {
			return notFound(err, ErrProductNotFound)
		}
		if p.OwnerID != callerID {
			return ErrNotProductOwner
		}
		if err := s.applyPatch(p, patch); err != nil {
			return err
		}
		if err := s.validate(p); err != nil {
			return err
		}
		if err := repo.SaveProduct(ctx, tx, p); err != nil {
			return classify(err)
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return out, nil
}

func (s *ProductService) applyPatch(p *domain.Product, patch ProductPatch) error {
	if patch.Title != nil {
		p.Title = normalizeText(*patch.Title)
	}
	if patch.Description != nil {
		p.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Category != nil {
		p.Category = normalizeCategory(*patch.Category)
	}
	if patch.PricePerDay != nil {
		p.PricePerDay = *patch.PricePerDay
	}
	if patch.Deposit != nil {
		p.Deposit = *patch.Deposit
	}
	if patch.Location != nil {
		p.Location = normalizeText(*patch.Location)
	}
	if patch.ThumbnailURL != nil {
		p.ThumbnailURL = strings.TrimSpace(*patch.ThumbnailURL)
	}
	if patch.Status != nil && *patch.Status != p.Status {
		to := *patch.Status
		if to != domain.ProductAvailable && to != domain.ProductHidden {
			return ErrInvalidStatus
		}
		if p.Status == domain.ProductRented {
			return ErrProductRented
		}
		p.Status = to
	}
	return nil
}

func (s *ProductService) validate(p *domain.Product) error {
	switch {
	case p.Title == "":
		return validationError("title is required")
	case s.TitleMaxLen > 0 && utf8.RuneCountInString(p.Title) > s.TitleMaxLen:
		return validationError("title must be at most %d characters", s.TitleMaxLen)
	case p.Description == "":
		return validationError("description is required")
	case p.Category == "":
		return validationError("category is required")
	case p.Location == "":
		return validationError("location is required")
	case p.PricePerDay < 0 || p.Deposit < 0:
		return classify(domain.ErrInvalidPrice)
	}
	return nil
}

// ProductAvailability flips product status as a side effect of the rental
// lifecycle. It always runs on the caller's transaction handle.
type ProductAvailability struct{}

// MarkRented moves product id from AVAILABLE to RENTED. A product that is
// not AVAILABLE (already rented, or hidden) yields ErrProductUnavailable.
func (ProductAvailability) MarkRented(ctx context.Context, tx *gorm.DB, id string) error {
	ok, err := repo.SetProductStatus(ctx, tx, id, domain.ProductAvailable, domain.ProductRented)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	exists, err := repo.ProductExists(ctx, tx, id)
	if err != nil {
		return err
	}
	if !exists {
		return ErrProductNotFound
	}
	return ErrProductUnavailable
}

// MarkAvailable sets product id to AVAILABLE; it only requires the product
// to exist.
func (ProductAvailability) MarkAvailable(ctx context.Context, tx *gorm.DB, id string) error {
	if err := repo.ForceProductStatus(ctx, tx, id, domain.ProductAvailable); err != nil {
		return notFound(err, ErrProductNotFound)
	}
	return nil
}

// Apply executes the effects produced by a transition.
func (a ProductAvailability) Apply(ctx context.Context, tx *gorm.DB, effects []domain.Effect) error {
	for _, e := range effects {
		var err error
		switch e.Kind {
		case domain.EffectMarkProductRented:
			err = a.MarkRented(ctx, tx, e.ProductID)
		case domain.EffectMarkProductAvailable:
			err = a.MarkAvailable(ctx, tx, e.ProductID)
		default:
			err = errors.New("unknown effect " + e.Kind.String())
		}
		if err != nil {
			return err
		}
	}
	return nil
}
