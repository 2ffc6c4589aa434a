package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-rental-backend/internal/domain"
	"github.com/tbourn/go-rental-backend/internal/http/middleware"
	"github.com/tbourn/go-rental-backend/internal/repo"
	"github.com/tbourn/go-rental-backend/internal/services"
	"github.com/tbourn/go-rental-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// UserService is the user directory consumed by HTTP handlers.
type UserService interface {
	Create(ctx context.Context, in services.NewUser) (*domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
}

// ProductService is the product catalog consumed by HTTP handlers.
type ProductService interface {
	Create(ctx context.Context, ownerID string, in services.ProductInput) (*domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	ListPage(ctx context.Context, f repo.ProductFilter, page, pageSize int) ([]domain.Product, int64, error)
	Update(ctx context.Context, callerID, id string, patch services.ProductPatch) (*domain.Product, error)
}

// TransactionService drives the rental lifecycle.
//
// Implementations must be safe for concurrent use and honor the provided
// context for cancellation and timeouts.
type TransactionService interface {
	Create(ctx context.Context, renterID, productID string) (*domain.Transaction, error)
	Get(ctx context.Context, callerID, id string) (*domain.Transaction, error)
	ListForUser(ctx context.Context, userID string, page, pageSize int) ([]domain.Transaction, int64, error)
	Accept(ctx context.Context, callerID, id string) (*domain.Transaction, error)
	Cancel(ctx context.Context, callerID, id string) (*domain.Transaction, error)
	MarkPaid(ctx context.Context, id string) (*domain.Transaction, error)
	StartRental(ctx context.Context, callerID, id string, startAt, endAt time.Time) (*domain.Transaction, error)
	ReturnProduct(ctx context.Context, callerID, id string) (*domain.Transaction, error)
}

// PaymentService settles transactions through the payment gateway.
type PaymentService interface {
	Prepare(ctx context.Context, callerID, transactionID string, rentalDays int) (*domain.Payment, error)
	Get(ctx context.Context, orderID string) (*domain.Payment, error)
	Confirm(ctx context.Context, orderID, paymentKey string, amount int64) (*domain.Payment, error)
	Cancel(ctx context.Context, orderID, reason string, amount int64) (*domain.Payment, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for users, products, transactions, and
// payments. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	userSvc    UserService
	productSvc ProductService
	txSvc      TransactionService
	paySvc     PaymentService

	// IdempotencyTTL is how long a stored Idempotency-Key result is replayed.
	IdempotencyTTL time.Duration
}

// New constructs and returns a Handlers instance bound to the given services.
func New(userSvc UserService, productSvc ProductService, txSvc TransactionService, paySvc PaymentService) *Handlers {
	return &Handlers{
		userSvc:        userSvc,
		productSvc:     productSvc,
		txSvc:          txSvc,
		paySvc:         paySvc,
		IdempotencyTTL: 24 * time.Hour,
	}
}

// requireCaller returns the caller id set by middleware.CallerIdentity, or
// aborts with 401 when the request is anonymous.
func requireCaller(c *gin.Context) (string, bool) {
	uid, found := middleware.CallerID(c)
	if !found {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, middleware.HeaderUserID+" header required")
		return "", false
	}
	return uid, true
}

//
// Pagination
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := utils.TotalPages(total, pageSize)
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	return utils.ParsePage(c.Query("page"), c.Query("page_size"))
}

//
// Conditional responses
//

// checkETag sets a weak ETag derived from a listing's row count and latest
// update and reports whether the client's If-None-Match already matches, in
// which case a 304 has been written.
func checkETag(c *gin.Context, prefix string, count int64, maxTS *time.Time) bool {
	var ts int64
	if maxTS != nil {
		ts = maxTS.UnixNano()
	}
	etag := fmt.Sprintf(`W/"%s:%d:%d"`, prefix, count, ts)
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}

//
// Idempotency
//

// replayable resolves a stored Idempotency-Key result for the current caller
// and route. load fetches the recorded resource; a failed load (for example
// a prepared payment that was since replaced) falls through to normal
// processing.
func replayable(c *gin.Context, db *gorm.DB, callerID string, load func(resourceID string) (any, error)) bool {
	key, found := middleware.GetIdempotencyKey(c)
	if !found || db == nil {
		return false
	}
	ctx := c.Request.Context()
	rec, err := repo.GetIdempotency(ctx, db, callerID, middleware.IdempotencyScope(c), key, time.Now().UTC())
	if err != nil || rec == nil {
		return false
	}
	body, err := load(rec.ResourceID)
	if err != nil {
		return false
	}
	c.Header(middleware.HeaderIdempotencyReplayed, "true")
	ok(c, rec.Status, body)
	return true
}

// remember stores the created resource id for the request's Idempotency-Key.
// Failures are logged and otherwise ignored: the operation already succeeded.
func (h *Handlers) remember(c *gin.Context, db *gorm.DB, callerID, resourceID string, status int) {
	key, found := middleware.GetIdempotencyKey(c)
	if !found || db == nil {
		return
	}
	ctx := c.Request.Context()
	if _, err := repo.CreateIdempotency(ctx, db, callerID, middleware.IdempotencyScope(c), key, resourceID, status, h.IdempotencyTTL); err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Str("resource_id", resourceID).Msg("idempotency record not stored")
	}
}

// serviceDB exposes the database behind the concrete services for
// idempotency bookkeeping. Other implementations (test fakes) yield nil and
// skip those features.
func serviceDB(svc any) *gorm.DB {
	switch s := svc.(type) {
	case *services.TransactionService:
		return s.DB
	case *services.PaymentService:
		return s.DB
	}
	return nil
}
