// Transaction HTTP handlers.
//
// This file exposes REST endpoints for the rental lifecycle:
//   - POST /transactions               (request a rental; Idempotency-Key aware)
//   - GET  /transactions               (caller's rentals as renter or owner, ETag support)
//   - GET  /transactions/{id}          (fetch one)
//   - POST /transactions/{id}/accept   (owner accepts)
//   - POST /transactions/{id}/pay      (reconcile to PAID from a confirmed payment)
//   - POST /transactions/{id}/start    (start the rental period)
//   - POST /transactions/{id}/return   (product returned)
//   - POST /transactions/{id}/cancel   (cancel before payment)
//
// Every endpoint requires the caller identity (X-User-ID).
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-rental-backend/internal/domain"
	"github.com/tbourn/go-rental-backend/internal/services"
)

// CreateTransactionRequest is the JSON payload for requesting a rental.
type CreateTransactionRequest struct {
	ProductID string `json:"product_id" binding:"required" example:"5b0c7d7e-4f7c-4a43-9b6a-1a0f5b7c2d11"`
}

// StartRentalRequest is the JSON payload for starting a rental.
type StartRentalRequest struct {
	StartAt time.Time `json:"start_at" binding:"required" example:"2026-05-01T09:00:00Z"`
	EndAt   time.Time `json:"end_at" binding:"required" example:"2026-05-04T09:00:00Z"`
}

// ListTransactionsResponse wraps a page of transactions and pagination
// information.
type ListTransactionsResponse struct {
	Transactions []domain.Transaction `json:"transactions"`
	Pagination   Pagination           `json:"pagination"`
}

// CreateTransaction godoc
// @ID          createTransaction
// @Summary     Request a rental
// @Description Opens a REQUESTED transaction for an AVAILABLE product owned by someone else.
// @Description Supports idempotency via the Idempotency-Key header (same key → same transaction).
// @Tags        Transactions
// @Accept      json
// @Produce     json
// @Param       X-User-ID        header  string  true   "Renter user ID"
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries"
// @Param       body             body    handlers.CreateTransactionRequest  true  "Rental request"
// @Success     201  {object}  domain.Transaction
// @Header      201  {string}  Idempotency-Replayed  "true when served from a stored result"
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid payload or own product"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing caller"
// @Failure     404  {object}  handlers.ErrorResponse  "Product or renter not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Product not available"
// @Router      /transactions [post]
func (h *Handlers) CreateTransaction(c *gin.Context) {
	uid, found := requireCaller(c)
	if !found {
		return
	}
	ctx := c.Request.Context()
	db := serviceDB(h.txSvc)
	if replayable(c, db, uid, func(id string) (any, error) { return h.txSvc.Get(ctx, uid, id) }) {
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "product_id required")
		return
	}
	t, err := h.txSvc.Create(ctx, uid, req.ProductID)
	if err != nil {
		failErr(c, err)
		return
	}
	h.remember(c, db, uid, t.ID, http.StatusCreated)
	ok(c, http.StatusCreated, t)
}

// ListTransactions godoc
// @ID          listTransactions
// @Summary     List the caller's transactions (paginated)
// @Description Transactions where the caller is the renter or the owner, newest first.
// @Description Supports weak ETag via If-None-Match and may return 304.
// @Tags        Transactions
// @Produce     json
// @Param       X-User-ID      header  string  true   "Caller user ID"
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Param       page           query   int     false  "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListTransactionsResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing caller"
// @Router      /transactions [get]
func (h *Handlers) ListTransactions(c *gin.Context) {
	uid, found := requireCaller(c)
	if !found {
		return
	}
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if svc, isSvc := h.txSvc.(*services.TransactionService); isSvc {
		if count, maxTS, err := svc.Stats(ctx, uid); err == nil {
			if checkETag(c, "transactions:"+uid+":"+c.Request.URL.RawQuery, count, maxTS) {
				return
			}
		}
	}

	items, total, err := h.txSvc.ListForUser(ctx, uid, page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListTransactionsResponse{Transactions: items, Pagination: newPagination(page, pageSize, total)})
}

// GetTransaction godoc
// @ID          getTransaction
// @Summary     Get a transaction
// @Tags        Transactions
// @Produce     json
// @Param       X-User-ID  header  string  true  "Renter or owner user ID"
// @Param       id         path    string  true  "Transaction ID"  format(uuid)
// @Success     200  {object}  domain.Transaction
// @Failure     403  {object}  handlers.ErrorResponse  "Not a participant"
// @Failure     404  {object}  handlers.ErrorResponse  "Transaction not found"
// @Router      /transactions/{id} [get]
func (h *Handlers) GetTransaction(c *gin.Context) {
	h.transition(c, h.txSvc.Get)
}

// AcceptTransaction godoc
// @ID          acceptTransaction
// @Summary     Accept a rental request
// @Description REQUESTED → ACCEPTED. Only the product owner may accept.
// @Tags        Transactions
// @Produce     json
// @Param       X-User-ID  header  string  true  "Owner user ID"
// @Param       id         path    string  true  "Transaction ID"  format(uuid)
// @Success     200  {object}  domain.Transaction
// @Failure     403  {object}  handlers.ErrorResponse  "Not the owner"
// @Failure     404  {object}  handlers.ErrorResponse  "Transaction not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Invalid state or concurrent update"
// @Router      /transactions/{id}/accept [post]
func (h *Handlers) AcceptTransaction(c *gin.Context) {
	h.transition(c, h.txSvc.Accept)
}

// PayTransaction godoc
// @ID          payTransaction
// @Summary     Reconcile a transaction to PAID
// @Description ACCEPTED → PAID, only when a CONFIRMED payment exists. Payment confirmation performs this step itself.
// @Tags        Transactions
// @Produce     json
// @Param       X-User-ID  header  string  true  "Renter or owner user ID"
// @Param       id         path    string  true  "Transaction ID"  format(uuid)
// @Success     200  {object}  domain.Transaction
// @Failure     403  {object}  handlers.ErrorResponse  "Not a participant"
// @Failure     404  {object}  handlers.ErrorResponse  "Transaction not found"
// @Failure     409  {object}  handlers.ErrorResponse  "No confirmed payment or invalid state"
// @Router      /transactions/{id}/pay [post]
func (h *Handlers) PayTransaction(c *gin.Context) {
	h.transition(c, func(ctx context.Context, callerID, id string) (*domain.Transaction, error) {
		if _, err := h.txSvc.Get(ctx, callerID, id); err != nil {
			return nil, err
		}
		return h.txSvc.MarkPaid(ctx, id)
	})
}

// StartRental godoc
// @ID          startRental
// @Summary     Start the rental
// @Description PAID → RENTED with the given period; the product becomes RENTED.
// @Tags        Transactions
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string  true  "Renter or owner user ID"
// @Param       id         path    string  true  "Transaction ID"  format(uuid)
// @Param       body       body    handlers.StartRentalRequest  true  "Rental period"
// @Success     200  {object}  domain.Transaction
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid period"
// @Failure     403  {object}  handlers.ErrorResponse  "Not a participant"
// @Failure     409  {object}  handlers.ErrorResponse  "Invalid state or product unavailable"
// @Router      /transactions/{id}/start [post]
func (h *Handlers) StartRental(c *gin.Context) {
	var req StartRentalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "start_at and end_at (RFC 3339) required")
		return
	}
	h.transition(c, func(ctx context.Context, callerID, id string) (*domain.Transaction, error) {
		return h.txSvc.StartRental(ctx, callerID, id, req.StartAt, req.EndAt)
	})
}

// ReturnProduct godoc
// @ID          returnProduct
// @Summary     Return the rented product
// @Description RENTED → RETURNED; the product becomes AVAILABLE again.
// @Tags        Transactions
// @Produce     json
// @Param       X-User-ID  header  string  true  "Renter or owner user ID"
// @Param       id         path    string  true  "Transaction ID"  format(uuid)
// @Success     200  {object}  domain.Transaction
// @Failure     403  {object}  handlers.ErrorResponse  "Not a participant"
// @Failure     409  {object}  handlers.ErrorResponse  "Invalid state"
// @Router      /transactions/{id}/return [post]
func (h *Handlers) ReturnProduct(c *gin.Context) {
	h.transition(c, h.txSvc.ReturnProduct)
}

// CancelTransaction godoc
// @ID          cancelTransaction
// @Summary     Cancel before payment
// @Description REQUESTED or ACCEPTED → CANCELED. Paid transactions are canceled through POST /payments/cancel.
// @Tags        Transactions
// @Produce     json
// @Param       X-User-ID  header  string  true  "Renter or owner user ID"
// @Param       id         path    string  true  "Transaction ID"  format(uuid)
// @Success     200  {object}  domain.Transaction
// @Failure     403  {object}  handlers.ErrorResponse  "Not a participant"
// @Failure     409  {object}  handlers.ErrorResponse  "Invalid state"
// @Router      /transactions/{id}/cancel [post]
func (h *Handlers) CancelTransaction(c *gin.Context) {
	h.transition(c, h.txSvc.Cancel)
}

// transition runs a caller-scoped operation on the :id transaction and
// writes the resulting record.
func (h *Handlers) transition(c *gin.Context, op func(ctx context.Context, callerID, id string) (*domain.Transaction, error)) {
	uid, found := requireCaller(c)
	if !found {
		return
	}
	t, err := op(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, t)
}
