// Payment HTTP handlers.
//
// Endpoints:
//   - POST /payments/prepare    (renter prepares a READY payment; Idempotency-Key aware)
//   - POST /payments/confirm    (gateway confirm; ACCEPTED → PAID)
//   - POST /payments/cancel     (gateway refund; PAID → CANCELED)
//   - GET  /payments/{orderId}  (fetch one)
//
// Confirm and cancel are safe to retry: repeating a completed request returns
// the stored payment without calling the gateway again.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-rental-backend/internal/domain"
)

// PreparePaymentRequest is the JSON payload for preparing a payment.
type PreparePaymentRequest struct {
	TransactionID string `json:"transaction_id" binding:"required" example:"0f8fad5b-d9cb-469f-a165-70867728950e"`
	RentalDays    int    `json:"rental_days" binding:"required,min=1" example:"3"`
}

// ConfirmPaymentRequest carries the values the payment widget returned.
type ConfirmPaymentRequest struct {
	OrderID    string `json:"order_id" binding:"required" example:"order-7f1c2a9e"`
	PaymentKey string `json:"payment_key" binding:"required" example:"tgen_20260501abcd"`
	Amount     int64  `json:"amount" binding:"min=0" example:"35000"`
}

// CancelPaymentRequest is the JSON payload for refunding a payment.
type CancelPaymentRequest struct {
	OrderID      string `json:"order_id" binding:"required" example:"order-7f1c2a9e"`
	CancelReason string `json:"cancel_reason" example:"renter changed plans"`
	Amount       int64  `json:"amount" binding:"min=0" example:"35000"`
}

// PreparePayment godoc
// @ID          preparePayment
// @Summary     Prepare a payment
// @Description Creates a READY payment for the transaction with amount = rental_days × price_per_day + deposit.
// @Description An existing READY payment with the same amount is reused.
// @Tags        Payments
// @Accept      json
// @Produce     json
// @Param       X-User-ID        header  string  true   "Renter user ID"
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries"
// @Param       body             body    handlers.PreparePaymentRequest  true  "Payment request"
// @Success     201  {object}  domain.Payment
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid payload"
// @Failure     403  {object}  handlers.ErrorResponse  "Caller is not the renter"
// @Failure     404  {object}  handlers.ErrorResponse  "Transaction not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Transaction not payable"
// @Router      /payments/prepare [post]
func (h *Handlers) PreparePayment(c *gin.Context) {
	uid, found := requireCaller(c)
	if !found {
		return
	}
	ctx := c.Request.Context()
	db := serviceDB(h.paySvc)
	if replayable(c, db, uid, func(orderID string) (any, error) { return h.paySvc.Get(ctx, orderID) }) {
		return
	}

	var req PreparePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "transaction_id and rental_days >= 1 required")
		return
	}
	p, err := h.paySvc.Prepare(ctx, uid, req.TransactionID, req.RentalDays)
	if err != nil {
		failErr(c, err)
		return
	}
	h.remember(c, db, uid, p.OrderID, http.StatusCreated)
	ok(c, http.StatusCreated, p)
}

// ConfirmPayment godoc
// @ID          confirmPayment
// @Summary     Confirm a payment
// @Description Confirms the READY payment with the gateway and marks the transaction PAID.
// @Description Replaying a confirmed order returns the stored payment.
// @Tags        Payments
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string  true  "Renter or owner user ID"
// @Param       body       body    handlers.ConfirmPaymentRequest  true  "Confirmation"
// @Success     200  {object}  domain.Payment
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid payload or amount mismatch"
// @Failure     403  {object}  handlers.ErrorResponse  "Not a participant"
// @Failure     404  {object}  handlers.ErrorResponse  "Payment not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Invalid state"
// @Failure     502  {object}  handlers.ErrorResponse  "Gateway failure"
// @Router      /payments/confirm [post]
func (h *Handlers) ConfirmPayment(c *gin.Context) {
	var req ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "order_id, payment_key and amount required")
		return
	}
	h.settle(c, req.OrderID, func(ctx context.Context) (*domain.Payment, error) {
		return h.paySvc.Confirm(ctx, req.OrderID, req.PaymentKey, req.Amount)
	})
}

// CancelPayment godoc
// @ID          cancelPayment
// @Summary     Cancel (refund) a payment
// @Description Refunds the CONFIRMED payment through the gateway and cancels the PAID transaction.
// @Description An empty cancel_reason uses the configured default. Replaying a canceled order returns the stored payment.
// @Tags        Payments
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string  true  "Renter or owner user ID"
// @Param       body       body    handlers.CancelPaymentRequest  true  "Refund"
// @Success     200  {object}  domain.Payment
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid payload or amount mismatch"
// @Failure     403  {object}  handlers.ErrorResponse  "Not a participant"
// @Failure     404  {object}  handlers.ErrorResponse  "Payment not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Invalid state"
// @Failure     502  {object}  handlers.ErrorResponse  "Gateway failure"
// @Router      /payments/cancel [post]
func (h *Handlers) CancelPayment(c *gin.Context) {
	var req CancelPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "order_id and amount required")
		return
	}
	h.settle(c, req.OrderID, func(ctx context.Context) (*domain.Payment, error) {
		return h.paySvc.Cancel(ctx, req.OrderID, req.CancelReason, req.Amount)
	})
}

// GetPayment godoc
// @ID          getPayment
// @Summary     Get a payment by order id
// @Tags        Payments
// @Produce     json
// @Param       X-User-ID  header  string  true  "Renter or owner user ID"
// @Param       orderId    path    string  true  "Order ID"
// @Success     200  {object}  domain.Payment
// @Failure     403  {object}  handlers.ErrorResponse  "Not a participant"
// @Failure     404  {object}  handlers.ErrorResponse  "Payment not found"
// @Router      /payments/{orderId} [get]
func (h *Handlers) GetPayment(c *gin.Context) {
	uid, found := requireCaller(c)
	if !found {
		return
	}
	p, err := h.participantPayment(c.Request.Context(), uid, c.Param("orderId"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// settle authorizes the caller against the order's transaction and then runs
// the gateway-backed operation.
func (h *Handlers) settle(c *gin.Context, orderID string, op func(ctx context.Context) (*domain.Payment, error)) {
	uid, found := requireCaller(c)
	if !found {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.participantPayment(ctx, uid, orderID); err != nil {
		failErr(c, err)
		return
	}
	p, err := op(ctx)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// participantPayment loads the payment for orderID when callerID takes part
// in its transaction.
func (h *Handlers) participantPayment(ctx context.Context, callerID, orderID string) (*domain.Payment, error) {
	p, err := h.paySvc.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if _, err := h.txSvc.Get(ctx, callerID, p.TransactionID); err != nil {
		return nil, err
	}
	return p, nil
}
