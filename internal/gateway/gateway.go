// Package gateway defines the contract with the external payment processor
// and provides a Toss Payments HTTP implementation plus an in-memory fake.
//
// Both calls are synchronous and may fail; failures carry the processor's
// response as *Error so callers can log it and surface it as retryable.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Operation names, used in errors, spans, and metrics.
const (
	OpConfirm = "confirm"
	OpCancel  = "cancel"
)

// ConfirmRequest asks the processor to capture an authorized payment.
type ConfirmRequest struct {
	PaymentKey string
	OrderID    string
	Amount     int64
}

// CancelRequest asks the processor to refund a captured payment.
type CancelRequest struct {
	PaymentKey string
	Reason     string
	Amount     int64
}

// Result is the processor's view of a payment after a successful call.
type Result struct {
	PaymentKey  string `json:"paymentKey"`
	OrderID     string `json:"orderId"`
	Status      string `json:"status"`
	TotalAmount int64  `json:"totalAmount"`
}

// Client is the payment processor contract consumed by the payment service.
type Client interface {
	Confirm(ctx context.Context, req ConfirmRequest) (*Result, error)
	Cancel(ctx context.Context, req CancelRequest) (*Result, error)
}

// Error is a failed gateway call. StatusCode is zero when no HTTP response
// was received (timeout, connection failure).
type Error struct {
	Op         string
	StatusCode int
	Code       string
	Message    string
	Body       []byte
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0 && e.Code != "":
		return fmt.Sprintf("gateway %s: status %d: %s: %s", e.Op, e.StatusCode, e.Code, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("gateway %s: status %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("gateway %s failed", e.Op)
}

func (e *Error) Unwrap() error { return e.Err }

// IsTimeout reports whether err is a gateway call that hit its deadline.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
