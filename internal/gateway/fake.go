package gateway

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
)

// Fake is an in-memory Client. It succeeds unless ConfirmErr or CancelErr is
// set and counts every call. Hold, when non-nil, blocks each call until it
// is closed or the context ends, which lets tests line up concurrent callers.
type Fake struct {
	ConfirmErr error
	CancelErr  error
	Hold       chan struct{}

	confirmCalls atomic.Int64
	cancelCalls  atomic.Int64

	mu      sync.Mutex
	amounts map[string]int64 // paymentKey -> captured amount
}

var _ Client = (*Fake)(nil)

// NewFake returns a Fake that accepts every call.
func NewFake() *Fake { return &Fake{} }

// Confirm records the capture and echoes it back as DONE.
func (f *Fake) Confirm(ctx context.Context, req ConfirmRequest) (*Result, error) {
	f.confirmCalls.Add(1)
	if err := f.wait(ctx, OpConfirm); err != nil {
		return nil, err
	}
	if f.ConfirmErr != nil {
		return nil, f.ConfirmErr
	}
	if strings.TrimSpace(req.PaymentKey) == "" {
		return nil, &Error{Op: OpConfirm, StatusCode: 400, Code: "INVALID_REQUEST", Message: "paymentKey is required"}
	}
	f.mu.Lock()
	if f.amounts == nil {
		f.amounts = make(map[string]int64)
	}
	f.amounts[req.PaymentKey] = req.Amount
	f.mu.Unlock()
	return &Result{PaymentKey: req.PaymentKey, OrderID: req.OrderID, Status: "DONE", TotalAmount: req.Amount}, nil
}

// Cancel refunds a payment. Payments captured through this Fake must be
// refunded in full.
func (f *Fake) Cancel(ctx context.Context, req CancelRequest) (*Result, error) {
	f.cancelCalls.Add(1)
	if err := f.wait(ctx, OpCancel); err != nil {
		return nil, err
	}
	if f.CancelErr != nil {
		return nil, f.CancelErr
	}
	f.mu.Lock()
	captured, ok := f.amounts[req.PaymentKey]
	f.mu.Unlock()
	if ok && req.Amount != captured {
		return nil, &Error{Op: OpCancel, StatusCode: 400, Code: "INVALID_CANCEL_AMOUNT", Message: "cancel amount differs from captured amount"}
	}
	return &Result{PaymentKey: req.PaymentKey, Status: "CANCELED", TotalAmount: req.Amount}, nil
}

// ConfirmCalls returns how many times Confirm was invoked.
func (f *Fake) ConfirmCalls() int64 { return f.confirmCalls.Load() }

// CancelCalls returns how many times Cancel was invoked.
func (f *Fake) CancelCalls() int64 { return f.cancelCalls.Load() }

func (f *Fake) wait(ctx context.Context, op string) error {
	if f.Hold == nil {
		return nil
	}
	select {
	case <-f.Hold:
		return nil
	case <-ctx.Done():
		return &Error{Op: op, Err: ctx.Err()}
	}
}
