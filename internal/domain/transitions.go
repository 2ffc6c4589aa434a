package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Transition errors. TransitionError unwraps to ErrInvalidTransition.
var (
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrNotOwner is returned when someone other than the recorded owner
	// attempts an owner-only operation.
	ErrNotOwner = errors.New("only the product owner can perform this operation")

	// ErrNotParticipant is returned when the caller is neither the renter
	// nor the owner of the transaction.
	ErrNotParticipant = errors.New("caller is not a participant of this transaction")

	// ErrInvalidRentalPeriod is returned when startAt is not strictly before endAt.
	ErrInvalidRentalPeriod = errors.New("rental start must be before rental end")

	// ErrInvalidRentalDays is returned when fewer than one rental day is requested.
	ErrInvalidRentalDays = errors.New("rental days must be >= 1")

	// ErrInvalidPrice is returned when price or deposit is negative.
	ErrInvalidPrice = errors.New("price and deposit must be >= 0")

	// ErrAmountOverflow is returned when the computed amount does not fit in int64.
	ErrAmountOverflow = errors.New("payment amount overflows")
)

// TransitionError reports an operation attempted from a state that does not
// permit it.
type TransitionError struct {
	Entity string // "transaction" or "payment"
	From   string // current state
	Op     string // attempted operation
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: cannot %s from %s", e.Entity, e.Op, e.From)
}

// Unwrap lets errors.Is(err, ErrInvalidTransition) match.
func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// Transaction operations, used for error context and metrics labels.
const (
	OpAccept            = "accept"
	OpCancel            = "cancel"
	OpMarkPaid          = "mark_paid"
	OpStartRental       = "start_rental"
	OpCancelAfterRefund = "cancel_after_refund"
	OpReturnProduct     = "return_product"
)

// transactionEdges lists the only legal edges of the rental lifecycle,
// keyed by operation then current state.
var transactionEdges = map[string]map[TransactionStatus]TransactionStatus{
	OpAccept:            {StatusRequested: StatusAccepted},
	OpCancel:            {StatusRequested: StatusCanceled, StatusAccepted: StatusCanceled},
	OpMarkPaid:          {StatusAccepted: StatusPaid},
	OpStartRental:       {StatusPaid: StatusRented},
	OpCancelAfterRefund: {StatusPaid: StatusCanceled},
	OpReturnProduct:     {StatusRented: StatusReturned},
}

// EffectKind identifies a side effect a transition requires.
type EffectKind int

const (
	EffectMarkProductRented EffectKind = iota + 1
	EffectMarkProductAvailable
)

func (k EffectKind) String() string {
	switch k {
	case EffectMarkProductRented:
		return "mark_product_rented"
	case EffectMarkProductAvailable:
		return "mark_product_available"
	}
	return "unknown"
}

// Effect is a command that must be applied in the same atomic unit as the
// transition that produced it.
type Effect struct {
	Kind      EffectKind
	ProductID string
}

// CanApply reports whether op is legal from status.
func CanApply(status TransactionStatus, op string) bool {
	_, ok := transactionEdges[op][status]
	return ok
}

// IsTerminal reports whether no further transition is possible.
func (s TransactionStatus) IsTerminal() bool {
	return s == StatusReturned || s == StatusCanceled
}

// IsParticipant reports whether userID is the renter or the owner.
func (t Transaction) IsParticipant(userID string) bool {
	return userID != "" && (userID == t.RenterID || userID == t.OwnerID)
}

func (t Transaction) advance(op string, now time.Time) (Transaction, error) {
	to, ok := transactionEdges[op][t.Status]
	if !ok {
		return t, &TransitionError{Entity: "transaction", From: string(t.Status), Op: op}
	}
	next := t
	next.Status = to
	next.UpdatedAt = now
	return next, nil
}

// NewTransaction builds a REQUESTED transaction for product p and renter,
// snapshotting the product owner.
func NewTransaction(id string, p Product, renterID string, now time.Time) Transaction {
	return Transaction{
		ID:        id,
		ProductID: p.ID,
		RenterID:  renterID,
		OwnerID:   p.OwnerID,
		Status:    StatusRequested,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Accept moves REQUESTED to ACCEPTED. Only the recorded owner may accept.
func (t Transaction) Accept(ownerID string, now time.Time) (Transaction, []Effect, error) {
	if ownerID == "" || ownerID != t.OwnerID {
		return t, nil, ErrNotOwner
	}
	next, err := t.advance(OpAccept, now)
	return next, nil, err
}

// Cancel moves REQUESTED or ACCEPTED to CANCELED (no payment captured yet).
func (t Transaction) Cancel(now time.Time) (Transaction, []Effect, error) {
	next, err := t.advance(OpCancel, now)
	return next, nil, err
}

// MarkPaid moves ACCEPTED to PAID. Callers must hold a confirmed payment.
func (t Transaction) MarkPaid(now time.Time) (Transaction, []Effect, error) {
	next, err := t.advance(OpMarkPaid, now)
	return next, nil, err
}

// StartRental moves PAID to RENTED, records the rental period exactly once,
// and requires the product to be marked RENTED.
func (t Transaction) StartRental(startAt, endAt, now time.Time) (Transaction, []Effect, error) {
	next, err := t.advance(OpStartRental, now)
	if err != nil {
		return t, nil, err
	}
	if startAt.IsZero() || endAt.IsZero() || !startAt.Before(endAt) {
		return t, nil, ErrInvalidRentalPeriod
	}
	s, e := startAt.UTC(), endAt.UTC()
	next.StartAt = &s
	next.EndAt = &e
	return next, []Effect{{Kind: EffectMarkProductRented, ProductID: t.ProductID}}, nil
}

// ReturnProduct moves RENTED to RETURNED and requires the product to become
// AVAILABLE again.
func (t Transaction) ReturnProduct(now time.Time) (Transaction, []Effect, error) {
	next, err := t.advance(OpReturnProduct, now)
	if err != nil {
		return t, nil, err
	}
	return next, []Effect{{Kind: EffectMarkProductAvailable, ProductID: t.ProductID}}, nil
}

// CancelAfterRefund moves PAID to CANCELED once the payment was refunded.
// The product was never marked RENTED from PAID, so no effect is produced.
func (t Transaction) CancelAfterRefund(now time.Time) (Transaction, []Effect, error) {
	next, err := t.advance(OpCancelAfterRefund, now)
	return next, nil, err
}

// ComputeAmount returns rentalDays*pricePerDay + deposit.
func ComputeAmount(rentalDays int, pricePerDay, deposit int64) (int64, error) {
	if rentalDays < 1 {
		return 0, ErrInvalidRentalDays
	}
	if pricePerDay < 0 || deposit < 0 {
		return 0, ErrInvalidPrice
	}
	days := int64(rentalDays)
	if pricePerDay > 0 && days > (math.MaxInt64-deposit)/pricePerDay {
		return 0, ErrAmountOverflow
	}
	return days*pricePerDay + deposit, nil
}

// NewPayment builds a READY payment for transactionID.
func NewPayment(id, orderID, transactionID string, amount int64, now time.Time) Payment {
	return Payment{
		ID:            id,
		OrderID:       orderID,
		Amount:        amount,
		Status:        PaymentReady,
		TransactionID: transactionID,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Confirm moves READY to CONFIRMED and records the gateway payment key.
func (p Payment) Confirm(paymentKey string, now time.Time) (Payment, error) {
	if p.Status != PaymentReady {
		return p, &TransitionError{Entity: "payment", From: string(p.Status), Op: "confirm"}
	}
	next := p
	next.Status = PaymentConfirmed
	next.PaymentKey = paymentKey
	at := now
	next.ConfirmedAt = &at
	next.UpdatedAt = now
	return next, nil
}

// Cancel moves CONFIRMED to CANCELED after a successful refund.
func (p Payment) Cancel(reason string, now time.Time) (Payment, error) {
	if p.Status != PaymentConfirmed {
		return p, &TransitionError{Entity: "payment", From: string(p.Status), Op: "cancel"}
	}
	next := p
	next.Status = PaymentCanceled
	next.CancelReason = reason
	at := now
	next.CanceledAt = &at
	next.UpdatedAt = now
	return next, nil
}
