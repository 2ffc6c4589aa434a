package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/tbourn/go-rental-backend/internal/domain"
	"github.com/tbourn/go-rental-backend/internal/gateway"
	"github.com/tbourn/go-rental-backend/internal/repo"
)

// opPreparePayment names the prepare precondition in transition errors.
const opPreparePayment = "prepare_payment"

// PaymentService settles transactions through the external gateway.
//
// Confirm and cancel check their guards, call the gateway with no DB
// transaction open, then write the payment and transition the transaction
// in one short DB transaction. A gateway failure leaves local state
// untouched. Calls for the same order inside this process run one at a
// time, detached from the caller's cancellation so a dropped client cannot
// abort a capture midway.
type PaymentService struct {
	DB           *gorm.DB
	Gateway      gateway.Client
	Availability ProductAvailability

	// RequireAccepted only allows prepare on ACCEPTED transactions. When
	// false, REQUESTED transactions may also be prepared.
	RequireAccepted bool
	// DefaultCancelReason is sent to the gateway when a cancel has none.
	DefaultCancelReason string

	flight singleflight.Group
	now    func() time.Time
}

// NewPaymentService constructs a PaymentService with the stricter prepare
// policy.
func NewPaymentService(db *gorm.DB, gw gateway.Client) *PaymentService {
	return &PaymentService{
		DB:                  db,
		Gateway:             gw,
		RequireAccepted:     true,
		DefaultCancelReason: "user_requested",
	}
}

func (s *PaymentService) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now().UTC()
}

// Prepare creates the READY payment for transactionID covering rentalDays.
// The amount is rentalDays*pricePerDay + deposit of the product. A READY
// payment with the same amount is returned as is; one with a different
// amount is replaced.
func (s *PaymentService) Prepare(ctx context.Context, callerID, transactionID string, rentalDays int) (*domain.Payment, error) {
	ctx, span := otel.Tracer("services/PaymentService").Start(ctx, "Prepare",
		trace.WithAttributes(
			attribute.String("transaction.id", transactionID),
			attribute.Int("rental_days", rentalDays),
		),
	)
	defer span.End()

	if rentalDays < 1 {
		return nil, classify(domain.ErrInvalidRentalDays)
	}

	var out domain.Payment
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := repo.GetTransaction(ctx, tx, transactionID)
		if err != nil {
			return notFound(err, ErrTransactionNotFound)
		}
		if callerID != t.RenterID {
			return ErrNotPayer
		}
		if !s.preparable(t.Status) {
			return classify(&domain.TransitionError{Entity: "transaction", From: string(t.Status), Op: opPreparePayment})
		}
		if paid, err := repo.HasPaymentInStatus(ctx, tx, t.ID, domain.PaymentConfirmed); err != nil {
			return err
		} else if paid {
			return ErrAlreadyPaid
		}

		p, err := repo.GetProduct(ctx, tx, t.ProductID)
		if err != nil {
			return notFound(err, ErrProductNotFound)
		}
		amount, err := domain.ComputeAmount(rentalDays, p.PricePerDay, p.Deposit)
		if err != nil {
			return classify(err)
		}

		existing, err := repo.ListPaymentsForTransaction(ctx, tx, t.ID)
		if err != nil {
			return err
		}
		for _, e := range existing {
			if e.Status == domain.PaymentReady && e.Amount == amount {
				out = e
				return nil
			}
		}
		if _, err := repo.DeletePaymentsInStatus(ctx, tx, t.ID, domain.PaymentReady); err != nil {
			return err
		}
		out = domain.NewPayment(uuid.NewString(), uuid.NewString(), t.ID, amount, s.clock())
		return repo.CreatePayment(ctx, tx, &out)
	})
	if err != nil {
		span.RecordError(err)
		return nil, classify(err)
	}
	return &out, nil
}

func (s *PaymentService) preparable(st domain.TransactionStatus) bool {
	if st == domain.StatusAccepted {
		return true
	}
	return !s.RequireAccepted && st == domain.StatusRequested
}

// Get returns the payment with orderID.
func (s *PaymentService) Get(ctx context.Context, orderID string) (*domain.Payment, error) {
	p, err := repo.GetPaymentByOrderID(ctx, s.DB, orderID)
	if err != nil {
		return nil, notFound(err, ErrPaymentNotFound)
	}
	return p, nil
}

// Confirm captures the payment for orderID through the gateway, marks it
// CONFIRMED, and moves its transaction to PAID. amount must equal the
// prepared amount. Confirming an already CONFIRMED payment returns it
// unchanged without calling the gateway.
func (s *PaymentService) Confirm(ctx context.Context, orderID, paymentKey string, amount int64) (*domain.Payment, error) {
	ctx, span := otel.Tracer("services/PaymentService").Start(ctx, "Confirm",
		trace.WithAttributes(attribute.String("payment.order_id", orderID)))
	defer span.End()

	orderID, paymentKey = strings.TrimSpace(orderID), strings.TrimSpace(paymentKey)
	if orderID == "" {
		return nil, validationError("orderId is required")
	}
	if paymentKey == "" {
		return nil, validationError("paymentKey is required")
	}
	if amount < 0 {
		return nil, validationError("amount must be >= 0")
	}

	return s.settle(ctx, orderID, func(ctx context.Context) (*domain.Payment, error) {
		return s.confirm(ctx, orderID, paymentKey, amount)
	})
}

func (s *PaymentService) confirm(ctx context.Context, orderID, paymentKey string, amount int64) (*domain.Payment, error) {
	p, err := repo.GetPaymentByOrderID(ctx, s.DB, orderID)
	if err != nil {
		return nil, notFound(err, ErrPaymentNotFound)
	}
	if amount != p.Amount {
		return nil, ErrAmountMismatch
	}
	if p.Status == domain.PaymentConfirmed {
		paymentReplays.WithLabelValues(gateway.OpConfirm).Inc()
		return p, nil
	}
	next, err := p.Confirm(paymentKey, s.clock())
	if err != nil {
		return nil, classify(err)
	}
	t, err := repo.GetTransaction(ctx, s.DB, p.TransactionID)
	if err != nil {
		return nil, notFound(err, ErrTransactionNotFound)
	}
	if !domain.CanApply(t.Status, domain.OpMarkPaid) {
		return nil, classify(&domain.TransitionError{Entity: "transaction", From: string(t.Status), Op: domain.OpMarkPaid})
	}

	if _, err := s.callGateway(ctx, gateway.OpConfirm, func(ctx context.Context) (*gateway.Result, error) {
		return s.Gateway.Confirm(ctx, gateway.ConfirmRequest{PaymentKey: paymentKey, OrderID: orderID, Amount: p.Amount})
	}); err != nil {
		return nil, err
	}

	now := next.UpdatedAt
	err = s.commit(ctx, gateway.OpConfirm, &next, func(cur domain.Transaction) (domain.Transaction, []domain.Effect, error) {
		return cur.MarkPaid(now)
	})
	if err != nil {
		return s.settledElsewhere(ctx, orderID, domain.PaymentConfirmed, err)
	}
	transitionsTotal.WithLabelValues(domain.OpMarkPaid, string(domain.StatusPaid)).Inc()
	return &next, nil
}

// Cancel refunds the payment for orderID through the gateway, marks it
// CANCELED, and cancels its transaction. Only CONFIRMED payments whose
// transaction is still PAID (the rental has not started) can be refunded.
// Canceling an already CANCELED payment returns it unchanged.
func (s *PaymentService) Cancel(ctx context.Context, orderID, reason string, amount int64) (*domain.Payment, error) {
	ctx, span := otel.Tracer("services/PaymentService").Start(ctx, "Cancel",
		trace.WithAttributes(attribute.String("payment.order_id", orderID)))
	defer span.End()

	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, validationError("orderId is required")
	}
	if amount < 0 {
		return nil, validationError("amount must be >= 0")
	}
	reason = normalizeText(reason)
	if reason == "" {
		reason = s.DefaultCancelReason
	}

	return s.settle(ctx, orderID, func(ctx context.Context) (*domain.Payment, error) {
		return s.cancel(ctx, orderID, reason, amount)
	})
}

func (s *PaymentService) cancel(ctx context.Context, orderID, reason string, amount int64) (*domain.Payment, error) {
	p, err := repo.GetPaymentByOrderID(ctx, s.DB, orderID)
	if err != nil {
		return nil, notFound(err, ErrPaymentNotFound)
	}
	if amount != p.Amount {
		return nil, ErrAmountMismatch
	}
	if p.Status == domain.PaymentCanceled {
		paymentReplays.WithLabelValues(gateway.OpCancel).Inc()
		return p, nil
	}
	next, err := p.Cancel(reason, s.clock())
	if err != nil {
		return nil, classify(err)
	}
	t, err := repo.GetTransaction(ctx, s.DB, p.TransactionID)
	if err != nil {
		return nil, notFound(err, ErrTransactionNotFound)
	}
	if !domain.CanApply(t.Status, domain.OpCancelAfterRefund) {
		return nil, classify(&domain.TransitionError{Entity: "transaction", From: string(t.Status), Op: domain.OpCancelAfterRefund})
	}

	if _, err := s.callGateway(ctx, gateway.OpCancel, func(ctx context.Context) (*gateway.Result, error) {
		return s.Gateway.Cancel(ctx, gateway.CancelRequest{PaymentKey: p.PaymentKey, Reason: reason, Amount: p.Amount})
	}); err != nil {
		return nil, err
	}

	now := next.UpdatedAt
	err = s.commit(ctx, gateway.OpCancel, &next, func(cur domain.Transaction) (domain.Transaction, []domain.Effect, error) {
		return cur.CancelAfterRefund(now)
	})
	if err != nil {
		return s.settledElsewhere(ctx, orderID, domain.PaymentCanceled, err)
	}
	transitionsTotal.WithLabelValues(domain.OpCancelAfterRefund, string(domain.StatusCanceled)).Inc()
	return &next, nil
}

// settle runs one confirm or cancel for orderID at a time in this process.
// A caller that joined another caller's run goes again with its own
// arguments; after a successful settle that second run is a replay and makes
// no gateway call. Runs are detached from the caller's cancellation.
func (s *PaymentService) settle(ctx context.Context, orderID string, run func(context.Context) (*domain.Payment, error)) (*domain.Payment, error) {
	span := trace.SpanFromContext(ctx)
	detached := context.WithoutCancel(ctx)
	for {
		ran := false
		v, err, _ := s.flight.Do(orderID, func() (any, error) {
			ran = true
			return run(detached)
		})
		if !ran {
			continue
		}
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		p := *v.(*domain.Payment)
		return &p, nil
	}
}

// commit writes the settled payment and moves its transaction in one short
// DB transaction. The gateway call has already happened, so no lock is held
// while waiting on the network.
func (s *PaymentService) commit(ctx context.Context, op string, next *domain.Payment, step func(domain.Transaction) (domain.Transaction, []domain.Effect, error)) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.SavePayment(ctx, tx, next); err != nil {
			return classify(err)
		}
		_, err := applyTransition(ctx, tx, s.Availability, next.TransactionID, func(_ *gorm.DB, cur domain.Transaction) (domain.Transaction, []domain.Effect, error) {
			return step(cur)
		})
		return err
	})
}

// settledElsewhere handles a commit that failed after the gateway accepted.
// If another process already recorded the same outcome the stored payment
// is returned. Otherwise the failure is logged for reconciliation and
// returned; retrying is safe because Toss deduplicates on the order id.
func (s *PaymentService) settledElsewhere(ctx context.Context, orderID string, want domain.PaymentStatus, err error) (*domain.Payment, error) {
	if cur, gerr := repo.GetPaymentByOrderID(ctx, s.DB, orderID); gerr == nil && cur.Status == want {
		return cur, nil
	}
	log.Ctx(ctx).Error().Err(err).
		Str("order_id", orderID).
		Str("want", string(want)).
		Msg("gateway settled payment but local commit failed")
	return nil, classify(err)
}

// callGateway runs one gateway call with metrics and logging and wraps
// failures as ErrGateway.
func (s *PaymentService) callGateway(ctx context.Context, op string, call func(context.Context) (*gateway.Result, error)) (*gateway.Result, error) {
	start := time.Now()
	res, err := call(ctx)
	gatewayLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())

	outcome := "ok"
	if err != nil {
		outcome = "error"
		if gateway.IsTimeout(err) {
			outcome = "timeout"
		}
	}
	gatewayCalls.WithLabelValues(op, outcome).Inc()

	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("op", op).Str("outcome", outcome).Msg("payment gateway call failed")
		return nil, gatewayError(err)
	}
	return res, nil
}
