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
	"gorm.io/gorm"

	"github.com/tbourn/go-rental-backend/internal/domain"
	"github.com/tbourn/go-rental-backend/internal/repo"
	"github.com/tbourn/go-rental-backend/internal/utils"
)

// TransactionService drives the rental lifecycle. Every operation reads the
// current row, applies a pure transition, writes it back version-checked,
// and runs the resulting product effects, all inside one DB transaction.
type TransactionService struct {
	DB           *gorm.DB
	Availability ProductAvailability

	now func() time.Time
}

// NewTransactionService constructs a TransactionService.
func NewTransactionService(db *gorm.DB) *TransactionService {
	return &TransactionService{DB: db}
}

func (s *TransactionService) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now().UTC()
}

// stepFunc computes the next state of cur inside an open DB transaction.
type stepFunc func(tx *gorm.DB, cur domain.Transaction) (domain.Transaction, []domain.Effect, error)

// applyTransition loads transaction id on tx, runs step, persists the result
// if the row is unchanged since it was read, and applies effects. It must be
// called inside a DB transaction.
func applyTransition(ctx context.Context, tx *gorm.DB, avail ProductAvailability, id string, step stepFunc) (domain.Transaction, error) {
	cur, err := repo.GetTransaction(ctx, tx, id)
	if err != nil {
		return domain.Transaction{}, notFound(err, ErrTransactionNotFound)
	}
	next, effects, err := step(tx, *cur)
	if err != nil {
		return *cur, classify(err)
	}
	if err := repo.SaveTransaction(ctx, tx, &next); err != nil {
		return *cur, classify(err)
	}
	if err := avail.Apply(ctx, tx, effects); err != nil {
		return *cur, classify(err)
	}
	log.Ctx(ctx).Debug().
		Str("transaction_id", id).
		Str("from", string(cur.Status)).
		Str("to", string(next.Status)).
		Msg("transaction transition")
	return next, nil
}

// run executes one lifecycle operation in its own DB transaction.
func (s *TransactionService) run(ctx context.Context, op, id string, step stepFunc) (*domain.Transaction, error) {
	ctx, span := otel.Tracer("services/TransactionService").Start(ctx, op,
		trace.WithAttributes(attribute.String("transaction.id", id)))
	defer span.End()

	var out domain.Transaction
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		next, err := applyTransition(ctx, tx, s.Availability, id, step)
		out = next
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, classify(err)
	}
	transitionsTotal.WithLabelValues(op, string(out.Status)).Inc()
	return &out, nil
}

// requireParticipant rejects callers that are neither renter nor owner.
func requireParticipant(t domain.Transaction, callerID string) error {
	if !t.IsParticipant(callerID) {
		return domain.ErrNotParticipant
	}
	return nil
}

// Create opens a REQUESTED rental of productID for renterID. The product must
// be AVAILABLE and not owned by the renter; its owner is snapshotted.
func (s *TransactionService) Create(ctx context.Context, renterID, productID string) (*domain.Transaction, error) {
	ctx, span := otel.Tracer("services/TransactionService").Start(ctx, "Create",
		trace.WithAttributes(
			attribute.String("user.id", renterID),
			attribute.String("product.id", productID),
		),
	)
	defer span.End()

	if strings.TrimSpace(renterID) == "" {
		return nil, validationError("renter id is required")
	}
	if strings.TrimSpace(productID) == "" {
		return nil, validationError("product id is required")
	}

	var out domain.Transaction
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := repo.UserExists(ctx, tx, renterID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrUserNotFound
		}
		p, err := repo.GetProduct(ctx, tx, productID)
		if err != nil {
			return notFound(err, ErrProductNotFound)
		}
		if p.OwnerID == renterID {
			return ErrOwnProduct
		}
		if p.Status != domain.ProductAvailable {
			return ErrProductUnavailable
		}
		out = domain.NewTransaction(uuid.NewString(), *p, renterID, s.clock())
		return repo.CreateTransaction(ctx, tx, &out)
	})
	if err != nil {
		return nil, classify(err)
	}
	transitionsTotal.WithLabelValues("create", string(out.Status)).Inc()
	return &out, nil
}

// Get returns transaction id if callerID is its renter or owner.
func (s *TransactionService) Get(ctx context.Context, callerID, id string) (*domain.Transaction, error) {
	t, err := repo.GetTransaction(ctx, s.DB, id)
	if err != nil {
		return nil, notFound(err, ErrTransactionNotFound)
	}
	if err := requireParticipant(*t, callerID); err != nil {
		return nil, classify(err)
	}
	return t, nil
}

// ListForUser returns a page of transactions where userID is the renter or
// the owner, newest first, and the total count.
func (s *TransactionService) ListForUser(ctx context.Context, userID string, page, pageSize int) ([]domain.Transaction, int64, error) {
	ctx, span := otel.Tracer("services/TransactionService").Start(ctx, "ListForUser",
		trace.WithAttributes(
			attribute.String("user.id", userID),
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
	total, err := repo.CountTransactionsForUser(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Transaction{}, 0, nil
	}
	items, err := repo.ListTransactionsForUserPage(ctx, s.DB, userID, utils.Offset(page, pageSize), pageSize)
	return items, total, err
}

// Stats returns the number of transactions userID takes part in and their
// latest update time, for conditional listing responses.
func (s *TransactionService) Stats(ctx context.Context, userID string) (int64, *time.Time, error) {
	return repo.TransactionsStats(ctx, s.DB, userID)
}

// Accept moves a REQUESTED transaction to ACCEPTED. Only the recorded owner
// may accept.
func (s *TransactionService) Accept(ctx context.Context, callerID, id string) (*domain.Transaction, error) {
	now := s.clock()
	return s.run(ctx, domain.OpAccept, id, func(_ *gorm.DB, cur domain.Transaction) (domain.Transaction, []domain.Effect, error) {
		return cur.Accept(callerID, now)
	})
}

// Cancel cancels a transaction before payment (REQUESTED or ACCEPTED).
// Unused READY payments of the transaction are discarded with it.
func (s *TransactionService) Cancel(ctx context.Context, callerID, id string) (*domain.Transaction, error) {
	now := s.clock()
	return s.run(ctx, domain.OpCancel, id, func(tx *gorm.DB, cur domain.Transaction) (domain.Transaction, []domain.Effect, error) {
		if err := requireParticipant(cur, callerID); err != nil {
			return cur, nil, err
		}
		next, effects, err := cur.Cancel(now)
		if err != nil {
			return cur, nil, err
		}
		if _, err := repo.DeletePaymentsInStatus(ctx, tx, cur.ID, domain.PaymentReady); err != nil {
			return cur, nil, err
		}
		return next, effects, nil
	})
}

// MarkPaid moves an ACCEPTED transaction to PAID. It succeeds only when a
// CONFIRMED payment for the transaction exists; payment confirmation itself
// performs this step inside its own scope.
func (s *TransactionService) MarkPaid(ctx context.Context, id string) (*domain.Transaction, error) {
	now := s.clock()
	return s.run(ctx, domain.OpMarkPaid, id, func(tx *gorm.DB, cur domain.Transaction) (domain.Transaction, []domain.Effect, error) {
		ok, err := repo.HasPaymentInStatus(ctx, tx, cur.ID, domain.PaymentConfirmed)
		if err != nil {
			return cur, nil, err
		}
		if !ok {
			return cur, nil, ErrNoConfirmedPayment
		}
		return cur.MarkPaid(now)
	})
}

// StartRental moves a PAID transaction to RENTED with the given period and
// marks the product RENTED.
func (s *TransactionService) StartRental(ctx context.Context, callerID, id string, startAt, endAt time.Time) (*domain.Transaction, error) {
	now := s.clock()
	return s.run(ctx, domain.OpStartRental, id, func(_ *gorm.DB, cur domain.Transaction) (domain.Transaction, []domain.Effect, error) {
		if err := requireParticipant(cur, callerID); err != nil {
			return cur, nil, err
		}
		return cur.StartRental(startAt, endAt, now)
	})
}

// ReturnProduct moves a RENTED transaction to RETURNED and makes the product
// AVAILABLE again.
func (s *TransactionService) ReturnProduct(ctx context.Context, callerID, id string) (*domain.Transaction, error) {
	now := s.clock()
	return s.run(ctx, domain.OpReturnProduct, id, func(_ *gorm.DB, cur domain.Transaction) (domain.Transaction, []domain.Effect, error) {
		if err := requireParticipant(cur, callerID); err != nil {
			return cur, nil, err
		}
		return cur.ReturnProduct(now)
	})
}
