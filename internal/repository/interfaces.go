package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finback/loan-ledger/internal/domain"
)

// LoanRepository defines data operations for loans and their payment rows.
type LoanRepository interface {
	// CreateLoan creates a new loan
	CreateLoan(ctx context.Context, loan *domain.Loan) error

	// GetLoan retrieves a loan by id
	GetLoan(ctx context.Context, id uuid.UUID) (*domain.Loan, error)

	// UpdateLoan updates loan fields
	UpdateLoan(ctx context.Context, loan *domain.Loan) error

	// ReplaceSchedule atomically deletes the loan's unpaid payment rows,
	// inserts the given rows and updates the loan's computed fields
	// (monthly payment, end date, remaining balance). All or nothing.
	ReplaceSchedule(ctx context.Context, loan *domain.Loan, payments []*domain.LoanPayment) error

	// CreatePayment creates a single payment row
	CreatePayment(ctx context.Context, payment *domain.LoanPayment) error

	// GetPayment retrieves a payment by id
	GetPayment(ctx context.Context, id uuid.UUID) (*domain.LoanPayment, error)

	// ListPayments retrieves a loan's payment rows ordered by due date
	ListPayments(ctx context.Context, loanID uuid.UUID) ([]*domain.LoanPayment, error)

	// ListAllPayments retrieves every payment row, for reconciliation passes
	ListAllPayments(ctx context.Context) ([]*domain.LoanPayment, error)

	// UpdatePayment updates a payment row
	UpdatePayment(ctx context.Context, payment *domain.LoanPayment) error

	// DeletePayment deletes a payment row
	DeletePayment(ctx context.Context, id uuid.UUID) error

	// AdjustRemainingBalance shifts a loan's remaining balance by delta
	AdjustRemainingBalance(ctx context.Context, loanID uuid.UUID, delta decimal.Decimal) error
}

// LedgerRepository defines data operations for general ledger records.
type LedgerRepository interface {
	// Create creates a ledger record
	Create(ctx context.Context, record *domain.LedgerRecord) error

	// GetByID retrieves a ledger record by id
	GetByID(ctx context.Context, id uuid.UUID) (*domain.LedgerRecord, error)

	// FindByPaymentRef retrieves the record holding a stored back-reference
	// to the given payment row
	FindByPaymentRef(ctx context.Context, paymentID uuid.UUID) (*domain.LedgerRecord, error)

	// FindByNaturalKey retrieves the first record matching loan + amount +
	// calendar date; legacy backfill path for records without a reference
	FindByNaturalKey(ctx context.Context, loanID uuid.UUID, amount decimal.Decimal, date time.Time) (*domain.LedgerRecord, error)

	// SetPaymentRef stores the back-reference on an existing record
	SetPaymentRef(ctx context.Context, recordID, paymentID uuid.UUID) error

	// SetPaid updates the paid flag on a record
	SetPaid(ctx context.Context, recordID uuid.UUID, paid bool) error

	// EntityIncomeTotal sums INCOME amounts for an entity from a date onward
	EntityIncomeTotal(ctx context.Context, entityID uuid.UUID, from time.Time) (decimal.Decimal, error)

	// EntityExpenseTotal sums EXPENSE amounts for an entity from a date
	// onward, excluding stakeholder-fronted and loan-linked records
	EntityExpenseTotal(ctx context.Context, entityID uuid.UUID, from time.Time) (decimal.Decimal, error)

	// SafeExpenseTotal sums EXPENSE amounts drawn from the shared reserve
	// from a date onward
	SafeExpenseTotal(ctx context.Context, from time.Time) (decimal.Decimal, error)
}

// EntityRepository defines data operations for legal entities and the
// shared-reserve settings singleton.
type EntityRepository interface {
	// CreateEntity creates a legal entity
	CreateEntity(ctx context.Context, entity *domain.LegalEntity) error

	// GetEntity retrieves a legal entity by id
	GetEntity(ctx context.Context, id uuid.UUID) (*domain.LegalEntity, error)

	// GetSafeSettings retrieves the reserve settings; (nil, nil) when the
	// singleton has never been configured
	GetSafeSettings(ctx context.Context) (*domain.SafeSettings, error)

	// SaveSafeSettings creates or replaces the reserve settings
	SaveSafeSettings(ctx context.Context, settings *domain.SafeSettings) error
}

// AuditRepository is the append-only sink for financial mutation records.
type AuditRepository interface {
	// Append writes one audit entry
	Append(ctx context.Context, entry *domain.AuditEntry) error
}
