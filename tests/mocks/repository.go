package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/finback/loan-ledger/internal/domain"
)

type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) CreateLoan(ctx context.Context, loan *domain.Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}

func (m *MockLoanRepository) GetLoan(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) UpdateLoan(ctx context.Context, loan *domain.Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}

func (m *MockLoanRepository) ReplaceSchedule(ctx context.Context, loan *domain.Loan, payments []*domain.LoanPayment) error {
	args := m.Called(ctx, loan, payments)
	return args.Error(0)
}

func (m *MockLoanRepository) CreatePayment(ctx context.Context, payment *domain.LoanPayment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockLoanRepository) GetPayment(ctx context.Context, id uuid.UUID) (*domain.LoanPayment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanPayment), args.Error(1)
}

func (m *MockLoanRepository) ListPayments(ctx context.Context, loanID uuid.UUID) ([]*domain.LoanPayment, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LoanPayment), args.Error(1)
}

func (m *MockLoanRepository) ListAllPayments(ctx context.Context) ([]*domain.LoanPayment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LoanPayment), args.Error(1)
}

func (m *MockLoanRepository) UpdatePayment(ctx context.Context, payment *domain.LoanPayment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockLoanRepository) DeletePayment(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockLoanRepository) AdjustRemainingBalance(ctx context.Context, loanID uuid.UUID, delta decimal.Decimal) error {
	args := m.Called(ctx, loanID, delta)
	return args.Error(0)
}

type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Create(ctx context.Context, record *domain.LedgerRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockLedgerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.LedgerRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerRecord), args.Error(1)
}

func (m *MockLedgerRepository) FindByPaymentRef(ctx context.Context, paymentID uuid.UUID) (*domain.LedgerRecord, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerRecord), args.Error(1)
}

func (m *MockLedgerRepository) FindByNaturalKey(ctx context.Context, loanID uuid.UUID, amount decimal.Decimal, date time.Time) (*domain.LedgerRecord, error) {
	args := m.Called(ctx, loanID, amount, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerRecord), args.Error(1)
}

func (m *MockLedgerRepository) SetPaymentRef(ctx context.Context, recordID, paymentID uuid.UUID) error {
	args := m.Called(ctx, recordID, paymentID)
	return args.Error(0)
}

func (m *MockLedgerRepository) SetPaid(ctx context.Context, recordID uuid.UUID, paid bool) error {
	args := m.Called(ctx, recordID, paid)
	return args.Error(0)
}

func (m *MockLedgerRepository) EntityIncomeTotal(ctx context.Context, entityID uuid.UUID, from time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, entityID, from)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockLedgerRepository) EntityExpenseTotal(ctx context.Context, entityID uuid.UUID, from time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, entityID, from)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockLedgerRepository) SafeExpenseTotal(ctx context.Context, from time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, from)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type MockEntityRepository struct {
	mock.Mock
}

func (m *MockEntityRepository) CreateEntity(ctx context.Context, entity *domain.LegalEntity) error {
	args := m.Called(ctx, entity)
	return args.Error(0)
}

func (m *MockEntityRepository) GetEntity(ctx context.Context, id uuid.UUID) (*domain.LegalEntity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LegalEntity), args.Error(1)
}

func (m *MockEntityRepository) GetSafeSettings(ctx context.Context) (*domain.SafeSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SafeSettings), args.Error(1)
}

func (m *MockEntityRepository) SaveSafeSettings(ctx context.Context, settings *domain.SafeSettings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Append(ctx context.Context, entry *domain.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}
