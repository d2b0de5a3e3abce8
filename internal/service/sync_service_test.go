package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/finback/loan-ledger/internal/domain"
	engineErrors "github.com/finback/loan-ledger/pkg/errors"
	"github.com/finback/loan-ledger/tests/mocks"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newSyncFixture() (*SyncService, *mocks.MockLoanRepository, *mocks.MockLedgerRepository, *mocks.MockAuditRepository) {
	loanRepo := &mocks.MockLoanRepository{}
	ledgerRepo := &mocks.MockLedgerRepository{}
	auditRepo := &mocks.MockAuditRepository{}
	auditRepo.On("Append", mock.Anything, mock.Anything).Return(nil).Maybe()

	svc := NewSyncService(loanRepo, ledgerRepo, auditRepo, quietLogger())
	return svc, loanRepo, ledgerRepo, auditRepo
}

func unpaidPayment() *domain.LoanPayment {
	return &domain.LoanPayment{
		ID:            uuid.New(),
		LoanID:        uuid.New(),
		Amount:        decimal.NewFromInt(11200),
		PrincipalPart: decimal.NewFromInt(10000),
		DueDate:       time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC),
	}
}

func TestTogglePayment_MarksPaidAndPropagates(t *testing.T) {
	svc, loanRepo, ledgerRepo, _ := newSyncFixture()

	payment := unpaidPayment()
	record := &domain.LedgerRecord{ID: uuid.New(), Paid: false, LoanPaymentID: &payment.ID}

	loanRepo.On("GetPayment", mock.Anything, payment.ID).Return(payment, nil)
	loanRepo.On("UpdatePayment", mock.Anything, mock.MatchedBy(func(p *domain.LoanPayment) bool {
		return p.Paid && p.PaidAt != nil
	})).Return(nil)
	loanRepo.On("AdjustRemainingBalance", mock.Anything, payment.LoanID, mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.NewFromInt(-10000))
	})).Return(nil)
	ledgerRepo.On("FindByPaymentRef", mock.Anything, payment.ID).Return(record, nil)
	ledgerRepo.On("SetPaid", mock.Anything, record.ID, true).Return(nil)

	updated, err := svc.TogglePayment(context.Background(), payment.ID, true)

	require.NoError(t, err)
	assert.True(t, updated.Paid)
	assert.NotNil(t, updated.PaidAt)
	ledgerRepo.AssertExpectations(t)
	loanRepo.AssertExpectations(t)
}

func TestTogglePayment_ClearsPaidTimestamp(t *testing.T) {
	svc, loanRepo, ledgerRepo, _ := newSyncFixture()

	paidAt := time.Now()
	payment := unpaidPayment()
	payment.Paid = true
	payment.PaidAt = &paidAt

	loanRepo.On("GetPayment", mock.Anything, payment.ID).Return(payment, nil)
	loanRepo.On("UpdatePayment", mock.Anything, mock.MatchedBy(func(p *domain.LoanPayment) bool {
		return !p.Paid && p.PaidAt == nil
	})).Return(nil)
	loanRepo.On("AdjustRemainingBalance", mock.Anything, payment.LoanID, mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.NewFromInt(10000))
	})).Return(nil)
	ledgerRepo.On("FindByPaymentRef", mock.Anything, payment.ID).Return(nil, sql.ErrNoRows)
	ledgerRepo.On("FindByNaturalKey", mock.Anything, payment.LoanID, payment.Amount, payment.DueDate).
		Return(nil, sql.ErrNoRows)

	updated, err := svc.TogglePayment(context.Background(), payment.ID, false)

	require.NoError(t, err)
	assert.False(t, updated.Paid)
	assert.Nil(t, updated.PaidAt)
}

func TestTogglePayment_NaturalKeyBackfill(t *testing.T) {
	svc, loanRepo, ledgerRepo, _ := newSyncFixture()

	payment := unpaidPayment()
	record := &domain.LedgerRecord{ID: uuid.New(), Paid: false}

	loanRepo.On("GetPayment", mock.Anything, payment.ID).Return(payment, nil)
	loanRepo.On("UpdatePayment", mock.Anything, mock.Anything).Return(nil)
	loanRepo.On("AdjustRemainingBalance", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ledgerRepo.On("FindByPaymentRef", mock.Anything, payment.ID).Return(nil, sql.ErrNoRows)
	ledgerRepo.On("FindByNaturalKey", mock.Anything, payment.LoanID, payment.Amount, payment.DueDate).
		Return(record, nil)
	// The legacy match stores the back-reference so future lookups are exact.
	ledgerRepo.On("SetPaymentRef", mock.Anything, record.ID, payment.ID).Return(nil)
	ledgerRepo.On("SetPaid", mock.Anything, record.ID, true).Return(nil)

	_, err := svc.TogglePayment(context.Background(), payment.ID, true)

	require.NoError(t, err)
	ledgerRepo.AssertExpectations(t)
}

func TestTogglePayment_NoCorrelatedRecordIsSilent(t *testing.T) {
	svc, loanRepo, ledgerRepo, _ := newSyncFixture()

	payment := unpaidPayment()

	loanRepo.On("GetPayment", mock.Anything, payment.ID).Return(payment, nil)
	loanRepo.On("UpdatePayment", mock.Anything, mock.Anything).Return(nil)
	loanRepo.On("AdjustRemainingBalance", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ledgerRepo.On("FindByPaymentRef", mock.Anything, payment.ID).Return(nil, sql.ErrNoRows)
	ledgerRepo.On("FindByNaturalKey", mock.Anything, payment.LoanID, payment.Amount, payment.DueDate).
		Return(nil, sql.ErrNoRows)

	updated, err := svc.TogglePayment(context.Background(), payment.ID, true)

	require.NoError(t, err)
	assert.True(t, updated.Paid)
	ledgerRepo.AssertNotCalled(t, "SetPaid", mock.Anything, mock.Anything, mock.Anything)
}

func TestTogglePayment_PropagationFailureIsSwallowed(t *testing.T) {
	svc, loanRepo, ledgerRepo, _ := newSyncFixture()

	payment := unpaidPayment()
	record := &domain.LedgerRecord{ID: uuid.New(), Paid: false, LoanPaymentID: &payment.ID}

	loanRepo.On("GetPayment", mock.Anything, payment.ID).Return(payment, nil)
	loanRepo.On("UpdatePayment", mock.Anything, mock.Anything).Return(nil)
	loanRepo.On("AdjustRemainingBalance", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ledgerRepo.On("FindByPaymentRef", mock.Anything, payment.ID).Return(record, nil)
	ledgerRepo.On("SetPaid", mock.Anything, record.ID, true).Return(errors.New("connection reset"))

	updated, err := svc.TogglePayment(context.Background(), payment.ID, true)

	// The payment-side mutation stands; the ledger drift waits for reconcile.
	require.NoError(t, err)
	assert.True(t, updated.Paid)
}

func TestTogglePayment_NotFound(t *testing.T) {
	svc, loanRepo, _, _ := newSyncFixture()

	id := uuid.New()
	loanRepo.On("GetPayment", mock.Anything, id).Return(nil, sql.ErrNoRows)

	_, err := svc.TogglePayment(context.Background(), id, true)

	require.Error(t, err)
	assert.Equal(t, engineErrors.KindNotFound, engineErrors.KindOf(err))
}

func TestTogglePayment_AlreadyInState(t *testing.T) {
	svc, loanRepo, ledgerRepo, _ := newSyncFixture()

	payment := unpaidPayment()
	paidAt := time.Now()
	payment.Paid = true
	payment.PaidAt = &paidAt
	record := &domain.LedgerRecord{ID: uuid.New(), Paid: true, LoanPaymentID: &payment.ID}

	loanRepo.On("GetPayment", mock.Anything, payment.ID).Return(payment, nil)
	ledgerRepo.On("FindByPaymentRef", mock.Anything, payment.ID).Return(record, nil)

	updated, err := svc.TogglePayment(context.Background(), payment.ID, true)

	// Retry-safe: no second flag write, no balance adjustment.
	require.NoError(t, err)
	assert.True(t, updated.Paid)
	loanRepo.AssertNotCalled(t, "UpdatePayment", mock.Anything, mock.Anything)
	loanRepo.AssertNotCalled(t, "AdjustRemainingBalance", mock.Anything, mock.Anything, mock.Anything)
}

func TestReconcileAll_SyncsAndReverts(t *testing.T) {
	svc, loanRepo, ledgerRepo, _ := newSyncFixture()

	paidAt := time.Now()
	paid := unpaidPayment()
	paid.Paid = true
	paid.PaidAt = &paidAt
	unpaid := unpaidPayment()

	staleUnpaid := &domain.LedgerRecord{ID: uuid.New(), Paid: false, LoanPaymentID: &paid.ID}
	stalePaid := &domain.LedgerRecord{ID: uuid.New(), Paid: true, LoanPaymentID: &unpaid.ID}

	loanRepo.On("ListAllPayments", mock.Anything).Return([]*domain.LoanPayment{paid, unpaid}, nil)
	ledgerRepo.On("FindByPaymentRef", mock.Anything, paid.ID).Return(staleUnpaid, nil)
	ledgerRepo.On("FindByPaymentRef", mock.Anything, unpaid.ID).Return(stalePaid, nil)
	ledgerRepo.On("SetPaid", mock.Anything, staleUnpaid.ID, true).Return(nil)
	ledgerRepo.On("SetPaid", mock.Anything, stalePaid.ID, false).Return(nil)

	result, err := svc.ReconcileAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Synced)
	assert.Equal(t, 1, result.Reverted)
	ledgerRepo.AssertExpectations(t)
}

func TestReconcileAll_SecondPassReportsZeros(t *testing.T) {
	svc, loanRepo, ledgerRepo, _ := newSyncFixture()

	paidAt := time.Now()
	payment := unpaidPayment()
	payment.Paid = true
	payment.PaidAt = &paidAt
	record := &domain.LedgerRecord{ID: uuid.New(), Paid: true, LoanPaymentID: &payment.ID}

	loanRepo.On("ListAllPayments", mock.Anything).Return([]*domain.LoanPayment{payment}, nil)
	ledgerRepo.On("FindByPaymentRef", mock.Anything, payment.ID).Return(record, nil)

	result, err := svc.ReconcileAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, result.Synced)
	assert.Equal(t, 0, result.Reverted)
	ledgerRepo.AssertNotCalled(t, "SetPaid", mock.Anything, mock.Anything, mock.Anything)
}

func TestReconcileAll_RowFailureSkipsRow(t *testing.T) {
	svc, loanRepo, ledgerRepo, _ := newSyncFixture()

	paidAt := time.Now()
	broken := unpaidPayment()
	broken.Paid = true
	broken.PaidAt = &paidAt
	fine := unpaidPayment()
	fine.Paid = true
	fine.PaidAt = &paidAt
	fineRecord := &domain.LedgerRecord{ID: uuid.New(), Paid: false, LoanPaymentID: &fine.ID}

	loanRepo.On("ListAllPayments", mock.Anything).Return([]*domain.LoanPayment{broken, fine}, nil)
	ledgerRepo.On("FindByPaymentRef", mock.Anything, broken.ID).Return(nil, errors.New("timeout"))
	ledgerRepo.On("FindByPaymentRef", mock.Anything, fine.ID).Return(fineRecord, nil)
	ledgerRepo.On("SetPaid", mock.Anything, fineRecord.ID, true).Return(nil)

	result, err := svc.ReconcileAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Synced)
	assert.Equal(t, 0, result.Reverted)
}

func TestCreateLedgerRecord_StoresBackReference(t *testing.T) {
	svc, _, ledgerRepo, _ := newSyncFixture()

	loanID := uuid.New()
	paymentID := uuid.New()
	req := &domain.CreateLedgerRecordRequest{
		Direction:     domain.DirectionExpense,
		Amount:        decimal.NewFromInt(11200),
		Date:          time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC),
		LoanID:        &loanID,
		LoanPaymentID: &paymentID,
		Origin:        domain.OriginLoan,
	}

	ledgerRepo.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.LedgerRecord) bool {
		return r.LoanPaymentID != nil && *r.LoanPaymentID == paymentID
	})).Return(nil)

	record, err := svc.CreateLedgerRecord(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, domain.OriginLoan, record.Origin)
	ledgerRepo.AssertExpectations(t)
}

func TestCreateLedgerRecord_RejectsNonPositiveAmount(t *testing.T) {
	svc, _, ledgerRepo, _ := newSyncFixture()

	req := &domain.CreateLedgerRecordRequest{
		Direction: domain.DirectionIncome,
		Amount:    decimal.Zero,
		Date:      time.Now(),
	}

	_, err := svc.CreateLedgerRecord(context.Background(), req)

	require.Error(t, err)
	assert.Equal(t, engineErrors.KindValidation, engineErrors.KindOf(err))
	ledgerRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
