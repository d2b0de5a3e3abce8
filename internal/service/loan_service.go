package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/finback/loan-ledger/internal/domain"
	"github.com/finback/loan-ledger/internal/repository"
	"github.com/finback/loan-ledger/internal/schedule"
	engineErrors "github.com/finback/loan-ledger/pkg/errors"
)

// LoanService owns the loan and installment lifecycle: schedule generation,
// manual rows, updates and deletion.
type LoanService struct {
	loanRepo repository.LoanRepository
	sync     *SyncService
	audit    *auditor
	log      *logrus.Logger
}

func NewLoanService(
	loanRepo repository.LoanRepository,
	sync *SyncService,
	auditRepo repository.AuditRepository,
	log *logrus.Logger,
) *LoanService {
	return &LoanService{
		loanRepo: loanRepo,
		sync:     sync,
		audit:    newAuditor(auditRepo, log),
		log:      log,
	}
}

// CreateLoan registers a loan. Automatic schedule types require rate and
// term up front; MANUAL loans may omit both.
func (s *LoanService) CreateLoan(ctx context.Context, req *domain.CreateLoanRequest) (*domain.Loan, error) {
	if !req.Principal.IsPositive() {
		return nil, engineErrors.WrapValidation("loan principal must be positive", engineErrors.ErrInvalidPrincipal)
	}
	if req.ScheduleType != domain.ScheduleManual {
		if req.AnnualRate == nil {
			return nil, engineErrors.WrapValidation("annual rate is required", engineErrors.ErrMissingRate)
		}
		if req.TermMonths == nil {
			return nil, engineErrors.WrapValidation("term is required", engineErrors.ErrMissingTerm)
		}
		if *req.TermMonths < 1 {
			return nil, engineErrors.WrapValidation("term must be at least one month", engineErrors.ErrInvalidTerm)
		}
	}
	if req.PaymentDay < 1 || req.PaymentDay > 31 {
		return nil, engineErrors.WrapValidation("payment day is out of range", engineErrors.ErrInvalidPaymentDay)
	}

	now := time.Now()
	loan := &domain.Loan{
		ID:               uuid.New(),
		Name:             req.Name,
		Principal:        req.Principal,
		AnnualRate:       req.AnnualRate,
		TermMonths:       req.TermMonths,
		ScheduleType:     req.ScheduleType,
		StartDate:        req.StartDate,
		PaymentDay:       req.PaymentDay,
		RemainingBalance: req.Principal,
		MonthlyPayment:   decimal.Zero,
		Active:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.loanRepo.CreateLoan(ctx, loan); err != nil {
		return nil, engineErrors.WrapStorageError(err)
	}

	return loan, nil
}

// GetLoan retrieves a loan by id.
func (s *LoanService) GetLoan(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	loan, err := s.loanRepo.GetLoan(ctx, loanID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, engineErrors.WrapLoanNotFound(loanID.String())
	}
	if err != nil {
		return nil, engineErrors.WrapStorageError(err)
	}
	return loan, nil
}

// ListPayments returns a loan's payment rows ordered by due date.
func (s *LoanService) ListPayments(ctx context.Context, loanID uuid.UUID) ([]*domain.LoanPayment, error) {
	if _, err := s.GetLoan(ctx, loanID); err != nil {
		return nil, err
	}

	payments, err := s.loanRepo.ListPayments(ctx, loanID)
	if err != nil {
		return nil, engineErrors.WrapStorageError(err)
	}
	return payments, nil
}

// GenerateSchedule computes and persists the loan's amortization schedule.
// Existing unpaid rows are dropped and replaced in one transaction; paid rows
// are left untouched and stay interleaved by due date with the new rows.
// The loan's monthly payment, end date and remaining balance are updated as
// part of the same unit of work.
func (s *LoanService) GenerateSchedule(ctx context.Context, loanID uuid.UUID) (*domain.GenerateScheduleResponse, error) {
	loan, err := s.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	result, err := schedule.Generate(loan)
	if err != nil {
		return nil, err
	}

	existing, err := s.loanRepo.ListPayments(ctx, loanID)
	if err != nil {
		return nil, engineErrors.WrapStorageError(err)
	}
	paidPrincipal := decimal.Zero
	for _, p := range existing {
		if p.Paid {
			paidPrincipal = paidPrincipal.Add(p.PrincipalPart)
		}
	}

	now := time.Now()
	payments := make([]*domain.LoanPayment, 0, len(result.Installments))
	for _, inst := range result.Installments {
		interest := inst.InterestPart
		payments = append(payments, &domain.LoanPayment{
			ID:            uuid.New(),
			LoanID:        loan.ID,
			Amount:        inst.Amount,
			PrincipalPart: inst.PrincipalPart,
			InterestPart:  &interest,
			DueDate:       inst.DueDate,
			CreatedAt:     now,
		})
	}

	loan.MonthlyPayment = result.MonthlyPayment
	endDate := result.EndDate
	loan.EndDate = &endDate
	loan.RemainingBalance = loan.Principal.Sub(paidPrincipal)

	if err := s.loanRepo.ReplaceSchedule(ctx, loan, payments); err != nil {
		return nil, engineErrors.WrapStorageError(err)
	}

	s.audit.record(ctx, domain.AuditScheduleGenerated, "loan", loan.ID,
		fmt.Sprintf("%d installments, monthly payment %s", len(payments), loan.MonthlyPayment))

	return &domain.GenerateScheduleResponse{Loan: loan, Payments: payments}, nil
}

// CreateManualPayment creates a single installment row. When the principal
// split is not supplied the whole amount is treated as principal.
func (s *LoanService) CreateManualPayment(ctx context.Context, loanID uuid.UUID, req *domain.CreateManualPaymentRequest) (*domain.LoanPayment, error) {
	if !req.Amount.IsPositive() {
		return nil, engineErrors.WrapInvalidRequest("payment amount must be positive", nil)
	}

	loan, err := s.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	principalPart := req.Amount
	if req.PrincipalPart != nil {
		principalPart = *req.PrincipalPart
	}

	now := time.Now()
	payment := &domain.LoanPayment{
		ID:            uuid.New(),
		LoanID:        loan.ID,
		Amount:        req.Amount.Round(2),
		PrincipalPart: principalPart.Round(2),
		InterestPart:  req.InterestPart,
		DueDate:       req.DueDate,
		Paid:          req.Paid,
		Comment:       req.Comment,
		CreatedAt:     now,
	}
	if req.Paid {
		payment.PaidAt = &now
	}

	if err := s.loanRepo.CreatePayment(ctx, payment); err != nil {
		return nil, engineErrors.WrapStorageError(err)
	}

	if payment.Paid {
		if err := s.loanRepo.AdjustRemainingBalance(ctx, loan.ID, payment.PrincipalPart.Neg()); err != nil {
			s.log.WithError(err).WithField("loan_id", loan.ID).Warn("remaining balance adjustment failed")
		}
	}

	s.audit.record(ctx, domain.AuditPaymentCreated, "loan_payment", payment.ID,
		fmt.Sprintf("manual payment %s due %s", payment.Amount, payment.DueDate.Format("2006-01-02")))

	return payment, nil
}

// UpdatePayment applies a partial update. A change of the paid flag goes
// through the synchronizer so the correlated ledger record follows.
func (s *LoanService) UpdatePayment(ctx context.Context, paymentID uuid.UUID, req *domain.UpdatePaymentRequest) (*domain.LoanPayment, error) {
	payment, err := s.loanRepo.GetPayment(ctx, paymentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, engineErrors.WrapPaymentNotFound(paymentID.String())
	}
	if err != nil {
		return nil, engineErrors.WrapStorageError(err)
	}

	if req.Amount != nil {
		if !req.Amount.IsPositive() {
			return nil, engineErrors.WrapInvalidRequest("payment amount must be positive", nil)
		}
		payment.Amount = req.Amount.Round(2)
	}
	if req.PrincipalPart != nil {
		payment.PrincipalPart = req.PrincipalPart.Round(2)
	}
	if req.InterestPart != nil {
		payment.InterestPart = req.InterestPart
	}
	if req.DueDate != nil {
		payment.DueDate = *req.DueDate
	}
	if req.Comment != nil {
		payment.Comment = *req.Comment
	}

	if err := s.loanRepo.UpdatePayment(ctx, payment); err != nil {
		return nil, engineErrors.WrapStorageError(err)
	}

	if req.Paid != nil && *req.Paid != payment.Paid {
		payment, err = s.sync.TogglePayment(ctx, paymentID, *req.Paid)
		if err != nil {
			return nil, err
		}
	}

	s.audit.record(ctx, domain.AuditPaymentUpdated, "loan_payment", payment.ID, "payment fields updated")

	return payment, nil
}

// DeletePayment removes a payment row. Deleting a paid row returns its
// principal part to the loan's remaining balance.
func (s *LoanService) DeletePayment(ctx context.Context, paymentID uuid.UUID) error {
	payment, err := s.loanRepo.GetPayment(ctx, paymentID)
	if errors.Is(err, sql.ErrNoRows) {
		return engineErrors.WrapPaymentNotFound(paymentID.String())
	}
	if err != nil {
		return engineErrors.WrapStorageError(err)
	}

	if err := s.loanRepo.DeletePayment(ctx, paymentID); err != nil {
		return engineErrors.WrapStorageError(err)
	}

	if payment.Paid {
		if err := s.loanRepo.AdjustRemainingBalance(ctx, payment.LoanID, payment.PrincipalPart); err != nil {
			s.log.WithError(err).WithField("loan_id", payment.LoanID).Warn("remaining balance adjustment failed")
		}
	}

	s.audit.record(ctx, domain.AuditPaymentDeleted, "loan_payment", paymentID, "payment deleted")

	return nil
}
