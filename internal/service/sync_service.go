package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/finback/loan-ledger/internal/domain"
	"github.com/finback/loan-ledger/internal/repository"
	engineErrors "github.com/finback/loan-ledger/pkg/errors"
)

// SyncService keeps a loan payment row and its general ledger record, two
// independently edited views of the same cash movement, congruent on the
// paid flag.
//
// The payment-side mutation always wins: ledger propagation is best effort
// and its failures are logged, never surfaced. ReconcileAll repairs any
// drift that results.
type SyncService struct {
	loanRepo   repository.LoanRepository
	ledgerRepo repository.LedgerRepository
	audit      *auditor
	log        *logrus.Logger
}

func NewSyncService(
	loanRepo repository.LoanRepository,
	ledgerRepo repository.LedgerRepository,
	auditRepo repository.AuditRepository,
	log *logrus.Logger,
) *SyncService {
	return &SyncService{
		loanRepo:   loanRepo,
		ledgerRepo: ledgerRepo,
		audit:      newAuditor(auditRepo, log),
		log:        log,
	}
}

// TogglePayment sets a payment's paid flag, stamps or clears the paid
// timestamp on the transition, keeps the loan's remaining balance in step,
// and propagates the flag to the correlated ledger record. Safe to retry.
func (s *SyncService) TogglePayment(ctx context.Context, paymentID uuid.UUID, paid bool) (*domain.LoanPayment, error) {
	payment, err := s.loanRepo.GetPayment(ctx, paymentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, engineErrors.WrapPaymentNotFound(paymentID.String())
	}
	if err != nil {
		return nil, engineErrors.WrapStorageError(err)
	}

	if payment.Paid != paid {
		payment.Paid = paid
		if paid {
			now := time.Now()
			payment.PaidAt = &now
		} else {
			payment.PaidAt = nil
		}

		if err := s.loanRepo.UpdatePayment(ctx, payment); err != nil {
			return nil, engineErrors.WrapStorageError(err)
		}

		delta := payment.PrincipalPart.Neg()
		if !paid {
			delta = payment.PrincipalPart
		}
		if err := s.loanRepo.AdjustRemainingBalance(ctx, payment.LoanID, delta); err != nil {
			s.log.WithError(err).WithField("loan_id", payment.LoanID).Warn("remaining balance adjustment failed")
		}

		s.audit.record(ctx, domain.AuditPaymentToggled, "loan_payment", payment.ID,
			fmt.Sprintf("paid=%t", paid))
	}

	// Ledger side is best effort; the payment mutation above stands
	// regardless of what happens here.
	s.propagate(ctx, payment)

	return payment, nil
}

// propagate pushes the payment's paid flag onto its correlated ledger
// record. No correlated record is a silent no-op.
func (s *SyncService) propagate(ctx context.Context, payment *domain.LoanPayment) {
	record, err := s.findCorrelated(ctx, payment)
	if err != nil {
		s.log.WithError(err).WithField("payment_id", payment.ID).Warn("ledger lookup failed, sync skipped")
		return
	}
	if record == nil || record.Paid == payment.Paid {
		return
	}

	if err := s.ledgerRepo.SetPaid(ctx, record.ID, payment.Paid); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"payment_id": payment.ID,
			"record_id":  record.ID,
		}).Warn("ledger propagation failed, drift until next reconcile")
	}
}

// findCorrelated resolves the ledger record for a payment. The stored
// back-reference is authoritative; the loan + amount + date natural key is
// kept only as a backfill for records created before references existed,
// and a successful match persists the reference so the next lookup is exact.
func (s *SyncService) findCorrelated(ctx context.Context, payment *domain.LoanPayment) (*domain.LedgerRecord, error) {
	record, err := s.ledgerRepo.FindByPaymentRef(ctx, payment.ID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	record, err = s.ledgerRepo.FindByNaturalKey(ctx, payment.LoanID, payment.Amount, payment.DueDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := s.ledgerRepo.SetPaymentRef(ctx, record.ID, payment.ID); err != nil {
		// Link again on the next pass; the match itself still holds.
		s.log.WithError(err).WithField("record_id", record.ID).Warn("backfill link failed")
	} else {
		record.LoanPaymentID = &payment.ID
	}

	return record, nil
}

// ReconcileAll walks every payment row and forces the correlated ledger
// record to agree: paid payments mark their record paid (synced), unpaid
// payments revert theirs (reverted). Idempotent: a second consecutive pass
// reports zeros.
func (s *SyncService) ReconcileAll(ctx context.Context) (*domain.ReconcileResult, error) {
	payments, err := s.loanRepo.ListAllPayments(ctx)
	if err != nil {
		return nil, engineErrors.WrapStorageError(err)
	}

	result := &domain.ReconcileResult{}
	for _, payment := range payments {
		record, err := s.findCorrelated(ctx, payment)
		if err != nil {
			s.log.WithError(err).WithField("payment_id", payment.ID).Warn("reconcile lookup failed, row skipped")
			continue
		}
		if record == nil || record.Paid == payment.Paid {
			continue
		}

		if err := s.ledgerRepo.SetPaid(ctx, record.ID, payment.Paid); err != nil {
			s.log.WithError(err).WithField("record_id", record.ID).Warn("reconcile update failed, row skipped")
			continue
		}

		if payment.Paid {
			result.Synced++
		} else {
			result.Reverted++
		}
	}

	if result.Synced > 0 || result.Reverted > 0 {
		s.audit.record(ctx, domain.AuditReconcileRun, "ledger", uuid.Nil,
			fmt.Sprintf("synced=%d reverted=%d", result.Synced, result.Reverted))
	}

	return result, nil
}

// CreateLedgerRecord creates a general ledger entry. This is the point of
// origin: a record for a known loan installment stores its back-reference
// immediately, so later synchronization never needs the natural key.
func (s *SyncService) CreateLedgerRecord(ctx context.Context, req *domain.CreateLedgerRecordRequest) (*domain.LedgerRecord, error) {
	if !req.Amount.IsPositive() {
		return nil, engineErrors.WrapInvalidRequest("amount must be positive", nil)
	}

	origin := req.Origin
	if origin == "" {
		origin = domain.OriginManual
	}

	now := time.Now()
	record := &domain.LedgerRecord{
		ID:                uuid.New(),
		Direction:         req.Direction,
		Amount:            req.Amount.Round(2),
		Date:              req.Date,
		DueDate:           req.DueDate,
		Paid:              req.Paid,
		Description:       req.Description,
		CategoryID:        req.CategoryID,
		LegalEntityID:     req.LegalEntityID,
		BusinessUnitID:    req.BusinessUnitID,
		LoanID:            req.LoanID,
		LoanPaymentID:     req.LoanPaymentID,
		FromSafe:          req.FromSafe,
		PaidByStakeholder: req.PaidByStakeholder,
		Origin:            origin,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.ledgerRepo.Create(ctx, record); err != nil {
		return nil, engineErrors.WrapStorageError(err)
	}

	s.audit.record(ctx, domain.AuditLedgerCreated, "ledger_record", record.ID,
		fmt.Sprintf("%s %s on %s", record.Direction, record.Amount, record.Date.Format("2006-01-02")))

	return record, nil
}
