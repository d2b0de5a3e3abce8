package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ledger record directions.
const (
	DirectionIncome  = "INCOME"
	DirectionExpense = "EXPENSE"
)

// Well-known origins for ledger records.
const (
	OriginManual  = "manual"
	OriginPayroll = "payroll"
	OriginLoan    = "loan"
	OriginImport  = "import"
)

// LedgerRecord is a general bookkeeping entry for one cash movement. A record
// for a loan installment carries a stored back-reference to the payment row
// (LoanPaymentID); records created before back-references existed are linked
// lazily by natural-key backfill during synchronization.
type LedgerRecord struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	Direction         string          `json:"direction" db:"direction"`
	Amount            decimal.Decimal `json:"amount" db:"amount"`
	Date              time.Time       `json:"date" db:"date"`
	DueDate           *time.Time      `json:"due_date" db:"due_date"`
	Paid              bool            `json:"paid" db:"paid"`
	Description       string          `json:"description" db:"description"`
	CategoryID        *uuid.UUID      `json:"category_id" db:"category_id"`
	LegalEntityID     *uuid.UUID      `json:"legal_entity_id" db:"legal_entity_id"`
	BusinessUnitID    *uuid.UUID      `json:"business_unit_id" db:"business_unit_id"`
	LoanID            *uuid.UUID      `json:"loan_id" db:"loan_id"`
	LoanPaymentID     *uuid.UUID      `json:"loan_payment_id" db:"loan_payment_id"`
	FromSafe          bool            `json:"from_safe" db:"from_safe"`
	PaidByStakeholder bool            `json:"paid_by_stakeholder" db:"paid_by_stakeholder"`
	Origin            string          `json:"origin" db:"origin"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

// LegalEntity is an accounting unit with its own running balance. Ledger
// activity dated before EffectiveFrom never counts toward the balance.
type LegalEntity struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	Name           string          `json:"name" db:"name"`
	InitialBalance decimal.Decimal `json:"initial_balance" db:"initial_balance"`
	EffectiveFrom  time.Time       `json:"effective_from" db:"effective_from"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// SafeSettings is the optional singleton configuring the shared cash reserve.
// Absence is a defined state: balances over a missing reserve are zero.
type SafeSettings struct {
	InitialBalance decimal.Decimal `json:"initial_balance" db:"initial_balance"`
	EffectiveFrom  time.Time       `json:"effective_from" db:"effective_from"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

type CreateLedgerRecordRequest struct {
	Direction         string          `json:"direction" validate:"required,oneof=INCOME EXPENSE"`
	Amount            decimal.Decimal `json:"amount" validate:"required"`
	Date              time.Time       `json:"date" validate:"required"`
	DueDate           *time.Time      `json:"due_date"`
	Paid              bool            `json:"paid"`
	Description       string          `json:"description"`
	CategoryID        *uuid.UUID      `json:"category_id"`
	LegalEntityID     *uuid.UUID      `json:"legal_entity_id"`
	BusinessUnitID    *uuid.UUID      `json:"business_unit_id"`
	LoanID            *uuid.UUID      `json:"loan_id"`
	LoanPaymentID     *uuid.UUID      `json:"loan_payment_id"`
	FromSafe          bool            `json:"from_safe"`
	PaidByStakeholder bool            `json:"paid_by_stakeholder"`
	Origin            string          `json:"origin"`
}

// ReconcileResult reports what a reconciliation pass changed. A second
// consecutive pass over an unchanged ledger reports zeros.
type ReconcileResult struct {
	Synced   int `json:"synced"`
	Reverted int `json:"reverted"`
}

type BalanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}
