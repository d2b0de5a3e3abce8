package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Schedule types supported by the amortization engine. MANUAL loans have no
// generated schedule; their payment rows are created one by one.
const (
	ScheduleAnnuity        = "ANNUITY"
	ScheduleDifferentiated = "DIFFERENTIATED"
	ScheduleInterestOnly   = "INTEREST_ONLY"
	ScheduleManual         = "MANUAL"
)

// Loan represents a debt with an amortization schedule attached.
type Loan struct {
	ID               uuid.UUID        `json:"id" db:"id"`
	Name             string           `json:"name" db:"name"`
	Principal        decimal.Decimal  `json:"principal" db:"principal"`
	AnnualRate       *decimal.Decimal `json:"annual_rate" db:"annual_rate"`
	TermMonths       *int             `json:"term_months" db:"term_months"`
	ScheduleType     string           `json:"schedule_type" db:"schedule_type"`
	StartDate        time.Time        `json:"start_date" db:"start_date"`
	PaymentDay       int              `json:"payment_day" db:"payment_day"`
	RemainingBalance decimal.Decimal  `json:"remaining_balance" db:"remaining_balance"`
	MonthlyPayment   decimal.Decimal  `json:"monthly_payment" db:"monthly_payment"`
	EndDate          *time.Time       `json:"end_date" db:"end_date"`
	Active           bool             `json:"active" db:"active"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at" db:"updated_at"`
}

// IsAutomatic reports whether the loan's schedule is produced by the
// generator rather than entered by hand.
func (l *Loan) IsAutomatic() bool {
	return l.ScheduleType != ScheduleManual
}

// LoanPayment is one installment of a loan. Rows are created in bulk by
// schedule generation or singly by manual entry; regeneration deletes only
// unpaid rows.
type LoanPayment struct {
	ID            uuid.UUID        `json:"id" db:"id"`
	LoanID        uuid.UUID        `json:"loan_id" db:"loan_id"`
	Amount        decimal.Decimal  `json:"amount" db:"amount"`
	PrincipalPart decimal.Decimal  `json:"principal_part" db:"principal_part"`
	InterestPart  *decimal.Decimal `json:"interest_part" db:"interest_part"`
	DueDate       time.Time        `json:"due_date" db:"due_date"`
	Paid          bool             `json:"paid" db:"paid"`
	PaidAt        *time.Time       `json:"paid_at" db:"paid_at"`
	Comment       string           `json:"comment" db:"comment"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
}

// DTOs for requests and responses

type CreateLoanRequest struct {
	Name         string           `json:"name" validate:"required"`
	Principal    decimal.Decimal  `json:"principal" validate:"required"`
	AnnualRate   *decimal.Decimal `json:"annual_rate"`
	TermMonths   *int             `json:"term_months"`
	ScheduleType string           `json:"schedule_type" validate:"required,oneof=ANNUITY DIFFERENTIATED INTEREST_ONLY MANUAL"`
	StartDate    time.Time        `json:"start_date" validate:"required"`
	PaymentDay   int              `json:"payment_day" validate:"required,min=1,max=31"`
}

type CreateManualPaymentRequest struct {
	Amount        decimal.Decimal  `json:"amount" validate:"required"`
	DueDate       time.Time        `json:"due_date" validate:"required"`
	PrincipalPart *decimal.Decimal `json:"principal_part"`
	InterestPart  *decimal.Decimal `json:"interest_part"`
	Paid          bool             `json:"paid"`
	Comment       string           `json:"comment"`
}

// UpdatePaymentRequest carries a partial update; nil fields are untouched.
type UpdatePaymentRequest struct {
	Amount        *decimal.Decimal `json:"amount"`
	PrincipalPart *decimal.Decimal `json:"principal_part"`
	InterestPart  *decimal.Decimal `json:"interest_part"`
	DueDate       *time.Time       `json:"due_date"`
	Paid          *bool            `json:"paid"`
	Comment       *string          `json:"comment"`
}

type GenerateScheduleResponse struct {
	Loan     *Loan          `json:"loan"`
	Payments []*LoanPayment `json:"payments"`
}
