package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/finback/loan-ledger/internal/domain"
)

type loanRepository struct {
	db *sqlx.DB
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) CreateLoan(ctx context.Context, loan *domain.Loan) error {
	query := `
		INSERT INTO loans (id, name, principal, annual_rate, term_months, schedule_type,
			start_date, payment_day, remaining_balance, monthly_payment, end_date, active,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(ctx, query,
		loan.ID,
		loan.Name,
		loan.Principal,
		loan.AnnualRate,
		loan.TermMonths,
		loan.ScheduleType,
		loan.StartDate,
		loan.PaymentDay,
		loan.RemainingBalance,
		loan.MonthlyPayment,
		loan.EndDate,
		loan.Active,
		loan.CreatedAt,
		loan.UpdatedAt,
	)

	return err
}

func (r *loanRepository) GetLoan(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	query := `
		SELECT id, name, principal, annual_rate, term_months, schedule_type,
			start_date, payment_day, remaining_balance, monthly_payment, end_date, active,
			created_at, updated_at
		FROM loans
		WHERE id = $1
	`

	var loan domain.Loan
	if err := r.db.GetContext(ctx, &loan, query, id); err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) UpdateLoan(ctx context.Context, loan *domain.Loan) error {
	query := `
		UPDATE loans
		SET name = $2, principal = $3, annual_rate = $4, term_months = $5,
			schedule_type = $6, start_date = $7, payment_day = $8,
			remaining_balance = $9, monthly_payment = $10, end_date = $11,
			active = $12, updated_at = $13
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		loan.ID,
		loan.Name,
		loan.Principal,
		loan.AnnualRate,
		loan.TermMonths,
		loan.ScheduleType,
		loan.StartDate,
		loan.PaymentDay,
		loan.RemainingBalance,
		loan.MonthlyPayment,
		loan.EndDate,
		loan.Active,
		time.Now(),
	)

	return err
}

// ReplaceSchedule runs the regeneration unit of work in one transaction:
// unpaid rows out, new rows in, loan computed fields updated. Paid rows are
// never touched.
func (r *loanRepository) ReplaceSchedule(ctx context.Context, loan *domain.Loan, payments []*domain.LoanPayment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM loan_payments WHERE loan_id = $1 AND paid = FALSE`,
		loan.ID,
	); err != nil {
		return err
	}

	insert := `
		INSERT INTO loan_payments (id, loan_id, amount, principal_part, interest_part,
			due_date, paid, paid_at, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	for _, p := range payments {
		if _, err = tx.ExecContext(ctx, insert,
			p.ID,
			p.LoanID,
			p.Amount,
			p.PrincipalPart,
			p.InterestPart,
			p.DueDate,
			p.Paid,
			p.PaidAt,
			p.Comment,
			p.CreatedAt,
		); err != nil {
			return err
		}
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE loans
		 SET monthly_payment = $2, end_date = $3, remaining_balance = $4, updated_at = $5
		 WHERE id = $1`,
		loan.ID,
		loan.MonthlyPayment,
		loan.EndDate,
		loan.RemainingBalance,
		time.Now(),
	); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *loanRepository) CreatePayment(ctx context.Context, payment *domain.LoanPayment) error {
	query := `
		INSERT INTO loan_payments (id, loan_id, amount, principal_part, interest_part,
			due_date, paid, paid_at, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		payment.ID,
		payment.LoanID,
		payment.Amount,
		payment.PrincipalPart,
		payment.InterestPart,
		payment.DueDate,
		payment.Paid,
		payment.PaidAt,
		payment.Comment,
		payment.CreatedAt,
	)

	return err
}

func (r *loanRepository) GetPayment(ctx context.Context, id uuid.UUID) (*domain.LoanPayment, error) {
	query := `
		SELECT id, loan_id, amount, principal_part, interest_part, due_date,
			paid, paid_at, comment, created_at
		FROM loan_payments
		WHERE id = $1
	`

	var payment domain.LoanPayment
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *loanRepository) ListPayments(ctx context.Context, loanID uuid.UUID) ([]*domain.LoanPayment, error) {
	query := `
		SELECT id, loan_id, amount, principal_part, interest_part, due_date,
			paid, paid_at, comment, created_at
		FROM loan_payments
		WHERE loan_id = $1
		ORDER BY due_date, created_at
	`

	var payments []*domain.LoanPayment
	if err := r.db.SelectContext(ctx, &payments, query, loanID); err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *loanRepository) ListAllPayments(ctx context.Context) ([]*domain.LoanPayment, error) {
	query := `
		SELECT id, loan_id, amount, principal_part, interest_part, due_date,
			paid, paid_at, comment, created_at
		FROM loan_payments
		ORDER BY loan_id, due_date
	`

	var payments []*domain.LoanPayment
	if err := r.db.SelectContext(ctx, &payments, query); err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *loanRepository) UpdatePayment(ctx context.Context, payment *domain.LoanPayment) error {
	query := `
		UPDATE loan_payments
		SET amount = $2, principal_part = $3, interest_part = $4, due_date = $5,
			paid = $6, paid_at = $7, comment = $8
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		payment.ID,
		payment.Amount,
		payment.PrincipalPart,
		payment.InterestPart,
		payment.DueDate,
		payment.Paid,
		payment.PaidAt,
		payment.Comment,
	)

	return err
}

func (r *loanRepository) DeletePayment(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM loan_payments WHERE id = $1`, id)
	return err
}

func (r *loanRepository) AdjustRemainingBalance(ctx context.Context, loanID uuid.UUID, delta decimal.Decimal) error {
	query := `
		UPDATE loans
		SET remaining_balance = remaining_balance + $2, updated_at = $3
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, loanID, delta, time.Now())
	return err
}
