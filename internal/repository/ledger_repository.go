package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/finback/loan-ledger/internal/domain"
)

const ledgerColumns = `id, direction, amount, date, due_date, paid, description,
	category_id, legal_entity_id, business_unit_id, loan_id, loan_payment_id,
	from_safe, paid_by_stakeholder, origin, created_at, updated_at`

type ledgerRepository struct {
	db *sqlx.DB
}

func NewLedgerRepository(db *sqlx.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) Create(ctx context.Context, record *domain.LedgerRecord) error {
	query := `
		INSERT INTO ledger_records (id, direction, amount, date, due_date, paid,
			description, category_id, legal_entity_id, business_unit_id, loan_id,
			loan_payment_id, from_safe, paid_by_stakeholder, origin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.Direction,
		record.Amount,
		record.Date,
		record.DueDate,
		record.Paid,
		record.Description,
		record.CategoryID,
		record.LegalEntityID,
		record.BusinessUnitID,
		record.LoanID,
		record.LoanPaymentID,
		record.FromSafe,
		record.PaidByStakeholder,
		record.Origin,
		record.CreatedAt,
		record.UpdatedAt,
	)

	return err
}

func (r *ledgerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.LedgerRecord, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_records WHERE id = $1`

	var record domain.LedgerRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}

	return &record, nil
}

func (r *ledgerRepository) FindByPaymentRef(ctx context.Context, paymentID uuid.UUID) (*domain.LedgerRecord, error) {
	query := `SELECT ` + ledgerColumns + `
		FROM ledger_records
		WHERE loan_payment_id = $1
		ORDER BY created_at
		LIMIT 1`

	var record domain.LedgerRecord
	if err := r.db.GetContext(ctx, &record, query, paymentID); err != nil {
		return nil, err
	}

	return &record, nil
}

// FindByNaturalKey matches on loan + amount + calendar date. Only records
// without a stored back-reference qualify; first match by creation order wins.
func (r *ledgerRepository) FindByNaturalKey(ctx context.Context, loanID uuid.UUID, amount decimal.Decimal, date time.Time) (*domain.LedgerRecord, error) {
	query := `SELECT ` + ledgerColumns + `
		FROM ledger_records
		WHERE loan_id = $1 AND amount = $2 AND date = $3 AND loan_payment_id IS NULL
		ORDER BY created_at
		LIMIT 1`

	var record domain.LedgerRecord
	if err := r.db.GetContext(ctx, &record, query, loanID, amount, date); err != nil {
		return nil, err
	}

	return &record, nil
}

func (r *ledgerRepository) SetPaymentRef(ctx context.Context, recordID, paymentID uuid.UUID) error {
	query := `
		UPDATE ledger_records
		SET loan_payment_id = $2, updated_at = $3
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, recordID, paymentID, time.Now())
	return err
}

func (r *ledgerRepository) SetPaid(ctx context.Context, recordID uuid.UUID, paid bool) error {
	query := `
		UPDATE ledger_records
		SET paid = $2, updated_at = $3
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, recordID, paid, time.Now())
	return err
}

func (r *ledgerRepository) EntityIncomeTotal(ctx context.Context, entityID uuid.UUID, from time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM ledger_records
		WHERE direction = $1 AND legal_entity_id = $2 AND date >= $3
	`

	var total decimal.Decimal
	err := r.db.GetContext(ctx, &total, query, domain.DirectionIncome, entityID, from)
	if err != nil {
		return decimal.Zero, err
	}

	return total, nil
}

// EntityExpenseTotal excludes stakeholder-fronted and loan-linked expenses;
// both are carried by their own subledgers and would double-count here.
func (r *ledgerRepository) EntityExpenseTotal(ctx context.Context, entityID uuid.UUID, from time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM ledger_records
		WHERE direction = $1 AND legal_entity_id = $2 AND date >= $3
			AND paid_by_stakeholder = FALSE AND loan_id IS NULL
	`

	var total decimal.Decimal
	err := r.db.GetContext(ctx, &total, query, domain.DirectionExpense, entityID, from)
	if err != nil {
		return decimal.Zero, err
	}

	return total, nil
}

func (r *ledgerRepository) SafeExpenseTotal(ctx context.Context, from time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM ledger_records
		WHERE direction = $1 AND from_safe = TRUE AND date >= $2
	`

	var total decimal.Decimal
	err := r.db.GetContext(ctx, &total, query, domain.DirectionExpense, from)
	if err != nil {
		return decimal.Zero, err
	}

	return total, nil
}
