package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finback/loan-ledger/internal/domain"
)

// These tests need a live Postgres; point TEST_DATABASE_URL at one to run
// them.
func testDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration tests")
	}

	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	schema, err := os.ReadFile(filepath.Join("..", "..", "migrations", "001_init.sql"))
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)

	_, err = db.Exec(`TRUNCATE ledger_records, loan_payments, loans, legal_entities, safe_settings, audit_log`)
	require.NoError(t, err)

	return db
}

func seedLoan(t *testing.T, repo LoanRepository) *domain.Loan {
	t.Helper()

	rate := decimal.NewFromInt(12)
	term := 12
	now := time.Now()
	loan := &domain.Loan{
		ID:               uuid.New(),
		Name:             "fleet loan",
		Principal:        decimal.NewFromInt(120000),
		AnnualRate:       &rate,
		TermMonths:       &term,
		ScheduleType:     domain.ScheduleAnnuity,
		StartDate:        time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		PaymentDay:       5,
		RemainingBalance: decimal.NewFromInt(120000),
		MonthlyPayment:   decimal.Zero,
		Active:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	require.NoError(t, repo.CreateLoan(context.Background(), loan))
	return loan
}

func installment(loan *domain.Loan, amount int64, due time.Time, paid bool) *domain.LoanPayment {
	p := &domain.LoanPayment{
		ID:            uuid.New(),
		LoanID:        loan.ID,
		Amount:        decimal.NewFromInt(amount),
		PrincipalPart: decimal.NewFromInt(amount),
		DueDate:       due,
		Paid:          paid,
		CreatedAt:     time.Now(),
	}
	if paid {
		now := time.Now()
		p.PaidAt = &now
	}
	return p
}

func TestReplaceSchedule_PreservesPaidRows(t *testing.T) {
	db := testDB(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()

	loan := seedLoan(t, repo)

	paid := installment(loan, 10000, time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC), true)
	unpaid := installment(loan, 10000, time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC), false)
	require.NoError(t, repo.CreatePayment(ctx, paid))
	require.NoError(t, repo.CreatePayment(ctx, unpaid))

	replacement := []*domain.LoanPayment{
		installment(loan, 11000, time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC), false),
		installment(loan, 11000, time.Date(2025, 4, 5, 0, 0, 0, 0, time.UTC), false),
	}
	loan.MonthlyPayment = decimal.NewFromInt(11000)
	endDate := replacement[1].DueDate
	loan.EndDate = &endDate

	require.NoError(t, repo.ReplaceSchedule(ctx, loan, replacement))

	payments, err := repo.ListPayments(ctx, loan.ID)
	require.NoError(t, err)
	require.Len(t, payments, 3)

	// The paid row survived; the old unpaid row is gone.
	ids := make(map[uuid.UUID]bool)
	for _, p := range payments {
		ids[p.ID] = true
	}
	assert.True(t, ids[paid.ID])
	assert.False(t, ids[unpaid.ID])

	got, err := repo.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.True(t, got.MonthlyPayment.Equal(decimal.NewFromInt(11000)))
	require.NotNil(t, got.EndDate)
}

func TestFindByNaturalKey_SkipsLinkedRecords(t *testing.T) {
	db := testDB(t)
	loanRepo := NewLoanRepository(db)
	ledgerRepo := NewLedgerRepository(db)
	ctx := context.Background()

	loan := seedLoan(t, loanRepo)
	payment := installment(loan, 11200, time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC), false)
	require.NoError(t, loanRepo.CreatePayment(ctx, payment))

	date := time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC)
	amount := decimal.NewFromInt(11200)

	linked := &domain.LedgerRecord{
		ID:            uuid.New(),
		Direction:     domain.DirectionExpense,
		Amount:        amount,
		Date:          date,
		LoanID:        &loan.ID,
		LoanPaymentID: &payment.ID,
		Origin:        domain.OriginLoan,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	orphan := &domain.LedgerRecord{
		ID:        uuid.New(),
		Direction: domain.DirectionExpense,
		Amount:    amount,
		Date:      date,
		LoanID:    &loan.ID,
		Origin:    domain.OriginImport,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, ledgerRepo.Create(ctx, linked))
	require.NoError(t, ledgerRepo.Create(ctx, orphan))

	// Natural-key lookup is a backfill path: records that already carry a
	// back-reference must not be rematched.
	found, err := ledgerRepo.FindByNaturalKey(ctx, loan.ID, amount, date)
	require.NoError(t, err)
	assert.Equal(t, orphan.ID, found.ID)

	found, err = ledgerRepo.FindByPaymentRef(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, linked.ID, found.ID)
}

func TestEntityAggregates_ApplyExclusions(t *testing.T) {
	db := testDB(t)
	loanRepo := NewLoanRepository(db)
	ledgerRepo := NewLedgerRepository(db)
	entityRepo := NewEntityRepository(db)
	ctx := context.Background()

	loan := seedLoan(t, loanRepo)
	entity := &domain.LegalEntity{
		ID:             uuid.New(),
		Name:           "FinBack OÜ",
		InitialBalance: decimal.NewFromInt(100000),
		EffectiveFrom:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		CreatedAt:      time.Now(),
	}
	require.NoError(t, entityRepo.CreateEntity(ctx, entity))

	feb := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	records := []*domain.LedgerRecord{
		{ID: uuid.New(), Direction: domain.DirectionIncome, Amount: decimal.NewFromInt(5000), Date: feb, LegalEntityID: &entity.ID},
		{ID: uuid.New(), Direction: domain.DirectionExpense, Amount: decimal.NewFromInt(2000), Date: feb, LegalEntityID: &entity.ID},
		// Stakeholder-fronted: excluded from the expense sum.
		{ID: uuid.New(), Direction: domain.DirectionExpense, Amount: decimal.NewFromInt(3000), Date: feb, LegalEntityID: &entity.ID, PaidByStakeholder: true},
		// Loan-linked: excluded from the expense sum.
		{ID: uuid.New(), Direction: domain.DirectionExpense, Amount: decimal.NewFromInt(4000), Date: feb, LegalEntityID: &entity.ID, LoanID: &loan.ID},
		// Before the effective date: excluded everywhere.
		{ID: uuid.New(), Direction: domain.DirectionIncome, Amount: decimal.NewFromInt(9000), Date: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), LegalEntityID: &entity.ID},
	}
	for _, r := range records {
		r.Origin = domain.OriginManual
		r.CreatedAt = time.Now()
		r.UpdatedAt = time.Now()
		require.NoError(t, ledgerRepo.Create(ctx, r))
	}

	income, err := ledgerRepo.EntityIncomeTotal(ctx, entity.ID, entity.EffectiveFrom)
	require.NoError(t, err)
	assert.True(t, income.Equal(decimal.NewFromInt(5000)), "income %s", income)

	expense, err := ledgerRepo.EntityExpenseTotal(ctx, entity.ID, entity.EffectiveFrom)
	require.NoError(t, err)
	assert.True(t, expense.Equal(decimal.NewFromInt(2000)), "expense %s", expense)
}

func TestSafeExpenseTotal_EffectiveDateCut(t *testing.T) {
	db := testDB(t)
	ledgerRepo := NewLedgerRepository(db)
	entityRepo := NewEntityRepository(db)
	ctx := context.Background()

	settings := &domain.SafeSettings{
		InitialBalance: decimal.NewFromInt(50000),
		EffectiveFrom:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, entityRepo.SaveSafeSettings(ctx, settings))

	before := &domain.LedgerRecord{
		ID: uuid.New(), Direction: domain.DirectionExpense, Amount: decimal.NewFromInt(1000),
		Date: time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC), FromSafe: true,
		Origin: domain.OriginManual, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	after := &domain.LedgerRecord{
		ID: uuid.New(), Direction: domain.DirectionExpense, Amount: decimal.NewFromInt(1000),
		Date: time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC), FromSafe: true,
		Origin: domain.OriginManual, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	require.NoError(t, ledgerRepo.Create(ctx, before))
	require.NoError(t, ledgerRepo.Create(ctx, after))

	total, err := ledgerRepo.SafeExpenseTotal(ctx, settings.EffectiveFrom)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(1000)), "total %s", total)

	loaded, err := entityRepo.GetSafeSettings(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.True(t, loaded.InitialBalance.Sub(total).Equal(decimal.NewFromInt(49000)))
}

func TestGetSafeSettings_AbsentSingleton(t *testing.T) {
	db := testDB(t)
	entityRepo := NewEntityRepository(db)

	settings, err := entityRepo.GetSafeSettings(context.Background())
	require.NoError(t, err)
	assert.Nil(t, settings)
}
