// Package schedule computes multi-period loan repayment schedules. It is
// pure: no storage, no clocks, no side effects.
package schedule

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/finback/loan-ledger/internal/domain"
	engineErrors "github.com/finback/loan-ledger/pkg/errors"
)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// Installment is one computed period of a schedule.
type Installment struct {
	Sequence      int
	DueDate       time.Time
	Amount        decimal.Decimal
	PrincipalPart decimal.Decimal
	InterestPart  decimal.Decimal
}

// Result is a full generated schedule plus the loan-level figures derived
// from it.
type Result struct {
	Installments   []Installment
	MonthlyPayment decimal.Decimal
	EndDate        time.Time
}

// Generate computes the repayment schedule for a loan. It rejects MANUAL
// loans outright: their rows are entered one at a time by the caller.
//
// Every monetary value is rounded to two places immediately after it is
// computed (half away from zero), so period-by-period sums reconcile to
// within one cent; the final period absorbs any residue by carrying the
// exact remaining principal.
func Generate(loan *domain.Loan) (*Result, error) {
	if err := validate(loan); err != nil {
		return nil, err
	}

	principal := loan.Principal
	n := *loan.TermMonths
	// monthlyRate = annualRatePercent / 100 / 12
	rate := loan.AnnualRate.Div(hundred).Div(twelve)

	var installments []Installment
	switch loan.ScheduleType {
	case domain.ScheduleAnnuity:
		installments = annuity(principal, rate, n)
	case domain.ScheduleDifferentiated:
		installments = differentiated(principal, rate, n)
	case domain.ScheduleInterestOnly:
		installments = interestOnly(principal, rate, n)
	}

	for i := range installments {
		installments[i].Sequence = i + 1
		installments[i].DueDate = dueDate(loan.StartDate, i+1, loan.PaymentDay)
	}

	return &Result{
		Installments:   installments,
		MonthlyPayment: installments[0].Amount,
		EndDate:        installments[len(installments)-1].DueDate,
	}, nil
}

func validate(loan *domain.Loan) error {
	if loan.ScheduleType == domain.ScheduleManual {
		return engineErrors.WrapValidation("schedule generation is not available for manual loans", engineErrors.ErrManualSchedule)
	}
	if !loan.Principal.IsPositive() {
		return engineErrors.WrapValidation("loan principal must be positive", engineErrors.ErrInvalidPrincipal)
	}
	if loan.AnnualRate == nil {
		return engineErrors.WrapValidation("annual rate is missing", engineErrors.ErrMissingRate)
	}
	if loan.TermMonths == nil {
		return engineErrors.WrapValidation("term is missing", engineErrors.ErrMissingTerm)
	}
	if *loan.TermMonths < 1 {
		return engineErrors.WrapValidation("term must be at least one month", engineErrors.ErrInvalidTerm)
	}
	if loan.PaymentDay < 1 || loan.PaymentDay > 31 {
		return engineErrors.WrapValidation("payment day is out of range", engineErrors.ErrInvalidPaymentDay)
	}
	return nil
}

// annuity keeps the total installment constant; the interest/principal split
// shifts over time. With a zero rate it degrades to equal principal slices.
func annuity(principal, rate decimal.Decimal, n int) []Installment {
	months := decimal.NewFromInt(int64(n))

	var payment decimal.Decimal
	if rate.IsZero() {
		payment = principal.Div(months).Round(2)
	} else {
		// P * r * (1+r)^n / ((1+r)^n - 1)
		growth := decimal.NewFromInt(1).Add(rate).Pow(months)
		payment = principal.Mul(rate).Mul(growth).Div(growth.Sub(decimal.NewFromInt(1))).Round(2)
	}

	installments := make([]Installment, 0, n)
	remaining := principal
	for i := 1; i <= n; i++ {
		interest := remaining.Mul(rate).Round(2)

		var principalPart, amount decimal.Decimal
		if i == n {
			// Last period carries whatever principal is left.
			principalPart = remaining
			amount = principalPart.Add(interest).Round(2)
		} else {
			principalPart = payment.Sub(interest).Round(2)
			amount = payment
		}
		remaining = remaining.Sub(principalPart).Round(2)

		installments = append(installments, Installment{
			Amount:        amount,
			PrincipalPart: principalPart,
			InterestPart:  interest,
		})
	}
	return installments
}

// differentiated keeps the principal slice constant; the total strictly
// decreases as interest accrues on a shrinking balance.
func differentiated(principal, rate decimal.Decimal, n int) []Installment {
	months := decimal.NewFromInt(int64(n))
	slice := principal.Div(months).Round(2)

	installments := make([]Installment, 0, n)
	remaining := principal
	for i := 1; i <= n; i++ {
		interest := remaining.Mul(rate).Round(2)

		principalPart := slice
		if i == n {
			principalPart = remaining
		}
		amount := principalPart.Add(interest).Round(2)
		remaining = remaining.Sub(principalPart).Round(2)

		installments = append(installments, Installment{
			Amount:        amount,
			PrincipalPart: principalPart,
			InterestPart:  interest,
		})
	}
	return installments
}

// interestOnly charges interest on the full principal every period and
// repays the entire principal as a balloon in the final one.
func interestOnly(principal, rate decimal.Decimal, n int) []Installment {
	interest := principal.Mul(rate).Round(2)

	installments := make([]Installment, 0, n)
	for i := 1; i <= n; i++ {
		inst := Installment{
			Amount:        interest,
			PrincipalPart: decimal.Zero,
			InterestPart:  interest,
		}
		if i == n {
			inst.PrincipalPart = principal
			inst.Amount = interest.Add(principal).Round(2)
		}
		installments = append(installments, inst)
	}
	return installments
}

// dueDate places installment i on startDate + i months, clamping the
// configured payment day to the last valid day of the target month.
func dueDate(start time.Time, i, paymentDay int) time.Time {
	firstOfMonth := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, start.Location())
	target := firstOfMonth.AddDate(0, i, 0)

	day := paymentDay
	if last := lastDayOfMonth(target); day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day, 0, 0, 0, 0, start.Location())
}

func lastDayOfMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).
		AddDate(0, 1, -1).Day()
}
