// Package finance holds the pure money math of the platform: simple-interest
// totals, repayment schedule generation and late fees. Nothing in here touches
// the database or the clock; callers supply state and "now".
package finance

import (
	"errors"
	"time"

	"solarvest-backend/models"

	"github.com/shopspring/decimal"
)

var (
	ErrNoStartDate      = errors.New("start date unset")
	ErrNonPositiveTotal = errors.New("total repayment must be positive")
)

var hundred = decimal.NewFromInt(100)

// Totals computes simple (non-compounding) interest for the full term:
//
//	interest = principal * rate/100 * months/12
//
// regardless of repayment interval, and returns (interest, principal+interest)
// rounded to cents.
func Totals(principal, annualRatePct decimal.Decimal, durationMonths int) (decimal.Decimal, decimal.Decimal) {
	years := decimal.NewFromInt(int64(durationMonths)).Div(decimal.NewFromInt(12))
	interest := principal.Mul(annualRatePct).Div(hundred).Mul(years).Round(2)
	return interest, principal.Add(interest)
}

// PeriodMonths returns the length of one repayment period in months.
func PeriodMonths(interval string) int {
	switch interval {
	case models.IntervalQuarterly:
		return 3
	case models.IntervalAnnually:
		return 12
	default:
		return 1
	}
}

// PeriodCount returns the number of installments for a term, with a partial
// trailing period counting as a full installment.
func PeriodCount(interval string, durationMonths int) int {
	p := PeriodMonths(interval)
	return (durationMonths + p - 1) / p
}

// Schedule turns verified investment terms into the full ordered list of
// repayment entries. It does not persist anything.
//
// Amount and interest are split evenly across periods, rounded to cents, with
// the final entry absorbing the rounding remainder so the schedule sums
// exactly to TotalRepayment and TotalInterest. The final due date is pinned to
// the investment end date rather than stepped, so interval arithmetic can
// never drift past the term.
func Schedule(inv *models.Investment) ([]models.RepaymentEntry, error) {
	if inv.StartDate == nil || inv.StartDate.IsZero() {
		return nil, ErrNoStartDate
	}
	if !inv.TotalRepayment.IsPositive() {
		return nil, ErrNonPositiveTotal
	}

	n := PeriodCount(inv.RepaymentInterval, inv.DurationMonths)
	step := PeriodMonths(inv.RepaymentInterval)
	count := decimal.NewFromInt(int64(n))

	perAmount := inv.TotalRepayment.Div(count).Round(2)
	perInterest := inv.TotalInterest.Div(count).Round(2)

	start := *inv.StartDate
	end := start.AddDate(0, inv.DurationMonths, 0)
	if inv.EndDate != nil && !inv.EndDate.IsZero() {
		end = *inv.EndDate
	}

	entries := make([]models.RepaymentEntry, 0, n)
	for seq := 1; seq <= n; seq++ {
		amount := perAmount
		interest := perInterest
		due := start.AddDate(0, step*seq, 0)
		if seq == n {
			// Last entry absorbs what even splitting left over.
			already := perAmount.Mul(decimal.NewFromInt(int64(n - 1)))
			amount = inv.TotalRepayment.Sub(already)
			interest = inv.TotalInterest.Sub(perInterest.Mul(decimal.NewFromInt(int64(n - 1))))
			due = end
		}
		entries = append(entries, models.RepaymentEntry{
			InvestmentID: inv.ID,
			Sequence:     seq,
			Amount:       amount,
			Principal:    amount.Sub(interest),
			Interest:     interest,
			DueDate:      due,
			Status:       models.RepaymentPending,
		})
	}
	return entries, nil
}

// EndDate returns start advanced by the full term.
func EndDate(start time.Time, durationMonths int) time.Time {
	return start.AddDate(0, durationMonths, 0)
}
