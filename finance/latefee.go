package finance

import (
	"os"
	"strconv"
	"time"

	"solarvest-backend/models"

	"github.com/shopspring/decimal"
)

// FeePolicy parameterizes late fees: a flat charge plus a daily percentage of
// the entry amount, applied after a grace period. The formula is product
// policy, not a scheduling invariant, so it stays configurable.
type FeePolicy struct {
	Flat      decimal.Decimal
	DailyPct  decimal.Decimal
	GraceDays int
}

// DefaultFeePolicy charges 5.00 flat plus 0.1% of the entry amount per
// overdue day, with no grace period.
func DefaultFeePolicy() FeePolicy {
	return FeePolicy{
		Flat:      decimal.NewFromInt(5),
		DailyPct:  decimal.NewFromFloat(0.1),
		GraceDays: 0,
	}
}

// PolicyFromEnv reads LATE_FEE_FLAT, LATE_FEE_DAILY_PCT and
// LATE_FEE_GRACE_DAYS, falling back to the default policy per key.
func PolicyFromEnv() FeePolicy {
	p := DefaultFeePolicy()
	if v := os.Getenv("LATE_FEE_FLAT"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil && !d.IsNegative() {
			p.Flat = d
		}
	}
	if v := os.Getenv("LATE_FEE_DAILY_PCT"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil && !d.IsNegative() {
			p.DailyPct = d
		}
	}
	if v := os.Getenv("LATE_FEE_GRACE_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			p.GraceDays = n
		}
	}
	return p
}

// DaysOverdue returns whole days elapsed since due, zero if due is in the
// future.
func DaysOverdue(due, now time.Time) int {
	if !due.Before(now) {
		return 0
	}
	return int(now.Sub(due).Hours() / 24)
}

// LateFee computes the fee owed on an entry at now. Paid entries and entries
// not yet due owe nothing. Never stored: "now" advances, so the value is
// recomputed on every read.
func (p FeePolicy) LateFee(entry *models.RepaymentEntry, now time.Time) decimal.Decimal {
	if entry.Status == models.RepaymentPaid || !entry.DueDate.Before(now) {
		return decimal.Zero
	}
	days := DaysOverdue(entry.DueDate, now)
	if days <= p.GraceDays {
		return decimal.Zero
	}
	daily := entry.Amount.Mul(p.DailyPct).Div(hundred).Mul(decimal.NewFromInt(int64(days)))
	return p.Flat.Add(daily).Round(2)
}
