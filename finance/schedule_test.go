package finance

import (
	"errors"
	"testing"
	"time"

	"solarvest-backend/models"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestTotalsSimpleInterest(t *testing.T) {
	tests := []struct {
		name         string
		principal    string
		rate         string
		months       int
		wantInterest string
		wantTotal    string
	}{
		{"one year at 5 percent", "12000", "5", 12, "600.00", "12600.00"},
		{"five months at 4 percent", "1000", "4", 5, "16.67", "1016.67"},
		{"zero rate", "5000", "0", 24, "0.00", "5000.00"},
		{"three years at 7.5 percent", "20000", "7.5", 36, "4500.00", "24500.00"},
		{"single month", "100", "12", 1, "1.00", "101.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			interest, total := Totals(d(tt.principal), d(tt.rate), tt.months)
			if interest.StringFixed(2) != tt.wantInterest {
				t.Fatalf("interest: got %s, want %s", interest.StringFixed(2), tt.wantInterest)
			}
			if total.StringFixed(2) != tt.wantTotal {
				t.Fatalf("total: got %s, want %s", total.StringFixed(2), tt.wantTotal)
			}
		})
	}
}

func TestPeriodCount(t *testing.T) {
	tests := []struct {
		interval string
		months   int
		want     int
	}{
		{models.IntervalMonthly, 12, 12},
		{models.IntervalMonthly, 1, 1},
		{models.IntervalQuarterly, 12, 4},
		{models.IntervalQuarterly, 13, 5},
		{models.IntervalQuarterly, 2, 1},
		{models.IntervalAnnually, 12, 1},
		{models.IntervalAnnually, 13, 2},
		{models.IntervalAnnually, 360, 30},
	}
	for _, tt := range tests {
		if got := PeriodCount(tt.interval, tt.months); got != tt.want {
			t.Errorf("PeriodCount(%s, %d) = %d, want %d", tt.interval, tt.months, got, tt.want)
		}
	}
}

func testInvestment(principal, rate string, months int, interval string, start time.Time) *models.Investment {
	interest, total := Totals(d(principal), d(rate), months)
	end := start.AddDate(0, months, 0)
	return &models.Investment{
		ID:                1,
		Amount:            d(principal),
		DurationMonths:    months,
		InterestRate:      d(rate),
		RepaymentInterval: interval,
		TotalInterest:     interest,
		TotalRepayment:    total,
		StartDate:         &start,
		EndDate:           &end,
	}
}

func TestScheduleEvenMonthlySplit(t *testing.T) {
	start := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	inv := testInvestment("12000", "5", 12, models.IntervalMonthly, start)

	entries, err := Schedule(inv)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if len(entries) != 12 {
		t.Fatalf("expected 12 entries, got %d", len(entries))
	}
	for i, e := range entries {
		if e.Sequence != i+1 {
			t.Fatalf("entry %d: sequence %d", i, e.Sequence)
		}
		if e.Amount.StringFixed(2) != "1050.00" {
			t.Fatalf("entry %d: amount %s, want 1050.00", i, e.Amount.StringFixed(2))
		}
		if e.Interest.StringFixed(2) != "50.00" {
			t.Fatalf("entry %d: interest %s, want 50.00", i, e.Interest.StringFixed(2))
		}
		if e.Principal.StringFixed(2) != "1000.00" {
			t.Fatalf("entry %d: principal %s, want 1000.00", i, e.Principal.StringFixed(2))
		}
		want := start.AddDate(0, i+1, 0)
		if !e.DueDate.Equal(want) {
			t.Fatalf("entry %d: due %s, want %s", i, e.DueDate, want)
		}
		if e.Status != models.RepaymentPending {
			t.Fatalf("entry %d: status %s", i, e.Status)
		}
	}
	if !entries[11].DueDate.Equal(*inv.EndDate) {
		t.Fatalf("last due %s != end date %s", entries[11].DueDate, inv.EndDate)
	}
}

func TestScheduleLastEntryAbsorbsRemainder(t *testing.T) {
	start := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	inv := testInvestment("1000", "4", 5, models.IntervalMonthly, start)

	if inv.TotalRepayment.StringFixed(2) != "1016.67" {
		t.Fatalf("total repayment %s, want 1016.67", inv.TotalRepayment.StringFixed(2))
	}

	entries, err := Schedule(inv)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(entries))
	}
	for i := 0; i < 4; i++ {
		if entries[i].Amount.StringFixed(2) != "203.33" {
			t.Fatalf("entry %d: amount %s, want 203.33", i, entries[i].Amount.StringFixed(2))
		}
	}
	if entries[4].Amount.StringFixed(2) != "203.35" {
		t.Fatalf("last entry: amount %s, want 203.35", entries[4].Amount.StringFixed(2))
	}

	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Amount)
	}
	if !sum.Equal(inv.TotalRepayment) {
		t.Fatalf("schedule sums to %s, want %s", sum, inv.TotalRepayment)
	}
}

func TestScheduleSumInvariant(t *testing.T) {
	// The schedule must sum exactly to the totals for any valid terms.
	tests := []struct {
		principal string
		rate      string
		months    int
		interval  string
	}{
		{"100", "0", 1, models.IntervalMonthly},
		{"12000", "5", 12, models.IntervalMonthly},
		{"1000", "4", 5, models.IntervalMonthly},
		{"999.99", "3.33", 7, models.IntervalMonthly},
		{"50000", "6.25", 36, models.IntervalQuarterly},
		{"7500", "8", 14, models.IntervalQuarterly},
		{"100000", "4.8", 120, models.IntervalAnnually},
		{"250.50", "12.5", 13, models.IntervalAnnually},
		{"333333.33", "9.99", 359, models.IntervalMonthly},
	}
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	for _, tt := range tests {
		inv := testInvestment(tt.principal, tt.rate, tt.months, tt.interval, start)
		entries, err := Schedule(inv)
		if err != nil {
			t.Fatalf("%s/%s/%d: %v", tt.principal, tt.interval, tt.months, err)
		}
		if want := PeriodCount(tt.interval, tt.months); len(entries) != want {
			t.Fatalf("%s/%s/%d: %d entries, want %d", tt.principal, tt.interval, tt.months, len(entries), want)
		}

		sumAmount, sumInterest, sumPrincipal := decimal.Zero, decimal.Zero, decimal.Zero
		for _, e := range entries {
			sumAmount = sumAmount.Add(e.Amount)
			sumInterest = sumInterest.Add(e.Interest)
			sumPrincipal = sumPrincipal.Add(e.Principal)
			if !e.Principal.Add(e.Interest).Equal(e.Amount) {
				t.Fatalf("%s/%s/%d seq %d: principal %s + interest %s != amount %s",
					tt.principal, tt.interval, tt.months, e.Sequence, e.Principal, e.Interest, e.Amount)
			}
		}
		if !sumAmount.Equal(inv.TotalRepayment) {
			t.Fatalf("%s/%s/%d: amounts sum %s, want %s", tt.principal, tt.interval, tt.months, sumAmount, inv.TotalRepayment)
		}
		if !sumInterest.Equal(inv.TotalInterest) {
			t.Fatalf("%s/%s/%d: interest sum %s, want %s", tt.principal, tt.interval, tt.months, sumInterest, inv.TotalInterest)
		}
		if !sumPrincipal.Equal(inv.Amount) {
			t.Fatalf("%s/%s/%d: principal sum %s, want %s", tt.principal, tt.interval, tt.months, sumPrincipal, inv.Amount)
		}

		// Due dates strictly increase and the last one lands on end date.
		for i := 1; i < len(entries); i++ {
			if !entries[i-1].DueDate.Before(entries[i].DueDate) {
				t.Fatalf("%s/%s/%d: due dates not increasing at %d", tt.principal, tt.interval, tt.months, i)
			}
		}
		if !entries[len(entries)-1].DueDate.Equal(*inv.EndDate) {
			t.Fatalf("%s/%s/%d: last due %s != end %s", tt.principal, tt.interval, tt.months,
				entries[len(entries)-1].DueDate, inv.EndDate)
		}
	}
}

func TestScheduleRejectsMissingStartDate(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	inv := testInvestment("12000", "5", 12, models.IntervalMonthly, start)
	inv.StartDate = nil
	if _, err := Schedule(inv); !errors.Is(err, ErrNoStartDate) {
		t.Fatalf("expected ErrNoStartDate, got %v", err)
	}
}

func TestScheduleRejectsNonPositiveTotal(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	inv := testInvestment("12000", "5", 12, models.IntervalMonthly, start)
	inv.TotalRepayment = decimal.Zero
	if _, err := Schedule(inv); !errors.Is(err, ErrNonPositiveTotal) {
		t.Fatalf("expected ErrNonPositiveTotal, got %v", err)
	}
}
