package services

import (
	"errors"
	"testing"

	"solarvest-backend/models"

	"github.com/shopspring/decimal"
)

func TestCreateComputesTotals(t *testing.T) {
	db := newTestDB(t)
	inv, _ := seedInvestment(t, db)

	if inv.TotalInterest.StringFixed(2) != "600.00" {
		t.Fatalf("total interest %s, want 600.00", inv.TotalInterest.StringFixed(2))
	}
	if inv.TotalRepayment.StringFixed(2) != "12600.00" {
		t.Fatalf("total repayment %s, want 12600.00", inv.TotalRepayment.StringFixed(2))
	}
	if inv.Status != models.InvestmentPending {
		t.Fatalf("status %s, want pending", inv.Status)
	}
	if inv.Verified {
		t.Fatal("new investment must not be verified")
	}
}

func TestCreateValidatesTerms(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "investor@example.com", models.RoleInvestor)
	plant := seedPlant(t, db)
	svc := NewInvestmentService(db, nil)

	base := CreateInvestmentInput{
		UserID:            user.Id,
		PlantID:           plant.Id,
		Amount:            decimal.NewFromInt(1000),
		DurationMonths:    12,
		InterestRate:      decimal.NewFromInt(5),
		RepaymentInterval: models.IntervalMonthly,
	}

	tests := []struct {
		name   string
		mutate func(*CreateInvestmentInput)
		want   error
	}{
		{"amount below minimum", func(in *CreateInvestmentInput) { in.Amount = decimal.NewFromInt(99) }, ErrAmountTooSmall},
		{"zero duration", func(in *CreateInvestmentInput) { in.DurationMonths = 0 }, ErrBadDuration},
		{"duration too long", func(in *CreateInvestmentInput) { in.DurationMonths = 361 }, ErrBadDuration},
		{"negative rate", func(in *CreateInvestmentInput) { in.InterestRate = decimal.NewFromInt(-1) }, ErrBadInterestRate},
		{"rate above 100", func(in *CreateInvestmentInput) { in.InterestRate = decimal.NewFromInt(101) }, ErrBadInterestRate},
		{"unknown interval", func(in *CreateInvestmentInput) { in.RepaymentInterval = "weekly" }, ErrBadInterval},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)
			_, err := svc.Create(in)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("%v must belong to the validation class", err)
			}
		})
	}
}

func TestCreateRejectsUnknownPlant(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "investor@example.com", models.RoleInvestor)
	svc := NewInvestmentService(db, nil)

	_, err := svc.Create(CreateInvestmentInput{
		UserID:            user.Id,
		PlantID:           4242,
		Amount:            decimal.NewFromInt(1000),
		DurationMonths:    12,
		InterestRate:      decimal.NewFromInt(5),
		RepaymentInterval: models.IntervalMonthly,
	})
	if !errors.Is(err, ErrPlantNotFound) {
		t.Fatalf("got %v, want ErrPlantNotFound", err)
	}
}

func TestUpdateTermsRecomputesTotals(t *testing.T) {
	db := newTestDB(t)
	inv, svc := seedInvestment(t, db)

	months := 5
	amount := decimal.NewFromInt(1000)
	rate := decimal.NewFromInt(4)
	updated, err := svc.UpdateTerms(inv.ID, TermsPatch{
		Amount:         &amount,
		DurationMonths: &months,
		InterestRate:   &rate,
	})
	if err != nil {
		t.Fatalf("update terms: %v", err)
	}
	if updated.TotalInterest.StringFixed(2) != "16.67" {
		t.Fatalf("total interest %s, want 16.67", updated.TotalInterest.StringFixed(2))
	}
	if updated.TotalRepayment.StringFixed(2) != "1016.67" {
		t.Fatalf("total repayment %s, want 1016.67", updated.TotalRepayment.StringFixed(2))
	}
}

func TestUpdateTermsFrozenAfterVerification(t *testing.T) {
	db := newTestDB(t)
	inv, svc, _ := verifiedInvestment(t, db)

	amount := decimal.NewFromInt(9000)
	if _, err := svc.UpdateTerms(inv.ID, TermsPatch{Amount: &amount}); !errors.Is(err, ErrTermsFrozen) {
		t.Fatalf("got %v, want ErrTermsFrozen", err)
	}
}

func TestVerifyGeneratesSchedule(t *testing.T) {
	db := newTestDB(t)
	inv, _, entries := verifiedInvestment(t, db)

	if inv.Status != models.InvestmentActive {
		t.Fatalf("status %s, want active", inv.Status)
	}
	if !inv.Verified || inv.VerifiedAt == nil || inv.VerifiedBy == "" {
		t.Fatal("verification metadata missing")
	}
	if inv.StartDate == nil || inv.EndDate == nil {
		t.Fatal("start/end date not set")
	}
	if want := inv.StartDate.AddDate(0, 12, 0); !inv.EndDate.Equal(want) {
		t.Fatalf("end date %s, want %s", inv.EndDate, want)
	}

	if len(entries) != 12 {
		t.Fatalf("%d entries, want 12", len(entries))
	}
	sum := decimal.Zero
	for _, e := range entries {
		if e.Amount.StringFixed(2) != "1050.00" {
			t.Fatalf("entry %d amount %s, want 1050.00", e.Sequence, e.Amount.StringFixed(2))
		}
		sum = sum.Add(e.Amount)
	}
	if !sum.Equal(inv.TotalRepayment) {
		t.Fatalf("schedule sums to %s, want %s", sum, inv.TotalRepayment)
	}

	// Principal rolls into the plant's funded total.
	var plant models.Plant
	if err := db.First(&plant, inv.PlantID).Error; err != nil {
		t.Fatalf("load plant: %v", err)
	}
	if !plant.FundedTotal.Equal(inv.Amount) {
		t.Fatalf("funded total %s, want %s", plant.FundedTotal, inv.Amount)
	}
}

func TestVerifyTwiceRejected(t *testing.T) {
	db := newTestDB(t)
	inv, svc, _ := verifiedInvestment(t, db)

	if _, _, err := svc.Verify(inv.ID, inv.VerifiedBy); !errors.Is(err, ErrAlreadyVerified) {
		t.Fatalf("got %v, want ErrAlreadyVerified", err)
	}

	// The schedule was generated exactly once.
	var count int64
	db.Model(&models.RepaymentEntry{}).Where("investment_id = ?", inv.ID).Count(&count)
	if count != 12 {
		t.Fatalf("%d entries after double verify, want 12", count)
	}
}

func TestVerifyUnknownInvestment(t *testing.T) {
	db := newTestDB(t)
	svc := NewInvestmentService(db, nil)
	if _, _, err := svc.Verify(999, "someone"); !errors.Is(err, ErrInvestmentNotFound) {
		t.Fatalf("got %v, want ErrInvestmentNotFound", err)
	}
}

func TestRegenerateReplacesPendingSchedule(t *testing.T) {
	db := newTestDB(t)
	inv, svc, before := verifiedInvestment(t, db)

	count, err := svc.Regenerate(inv.ID)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if count != 12 {
		t.Fatalf("regenerated %d entries, want 12", count)
	}

	after, err := svc.Schedule(inv.ID)
	if err != nil {
		t.Fatalf("load schedule: %v", err)
	}
	if len(after) != 12 {
		t.Fatalf("%d entries after regenerate, want 12", len(after))
	}
	// New rows, same money.
	if after[0].ID == before[0].ID {
		t.Fatal("entries were not replaced")
	}
	sum := decimal.Zero
	for _, e := range after {
		sum = sum.Add(e.Amount)
	}
	if !sum.Equal(inv.TotalRepayment) {
		t.Fatalf("regenerated schedule sums to %s, want %s", sum, inv.TotalRepayment)
	}

	// The replaced schedule is preserved as a revision snapshot.
	revs, err := svc.Revisions(inv.ID)
	if err != nil {
		t.Fatalf("revisions: %v", err)
	}
	if len(revs) != 1 {
		t.Fatalf("%d revisions, want 1", len(revs))
	}
	if revs[0].RevisionNo != 1 || revs[0].EntryCount != 12 {
		t.Fatalf("revision no %d count %d, want 1/12", revs[0].RevisionNo, revs[0].EntryCount)
	}
	if len(revs[0].Snapshot) == 0 {
		t.Fatal("empty revision snapshot")
	}
}

func TestRegenerateRejectedWhenEntriesPaid(t *testing.T) {
	db := newTestDB(t)
	inv, svc, entries := verifiedInvestment(t, db)

	payments := NewPaymentService(db, testPolicy())
	if _, err := payments.MarkPaid(entries[0].ID, MarkPaidInput{Amount: entries[0].Amount}); err != nil {
		t.Fatalf("mark paid: %v", err)
	}

	if _, err := svc.Regenerate(inv.ID); !errors.Is(err, ErrPaidEntriesExist) {
		t.Fatalf("got %v, want ErrPaidEntriesExist", err)
	}

	// Nothing was mutated.
	after, _ := svc.Schedule(inv.ID)
	if len(after) != 12 {
		t.Fatalf("%d entries after rejected regenerate, want 12", len(after))
	}
	if after[0].Status != models.RepaymentPaid {
		t.Fatal("paid entry lost its status")
	}
	revs, _ := svc.Revisions(inv.ID)
	if len(revs) != 0 {
		t.Fatalf("%d revisions after rejected regenerate, want 0", len(revs))
	}
}

func TestRegenerateRequiresVerifiedInvestment(t *testing.T) {
	db := newTestDB(t)
	inv, svc := seedInvestment(t, db)
	if _, err := svc.Regenerate(inv.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("got %v, want ErrInvalidTransition", err)
	}
}

func TestCancelOnlyWithoutPaidEntries(t *testing.T) {
	db := newTestDB(t)
	inv, svc, entries := verifiedInvestment(t, db)

	payments := NewPaymentService(db, testPolicy())
	if _, err := payments.MarkPaid(entries[0].ID, MarkPaidInput{Amount: entries[0].Amount}); err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if _, err := svc.Cancel(inv.ID, "investor request"); !errors.Is(err, ErrPaidEntriesExist) {
		t.Fatalf("got %v, want ErrPaidEntriesExist", err)
	}
}

func TestCancelPendingInvestment(t *testing.T) {
	db := newTestDB(t)
	inv, svc := seedInvestment(t, db)

	cancelled, err := svc.Cancel(inv.ID, "duplicate commitment")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != models.InvestmentCancelled {
		t.Fatalf("status %s, want cancelled", cancelled.Status)
	}
	if cancelled.CancelledReason != "duplicate commitment" {
		t.Fatalf("reason %q not recorded", cancelled.CancelledReason)
	}

	// Terminal states admit no further transitions.
	if _, err := svc.MarkDefaulted(inv.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("got %v, want ErrInvalidTransition", err)
	}
}

func TestMarkDefaulted(t *testing.T) {
	db := newTestDB(t)
	inv, svc, _ := verifiedInvestment(t, db)

	defaulted, err := svc.MarkDefaulted(inv.ID)
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	if defaulted.Status != models.InvestmentDefaulted {
		t.Fatalf("status %s, want defaulted", defaulted.Status)
	}
}
