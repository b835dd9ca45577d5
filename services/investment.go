package services

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"solarvest-backend/finance"
	"solarvest-backend/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// minPrincipal is the smallest accepted commitment.
var minPrincipal = decimal.NewFromInt(100)

// InvestmentService owns the investment lifecycle: creation, term updates,
// verification (which generates the repayment schedule), regeneration and the
// administrative terminal transitions.
type InvestmentService struct {
	db       *gorm.DB
	notifier Notifier
}

func NewInvestmentService(db *gorm.DB, notifier Notifier) *InvestmentService {
	return &InvestmentService{db: db, notifier: notifier}
}

// CreateInvestmentInput carries the investor-supplied terms.
type CreateInvestmentInput struct {
	UserID            string
	PlantID           uint
	Amount            decimal.Decimal
	DurationMonths    int
	InterestRate      decimal.Decimal
	RepaymentInterval string
}

func validateTerms(amount decimal.Decimal, months int, rate decimal.Decimal, interval string) error {
	if amount.LessThan(minPrincipal) {
		return ErrAmountTooSmall
	}
	if months < 1 || months > 360 {
		return ErrBadDuration
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return ErrBadInterestRate
	}
	if !models.ValidInterval(interval) {
		return ErrBadInterval
	}
	return nil
}

// Create records a new pending investment with derived totals.
func (s *InvestmentService) Create(in CreateInvestmentInput) (*models.Investment, error) {
	if err := validateTerms(in.Amount, in.DurationMonths, in.InterestRate, in.RepaymentInterval); err != nil {
		return nil, err
	}
	var plant models.Plant
	if err := s.db.First(&plant, in.PlantID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrPlantNotFound
		}
		return nil, err
	}

	interest, total := finance.Totals(in.Amount, in.InterestRate, in.DurationMonths)
	inv := models.Investment{
		UserID:            in.UserID,
		PlantID:           in.PlantID,
		Amount:            in.Amount,
		DurationMonths:    in.DurationMonths,
		InterestRate:      in.InterestRate,
		RepaymentInterval: in.RepaymentInterval,
		TotalInterest:     interest,
		TotalRepayment:    total,
		Status:            models.InvestmentPending,
		PaidAmount:        decimal.Zero,
	}
	if err := s.db.Create(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// TermsPatch updates individual terms; nil fields are left alone.
type TermsPatch struct {
	Amount            *decimal.Decimal
	DurationMonths    *int
	InterestRate      *decimal.Decimal
	RepaymentInterval *string
}

// UpdateTerms changes terms on an unverified investment and recomputes the
// derived totals. Verified terms are frozen.
func (s *InvestmentService) UpdateTerms(id uint, patch TermsPatch) (*models.Investment, error) {
	var inv models.Investment
	if err := lockForUpdate(s.db).First(&inv, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrInvestmentNotFound
		}
		return nil, err
	}
	if inv.Verified {
		return nil, ErrTermsFrozen
	}

	if patch.Amount != nil {
		inv.Amount = *patch.Amount
	}
	if patch.DurationMonths != nil {
		inv.DurationMonths = *patch.DurationMonths
	}
	if patch.InterestRate != nil {
		inv.InterestRate = *patch.InterestRate
	}
	if patch.RepaymentInterval != nil {
		inv.RepaymentInterval = *patch.RepaymentInterval
	}
	if err := validateTerms(inv.Amount, inv.DurationMonths, inv.InterestRate, inv.RepaymentInterval); err != nil {
		return nil, err
	}

	inv.TotalInterest, inv.TotalRepayment = finance.Totals(inv.Amount, inv.InterestRate, inv.DurationMonths)
	if err := s.db.Save(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// Verify transitions a pending investment to active, generates its repayment
// schedule and rolls the principal into the plant's funded total. All of that
// happens in the caller's transaction; the investor notification afterwards
// is best-effort and can never fail the verification.
func (s *InvestmentService) Verify(id uint, actorID string) (*models.Investment, int, error) {
	var inv models.Investment
	if err := lockForUpdate(s.db).Preload("User").First(&inv, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, 0, ErrInvestmentNotFound
		}
		return nil, 0, err
	}
	if inv.Verified {
		return nil, 0, ErrAlreadyVerified
	}

	// Idempotent guard on the schedule itself.
	var existing int64
	if err := s.db.Model(&models.RepaymentEntry{}).Where("investment_id = ?", inv.ID).Count(&existing).Error; err != nil {
		return nil, 0, err
	}
	if existing > 0 {
		return nil, 0, ErrScheduleExists
	}

	now := time.Now().UTC()
	if inv.StartDate == nil || inv.StartDate.IsZero() {
		inv.StartDate = &now
	}
	end := finance.EndDate(*inv.StartDate, inv.DurationMonths)
	inv.EndDate = &end

	inv.Verified = true
	inv.VerifiedAt = &now
	inv.VerifiedBy = actorID
	inv.Status = models.InvestmentActive

	entries, err := finance.Schedule(&inv)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if err := s.db.Save(&inv).Error; err != nil {
		return nil, 0, err
	}
	if err := s.db.Create(&entries).Error; err != nil {
		return nil, 0, err
	}
	if err := s.db.Model(&models.Plant{}).Where("id = ?", inv.PlantID).
		Update("funded_total", gorm.Expr("funded_total + ?", inv.Amount)).Error; err != nil {
		return nil, 0, err
	}
	log.Printf("investment %d verified by %s: %d entries generated", inv.ID, actorID, len(entries))

	notify(s.notifier, inv.User.Email, "Investment verified",
		fmt.Sprintf("Your investment of %s has been verified. %d repayments are scheduled, the first due %s.",
			inv.Amount.StringFixed(2), len(entries), entries[0].DueDate.Format("2006-01-02")))

	return &inv, len(entries), nil
}

// Regenerate replaces all pending entries of a verified investment with a
// schedule computed from the current terms. Refused outright when any entry
// is already paid, so paid history can never be rewritten. The replaced
// entries are kept as a JSON revision snapshot.
func (s *InvestmentService) Regenerate(id uint) (int, error) {
	var inv models.Investment
	if err := lockForUpdate(s.db).First(&inv, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, ErrInvestmentNotFound
		}
		return 0, err
	}
	if !inv.Verified {
		return 0, ErrInvalidTransition
	}

	var old []models.RepaymentEntry
	if err := s.db.Where("investment_id = ?", inv.ID).Order("sequence ASC").Find(&old).Error; err != nil {
		return 0, err
	}
	for i := range old {
		if old[i].Status == models.RepaymentPaid {
			return 0, ErrPaidEntriesExist
		}
	}

	// Audit snapshot of what is being replaced.
	snapshot, err := json.Marshal(old)
	if err != nil {
		return 0, err
	}
	var lastRev int
	s.db.Model(&models.ScheduleRevision{}).Where("investment_id = ?", inv.ID).
		Select("COALESCE(MAX(revision_no), 0)").Scan(&lastRev)
	rev := models.ScheduleRevision{
		InvestmentID: inv.ID,
		RevisionNo:   lastRev + 1,
		EntryCount:   len(old),
		Snapshot:     snapshot,
	}
	if err := s.db.Create(&rev).Error; err != nil {
		return 0, err
	}

	// Cancel live invoices hanging off the entries about to disappear.
	oldIDs := make([]uint, 0, len(old))
	for i := range old {
		oldIDs = append(oldIDs, old[i].ID)
	}
	if len(oldIDs) > 0 {
		if err := s.db.Model(&models.Invoice{}).
			Where("entry_id IN ? AND status NOT IN ?", oldIDs, []string{models.InvoicePaid, models.InvoiceCancelled}).
			Updates(map[string]any{"status": models.InvoiceCancelled, "entry_id": nil}).Error; err != nil {
			return 0, err
		}
		if err := s.db.Where("investment_id = ?", inv.ID).Delete(&models.RepaymentEntry{}).Error; err != nil {
			return 0, err
		}
	}

	entries, err := finance.Schedule(&inv)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := s.db.Create(&entries).Error; err != nil {
		return 0, err
	}
	log.Printf("investment %d schedule regenerated: revision %d, %d entries", inv.ID, rev.RevisionNo, len(entries))
	return len(entries), nil
}

// Cancel terminates an investment administratively. Allowed only while no
// entry has been paid.
func (s *InvestmentService) Cancel(id uint, reason string) (*models.Investment, error) {
	var inv models.Investment
	if err := lockForUpdate(s.db).First(&inv, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrInvestmentNotFound
		}
		return nil, err
	}
	if inv.Terminal() {
		return nil, ErrInvalidTransition
	}
	var paid int64
	if err := s.db.Model(&models.RepaymentEntry{}).
		Where("investment_id = ? AND status = ?", inv.ID, models.RepaymentPaid).Count(&paid).Error; err != nil {
		return nil, err
	}
	if paid > 0 {
		return nil, ErrPaidEntriesExist
	}
	inv.Status = models.InvestmentCancelled
	inv.CancelledReason = reason
	if err := s.db.Save(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// MarkDefaulted flags an investment as defaulted. The policy that decides
// when to default is external; this only performs the transition.
func (s *InvestmentService) MarkDefaulted(id uint) (*models.Investment, error) {
	var inv models.Investment
	if err := lockForUpdate(s.db).First(&inv, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrInvestmentNotFound
		}
		return nil, err
	}
	if inv.Terminal() {
		return nil, ErrInvalidTransition
	}
	inv.Status = models.InvestmentDefaulted
	if err := s.db.Save(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// Get loads one investment.
func (s *InvestmentService) Get(id uint) (*models.Investment, error) {
	var inv models.Investment
	if err := s.db.First(&inv, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrInvestmentNotFound
		}
		return nil, err
	}
	return &inv, nil
}

// Schedule returns the current repayment entries in order.
func (s *InvestmentService) Schedule(id uint) ([]models.RepaymentEntry, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}
	var entries []models.RepaymentEntry
	if err := s.db.Where("investment_id = ?", id).Order("sequence ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Revisions returns the audit trail of replaced schedules, newest first.
func (s *InvestmentService) Revisions(id uint) ([]models.ScheduleRevision, error) {
	var revs []models.ScheduleRevision
	if err := s.db.Where("investment_id = ?", id).Order("revision_no DESC").Find(&revs).Error; err != nil {
		return nil, err
	}
	return revs, nil
}
