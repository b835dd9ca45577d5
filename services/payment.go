package services

import (
	"time"

	"solarvest-backend/finance"
	"solarvest-backend/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentService applies payments to repayment entries and serves the
// overdue/upcoming views.
type PaymentService struct {
	db     *gorm.DB
	policy finance.FeePolicy
}

func NewPaymentService(db *gorm.DB, policy finance.FeePolicy) *PaymentService {
	return &PaymentService{db: db, policy: policy}
}

// MarkPaidInput carries what was actually paid, which may legitimately
// differ from the scheduled amount; reconciliation across entries is the
// caller's business.
type MarkPaidInput struct {
	Amount    decimal.Decimal
	Method    string
	Reference string
	Notes     string
}

// MarkPaid settles one entry. The entry row is locked for the duration so a
// concurrent double-apply cannot double-count the investment's paid total.
// When every entry of the investment is paid the investment completes; the
// check runs against persisted rows, not in-memory deltas.
func (s *PaymentService) MarkPaid(entryID uint, in MarkPaidInput) (*models.RepaymentEntry, error) {
	if !in.Amount.IsPositive() {
		return nil, ErrBadPayment
	}

	var entry models.RepaymentEntry
	if err := lockForUpdate(s.db).First(&entry, entryID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	if entry.Status == models.RepaymentPaid {
		return nil, ErrEntryAlreadyPaid
	}

	now := time.Now().UTC()
	entry.Status = models.RepaymentPaid
	entry.PaidDate = &now
	entry.PaymentMethod = in.Method
	entry.ReferenceNumber = in.Reference
	if in.Notes != "" {
		entry.Notes = in.Notes
	}
	if err := s.db.Save(&entry).Error; err != nil {
		return nil, err
	}

	var inv models.Investment
	if err := lockForUpdate(s.db).First(&inv, entry.InvestmentID).Error; err != nil {
		return nil, err
	}
	inv.PaidAmount = inv.PaidAmount.Add(in.Amount)
	if err := s.db.Save(&inv).Error; err != nil {
		return nil, err
	}

	// Mirror the linked invoice, if one is live.
	if err := s.db.Model(&models.Invoice{}).
		Where("entry_id = ? AND status NOT IN ?", entry.ID, []string{models.InvoicePaid, models.InvoiceCancelled}).
		Updates(map[string]any{
			"status":            models.InvoicePaid,
			"paid_date":         &now,
			"payment_method":    in.Method,
			"payment_reference": in.Reference,
		}).Error; err != nil {
		return nil, err
	}

	// Completion check from durable state.
	var pending int64
	if err := s.db.Model(&models.RepaymentEntry{}).
		Where("investment_id = ? AND status = ?", inv.ID, models.RepaymentPending).
		Count(&pending).Error; err != nil {
		return nil, err
	}
	if pending == 0 && !inv.Terminal() {
		inv.Status = models.InvestmentCompleted
		if err := s.db.Save(&inv).Error; err != nil {
			return nil, err
		}
	}
	return &entry, nil
}

// EntryWithFee decorates a pending entry with its freshly computed late fee.
type EntryWithFee struct {
	models.RepaymentEntry
	LateFee     decimal.Decimal `json:"late_fee"`
	DaysOverdue int             `json:"days_overdue"`
}

// ScopeFilter narrows the overdue/upcoming views.
type ScopeFilter struct {
	InvestmentID uint
	UserID       string
}

func (s *PaymentService) scoped(f ScopeFilter) *gorm.DB {
	q := s.db.Model(&models.RepaymentEntry{}).
		Joins("JOIN investments ON investments.id = repayment_entries.investment_id")
	if f.InvestmentID != 0 {
		q = q.Where("repayment_entries.investment_id = ?", f.InvestmentID)
	}
	if f.UserID != "" {
		q = q.Where("investments.user_id = ?", f.UserID)
	}
	return q
}

// ListOverdue returns pending entries past due at now, each with its late
// fee. Never cached; the fee depends on the wall clock.
func (s *PaymentService) ListOverdue(f ScopeFilter, now time.Time) ([]EntryWithFee, error) {
	var entries []models.RepaymentEntry
	if err := s.scoped(f).
		Where("repayment_entries.status = ? AND repayment_entries.due_date < ?", models.RepaymentPending, now).
		Order("repayment_entries.due_date ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	out := make([]EntryWithFee, 0, len(entries))
	for i := range entries {
		out = append(out, EntryWithFee{
			RepaymentEntry: entries[i],
			LateFee:        s.policy.LateFee(&entries[i], now),
			DaysOverdue:    finance.DaysOverdue(entries[i].DueDate, now),
		})
	}
	return out, nil
}

// ListUpcoming returns pending entries due within horizonDays of now.
func (s *PaymentService) ListUpcoming(f ScopeFilter, now time.Time, horizonDays int) ([]models.RepaymentEntry, error) {
	if horizonDays <= 0 {
		horizonDays = 30
	}
	horizon := now.AddDate(0, 0, horizonDays)
	var entries []models.RepaymentEntry
	if err := s.scoped(f).
		Where("repayment_entries.status = ? AND repayment_entries.due_date >= ? AND repayment_entries.due_date <= ?",
			models.RepaymentPending, now, horizon).
		Order("repayment_entries.due_date ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// LateFee recomputes the fee for a single entry at now. A non-empty userID
// restricts the read to entries of that investor's own investments.
func (s *PaymentService) LateFee(entryID uint, userID string, now time.Time) (decimal.Decimal, error) {
	var entry models.RepaymentEntry
	if err := s.db.Preload("Investment").First(&entry, entryID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return decimal.Zero, ErrEntryNotFound
		}
		return decimal.Zero, err
	}
	if userID != "" && entry.Investment.UserID != userID {
		return decimal.Zero, ErrAuthorization
	}
	return s.policy.LateFee(&entry, now), nil
}
