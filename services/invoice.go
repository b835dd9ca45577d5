package services

import (
	"fmt"
	"time"

	"solarvest-backend/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceService maintains the billing documents derived from repayment
// entries: one live (non-cancelled) invoice per entry, status mirroring the
// entry once paid.
type InvoiceService struct {
	db       *gorm.DB
	taxRate  decimal.Decimal
	payments *PaymentService
}

func NewInvoiceService(db *gorm.DB, taxRate decimal.Decimal, payments *PaymentService) *InvoiceService {
	return &InvoiceService{db: db, taxRate: taxRate, payments: payments}
}

// CreateForEntry derives a draft invoice from a repayment entry. Creating a
// second live invoice for the same entry is rejected, which makes the call
// safely repeatable.
func (s *InvoiceService) CreateForEntry(entryID uint) (*models.Invoice, error) {
	var entry models.RepaymentEntry
	if err := s.db.First(&entry, entryID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}

	var live int64
	if err := s.db.Model(&models.Invoice{}).
		Where("entry_id = ? AND status <> ?", entry.ID, models.InvoiceCancelled).
		Count(&live).Error; err != nil {
		return nil, err
	}
	if live > 0 {
		return nil, ErrDuplicateInvoice
	}

	// Cancelled predecessors keep their numbers, so a reissue gets the next
	// per-entry sequence.
	var issued int64
	if err := s.db.Model(&models.Invoice{}).
		Where("entry_id = ?", entry.ID).
		Count(&issued).Error; err != nil {
		return nil, err
	}

	subtotal := entry.Amount
	tax := subtotal.Mul(s.taxRate).Div(decimal.NewFromInt(100)).Round(2)
	inv := models.Invoice{
		InvoiceNumber: fmt.Sprintf("INV-%08d-%d", entry.ID, issued+1),
		EntryID:       &entry.ID,
		Subtotal:      subtotal,
		TaxAmount:     tax,
		TotalAmount:   subtotal.Add(tax),
		Status:        models.InvoiceDraft,
		DueDate:       entry.DueDate,
	}
	if entry.Status == models.RepaymentPaid {
		// Entry settled before billing: the invoice must mirror it.
		inv.Status = models.InvoicePaid
		inv.PaidDate = entry.PaidDate
		inv.PaymentMethod = entry.PaymentMethod
		inv.PaymentReference = entry.ReferenceNumber
	}
	if err := s.db.Create(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// Get loads one invoice.
func (s *InvoiceService) Get(id uint) (*models.Invoice, error) {
	var inv models.Invoice
	if err := s.db.First(&inv, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return &inv, nil
}

// GetFor loads an invoice visible to userID; an empty userID is unrestricted.
// Unlinked invoices belong to no investor, so a scoped read never sees them.
func (s *InvoiceService) GetFor(id uint, userID string) (*models.Invoice, error) {
	inv, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if userID == "" {
		return inv, nil
	}
	if inv.EntryID == nil {
		return nil, ErrAuthorization
	}
	var entry models.RepaymentEntry
	if err := s.db.Preload("Investment").First(&entry, *inv.EntryID).Error; err != nil {
		return nil, err
	}
	if entry.Investment.UserID != userID {
		return nil, ErrAuthorization
	}
	return inv, nil
}

// Send moves a draft invoice to sent.
func (s *InvoiceService) Send(id uint) (*models.Invoice, error) {
	return s.transition(id, models.InvoiceSent)
}

// Cancel voids an invoice. Paid invoices are frozen.
func (s *InvoiceService) Cancel(id uint) (*models.Invoice, error) {
	return s.transition(id, models.InvoiceCancelled)
}

func (s *InvoiceService) transition(id uint, next string) (*models.Invoice, error) {
	var inv models.Invoice
	if err := lockForUpdate(s.db).First(&inv, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	if inv.Status == models.InvoicePaid {
		return nil, ErrInvoiceFrozen
	}
	if !inv.CanTransition(next) {
		return nil, ErrInvalidTransition
	}
	inv.Status = next
	if err := s.db.Save(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// MarkPaid settles an invoice. For an invoice linked to a repayment entry the
// payment is applied through the ledger, which cascades back to this invoice,
// keeping the two paid states in lockstep. An unlinked invoice is settled
// directly.
func (s *InvoiceService) MarkPaid(id uint, method, reference string) (*models.Invoice, error) {
	var inv models.Invoice
	if err := lockForUpdate(s.db).First(&inv, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	if inv.Status == models.InvoicePaid {
		return nil, ErrInvoiceFrozen
	}
	if !inv.CanTransition(models.InvoicePaid) {
		return nil, ErrInvalidTransition
	}

	if inv.EntryID != nil {
		if _, err := s.payments.MarkPaid(*inv.EntryID, MarkPaidInput{
			Amount:    inv.TotalAmount,
			Method:    method,
			Reference: reference,
		}); err != nil {
			return nil, err
		}
		return s.Get(id)
	}

	now := time.Now().UTC()
	inv.Status = models.InvoicePaid
	inv.PaidDate = &now
	inv.PaymentMethod = method
	inv.PaymentReference = reference
	if err := s.db.Save(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// RefreshOverdue flags sent invoices past due at now. Externally triggered;
// there is no background loop in this slice of the system.
func (s *InvoiceService) RefreshOverdue(now time.Time) (int64, error) {
	res := s.db.Model(&models.Invoice{}).
		Where("status = ? AND due_date < ?", models.InvoiceSent, now).
		Update("status", models.InvoiceOverdue)
	return res.RowsAffected, res.Error
}
