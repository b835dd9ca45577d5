package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice statuses.
const (
	InvoiceDraft     = "draft"
	InvoiceSent      = "sent"
	InvoicePaid      = "paid"
	InvoiceOverdue   = "overdue"
	InvoiceCancelled = "cancelled"
)

// Invoice is the billing document derived from a repayment entry. Its
// status is independently editable until paid, but payment state must
// mirror the linked entry in both directions. At most one non-cancelled
// invoice may exist per entry (partial unique index, see database.Migrate).
type Invoice struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	InvoiceNumber string `json:"invoice_number" gorm:"unique;not null"`

	EntryID *uint           `json:"entry_id" gorm:"index"`
	Entry   *RepaymentEntry `json:"-" gorm:"foreignKey:EntryID;references:ID"`

	Subtotal    decimal.Decimal `json:"subtotal" gorm:"type:numeric(12,2);not null"`
	TaxAmount   decimal.Decimal `json:"tax_amount" gorm:"type:numeric(12,2);not null;default:0"`
	TotalAmount decimal.Decimal `json:"total_amount" gorm:"type:numeric(12,2);not null"`

	Status   string     `json:"status" gorm:"type:VARCHAR(20);not null;default:'draft'"`
	DueDate  time.Time  `json:"due_date"`
	PaidDate *time.Time `json:"paid_date"`

	PaymentMethod    string `json:"payment_method"`
	PaymentReference string `json:"payment_reference"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CanTransition reports whether the draft/sent/paid/cancelled machine
// admits a move from the invoice's current status to next. Paid invoices
// are frozen; cancelled is terminal.
func (i *Invoice) CanTransition(next string) bool {
	switch i.Status {
	case InvoiceDraft:
		return next == InvoiceSent || next == InvoicePaid || next == InvoiceCancelled
	case InvoiceSent, InvoiceOverdue:
		return next == InvoicePaid || next == InvoiceCancelled
	}
	return false
}
