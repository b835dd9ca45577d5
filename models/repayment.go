package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Repayment entry statuses.
const (
	RepaymentPending = "pending"
	RepaymentPaid    = "paid"
)

// RepaymentEntry is one scheduled installment of an investment: a fixed
// amount split into principal and interest, due on a date, paid once.
type RepaymentEntry struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	InvestmentID uint       `json:"investment_id" gorm:"not null;index:idx_repayments_investment_due,priority:1"`
	Investment   Investment `json:"-" gorm:"foreignKey:InvestmentID;references:ID;constraint:OnDelete:CASCADE"`

	// Sequence is the 1-based installment number within the schedule.
	Sequence  int             `json:"sequence" gorm:"not null"`
	Amount    decimal.Decimal `json:"amount" gorm:"type:numeric(12,2);not null"`
	Principal decimal.Decimal `json:"principal" gorm:"type:numeric(12,2);not null"`
	Interest  decimal.Decimal `json:"interest" gorm:"type:numeric(12,2);not null"`
	DueDate   time.Time       `json:"due_date" gorm:"not null;index:idx_repayments_investment_due,priority:2"`

	Status          string     `json:"status" gorm:"type:VARCHAR(20);not null;default:'pending'"`
	PaidDate        *time.Time `json:"paid_date"`
	PaymentMethod   string     `json:"payment_method"`
	ReferenceNumber string     `json:"reference_number"`
	Notes           string     `json:"notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Overdue reports whether the entry is unpaid and past due at now.
func (e *RepaymentEntry) Overdue(now time.Time) bool {
	return e.Status == RepaymentPending && e.DueDate.Before(now)
}
