package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Investment statuses. Transitions are enforced in the service layer;
// the constants exist so every switch over status stays exhaustive.
const (
	InvestmentPending   = "pending"
	InvestmentVerified  = "verified"
	InvestmentActive    = "active"
	InvestmentCompleted = "completed"
	InvestmentCancelled = "cancelled"
	InvestmentDefaulted = "defaulted"
)

// Repayment intervals.
const (
	IntervalMonthly   = "monthly"
	IntervalQuarterly = "quarterly"
	IntervalAnnually  = "annually"
)

// Investment is a principal commitment by an investor against a plant,
// repaid with simple interest over the term.
type Investment struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	UserID  string `json:"user_id" gorm:"not null;index"`
	User    User   `json:"-" gorm:"foreignKey:UserID;references:Id"`
	PlantID uint   `json:"plant_id" gorm:"not null;index"`
	Plant   Plant  `json:"-" gorm:"foreignKey:PlantID;references:Id"`

	// Terms; immutable once verified.
	Amount            decimal.Decimal `json:"amount" gorm:"type:numeric(12,2);not null"`
	DurationMonths    int             `json:"duration_months" gorm:"not null"`
	InterestRate      decimal.Decimal `json:"interest_rate" gorm:"type:numeric(5,2);not null"`
	RepaymentInterval string          `json:"repayment_interval" gorm:"type:VARCHAR(20);not null;default:'monthly'"`

	// Derived totals, recomputed whenever terms change pre-verification.
	TotalInterest  decimal.Decimal `json:"total_interest" gorm:"type:numeric(12,2);not null;default:0"`
	TotalRepayment decimal.Decimal `json:"total_repayment" gorm:"type:numeric(12,2);not null;default:0"`

	Status     string     `json:"status" gorm:"type:VARCHAR(20);not null;default:'pending'"`
	Verified   bool       `json:"verified" gorm:"not null;default:false"`
	VerifiedAt *time.Time `json:"verified_at"`
	VerifiedBy string     `json:"verified_by"`

	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`

	// PaidAmount is the running sum of payments actually applied.
	PaidAmount decimal.Decimal `json:"paid_amount" gorm:"type:numeric(12,2);not null;default:0"`

	CancelledReason string `json:"cancelled_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidInterval reports whether s is a known repayment interval.
func ValidInterval(s string) bool {
	switch s {
	case IntervalMonthly, IntervalQuarterly, IntervalAnnually:
		return true
	}
	return false
}

// Terminal reports whether status admits no further transitions.
func (inv *Investment) Terminal() bool {
	switch inv.Status {
	case InvestmentCompleted, InvestmentCancelled, InvestmentDefaulted:
		return true
	}
	return false
}
