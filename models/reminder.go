package models

import "time"

// Reminder types.
const (
	ReminderUpcoming    = "upcoming"
	ReminderOverdue     = "overdue"
	ReminderFinalNotice = "final_notice"
)

// Reminder records that a payment notice was dispatched for a repayment
// entry. Append-only; delivery outcome is not tracked beyond opened.
type Reminder struct {
	ID      uint           `json:"id" gorm:"primaryKey"`
	EntryID uint           `json:"entry_id" gorm:"not null;index"`
	Entry   RepaymentEntry `json:"-" gorm:"foreignKey:EntryID;references:ID;constraint:OnDelete:CASCADE"`

	Type string `json:"type" gorm:"type:VARCHAR(20);not null"`

	// Exactly one of the two is set, depending on due date vs dispatch time.
	DaysBeforeDue *int `json:"days_before_due"`
	DaysOverdue   *int `json:"days_overdue"`

	Recipient      string    `json:"recipient" gorm:"not null"`
	MessageContent string    `json:"message_content"`
	SentAt         time.Time `json:"sent_at" gorm:"not null"`
	Opened         bool      `json:"opened" gorm:"not null;default:false"`
}
