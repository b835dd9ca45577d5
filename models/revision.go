package models

import (
	"time"

	"gorm.io/datatypes"
)

// ScheduleRevision is an immutable snapshot of the repayment entries an
// admin regeneration replaced, kept for auditability.
type ScheduleRevision struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	InvestmentID uint           `json:"investment_id" gorm:"index:idx_schedule_revisions_investment_no,unique,priority:1"`
	RevisionNo   int            `json:"revision_no" gorm:"not null;index:idx_schedule_revisions_investment_no,unique,priority:2"`
	EntryCount   int            `json:"entry_count" gorm:"not null"`
	Snapshot     datatypes.JSON `json:"snapshot" gorm:"type:jsonb"`
	CreatedAt    time.Time      `json:"created_at"`
}
