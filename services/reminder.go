package services

import (
	"fmt"
	"time"

	"solarvest-backend/finance"
	"solarvest-backend/models"

	"gorm.io/gorm"
)

// ReminderService keeps the append-only log of payment notices. Logging the
// reminder and delivering it are separate concerns: the record is written
// whether or not the email goes out.
type ReminderService struct {
	db       *gorm.DB
	notifier Notifier
}

func NewReminderService(db *gorm.DB, notifier Notifier) *ReminderService {
	return &ReminderService{db: db, notifier: notifier}
}

// Log records that a notice of the given type was dispatched for an entry.
// days_before_due / days_overdue are derived from the due date at dispatch
// time, never both set.
func (s *ReminderService) Log(entryID uint, reminderType string, now time.Time) (*models.Reminder, error) {
	switch reminderType {
	case models.ReminderUpcoming, models.ReminderOverdue, models.ReminderFinalNotice:
	default:
		return nil, ErrBadReminderType
	}

	var entry models.RepaymentEntry
	if err := s.db.Preload("Investment.User").First(&entry, entryID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}

	rem := models.Reminder{
		EntryID:   entry.ID,
		Type:      reminderType,
		Recipient: entry.Investment.User.Email,
		SentAt:    now,
	}

	amount := entry.Amount.StringFixed(2)
	due := entry.DueDate.Format("2006-01-02")
	if entry.DueDate.Before(now) {
		days := finance.DaysOverdue(entry.DueDate, now)
		rem.DaysOverdue = &days
		rem.MessageContent = fmt.Sprintf("Your repayment of %s was due on %s and is %d day(s) overdue.", amount, due, days)
		if reminderType == models.ReminderFinalNotice {
			rem.MessageContent += " This is a final notice."
		}
	} else {
		days := int(entry.DueDate.Sub(now).Hours() / 24)
		rem.DaysBeforeDue = &days
		rem.MessageContent = fmt.Sprintf("Your repayment of %s is due on %s.", amount, due)
	}

	if err := s.db.Create(&rem).Error; err != nil {
		return nil, err
	}
	notify(s.notifier, rem.Recipient, "Repayment reminder", rem.MessageContent)
	return &rem, nil
}

// ListByInvestment returns the reminder history for every entry of an
// investment, newest first.
func (s *ReminderService) ListByInvestment(investmentID uint) ([]models.Reminder, error) {
	var rems []models.Reminder
	err := s.db.
		Joins("JOIN repayment_entries ON repayment_entries.id = reminders.entry_id").
		Where("repayment_entries.investment_id = ?", investmentID).
		Order("reminders.sent_at DESC").
		Find(&rems).Error
	if err != nil {
		return nil, err
	}
	return rems, nil
}

// MarkOpened flags a reminder as opened by the recipient. A non-empty userID
// restricts the action to reminders of that investor's own investments.
func (s *ReminderService) MarkOpened(id uint, userID string) error {
	var rem models.Reminder
	if err := s.db.Preload("Entry.Investment").First(&rem, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrNotFound
		}
		return err
	}
	if userID != "" && rem.Entry.Investment.UserID != userID {
		return ErrAuthorization
	}
	return s.db.Model(&models.Reminder{}).Where("id = ?", id).Update("opened", true).Error
}
