package services

import "errors"

// Error taxonomy surfaced to the HTTP layer. middlewares.ErrorHandler maps
// ErrValidation to 422, ErrConflict to 409, ErrAuthorization to 403 and
// ErrNotFound to 404; everything else is a 500.
var (
	ErrValidation    = errors.New("validation error")
	ErrConflict      = errors.New("conflict")
	ErrAuthorization = errors.New("not authorized")
	ErrNotFound      = errors.New("not found")
)

// Specific failures, each wrapping its category so callers can match either
// the broad class or the precise cause with errors.Is.

var (
	ErrInvestmentNotFound = wrap("investment not found", ErrNotFound)
	ErrEntryNotFound      = wrap("repayment entry not found", ErrNotFound)
	ErrInvoiceNotFound    = wrap("invoice not found", ErrNotFound)
	ErrPlantNotFound      = wrap("plant not found", ErrNotFound)

	ErrAlreadyVerified   = wrap("investment already verified", ErrConflict)
	ErrEntryAlreadyPaid  = wrap("repayment entry already paid", ErrConflict)
	ErrPaidEntriesExist  = wrap("schedule has paid entries", ErrConflict)
	ErrScheduleExists    = wrap("schedule already generated", ErrConflict)
	ErrDuplicateInvoice  = wrap("entry already has a live invoice", ErrConflict)
	ErrInvoiceFrozen     = wrap("paid invoice cannot change", ErrConflict)
	ErrInvalidTransition = wrap("invalid status transition", ErrConflict)
	ErrTermsFrozen       = wrap("terms frozen after verification", ErrConflict)

	ErrAmountTooSmall  = wrap("amount below minimum", ErrValidation)
	ErrBadDuration     = wrap("duration out of range", ErrValidation)
	ErrBadInterestRate = wrap("interest rate out of range", ErrValidation)
	ErrBadInterval     = wrap("unknown repayment interval", ErrValidation)
	ErrBadPayment      = wrap("payment amount must be positive", ErrValidation)
	ErrBadReminderType = wrap("unknown reminder type", ErrValidation)
)

type wrapped struct {
	msg  string
	kind error
}

func (w *wrapped) Error() string { return w.msg }
func (w *wrapped) Unwrap() error { return w.kind }

func wrap(msg string, kind error) error {
	return &wrapped{msg: msg, kind: kind}
}
