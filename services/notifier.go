package services

import "log"

// Notifier dispatches investor-facing messages. Delivery is always
// best-effort for financial operations: a failed send is logged, never
// surfaced as the operation's failure.
type Notifier interface {
	Send(recipient, subject, body string) error
}

// LogNotifier writes notifications to the process log. It stands in for a
// real mail transport, which is outside this subsystem.
type LogNotifier struct{}

func (LogNotifier) Send(recipient, subject, body string) error {
	log.Printf("notify %s: %s", recipient, subject)
	return nil
}

// notify sends and swallows the error with an audit line.
func notify(n Notifier, recipient, subject, body string) {
	if n == nil {
		return
	}
	if err := n.Send(recipient, subject, body); err != nil {
		log.Printf("notification to %s failed (ignored): %v", recipient, err)
	}
}
