package models

import "time"

const (
	ValidationValid       = "valid"
	ValidationAlreadyUsed = "already_used"
	ValidationInvalid     = "invalid"
)

const (
	ReasonNotFound       = "not found"
	ReasonCancelled      = "cancelled"
	ReasonNotConfirmed   = "not confirmed"
	ReasonTampered       = "tampered"
	ReasonEventNotFound  = "event not found"
	ReasonEventCancelled = "event cancelled"
)

// Attendee is what gate staff see on a successful (or already-used) scan.
type Attendee struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	EventName string `json:"event_name,omitempty"`
	TierLabel string `json:"tier_label,omitempty"`
}

// ValidationResult is the outcome of scanning a public code at the gate.
// AlreadyUsed is success-shaped: the ticket was genuine but has been
// consumed before, and UsedAt reports the original consumption time.
type ValidationResult struct {
	Status   string    `json:"status"`
	Reason   string    `json:"reason,omitempty"`
	Ticket   *Ticket   `json:"ticket,omitempty"`
	UsedAt   time.Time `json:"used_at,omitempty"`
	Attendee *Attendee `json:"attendee,omitempty"`
}
