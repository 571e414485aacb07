package models

import (
	"errors"
	"fmt"
)

var (
	ErrEventNotFound  = errors.New("event not found")
	ErrEventNotActive = errors.New("event is not active")
	ErrEventFinished  = errors.New("event has already taken place")
	ErrTierNotFound   = errors.New("ticket tier not found for this event")
	ErrTicketNotFound = errors.New("ticket not found")

	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	ErrMissingBuyer    = errors.New("buyer name and email are required")

	ErrTicketNotCancellable = errors.New("ticket is already used or cancelled")

	// ErrConflict is returned by stores that lost an optimistic
	// concurrency race and may be retried by the caller.
	ErrConflict = errors.New("concurrent update conflict")
)

// InsufficientInventoryError carries the exact remaining count so the
// caller can tell the buyer how many tickets are actually left.
type InsufficientInventoryError struct {
	TierID    string
	Requested int
	Remaining int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory for tier %s: requested %d, %d remaining", e.TierID, e.Requested, e.Remaining)
}
