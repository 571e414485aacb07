package inventory

import (
	"context"
	"errors"
	"fmt"

	"ms-boxoffice/internal/models"
)

// Store is the persistence contract for tier counters. ReserveInventory
// must be atomic: a conditional increment that either applies fully or
// reports false, never a read-then-write the caller could race.
type Store interface {
	ReserveInventory(ctx context.Context, tierID string, quantity int) (bool, error)
	ReleaseInventory(ctx context.Context, tierID string, quantity int) error
	GetTier(ctx context.Context, tierID string) (*models.TicketTier, error)
}

// Ledger is the authoritative count of tickets sold per tier.
type Ledger struct {
	Store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{Store: store}
}

// Stores backed by optimistic CAS may lose a race and return
// models.ErrConflict; three attempts is plenty before giving up.
const maxReserveAttempts = 3

// Reserve increments quantity_sold by quantity if the tier still has
// room. On a full tier it returns InsufficientInventoryError with the
// exact remaining count.
func (l *Ledger) Reserve(ctx context.Context, tierID string, quantity int) error {
	if quantity <= 0 {
		return models.ErrInvalidQuantity
	}

	var lastErr error
	for attempt := 0; attempt < maxReserveAttempts; attempt++ {
		ok, err := l.Store.ReserveInventory(ctx, tierID, quantity)
		if errors.Is(err, models.ErrConflict) {
			lastErr = err
			continue
		}
		if err != nil {
			return fmt.Errorf("reserve %d for tier %s: %w", quantity, tierID, err)
		}
		if ok {
			return nil
		}

		// The conditional update did not apply: either the tier is
		// missing or it cannot hold the requested quantity.
		tier, err := l.Store.GetTier(ctx, tierID)
		if err != nil {
			return fmt.Errorf("tier %s lookup after failed reserve: %w", tierID, err)
		}
		return &models.InsufficientInventoryError{
			TierID:    tierID,
			Requested: quantity,
			Remaining: tier.Remaining(),
		}
	}
	return fmt.Errorf("reserve %d for tier %s: %w", quantity, tierID, lastErr)
}

// Release is the compensating decrement for cancellations and failed
// persistence; stores clamp the counter at zero.
func (l *Ledger) Release(ctx context.Context, tierID string, quantity int) error {
	if quantity <= 0 {
		return models.ErrInvalidQuantity
	}
	if err := l.Store.ReleaseInventory(ctx, tierID, quantity); err != nil {
		return fmt.Errorf("release %d for tier %s: %w", quantity, tierID, err)
	}
	return nil
}
