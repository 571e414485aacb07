package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	EventStatusActive    = "active"
	EventStatusCancelled = "cancelled"
	EventStatusFinished  = "finished"
)

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID          string    `bun:"id,pk" json:"id"`
	Name        string    `bun:"name,notnull" json:"name"`
	Description string    `bun:"description" json:"description,omitempty"`
	Venue       string    `bun:"venue" json:"venue"`
	StartDate   time.Time `bun:"start_date,notnull" json:"start_date"`
	OrganizerID string    `bun:"organizer_id" json:"organizer_id"`
	MaxCapacity int       `bun:"max_capacity" json:"max_capacity"`
	Status      string    `bun:"status,notnull" json:"status"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"created_at"`
}

type TicketTier struct {
	bun.BaseModel `bun:"table:ticket_tiers"`

	ID                string  `bun:"id,pk" json:"id"`
	EventID           string  `bun:"event_id,notnull" json:"event_id"`
	Label             string  `bun:"label,notnull" json:"label"`
	Price             float64 `bun:"price,notnull" json:"price"`
	QuantityAvailable int     `bun:"quantity_available,notnull" json:"quantity_available"`
	QuantitySold      int     `bun:"quantity_sold,notnull" json:"quantity_sold"`
}

// Remaining reports how many tickets can still be sold for this tier.
func (t *TicketTier) Remaining() int {
	remaining := t.QuantityAvailable - t.QuantitySold
	if remaining < 0 {
		return 0
	}
	return remaining
}
