package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	TicketStatusPending   = "pending"
	TicketStatusConfirmed = "confirmed"
	TicketStatusUsed      = "used"
	TicketStatusCancelled = "cancelled"
)

// Ticket is one admission for one person. PublicCode is the string a QR
// scanner reads at the gate; IntegrityTag is the server-side keyed hash of
// that code and is never serialized to clients.
type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	TicketID        string    `bun:"ticket_id,pk" json:"ticket_id"`
	PurchaseID      string    `bun:"purchase_id" json:"purchase_id"`
	EventID         string    `bun:"event_id,notnull" json:"event_id"`
	TierID          string    `bun:"tier_id,notnull" json:"tier_id"`
	BuyerName       string    `bun:"buyer_name,notnull" json:"buyer_name"`
	BuyerEmail      string    `bun:"buyer_email,notnull" json:"buyer_email"`
	BuyerPhone      string    `bun:"buyer_phone" json:"buyer_phone,omitempty"`
	PublicCode      string    `bun:"public_code,unique,notnull" json:"public_code"`
	IntegrityTag    string    `bun:"integrity_tag,notnull" json:"-"`
	PriceAtPurchase float64   `bun:"price_at_purchase" json:"price_at_purchase"`
	Status          string    `bun:"status,notnull" json:"status"`
	IssuedAt        time.Time `bun:"issued_at,notnull" json:"issued_at"`
	UsedAt          time.Time `bun:"used_at,nullzero" json:"used_at,omitempty"`
}
