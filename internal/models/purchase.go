package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Buyer is captured at purchase time and is not required to match an
// account in the user directory.
type Buyer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type PurchaseRequest struct {
	EventID  string `json:"event_id"`
	TierID   string `json:"tier_id"`
	Quantity int    `json:"quantity"`
	Buyer    Buyer  `json:"buyer"`
}

// Purchase groups the tickets bought in one transaction.
type Purchase struct {
	bun.BaseModel `bun:"table:purchases"`

	PurchaseID string    `bun:"purchase_id,pk" json:"purchase_id"`
	EventID    string    `bun:"event_id,notnull" json:"event_id"`
	TierID     string    `bun:"tier_id,notnull" json:"tier_id"`
	BuyerName  string    `bun:"buyer_name,notnull" json:"buyer_name"`
	BuyerEmail string    `bun:"buyer_email,notnull" json:"buyer_email"`
	BuyerPhone string    `bun:"buyer_phone" json:"buyer_phone,omitempty"`
	Quantity   int       `bun:"quantity,notnull" json:"quantity"`
	TotalPrice float64   `bun:"total_price,notnull" json:"total_price"`
	Status     string    `bun:"status,notnull" json:"status"`
	CreatedAt  time.Time `bun:"created_at,notnull" json:"created_at"`
}

type PurchaseResult struct {
	Purchase   *Purchase `json:"purchase"`
	Tickets    []Ticket  `json:"tickets"`
	TotalPrice float64   `json:"total_price"`
}
