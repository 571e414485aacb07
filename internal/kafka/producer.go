package kafka

import (
	"context"
	"encoding/json"
	"time"

	"ms-boxoffice/internal/models"

	"github.com/segmentio/kafka-go"
)

const (
	EventTicketIssued    = "ticket.issued"
	EventTicketValidated = "ticket.validated"
	EventTicketCancelled = "ticket.cancelled"
)

type ticketEvent struct {
	Type       string    `json:"type"`
	PurchaseID string    `json:"purchase_id,omitempty"`
	TicketID   string    `json:"ticket_id,omitempty"`
	EventID    string    `json:"event_id"`
	TierID     string    `json:"tier_id"`
	Quantity   int       `json:"quantity,omitempty"`
	TotalPrice float64   `json:"total_price,omitempty"`
	UsedAt     time.Time `json:"used_at,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Producer struct {
	Writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers: brokers,
		Topic:   topic,
	})
	return &Producer{Writer: writer}
}

// PublishTicketIssued streams a purchase's issuance to downstream
// consumers (email delivery, analytics).
func (p *Producer) PublishTicketIssued(purchase models.Purchase, tickets []models.Ticket) error {
	event := ticketEvent{
		Type:       EventTicketIssued,
		PurchaseID: purchase.PurchaseID,
		EventID:    purchase.EventID,
		TierID:     purchase.TierID,
		Quantity:   purchase.Quantity,
		TotalPrice: purchase.TotalPrice,
		OccurredAt: time.Now(),
	}
	return p.publish(purchase.PurchaseID, event)
}

func (p *Producer) PublishTicketValidated(ticket models.Ticket) error {
	event := ticketEvent{
		Type:       EventTicketValidated,
		TicketID:   ticket.TicketID,
		PurchaseID: ticket.PurchaseID,
		EventID:    ticket.EventID,
		TierID:     ticket.TierID,
		UsedAt:     ticket.UsedAt,
		OccurredAt: time.Now(),
	}
	return p.publish(ticket.TicketID, event)
}

func (p *Producer) PublishTicketCancelled(ticket models.Ticket) error {
	event := ticketEvent{
		Type:       EventTicketCancelled,
		TicketID:   ticket.TicketID,
		PurchaseID: ticket.PurchaseID,
		EventID:    ticket.EventID,
		TierID:     ticket.TierID,
		OccurredAt: time.Now(),
	}
	return p.publish(ticket.TicketID, event)
}

func (p *Producer) publish(key string, event ticketEvent) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(key),
			Value: msgBytes,
		},
	)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
