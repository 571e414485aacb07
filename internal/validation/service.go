package validation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ms-boxoffice/internal/logger"
	"ms-boxoffice/internal/models"
)

type TicketStore interface {
	GetTicketByCode(ctx context.Context, publicCode string) (*models.Ticket, error)
	GetTicketByID(ctx context.Context, ticketID string) (*models.Ticket, error)
	MarkTicketUsed(ctx context.Context, ticketID string, usedAt time.Time) (bool, error)
}

type EventLookup interface {
	GetEvent(ctx context.Context, eventID string) (*models.Event, error)
	GetTier(ctx context.Context, tierID string) (*models.TicketTier, error)
}

type TokenVerifier interface {
	Verify(publicCode, integrityTag string) bool
}

type KafkaPublisher interface {
	PublishTicketValidated(ticket models.Ticket) error
}

// Service consumes a ticket exactly once at the gate. The conditional
// update in MarkTicketUsed is the only synchronization needed: losing it
// IS the answer that someone else already let this ticket through.
type Service struct {
	DB      TicketStore
	Catalog EventLookup
	Tokens  TokenVerifier
	Kafka   KafkaPublisher
	Logger  *logger.Logger
}

func NewService(db TicketStore, catalog EventLookup, tokens TokenVerifier, kafka KafkaPublisher, log *logger.Logger) *Service {
	return &Service{DB: db, Catalog: catalog, Tokens: tokens, Kafka: kafka, Logger: log}
}

func (s *Service) Validate(ctx context.Context, publicCode string) (*models.ValidationResult, error) {
	ticket, err := s.DB.GetTicketByCode(ctx, publicCode)
	if errors.Is(err, models.ErrTicketNotFound) {
		// Burn a verify so an unknown code costs the same as a
		// tampered one; the response must not leak which codes exist.
		s.Tokens.Verify(publicCode, "")
		return &models.ValidationResult{Status: models.ValidationInvalid, Reason: models.ReasonNotFound}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup ticket by code: %w", err)
	}

	switch ticket.Status {
	case models.TicketStatusCancelled:
		return s.invalid(ticket, models.ReasonCancelled), nil
	case models.TicketStatusPending:
		return s.invalid(ticket, models.ReasonNotConfirmed), nil
	case models.TicketStatusUsed:
		return s.alreadyUsed(ctx, ticket), nil
	}

	// Stored code and stored tag must still agree; a mismatch means the
	// record was altered after issuance, not that the buyer is at fault.
	if !s.Tokens.Verify(ticket.PublicCode, ticket.IntegrityTag) {
		if s.Logger != nil {
			s.Logger.LogSecurity("INTEGRITY_MISMATCH", fmt.Sprintf("ticket %s failed tag verification", ticket.TicketID))
		}
		return s.invalid(ticket, models.ReasonTampered), nil
	}

	event, err := s.Catalog.GetEvent(ctx, ticket.EventID)
	if errors.Is(err, models.ErrEventNotFound) {
		return s.invalid(ticket, models.ReasonEventNotFound), nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup event %s: %w", ticket.EventID, err)
	}
	if event.Status == models.EventStatusCancelled {
		return s.invalid(ticket, models.ReasonEventCancelled), nil
	}

	usedAt := time.Now()
	ok, err := s.DB.MarkTicketUsed(ctx, ticket.TicketID, usedAt)
	if err != nil {
		return nil, fmt.Errorf("mark ticket %s used: %w", ticket.TicketID, err)
	}
	if !ok {
		// Lost the race: re-read to report the authoritative state.
		current, err := s.DB.GetTicketByID(ctx, ticket.TicketID)
		if err != nil {
			return nil, fmt.Errorf("re-read ticket %s after lost transition: %w", ticket.TicketID, err)
		}
		if current.Status == models.TicketStatusUsed {
			return s.alreadyUsed(ctx, current), nil
		}
		return s.invalid(current, models.ReasonCancelled), nil
	}

	ticket.Status = models.TicketStatusUsed
	ticket.UsedAt = usedAt

	if s.Logger != nil {
		s.Logger.LogValidation("ADMITTED", ticket.PublicCode, fmt.Sprintf("ticket %s for event %s", ticket.TicketID, ticket.EventID))
	}
	if s.Kafka != nil {
		if err := s.Kafka.PublishTicketValidated(*ticket); err != nil && s.Logger != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("publish ticket validated for %s: %v", ticket.TicketID, err))
		}
	}

	return &models.ValidationResult{
		Status:   models.ValidationValid,
		Ticket:   ticket,
		UsedAt:   usedAt,
		Attendee: s.attendee(ctx, ticket, event),
	}, nil
}

func (s *Service) invalid(ticket *models.Ticket, reason string) *models.ValidationResult {
	return &models.ValidationResult{
		Status: models.ValidationInvalid,
		Reason: reason,
		Ticket: ticket,
	}
}

// alreadyUsed is success-shaped: the caller shows a warning with the
// original admission time, not a failure.
func (s *Service) alreadyUsed(ctx context.Context, ticket *models.Ticket) *models.ValidationResult {
	var event *models.Event
	if e, err := s.Catalog.GetEvent(ctx, ticket.EventID); err == nil {
		event = e
	}
	return &models.ValidationResult{
		Status:   models.ValidationAlreadyUsed,
		Ticket:   ticket,
		UsedAt:   ticket.UsedAt,
		Attendee: s.attendee(ctx, ticket, event),
	}
}

func (s *Service) attendee(ctx context.Context, ticket *models.Ticket, event *models.Event) *models.Attendee {
	attendee := &models.Attendee{
		Name:  ticket.BuyerName,
		Email: ticket.BuyerEmail,
	}
	if event != nil {
		attendee.EventName = event.Name
	}
	if tier, err := s.Catalog.GetTier(ctx, ticket.TierID); err == nil {
		attendee.TierLabel = tier.Label
	}
	return attendee
}
