package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ms-boxoffice/internal/models"

	"github.com/google/uuid"
)

type Store interface {
	GetEvent(ctx context.Context, eventID string) (*models.Event, error)
	GetTier(ctx context.Context, tierID string) (*models.TicketTier, error)
	CreateEvent(ctx context.Context, event *models.Event, tiers []models.TicketTier) error
	ListEvents(ctx context.Context) ([]models.Event, error)
	ListTiersByEvent(ctx context.Context, eventID string) ([]models.TicketTier, error)
	UpdateEventStatus(ctx context.Context, eventID, status string) error
}

// TicketCounter is satisfied by the ticket store; the catalog only needs
// the aggregate numbers for organizer stats.
type TicketCounter interface {
	CountTicketsByEvent(ctx context.Context, eventID string) (sold int, used int, err error)
}

type Service struct {
	Store   Store
	Tickets TicketCounter
}

func NewService(store Store, tickets TicketCounter) *Service {
	return &Service{Store: store, Tickets: tickets}
}

type CreateTierRequest struct {
	Label    string  `json:"label"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type CreateEventRequest struct {
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Venue       string              `json:"venue"`
	StartDate   time.Time           `json:"start_date"`
	OrganizerID string              `json:"organizer_id"`
	MaxCapacity int                 `json:"max_capacity"`
	Tiers       []CreateTierRequest `json:"tiers"`
}

type EventWithTiers struct {
	models.Event
	Tiers []models.TicketTier `json:"tiers"`
}

type EventStats struct {
	EventID string `json:"event_id"`
	Sold    int    `json:"sold"`
	Used    int    `json:"used"`
}

func (s *Service) CreateEvent(ctx context.Context, req CreateEventRequest) (*EventWithTiers, error) {
	if req.Name == "" || req.Venue == "" {
		return nil, errors.New("event name and venue are required")
	}
	if req.StartDate.Before(time.Now()) {
		return nil, errors.New("event start date must be in the future")
	}
	if len(req.Tiers) == 0 {
		return nil, errors.New("at least one ticket tier is required")
	}

	totalQuantity := 0
	for _, tier := range req.Tiers {
		if tier.Label == "" || tier.Quantity <= 0 || tier.Price < 0 {
			return nil, fmt.Errorf("invalid tier %q: quantity must be positive and price non-negative", tier.Label)
		}
		totalQuantity += tier.Quantity
	}
	if req.MaxCapacity > 0 && totalQuantity > req.MaxCapacity {
		return nil, fmt.Errorf("tier quantities (%d) exceed event capacity (%d)", totalQuantity, req.MaxCapacity)
	}

	event := &models.Event{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Venue:       req.Venue,
		StartDate:   req.StartDate,
		OrganizerID: req.OrganizerID,
		MaxCapacity: req.MaxCapacity,
		Status:      models.EventStatusActive,
		CreatedAt:   time.Now(),
	}

	tiers := make([]models.TicketTier, 0, len(req.Tiers))
	for _, tier := range req.Tiers {
		tiers = append(tiers, models.TicketTier{
			ID:                uuid.New().String(),
			EventID:           event.ID,
			Label:             tier.Label,
			Price:             tier.Price,
			QuantityAvailable: tier.Quantity,
		})
	}

	if err := s.Store.CreateEvent(ctx, event, tiers); err != nil {
		return nil, fmt.Errorf("create event %s: %w", event.Name, err)
	}

	return &EventWithTiers{Event: *event, Tiers: tiers}, nil
}

func (s *Service) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	return s.Store.GetEvent(ctx, eventID)
}

func (s *Service) GetTier(ctx context.Context, tierID string) (*models.TicketTier, error) {
	return s.Store.GetTier(ctx, tierID)
}

// ListEvents returns all events with their tiers so buyers can see
// per-tier availability.
func (s *Service) ListEvents(ctx context.Context) ([]EventWithTiers, error) {
	events, err := s.Store.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	result := make([]EventWithTiers, 0, len(events))
	for _, event := range events {
		tiers, err := s.Store.ListTiersByEvent(ctx, event.ID)
		if err != nil {
			return nil, fmt.Errorf("list tiers for event %s: %w", event.ID, err)
		}
		result = append(result, EventWithTiers{Event: event, Tiers: tiers})
	}
	return result, nil
}

// CancelEvent marks the event cancelled. Already-issued tickets stay
// confirmed in storage but validation rejects them from here on.
func (s *Service) CancelEvent(ctx context.Context, eventID string) error {
	event, err := s.Store.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if event.Status != models.EventStatusActive {
		return models.ErrEventNotActive
	}
	if err := s.Store.UpdateEventStatus(ctx, eventID, models.EventStatusCancelled); err != nil {
		return fmt.Errorf("cancel event %s: %w", eventID, err)
	}
	return nil
}

// FinishEvent marks an event as over, closing further sales.
func (s *Service) FinishEvent(ctx context.Context, eventID string) error {
	event, err := s.Store.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if event.Status != models.EventStatusActive {
		return models.ErrEventNotActive
	}
	if err := s.Store.UpdateEventStatus(ctx, eventID, models.EventStatusFinished); err != nil {
		return fmt.Errorf("finish event %s: %w", eventID, err)
	}
	return nil
}

func (s *Service) GetEventStats(ctx context.Context, eventID string) (*EventStats, error) {
	if _, err := s.Store.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	sold, used, err := s.Tickets.CountTicketsByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("count tickets for event %s: %w", eventID, err)
	}
	return &EventStats{EventID: eventID, Sold: sold, Used: used}, nil
}
