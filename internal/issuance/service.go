package issuance

import (
	"context"
	"fmt"
	"time"

	"ms-boxoffice/internal/logger"
	"ms-boxoffice/internal/models"
	"ms-boxoffice/internal/token"
	"ms-boxoffice/internal/utils"

	"github.com/google/uuid"
)

type TicketStore interface {
	CreatePurchase(ctx context.Context, purchase *models.Purchase, tickets []models.Ticket) error
	GetTicketByID(ctx context.Context, ticketID string) (*models.Ticket, error)
	CancelTicket(ctx context.Context, ticketID string) (bool, error)
	GetTicketsByPurchase(ctx context.Context, purchaseID string) ([]models.Ticket, error)
	GetTicketsByBuyer(ctx context.Context, buyerEmail string) ([]models.Ticket, error)
}

type EventLookup interface {
	GetEvent(ctx context.Context, eventID string) (*models.Event, error)
	GetTier(ctx context.Context, tierID string) (*models.TicketTier, error)
}

type InventoryLedger interface {
	Reserve(ctx context.Context, tierID string, quantity int) error
	Release(ctx context.Context, tierID string, quantity int) error
}

type TokenMinter interface {
	Mint(seed token.Seed) (publicCode string, integrityTag string, err error)
}

type KafkaPublisher interface {
	PublishTicketIssued(purchase models.Purchase, tickets []models.Ticket) error
	PublishTicketCancelled(ticket models.Ticket) error
}

// Service turns a purchase intent into persisted tickets: validate the
// event and tier, reserve inventory, mint one token per ticket, persist
// everything as one unit, and compensate the reservation on failure.
type Service struct {
	Catalog EventLookup
	Ledger  InventoryLedger
	Tokens  TokenMinter
	DB      TicketStore
	Kafka   KafkaPublisher
	Logger  *logger.Logger
}

func NewService(catalog EventLookup, ledger InventoryLedger, tokens TokenMinter, db TicketStore, kafka KafkaPublisher, log *logger.Logger) *Service {
	return &Service{Catalog: catalog, Ledger: ledger, Tokens: tokens, DB: db, Kafka: kafka, Logger: log}
}

func (s *Service) PlacePurchase(ctx context.Context, req models.PurchaseRequest) (*models.PurchaseResult, error) {
	if req.Quantity <= 0 {
		return nil, models.ErrInvalidQuantity
	}
	if req.Buyer.Name == "" || req.Buyer.Email == "" {
		return nil, models.ErrMissingBuyer
	}

	// Step 1: the event must exist, be active, and not have started yet.
	event, err := s.Catalog.GetEvent(ctx, req.EventID)
	if err != nil {
		return nil, err
	}
	if event.Status != models.EventStatusActive {
		return nil, models.ErrEventNotActive
	}
	if !event.StartDate.IsZero() && event.StartDate.Before(time.Now()) {
		return nil, models.ErrEventFinished
	}

	// Step 2: the tier must exist and belong to that event.
	tier, err := s.Catalog.GetTier(ctx, req.TierID)
	if err != nil {
		return nil, err
	}
	if tier.EventID != event.ID {
		return nil, models.ErrTierNotFound
	}

	// Step 3: reserve inventory before minting anything.
	if err := s.Ledger.Reserve(ctx, tier.ID, req.Quantity); err != nil {
		return nil, err
	}

	purchaseID := utils.GeneratePurchaseID()
	now := time.Now()

	tickets := make([]models.Ticket, 0, req.Quantity)
	for i := 0; i < req.Quantity; i++ {
		ticketID := uuid.New().String()
		code, tag, err := s.Tokens.Mint(token.Seed{TicketID: ticketID, EventID: event.ID})
		if err != nil {
			s.release(ctx, tier.ID, req.Quantity)
			return nil, fmt.Errorf("mint token for ticket %s: %w", ticketID, err)
		}
		tickets = append(tickets, models.Ticket{
			TicketID:        ticketID,
			PurchaseID:      purchaseID,
			EventID:         event.ID,
			TierID:          tier.ID,
			BuyerName:       req.Buyer.Name,
			BuyerEmail:      req.Buyer.Email,
			BuyerPhone:      req.Buyer.Phone,
			PublicCode:      code,
			IntegrityTag:    tag,
			PriceAtPurchase: tier.Price,
			Status:          models.TicketStatusConfirmed,
			IssuedAt:        now,
		})
	}

	purchase := &models.Purchase{
		PurchaseID: purchaseID,
		EventID:    event.ID,
		TierID:     tier.ID,
		BuyerName:  req.Buyer.Name,
		BuyerEmail: req.Buyer.Email,
		BuyerPhone: req.Buyer.Phone,
		Quantity:   req.Quantity,
		TotalPrice: tier.Price * float64(req.Quantity),
		Status:     models.TicketStatusConfirmed,
		CreatedAt:  now,
	}

	// Step 4: persist purchase and tickets as one unit. If this fails
	// the reservation must be rolled back or the ledger diverges from
	// the tickets that actually exist.
	if err := s.DB.CreatePurchase(ctx, purchase, tickets); err != nil {
		s.release(ctx, tier.ID, req.Quantity)
		return nil, fmt.Errorf("persist purchase %s: %w", purchaseID, err)
	}

	if s.Logger != nil {
		s.Logger.LogIssuance("PLACED", purchaseID, fmt.Sprintf("%d ticket(s) for event %s, total %.2f", req.Quantity, event.ID, purchase.TotalPrice))
	}

	if s.Kafka != nil {
		if err := s.Kafka.PublishTicketIssued(*purchase, tickets); err != nil && s.Logger != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("publish ticket issued for %s: %v", purchaseID, err))
		}
	}

	return &models.PurchaseResult{
		Purchase:   purchase,
		Tickets:    tickets,
		TotalPrice: purchase.TotalPrice,
	}, nil
}

// CancelTicket transitions a confirmed ticket to cancelled and returns
// its inventory unit to the tier. Used tickets cannot be cancelled.
func (s *Service) CancelTicket(ctx context.Context, ticketID string) error {
	ticket, err := s.DB.GetTicketByID(ctx, ticketID)
	if err != nil {
		return err
	}

	ok, err := s.DB.CancelTicket(ctx, ticketID)
	if err != nil {
		return fmt.Errorf("cancel ticket %s: %w", ticketID, err)
	}
	if !ok {
		return models.ErrTicketNotCancellable
	}

	if err := s.Ledger.Release(ctx, ticket.TierID, 1); err != nil && s.Logger != nil {
		s.Logger.Error("INVENTORY", fmt.Sprintf("release 1 for tier %s after cancelling %s: %v", ticket.TierID, ticketID, err))
	}

	if s.Kafka != nil {
		ticket.Status = models.TicketStatusCancelled
		if err := s.Kafka.PublishTicketCancelled(*ticket); err != nil && s.Logger != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("publish ticket cancelled for %s: %v", ticketID, err))
		}
	}

	return nil
}

func (s *Service) GetPurchaseTickets(ctx context.Context, purchaseID string) ([]models.Ticket, error) {
	tickets, err := s.DB.GetTicketsByPurchase(ctx, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("fetch tickets for purchase %s: %w", purchaseID, err)
	}
	return tickets, nil
}

func (s *Service) GetBuyerTickets(ctx context.Context, buyerEmail string) ([]models.Ticket, error) {
	tickets, err := s.DB.GetTicketsByBuyer(ctx, buyerEmail)
	if err != nil {
		return nil, fmt.Errorf("fetch tickets for buyer %s: %w", buyerEmail, err)
	}
	return tickets, nil
}

func (s *Service) release(ctx context.Context, tierID string, quantity int) {
	if err := s.Ledger.Release(ctx, tierID, quantity); err != nil && s.Logger != nil {
		s.Logger.Error("INVENTORY", fmt.Sprintf("compensating release of %d for tier %s failed: %v", quantity, tierID, err))
	}
}
