package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ms-boxoffice/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// CreatePurchase persists the purchase aggregate and its tickets as one
// transaction, so a failure leaves no partially issued purchase behind.
func (d *DB) CreatePurchase(ctx context.Context, purchase *models.Purchase, tickets []models.Ticket) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(purchase).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewInsert().Model(&tickets).Exec(ctx); err != nil {
			return err
		}
		return nil
	})
}

func (d *DB) GetTicketByID(ctx context.Context, ticketID string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := d.Bun.NewSelect().
		Model(&ticket).
		Where("ticket_id = ?", ticketID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrTicketNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

func (d *DB) GetTicketByCode(ctx context.Context, publicCode string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := d.Bun.NewSelect().
		Model(&ticket).
		Where("public_code = ?", publicCode).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrTicketNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

// MarkTicketUsed is the exactly-once gate: a conditional UPDATE that only
// applies while the ticket is still confirmed. Of N concurrent callers
// exactly one sees true; the rest observe the post-transition row.
func (d *DB) MarkTicketUsed(ctx context.Context, ticketID string, usedAt time.Time) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Ticket)(nil)).
		Set("status = ?", models.TicketStatusUsed).
		Set("used_at = ?", usedAt).
		Where("ticket_id = ?", ticketID).
		Where("status = ?", models.TicketStatusConfirmed).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// CancelTicket transitions confirmed -> cancelled with the same
// conditional-update shape; used tickets can never be cancelled.
func (d *DB) CancelTicket(ctx context.Context, ticketID string) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Ticket)(nil)).
		Set("status = ?", models.TicketStatusCancelled).
		Where("ticket_id = ?", ticketID).
		Where("status = ?", models.TicketStatusConfirmed).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (d *DB) GetTicketsByPurchase(ctx context.Context, purchaseID string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("purchase_id = ?", purchaseID).
		Order("issued_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

func (d *DB) GetTicketsByBuyer(ctx context.Context, buyerEmail string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("buyer_email = ?", buyerEmail).
		Order("issued_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// CountTicketsByEvent reports sold and used counts for organizer
// dashboards.
func (d *DB) CountTicketsByEvent(ctx context.Context, eventID string) (sold int, used int, err error) {
	sold, err = d.Bun.NewSelect().
		Model((*models.Ticket)(nil)).
		Where("event_id = ?", eventID).
		Where("status IN (?, ?)", models.TicketStatusConfirmed, models.TicketStatusUsed).
		Count(ctx)
	if err != nil {
		return 0, 0, err
	}
	used, err = d.Bun.NewSelect().
		Model((*models.Ticket)(nil)).
		Where("event_id = ?", eventID).
		Where("status = ?", models.TicketStatusUsed).
		Count(ctx)
	if err != nil {
		return 0, 0, err
	}
	return sold, used, nil
}
