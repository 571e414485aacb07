package db

import (
	"context"
	"database/sql"
	"errors"

	"ms-boxoffice/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", eventID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrEventNotFound
		}
		return nil, err
	}
	return &event, nil
}

func (d *DB) GetTier(ctx context.Context, tierID string) (*models.TicketTier, error) {
	var tier models.TicketTier
	err := d.Bun.NewSelect().
		Model(&tier).
		Where("id = ?", tierID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrTierNotFound
		}
		return nil, err
	}
	return &tier, nil
}

func (d *DB) CreateEvent(ctx context.Context, event *models.Event, tiers []models.TicketTier) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(event).Exec(ctx); err != nil {
			return err
		}
		if len(tiers) > 0 {
			if _, err := tx.NewInsert().Model(&tiers).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

func (d *DB) ListEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	err := d.Bun.NewSelect().
		Model(&events).
		Order("start_date ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (d *DB) ListTiersByEvent(ctx context.Context, eventID string) ([]models.TicketTier, error) {
	var tiers []models.TicketTier
	err := d.Bun.NewSelect().
		Model(&tiers).
		Where("event_id = ?", eventID).
		Order("price ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tiers, nil
}

func (d *DB) UpdateEventStatus(ctx context.Context, eventID, status string) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Event)(nil)).
		Set("status = ?", status).
		Where("id = ?", eventID).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrEventNotFound
	}
	return nil
}
