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

// ReserveInventory applies the check-then-increment as one conditional
// UPDATE so two purchases near the capacity boundary can never both
// pass the check. Zero rows affected means the tier is missing or full.
func (d *DB) ReserveInventory(ctx context.Context, tierID string, quantity int) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.TicketTier)(nil)).
		Set("quantity_sold = quantity_sold + ?", quantity).
		Where("id = ?", tierID).
		Where("quantity_sold + ? <= quantity_available", quantity).
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

// ReleaseInventory decrements quantity_sold, never below zero.
func (d *DB) ReleaseInventory(ctx context.Context, tierID string, quantity int) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.TicketTier)(nil)).
		Set("quantity_sold = CASE WHEN quantity_sold >= ? THEN quantity_sold - ? ELSE 0 END", quantity, quantity).
		Where("id = ?", tierID).
		Exec(ctx)
	return err
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
