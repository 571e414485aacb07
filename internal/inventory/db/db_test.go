package db_test

import (
	"context"
	"database/sql"
	"testing"

	"ms-boxoffice/internal/inventory/db"
	"ms-boxoffice/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) (*db.DB, *bun.DB) {
	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = bunDB.NewCreateTable().Model((*models.TicketTier)(nil)).Exec(context.Background())
	if err != nil {
		t.Fatalf("Failed to create ticket_tiers table: %v", err)
	}

	return &db.DB{Bun: bunDB}, bunDB
}

func seedTier(t *testing.T, bunDB *bun.DB, tier models.TicketTier) {
	_, err := bunDB.NewInsert().Model(&tier).Exec(context.Background())
	require.NoError(t, err)
}

func TestReserveInventory(t *testing.T) {
	invDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	seedTier(t, bunDB, models.TicketTier{
		ID:                "tier1",
		EventID:           "event1",
		Label:             "general",
		Price:             50.0,
		QuantityAvailable: 3,
	})

	ctx := context.Background()

	ok, err := invDB.ReserveInventory(ctx, "tier1", 2)
	require.NoError(t, err)
	assert.True(t, ok)

	// One left; asking for two must not apply.
	ok, err = invDB.ReserveInventory(ctx, "tier1", 2)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = invDB.ReserveInventory(ctx, "tier1", 1)
	require.NoError(t, err)
	assert.True(t, ok)

	tier, err := invDB.GetTier(ctx, "tier1")
	require.NoError(t, err)
	assert.Equal(t, 3, tier.QuantitySold)
	assert.Equal(t, 0, tier.Remaining())
}

func TestReserveInventoryUnknownTier(t *testing.T) {
	invDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	ok, err := invDB.ReserveInventory(context.Background(), "nope", 1)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = invDB.GetTier(context.Background(), "nope")
	assert.ErrorIs(t, err, models.ErrTierNotFound)
}

func TestReleaseInventoryClampsAtZero(t *testing.T) {
	invDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	seedTier(t, bunDB, models.TicketTier{
		ID:                "tier1",
		EventID:           "event1",
		Label:             "general",
		Price:             50.0,
		QuantityAvailable: 10,
		QuantitySold:      2,
	})

	ctx := context.Background()

	require.NoError(t, invDB.ReleaseInventory(ctx, "tier1", 1))
	tier, err := invDB.GetTier(ctx, "tier1")
	require.NoError(t, err)
	assert.Equal(t, 1, tier.QuantitySold)

	// Releasing more than sold leaves the counter at zero.
	require.NoError(t, invDB.ReleaseInventory(ctx, "tier1", 5))
	tier, err = invDB.GetTier(ctx, "tier1")
	require.NoError(t, err)
	assert.Equal(t, 0, tier.QuantitySold)
}
