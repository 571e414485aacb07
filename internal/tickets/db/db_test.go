package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"ms-boxoffice/internal/models"
	"ms-boxoffice/internal/tickets/db"

	"github.com/google/uuid"
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

	ctx := context.Background()
	if _, err := bunDB.NewCreateTable().Model((*models.Ticket)(nil)).Exec(ctx); err != nil {
		t.Fatalf("Failed to create tickets table: %v", err)
	}
	if _, err := bunDB.NewCreateTable().Model((*models.Purchase)(nil)).Exec(ctx); err != nil {
		t.Fatalf("Failed to create purchases table: %v", err)
	}

	return &db.DB{Bun: bunDB}, bunDB
}

func testPurchase(quantity int) (*models.Purchase, []models.Ticket) {
	purchase := &models.Purchase{
		PurchaseID: uuid.New().String(),
		EventID:    "event1",
		TierID:     "tier1",
		BuyerName:  "Ana Souza",
		BuyerEmail: "ana@example.com",
		Quantity:   quantity,
		TotalPrice: 50.0 * float64(quantity),
		Status:     models.TicketStatusConfirmed,
		CreatedAt:  time.Now(),
	}

	tickets := make([]models.Ticket, 0, quantity)
	for i := 0; i < quantity; i++ {
		id := uuid.New().String()
		tickets = append(tickets, models.Ticket{
			TicketID:        id,
			PurchaseID:      purchase.PurchaseID,
			EventID:         purchase.EventID,
			TierID:          purchase.TierID,
			BuyerName:       purchase.BuyerName,
			BuyerEmail:      purchase.BuyerEmail,
			PublicCode:      "code-" + id,
			IntegrityTag:    "tag-" + id,
			PriceAtPurchase: 50.0,
			Status:          models.TicketStatusConfirmed,
			IssuedAt:        time.Now(),
		})
	}
	return purchase, tickets
}

func TestCreatePurchaseAndLookup(t *testing.T) {
	ticketDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	ctx := context.Background()
	purchase, tickets := testPurchase(3)

	require.NoError(t, ticketDB.CreatePurchase(ctx, purchase, tickets))

	byPurchase, err := ticketDB.GetTicketsByPurchase(ctx, purchase.PurchaseID)
	require.NoError(t, err)
	assert.Len(t, byPurchase, 3)

	found, err := ticketDB.GetTicketByCode(ctx, tickets[0].PublicCode)
	require.NoError(t, err)
	assert.Equal(t, tickets[0].TicketID, found.TicketID)
	assert.Equal(t, models.TicketStatusConfirmed, found.Status)

	byBuyer, err := ticketDB.GetTicketsByBuyer(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Len(t, byBuyer, 3)

	_, err = ticketDB.GetTicketByCode(ctx, "QR_DOES_NOT_EXIST")
	assert.ErrorIs(t, err, models.ErrTicketNotFound)
}

func TestPublicCodeUniqueConstraint(t *testing.T) {
	ticketDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	ctx := context.Background()
	purchase, tickets := testPurchase(1)
	require.NoError(t, ticketDB.CreatePurchase(ctx, purchase, tickets))

	dupPurchase, dupTickets := testPurchase(1)
	dupTickets[0].PublicCode = tickets[0].PublicCode

	err := ticketDB.CreatePurchase(ctx, dupPurchase, dupTickets)
	assert.Error(t, err)

	// The transaction rolled back: the duplicate purchase left nothing.
	rows, err := ticketDB.GetTicketsByPurchase(ctx, dupPurchase.PurchaseID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestMarkTicketUsedExactlyOnce(t *testing.T) {
	ticketDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	ctx := context.Background()
	purchase, tickets := testPurchase(1)
	require.NoError(t, ticketDB.CreatePurchase(ctx, purchase, tickets))

	usedAt := time.Now()
	ok, err := ticketDB.MarkTicketUsed(ctx, tickets[0].TicketID, usedAt)
	require.NoError(t, err)
	assert.True(t, ok)

	// Second transition loses the conditional update.
	ok, err = ticketDB.MarkTicketUsed(ctx, tickets[0].TicketID, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	found, err := ticketDB.GetTicketByID(ctx, tickets[0].TicketID)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusUsed, found.Status)
	assert.WithinDuration(t, usedAt, found.UsedAt, time.Second)
}

func TestCancelTicket(t *testing.T) {
	ticketDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	ctx := context.Background()
	purchase, tickets := testPurchase(2)
	require.NoError(t, ticketDB.CreatePurchase(ctx, purchase, tickets))

	ok, err := ticketDB.CancelTicket(ctx, tickets[0].TicketID)
	require.NoError(t, err)
	assert.True(t, ok)

	// Cancelled tickets can never become used.
	ok, err = ticketDB.MarkTicketUsed(ctx, tickets[0].TicketID, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	// Used tickets can never be cancelled.
	ok, err = ticketDB.MarkTicketUsed(ctx, tickets[1].TicketID, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = ticketDB.CancelTicket(ctx, tickets[1].TicketID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCountTicketsByEvent(t *testing.T) {
	ticketDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	ctx := context.Background()
	purchase, tickets := testPurchase(3)
	require.NoError(t, ticketDB.CreatePurchase(ctx, purchase, tickets))

	_, err := ticketDB.MarkTicketUsed(ctx, tickets[0].TicketID, time.Now())
	require.NoError(t, err)
	_, err = ticketDB.CancelTicket(ctx, tickets[1].TicketID)
	require.NoError(t, err)

	sold, used, err := ticketDB.CountTicketsByEvent(ctx, "event1")
	require.NoError(t, err)
	assert.Equal(t, 2, sold) // cancelled ticket no longer counts as sold
	assert.Equal(t, 1, used)
}
