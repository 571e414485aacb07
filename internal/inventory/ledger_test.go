package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ms-boxoffice/internal/inventory"
	"ms-boxoffice/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) ReserveInventory(ctx context.Context, tierID string, quantity int) (bool, error) {
	args := m.Called(ctx, tierID, quantity)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) ReleaseInventory(ctx context.Context, tierID string, quantity int) error {
	args := m.Called(ctx, tierID, quantity)
	return args.Error(0)
}

func (m *MockStore) GetTier(ctx context.Context, tierID string) (*models.TicketTier, error) {
	args := m.Called(ctx, tierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TicketTier), args.Error(1)
}

func TestReserveSuccess(t *testing.T) {
	store := new(MockStore)
	ledger := inventory.NewLedger(store)

	store.On("ReserveInventory", mock.Anything, "tier1", 3).Return(true, nil)

	err := ledger.Reserve(context.Background(), "tier1", 3)
	assert.NoError(t, err)
	store.AssertExpectations(t)
}

func TestReserveInvalidQuantity(t *testing.T) {
	ledger := inventory.NewLedger(new(MockStore))

	assert.ErrorIs(t, ledger.Reserve(context.Background(), "tier1", 0), models.ErrInvalidQuantity)
	assert.ErrorIs(t, ledger.Reserve(context.Background(), "tier1", -2), models.ErrInvalidQuantity)
}

func TestReserveInsufficientReportsRemaining(t *testing.T) {
	store := new(MockStore)
	ledger := inventory.NewLedger(store)

	store.On("ReserveInventory", mock.Anything, "tier1", 5).Return(false, nil)
	store.On("GetTier", mock.Anything, "tier1").Return(&models.TicketTier{
		ID:                "tier1",
		QuantityAvailable: 10,
		QuantitySold:      8,
	}, nil)

	err := ledger.Reserve(context.Background(), "tier1", 5)
	require.Error(t, err)

	var insufficient *models.InsufficientInventoryError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 2, insufficient.Remaining)
	assert.Equal(t, 5, insufficient.Requested)
	store.AssertExpectations(t)
}

func TestReserveRetriesOnConflict(t *testing.T) {
	store := new(MockStore)
	ledger := inventory.NewLedger(store)

	store.On("ReserveInventory", mock.Anything, "tier1", 1).Return(false, models.ErrConflict).Twice()
	store.On("ReserveInventory", mock.Anything, "tier1", 1).Return(true, nil).Once()

	err := ledger.Reserve(context.Background(), "tier1", 1)
	assert.NoError(t, err)
	store.AssertExpectations(t)
}

func TestReserveGivesUpAfterRepeatedConflicts(t *testing.T) {
	store := new(MockStore)
	ledger := inventory.NewLedger(store)

	store.On("ReserveInventory", mock.Anything, "tier1", 1).Return(false, models.ErrConflict).Times(3)

	err := ledger.Reserve(context.Background(), "tier1", 1)
	assert.ErrorIs(t, err, models.ErrConflict)
	store.AssertExpectations(t)
}

func TestReserveStoreFailure(t *testing.T) {
	store := new(MockStore)
	ledger := inventory.NewLedger(store)

	store.On("ReserveInventory", mock.Anything, "tier1", 1).Return(false, errors.New("connection reset"))

	err := ledger.Reserve(context.Background(), "tier1", 1)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrConflict)
}

func TestRelease(t *testing.T) {
	store := new(MockStore)
	ledger := inventory.NewLedger(store)

	store.On("ReleaseInventory", mock.Anything, "tier1", 2).Return(nil)

	assert.NoError(t, ledger.Release(context.Background(), "tier1", 2))
	assert.ErrorIs(t, ledger.Release(context.Background(), "tier1", 0), models.ErrInvalidQuantity)
	store.AssertExpectations(t)
}

// fakeStore implements the atomic conditional increment with a mutex so
// the ledger's behavior can be exercised from many goroutines at once.
type fakeStore struct {
	mu   sync.Mutex
	tier models.TicketTier
}

func (f *fakeStore) ReserveInventory(_ context.Context, tierID string, quantity int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if tierID != f.tier.ID {
		return false, nil
	}
	if f.tier.QuantitySold+quantity > f.tier.QuantityAvailable {
		return false, nil
	}
	f.tier.QuantitySold += quantity
	return true, nil
}

func (f *fakeStore) ReleaseInventory(_ context.Context, tierID string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tier.QuantitySold -= quantity
	if f.tier.QuantitySold < 0 {
		f.tier.QuantitySold = 0
	}
	return nil
}

func (f *fakeStore) GetTier(_ context.Context, tierID string) (*models.TicketTier, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tier := f.tier
	return &tier, nil
}

func TestConcurrentReservesNeverOversell(t *testing.T) {
	const capacity = 50
	const attempts = 200

	store := &fakeStore{tier: models.TicketTier{ID: "tier1", QuantityAvailable: capacity}}
	ledger := inventory.NewLedger(store)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ledger.Reserve(context.Background(), "tier1", 1); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, capacity, succeeded)
	tier, err := store.GetTier(context.Background(), "tier1")
	require.NoError(t, err)
	assert.Equal(t, capacity, tier.QuantitySold)
}

func TestLastTicketRace(t *testing.T) {
	store := &fakeStore{tier: models.TicketTier{ID: "tier1", QuantityAvailable: 1}}
	ledger := inventory.NewLedger(store)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = ledger.Reserve(context.Background(), "tier1", 1)
		}(i)
	}
	wg.Wait()

	var insufficient *models.InsufficientInventoryError
	switch {
	case results[0] == nil:
		require.ErrorAs(t, results[1], &insufficient)
	case results[1] == nil:
		require.ErrorAs(t, results[0], &insufficient)
	default:
		t.Fatalf("expected exactly one reservation to succeed, got %v and %v", results[0], results[1])
	}
	assert.Equal(t, 0, insufficient.Remaining)
}
