package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"retail-inventory/internal/commands"
	"retail-inventory/internal/directory"
	"retail-inventory/internal/domain"
	"retail-inventory/internal/events"
	"retail-inventory/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockDirectory is a mock implementation of Directory
type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) StoreExists(ctx context.Context, storeID int64, callerToken string) (bool, error) {
	args := m.Called(ctx, storeID, callerToken)
	return args.Bool(0), args.Error(1)
}

func (m *MockDirectory) ProductExists(ctx context.Context, productID int64, callerToken string) (bool, error) {
	args := m.Called(ctx, productID, callerToken)
	return args.Bool(0), args.Error(1)
}

type failingPublisher struct{}

func (failingPublisher) Publish(ctx context.Context, event events.Event) error {
	return errors.New("broker down")
}

func (failingPublisher) Close() error { return nil }

type fixture struct {
	service   *Service
	repo      repository.LedgerRepository
	directory *MockDirectory
	publisher *events.InMemoryEventPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := repository.NewInMemoryLedgerRepository()
	dir := new(MockDirectory)
	publisher := events.NewInMemoryEventPublisher(zap.NewNop())
	return &fixture{
		service:   NewService(repo, dir, publisher, zap.NewNop()),
		repo:      repo,
		directory: dir,
		publisher: publisher,
	}
}

func (f *fixture) allowAll() {
	f.directory.On("StoreExists", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	f.directory.On("ProductExists", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
}

func (f *fixture) register(t *testing.T, storeID, productID, quantity int64) *domain.InventoryRecord {
	t.Helper()
	record, err := f.service.AddInventory(context.Background(), commands.RegisterInventoryCommand{
		StoreID: storeID, ProductID: productID, Quantity: quantity, CallerToken: "token",
	})
	require.NoError(t, err)
	return record
}

func TestAddInventory_Success(t *testing.T) {
	f := newFixture(t)
	f.directory.On("StoreExists", mock.Anything, int64(1), "caller-token").Return(true, nil)
	f.directory.On("ProductExists", mock.Anything, int64(2), "caller-token").Return(true, nil)

	record, err := f.service.AddInventory(context.Background(), commands.RegisterInventoryCommand{
		StoreID: 1, ProductID: 2, Quantity: 10, CallerToken: "caller-token",
	})

	require.NoError(t, err)
	assert.NotZero(t, record.ID)
	assert.Equal(t, int64(10), record.Quantity)
	f.directory.AssertExpectations(t)

	published := f.publisher.Events()
	require.Len(t, published, 1)
	assert.Equal(t, "InventoryRegistered", published[0].EventType())
}

func TestAddInventory_NegativeQuantity(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.AddInventory(context.Background(), commands.RegisterInventoryCommand{StoreID: 1, ProductID: 2, Quantity: -1})

	assert.Equal(t, domain.ErrInvalidQuantity, err)
	f.directory.AssertNotCalled(t, "StoreExists", mock.Anything, mock.Anything, mock.Anything)
}

func TestAddInventory_StoreNotFound(t *testing.T) {
	f := newFixture(t)
	f.directory.On("StoreExists", mock.Anything, int64(999), "token").Return(false, nil)

	_, err := f.service.AddInventory(context.Background(), commands.RegisterInventoryCommand{
		StoreID: 999, ProductID: 1, Quantity: 5, CallerToken: "token",
	})

	assert.Equal(t, domain.ErrStoreNotFound, err)
	f.directory.AssertNotCalled(t, "ProductExists", mock.Anything, mock.Anything, mock.Anything)

	records, _ := f.repo.FindByStore(context.Background(), 999)
	assert.Empty(t, records)
	assert.Empty(t, f.publisher.Events())
}

func TestAddInventory_ProductNotFound(t *testing.T) {
	f := newFixture(t)
	f.directory.On("StoreExists", mock.Anything, int64(1), "token").Return(true, nil)
	f.directory.On("ProductExists", mock.Anything, int64(404), "token").Return(false, nil)

	_, err := f.service.AddInventory(context.Background(), commands.RegisterInventoryCommand{
		StoreID: 1, ProductID: 404, Quantity: 5, CallerToken: "token",
	})

	assert.Equal(t, domain.ErrProductNotFound, err)
}

func TestAddInventory_DependencyUnavailable(t *testing.T) {
	f := newFixture(t)
	unavailable := &directory.UnavailableError{Service: directory.ServiceProduct, Err: errors.New("status 503")}
	f.directory.On("StoreExists", mock.Anything, int64(1), "token").Return(true, nil)
	f.directory.On("ProductExists", mock.Anything, int64(2), "token").Return(false, unavailable)

	_, err := f.service.AddInventory(context.Background(), commands.RegisterInventoryCommand{
		StoreID: 1, ProductID: 2, Quantity: 5, CallerToken: "token",
	})

	assert.True(t, errors.Is(err, directory.ErrDependencyUnavailable))
	_, findErr := f.repo.FindInventory(context.Background(), 1, 2)
	assert.Equal(t, domain.ErrInventoryNotFound, findErr)
}

func TestAddInventory_Conflict(t *testing.T) {
	f := newFixture(t)
	f.allowAll()
	f.register(t, 1, 2, 5)

	_, err := f.service.AddInventory(context.Background(), commands.RegisterInventoryCommand{
		StoreID: 1, ProductID: 2, Quantity: 8, CallerToken: "token",
	})

	assert.Equal(t, domain.ErrInventoryExists, err)
	found, _ := f.repo.FindInventory(context.Background(), 1, 2)
	assert.Equal(t, int64(5), found.Quantity)
}

func TestApplyMovement_EntryThenExit(t *testing.T) {
	f := newFixture(t)
	f.allowAll()
	f.register(t, 1, 2, 10)

	record, movement, err := f.service.ApplyMovement(context.Background(), commands.RecordMovementCommand{
		StoreID: 1, ProductID: 2, Quantity: 5, UserID: "admin", Type: domain.MovementEntry,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(15), record.Quantity)
	assert.Equal(t, "admin", movement.UserID)

	record, _, err = f.service.ApplyMovement(context.Background(), commands.RecordMovementCommand{
		StoreID: 1, ProductID: 2, Quantity: 15, UserID: "employee", Type: domain.MovementExit,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), record.Quantity)

	assert.Len(t, f.publisher.Events(), 3)
}

func TestApplyMovement_InsufficientStock(t *testing.T) {
	f := newFixture(t)
	f.allowAll()
	f.register(t, 1, 2, 6)

	_, _, err := f.service.ApplyMovement(context.Background(), commands.RecordMovementCommand{
		StoreID: 1, ProductID: 2, Quantity: 10, UserID: "employee", Type: domain.MovementExit,
	})

	var insufficient *InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, int64(6), insufficient.Available)
	assert.Equal(t, int64(10), insufficient.Requested)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))

	found, _ := f.repo.FindInventory(context.Background(), 1, 2)
	assert.Equal(t, int64(6), found.Quantity)
	movements, _ := f.repo.ListMovements(context.Background())
	assert.Empty(t, movements)
}

func TestApplyMovement_Validation(t *testing.T) {
	f := newFixture(t)

	testCases := []struct {
		name     string
		cmd      commands.RecordMovementCommand
		expected error
	}{
		{"zero quantity", commands.RecordMovementCommand{StoreID: 1, ProductID: 1, Quantity: 0, UserID: "u", Type: domain.MovementEntry}, domain.ErrInvalidQuantity},
		{"negative quantity", commands.RecordMovementCommand{StoreID: 1, ProductID: 1, Quantity: -2, UserID: "u", Type: domain.MovementExit}, domain.ErrInvalidQuantity},
		{"unknown type", commands.RecordMovementCommand{StoreID: 1, ProductID: 1, Quantity: 2, UserID: "u", Type: "RESERVE"}, domain.ErrInvalidMovementType},
		{"missing user", commands.RecordMovementCommand{StoreID: 1, ProductID: 1, Quantity: 2, UserID: " ", Type: domain.MovementEntry}, domain.ErrMissingUser},
		{"missing record", commands.RecordMovementCommand{StoreID: 1, ProductID: 1, Quantity: 2, UserID: "u", Type: domain.MovementEntry}, domain.ErrInventoryNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := f.service.ApplyMovement(context.Background(), tc.cmd)
			assert.Equal(t, tc.expected, err)
		})
	}
}

func TestApplyMovement_PublishFailureKeepsCommit(t *testing.T) {
	repo := repository.NewInMemoryLedgerRepository()
	dir := new(MockDirectory)
	dir.On("StoreExists", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	dir.On("ProductExists", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	service := NewService(repo, dir, failingPublisher{}, zap.NewNop())

	_, err := service.AddInventory(context.Background(), commands.RegisterInventoryCommand{StoreID: 1, ProductID: 1, Quantity: 3})
	require.NoError(t, err)

	record, _, err := service.ApplyMovement(context.Background(), commands.RecordMovementCommand{
		StoreID: 1, ProductID: 1, Quantity: 2, UserID: "admin", Type: domain.MovementExit,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), record.Quantity)
}

func TestApplyMovement_ConcurrentExitsOnSQLite(t *testing.T) {
	repo, err := repository.NewSQLiteLedgerRepository(filepath.Join(t.TempDir(), "ledger.db"), zap.NewNop())
	require.NoError(t, err)
	defer repo.Close()

	dir := new(MockDirectory)
	dir.On("StoreExists", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	dir.On("ProductExists", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	service := NewService(repo, dir, events.NewInMemoryEventPublisher(zap.NewNop()), zap.NewNop())

	_, err = service.AddInventory(context.Background(), commands.RegisterInventoryCommand{StoreID: 5, ProductID: 5, Quantity: 12})
	require.NoError(t, err)

	// 10 workers each take 3 units: exactly 4 fit into 12.
	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := service.ApplyMovement(context.Background(), commands.RecordMovementCommand{
				StoreID: 5, ProductID: 5, Quantity: 3, UserID: "employee", Type: domain.MovementExit,
			})
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 4, accepted)
	records, err := service.GetInventoryByStore(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(0), records[0].Quantity)
}

func TestGetInventoryByStore(t *testing.T) {
	f := newFixture(t)
	f.allowAll()
	f.register(t, 1, 3, 1)
	f.register(t, 1, 1, 1)
	f.register(t, 2, 1, 1)

	records, err := f.service.GetInventoryByStore(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(3), records[0].ProductID)
	assert.Equal(t, int64(1), records[1].ProductID)
}
