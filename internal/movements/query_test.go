package movements

import (
	"context"
	"testing"

	"retail-inventory/internal/domain"
	"retail-inventory/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededRepository(t *testing.T) *repository.InMemoryLedgerRepository {
	t.Helper()
	ctx := context.Background()
	repo := repository.NewInMemoryLedgerRepository()

	for _, pair := range [][2]int64{{1, 1}, {2, 1}} {
		record, err := domain.NewInventoryRecord(pair[0], pair[1], 10)
		require.NoError(t, err)
		require.NoError(t, repo.CreateInventory(ctx, record))
	}

	moves := []repository.Movement{
		{StoreID: 1, ProductID: 1, UserID: "admin", Quantity: 5, Type: domain.MovementEntry},
		{StoreID: 2, ProductID: 1, UserID: "employee", Quantity: 3, Type: domain.MovementExit},
		{StoreID: 1, ProductID: 1, UserID: "employee", Quantity: 2, Type: domain.MovementExit},
	}
	for _, move := range moves {
		_, _, err := repo.ApplyMovement(ctx, move)
		require.NoError(t, err)
	}
	return repo
}

func TestQuery_ListAll(t *testing.T) {
	query := NewQuery(seededRepository(t))

	all, err := query.ListAll(context.Background())

	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(5), all[0].Quantity)
	assert.Equal(t, int64(3), all[1].Quantity)
	assert.Equal(t, int64(2), all[2].Quantity)
}

func TestQuery_ListByStore(t *testing.T) {
	query := NewQuery(seededRepository(t))

	byStore, err := query.ListByStore(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, byStore, 2)
	assert.Equal(t, domain.MovementEntry, byStore[0].Type)
	assert.Equal(t, domain.MovementExit, byStore[1].Type)

	none, err := query.ListByStore(context.Background(), 77)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestQuery_MetricsByType(t *testing.T) {
	query := NewQuery(seededRepository(t))

	metrics, err := query.MetricsByType(context.Background())

	require.NoError(t, err)
	assert.Equal(t, map[domain.MovementType]int64{domain.MovementEntry: 1, domain.MovementExit: 2}, metrics)
}

func TestQuery_MetricsOmitAbsentTypes(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewInMemoryLedgerRepository()
	record, _ := domain.NewInventoryRecord(1, 1, 0)
	require.NoError(t, repo.CreateInventory(ctx, record))
	_, _, err := repo.ApplyMovement(ctx, repository.Movement{StoreID: 1, ProductID: 1, UserID: "admin", Quantity: 4, Type: domain.MovementEntry})
	require.NoError(t, err)

	metrics, err := NewQuery(repo).MetricsByType(ctx)

	require.NoError(t, err)
	_, hasExit := metrics[domain.MovementExit]
	assert.False(t, hasExit)
	assert.Equal(t, int64(1), metrics[domain.MovementEntry])
}

func TestQuery_Summary(t *testing.T) {
	query := NewQuery(seededRepository(t))

	summary, err := query.Summary(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.Total)
	assert.Equal(t, int64(5), summary.UnitsIn)
	assert.Equal(t, int64(5), summary.UnitsOut)
	assert.Equal(t, 2, summary.StoresTouched)
	assert.Equal(t, int64(2), summary.ByType[domain.MovementExit])
}
