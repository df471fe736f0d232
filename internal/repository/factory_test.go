package repository

import (
	"context"
	"path/filepath"
	"testing"

	"retail-inventory/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	repo, err := Open(ctx, &config.Config{DBDriver: "memory"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &InMemoryLedgerRepository{}, repo)

	repo, err = Open(ctx, &config.Config{DBDriver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "inv.db")}, zap.NewNop())
	require.NoError(t, err)
	defer repo.Close()
	assert.IsType(t, &SQLiteLedgerRepository{}, repo)
	assert.NoError(t, repo.Ping(ctx))

	_, err = Open(ctx, &config.Config{DBDriver: "mongo"}, zap.NewNop())
	assert.ErrorContains(t, err, "unsupported DB_DRIVER")
}
