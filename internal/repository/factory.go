package repository

import (
	"context"
	"fmt"

	"retail-inventory/internal/config"

	"go.uber.org/zap"
)

// Open builds the ledger repository selected by DB_DRIVER
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (LedgerRepository, error) {
	switch cfg.DBDriver {
	case "memory":
		logger.Warn("Using in-memory ledger; stock is lost on restart")
		return NewInMemoryLedgerRepository(), nil
	case "sqlite", "":
		return NewSQLiteLedgerRepository(cfg.SQLitePath, logger)
	case "postgres":
		return NewPostgresLedgerRepository(ctx, cfg.PostgresDSN(), logger)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}
