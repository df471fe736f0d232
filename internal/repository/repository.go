package repository

import (
	"context"

	"retail-inventory/internal/domain"
)

// Movement describes a stock change to apply atomically to one (store, product) record
type Movement struct {
	StoreID   int64
	ProductID int64
	UserID    string
	Quantity  int64
	Type      domain.MovementType
}

// LedgerRepository defines the interface for inventory and movement persistence.
//
// ApplyMovement reads, checks and writes the record and appends the movement in a single
// transaction; concurrent calls on the same pair are serialized by every implementation.
// On domain.ErrInsufficientStock the unchanged record is returned alongside the error.
type LedgerRepository interface {
	CreateInventory(ctx context.Context, record *domain.InventoryRecord) error
	FindInventory(ctx context.Context, storeID, productID int64) (*domain.InventoryRecord, error)
	FindByStore(ctx context.Context, storeID int64) ([]*domain.InventoryRecord, error)
	ApplyMovement(ctx context.Context, movement Movement) (*domain.InventoryRecord, *domain.MovementRecord, error)
	ListMovements(ctx context.Context) ([]*domain.MovementRecord, error)
	ListMovementsByStore(ctx context.Context, storeID int64) ([]*domain.MovementRecord, error)
	CountMovementsByType(ctx context.Context) (map[domain.MovementType]int64, error)
	Ping(ctx context.Context) error
	Close() error
}
