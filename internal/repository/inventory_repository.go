package repository

import (
	"context"
	"sync"

	"retail-inventory/internal/domain"
)

// InMemoryLedgerRepository keeps the ledger in process memory.
// A single mutex guards every read-check-write.
type InMemoryLedgerRepository struct {
	mu             sync.Mutex
	records        []*domain.InventoryRecord
	index          map[pairKey]*domain.InventoryRecord
	movements      []*domain.MovementRecord
	nextRecordID   int64
	nextMovementID int64
}

type pairKey struct {
	storeID   int64
	productID int64
}

func NewInMemoryLedgerRepository() *InMemoryLedgerRepository {
	return &InMemoryLedgerRepository{
		index: make(map[pairKey]*domain.InventoryRecord),
	}
}

func (r *InMemoryLedgerRepository) CreateInventory(ctx context.Context, record *domain.InventoryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := pairKey{record.StoreID, record.ProductID}
	if _, exists := r.index[key]; exists {
		return domain.ErrInventoryExists
	}

	r.nextRecordID++
	record.ID = r.nextRecordID
	stored := *record
	r.records = append(r.records, &stored)
	r.index[key] = &stored
	return nil
}

func (r *InMemoryLedgerRepository) FindInventory(ctx context.Context, storeID, productID int64) (*domain.InventoryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, exists := r.index[pairKey{storeID, productID}]
	if !exists {
		return nil, domain.ErrInventoryNotFound
	}
	found := *record
	return &found, nil
}

func (r *InMemoryLedgerRepository) FindByStore(ctx context.Context, storeID int64) ([]*domain.InventoryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]*domain.InventoryRecord, 0)
	for _, record := range r.records {
		if record.StoreID == storeID {
			found := *record
			result = append(result, &found)
		}
	}
	return result, nil
}

func (r *InMemoryLedgerRepository) ApplyMovement(ctx context.Context, movement Movement) (*domain.InventoryRecord, *domain.MovementRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.index[pairKey{movement.StoreID, movement.ProductID}]
	if !exists {
		return nil, nil, domain.ErrInventoryNotFound
	}

	// Work on a copy so a rejected movement leaves the stored record untouched.
	updated := *stored
	if err := updated.Apply(movement.Quantity, movement.Type); err != nil {
		current := *stored
		return &current, nil, err
	}

	record := domain.NewMovementRecord(&updated, movement.UserID, movement.Quantity, movement.Type)
	r.nextMovementID++
	record.ID = r.nextMovementID

	*stored = updated
	r.movements = append(r.movements, record)

	result := updated
	appended := *record
	return &result, &appended, nil
}

func (r *InMemoryLedgerRepository) ListMovements(ctx context.Context) ([]*domain.MovementRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.copyMovements(func(*domain.MovementRecord) bool { return true }), nil
}

func (r *InMemoryLedgerRepository) ListMovementsByStore(ctx context.Context, storeID int64) ([]*domain.MovementRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.copyMovements(func(m *domain.MovementRecord) bool { return m.StoreID == storeID }), nil
}

func (r *InMemoryLedgerRepository) CountMovementsByType(ctx context.Context) (map[domain.MovementType]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[domain.MovementType]int64)
	for _, movement := range r.movements {
		counts[movement.Type]++
	}
	return counts, nil
}

func (r *InMemoryLedgerRepository) Ping(ctx context.Context) error {
	return nil
}

func (r *InMemoryLedgerRepository) Close() error {
	return nil
}

func (r *InMemoryLedgerRepository) copyMovements(keep func(*domain.MovementRecord) bool) []*domain.MovementRecord {
	result := make([]*domain.MovementRecord, 0)
	for _, movement := range r.movements {
		if keep(movement) {
			copied := *movement
			result = append(result, &copied)
		}
	}
	return result
}
