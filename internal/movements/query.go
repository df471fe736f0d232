package movements

import (
	"context"

	"retail-inventory/internal/domain"
)

// MovementReader is the read side of the ledger used for audit queries
type MovementReader interface {
	ListMovements(ctx context.Context) ([]*domain.MovementRecord, error)
	ListMovementsByStore(ctx context.Context, storeID int64) ([]*domain.MovementRecord, error)
	CountMovementsByType(ctx context.Context) (map[domain.MovementType]int64, error)
}

// Query serves read-only views of the movement log
type Query struct {
	reader MovementReader
}

func NewQuery(reader MovementReader) *Query {
	return &Query{reader: reader}
}

// ListAll returns every movement in the order it was recorded
func (q *Query) ListAll(ctx context.Context) ([]*domain.MovementRecord, error) {
	return q.reader.ListMovements(ctx)
}

// ListByStore returns the movements of one store in the order they were recorded
func (q *Query) ListByStore(ctx context.Context, storeID int64) ([]*domain.MovementRecord, error) {
	return q.reader.ListMovementsByStore(ctx, storeID)
}

// MetricsByType counts movements per type. Types with no movements are absent.
func (q *Query) MetricsByType(ctx context.Context) (map[domain.MovementType]int64, error) {
	return q.reader.CountMovementsByType(ctx)
}

// Summary aggregates the movement log for periodic reporting
type Summary struct {
	Total         int64
	ByType        map[domain.MovementType]int64
	UnitsIn       int64
	UnitsOut      int64
	StoresTouched int
}

// Summary walks the full log once
func (q *Query) Summary(ctx context.Context) (*Summary, error) {
	all, err := q.reader.ListMovements(ctx)
	if err != nil {
		return nil, err
	}

	summary := &Summary{ByType: make(map[domain.MovementType]int64)}
	stores := make(map[int64]struct{})
	for _, movement := range all {
		summary.Total++
		summary.ByType[movement.Type]++
		stores[movement.StoreID] = struct{}{}
		switch movement.Type {
		case domain.MovementEntry:
			summary.UnitsIn += movement.Quantity
		case domain.MovementExit:
			summary.UnitsOut += movement.Quantity
		}
	}
	summary.StoresTouched = len(stores)
	return summary, nil
}
