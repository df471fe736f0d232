package events

import (
	"context"
	"strconv"
	"sync"
	"time"

	"retail-inventory/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventPublisher defines the interface for publishing ledger events
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Event is a fact about a committed ledger change
type Event interface {
	EventType() string
	// PartitionKey keeps all events of one (store, product) pair ordered
	PartitionKey() string
}

// InventoryRegisteredEvent is emitted after a new inventory record is committed
type InventoryRegisteredEvent struct {
	EventID    string    `json:"event_id"`
	RecordID   int64     `json:"record_id"`
	StoreID    int64     `json:"store_id"`
	ProductID  int64     `json:"product_id"`
	Quantity   int64     `json:"quantity"`
	OccurredAt time.Time `json:"occurred_at"`
}

// StockMovedEvent is emitted after a movement and its quantity change are committed
type StockMovedEvent struct {
	EventID     string    `json:"event_id"`
	MovementID  int64     `json:"movement_id"`
	StoreID     int64     `json:"store_id"`
	ProductID   int64     `json:"product_id"`
	UserID      string    `json:"user_id"`
	Type        string    `json:"type"`
	Quantity    int64     `json:"quantity"`
	NewQuantity int64     `json:"new_quantity"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (InventoryRegisteredEvent) EventType() string { return "InventoryRegistered" }

func (e InventoryRegisteredEvent) PartitionKey() string { return pairKey(e.StoreID, e.ProductID) }

func (StockMovedEvent) EventType() string { return "StockMoved" }

func (e StockMovedEvent) PartitionKey() string { return pairKey(e.StoreID, e.ProductID) }

func pairKey(storeID, productID int64) string {
	return strconv.FormatInt(storeID, 10) + ":" + strconv.FormatInt(productID, 10)
}

// NewInventoryRegistered describes a committed record
func NewInventoryRegistered(record *domain.InventoryRecord) InventoryRegisteredEvent {
	return InventoryRegisteredEvent{
		EventID:    uuid.New().String(),
		RecordID:   record.ID,
		StoreID:    record.StoreID,
		ProductID:  record.ProductID,
		Quantity:   record.Quantity,
		OccurredAt: record.CreatedAt,
	}
}

// NewStockMoved describes a committed movement and the resulting quantity
func NewStockMoved(record *domain.InventoryRecord, movement *domain.MovementRecord) StockMovedEvent {
	return StockMovedEvent{
		EventID:     uuid.New().String(),
		MovementID:  movement.ID,
		StoreID:     movement.StoreID,
		ProductID:   movement.ProductID,
		UserID:      movement.UserID,
		Type:        string(movement.Type),
		Quantity:    movement.Quantity,
		NewQuantity: record.Quantity,
		OccurredAt:  movement.CreatedAt,
	}
}

// InMemoryEventPublisher keeps published events in memory when Kafka is disabled
type InMemoryEventPublisher struct {
	mu     sync.Mutex
	logger *zap.Logger
	events []Event
}

func NewInMemoryEventPublisher(logger *zap.Logger) *InMemoryEventPublisher {
	return &InMemoryEventPublisher{
		logger: logger,
		events: make([]Event, 0),
	}
}

func (p *InMemoryEventPublisher) Publish(ctx context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)
	p.logger.Debug("Event published (in-memory)",
		zap.String("event_type", event.EventType()),
		zap.String("partition_key", event.PartitionKey()),
	)
	return nil
}

// Events returns a snapshot of everything published so far
func (p *InMemoryEventPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	snapshot := make([]Event, len(p.events))
	copy(snapshot, p.events)
	return snapshot
}

func (p *InMemoryEventPublisher) Close() error {
	return nil
}
